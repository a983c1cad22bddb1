package frontmatter

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParse_TypedFields(t *testing.T) {
	input := []byte("---\ntitle: Hello World\nlayout: post\nslug: hello\ndraft: true\ntags:\n  - go\n  - web\nauthor: mk\n---\nBody text\n")

	meta, body, err := Parse(input)
	require.NoError(t, err)

	require.Equal(t, "Hello World", meta.Title)
	require.Equal(t, "post", meta.Layout)
	require.Equal(t, "hello", meta.Slug)
	require.True(t, meta.Draft)
	require.Equal(t, []string{"go", "web"}, meta.Tags)
	require.Equal(t, "mk", meta.Extra["author"])
	require.Equal(t, []byte("Body text\n"), body)
}

func TestParse_NoHeader_ReturnsZeroMetadata(t *testing.T) {
	input := []byte("Just a body\n")

	meta, body, err := Parse(input)
	require.NoError(t, err)
	require.Empty(t, meta.Title)
	require.False(t, meta.HasDate())
	require.Equal(t, input, body)
}

func TestParse_UnclosedHeader_ReturnsError(t *testing.T) {
	input := []byte("---\ntitle: Broken\n")

	_, _, err := Parse(input)
	require.True(t, errors.Is(err, ErrMissingClosingDelimiter))
}

func TestParse_DateFormats(t *testing.T) {
	cases := []struct {
		name  string
		value string
		want  time.Time
	}{
		{"quoted date only", `"2024-03-10"`, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)},
		{"quoted rfc3339", `"2024-03-10T14:30:00Z"`, time.Date(2024, 3, 10, 14, 30, 0, 0, time.UTC)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			input := []byte("---\ndate: " + tc.value + "\n---\nx\n")
			meta, _, err := Parse(input)
			require.NoError(t, err)
			require.True(t, meta.HasDate())
			require.True(t, tc.want.Equal(meta.Date), "got %v", meta.Date)
		})
	}
}

func TestParse_UnquotedYAMLDate_ParsesAsTimestamp(t *testing.T) {
	input := []byte("---\ndate: 2024-03-10\n---\nx\n")

	meta, _, err := Parse(input)
	require.NoError(t, err)
	require.True(t, meta.HasDate())
	require.Equal(t, 2024, meta.Date.Year())
	require.Equal(t, time.March, meta.Date.Month())
}

func TestParse_BadDate_ReturnsError(t *testing.T) {
	input := []byte("---\ndate: \"next tuesday\"\n---\nx\n")

	_, _, err := Parse(input)
	require.Error(t, err)
	require.Contains(t, err.Error(), "date")
}

func TestMetadata_Fields_IncludesTypedAndExtra(t *testing.T) {
	meta := Metadata{
		Title: "T",
		Slug:  "t",
		Date:  time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		Extra: map[string]any{"author": "mk"},
	}

	fields := meta.Fields()
	require.Equal(t, "T", fields["title"])
	require.Equal(t, "t", fields["slug"])
	require.Equal(t, "2024-01-02", fields["date"])
	require.Equal(t, "mk", fields["author"])
	require.NotContains(t, fields, "layout")
}
