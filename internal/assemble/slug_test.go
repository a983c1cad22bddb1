package assemble

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify_BasicCases(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"simple word", "hello", "hello"},
		{"spaces become hyphens", "Hello World", "hello-world"},
		{"already slugged is unchanged", "getting-started", "getting-started"},
		{"diacritics stripped", "Café au Lait", "cafe-au-lait"},
		{"punctuation collapsed", "What's New?!", "what-s-new"},
		{"leading and trailing junk trimmed", "  --Hello--  ", "hello"},
		{"digits kept", "2018 Year in Review", "2018-year-in-review"},
		{"underscores split words", "release_notes_v2", "release-notes-v2"},
		{"nothing sluggable", "日本語", ""},
		{"empty input", "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Slugify(tc.input))
		})
	}
}

func TestSlugify_IdempotentOnOwnOutput(t *testing.T) {
	inputs := []string{"Hello World", "Café au Lait", "What's New?!", "release_notes_v2"}
	for _, input := range inputs {
		once := Slugify(input)
		assert.Equal(t, once, Slugify(once), "slug of %q changed on second pass", input)
	}
}

func TestTitleFromName_SeparatorsBecomeWords(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{"getting-started", "Getting Started"},
		{"release_notes", "Release Notes"},
		{"index", "Index"},
		{"API", "Api"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, TitleFromName(tc.input))
	}
}
