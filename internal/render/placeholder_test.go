package render

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSubstitute_ReplacesKnownTokens(t *testing.T) {
	out, missing := substitute([]byte("<h1>{{title}}</h1>"), map[string]any{"title": "Hi"}, "base")
	require.Equal(t, "<h1>Hi</h1>", string(out))
	require.Empty(t, missing)
}

func TestSubstitute_UnknownTokenGetsMarker(t *testing.T) {
	out, missing := substitute([]byte("{{ghost}}"), map[string]any{}, "base")
	require.Equal(t, "<!-- unresolved: ghost -->", string(out))
	require.Len(t, missing, 1)
	require.Equal(t, "ghost", missing[0].Key)
	require.Equal(t, "base", missing[0].Where)
}

func TestSubstitute_DottedKeys(t *testing.T) {
	fields := map[string]any{"site.title": "My Site"}
	out, missing := substitute([]byte("{{site.title}}"), fields, "base")
	require.Equal(t, "My Site", string(out))
	require.Empty(t, missing)
}

func TestSubstitute_MalformedTokensLeftAlone(t *testing.T) {
	cases := []string{
		"{{}}",
		"{{ spaced key }}",
		"{not a token}",
		"{{unclosed",
	}
	for _, tpl := range cases {
		out, missing := substitute([]byte(tpl), map[string]any{}, "x")
		require.Equal(t, tpl, string(out), "input %q", tpl)
		require.Empty(t, missing)
	}
}

func TestStringify_Values(t *testing.T) {
	cases := []struct {
		in   any
		want string
	}{
		{"s", "s"},
		{42, "42"},
		{true, "true"},
		{[]string{"a", "b"}, "a, b"},
		{[]any{"a", 1}, "a, 1"},
		{nil, ""},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, stringify(tc.in))
	}
}
