package render

import (
	"fmt"
	"regexp"
	"strings"
)

// ContentKey is the placeholder key that receives the rendered inner document
// when a layout wraps it. It is reserved: a metadata field named "content" is
// never substituted.
const ContentKey = "content"

// tokenPattern matches placeholder tokens like {{title}} or {{ site.title }}.
//
// Go's template engines cannot express these bare-word tokens (they would need
// a leading dot and would render missing keys as "<no value>"), and silent
// blanks for missing keys are exactly what this pipeline must not produce, so
// substitution is a scanner of its own.
var tokenPattern = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_][A-Za-z0-9_.-]*)\s*\}\}`)

// Unresolved records a placeholder token that had no value. The output carries
// a visible marker in its place; strict builds turn these into errors.
type Unresolved struct {
	Key   string // the placeholder key
	Where string // "body" or the layout name it appeared in
}

func (u Unresolved) String() string {
	return fmt.Sprintf("{{%s}} in %s", u.Key, u.Where)
}

// marker returns the visible stand-in emitted for an unresolved placeholder.
func marker(key string) []byte {
	return []byte("<!-- unresolved: " + key + " -->")
}

// substitute replaces placeholder tokens in tpl with values from fields.
// Replacement text is never re-scanned, so values containing token syntax
// stay literal. Tokens without a value are replaced with a visible marker
// and reported.
func substitute(tpl []byte, fields map[string]any, where string) ([]byte, []Unresolved) {
	var unresolved []Unresolved
	out := tokenPattern.ReplaceAllFunc(tpl, func(m []byte) []byte {
		key := string(tokenPattern.FindSubmatch(m)[1])
		value, ok := fields[key]
		if !ok {
			unresolved = append(unresolved, Unresolved{Key: key, Where: where})
			return marker(key)
		}
		return []byte(stringify(value))
	})
	return out, unresolved
}

// stringify renders a metadata value for inclusion in output.
func stringify(v any) string {
	switch vv := v.(type) {
	case string:
		return vv
	case []string:
		return strings.Join(vv, ", ")
	case []any:
		parts := make([]string, 0, len(vv))
		for _, item := range vv {
			parts = append(parts, stringify(item))
		}
		return strings.Join(parts, ", ")
	case nil:
		return ""
	default:
		return fmt.Sprint(vv)
	}
}
