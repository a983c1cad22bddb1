package frontmatter

import (
	"bytes"
	"errors"

	"gopkg.in/yaml.v3"
)

// delimiter is the line that opens and closes a metadata header block.
const delimiter = "---"

// ErrMissingClosingDelimiter indicates the document started with a metadata
// header delimiter but did not contain a closing delimiter before end of input.
var ErrMissingClosingDelimiter = errors.New("metadata header opened but closing delimiter is missing")

// Style captures formatting details needed for stable rewriting.
//
// It intentionally focuses on newline shape and does not attempt to preserve
// original YAML formatting.
type Style struct {
	Newline            string
	HasTrailingNewline bool
}

// Split separates a YAML metadata header (`---` delimited) from the document body.
//
// If the document does not start with a delimiter line, had is false and body
// is the full input. A document whose first line is the delimiter must contain
// a closing delimiter line; reaching end of input without one is an error.
// A closing delimiter on the final line without a trailing newline is accepted.
func Split(content []byte) (header []byte, body []byte, had bool, style Style, err error) {
	style = detectStyle(content)
	nl := style.Newline

	if !bytes.HasPrefix(content, []byte(delimiter)) {
		return nil, content, false, style, nil
	}
	if bytes.Equal(content, []byte(delimiter)) {
		// First line is the delimiter and the input ends there.
		return nil, nil, false, style, ErrMissingClosingDelimiter
	}

	open := []byte(delimiter + nl)
	if !bytes.HasPrefix(content, open) {
		// Lines like "----" or "---text" are body content, not delimiters.
		return nil, content, false, style, nil
	}

	rest := content[len(open):]

	// Empty header block: the closing delimiter immediately follows.
	if bytes.HasPrefix(rest, open) {
		return []byte{}, rest[len(open):], true, style, nil
	}
	if bytes.Equal(rest, []byte(delimiter)) {
		return []byte{}, []byte{}, true, style, nil
	}

	closeSeq := []byte(nl + delimiter + nl)
	if idx := bytes.Index(rest, closeSeq); idx >= 0 {
		header = rest[:idx+len(nl)]
		body = rest[idx+len(closeSeq):]
		return header, body, true, style, nil
	}

	closeAtEOF := []byte(nl + delimiter)
	if bytes.HasSuffix(rest, closeAtEOF) {
		header = rest[:len(rest)-len(closeAtEOF)+len(nl)]
		return header, []byte{}, true, style, nil
	}

	return nil, nil, false, style, ErrMissingClosingDelimiter
}

// Join reassembles a document from a raw header and body.
//
// If had is false, Join returns body as-is. If had is true, Join emits the
// header between `---` delimiter lines using the newline style in Style.
// Inputs whose closing delimiter sat at end of input without a trailing
// newline gain one on the way back out.
func Join(header []byte, body []byte, had bool, style Style) []byte {
	if !had {
		return body
	}

	nl := style.Newline
	if nl == "" {
		nl = "\n"
	}

	open := []byte(delimiter + nl)
	closing := []byte(delimiter + nl)

	out := make([]byte, 0, len(open)+len(header)+len(closing)+len(body))
	out = append(out, open...)
	out = append(out, header...)
	out = append(out, closing...)
	out = append(out, body...)
	return out
}

// ParseYAML parses a raw YAML header (without --- delimiters) into a map.
func ParseYAML(header []byte) (map[string]any, error) {
	if len(header) == 0 {
		return map[string]any{}, nil
	}

	var fields map[string]any
	if err := yaml.Unmarshal(header, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		fields = map[string]any{}
	}
	return fields, nil
}

func detectStyle(content []byte) Style {
	newline := "\n"
	for i := 0; i+1 < len(content); i++ {
		if content[i] == '\r' && content[i+1] == '\n' {
			newline = "\r\n"
			break
		}
		if content[i] == '\n' {
			newline = "\n"
			break
		}
	}

	hasTrailingNewline := len(content) > 0 && (content[len(content)-1] == '\n')

	return Style{
		Newline:            newline,
		HasTrailingNewline: hasTrailingNewline,
	}
}
