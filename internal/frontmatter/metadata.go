package frontmatter

import (
	"fmt"
	"time"
)

// Date formats accepted in a document header, tried in order.
var dateFormats = []string{
	"2006-01-02",
	time.RFC3339,
}

// Metadata is the typed view of a document's header fields. Fields the
// pipeline does not interpret are preserved in Extra.
type Metadata struct {
	Title  string
	Layout string
	Slug   string
	Date   time.Time
	Tags   []string
	Draft  bool
	Extra  map[string]any
}

// HasDate reports whether the header carried a parseable date.
func (m Metadata) HasDate() bool {
	return !m.Date.IsZero()
}

// Fields flattens the metadata back into a single map, typed fields included.
// Used for placeholder substitution during rendering.
func (m Metadata) Fields() map[string]any {
	fields := make(map[string]any, len(m.Extra)+6)
	for k, v := range m.Extra {
		fields[k] = v
	}
	if m.Title != "" {
		fields["title"] = m.Title
	}
	if m.Layout != "" {
		fields["layout"] = m.Layout
	}
	if m.Slug != "" {
		fields["slug"] = m.Slug
	}
	if m.HasDate() {
		fields["date"] = m.Date.Format("2006-01-02")
	}
	if len(m.Tags) > 0 {
		fields["tags"] = m.Tags
	}
	return fields
}

// Parse splits content into typed metadata and body. Documents without a
// header yield zero-value metadata and the full input as body.
func Parse(content []byte) (Metadata, []byte, error) {
	header, body, had, _, err := Split(content)
	if err != nil {
		return Metadata{}, nil, err
	}
	if !had {
		return Metadata{Extra: map[string]any{}}, body, nil
	}

	fields, err := ParseYAML(header)
	if err != nil {
		return Metadata{}, nil, fmt.Errorf("invalid metadata header: %w", err)
	}

	meta, err := fromFields(fields)
	if err != nil {
		return Metadata{}, nil, err
	}
	return meta, body, nil
}

// fromFields extracts the typed fields and leaves the remainder in Extra.
func fromFields(fields map[string]any) (Metadata, error) {
	meta := Metadata{Extra: map[string]any{}}

	for key, value := range fields {
		switch key {
		case "title":
			meta.Title = stringValue(value)
		case "layout":
			meta.Layout = stringValue(value)
		case "slug":
			meta.Slug = stringValue(value)
		case "draft":
			if b, ok := value.(bool); ok {
				meta.Draft = b
			}
		case "tags":
			meta.Tags = stringSlice(value)
		case "date":
			parsed, err := parseDate(value)
			if err != nil {
				return Metadata{}, err
			}
			meta.Date = parsed
		default:
			meta.Extra[key] = value
		}
	}
	return meta, nil
}

func parseDate(value any) (time.Time, error) {
	switch v := value.(type) {
	case time.Time:
		return v, nil
	case string:
		for _, format := range dateFormats {
			if t, err := time.Parse(format, v); err == nil {
				return t, nil
			}
		}
		return time.Time{}, fmt.Errorf("unrecognized date format: %q", v)
	default:
		return time.Time{}, fmt.Errorf("date field must be a string or timestamp, got %T", value)
	}
}

func stringValue(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

func stringSlice(v any) []string {
	switch vv := v.(type) {
	case []string:
		return vv
	case []any:
		out := make([]string, 0, len(vv))
		for _, item := range vv {
			out = append(out, stringValue(item))
		}
		return out
	case string:
		return []string{vv}
	default:
		return nil
	}
}
