package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyRunID      = "run_id"
	KeyStage      = "stage"
	KeyState      = "state"
	KeyDurationMS = "duration_ms"
	KeyPath       = "path"
	KeyFile       = "file"
	KeySource     = "source"
	KeyOutput     = "output"
	KeyLayout     = "layout"
	KeySlug       = "slug"
	KeyCount      = "count"
	KeyWorker     = "worker"
	KeyURL        = "url"
	KeyName       = "name"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func RunID(id string) slog.Attr       { return slog.String(KeyRunID, id) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func State(s string) slog.Attr        { return slog.String(KeyState, s) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func File(f string) slog.Attr         { return slog.String(KeyFile, f) }
func Source(s string) slog.Attr       { return slog.String(KeySource, s) }
func Output(o string) slog.Attr       { return slog.String(KeyOutput, o) }
func Layout(l string) slog.Attr       { return slog.String(KeyLayout, l) }
func Slug(s string) slog.Attr         { return slog.String(KeySlug, s) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }
func Worker(w string) slog.Attr       { return slog.String(KeyWorker, w) }
func URL(u string) slog.Attr          { return slog.String(KeyURL, u) }
func Name(n string) slog.Attr         { return slog.String(KeyName, n) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
