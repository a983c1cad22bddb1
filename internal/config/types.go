package config

// Config represents the application configuration.
type Config struct {
	Site    SiteConfig    `yaml:"site"`
	Build   BuildConfig   `yaml:"build"`
	Serve   ServeConfig   `yaml:"serve"`
	Sources []GitSource   `yaml:"sources,omitempty"`
	Notify  NotifyConfig  `yaml:"notify"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// SiteConfig describes the site being generated.
type SiteConfig struct {
	Title         string `yaml:"title"`
	Description   string `yaml:"description,omitempty"`
	BaseURL       string `yaml:"base_url,omitempty"`
	LayoutsDir    string `yaml:"layouts_dir,omitempty"`    // relative to the source root
	DefaultLayout string `yaml:"default_layout,omitempty"` // applied when a document names none
}

// BuildConfig controls how a build run executes.
type BuildConfig struct {
	Workers      int      `yaml:"workers,omitempty"`       // render worker count, 0 picks a bounded default
	Strict       bool     `yaml:"strict,omitempty"`        // unresolved placeholders fail the document
	Drafts       bool     `yaml:"drafts,omitempty"`        // include documents marked draft
	Extensions   []string `yaml:"extensions,omitempty"`    // renderable source extensions
	ManifestPath string   `yaml:"manifest_path,omitempty"` // build manifest location
	CleanOutput  bool     `yaml:"clean_output,omitempty"`  // drop stale outputs not in the current run
}

// ServeConfig controls the local preview server.
type ServeConfig struct {
	Port         int    `yaml:"port,omitempty"`
	DebounceMS   int    `yaml:"debounce_ms,omitempty"`   // rebuild debounce after a file event
	Bind         string `yaml:"bind,omitempty"`
	RebuildEvery string `yaml:"rebuild_every,omitempty"` // periodic full rebuild interval ("30m"); empty disables
}

// GitSource represents a remote content repository to pull before building.
type GitSource struct {
	URL    string `yaml:"url"`
	Name   string `yaml:"name"`
	Branch string `yaml:"branch,omitempty"`
	Path   string `yaml:"path,omitempty"` // subdirectory within the repository holding content
}

// NotifyConfig controls build event publishing.
type NotifyConfig struct {
	Enabled bool   `yaml:"enabled"`
	NATSURL string `yaml:"nats_url,omitempty"`
	Subject string `yaml:"subject,omitempty"`
}

// MetricsConfig controls the Prometheus metrics endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen,omitempty"`
}
