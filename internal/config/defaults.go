package config

// Default values applied when the config file omits a setting.
const (
	DefaultConfigFile    = "sitegen.yaml"
	DefaultLayoutsDir    = "_layouts"
	DefaultManifestName  = "manifest.db"
	DefaultManifestDir   = ".sitegen"
	DefaultServePort     = 8080
	DefaultServeBind     = "127.0.0.1"
	DefaultDebounceMS    = 300
	DefaultNotifySubject = "sitegen.builds"
	DefaultMetricsListen = ":9090"
)

// DefaultExtensions are the source extensions treated as renderable documents.
// Everything else under the source tree is copied through as a static asset.
func DefaultExtensions() []string {
	return []string{".md", ".markdown", ".html", ".txt"}
}

// applyDefaults fills zero values with defaults. Called after unmarshal so an
// explicit config value always wins.
func applyDefaults(cfg *Config) {
	if cfg.Site.Title == "" {
		cfg.Site.Title = "Untitled Site"
	}
	if cfg.Site.LayoutsDir == "" {
		cfg.Site.LayoutsDir = DefaultLayoutsDir
	}
	if len(cfg.Build.Extensions) == 0 {
		cfg.Build.Extensions = DefaultExtensions()
	}
	if cfg.Serve.Port == 0 {
		cfg.Serve.Port = DefaultServePort
	}
	if cfg.Serve.Bind == "" {
		cfg.Serve.Bind = DefaultServeBind
	}
	if cfg.Serve.DebounceMS <= 0 {
		cfg.Serve.DebounceMS = DefaultDebounceMS
	}
	if cfg.Notify.Subject == "" {
		cfg.Notify.Subject = DefaultNotifySubject
	}
	if cfg.Metrics.Listen == "" {
		cfg.Metrics.Listen = DefaultMetricsListen
	}
	for i := range cfg.Sources {
		if cfg.Sources[i].Branch == "" {
			cfg.Sources[i].Branch = "main"
		}
	}
}
