package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Load loads configuration from the specified file. Environment variables in
// the YAML content are expanded, so secrets can live in .env rather than in
// the config file itself.
func Load(configPath string) (*Config, error) {
	// Load .env file if it exists; missing files are not an error.
	_ = loadEnvFile()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s", configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	expandedData := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadOrDefault looks for a config file in the given directory (then the
// working directory) and loads it, falling back to pure defaults when none
// exists. Builds work without a config file; the file only adds settings.
func LoadOrDefault(sourceDir string) (*Config, error) {
	candidates := []string{
		filepath.Join(sourceDir, DefaultConfigFile),
		DefaultConfigFile,
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}

	cfg := &Config{}
	applyDefaults(cfg)
	return cfg, nil
}

// Init creates a new configuration file with example content.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}

	exampleConfig := Config{
		Site: SiteConfig{
			Title:         "My Site",
			Description:   "A static site built with sitegen",
			BaseURL:       "https://example.com",
			LayoutsDir:    DefaultLayoutsDir,
			DefaultLayout: "base",
		},
		Build: BuildConfig{
			Workers:     4,
			Extensions:  DefaultExtensions(),
			CleanOutput: true,
		},
		Serve: ServeConfig{
			Port: DefaultServePort,
		},
	}

	data, err := yaml.Marshal(&exampleConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ManifestPath returns the configured manifest location, defaulting to a
// hidden directory beside the output tree so the manifest survives output
// cleaning without shipping with the site.
func (c *Config) ManifestPath(outputDir string) string {
	if c.Build.ManifestPath != "" {
		return c.Build.ManifestPath
	}
	return filepath.Join(filepath.Dir(outputDir), DefaultManifestDir, DefaultManifestName)
}

// RebuildInterval returns the parsed rebuild_every duration, or zero when the
// periodic rebuild is disabled. Validate has already rejected bad values.
func (s ServeConfig) RebuildInterval() time.Duration {
	if s.RebuildEvery == "" {
		return 0
	}
	d, err := time.ParseDuration(s.RebuildEvery)
	if err != nil {
		return 0
	}
	return d
}
