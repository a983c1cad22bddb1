package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// Validate validates the complete configuration structure.
func Validate(cfg *Config) error {
	validator := newConfigurationValidator(cfg)
	return validator.validate()
}

// configurationValidator coordinates validation across all configuration domains.
type configurationValidator struct {
	config *Config
}

func newConfigurationValidator(config *Config) *configurationValidator {
	return &configurationValidator{config: config}
}

// validate performs configuration validation using domain-specific methods.
func (cv *configurationValidator) validate() error {
	if err := cv.validateSite(); err != nil {
		return err
	}
	if err := cv.validateBuild(); err != nil {
		return err
	}
	if err := cv.validateServe(); err != nil {
		return err
	}
	if err := cv.validateSources(); err != nil {
		return err
	}
	if err := cv.validateNotify(); err != nil {
		return err
	}
	return nil
}

func (cv *configurationValidator) validateSite() error {
	if filepath.IsAbs(cv.config.Site.LayoutsDir) {
		return fmt.Errorf("layouts_dir must be relative to the source root: %s", cv.config.Site.LayoutsDir)
	}
	if strings.Contains(cv.config.Site.LayoutsDir, "..") {
		return fmt.Errorf("layouts_dir must not escape the source root: %s", cv.config.Site.LayoutsDir)
	}
	return nil
}

func (cv *configurationValidator) validateBuild() error {
	if cv.config.Build.Workers < 0 {
		return fmt.Errorf("build workers must be positive, got %d", cv.config.Build.Workers)
	}
	for _, ext := range cv.config.Build.Extensions {
		if !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("build extension must start with a dot: %s", ext)
		}
	}
	return nil
}

func (cv *configurationValidator) validateServe() error {
	if cv.config.Serve.Port < 0 || cv.config.Serve.Port > 65535 {
		return fmt.Errorf("serve port out of range: %d", cv.config.Serve.Port)
	}
	if raw := cv.config.Serve.RebuildEvery; raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("invalid rebuild_every: %s: %w", raw, err)
		}
		if d < time.Second {
			return fmt.Errorf("rebuild_every must be at least 1s, got %s", raw)
		}
	}
	return nil
}

func (cv *configurationValidator) validateSources() error {
	names := make(map[string]bool)
	for _, src := range cv.config.Sources {
		if src.URL == "" {
			return errors.New("source url cannot be empty")
		}
		if src.Name == "" {
			return fmt.Errorf("source name cannot be empty for url %s", src.URL)
		}
		if names[src.Name] {
			return fmt.Errorf("duplicate source name: %s", src.Name)
		}
		names[src.Name] = true
	}
	return nil
}

func (cv *configurationValidator) validateNotify() error {
	if cv.config.Notify.Enabled && cv.config.Notify.NATSURL == "" {
		return errors.New("notify is enabled but nats_url is not set")
	}
	return nil
}
