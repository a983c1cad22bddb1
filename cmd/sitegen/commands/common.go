package commands

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"github.com/mkrogh/sitegen/internal/config"
	ferrors "github.com/mkrogh/sitegen/internal/foundation/errors"
)

// Global context passed to subcommands if we need to share global state later.
type Global struct {
	Logger *slog.Logger
}

// CLI definition & global flags - used by commands that need access to root config.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path (default: <source>/sitegen.yaml)"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build      BuildCmd   `cmd:"" help:"Build the site from a source directory"`
	Init       InitCmd    `cmd:"" help:"Scaffold a new site: config, starter layouts, sample content"`
	Serve      ServeCmd   `cmd:"" help:"Build the site and serve it locally with live reload"`
	Check      CheckCmd   `cmd:"" help:"Verify links in a rendered site"`
	VersionCmd VersionCmd `cmd:"" name:"version" help:"Show detailed version information"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

// loadConfig resolves the effective configuration: the explicit -c path when
// given, otherwise the source directory's sitegen.yaml, otherwise defaults.
// Load failures are classified as config errors so they exit fatal.
func loadConfig(root *CLI, sourceDir string) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if root.Config != "" {
		cfg, err = config.Load(root.Config)
	} else {
		cfg, err = config.LoadOrDefault(sourceDir)
	}
	if err != nil {
		if _, ok := ferrors.AsClassified(err); ok {
			return nil, err
		}
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "loading configuration").Build()
	}
	return cfg, nil
}
