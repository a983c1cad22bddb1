package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/mkrogh/sitegen/internal/daemon"
	ferrors "github.com/mkrogh/sitegen/internal/foundation/errors"
)

// ServeCmd implements the 'serve' command.
type ServeCmd struct {
	Source string `arg:"" help:"Source directory to watch and build"`
	Output string `arg:"" optional:"" help:"Output directory for the generated site (default: temp dir)"`

	Port int    `short:"p" help:"Preview server port (overrides config)"`
	Bind string `help:"Preview server bind address (overrides config)"`
}

func (s *ServeCmd) Run(_ *Global, root *CLI) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := loadConfig(root, s.Source)
	if err != nil {
		return err
	}
	if s.Port > 0 {
		cfg.Serve.Port = s.Port
	}
	if s.Bind != "" {
		cfg.Serve.Bind = s.Bind
	}

	outDir := s.Output
	if outDir == "" {
		tmp, err := os.MkdirTemp("", "sitegen-serve-*")
		if err != nil {
			return ferrors.WrapError(err, ferrors.CategoryFileSystem, "creating temp output directory").Build()
		}
		defer func() { _ = os.RemoveAll(tmp) }()
		// The site lives in a subdirectory so the manifest's default location
		// beside the output stays inside the temp root.
		outDir = filepath.Join(tmp, "site")
		fmt.Println("Serving from temporary output directory:", outDir)
	}

	d, err := daemon.New(cfg, s.Source, outDir)
	if err != nil {
		return err
	}
	return d.Run(ctx)
}
