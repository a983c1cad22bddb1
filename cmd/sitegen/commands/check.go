package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	ferrors "github.com/mkrogh/sitegen/internal/foundation/errors"
	"github.com/mkrogh/sitegen/internal/linkcheck"
)

// CheckCmd implements the 'check' command.
type CheckCmd struct {
	Output string `arg:"" help:"Rendered site directory to verify"`

	External    bool          `help:"Also verify external links over HTTP"`
	Concurrency int           `help:"Worker count for external link checks"`
	Timeout     time.Duration `help:"Per-request timeout for external checks" default:"10s"`
	BaseURL     string        `name:"base-url" help:"Site base URL; absolute links on its host count as internal"`
}

func (c *CheckCmd) Run(_ *Global, root *CLI) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	baseURL := c.BaseURL
	if baseURL == "" {
		// The config is optional here; checking plain output trees works
		// without one.
		if cfg, err := loadConfig(root, c.Output); err == nil {
			baseURL = cfg.Site.BaseURL
		}
	}

	return RunCheck(ctx, c.Output, linkcheck.Options{
		BaseURL:     baseURL,
		External:    c.External,
		Concurrency: c.Concurrency,
		Timeout:     c.Timeout,
	})
}

// RunCheck verifies links under outputDir and reports broken ones on stdout.
// Broken links produce an unclassified error so the process exits with the
// partial code; run-level failures keep their classification.
func RunCheck(ctx context.Context, outputDir string, opts linkcheck.Options) error {
	if st, err := os.Stat(outputDir); err != nil || !st.IsDir() {
		return ferrors.ConfigError("output directory not found").
			WithContext("path", outputDir).
			Build()
	}

	fmt.Printf("Checking links in %s\n", outputDir)

	result, err := linkcheck.New(opts).Run(ctx, outputDir)
	if err != nil {
		return err
	}

	fmt.Println(result.Summary())
	for _, broken := range result.Broken {
		kind := "internal"
		if !broken.Internal {
			kind = "external"
		}
		if broken.Status > 0 {
			fmt.Printf("  %s: %s -> %s (%d %s)\n", broken.Page, kind, broken.URL, broken.Status, broken.Reason)
		} else {
			fmt.Printf("  %s: %s -> %s (%s)\n", broken.Page, kind, broken.URL, broken.Reason)
		}
	}

	if !result.OK() {
		return fmt.Errorf("%d broken link(s)", len(result.Broken))
	}
	return nil
}
