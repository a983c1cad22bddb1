package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/mkrogh/sitegen/internal/build"
	"github.com/mkrogh/sitegen/internal/config"
	ferrors "github.com/mkrogh/sitegen/internal/foundation/errors"
	"github.com/mkrogh/sitegen/internal/gitsource"
	"github.com/mkrogh/sitegen/internal/logfields"
	"github.com/mkrogh/sitegen/internal/notify"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Source string `arg:"" help:"Source directory, a configured source name, or a path inside --repo"`
	Output string `arg:"" help:"Destination directory for the generated site"`

	Force    bool   `help:"Render every document, ignoring manifest state"`
	DryRun   bool   `name:"dry-run" help:"Plan the build without writing output"`
	Workers  int    `short:"j" help:"Render worker count (0 uses a bounded default)"`
	Repo     string `help:"Remote content repository URL to build from"`
	Branch   string `help:"Branch to check out when --repo is set"`
	CacheDir string `name:"cache-dir" help:"Cache directory for remote sources (default: user cache)"`
}

func (b *BuildCmd) Run(_ *Global, root *CLI) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	sourceDir, cfg, err := b.resolveSource(ctx, root)
	if err != nil {
		return err
	}
	if b.Workers > 0 {
		cfg.Build.Workers = b.Workers
	}

	return RunBuild(ctx, cfg, sourceDir, b.Output, b.Force, b.DryRun)
}

// resolveSource determines the directory to build from. A --repo flag wins;
// otherwise an existing local directory; otherwise a configured source whose
// name matches the argument.
func (b *BuildCmd) resolveSource(ctx context.Context, root *CLI) (string, *config.Config, error) {
	if b.Repo != "" {
		dir, err := syncSource(ctx, b.CacheDir, config.GitSource{
			URL:    b.Repo,
			Branch: b.Branch,
			Path:   repoSubdir(b.Source),
		})
		if err != nil {
			return "", nil, err
		}
		// The checkout's own sitegen.yaml governs, unless -c overrides.
		cfg, err := loadConfig(root, dir)
		return dir, cfg, err
	}

	cfg, err := loadConfig(root, b.Source)
	if err != nil {
		return "", nil, err
	}

	if st, serr := os.Stat(b.Source); serr == nil && st.IsDir() {
		return b.Source, cfg, nil
	}

	for _, src := range cfg.Sources {
		if src.Name == b.Source {
			dir, derr := syncSource(ctx, b.CacheDir, src)
			return dir, cfg, derr
		}
	}

	return "", nil, ferrors.ConfigError("source not found: not a directory and no configured source has that name").
		WithContext("source", b.Source).
		Build()
}

// RunBuild executes one build and maps the report to the process outcome:
// a nil return for full success, an unclassified error for a partial run,
// and the orchestrator's classified error for fatal aborts.
func RunBuild(ctx context.Context, cfg *config.Config, sourceDir, outputDir string, force, dryRun bool) error {
	fmt.Printf("Building %s -> %s\n", sourceDir, outputDir)

	notifier := newNotifier(cfg)
	defer func() { _ = notifier.Close() }()

	res, runErr := build.NewService().Run(ctx, build.Request{
		Config:    cfg,
		SourceDir: sourceDir,
		OutputDir: outputDir,
		Options: build.Options{
			Force:  force,
			DryRun: dryRun,
		},
	})

	if res.Report != nil && res.Outcome != build.OutcomeCanceled {
		if err := notifier.PublishBuild(ctx, notify.EventFromReport(res.Report)); err != nil {
			slog.Warn("Build event publish failed",
				logfields.RunID(res.Report.RunID),
				logfields.Error(err))
		}
	}

	if runErr != nil {
		return runErr
	}

	fmt.Println(res.Report.Summary())
	if res.ExitCode != ferrors.ExitOK {
		// Unclassified on purpose: the adapter maps it to the partial exit code.
		return fmt.Errorf("build completed with errors")
	}
	return nil
}

// newNotifier builds the configured notifier. A connection failure downgrades
// to a no-op with a warning: a one-shot build should not be lost to the event
// bus being down.
func newNotifier(cfg *config.Config) notify.Notifier {
	notifier, err := notify.New(cfg.Notify)
	if err != nil {
		slog.Warn("Build notifications unavailable", logfields.Error(err))
		return notify.NoopNotifier{}
	}
	return notifier
}

// syncSource clones or updates a remote content source and returns its
// content directory.
func syncSource(ctx context.Context, cacheFlag string, src config.GitSource) (string, error) {
	cacheDir, err := sourceCacheDir(cacheFlag)
	if err != nil {
		return "", err
	}
	return gitsource.NewSyncer(cacheDir).Sync(ctx, src)
}

// sourceCacheDir resolves where remote checkouts live. The cache persists
// across runs so later builds fetch instead of recloning.
func sourceCacheDir(flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	base, err := os.UserCacheDir()
	if err != nil {
		return "", ferrors.WrapError(err, ferrors.CategoryConfig, "resolving source cache directory").Build()
	}
	return filepath.Join(base, "sitegen", "sources"), nil
}

// repoSubdir interprets the source argument as a path within the repository.
func repoSubdir(arg string) string {
	if arg == "." || arg == "" {
		return ""
	}
	return strings.TrimPrefix(arg, "./")
}
