// Package notify publishes build events to NATS JetStream. Publishing is
// optional: when notify is disabled in the config, callers get a no-op
// notifier and the build pipeline is unaffected.
package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/mkrogh/sitegen/internal/build"
	"github.com/mkrogh/sitegen/internal/config"
	ferrors "github.com/mkrogh/sitegen/internal/foundation/errors"
	"github.com/mkrogh/sitegen/internal/logfields"
)

// BuildEvent is the payload published after every build run.
type BuildEvent struct {
	RunID     string `json:"run_id"`
	SourceDir string `json:"source_dir"`
	OutputDir string `json:"output_dir"`
	Outcome   string `json:"outcome"`

	Rendered int `json:"rendered"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`
	Pruned   int `json:"pruned"`
	Issues   int `json:"issues"`

	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	DurationMS float64   `json:"duration_ms"`

	Timestamp time.Time `json:"timestamp"` // stamped at publish time
}

// EventFromReport maps a finished build report to its event payload.
func EventFromReport(report *build.BuildReport) *BuildEvent {
	return &BuildEvent{
		RunID:      report.RunID,
		SourceDir:  report.SourceDir,
		OutputDir:  report.OutputDir,
		Outcome:    string(report.Outcome),
		Rendered:   report.Rendered,
		Skipped:    report.Skipped,
		Failed:     report.Failed,
		Pruned:     report.Pruned,
		Issues:     len(report.Issues),
		Start:      report.Start,
		End:        report.End,
		DurationMS: float64(report.Duration().Microseconds()) / 1000.0,
	}
}

// Notifier publishes build events.
type Notifier interface {
	PublishBuild(ctx context.Context, event *BuildEvent) error
	Close() error
}

// NoopNotifier discards every event. Used when notify is disabled.
type NoopNotifier struct{}

func (NoopNotifier) PublishBuild(context.Context, *BuildEvent) error { return nil }
func (NoopNotifier) Close() error                                    { return nil }

// New returns a notifier for the given config: a JetStream publisher when
// notify is enabled, a no-op otherwise.
func New(cfg config.NotifyConfig) (Notifier, error) {
	if !cfg.Enabled {
		return NoopNotifier{}, nil
	}
	return NewPublisher(cfg)
}

// Publisher publishes build events to a NATS JetStream subject.
type Publisher struct {
	conn    *nats.Conn
	js      jetstream.JetStream
	subject string
}

// NewPublisher connects to NATS and prepares the JetStream context.
func NewPublisher(cfg config.NotifyConfig) (*Publisher, error) {
	if cfg.NATSURL == "" {
		return nil, ferrors.ConfigError("notify enabled without nats_url").Build()
	}

	conn, err := nats.Connect(cfg.NATSURL)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryNetwork, "connecting to NATS").
			WithContext("nats_url", cfg.NATSURL).
			Retryable().
			Build()
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, ferrors.WrapError(err, ferrors.CategoryNetwork, "creating JetStream context").Build()
	}

	slog.Info("Build notifications enabled",
		logfields.URL(cfg.NATSURL),
		slog.String("subject", cfg.Subject))

	return &Publisher{conn: conn, js: js, subject: cfg.Subject}, nil
}

// PublishBuild publishes one build event. The event's timestamp is stamped
// here so retries carry the actual publish time.
func (p *Publisher) PublishBuild(ctx context.Context, event *BuildEvent) error {
	event.Timestamp = time.Now()

	data, err := json.Marshal(event)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryInternal, "marshaling build event").Build()
	}

	if _, err := p.js.Publish(ctx, p.subject, data); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryNetwork, "publishing build event").
			WithContext("subject", p.subject).
			WithContext("run_id", event.RunID).
			Retryable().
			Build()
	}

	slog.Debug("Published build event",
		logfields.RunID(event.RunID),
		slog.String("subject", p.subject),
		slog.String("outcome", event.Outcome))
	return nil
}

// Close drains the NATS connection.
func (p *Publisher) Close() error {
	if p.conn != nil {
		p.conn.Close()
	}
	return nil
}
