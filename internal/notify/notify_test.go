package notify

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mkrogh/sitegen/internal/build"
	"github.com/mkrogh/sitegen/internal/config"
)

func TestNew_DisabledReturnsNoop(t *testing.T) {
	n, err := New(config.NotifyConfig{Enabled: false})
	require.NoError(t, err)
	require.IsType(t, NoopNotifier{}, n)

	require.NoError(t, n.PublishBuild(t.Context(), &BuildEvent{RunID: "run-1"}))
	require.NoError(t, n.Close())
}

func TestNewPublisher_MissingURL(t *testing.T) {
	_, err := NewPublisher(config.NotifyConfig{Enabled: true, Subject: "sitegen.builds"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "nats_url")
}

func TestEventFromReport_MapsFields(t *testing.T) {
	report := build.NewBuildReport("run-42", "src", "out")
	report.Rendered = 5
	report.Skipped = 2
	report.Failed = 1
	report.Pruned = 3
	report.AddIssue(build.ReportIssue{Code: build.IssueRenderFailure, Severity: "error"}, nil)
	report.Finish(build.OutcomePartial)

	event := EventFromReport(report)

	require.Equal(t, "run-42", event.RunID)
	require.Equal(t, "src", event.SourceDir)
	require.Equal(t, "out", event.OutputDir)
	require.Equal(t, "partial", event.Outcome)
	require.Equal(t, 5, event.Rendered)
	require.Equal(t, 2, event.Skipped)
	require.Equal(t, 1, event.Failed)
	require.Equal(t, 3, event.Pruned)
	require.Equal(t, 1, event.Issues)
	require.Equal(t, report.Start, event.Start)
	require.Equal(t, report.End, event.End)
	require.GreaterOrEqual(t, event.DurationMS, 0.0)
}

func TestBuildEvent_JSONShape(t *testing.T) {
	event := &BuildEvent{
		RunID:     "run-7",
		Outcome:   "success",
		Rendered:  4,
		Timestamp: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}

	data, err := json.Marshal(event)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Equal(t, "run-7", decoded["run_id"])
	require.Equal(t, "success", decoded["outcome"])
	require.Equal(t, float64(4), decoded["rendered"])
	require.Contains(t, decoded, "duration_ms")
	require.Contains(t, decoded, "timestamp")
}
