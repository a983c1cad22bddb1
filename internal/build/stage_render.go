package build

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	ferrors "github.com/mkrogh/sitegen/internal/foundation/errors"
	"github.com/mkrogh/sitegen/internal/logfields"
)

// maxDefaultWorkers caps the render pool when no worker count is configured.
const maxDefaultWorkers = 4

// DefaultWorkers returns the render pool size used when the configuration
// does not set one.
func DefaultWorkers() int {
	n := runtime.GOMAXPROCS(0)
	if n > maxDefaultWorkers {
		return maxDefaultWorkers
	}
	return n
}

// renderOutcome is one worker's result for one document.
type renderOutcome struct {
	plan    *DocPlan
	html    []byte
	missing []string // unresolved placeholder descriptions
	err     error
	elapsed time.Duration
}

// stageRenderDocs renders every planned document through a fixed worker
// pool. Workers pull plans from a channel and push results to the collector,
// which owns the report; a failed document never stops its siblings.
func stageRenderDocs(ctx context.Context, bs *BuildState) error {
	if len(bs.Plan.Render) == 0 {
		return nil
	}

	workers := bs.Workers
	if workers <= 0 {
		workers = DefaultWorkers()
	}
	if workers > len(bs.Plan.Render) {
		workers = len(bs.Plan.Render)
	}
	if bs.Recorder != nil {
		bs.Recorder.SetRenderWorkers(workers)
	}
	slog.Debug("Render pool starting",
		logfields.RunID(bs.Report.RunID),
		logfields.Count(len(bs.Plan.Render)),
		slog.Int("workers", workers))

	jobs := make(chan *DocPlan)
	results := make(chan *renderOutcome)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			bs.renderWorker(fmt.Sprintf("render-%d", id), jobs, results)
		}(i)
	}

	go func() {
		defer close(jobs)
		for _, plan := range bs.Plan.Render {
			select {
			case jobs <- plan:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	for res := range results {
		bs.collectRender(res)
	}

	sort.Slice(bs.Render.Outputs, func(i, j int) bool {
		return bs.Render.Outputs[i].Plan.Doc.RelPath < bs.Render.Outputs[j].Plan.Doc.RelPath
	})

	if ctx.Err() != nil {
		return NewCanceledStageError(StageRenderDocs)
	}
	return nil
}

// renderWorker renders plans until the job channel closes. The collector is
// the only writer to shared state; workers communicate results only.
func (bs *BuildState) renderWorker(name string, jobs <-chan *DocPlan, results chan<- *renderOutcome) {
	for plan := range jobs {
		t0 := time.Now()
		res, err := bs.Renderer.Render(
			plan.Doc.Body,
			plan.Doc.Extension,
			plan.Chain,
			plan.Page.Fields(bs.Config.Site),
		)
		out := &renderOutcome{plan: plan, err: err, elapsed: time.Since(t0)}
		if err == nil {
			out.html = res.HTML
			for _, u := range res.Unresolved {
				out.missing = append(out.missing, u.String())
			}
		}
		slog.Debug("Document rendered",
			logfields.Worker(name),
			logfields.File(plan.Doc.RelPath),
			logfields.DurationMS(float64(out.elapsed.Microseconds())/1000.0))
		results <- out
	}
}

// collectRender applies one render result to the shared state. Runs on the
// stage goroutine only.
func (bs *BuildState) collectRender(res *renderOutcome) {
	if bs.Recorder != nil {
		bs.Recorder.ObserveRenderDuration(res.elapsed)
	}

	if res.err != nil {
		bs.failDocument(StageRenderDocs, IssueRenderFailure, res.plan.Doc.RelPath,
			ferrors.WrapError(res.err, ferrors.CategoryRender, "rendering document").
				WithContext("file", res.plan.Doc.RelPath).
				Build())
		return
	}

	if len(res.missing) > 0 {
		if bs.Config.Build.Strict {
			bs.failDocument(StageRenderDocs, IssueUnresolvedPlaceholder, res.plan.Doc.RelPath,
				ferrors.RenderError("unresolved placeholders").
					WithContext("file", res.plan.Doc.RelPath).
					WithContext("placeholders", strings.Join(res.missing, ", ")).
					Build())
			return
		}
		bs.Report.AddIssue(ReportIssue{
			Code:     IssueUnresolvedPlaceholder,
			Stage:    string(StageRenderDocs),
			Severity: string(ferrors.SeverityWarning),
			Message:  fmt.Sprintf("%s: %s", res.plan.Doc.RelPath, strings.Join(res.missing, ", ")),
		}, fmt.Errorf("%s: unresolved placeholders: %s", res.plan.Doc.RelPath, strings.Join(res.missing, ", ")))
	}

	bs.Render.Outputs = append(bs.Render.Outputs, &RenderedDoc{
		Plan: res.plan,
		HTML: res.html,
	})
}
