package panel

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jeff0926/webinsight-sub001/internal/logger"
	"github.com/jeff0926/webinsight-sub001/internal/transport"
	"github.com/jeff0926/webinsight-sub001/internal/wire"
)

// ErrBusy means a report run for the same tag is already in flight.
var ErrBusy = errors.New("report already running for this tag")

// reportTimeout bounds the rendering request. Rendering collects items and
// may wait on a model, so it gets far more room than an ordinary call.
const reportTimeout = 120 * time.Second

// ReportRunOptions select the optional stages of a report run.
type ReportRunOptions struct {
	// GenerateKeyPoints asks for a fresh key-points pass when the tag has
	// no stored analysis yet.
	GenerateKeyPoints bool
}

// StepResult records the outcome of one pipeline step.
type StepResult struct {
	// Name is "check", "key-points" or "report".
	Name string

	// Err is nil when the step succeeded.
	Err error

	// Note is a short human-readable outcome for the run log.
	Note string
}

// TaskRun is the record of one report pipeline execution.
type TaskRun struct {
	TagID    string
	Started  time.Time
	Finished time.Time

	// Steps lists executed steps in order. Skipped steps do not appear.
	Steps []StepResult

	// Err is the terminal error; nil means the run succeeded even if an
	// optional step inside it failed.
	Err error

	// Report holds the rendered artifact on success.
	Report *wire.ReportResult
}

// Succeeded reports whether the run produced a report.
func (t *TaskRun) Succeeded() bool { return t.Err == nil }

func (t *TaskRun) step(name string, err error, note string) {
	t.Steps = append(t.Steps, StepResult{Name: name, Err: err, Note: note})
}

func (t *TaskRun) fail(name string, err error) {
	t.step(name, err, "")
	t.Err = fmt.Errorf("%s: %w", name, err)
}

// Orchestrator runs the report pipeline: check what the tag holds, generate
// key points when asked and missing, then render. At most one run per tag
// is in flight; a second trigger resolves busy without issuing anything.
type Orchestrator struct {
	hub    Requester
	status func(wire.ReportStatus)
	onDone func(ctx context.Context, tagID string)

	mu     sync.Mutex
	active map[string]bool
}

// NewOrchestrator wires the pipeline to the hub link. status receives
// locally produced progress lines (nil to discard); onDone runs after a
// successful pipeline, typically a cache refresh (nil to skip).
func NewOrchestrator(hub Requester, status func(wire.ReportStatus), onDone func(ctx context.Context, tagID string)) *Orchestrator {
	return &Orchestrator{
		hub:    hub,
		status: status,
		onDone: onDone,
		active: make(map[string]bool),
	}
}

// RunReport executes the pipeline for tagID and returns its run record.
// The returned error is ErrBusy, nil, or the fatal step's error; a failed
// key-points step alone never fails the run.
func (o *Orchestrator) RunReport(ctx context.Context, tagID string, opts ReportRunOptions) (*TaskRun, error) {
	if tagID == "" {
		return nil, errors.New("tag id required")
	}
	if !o.acquire(tagID) {
		logger.Debugf("panel: report for tag %s already running", tagID)
		return nil, ErrBusy
	}
	// Release must survive every exit, panics included, or the tag would
	// stay report-locked for the rest of the session.
	defer o.release(tagID)

	run := &TaskRun{TagID: tagID, Started: time.Now()}
	defer func() { run.Finished = time.Now() }()

	hasKeyPoints, err := o.checkTag(ctx, run, tagID)
	if err != nil {
		return run, run.Err
	}

	if opts.GenerateKeyPoints && !hasKeyPoints {
		o.generateKeyPoints(ctx, run, tagID)
	}

	if err := o.render(ctx, run, tagID, opts); err != nil {
		return run, run.Err
	}

	if o.onDone != nil {
		o.onDone(ctx, tagID)
	}
	return run, nil
}

// Running reports whether a run for tagID is currently in flight.
func (o *Orchestrator) Running(tagID string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.active[tagID]
}

func (o *Orchestrator) acquire(tagID string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.active[tagID] {
		return false
	}
	o.active[tagID] = true
	return true
}

func (o *Orchestrator) release(tagID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.active, tagID)
}

// checkTag loads the tag's items and reports whether a key-points analysis
// is already stored.
func (o *Orchestrator) checkTag(ctx context.Context, run *TaskRun, tagID string) (bool, error) {
	resp := o.hub.Send(ctx, wire.KindGetFilteredItemsByTag, wire.TagFilterRequest{TagID: tagID})
	if !resp.Success {
		err := errors.New(resp.Error)
		run.fail("check", err)
		return false, err
	}
	var list wire.ItemList
	if err := resp.Bind(&list); err != nil {
		run.fail("check", err)
		return false, err
	}

	hasKeyPoints := false
	for _, item := range list.Items {
		if item.IsKeyPointsAnalysis() {
			hasKeyPoints = true
			break
		}
	}
	run.step("check", nil, fmt.Sprintf("%d items, key points stored: %v", len(list.Items), hasKeyPoints))
	return hasKeyPoints, nil
}

// generateKeyPoints runs the optional analysis step. Its failure is recorded
// and surfaced as a warning, and the pipeline carries on without a summary.
func (o *Orchestrator) generateKeyPoints(ctx context.Context, run *TaskRun, tagID string) {
	resp := o.hub.Send(ctx, wire.KindGetKeyPointsForTag, wire.TagRef{TagID: tagID})
	if !resp.Success {
		err := errors.New(resp.Error)
		run.step("key-points", err, "")
		logger.Warnf("panel: key points step failed for tag %s: %v", tagID, err)
		o.notify(wire.ReportStatus{
			Message:  "Key points failed (" + resp.Error + "), continuing without summary",
			Severity: wire.SeverityWarn,
			TagID:    tagID,
		})
		return
	}
	var result wire.KeyPointsResult
	if err := resp.Bind(&result); err != nil {
		run.step("key-points", err, "")
		return
	}
	run.step("key-points", nil, fmt.Sprintf("%d points from %s", len(result.KeyPoints), result.SourceInfo))
}

// render asks the hub for the PDF. This step decides the run's fate.
func (o *Orchestrator) render(ctx context.Context, run *TaskRun, tagID string, opts ReportRunOptions) error {
	req := wire.ReportRequest{
		TagID:   tagID,
		Options: wire.ReportOptions{SkipKeyPoints: !opts.GenerateKeyPoints},
	}
	resp := o.hub.Send(ctx, wire.KindGeneratePDFReportForTag, req, transport.WithTimeout(reportTimeout))
	if !resp.Success {
		err := errors.New(resp.Error)
		run.fail("report", err)
		return err
	}
	var result wire.ReportResult
	if err := resp.Bind(&result); err != nil {
		run.fail("report", err)
		return err
	}
	run.step("report", nil, result.Filename)
	run.Report = &result
	return nil
}

func (o *Orchestrator) notify(s wire.ReportStatus) {
	if o.status != nil {
		o.status(s)
	}
}
