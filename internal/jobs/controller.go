package jobs

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/solveya/console/internal/models"
	"github.com/solveya/console/pkg/logger"
)

// Engine is the subset of the diagnostic API the controller drives.
type Engine interface {
	SubmitDiagnostic(ctx context.Context, filename string, data io.Reader) (*models.JobResponse, error)
	GetJob(ctx context.Context, jobID string) (*models.JobResponse, error)
}

// Snapshot is an immutable view of the controller's state, delivered to
// subscribers on every change.
type Snapshot struct {
	Job     *models.Job
	Loading bool
	Err     string
}

// Result is the job's diagnostic result, nil until the job completes.
func (s Snapshot) Result() *models.DiagnosticResult {
	if s.Job == nil {
		return nil
	}
	return s.Job.Result
}

// Controller drives one diagnostic job at a time through submit, chained
// status polls and a terminal state. A new Submit replaces any job still
// being polled, cancelling its pending poll first.
//
// Polls are chained, not interval based: the next poll is armed only after
// the previous status request settles, so at most one request is ever in
// flight for a job. Every mutation runs under one mutex and carries a
// generation number; Reset and replacement bump the generation so a poll
// that was already in flight can never apply a stale result.
type Controller struct {
	engine       Engine
	pollInterval time.Duration

	mu        sync.Mutex
	gen       int
	job       *models.Job
	errMsg    string
	loading   bool
	pollTimer *time.Timer
	subs      map[int]func(Snapshot)
	nextSub   int
}

func NewController(engine Engine, pollInterval time.Duration) *Controller {
	return &Controller{
		engine:       engine,
		pollInterval: pollInterval,
		subs:         make(map[int]func(Snapshot)),
	}
}

// Subscribe registers a listener for state changes. The returned function
// removes it; calling it during a dispatch is safe.
func (c *Controller) Subscribe(listener func(Snapshot)) func() {
	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = listener
	c.mu.Unlock()
	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Submit uploads an artifact and starts polling the resulting job. Any job
// still being tracked is discarded first.
func (c *Controller) Submit(ctx context.Context, filename string, data io.Reader) error {
	c.mu.Lock()
	c.stopTimerLocked()
	c.gen++
	gen := c.gen
	c.job = nil
	c.errMsg = ""
	c.loading = true
	c.dispatch(c.drainLocked())

	resp, err := c.engine.SubmitDiagnostic(ctx, filename, data)

	c.mu.Lock()
	if gen != c.gen {
		// Replaced or reset while the upload was in flight.
		c.mu.Unlock()
		return err
	}
	if err != nil {
		c.loading = false
		c.errMsg = err.Error()
		c.dispatch(c.drainLocked())
		return err
	}
	c.job = resp.Job()
	if c.job.Status.Terminal() {
		c.loading = false
	} else {
		c.armPollLocked(ctx, gen)
	}
	c.dispatch(c.drainLocked())
	return nil
}

// Reset cancels any pending poll and clears job, result and error state.
func (c *Controller) Reset() {
	c.mu.Lock()
	c.stopTimerLocked()
	c.gen++
	c.job = nil
	c.errMsg = ""
	c.loading = false
	c.dispatch(c.drainLocked())
}

// Close cancels any pending poll. The controller must not be used afterwards.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopTimerLocked()
	c.gen++
}

func (c *Controller) armPollLocked(ctx context.Context, gen int) {
	c.pollTimer = time.AfterFunc(c.pollInterval, func() {
		c.poll(ctx, gen)
	})
}

func (c *Controller) poll(ctx context.Context, gen int) {
	c.mu.Lock()
	if gen != c.gen || c.job == nil {
		c.mu.Unlock()
		return
	}
	c.pollTimer = nil
	jobID := c.job.ID
	c.mu.Unlock()

	resp, err := c.engine.GetJob(ctx, jobID)

	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return
	}
	if err != nil {
		// A single failed poll ends the tracking session.
		logger.Log.Error("Job status poll failed", "job_id", jobID, "err", err)
		c.loading = false
		c.errMsg = err.Error()
		c.dispatch(c.drainLocked())
		return
	}
	if c.job.Status.Regresses(resp.Status) {
		logger.Log.Warn("Ignoring regressing job status", "job_id", jobID, "from", c.job.Status, "to", resp.Status)
	} else {
		c.job = resp.Job()
	}
	if c.job.Status.Terminal() {
		c.loading = false
	} else {
		c.armPollLocked(ctx, gen)
	}
	c.dispatch(c.drainLocked())
}

func (c *Controller) stopTimerLocked() {
	if c.pollTimer != nil {
		c.pollTimer.Stop()
		c.pollTimer = nil
	}
}

func (c *Controller) snapshotLocked() Snapshot {
	return Snapshot{Job: c.job, Loading: c.loading, Err: c.errMsg}
}

// drainLocked captures the current snapshot and listener set and releases the
// lock, so dispatch can run without holding it. Listeners registered or
// removed mid-dispatch see no corruption: delivery works off the captured set.
func (c *Controller) drainLocked() (Snapshot, []func(Snapshot)) {
	snap := c.snapshotLocked()
	listeners := make([]func(Snapshot), 0, len(c.subs))
	for _, fn := range c.subs {
		listeners = append(listeners, fn)
	}
	c.mu.Unlock()
	return snap, listeners
}

func (c *Controller) dispatch(snap Snapshot, listeners []func(Snapshot)) {
	for _, fn := range listeners {
		fn(snap)
	}
}
