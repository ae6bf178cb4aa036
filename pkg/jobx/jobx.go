// Package jobx is an in-process, type-routed job engine: processors are
// registered per job type, submissions return immediately, and a bounded
// worker pool executes jobs with retry, backoff and observable progress.
//
// The engine is explicitly constructed and dependency-injected; it has a
// single-process lifetime and one Start/Stop cycle. Durability is not its
// concern: callers that need job state to survive a restart project it into
// their own store (see pkg/analysis).
package jobx

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/Abraxas-365/lectio/pkg/logx"
	"github.com/google/uuid"
)

// ProcessorFunc executes one job attempt. The returned payload is stored as
// the job result on success; a non-nil error triggers retry or terminal
// failure depending on remaining attempts.
type ProcessorFunc func(ctx context.Context, job *Handle) (json.RawMessage, error)

// Engine schedules and executes jobs.
type Engine struct {
	opts Options

	mu              sync.RWMutex
	processors      map[string]ProcessorFunc
	jobs            map[string]*Job
	inflight        map[string]struct{}
	cancels         map[string]context.CancelFunc
	cancelRequested map[string]bool
	timers          map[string]*time.Timer
	running         bool
	quit            chan struct{}

	events  *emitter
	queue   chan string
	baseCtx context.Context
	stopAll context.CancelFunc
	wg      sync.WaitGroup
}

// NewEngine creates an engine. It accepts work only after Start.
func NewEngine(options ...EngineOption) *Engine {
	opts := defaultOptions()
	for _, o := range options {
		o(&opts)
	}

	baseCtx, stopAll := context.WithCancel(context.Background())
	return &Engine{
		opts:            opts,
		processors:      make(map[string]ProcessorFunc),
		jobs:            make(map[string]*Job),
		inflight:        make(map[string]struct{}),
		cancels:         make(map[string]context.CancelFunc),
		cancelRequested: make(map[string]bool),
		timers:          make(map[string]*time.Timer),
		events:          newEmitter(),
		queue:           make(chan string, opts.QueueCapacity),
		baseCtx:         baseCtx,
		stopAll:         stopAll,
	}
}

// Register binds a processor to a job type. Exactly one processor serves a
// type; re-registration replaces the previous binding (last write wins).
func (e *Engine) Register(jobType string, processor ProcessorFunc) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, exists := e.processors[jobType]; exists {
		logx.Warnf("jobx: processor for type %q replaced", jobType)
	}
	e.processors[jobType] = processor
}

// On subscribes a listener to a lifecycle event for all jobs.
func (e *Engine) On(event Event, fn Listener) {
	e.events.on(string(event), fn)
}

// OnJob subscribes a listener to a lifecycle event of a single job.
func (e *Engine) OnJob(event Event, jobID string, fn Listener) {
	e.events.on(string(event)+":"+jobID, fn)
}

// Submit creates a job in PENDING, schedules it, and returns a snapshot
// without waiting for execution. payload may be any JSON-marshalable value
// or a pre-encoded json.RawMessage.
func (e *Engine) Submit(jobType string, payload any, options ...SubmitOption) (Job, error) {
	if jobType == "" {
		return Job{}, jobxErrors.New(ErrInvalidJob).WithDetail("reason", "empty job type")
	}

	sopts := SubmitOptions{MaxAttempts: e.opts.MaxAttempts}
	for _, o := range options {
		o(&sopts)
	}

	raw, err := encodePayload(payload)
	if err != nil {
		return Job{}, jobxErrors.NewWithCause(ErrInvalidJob, err).WithDetail("type", jobType)
	}

	now := time.Now().UTC()
	job := &Job{
		ID:          newJobID(),
		Type:        jobType,
		Payload:     raw,
		Status:      StatusPending,
		MaxAttempts: sopts.MaxAttempts,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	e.mu.Lock()
	e.jobs[job.ID] = job
	snap := *job
	e.mu.Unlock()

	e.events.emit(EventAdded, snap)

	if sopts.Delay > 0 {
		e.scheduleAfter(job.ID, sopts.Delay)
	} else {
		e.enqueue(job.ID)
	}
	return snap, nil
}

// Get returns a snapshot of the job or ErrJobNotFound.
func (e *Engine) Get(id string) (Job, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	job, ok := e.jobs[id]
	if !ok {
		return Job{}, jobxErrors.New(ErrJobNotFound).WithDetail("job_id", id)
	}
	return *job, nil
}

// List returns snapshots of all jobs, optionally filtered by status.
func (e *Engine) List(statuses ...Status) []Job {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]Job, 0, len(e.jobs))
	for _, job := range e.jobs {
		if len(statuses) > 0 && !statusIn(job.Status, statuses) {
			continue
		}
		out = append(out, *job)
	}
	return out
}

// Stats returns per-status job counts.
func (e *Engine) Stats() Stats {
	e.mu.RLock()
	defer e.mu.RUnlock()

	var s Stats
	for _, job := range e.jobs {
		switch job.Status {
		case StatusPending:
			s.Pending++
		case StatusProcessing:
			s.Processing++
		case StatusCompleted:
			s.Completed++
		case StatusFailed:
			s.Failed++
		case StatusCanceled:
			s.Canceled++
		}
		s.Total++
	}
	return s
}

// Cancel requests cancellation of a job. A queued or retry-waiting job is
// canceled immediately; a running job has its context canceled and finishes
// as canceled when the processor observes it. Canceling a terminal job is a
// conflict. If a processor ignores its context and completes anyway, the
// completed result wins.
func (e *Engine) Cancel(id string) error {
	e.mu.Lock()
	job, ok := e.jobs[id]
	if !ok {
		e.mu.Unlock()
		return jobxErrors.New(ErrJobNotFound).WithDetail("job_id", id)
	}
	if job.Status.Terminal() {
		e.mu.Unlock()
		return jobxErrors.New(ErrJobTerminal).WithDetail("job_id", id).WithDetail("status", string(job.Status))
	}

	if timer, ok := e.timers[id]; ok {
		timer.Stop()
		delete(e.timers, id)
	}

	if _, busy := e.inflight[id]; busy {
		e.cancelRequested[id] = true
		cancel := e.cancels[id]
		e.mu.Unlock()
		if cancel != nil {
			cancel()
		}
		return nil
	}

	snap := e.finalizeLocked(job, StatusCanceled, nil, "job canceled")
	e.mu.Unlock()
	e.events.emit(EventCanceled, snap)
	logx.WithField("job_id", id).Info("jobx: job canceled before execution")
	return nil
}

// Start launches the worker pool. It returns immediately; the engine runs
// until Stop is called or ctx is canceled.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return jobxErrors.New(ErrAlreadyRunning)
	}
	e.running = true
	e.quit = make(chan struct{})
	quit := e.quit
	e.mu.Unlock()

	logx.Infof("jobx: starting %d workers", e.opts.Concurrency)

	for i := 0; i < e.opts.Concurrency; i++ {
		e.wg.Add(1)
		go func(id int) {
			defer e.wg.Done()
			e.workerLoop(id, quit)
		}(i)
	}

	if ctx != nil {
		go func() {
			select {
			case <-ctx.Done():
				e.Stop()
			case <-e.baseCtx.Done():
			}
		}()
	}
	return nil
}

// Stop drains workers: no new jobs are picked up, running jobs get up to
// ShutdownTimeout to finish, then their contexts are canceled. The engine
// cannot be restarted afterwards.
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	e.running = false
	close(e.quit)
	for id, timer := range e.timers {
		timer.Stop()
		delete(e.timers, id)
	}
	e.mu.Unlock()

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logx.Info("jobx: all workers stopped")
	case <-time.After(e.opts.ShutdownTimeout):
		logx.Warn("jobx: shutdown timed out, canceling running jobs")
	}
	e.stopAll()
}

// ---------------------------------------------------------------------------
// execution
// ---------------------------------------------------------------------------

func (e *Engine) workerLoop(id int, quit chan struct{}) {
	for {
		select {
		case <-quit:
			return
		case <-e.baseCtx.Done():
			return
		case jobID := <-e.queue:
			e.execute(jobID)
		}
	}
}

func (e *Engine) execute(id string) {
	e.mu.Lock()
	job, ok := e.jobs[id]
	if !ok || job.Status.Terminal() {
		e.mu.Unlock()
		return
	}
	if _, busy := e.inflight[id]; busy {
		// Single-writer per job: never run the same job on two workers.
		e.mu.Unlock()
		return
	}

	processor, registered := e.processors[job.Type]
	if !registered {
		// Configuration error. Fail explicitly instead of leaving the job
		// stuck in PENDING.
		snap := e.finalizeLocked(job, StatusFailed, nil,
			fmt.Sprintf("no processor registered for job type %q", job.Type))
		e.mu.Unlock()
		e.events.emit(EventFailed, snap)
		logx.WithFields(logx.Fields{"job_id": id, "type": snap.Type}).
			Error("jobx: no processor registered")
		return
	}

	e.inflight[id] = struct{}{}
	job.Status = StatusProcessing
	job.Attempts++
	job.Progress = 0
	now := time.Now().UTC()
	job.StartedAt = &now
	job.UpdatedAt = now

	ctx, cancel := context.WithTimeout(e.baseCtx, e.opts.JobTimeout)
	e.cancels[id] = cancel
	snap := *job
	e.mu.Unlock()

	e.events.emit(EventProcessing, snap)
	logx.WithFields(logx.Fields{
		"job_id":  id,
		"type":    snap.Type,
		"attempt": snap.Attempts,
	}).Debug("jobx: job processing")

	// Opportunistic progress: nudge toward 90 at a fixed cadence so callers
	// see movement even from processors that never report progress.
	tickerDone := make(chan struct{})
	go func() {
		ticker := time.NewTicker(e.opts.ProgressCadence)
		defer ticker.Stop()
		for {
			select {
			case <-tickerDone:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				e.bumpProgress(id)
			}
		}
	}()

	result, err := e.runProcessor(ctx, processor, &Handle{engine: e, id: id})
	close(tickerDone)
	cancel()

	e.mu.Lock()
	delete(e.inflight, id)
	delete(e.cancels, id)
	job, ok = e.jobs[id]
	if !ok {
		e.mu.Unlock()
		return
	}

	if err == nil {
		delete(e.cancelRequested, id)
		snap = e.finalizeLocked(job, StatusCompleted, result, "")
		e.mu.Unlock()
		e.events.emit(EventCompleted, snap)
		logx.WithFields(logx.Fields{"job_id": id, "type": snap.Type}).Info("jobx: job completed")
		return
	}

	if e.cancelRequested[id] {
		delete(e.cancelRequested, id)
		snap = e.finalizeLocked(job, StatusCanceled, nil, "job canceled")
		e.mu.Unlock()
		e.events.emit(EventCanceled, snap)
		logx.WithFields(logx.Fields{"job_id": id, "type": snap.Type}).Info("jobx: job canceled")
		return
	}

	if job.Attempts < job.MaxAttempts {
		job.Status = StatusPending
		job.Progress = 0
		job.Error = err.Error()
		job.UpdatedAt = time.Now().UTC()
		delay := e.backoff(job.Attempts)
		snap = *job
		e.mu.Unlock()

		e.scheduleAfter(id, delay)
		e.events.emit(EventFailed, snap)
		logx.WithError(err).WithField("job_id", id).
			Warnf("jobx: attempt %d/%d failed, retrying in %s", snap.Attempts, snap.MaxAttempts, delay)
		return
	}

	snap = e.finalizeLocked(job, StatusFailed, nil, err.Error())
	e.mu.Unlock()
	e.events.emit(EventFailed, snap)
	logx.WithError(err).WithField("job_id", id).
		Warnf("jobx: job failed after %d attempts", snap.Attempts)
}

func (e *Engine) runProcessor(ctx context.Context, processor ProcessorFunc, h *Handle) (result json.RawMessage, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("processor panic: %v", r)
			logx.WithField("job_id", h.id).Errorf("jobx: processor panic: %v\n%s", r, debug.Stack())
		}
	}()
	return processor(ctx, h)
}

// finalizeLocked moves a job to a terminal state. Exactly one of result and
// errMsg ends up set. Callers hold e.mu and emit the matching event after
// unlocking.
func (e *Engine) finalizeLocked(job *Job, status Status, result json.RawMessage, errMsg string) Job {
	now := time.Now().UTC()
	job.Status = status
	job.UpdatedAt = now
	job.CompletedAt = &now
	if status == StatusCompleted {
		job.Progress = 100
		job.Result = result
		job.Error = ""
	} else {
		job.Result = nil
		job.Error = errMsg
	}
	return *job
}

func (e *Engine) bumpProgress(id string) {
	e.mu.Lock()
	job, ok := e.jobs[id]
	if !ok || job.Status != StatusProcessing || job.Progress >= 90 {
		e.mu.Unlock()
		return
	}
	job.Progress++
	job.UpdatedAt = time.Now().UTC()
	snap := *job
	e.mu.Unlock()
	e.events.emit(EventProgress, snap)
}

// setProgress applies processor-reported progress. Explicit progress takes
// precedence over the opportunistic ticker but never moves backwards within
// an attempt.
func (e *Engine) setProgress(id string, progress int) {
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}

	e.mu.Lock()
	job, ok := e.jobs[id]
	if !ok || job.Status != StatusProcessing || progress <= job.Progress {
		e.mu.Unlock()
		return
	}
	job.Progress = progress
	job.UpdatedAt = time.Now().UTC()
	snap := *job
	e.mu.Unlock()
	e.events.emit(EventProgress, snap)
}

func (e *Engine) scheduleAfter(id string, delay time.Duration) {
	e.mu.Lock()
	timer := time.AfterFunc(delay, func() {
		e.mu.Lock()
		delete(e.timers, id)
		e.mu.Unlock()
		e.enqueue(id)
	})
	e.timers[id] = timer
	e.mu.Unlock()
}

func (e *Engine) enqueue(id string) {
	select {
	case e.queue <- id:
		return
	default:
	}
	// Queue saturated: hand off without blocking the caller.
	go func() {
		select {
		case e.queue <- id:
		case <-e.baseCtx.Done():
		}
	}()
}

func (e *Engine) backoff(attempt int) time.Duration {
	d := e.opts.RetryBaseDelay
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= e.opts.RetryMaxDelay {
			d = e.opts.RetryMaxDelay
			break
		}
	}
	// ±20% jitter so retry bursts do not synchronize.
	jitter := 0.8 + 0.4*rand.Float64()
	return time.Duration(float64(d) * jitter)
}

func statusIn(s Status, set []Status) bool {
	for _, c := range set {
		if s == c {
			return true
		}
	}
	return false
}

func encodePayload(payload any) (json.RawMessage, error) {
	switch p := payload.(type) {
	case nil:
		return nil, nil
	case json.RawMessage:
		return p, nil
	case []byte:
		return json.RawMessage(p), nil
	default:
		return json.Marshal(payload)
	}
}

func newJobID() string {
	return fmt.Sprintf("job_%d_%s", time.Now().UnixMilli(),
		strings.SplitN(uuid.New().String(), "-", 2)[0])
}

// ---------------------------------------------------------------------------
// Handle
// ---------------------------------------------------------------------------

// Handle is the processor's view of its own job.
type Handle struct {
	engine *Engine
	id     string
}

// ID returns the job id.
func (h *Handle) ID() string { return h.id }

// Type returns the job type.
func (h *Handle) Type() string {
	job, err := h.engine.Get(h.id)
	if err != nil {
		return ""
	}
	return job.Type
}

// Payload returns the submitted payload.
func (h *Handle) Payload() json.RawMessage {
	job, err := h.engine.Get(h.id)
	if err != nil {
		return nil
	}
	return job.Payload
}

// Attempt returns the current attempt number, starting at 1.
func (h *Handle) Attempt() int {
	job, err := h.engine.Get(h.id)
	if err != nil {
		return 0
	}
	return job.Attempts
}

// Progress returns the current progress value.
func (h *Handle) Progress() int {
	job, err := h.engine.Get(h.id)
	if err != nil {
		return 0
	}
	return job.Progress
}

// SetProgress reports explicit progress in [0,100].
func (h *Handle) SetProgress(progress int) {
	h.engine.setProgress(h.id, progress)
}
