// Package downloader runs the bounded-concurrency download pipeline. A
// fixed-size worker pool consumes tasks from a shared queue; every request
// passes through one global rate gate shared by all workers, so the
// platform-facing request rate stays bounded regardless of the worker count.
package downloader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"ofscraper/pkg/dedup"
	errs "ofscraper/pkg/errors"
	"ofscraper/pkg/logger"
	"ofscraper/pkg/onlyfans"
	"ofscraper/pkg/ratelimit"
	"ofscraper/pkg/retry"
)

// ErrAlreadyClaimed is returned by Submit when the media id is already in
// flight or completed within this run.
var ErrAlreadyClaimed = errors.New("media id already claimed")

// Task is one unit of download work.
type Task struct {
	Ref  onlyfans.MediaReference
	Dest string
}

// Result is the terminal report for one task.
type Result struct {
	Task     Task
	State    State // Succeeded, Failed or Skipped
	Err      error
	Size     int64
	Attempts int
	Duration time.Duration
}

// Fetcher issues the media GET and returns the open response for streaming.
type Fetcher interface {
	Download(ctx context.Context, url string) (*http.Response, error)
}

// Saver writes a stream to its final destination atomically.
type Saver interface {
	Save(r io.Reader, dest string, expectedSize int64) (int64, error)
	Exists(dest string) bool
}

// Options configures a Pool.
type Options struct {
	Workers     int
	MaxAttempts int
	Gate        ratelimit.Gate
	Backoff     retry.BackoffStrategy
}

// Pool manages concurrent download workers
type Pool struct {
	opts    Options
	tasks   chan Task
	results chan Result
	wg      sync.WaitGroup

	ctx    context.Context
	cancel context.CancelFunc

	fetcher Fetcher
	saver   Saver
	store   dedup.Store
	logger  logger.Logger

	// claims enforces at-most-one-in-flight per media id, independent of
	// when the dedup store persists the completion.
	claims   map[string]struct{}
	claimsMu sync.Mutex

	fatalOnce sync.Once
	fatalErr  error
}

// NewPool creates a new download worker pool
func NewPool(ctx context.Context, fetcher Fetcher, saver Saver, store dedup.Store, opts Options, log logger.Logger) *Pool {
	if log == nil {
		log = logger.GetLogger()
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	if opts.Gate == nil {
		opts.Gate = ratelimit.NewIntervalGate(0)
	}
	if opts.Backoff == nil {
		opts.Backoff = retry.DefaultExponentialBackoff()
	}

	poolCtx, cancel := context.WithCancel(ctx)

	return &Pool{
		opts:    opts,
		tasks:   make(chan Task, opts.Workers*2),
		results: make(chan Result, opts.Workers),
		ctx:     poolCtx,
		cancel:  cancel,
		fetcher: fetcher,
		saver:   saver,
		store:   store,
		logger:  log,
		claims:  make(map[string]struct{}),
	}
}

// Start launches the workers
func (p *Pool) Start() {
	p.logger.InfoWithFields("starting download pool", map[string]interface{}{
		"workers": p.opts.Workers,
	})
	for i := 0; i < p.opts.Workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// Stop closes the task queue, waits for in-flight work to drain and closes
// the result channel.
func (p *Pool) Stop() {
	close(p.tasks)
	p.wg.Wait()
	close(p.results)
	p.cancel()
}

// Abort cancels all work immediately. In-flight transfers fail their
// current attempt; nothing partially written reaches a final name.
func (p *Pool) Abort() {
	p.cancel()
}

// FatalErr returns the credentials failure that aborted the run, if any.
func (p *Pool) FatalErr() error {
	p.claimsMu.Lock()
	defer p.claimsMu.Unlock()
	return p.fatalErr
}

// Results returns the channel terminal task results are delivered on.
func (p *Pool) Results() <-chan Result {
	return p.results
}

// Submit queues a task. It refuses ids already recorded in the dedup store
// and ids currently claimed by another task in this run.
func (p *Pool) Submit(task Task) error {
	key := dedup.Key(task.Ref.CreatorID, task.Ref.MediaID)

	if p.store.Contains(key) {
		return ErrAlreadyClaimed
	}

	p.claimsMu.Lock()
	if _, ok := p.claims[key]; ok {
		p.claimsMu.Unlock()
		return ErrAlreadyClaimed
	}
	p.claims[key] = struct{}{}
	p.claimsMu.Unlock()

	select {
	case p.tasks <- task:
		return nil
	case <-p.ctx.Done():
		p.releaseClaim(key)
		return fmt.Errorf("download pool is shutting down: %w", p.ctx.Err())
	}
}

func (p *Pool) releaseClaim(key string) {
	p.claimsMu.Lock()
	delete(p.claims, key)
	p.claimsMu.Unlock()
}

func (p *Pool) fail(err error) {
	p.fatalOnce.Do(func() {
		p.claimsMu.Lock()
		p.fatalErr = err
		p.claimsMu.Unlock()
		p.logger.WithError(err).Error("fatal error, aborting run")
		p.cancel()
	})
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()

	for task := range p.tasks {
		if p.ctx.Err() != nil {
			// Drain remaining tasks without executing them.
			continue
		}

		// The collector drains results until Stop closes the channel, so a
		// terminal result is always deliverable even mid-abort.
		p.results <- p.run(task, id)
	}
}

// run executes one task to a terminal state.
func (p *Pool) run(task Task, workerID int) Result {
	start := time.Now()
	key := dedup.Key(task.Ref.CreatorID, task.Ref.MediaID)

	state := StatePending
	attempt := 0
	var lastErr error
	var size int64

	for !state.Terminal() {
		attempt++
		state = StateInFlight

		outcome, n, err := p.attempt(task)
		size = n
		if err != nil {
			lastErr = err
		}

		state = NextState(state, outcome, attempt, p.opts.MaxAttempts)

		switch {
		case outcome == OutcomeFatal:
			p.fail(err)
		case state == StateRetrying:
			delay := p.opts.Backoff.NextDelay(attempt)
			p.logger.WarnWithFields("retrying download", map[string]interface{}{
				"worker":   workerID,
				"media_id": task.Ref.MediaID,
				"attempt":  attempt,
				"delay_ms": delay.Milliseconds(),
				"error":    err.Error(),
			})
			if werr := retry.Wait(p.ctx, delay); werr != nil {
				state = StateFailed
				lastErr = werr
			}
		}
	}

	if state == StateSucceeded {
		// The checkpoint must be durable before the task is reported
		// complete, or a crash here re-downloads the file next run.
		if err := p.store.Record(key, time.Now()); err != nil {
			state = StateFailed
			lastErr = fmt.Errorf("download succeeded but checkpoint failed: %w", err)
		}
	}

	if state == StateFailed {
		// A failed id may be retried by a later run.
		p.releaseClaim(key)
	}

	return Result{
		Task:     task,
		State:    state,
		Err:      lastErr,
		Size:     size,
		Attempts: attempt,
		Duration: time.Since(start),
	}
}

// attempt performs a single fetch-and-write and classifies the outcome.
func (p *Pool) attempt(task Task) (Outcome, int64, error) {
	if err := p.ctx.Err(); err != nil {
		return OutcomePermanent, 0, err
	}

	// A completed file on disk with no dedup record means the previous run
	// crashed between rename and checkpoint. Adopt it instead of refetching.
	if p.saver.Exists(task.Dest) {
		return OutcomeSuccess, 0, nil
	}

	if err := p.opts.Gate.Acquire(p.ctx); err != nil {
		return OutcomePermanent, 0, err
	}

	resp, err := p.fetcher.Download(p.ctx, task.Ref.URL)
	if err != nil {
		return classifyFetchError(task.Ref, err), 0, err
	}
	defer resp.Body.Close()

	size, err := p.saver.Save(resp.Body, task.Dest, onlyfans.ContentLength(resp))
	if err != nil {
		// Truncated or failed writes retry; the .part temp is already gone.
		if p.ctx.Err() != nil {
			return OutcomePermanent, size, p.ctx.Err()
		}
		return OutcomeTransient, size, err
	}

	return OutcomeSuccess, size, nil
}

func classifyFetchError(ref onlyfans.MediaReference, err error) Outcome {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return OutcomePermanent
	}

	switch errs.TypeOf(err) {
	case errs.ErrorTypeAuth:
		return OutcomeFatal
	case errs.ErrorTypeNotFound:
		if ref.Kind == onlyfans.MediaKindTemporary {
			// Expired between discovery and fetch. Expected, not a failure.
			return OutcomeGone
		}
		return OutcomePermanent
	case errs.ErrorTypeNetwork, errs.ErrorTypeRateLimit, errs.ErrorTypeServerError:
		return OutcomeTransient
	default:
		return OutcomeTransient
	}
}
