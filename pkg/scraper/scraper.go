package scraper

import (
	"context"
	"errors"
	"sync"
	"time"

	"ofscraper/internal/downloader"
	"ofscraper/pkg/config"
	"ofscraper/pkg/crawler"
	"ofscraper/pkg/dedup"
	errs "ofscraper/pkg/errors"
	"ofscraper/pkg/logger"
	"ofscraper/pkg/onlyfans"
	"ofscraper/pkg/ratelimit"
	"ofscraper/pkg/storage"
)

// Scraper drives a full run: discover media for each creator, queue what is
// not yet on disk and collect the terminal result of every download.
type Scraper struct {
	client  PlatformClient
	storage *storage.Manager
	store   dedup.Store
	cfg     *config.Config
	logger  logger.Logger
}

// New creates a Scraper rooted at the configured download directory.
func New(cfg *config.Config, client PlatformClient, store dedup.Store, log logger.Logger) (*Scraper, error) {
	if log == nil {
		log = logger.GetLogger()
	}

	mgr, err := storage.NewManager(cfg.Download.Root)
	if err != nil {
		return nil, err
	}

	return &Scraper{
		client:  client,
		storage: mgr,
		store:   store,
		cfg:     cfg,
		logger:  log,
	}, nil
}

// Storage exposes the underlying manager, mainly for the state directory.
func (s *Scraper) Storage() *storage.Manager {
	return s.storage
}

// Run walks every creator's feeds and downloads what the dedup store has not
// seen. One worker pool and one request gate are shared across all creators,
// so concurrency and request spacing hold for the whole run, not per creator.
//
// A credentials failure anywhere aborts the run and is returned alongside the
// partial report. Per-item failures do not: they are counted and listed in
// the report and the run carries on.
func (s *Scraper) Run(ctx context.Context, creators []onlyfans.Creator) (*Report, error) {
	report := &Report{StartedAt: time.Now()}

	swept, err := s.storage.SweepPartials()
	if err != nil {
		return report, err
	}
	if swept > 0 {
		s.logger.InfoWithFields("removed stale partial files", map[string]interface{}{
			"count": swept,
		})
	}

	gate := ratelimit.NewIntervalGate(s.cfg.Download.MinRequestInterval)
	pool := downloader.NewPool(ctx, s.client, s.storage, s.store, downloader.Options{
		Workers:     s.cfg.Download.Workers,
		MaxAttempts: s.cfg.Download.MaxAttempts,
		Gate:        gate,
	}, s.logger)
	pool.Start()

	disc := crawler.New(s.client, crawler.Options{
		SkipTemporary: s.cfg.Download.SkipTemporary,
	}, s.logger)

	summaries := make(map[int64]*CreatorSummary, len(creators))
	order := make([]int64, 0, len(creators))
	for _, c := range creators {
		summaries[c.ID] = &CreatorSummary{CreatorID: c.ID, Handle: c.Handle}
		order = append(order, c.ID)
	}

	var mu sync.Mutex
	var collector sync.WaitGroup
	collector.Add(1)
	go func() {
		defer collector.Done()
		for res := range pool.Results() {
			s.recordResult(summaries, &mu, res)
		}
	}()

	var fatal error
	for _, creator := range creators {
		if err := s.runCreator(ctx, disc, pool, creator, summaries, &mu); err != nil {
			if errs.IsFatal(err) || ctx.Err() != nil {
				fatal = err
				break
			}
			s.logger.WithError(err).ErrorWithFields("creator failed, continuing", map[string]interface{}{
				"creator": creator.Handle,
			})
			mu.Lock()
			summaries[creator.ID].Error = err.Error()
			mu.Unlock()
		}
	}

	if fatal != nil {
		pool.Abort()
	}
	pool.Stop()
	collector.Wait()

	if fatal == nil {
		fatal = pool.FatalErr()
	}

	for _, id := range order {
		report.Creators = append(report.Creators, *summaries[id])
	}
	report.FinishedAt = time.Now()
	report.Aborted = fatal != nil

	return report, fatal
}

func (s *Scraper) runCreator(ctx context.Context, disc *crawler.Crawler, pool *downloader.Pool, creator onlyfans.Creator, summaries map[int64]*CreatorSummary, mu *sync.Mutex) error {
	s.logger.InfoWithFields("scraping creator", map[string]interface{}{
		"creator": creator.Handle,
		"id":      creator.ID,
	})

	return disc.Discover(ctx, creator, func(ref onlyfans.MediaReference) error {
		if s.store.Contains(dedup.Key(ref.CreatorID, ref.MediaID)) {
			mu.Lock()
			summaries[creator.ID].Skipped++
			mu.Unlock()
			return nil
		}

		task := downloader.Task{
			Ref:  ref,
			Dest: s.storage.PathFor(creator.Handle, ref.MediaID, ref.Ext()),
		}
		if err := pool.Submit(task); err != nil {
			if errors.Is(err, downloader.ErrAlreadyClaimed) {
				// Same media attached to more than one post.
				mu.Lock()
				summaries[creator.ID].Skipped++
				mu.Unlock()
				return nil
			}
			return err
		}

		mu.Lock()
		summaries[creator.ID].Attempted++
		mu.Unlock()
		return nil
	})
}

func (s *Scraper) recordResult(summaries map[int64]*CreatorSummary, mu *sync.Mutex, res downloader.Result) {
	mu.Lock()
	defer mu.Unlock()

	sum, ok := summaries[res.Task.Ref.CreatorID]
	if !ok {
		// Should not happen; keep the count rather than dropping it.
		sum = &CreatorSummary{CreatorID: res.Task.Ref.CreatorID}
		summaries[res.Task.Ref.CreatorID] = sum
	}

	switch res.State {
	case downloader.StateSucceeded:
		sum.Succeeded++
		sum.Bytes += res.Size
	case downloader.StateSkipped:
		sum.Skipped++
	case downloader.StateFailed:
		sum.Failed++
		msg := "unknown error"
		if res.Err != nil {
			msg = res.Err.Error()
		}
		sum.Failures = append(sum.Failures, ItemFailure{
			MediaID:  res.Task.Ref.MediaID,
			PostID:   res.Task.Ref.PostID,
			Attempts: res.Attempts,
			Error:    msg,
		})
	}
}
