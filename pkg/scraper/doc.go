// Package scraper orchestrates a full download run across creators.
//
// The Scraper coordinates discovery, deduplication and the bounded worker
// pool. One run walks every requested creator's feeds, queues the media the
// dedup store has not seen and collects a terminal result for every queued
// item into an end-of-run report.
//
// Architecture:
//
// The Scraper struct is the main component that:
//   - Sweeps stale partial files left by a previous crash
//   - Walks posts, archived posts, messages, stories and highlights per creator
//   - Shares one worker pool and one request gate across the whole run
//   - Skips media already recorded in the dedup store
//   - Aggregates per-creator counters and failures into a Report
//
// Usage:
//
//	store, err := dedup.OpenBitcask(statePath)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
//
//	s, err := scraper.New(cfg, client, store, logger.GetLogger())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	report, err := s.Run(ctx, creators)
//	if err != nil {
//	    // The run was aborted; the report still covers what completed.
//	}
//
// Failure Handling:
//
// A credentials failure anywhere aborts the run immediately. Any other
// per-item or per-creator failure is counted in the report and the run
// carries on, so one broken creator cannot sink a batch.
package scraper
