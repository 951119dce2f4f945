package scraper

import (
	"encoding/json"
	"os"
	"time"
)

// ItemFailure records the last error seen for a media item that ended Failed.
type ItemFailure struct {
	MediaID  int64  `json:"media_id"`
	PostID   int64  `json:"post_id"`
	Attempts int    `json:"attempts"`
	Error    string `json:"error"`
}

// CreatorSummary aggregates the outcome of a single creator's run.
type CreatorSummary struct {
	CreatorID int64         `json:"creator_id"`
	Handle    string        `json:"handle"`
	Attempted int           `json:"attempted"`
	Succeeded int           `json:"succeeded"`
	Skipped   int           `json:"skipped"`
	Failed    int           `json:"failed"`
	Bytes     int64         `json:"bytes"`
	Failures  []ItemFailure `json:"failures,omitempty"`
	Error     string        `json:"error,omitempty"`
}

// Report is the end-of-run roll-up across all creators.
type Report struct {
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt time.Time        `json:"finished_at"`
	Aborted    bool             `json:"aborted,omitempty"`
	Creators   []CreatorSummary `json:"creators"`
}

// Totals sums the per-creator counters.
func (r *Report) Totals() (attempted, succeeded, skipped, failed int) {
	for _, c := range r.Creators {
		attempted += c.Attempted
		succeeded += c.Succeeded
		skipped += c.Skipped
		failed += c.Failed
	}
	return
}

// Write saves the report as indented JSON.
func (r *Report) Write(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
