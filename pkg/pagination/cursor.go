// Package pagination provides a stateful iterator abstraction over
// offset/cursor-paged APIs. The cursor is a plain serializable value, so an
// interrupted walk can resume across process restarts by resupplying the
// last stored cursor.
package pagination

import (
	"context"

	errs "ofscraper/pkg/errors"
	"ofscraper/pkg/retry"
)

// Cursor is an opaque pagination position. Owned by exactly one walk at a
// time; not shared across creators.
type Cursor struct {
	Offset    int    `json:"offset"`
	Token     string `json:"token,omitempty"`
	Exhausted bool   `json:"exhausted"`
}

// Page is one fetched page of items. HasMore=false marks the true end of
// the sequence; a page built from zero records with HasMore=true is a
// transient condition and the same page is retried.
type Page[T any] struct {
	Items   []T
	Next    Cursor
	HasMore bool
	// Fetched is the number of raw records this page was built from, when
	// that differs from len(Items). Filtering can legitimately produce zero
	// items from a non-empty page; only a truly empty fetch is glitched.
	Fetched int
}

// Pager fetches one page at a given cursor position. Implementations are
// stateless between calls except for the cursor they return.
type Pager[T any] interface {
	FetchPage(ctx context.Context, cur Cursor) (Page[T], error)
}

// PagerFunc adapts a function to the Pager interface.
type PagerFunc[T any] func(ctx context.Context, cur Cursor) (Page[T], error)

// FetchPage calls f.
func (f PagerFunc[T]) FetchPage(ctx context.Context, cur Cursor) (Page[T], error) {
	return f(ctx, cur)
}

// errEmptyPage marks a zero-item page that still claims more data. Typed as
// a server error so the shared retry predicate treats it as transient.
func errEmptyPage(offset int) error {
	return errs.New(errs.ErrorTypeServerError, 0, "empty page at offset %d with more data claimed", offset)
}

// Walk drives a pager from cur until the sequence is exhausted, the context
// is cancelled, or a non-transient error occurs, calling fn for each item in
// page order. Transient page errors are retried under retryCfg. The returned
// cursor is always the furthest confirmed position, so the caller can
// persist it and resume.
func Walk[T any](ctx context.Context, p Pager[T], cur Cursor, retryCfg *retry.Config, fn func(item T) error) (Cursor, error) {
	if retryCfg == nil {
		retryCfg = retry.DefaultConfig()
	}

	for !cur.Exhausted {
		if err := ctx.Err(); err != nil {
			return cur, err
		}

		var page Page[T]
		err := retry.Do(func() error {
			var fetchErr error
			page, fetchErr = p.FetchPage(ctx, cur)
			if fetchErr != nil {
				return fetchErr
			}
			fetched := page.Fetched
			if fetched < len(page.Items) {
				fetched = len(page.Items)
			}
			if fetched == 0 && page.HasMore {
				return errEmptyPage(cur.Offset)
			}
			return nil
		}, retryCfg)
		if err != nil {
			return cur, err
		}

		for _, item := range page.Items {
			if err := fn(item); err != nil {
				return cur, err
			}
		}

		cur = page.Next
		if !page.HasMore {
			cur.Exhausted = true
		}
	}

	return cur, nil
}
