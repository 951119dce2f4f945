package pagination

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "ofscraper/pkg/errors"
	"ofscraper/pkg/logger"
	"ofscraper/pkg/retry"
)

func fastRetry(maxAttempts int) *retry.Config {
	return &retry.Config{
		MaxAttempts: maxAttempts,
		Backoff:     &retry.ConstantBackoff{Delay: time.Millisecond},
		RetryIf:     retry.DefaultRetryIf,
		Context:     context.Background(),
		Logger:      logger.NewTestLogger(),
	}
}

// pagedFixture serves fixed pages keyed by offset and counts fetches.
type pagedFixture struct {
	pages   map[int]Page[int]
	fetches []int
}

func (f *pagedFixture) FetchPage(ctx context.Context, cur Cursor) (Page[int], error) {
	f.fetches = append(f.fetches, cur.Offset)
	return f.pages[cur.Offset], nil
}

func TestWalkVisitsAllItemsInOrder(t *testing.T) {
	fixture := &pagedFixture{
		pages: map[int]Page[int]{
			0: {Items: []int{1, 2, 3}, Next: Cursor{Offset: 3}, HasMore: true},
			3: {Items: []int{4}, Next: Cursor{Offset: 4}, HasMore: false},
		},
	}

	var got []int
	cur, err := Walk[int](context.Background(), fixture, Cursor{}, fastRetry(3), func(item int) error {
		got = append(got, item)
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2, 3, 4}, got)
	assert.True(t, cur.Exhausted)
	// The short page already said HasMore=false, so no extra call is made.
	assert.Equal(t, []int{0, 3}, fixture.fetches)
}

func TestWalkRetriesEmptyPageWithMore(t *testing.T) {
	calls := 0
	pager := PagerFunc[int](func(ctx context.Context, cur Cursor) (Page[int], error) {
		calls++
		if calls == 1 {
			// Glitched response: nothing in it but the listing claims more.
			return Page[int]{HasMore: true, Next: cur}, nil
		}
		return Page[int]{Items: []int{7}, HasMore: false}, nil
	})

	var got []int
	_, err := Walk[int](context.Background(), pager, Cursor{}, fastRetry(3), func(item int) error {
		got = append(got, item)
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, 2, calls)
	assert.Equal(t, []int{7}, got)
}

func TestWalkGivesUpAfterMaxAttempts(t *testing.T) {
	calls := 0
	pager := PagerFunc[int](func(ctx context.Context, cur Cursor) (Page[int], error) {
		calls++
		return Page[int]{HasMore: true, Next: cur}, nil
	})

	_, err := Walk[int](context.Background(), pager, Cursor{}, fastRetry(2), func(item int) error {
		return nil
	})
	require.Error(t, err)
	assert.Equal(t, 2, calls)
}

func TestWalkStopsOnFatalError(t *testing.T) {
	calls := 0
	pager := PagerFunc[int](func(ctx context.Context, cur Cursor) (Page[int], error) {
		calls++
		if cur.Offset == 0 {
			return Page[int]{Items: []int{1}, Next: Cursor{Offset: 1}, HasMore: true}, nil
		}
		return Page[int]{}, errs.New(errs.ErrorTypeAuth, 401, "session expired")
	})

	cur, err := Walk[int](context.Background(), pager, Cursor{}, fastRetry(3), func(item int) error {
		return nil
	})
	require.Error(t, err)
	assert.Equal(t, errs.ErrorTypeAuth, errs.TypeOf(err))
	// No retry on auth errors.
	assert.Equal(t, 2, calls)
	// The cursor still points at the last confirmed position.
	assert.Equal(t, 1, cur.Offset)
	assert.False(t, cur.Exhausted)
}

func TestWalkResumesFromCursor(t *testing.T) {
	fixture := &pagedFixture{
		pages: map[int]Page[int]{
			0: {Items: []int{1, 2}, Next: Cursor{Offset: 2}, HasMore: true},
			2: {Items: []int{3, 4}, Next: Cursor{Offset: 4}, HasMore: false},
		},
	}

	var got []int
	_, err := Walk[int](context.Background(), fixture, Cursor{Offset: 2}, fastRetry(3), func(item int) error {
		got = append(got, item)
		return nil
	})
	require.NoError(t, err)

	// Only the second page is visited.
	assert.Equal(t, []int{3, 4}, got)
	assert.Equal(t, []int{2}, fixture.fetches)
}

func TestWalkHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	pager := PagerFunc[int](func(ctx context.Context, cur Cursor) (Page[int], error) {
		t.Fatal("pager should not be called after cancellation")
		return Page[int]{}, nil
	})

	_, err := Walk[int](ctx, pager, Cursor{}, fastRetry(3), func(item int) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWalkExhaustedCursorIsANoOp(t *testing.T) {
	pager := PagerFunc[int](func(ctx context.Context, cur Cursor) (Page[int], error) {
		t.Fatal("pager should not be called for an exhausted cursor")
		return Page[int]{}, nil
	})

	cur, err := Walk[int](context.Background(), pager, Cursor{Exhausted: true}, fastRetry(3), func(item int) error { return nil })
	require.NoError(t, err)
	assert.True(t, cur.Exhausted)
}
