package crawler

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "ofscraper/pkg/errors"
	"ofscraper/pkg/logger"
	"ofscraper/pkg/onlyfans"
	"ofscraper/pkg/retry"
)

// fakeFeedClient serves canned feed pages keyed by offset and records
// which offsets were requested.
type fakeFeedClient struct {
	posts        map[int][]onlyfans.Post
	archived     map[int][]onlyfans.Post
	messages     map[int]*onlyfans.Messages
	stories      []onlyfans.Story
	categories   map[int][]onlyfans.HighlightCategory
	highlights   map[int64]*onlyfans.Highlight
	postErrs     map[int]error
	postOffsets  []int
	storiesCalls int
}

func (f *fakeFeedClient) FetchPostsPage(_ context.Context, _ int64, offset int) ([]onlyfans.Post, error) {
	f.postOffsets = append(f.postOffsets, offset)
	if err, ok := f.postErrs[offset]; ok {
		return nil, err
	}
	return f.posts[offset], nil
}

func (f *fakeFeedClient) FetchArchivedPostsPage(_ context.Context, _ int64, offset int) ([]onlyfans.Post, error) {
	return f.archived[offset], nil
}

func (f *fakeFeedClient) FetchMessagesPage(_ context.Context, _ int64, offset int) (*onlyfans.Messages, error) {
	if page, ok := f.messages[offset]; ok {
		return page, nil
	}
	return &onlyfans.Messages{}, nil
}

func (f *fakeFeedClient) FetchStories(_ context.Context, _ int64) ([]onlyfans.Story, error) {
	f.storiesCalls++
	return f.stories, nil
}

func (f *fakeFeedClient) FetchHighlightCategoriesPage(_ context.Context, _ int64, offset int) ([]onlyfans.HighlightCategory, error) {
	return f.categories[offset], nil
}

func (f *fakeFeedClient) FetchHighlight(_ context.Context, highlightID int64) (*onlyfans.Highlight, error) {
	if h, ok := f.highlights[highlightID]; ok {
		return h, nil
	}
	return &onlyfans.Highlight{ID: highlightID}, nil
}

func testCreator() onlyfans.Creator {
	return onlyfans.Creator{ID: 7, Handle: "somecreator"}
}

func apiTimestamp(t time.Time) string {
	return t.Format("2006-01-02T15:04:05-07:00")
}

func viewablePost(id, mediaID int64) onlyfans.Post {
	return onlyfans.Post{
		ID:       id,
		PostedAt: "2024-01-15T10:00:00+00:00",
		Media: []onlyfans.PostMedia{
			{
				ID:      mediaID,
				Type:    "photo",
				CanView: true,
				Source:  onlyfans.MediaSource{Source: fmt.Sprintf("https://cdn.example.com/%d.jpg", mediaID)},
			},
		},
	}
}

func fastRetry() *retry.Config {
	return &retry.Config{
		MaxAttempts: 2,
		Backoff:     &retry.ConstantBackoff{Delay: time.Millisecond},
		RetryIf:     retry.DefaultRetryIf,
		Context:     context.Background(),
		Logger:      logger.NewTestLogger(),
	}
}

func collect(t *testing.T, c *Crawler, creator onlyfans.Creator) []onlyfans.MediaReference {
	t.Helper()
	var refs []onlyfans.MediaReference
	err := c.Discover(context.Background(), creator, func(ref onlyfans.MediaReference) error {
		refs = append(refs, ref)
		return nil
	})
	require.NoError(t, err)
	return refs
}

func TestDiscoverWalksPostsInOrder(t *testing.T) {
	firstPage := make([]onlyfans.Post, 0, onlyfans.DefaultPageLimit)
	for i := 0; i < onlyfans.DefaultPageLimit; i++ {
		firstPage = append(firstPage, viewablePost(int64(100+i), int64(1000+i)))
	}
	client := &fakeFeedClient{
		posts: map[int][]onlyfans.Post{
			0:  firstPage,
			10: {viewablePost(200, 2000)},
		},
	}

	c := New(client, Options{Sources: []Source{SourcePosts}, Retry: fastRetry()}, logger.NewTestLogger())
	refs := collect(t, c, testCreator())

	require.Len(t, refs, 11)
	assert.Equal(t, int64(1000), refs[0].MediaID)
	assert.Equal(t, int64(2000), refs[10].MediaID)
	assert.Equal(t, int64(7), refs[0].CreatorID)
	assert.Equal(t, onlyfans.MediaKindPermanent, refs[0].Kind)

	// The short second page is the true end of the feed.
	assert.Equal(t, []int{0, 10}, client.postOffsets)
}

func TestDiscoverSkipsLockedMedia(t *testing.T) {
	post := onlyfans.Post{
		ID:       1,
		PostedAt: "2024-01-15T10:00:00+00:00",
		Media: []onlyfans.PostMedia{
			{ID: 10, Type: "photo", CanView: false, Source: onlyfans.MediaSource{Source: "https://cdn.example.com/10.jpg"}},
			{ID: 11, Type: "photo", CanView: true},
			{ID: 12, Type: "video", CanView: true, Source: onlyfans.MediaSource{Source: "https://cdn.example.com/12.mp4"}},
		},
	}
	client := &fakeFeedClient{posts: map[int][]onlyfans.Post{0: {post}}}

	c := New(client, Options{Sources: []Source{SourcePosts}, Retry: fastRetry()}, logger.NewTestLogger())
	refs := collect(t, c, testCreator())

	require.Len(t, refs, 1)
	assert.Equal(t, int64(12), refs[0].MediaID)
	assert.Equal(t, "mp4", refs[0].Ext())
}

func TestDiscoverFullPageOfLockedMediaContinues(t *testing.T) {
	// A full page whose items are all locked yields zero references but is
	// not the end of the feed and must not be mistaken for a bad fetch.
	locked := make([]onlyfans.Post, 0, onlyfans.DefaultPageLimit)
	for i := 0; i < onlyfans.DefaultPageLimit; i++ {
		locked = append(locked, onlyfans.Post{
			ID:       int64(100 + i),
			PostedAt: "2024-01-15T10:00:00+00:00",
			Media:    []onlyfans.PostMedia{{ID: int64(1000 + i), Type: "photo", CanView: false}},
		})
	}
	client := &fakeFeedClient{
		posts: map[int][]onlyfans.Post{
			0:  locked,
			10: {viewablePost(200, 2000)},
		},
	}

	c := New(client, Options{Sources: []Source{SourcePosts}, Retry: fastRetry()}, logger.NewTestLogger())
	refs := collect(t, c, testCreator())

	require.Len(t, refs, 1)
	assert.Equal(t, int64(2000), refs[0].MediaID)
	assert.Equal(t, []int{0, 10}, client.postOffsets)
}

func TestDiscoverDropsExpiredTemporaryItems(t *testing.T) {
	now := time.Now()
	expired := viewablePost(1, 10)
	expired.ExpiredAt = apiTimestamp(now.Add(-time.Hour))
	live := viewablePost(2, 20)
	live.ExpiredAt = apiTimestamp(now.Add(time.Hour))

	client := &fakeFeedClient{posts: map[int][]onlyfans.Post{0: {expired, live}}}

	c := New(client, Options{Sources: []Source{SourcePosts}, Retry: fastRetry()}, logger.NewTestLogger())
	refs := collect(t, c, testCreator())

	require.Len(t, refs, 1)
	assert.Equal(t, int64(20), refs[0].MediaID)
	assert.Equal(t, onlyfans.MediaKindTemporary, refs[0].Kind)
	require.NotNil(t, refs[0].Expiry)
}

func TestDiscoverSkipTemporaryOption(t *testing.T) {
	live := viewablePost(1, 10)
	live.ExpiredAt = apiTimestamp(time.Now().Add(time.Hour))
	permanent := viewablePost(2, 20)

	client := &fakeFeedClient{
		posts: map[int][]onlyfans.Post{0: {live, permanent}},
		stories: []onlyfans.Story{
			{
				ID:        3,
				CreatedAt: "2024-01-15T10:00:00+00:00",
				Media: []onlyfans.PostMedia{
					{ID: 30, Type: "photo", CanView: true, Source: onlyfans.MediaSource{Source: "https://cdn.example.com/30.jpg"}},
				},
			},
		},
	}

	c := New(client, Options{
		SkipTemporary: true,
		Sources:       []Source{SourcePosts, SourceStories},
		Retry:         fastRetry(),
	}, logger.NewTestLogger())
	refs := collect(t, c, testCreator())

	// Only the permanent post survives; the expiring post and the story
	// are both temporary.
	require.Len(t, refs, 1)
	assert.Equal(t, int64(20), refs[0].MediaID)
	assert.Equal(t, 1, client.storiesCalls)
}

func TestDiscoverEmitsStoriesWithoutExpiry(t *testing.T) {
	client := &fakeFeedClient{
		stories: []onlyfans.Story{
			{
				ID:        3,
				CreatedAt: "2024-01-15T10:00:00+00:00",
				Media: []onlyfans.PostMedia{
					{ID: 30, Type: "video", CanView: true, Source: onlyfans.MediaSource{Source: "https://cdn.example.com/30.mp4"}},
				},
			},
		},
	}

	c := New(client, Options{Sources: []Source{SourceStories}, Retry: fastRetry()}, logger.NewTestLogger())
	refs := collect(t, c, testCreator())

	require.Len(t, refs, 1)
	assert.Equal(t, onlyfans.MediaKindTemporary, refs[0].Kind)
	assert.Nil(t, refs[0].Expiry)
}

func TestDiscoverExpandsHighlights(t *testing.T) {
	client := &fakeFeedClient{
		categories: map[int][]onlyfans.HighlightCategory{
			0: {
				{ID: 11, Title: "travel"},
				{ID: 12, Title: "behind the scenes"},
			},
		},
		highlights: map[int64]*onlyfans.Highlight{
			11: {ID: 11, Stories: []onlyfans.Story{
				{
					ID:        40,
					CreatedAt: "2024-01-15T10:00:00+00:00",
					Media: []onlyfans.PostMedia{
						{ID: 400, Type: "photo", CanView: true, Source: onlyfans.MediaSource{Source: "https://cdn.example.com/400.jpg"}},
					},
				},
			}},
			12: {ID: 12, Stories: []onlyfans.Story{
				{
					ID:        41,
					CreatedAt: "2024-01-16T10:00:00+00:00",
					Media: []onlyfans.PostMedia{
						{ID: 410, Type: "video", CanView: true, Source: onlyfans.MediaSource{Source: "https://cdn.example.com/410.mp4"}},
					},
				},
			}},
		},
	}

	c := New(client, Options{Sources: []Source{SourceHighlights}, Retry: fastRetry()}, logger.NewTestLogger())
	refs := collect(t, c, testCreator())

	require.Len(t, refs, 2)
	assert.Equal(t, int64(400), refs[0].MediaID)
	assert.Equal(t, int64(410), refs[1].MediaID)
	assert.Equal(t, onlyfans.MediaKindPermanent, refs[0].Kind)
	assert.Nil(t, refs[0].Expiry)
}

func TestDiscoverFiltersOwnMessages(t *testing.T) {
	creator := testCreator()
	client := &fakeFeedClient{
		messages: map[int]*onlyfans.Messages{
			0: {
				List: []onlyfans.Message{
					{
						ID:        1,
						FromUser:  creator,
						CreatedAt: "2024-01-15T10:00:00+00:00",
						Media: []onlyfans.MessageMedia{
							{ID: 10, Type: "photo", CanView: true, Src: "https://cdn.example.com/10.jpg"},
						},
					},
					{
						ID:        2,
						FromUser:  onlyfans.Creator{ID: 99},
						CreatedAt: "2024-01-15T10:01:00+00:00",
						Media: []onlyfans.MessageMedia{
							{ID: 20, Type: "photo", CanView: true, Src: "https://cdn.example.com/20.jpg"},
						},
					},
				},
				HasMore: false,
			},
		},
	}

	c := New(client, Options{Sources: []Source{SourceMessages}, Retry: fastRetry()}, logger.NewTestLogger())
	refs := collect(t, c, creator)

	require.Len(t, refs, 1)
	assert.Equal(t, int64(10), refs[0].MediaID)
	assert.Equal(t, int64(1), refs[0].PostID)
}

func TestDiscoverStopsOnAuthError(t *testing.T) {
	client := &fakeFeedClient{
		posts: map[int][]onlyfans.Post{0: nil},
		postErrs: map[int]error{
			0: errs.New(errs.ErrorTypeAuth, 401, "session expired"),
		},
	}

	c := New(client, Options{Sources: []Source{SourcePosts}, Retry: fastRetry()}, logger.NewTestLogger())
	err := c.Discover(context.Background(), testCreator(), func(onlyfans.MediaReference) error {
		t.Fatal("no items should be emitted")
		return nil
	})

	require.Error(t, err)
	assert.Equal(t, errs.ErrorTypeAuth, errs.TypeOf(err))
	assert.Len(t, client.postOffsets, 1)
}

func TestDiscoverRetriesTransientPageErrors(t *testing.T) {
	client := &fakeFeedClient{
		posts: map[int][]onlyfans.Post{0: {viewablePost(1, 10)}},
	}

	cfg := fastRetry()
	cfg.MaxAttempts = 3

	c := New(&flakyFeedClient{fakeFeedClient: client, failures: 2}, Options{Sources: []Source{SourcePosts}, Retry: cfg}, logger.NewTestLogger())
	refs := collect(t, c, testCreator())

	require.Len(t, refs, 1)
	assert.Equal(t, int64(10), refs[0].MediaID)
}

// flakyFeedClient fails the first n post-page fetches, then delegates.
type flakyFeedClient struct {
	*fakeFeedClient
	failures int
}

func (f *flakyFeedClient) FetchPostsPage(ctx context.Context, userID int64, offset int) ([]onlyfans.Post, error) {
	if f.failures > 0 {
		f.failures--
		return nil, errs.New(errs.ErrorTypeNetwork, 0, "connection reset")
	}
	return f.fakeFeedClient.posts[offset], nil
}

func TestDiscoverRestrictsSources(t *testing.T) {
	client := &fakeFeedClient{
		posts:   map[int][]onlyfans.Post{0: {viewablePost(1, 10)}},
		stories: []onlyfans.Story{},
	}

	c := New(client, Options{Sources: []Source{SourceStories}, Retry: fastRetry()}, logger.NewTestLogger())
	refs := collect(t, c, testCreator())

	assert.Empty(t, refs)
	assert.Empty(t, client.postOffsets)
	assert.Equal(t, 1, client.storiesCalls)
}

func TestDiscoverHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := &fakeFeedClient{posts: map[int][]onlyfans.Post{0: {viewablePost(1, 10)}}}
	c := New(client, Options{Sources: []Source{SourcePosts}, Retry: fastRetry()}, logger.NewTestLogger())

	err := c.Discover(ctx, testCreator(), func(onlyfans.MediaReference) error { return nil })
	require.ErrorIs(t, err, context.Canceled)
}
