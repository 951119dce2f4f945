// Package crawler walks a creator's feeds and yields media references for
// the download pipeline. Discovery is lazy: items are emitted page by page
// as the feeds are walked, so downloading can start before discovery ends.
package crawler

import (
	"context"
	"fmt"
	"time"

	"ofscraper/pkg/logger"
	"ofscraper/pkg/onlyfans"
	"ofscraper/pkg/pagination"
	"ofscraper/pkg/retry"
)

// Source names one feed a creator's media can come from.
type Source string

const (
	SourcePosts      Source = "posts"
	SourceArchived   Source = "archived"
	SourceMessages   Source = "messages"
	SourceStories    Source = "stories"
	SourceHighlights Source = "highlights"
)

// DefaultSources is the full set of feeds walked per creator.
var DefaultSources = []Source{SourcePosts, SourceArchived, SourceMessages, SourceStories, SourceHighlights}

// FeedClient is the slice of the platform client discovery needs.
type FeedClient interface {
	FetchPostsPage(ctx context.Context, userID int64, offset int) ([]onlyfans.Post, error)
	FetchArchivedPostsPage(ctx context.Context, userID int64, offset int) ([]onlyfans.Post, error)
	FetchMessagesPage(ctx context.Context, userID int64, offset int) (*onlyfans.Messages, error)
	FetchStories(ctx context.Context, userID int64) ([]onlyfans.Story, error)
	FetchHighlightCategoriesPage(ctx context.Context, userID int64, offset int) ([]onlyfans.HighlightCategory, error)
	FetchHighlight(ctx context.Context, highlightID int64) (*onlyfans.Highlight, error)
}

// EmitFunc receives each discovered media reference in feed order. Returning
// an error stops the walk and propagates out of Discover.
type EmitFunc func(ref onlyfans.MediaReference) error

// Options configures a Crawler.
type Options struct {
	// SkipTemporary drops every item with an expiry, obtainable or not.
	SkipTemporary bool
	// Sources restricts which feeds are walked. Empty means all.
	Sources []Source
	// Retry governs transient page-fetch failures. Nil uses defaults.
	Retry *retry.Config
}

// Crawler turns one creator into a sequence of media references.
type Crawler struct {
	client FeedClient
	opts   Options
	logger logger.Logger
	now    func() time.Time
}

// New creates a Crawler
func New(client FeedClient, opts Options, log logger.Logger) *Crawler {
	if log == nil {
		log = logger.GetLogger()
	}
	if len(opts.Sources) == 0 {
		opts.Sources = DefaultSources
	}
	return &Crawler{
		client: client,
		opts:   opts,
		logger: log,
		now:    time.Now,
	}
}

// Discover walks the configured feeds of one creator, emitting media
// references in page order. Temporary items already past their expiry are
// dropped unconditionally. A fatal error (expired credentials) propagates
// immediately; transient page errors are retried under the shared policy.
func (c *Crawler) Discover(ctx context.Context, creator onlyfans.Creator, emit EmitFunc) error {
	filtered := func(ref onlyfans.MediaReference) error {
		if ref.Kind == onlyfans.MediaKindTemporary {
			if ref.Expired(c.now()) {
				c.logger.DebugWithFields("dropping expired temporary item", map[string]interface{}{
					"creator":  creator.Handle,
					"media_id": ref.MediaID,
				})
				return nil
			}
			if c.opts.SkipTemporary {
				return nil
			}
		}
		return emit(ref)
	}

	for _, source := range c.opts.Sources {
		if err := ctx.Err(); err != nil {
			return err
		}
		c.logger.DebugWithFields("walking feed", map[string]interface{}{
			"creator": creator.Handle,
			"source":  string(source),
		})
		if err := c.discoverSource(ctx, creator, source, filtered); err != nil {
			return fmt.Errorf("discovery of %s feed for %s failed: %w", source, creator.Handle, err)
		}
	}

	return nil
}

func (c *Crawler) discoverSource(ctx context.Context, creator onlyfans.Creator, source Source, emit EmitFunc) error {
	switch source {
	case SourcePosts:
		pager := c.postPager(creator, c.client.FetchPostsPage)
		_, err := pagination.Walk(ctx, pager, pagination.Cursor{}, c.opts.Retry, emit)
		return err
	case SourceArchived:
		pager := c.postPager(creator, c.client.FetchArchivedPostsPage)
		_, err := pagination.Walk(ctx, pager, pagination.Cursor{}, c.opts.Retry, emit)
		return err
	case SourceMessages:
		_, err := pagination.Walk(ctx, c.messagePager(creator), pagination.Cursor{}, c.opts.Retry, emit)
		return err
	case SourceStories:
		_, err := pagination.Walk(ctx, c.storyPager(creator), pagination.Cursor{}, c.opts.Retry, emit)
		return err
	case SourceHighlights:
		_, err := pagination.Walk(ctx, c.highlightPager(creator), pagination.Cursor{}, c.opts.Retry, emit)
		return err
	default:
		return fmt.Errorf("unknown feed source %q", source)
	}
}

// postPager adapts an offset-paged post feed. A full page means more data
// may follow; a short page is the true end, so no empty terminal call is
// issued for feeds that do not fall on a page boundary.
func (c *Crawler) postPager(creator onlyfans.Creator, fetch func(context.Context, int64, int) ([]onlyfans.Post, error)) pagination.Pager[onlyfans.MediaReference] {
	return pagination.PagerFunc[onlyfans.MediaReference](func(ctx context.Context, cur pagination.Cursor) (pagination.Page[onlyfans.MediaReference], error) {
		posts, err := fetch(ctx, creator.ID, cur.Offset)
		if err != nil {
			return pagination.Page[onlyfans.MediaReference]{}, err
		}

		var refs []onlyfans.MediaReference
		for _, post := range posts {
			refs = append(refs, normalizePost(creator.ID, post)...)
		}

		return pagination.Page[onlyfans.MediaReference]{
			Items:   refs,
			Next:    pagination.Cursor{Offset: cur.Offset + len(posts)},
			HasMore: len(posts) == onlyfans.DefaultPageLimit,
			Fetched: len(posts),
		}, nil
	})
}

func (c *Crawler) messagePager(creator onlyfans.Creator) pagination.Pager[onlyfans.MediaReference] {
	return pagination.PagerFunc[onlyfans.MediaReference](func(ctx context.Context, cur pagination.Cursor) (pagination.Page[onlyfans.MediaReference], error) {
		msgs, err := c.client.FetchMessagesPage(ctx, creator.ID, cur.Offset)
		if err != nil {
			return pagination.Page[onlyfans.MediaReference]{}, err
		}

		var refs []onlyfans.MediaReference
		for _, msg := range msgs.List {
			// Only media sent by the creator, not our own side of the chat.
			if msg.FromUser.ID != creator.ID {
				continue
			}
			refs = append(refs, normalizeMessage(creator.ID, msg)...)
		}

		return pagination.Page[onlyfans.MediaReference]{
			Items:   refs,
			Next:    pagination.Cursor{Offset: cur.Offset + len(msgs.List)},
			HasMore: msgs.HasMore,
			Fetched: len(msgs.List),
		}, nil
	})
}

// highlightPager walks the creator's highlight categories page by page and
// expands each category into its pinned stories. The category endpoint has
// no hasMore flag; a short page is the end of the list.
func (c *Crawler) highlightPager(creator onlyfans.Creator) pagination.Pager[onlyfans.MediaReference] {
	return pagination.PagerFunc[onlyfans.MediaReference](func(ctx context.Context, cur pagination.Cursor) (pagination.Page[onlyfans.MediaReference], error) {
		categories, err := c.client.FetchHighlightCategoriesPage(ctx, creator.ID, cur.Offset)
		if err != nil {
			return pagination.Page[onlyfans.MediaReference]{}, err
		}

		var refs []onlyfans.MediaReference
		for _, category := range categories {
			highlight, err := c.client.FetchHighlight(ctx, category.ID)
			if err != nil {
				return pagination.Page[onlyfans.MediaReference]{}, err
			}
			refs = append(refs, normalizeHighlight(creator.ID, *highlight)...)
		}

		return pagination.Page[onlyfans.MediaReference]{
			Items:   refs,
			Next:    pagination.Cursor{Offset: cur.Offset + len(categories)},
			HasMore: len(categories) == onlyfans.HighlightPageLimit,
			Fetched: len(categories),
		}, nil
	})
}

// storyPager wraps the unpaginated stories endpoint as a single-page feed.
func (c *Crawler) storyPager(creator onlyfans.Creator) pagination.Pager[onlyfans.MediaReference] {
	return pagination.PagerFunc[onlyfans.MediaReference](func(ctx context.Context, cur pagination.Cursor) (pagination.Page[onlyfans.MediaReference], error) {
		stories, err := c.client.FetchStories(ctx, creator.ID)
		if err != nil {
			return pagination.Page[onlyfans.MediaReference]{}, err
		}

		var refs []onlyfans.MediaReference
		for _, story := range stories {
			refs = append(refs, normalizeStory(creator.ID, story)...)
		}

		return pagination.Page[onlyfans.MediaReference]{
			Items:   refs,
			HasMore: false,
			Fetched: len(stories),
		}, nil
	})
}
