package scraper

import (
	"context"
	"net/http"

	"ofscraper/pkg/onlyfans"
)

// PlatformClient is everything the run needs from the API client: the feed
// endpoints for discovery and the raw media GET for downloading.
type PlatformClient interface {
	FetchPostsPage(ctx context.Context, userID int64, offset int) ([]onlyfans.Post, error)
	FetchArchivedPostsPage(ctx context.Context, userID int64, offset int) ([]onlyfans.Post, error)
	FetchMessagesPage(ctx context.Context, userID int64, offset int) (*onlyfans.Messages, error)
	FetchStories(ctx context.Context, userID int64) ([]onlyfans.Story, error)
	FetchHighlightCategoriesPage(ctx context.Context, userID int64, offset int) ([]onlyfans.HighlightCategory, error)
	FetchHighlight(ctx context.Context, highlightID int64) (*onlyfans.Highlight, error)
	Download(ctx context.Context, url string) (*http.Response, error)
}
