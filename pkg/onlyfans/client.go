package onlyfans

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"ofscraper/pkg/errors"
	"ofscraper/pkg/logger"
)

// ClientConfig holds the session identity and transport settings.
type ClientConfig struct {
	Cookie    string
	UserAgent string
	XBC       string
	Proxy     string
	Timeout   time.Duration
	Rules     *HeaderRules
}

// Client is an authenticated platform API client. It attaches the required
// identity headers and per-request signature to every call.
type Client struct {
	httpClient *http.Client
	baseURL    string
	cfg        ClientConfig
	logger     logger.Logger
	now        func() time.Time
}

// NewClient creates a new platform API client
func NewClient(cfg ClientConfig, log logger.Logger) (*Client, error) {
	if log == nil {
		log = logger.GetLogger()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.Proxy != "" {
		proxyURL, err := url.Parse(cfg.Proxy)
		if err != nil {
			return nil, errors.New(errors.ErrorTypeConfig, 0, "invalid proxy url: %v", err)
		}
		transport.Proxy = http.ProxyURL(proxyURL)
	}

	return &Client{
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
		baseURL: BaseURL,
		cfg:     cfg,
		logger:  log,
		now:     time.Now,
	}, nil
}

// SetBaseURL overrides the API base URL. Used by tests.
func (c *Client) SetBaseURL(base string) {
	c.baseURL = base
}

// signedHeaders builds the header set for one API request.
func (c *Client) signedHeaders(fullURL string) (http.Header, error) {
	h := http.Header{}
	h.Set("Accept", "application/json, text/plain, */*")
	if c.cfg.Cookie != "" {
		h.Set("Cookie", c.cfg.Cookie)
	}
	if c.cfg.UserAgent != "" {
		h.Set("User-Agent", c.cfg.UserAgent)
	}
	if c.cfg.XBC != "" {
		h.Set("x-bc", c.cfg.XBC)
	}

	if c.cfg.Rules != nil {
		timeHeader, signHeader, err := c.cfg.Rules.Sign(fullURL, c.now())
		if err != nil {
			return nil, errors.New(errors.ErrorTypeUnknown, 0, "failed to sign request: %v", err)
		}
		h.Set("app-token", c.cfg.Rules.AppToken)
		h.Set("time", timeHeader)
		h.Set("sign", signHeader)
	}

	return h, nil
}

// get performs a signed GET against an API path and maps the status code to
// a typed error.
func (c *Client) get(ctx context.Context, path string) (*http.Response, error) {
	fullURL := c.baseURL + path

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, errors.New(errors.ErrorTypeUnknown, 0, "failed to create request: %v", err)
	}

	headers, err := c.signedHeaders(fullURL)
	if err != nil {
		return nil, err
	}
	req.Header = headers

	start := c.now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"url":      fullURL,
			"error":    err.Error(),
			"duration": duration,
		})
		return nil, errors.New(errors.ErrorTypeNetwork, 0, "network error: %v", err)
	}

	c.logger.DebugWithFields("HTTP request completed", map[string]interface{}{
		"url":      fullURL,
		"status":   resp.StatusCode,
		"duration": duration,
	})

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, errors.FromStatusCode(resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	return resp, nil
}

// getJSON performs a signed GET and decodes the JSON response
func (c *Client) getJSON(ctx context.Context, path string, target interface{}) error {
	resp, err := c.get(ctx, path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.New(errors.ErrorTypeNetwork, resp.StatusCode, "failed to read response body: %v", err)
	}

	if err := json.Unmarshal(body, target); err != nil {
		bodyPreview := string(body)
		if len(bodyPreview) > 200 {
			bodyPreview = bodyPreview[:200] + "..."
		}
		c.logger.ErrorWithFields("failed to parse JSON response", map[string]interface{}{
			"url":          path,
			"body_preview": bodyPreview,
		})
		return errors.New(errors.ErrorTypeParsing, resp.StatusCode, "failed to parse JSON: %v", err)
	}

	return nil
}

// FetchSubscriptionsPage returns one page of active subscriptions. An empty
// page means the listing is exhausted.
func (c *Client) FetchSubscriptionsPage(ctx context.Context, offset int) ([]Creator, error) {
	var users Subscriptions
	if err := c.getJSON(ctx, SubscriptionsPath(offset), &users); err != nil {
		return nil, fmt.Errorf("failed to fetch subscriptions at offset %d: %w", offset, err)
	}
	return users, nil
}

// FetchSubscriptions walks the subscription listing to the end.
func (c *Client) FetchSubscriptions(ctx context.Context) ([]Creator, error) {
	var all []Creator
	offset := 0
	for {
		page, err := c.FetchSubscriptionsPage(ctx, offset)
		if err != nil {
			return nil, err
		}
		if len(page) == 0 {
			return all, nil
		}
		all = append(all, page...)
		offset += len(page)
	}
}

// FetchUser fetches one user's details by id or handle.
func (c *Client) FetchUser(ctx context.Context, user string) (*Creator, error) {
	var creator Creator
	if err := c.getJSON(ctx, UserPath(user), &creator); err != nil {
		return nil, fmt.Errorf("failed to fetch user %s: %w", user, err)
	}
	return &creator, nil
}

// FetchPostsPage returns one page of a creator's posts.
func (c *Client) FetchPostsPage(ctx context.Context, userID int64, offset int) ([]Post, error) {
	var posts []Post
	if err := c.getJSON(ctx, PostsPath(userID, offset), &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// FetchArchivedPostsPage returns one page of a creator's archived posts.
func (c *Client) FetchArchivedPostsPage(ctx context.Context, userID int64, offset int) ([]Post, error) {
	var posts []Post
	if err := c.getJSON(ctx, ArchivedPostsPath(userID, offset), &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// FetchMessagesPage returns one page of chat messages from a creator.
func (c *Client) FetchMessagesPage(ctx context.Context, userID int64, offset int) (*Messages, error) {
	var msgs Messages
	if err := c.getJSON(ctx, MessagesPath(userID, offset), &msgs); err != nil {
		return nil, err
	}
	return &msgs, nil
}

// FetchStories returns a creator's current stories. The endpoint is not
// paginated.
func (c *Client) FetchStories(ctx context.Context, userID int64) ([]Story, error) {
	var stories []Story
	if err := c.getJSON(ctx, StoriesPath(userID), &stories); err != nil {
		return nil, err
	}
	return stories, nil
}

// FetchHighlightCategoriesPage returns one page of a creator's highlight
// categories. An empty page means the end of the list.
func (c *Client) FetchHighlightCategoriesPage(ctx context.Context, userID int64, offset int) ([]HighlightCategory, error) {
	var categories []HighlightCategory
	if err := c.getJSON(ctx, HighlightCategoriesPath(userID, offset), &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

// FetchHighlight returns one highlight category expanded with its stories.
func (c *Client) FetchHighlight(ctx context.Context, highlightID int64) (*Highlight, error) {
	var highlight Highlight
	if err := c.getJSON(ctx, HighlightPath(highlightID), &highlight); err != nil {
		return nil, err
	}
	return &highlight, nil
}

// FetchChatsPage returns one page of active chats.
func (c *Client) FetchChatsPage(ctx context.Context, offset int) (*Chats, error) {
	var chats Chats
	if err := c.getJSON(ctx, ChatsPath(offset), &chats); err != nil {
		return nil, err
	}
	return &chats, nil
}

// Download issues a GET against a media CDN URL and returns the open
// response for streaming. CDN URLs are pre-signed, so only the session
// identity headers are attached. The caller owns the body.
func (c *Client) Download(ctx context.Context, mediaURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, mediaURL, nil)
	if err != nil {
		return nil, errors.New(errors.ErrorTypeUnknown, 0, "failed to create request: %v", err)
	}
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}
	if c.cfg.Cookie != "" {
		req.Header.Set("Cookie", c.cfg.Cookie)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errors.New(errors.ErrorTypeNetwork, 0, "network error: %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, errors.FromStatusCode(resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	return resp, nil
}

// ContentLength parses the Content-Length header of a download response.
// Returns -1 when the header is absent.
func ContentLength(resp *http.Response) int64 {
	v := resp.Header.Get("Content-Length")
	if v == "" {
		return -1
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return -1
	}
	return n
}
