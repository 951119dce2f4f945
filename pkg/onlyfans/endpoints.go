package onlyfans

import "fmt"

const (
	// BaseURL is the default base URL for the platform API
	BaseURL = "https://onlyfans.com"

	// DefaultPageLimit is the page size the feed endpoints accept
	DefaultPageLimit = 10

	// HighlightPageLimit is the page size the highlight category endpoint accepts
	HighlightPageLimit = 5
)

// Endpoint builders return paths relative to the client's base URL so tests
// can point the client at a local server.

// SubscriptionsPath is the path for enumerating active subscriptions
func SubscriptionsPath(offset int) string {
	return fmt.Sprintf("/api2/v2/subscriptions/subscribes?limit=%d&offset=%d&type=active&sort=desc",
		DefaultPageLimit, offset)
}

// UserPath is the path for fetching one user's details by id or handle
func UserPath(user string) string {
	return fmt.Sprintf("/api2/v2/users/%s", user)
}

// PostsPath is the path for a page of a creator's posts
func PostsPath(userID int64, offset int) string {
	return fmt.Sprintf("/api2/v2/users/%d/posts?limit=%d&offset=%d&order=publish_date_desc",
		userID, DefaultPageLimit, offset)
}

// ArchivedPostsPath is the path for a page of archived posts
func ArchivedPostsPath(userID int64, offset int) string {
	return fmt.Sprintf("/api2/v2/users/%d/posts/archived?limit=%d&offset=%d&order=publish_date_desc",
		userID, DefaultPageLimit, offset)
}

// MessagesPath is the path for a page of chat messages
func MessagesPath(userID int64, offset int) string {
	return fmt.Sprintf("/api2/v2/chats/%d/messages?limit=%d&offset=%d&order=desc",
		userID, DefaultPageLimit, offset)
}

// StoriesPath is the path for a creator's current stories
func StoriesPath(userID int64) string {
	return fmt.Sprintf("/api2/v2/users/%d/stories", userID)
}

// HighlightCategoriesPath is the path for a page of a creator's highlight
// categories
func HighlightCategoriesPath(userID int64, offset int) string {
	return fmt.Sprintf("/api2/v2/users/%d/stories/highlights?limit=%d&offset=%d",
		userID, HighlightPageLimit, offset)
}

// HighlightPath is the path for one highlight with its pinned stories
func HighlightPath(highlightID int64) string {
	return fmt.Sprintf("/api2/v2/stories/highlights/%d", highlightID)
}

// ChatsPath is the path for a page of active chats
func ChatsPath(offset int) string {
	return fmt.Sprintf("/api2/v2/chats?offset=%d", offset)
}
