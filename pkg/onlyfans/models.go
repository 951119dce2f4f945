package onlyfans

import "time"

// MediaKind distinguishes content that stays available from content that
// expires (stories, expiring posts).
type MediaKind string

const (
	MediaKindPermanent MediaKind = "permanent"
	MediaKindTemporary MediaKind = "temporary"
)

// Creator identifies a scrape target. Immutable once discovered.
type Creator struct {
	ID     int64  `json:"id"`
	Handle string `json:"username"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

// MediaReference is one discovered, not-yet-fetched media item. Uniquely
// identified by (CreatorID, MediaID).
type MediaReference struct {
	CreatorID int64
	PostID    int64
	MediaID   int64
	URL       string
	FileType  string // photo, video, audio, gif
	Kind      MediaKind
	Expiry    *time.Time // set only for temporary items
	CreatedAt time.Time
}

// Expired reports whether a temporary item can no longer be fetched.
func (m MediaReference) Expired(now time.Time) bool {
	return m.Kind == MediaKindTemporary && m.Expiry != nil && m.Expiry.Before(now)
}

// Ext returns the file extension for the media file type.
func (m MediaReference) Ext() string {
	switch m.FileType {
	case "photo":
		return "jpg"
	case "video", "gif":
		return "mp4"
	case "audio":
		return "mp3"
	default:
		return "bin"
	}
}

// MediaSource holds the signed CDN location of one media variant.
type MediaSource struct {
	Source   string `json:"source"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Duration int    `json:"duration"`
}

// PostMedia is a single media item embedded in a post.
type PostMedia struct {
	ID      int64       `json:"id"`
	Type    string      `json:"type"`
	CanView bool        `json:"canView"`
	Source  MediaSource `json:"source"`
}

// Post is one feed entry. A post may embed multiple media items. Reported
// posts come back with most fields stripped, so everything past the id is
// optional.
type Post struct {
	ID        int64       `json:"id"`
	PostedAt  string      `json:"postedAt"`
	ExpiredAt string      `json:"expiredAt,omitempty"`
	Author    *Creator    `json:"author,omitempty"`
	RawText   string      `json:"rawText,omitempty"`
	Media     []PostMedia `json:"media,omitempty"`
}

// MessageMedia is a media item attached to a direct message.
type MessageMedia struct {
	ID       int64  `json:"id"`
	Type     string `json:"type"`
	CanView  bool   `json:"canView"`
	Src      string `json:"src"`
	Duration int    `json:"duration"`
}

// Message is one chat message from a creator.
type Message struct {
	ID        int64          `json:"id"`
	Text      string         `json:"text"`
	Media     []MessageMedia `json:"media"`
	FromUser  Creator        `json:"fromUser"`
	CreatedAt string         `json:"createdAt"`
}

// Messages is the chat messages API response.
type Messages struct {
	List    []Message `json:"list"`
	HasMore bool      `json:"hasMore"`
}

// Story is one expiring item. Story media always carries an expiry.
type Story struct {
	ID        int64       `json:"id"`
	UserID    int64       `json:"userId"`
	CreatedAt string      `json:"createdAt"`
	ExpiredAt string      `json:"expiredAt,omitempty"`
	Media     []PostMedia `json:"media"`
}

// HighlightCategory is one named group of pinned stories on a profile.
type HighlightCategory struct {
	ID        int64  `json:"id"`
	UserID    int64  `json:"userId"`
	Title     string `json:"title"`
	Cover     string `json:"cover"`
	CreatedAt string `json:"createdAt"`
}

// Highlight is a category expanded with its pinned stories.
type Highlight struct {
	ID        int64   `json:"id"`
	UserID    int64   `json:"userId"`
	Title     string  `json:"title"`
	Cover     string  `json:"cover"`
	CreatedAt string  `json:"createdAt"`
	Stories   []Story `json:"stories"`
}

// Subscriptions is the subscriptions API response: a bare list of users.
type Subscriptions []Creator

// Chats is the chats API response.
type Chats struct {
	List []struct {
		WithUser Creator `json:"withUser"`
	} `json:"list"`
	HasMore    bool `json:"hasMore"`
	NextOffset int  `json:"nextOffset"`
}

// apiTime is the timestamp layout the platform uses.
const apiTime = "2006-01-02T15:04:05-07:00"

// ParseAPITime parses the platform's timestamp format.
func ParseAPITime(s string) (time.Time, error) {
	return time.Parse(apiTime, s)
}
