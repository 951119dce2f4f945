package crawler

import (
	"time"

	"ofscraper/pkg/onlyfans"
)

// normalizePost flat-maps one post into media references, dropping items
// the session cannot view.
func normalizePost(creatorID int64, post onlyfans.Post) []onlyfans.MediaReference {
	var refs []onlyfans.MediaReference

	createdAt, _ := onlyfans.ParseAPITime(post.PostedAt)

	kind := onlyfans.MediaKindPermanent
	var expiry *time.Time
	if post.ExpiredAt != "" {
		kind = onlyfans.MediaKindTemporary
		if t, err := onlyfans.ParseAPITime(post.ExpiredAt); err == nil {
			expiry = &t
		}
	}

	for _, media := range post.Media {
		if !media.CanView || media.Source.Source == "" {
			continue
		}
		refs = append(refs, onlyfans.MediaReference{
			CreatorID: creatorID,
			PostID:    post.ID,
			MediaID:   media.ID,
			URL:       media.Source.Source,
			FileType:  media.Type,
			Kind:      kind,
			Expiry:    expiry,
			CreatedAt: createdAt,
		})
	}

	return refs
}

func normalizeMessage(creatorID int64, msg onlyfans.Message) []onlyfans.MediaReference {
	var refs []onlyfans.MediaReference

	createdAt, _ := onlyfans.ParseAPITime(msg.CreatedAt)

	for _, media := range msg.Media {
		if !media.CanView || media.Src == "" {
			continue
		}
		refs = append(refs, onlyfans.MediaReference{
			CreatorID: creatorID,
			PostID:    msg.ID,
			MediaID:   media.ID,
			URL:       media.Src,
			FileType:  media.Type,
			Kind:      onlyfans.MediaKindPermanent,
			CreatedAt: createdAt,
		})
	}

	return refs
}

// normalizeHighlight flat-maps a highlight's pinned stories. Pinned stories
// stay on the profile, so their media is permanent rather than expiring.
func normalizeHighlight(creatorID int64, highlight onlyfans.Highlight) []onlyfans.MediaReference {
	var refs []onlyfans.MediaReference

	for _, story := range highlight.Stories {
		createdAt, _ := onlyfans.ParseAPITime(story.CreatedAt)
		for _, media := range story.Media {
			if !media.CanView || media.Source.Source == "" {
				continue
			}
			refs = append(refs, onlyfans.MediaReference{
				CreatorID: creatorID,
				PostID:    story.ID,
				MediaID:   media.ID,
				URL:       media.Source.Source,
				FileType:  media.Type,
				Kind:      onlyfans.MediaKindPermanent,
				CreatedAt: createdAt,
			})
		}
	}

	return refs
}

// normalizeStory marks every story item temporary; stories expire by
// definition even when the API omits the timestamp.
func normalizeStory(creatorID int64, story onlyfans.Story) []onlyfans.MediaReference {
	var refs []onlyfans.MediaReference

	createdAt, _ := onlyfans.ParseAPITime(story.CreatedAt)

	var expiry *time.Time
	if story.ExpiredAt != "" {
		if t, err := onlyfans.ParseAPITime(story.ExpiredAt); err == nil {
			expiry = &t
		}
	}

	for _, media := range story.Media {
		if !media.CanView || media.Source.Source == "" {
			continue
		}
		refs = append(refs, onlyfans.MediaReference{
			CreatorID: creatorID,
			PostID:    story.ID,
			MediaID:   media.ID,
			URL:       media.Source.Source,
			FileType:  media.Type,
			Kind:      onlyfans.MediaKindTemporary,
			Expiry:    expiry,
			CreatedAt: createdAt,
		})
	}

	return refs
}
