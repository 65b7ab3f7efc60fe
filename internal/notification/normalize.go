package notification

import (
	"context"
	"time"

	"github.com/lumenlauncher/lumen/internal/mediaquery"
)

// mediaQueryTimeout bounds the playback-state lookup so a hung media
// backend degrades to "not playing" instead of stalling event handling.
const mediaQueryTimeout = 500 * time.Millisecond

// fallbackConversationID is used when a payload carries neither a
// conversation title nor a title.
const fallbackConversationID = "default"

// Normalizer reduces raw OS payloads into the engine's two projections.
type Normalizer struct {
	media mediaquery.Querier
}

// NewNormalizer creates a normalizer using media to resolve playback state.
// A nil media querier treats every media notification as not playing.
func NewNormalizer(media mediaquery.Querier) *Normalizer {
	return &Normalizer{media: media}
}

// Summarize builds the badge projection for one application from its
// currently active notifications. A nil result means "no badge": either the
// application has no active notifications, or its representative is a media
// notification that could not be confirmed playing.
func (n *Normalizer) Summarize(active []Payload) *BadgeSummary {
	if len(active) == 0 {
		return nil
	}

	rep := active[0]
	for _, p := range active[1:] {
		if p.PostTime > rep.PostTime {
			rep = p
		}
	}

	if rep.Category == CategoryTransport && n.playbackStatus(rep) != mediaquery.StatusPlaying {
		// Media notifications are only surfaced while confirmed playing.
		return nil
	}

	return &BadgeSummary{
		Count:    len(active),
		Title:    rep.Title,
		Text:     bodyText(rep),
		Category: rep.Category,
	}
}

func (n *Normalizer) playbackStatus(p Payload) mediaquery.Status {
	if n.media == nil || p.MediaToken == "" {
		return mediaquery.StatusUnknown
	}

	ctx, cancel := context.WithTimeout(context.Background(), mediaQueryTimeout)
	defer cancel()

	status, err := n.media.PlaybackStatus(ctx, p.MediaToken)
	if err != nil {
		return mediaquery.StatusUnknown
	}
	return status
}

// Conversation builds the conversation projection for a posted payload.
// Fields are stored verbatim and untruncated; the dedicated conversation
// view renders the full message.
func Conversation(p Payload) ConversationRecord {
	id := p.ConversationTitle
	if id == "" {
		id = p.Title
	}
	if id == "" {
		id = fallbackConversationID
	}

	return ConversationRecord{
		ConversationID:    id,
		ConversationTitle: p.ConversationTitle,
		Sender:            p.Title,
		Message:           bodyText(p),
		Timestamp:         p.PostTime,
		Category:          p.Category,
	}
}

// bodyText extracts display text from a payload, preferring the long-form
// body, then the short body, then the last line of the multi-line body.
func bodyText(p Payload) string {
	if p.BigText != "" {
		return p.BigText
	}
	if p.Text != "" {
		return p.Text
	}
	if len(p.TextLines) > 0 {
		return p.TextLines[len(p.TextLines)-1]
	}
	return ""
}
