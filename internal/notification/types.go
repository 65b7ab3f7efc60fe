// Package notification holds the engine's data model and the event
// normalizer that reduces raw OS notification payloads into it.
package notification

// CategoryTransport is the category tag the OS attaches to media/transport
// notifications (playback controls, cast sessions).
const CategoryTransport = "transport"

// Payload is a raw OS notification as delivered by the notification source.
// Every field is optional; absent fields are zero values, never errors.
type Payload struct {
	Title             string
	BigText           string   // long-form body
	Text              string   // short body
	TextLines         []string // multi-line (inbox style) body
	ConversationTitle string
	Category          string
	MediaToken        string // opaque media-session handle (MPRIS bus name on desktop)
	PostTime          int64  // unix milliseconds
}

// BadgeSummary is the compact per-application projection shown on the home
// screen. Title and Text are stored raw and untruncated; display toggles and
// length limits are applied by the composer at render time.
type BadgeSummary struct {
	Count    int
	Title    string
	Text     string
	Category string
}

// IsMedia reports whether the summary describes a media/transport
// notification.
func (s BadgeSummary) IsMedia() bool {
	return s.Category == CategoryTransport
}

// ConversationRecord is one entry of the per-conversation feed. Records are
// keyed by (application ID, ConversationID); the latest record for a key
// wins.
type ConversationRecord struct {
	ConversationID    string
	ConversationTitle string
	Sender            string
	Message           string
	Timestamp         int64 // unix milliseconds, used for recency ordering
	Category          string
}
