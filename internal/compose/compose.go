// Package compose renders home-screen badge text. It is pure formatting:
// every display toggle and length limit is applied here, at render time, so
// preference changes take effect on the next draw without re-ingesting
// notifications.
package compose

import (
	"strings"

	"github.com/lumenlauncher/lumen/internal/notification"
)

// Toggles are the per-field display switches, read from preferences.
type Toggles struct {
	NotificationBadge bool
	MediaIndicator    bool
	MediaName         bool
	SenderName        bool
	GroupName         bool
	Message           bool
}

const (
	// mediaGlyph marks a playing-media badge. It is meant to appear raised
	// next to the app name; Unicode has no superscript form of U+266A, so
	// the renderer applies the superscript styling.
	mediaGlyph  = "♪"
	bulletGlyph = "•"
)

// whatsappID is special-cased in title parsing: WhatsApp uses a bare sender
// name as the title for direct messages, where other messengers use the
// group name.
const whatsappID = "com.whatsapp"

// noiseStrings are connection-keepalive messages that never warrant a
// badge. Matched case-insensitively against the summary title and text.
var noiseStrings = []string{
	"background connection enabled",
	"checking for new messages",
	"running in the background",
	"waiting for network",
}

// BadgeText renders the display string for one home-screen slot: the app
// name, an optional leading glyph, and an optional secondary line truncated
// to limit characters.
func BadgeText(appID, name string, summary *notification.BadgeSummary, toggles Toggles, limit int) string {
	if summary == nil || !toggles.NotificationBadge || isNoise(*summary) {
		return name
	}

	isMedia := summary.IsMedia()
	mediaPlaying := isMedia && (notBlank(summary.Title) || notBlank(summary.Text))

	var b strings.Builder
	switch {
	case isMedia && mediaPlaying && toggles.MediaIndicator:
		b.WriteString(mediaGlyph)
	case !isMedia && summary.Count > 0:
		b.WriteString(bulletGlyph)
	}
	b.WriteString(name)

	var secondary string
	switch {
	case isMedia && mediaPlaying && toggles.MediaName:
		secondary = mediaName(summary.Title, limit)
	case !isMedia && (toggles.SenderName || toggles.GroupName || toggles.Message) &&
		(notBlank(summary.Title) || notBlank(summary.Text)):
		secondary = messageLine(appID, *summary, toggles, limit)
	}
	if secondary != "" {
		b.WriteString("\n")
		b.WriteString(secondary)
	}

	return b.String()
}

func isNoise(s notification.BadgeSummary) bool {
	for _, noise := range noiseStrings {
		if strings.EqualFold(strings.TrimSpace(s.Title), noise) ||
			strings.EqualFold(strings.TrimSpace(s.Text), noise) {
			return true
		}
	}
	return false
}

// mediaName extracts the track name from a media notification title: the
// segment before the first " - ", ":" or "|" separator.
func mediaName(title string, limit int) string {
	segment := title
	for _, sep := range []string{" - ", ":", "|"} {
		if i := strings.Index(segment, sep); i >= 0 {
			segment = segment[:i]
		}
	}
	segment = strings.TrimSpace(segment)
	if strings.EqualFold(segment, "transport") {
		return ""
	}
	return truncate(segment, limit)
}

// messageLine composes "[sender][: group][: message]" from the toggle-gated
// parts, skipping empty parts and their separators.
func messageLine(appID string, s notification.BadgeSummary, toggles Toggles, limit int) string {
	sender, group := splitTitle(appID, s.Title)
	if group == sender {
		group = ""
	}

	var parts []string
	if toggles.SenderName && sender != "" {
		parts = append(parts, sender)
	}
	if toggles.GroupName && group != "" {
		parts = append(parts, group)
	}
	if toggles.Message && notBlank(s.Text) {
		parts = append(parts, s.Text)
	}
	return truncate(strings.Join(parts, ": "), limit)
}

// splitTitle parses a messaging title of the form "sender: group". A title
// without a separator is a group name, except for WhatsApp where it is the
// sender.
func splitTitle(appID, title string) (sender, group string) {
	if i := strings.Index(title, ": "); i >= 0 {
		return strings.TrimSpace(title[:i]), strings.TrimSpace(title[i+2:])
	}
	if appID == whatsappID {
		return strings.TrimSpace(title), ""
	}
	return "", strings.TrimSpace(title)
}

// truncate limits s to n runes. A non-positive n means unlimited.
func truncate(s string, n int) string {
	if n <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

func notBlank(s string) bool {
	return strings.TrimSpace(s) != ""
}
