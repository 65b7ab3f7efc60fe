//go:build linux

package listener

import (
	"testing"

	"github.com/godbus/dbus/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenlauncher/lumen/internal/notification"
)

type sinkEvent struct {
	appID  string
	active []notification.Payload
}

type recordingSink struct {
	posted  []sinkEvent
	removed []sinkEvent
}

func (s *recordingSink) HandlePosted(appID string, _ notification.Payload, active []notification.Payload) {
	s.posted = append(s.posted, sinkEvent{appID: appID, active: active})
}

func (s *recordingSink) HandleRemoved(appID string, active []notification.Payload) {
	s.removed = append(s.removed, sinkEvent{appID: appID, active: active})
}

func newTestListener(s sink) *Listener {
	return &Listener{
		engine:  s,
		log:     zerolog.Nop(),
		active:  make(map[string]map[uint32]notification.Payload),
		owners:  make(map[uint32]string),
		pending: make(map[uint32]uint32),
		nextID:  1 << 31,
	}
}

func notifyArgs(appName string, replacesID uint32, summary, body string, hints map[string]dbus.Variant) []interface{} {
	if hints == nil {
		hints = map[string]dbus.Variant{}
	}
	return []interface{}{appName, replacesID, "", summary, body, []string{}, hints, int32(-1)}
}

func replyMessage(replySerial, serverID uint32) *dbus.Message {
	return &dbus.Message{
		Type: dbus.TypeMethodReply,
		Headers: map[dbus.HeaderField]dbus.Variant{
			dbus.FieldReplySerial: dbus.MakeVariant(replySerial),
		},
		Body: []interface{}{serverID},
	}
}

func closedMessage(id uint32) *dbus.Message {
	return &dbus.Message{
		Type: dbus.TypeSignal,
		Headers: map[dbus.HeaderField]dbus.Variant{
			dbus.FieldMember: dbus.MakeVariant("NotificationClosed"),
		},
		Body: []interface{}{id, uint32(2)},
	}
}

func TestServerReplyRebindsSyntheticID(t *testing.T) {
	s := &recordingSink{}
	l := newTestListener(s)

	l.handleNotify(5, notifyArgs("signal", 0, "Alice", "hi", nil))
	require.Len(t, s.posted, 1)
	assert.Equal(t, "signal", s.posted[0].appID)
	assert.Len(t, s.posted[0].active, 1)

	l.handle(replyMessage(5, 7))
	l.handle(closedMessage(7))

	require.Len(t, s.removed, 1)
	assert.Equal(t, "signal", s.removed[0].appID)
	assert.Empty(t, s.removed[0].active)
	assert.Empty(t, l.active)
	assert.Empty(t, l.owners)
	assert.Empty(t, l.pending)
}

func TestClosedWithUnknownIDIsIgnored(t *testing.T) {
	s := &recordingSink{}
	l := newTestListener(s)

	l.handleNotify(1, notifyArgs("signal", 0, "Alice", "hi", nil))
	l.handle(closedMessage(42))

	assert.Empty(t, s.removed)
	assert.Len(t, l.active["signal"], 1)
}

func TestReplacesIDNeedsNoCorrelation(t *testing.T) {
	s := &recordingSink{}
	l := newTestListener(s)

	l.handleNotify(3, notifyArgs("signal", 9, "Alice", "hi", nil))
	assert.Empty(t, l.pending)

	l.handle(closedMessage(9))
	require.Len(t, s.removed, 1)
	assert.Empty(t, l.active)
}

func TestReplyForUnrelatedCallIsIgnored(t *testing.T) {
	s := &recordingSink{}
	l := newTestListener(s)

	l.handleNotify(5, notifyArgs("signal", 0, "Alice", "hi", nil))
	l.handle(replyMessage(99, 7))

	l.handle(closedMessage(7))
	assert.Empty(t, s.removed)
	assert.Len(t, l.active["signal"], 1)
}

func TestErrorReplyKeepsSyntheticID(t *testing.T) {
	s := &recordingSink{}
	l := newTestListener(s)

	l.handleNotify(5, notifyArgs("signal", 0, "Alice", "hi", nil))
	l.handle(&dbus.Message{
		Type: dbus.TypeError,
		Headers: map[dbus.HeaderField]dbus.Variant{
			dbus.FieldReplySerial: dbus.MakeVariant(uint32(5)),
		},
	})
	assert.Empty(t, l.pending)

	// A stray method return with the same serial must not rebind anything.
	l.handle(replyMessage(5, 7))
	l.handle(closedMessage(7))
	assert.Empty(t, s.removed)
	assert.Len(t, l.active["signal"], 1)
}

func TestRebindAcrossMultipleNotifications(t *testing.T) {
	s := &recordingSink{}
	l := newTestListener(s)

	l.handleNotify(10, notifyArgs("signal", 0, "Alice", "hi", nil))
	l.handleNotify(11, notifyArgs("signal", 0, "Bob", "yo", nil))
	l.handle(replyMessage(10, 1))
	l.handle(replyMessage(11, 2))

	l.handle(closedMessage(1))
	require.Len(t, s.removed, 1)
	assert.Len(t, s.removed[0].active, 1)

	l.handle(closedMessage(2))
	require.Len(t, s.removed, 2)
	assert.Empty(t, s.removed[1].active)
}

func TestAppIDPrefersDesktopEntryHint(t *testing.T) {
	hints := map[string]dbus.Variant{
		"desktop-entry": dbus.MakeVariant("org.telegram.desktop"),
	}
	assert.Equal(t, "org.telegram.desktop", appIDFrom("Telegram Desktop", hints))
	assert.Equal(t, "spotify", appIDFrom(" Spotify ", nil))
}

func TestTransportNotifyCarriesMediaToken(t *testing.T) {
	s := &recordingSink{}
	l := newTestListener(s)

	hints := map[string]dbus.Variant{
		"desktop-entry": dbus.MakeVariant("spotify"),
		"category":      dbus.MakeVariant("transport"),
	}
	l.handleNotify(1, notifyArgs("Spotify", 0, "Track", "Artist", hints))

	require.Len(t, s.posted, 1)
	require.Len(t, s.posted[0].active, 1)
	assert.Equal(t, "org.mpris.MediaPlayer2.spotify", s.posted[0].active[0].MediaToken)
}
