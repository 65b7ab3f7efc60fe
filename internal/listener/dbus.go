//go:build linux

// Package listener feeds the engine from the desktop notification bus. It
// monitors org.freedesktop.Notifications traffic, maintains the active
// notification list per application, and forwards posted/removed events.
// A Notify call with replaces_id 0 is stored under a synthetic ID until the
// server's method return carries the assigned ID, at which point the entry is
// rebound so NotificationClosed signals correlate.
package listener

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/rs/zerolog"

	"github.com/lumenlauncher/lumen/internal/engine"
	"github.com/lumenlauncher/lumen/internal/logging"
	"github.com/lumenlauncher/lumen/internal/notification"
)

const (
	notifyInterface     = "org.freedesktop.Notifications"
	becomeMonitorMethod = "org.freedesktop.DBus.Monitoring.BecomeMonitor"

	messageBufferSize = 64
)

// sink receives notification lifecycle events. *engine.Engine satisfies it.
type sink interface {
	HandlePosted(appID string, payload notification.Payload, active []notification.Payload)
	HandleRemoved(appID string, active []notification.Payload)
}

// Listener monitors the session bus and forwards notification lifecycle
// events into the engine.
type Listener struct {
	conn   *dbus.Conn
	engine sink
	log    zerolog.Logger

	mu      sync.Mutex
	active  map[string]map[uint32]notification.Payload // appID -> notification ID -> payload
	owners  map[uint32]string                          // notification ID -> appID
	pending map[uint32]uint32                          // Notify call serial -> synthetic ID awaiting the server reply
	nextID  uint32
}

// New connects a monitor to the session bus. The connection is dedicated to
// monitoring; monitor connections cannot make method calls.
func New(eng *engine.Engine) (*Listener, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, err
	}

	rules := []string{
		"type='method_call',interface='" + notifyInterface + "',member='Notify'",
		"type='method_return'",
		"type='error'",
		"type='signal',interface='" + notifyInterface + "',member='NotificationClosed'",
	}
	if call := conn.BusObject().Call(becomeMonitorMethod, 0, rules, uint32(0)); call.Err != nil {
		conn.Close()
		return nil, call.Err
	}

	return &Listener{
		conn:    conn,
		engine:  eng,
		log:     logging.Component("listener"),
		active:  make(map[string]map[uint32]notification.Payload),
		owners:  make(map[uint32]string),
		pending: make(map[uint32]uint32),
		nextID:  1 << 31, // synthetic IDs, clear of server-assigned ones
	}, nil
}

// Run consumes bus traffic until ctx is cancelled.
func (l *Listener) Run(ctx context.Context) error {
	ch := make(chan *dbus.Message, messageBufferSize)
	l.conn.Eavesdrop(ch)
	defer l.conn.Close()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			l.handle(msg)
		}
	}
}

func (l *Listener) handle(msg *dbus.Message) {
	member, _ := msg.Headers[dbus.FieldMember].Value().(string)
	switch {
	case msg.Type == dbus.TypeMethodCall && member == "Notify":
		l.handleNotify(msg.Serial(), msg.Body)
	case msg.Type == dbus.TypeMethodReply:
		l.handleReply(msg)
	case msg.Type == dbus.TypeError:
		l.handleError(msg)
	case msg.Type == dbus.TypeSignal && member == "NotificationClosed":
		l.handleClosed(msg.Body)
	}
}

// handleNotify decodes a Notify call:
// (app_name, replaces_id, app_icon, summary, body, actions, hints, timeout).
func (l *Listener) handleNotify(serial uint32, args []interface{}) {
	if len(args) < 8 {
		return
	}
	appName, _ := args[0].(string)
	replacesID, _ := args[1].(uint32)
	summary, _ := args[3].(string)
	body, _ := args[4].(string)
	hints, _ := args[6].(map[string]dbus.Variant)

	appID := appIDFrom(appName, hints)
	if appID == "" {
		return
	}

	payload := notification.Payload{
		Title:    summary,
		Text:     body,
		Category: hintString(hints, "category"),
		PostTime: time.Now().UnixMilli(),
	}
	if payload.Category == notification.CategoryTransport {
		payload.MediaToken = mediaToken(appID, hints)
	}

	id := replacesID
	l.mu.Lock()
	if id == 0 {
		id = l.nextID
		l.nextID++
		l.pending[serial] = id
	}
	byID := l.active[appID]
	if byID == nil {
		byID = make(map[uint32]notification.Payload)
		l.active[appID] = byID
	}
	byID[id] = payload
	l.owners[id] = appID
	activeList := l.activeListLocked(appID)
	l.mu.Unlock()

	l.log.Debug().Str("app", appID).Uint32("id", id).Msg("notification posted")
	l.engine.HandlePosted(appID, payload, activeList)
}

// handleReply rebinds a synthetic ID to the server-assigned one once the
// Notify method return arrives. Returns for unrelated calls miss the pending
// map and are ignored.
func (l *Listener) handleReply(msg *dbus.Message) {
	serial, _ := msg.Headers[dbus.FieldReplySerial].Value().(uint32)
	if serial == 0 || len(msg.Body) < 1 {
		return
	}
	serverID, _ := msg.Body[0].(uint32)
	l.rebind(serial, serverID)
}

// handleError drops the pending entry for a failed Notify call; the server
// never assigned an ID, so the synthetic one stands.
func (l *Listener) handleError(msg *dbus.Message) {
	serial, _ := msg.Headers[dbus.FieldReplySerial].Value().(uint32)
	if serial == 0 {
		return
	}
	l.mu.Lock()
	delete(l.pending, serial)
	l.mu.Unlock()
}

func (l *Listener) rebind(serial, serverID uint32) {
	l.mu.Lock()
	defer l.mu.Unlock()

	syntheticID, ok := l.pending[serial]
	if !ok {
		return
	}
	delete(l.pending, serial)
	if serverID == 0 || serverID == syntheticID {
		return
	}
	appID, ok := l.owners[syntheticID]
	if !ok {
		return
	}
	delete(l.owners, syntheticID)
	l.owners[serverID] = appID
	if byID := l.active[appID]; byID != nil {
		if p, ok := byID[syntheticID]; ok {
			delete(byID, syntheticID)
			byID[serverID] = p
		}
	}
}

// handleClosed decodes a NotificationClosed signal: (id, reason).
func (l *Listener) handleClosed(args []interface{}) {
	if len(args) < 1 {
		return
	}
	id, _ := args[0].(uint32)

	l.mu.Lock()
	appID, ok := l.owners[id]
	if !ok {
		l.mu.Unlock()
		return
	}
	delete(l.owners, id)
	if byID := l.active[appID]; byID != nil {
		delete(byID, id)
		if len(byID) == 0 {
			delete(l.active, appID)
		}
	}
	activeList := l.activeListLocked(appID)
	l.mu.Unlock()

	l.log.Debug().Str("app", appID).Uint32("id", id).Msg("notification closed")
	l.engine.HandleRemoved(appID, activeList)
}

func (l *Listener) activeListLocked(appID string) []notification.Payload {
	byID := l.active[appID]
	if len(byID) == 0 {
		return nil
	}
	list := make([]notification.Payload, 0, len(byID))
	for _, p := range byID {
		list = append(list, p)
	}
	return list
}

// appIDFrom prefers the desktop-entry hint over the free-form app name.
func appIDFrom(appName string, hints map[string]dbus.Variant) string {
	if entry := hintString(hints, "desktop-entry"); entry != "" {
		return strings.ToLower(entry)
	}
	return strings.ToLower(strings.TrimSpace(appName))
}

// mediaToken derives the MPRIS bus name for a transport notification from
// its desktop entry.
func mediaToken(appID string, hints map[string]dbus.Variant) string {
	entry := hintString(hints, "desktop-entry")
	if entry == "" {
		entry = appID
	}
	if entry == "" {
		return ""
	}
	return "org.mpris.MediaPlayer2." + entry
}

func hintString(hints map[string]dbus.Variant, key string) string {
	if v, ok := hints[key]; ok {
		if s, ok := v.Value().(string); ok {
			return s
		}
	}
	return ""
}
