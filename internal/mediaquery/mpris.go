//go:build linux

package mediaquery

import (
	"context"
	"strings"

	"github.com/godbus/dbus/v5"
)

const (
	mprisObjectPath      = "/org/mpris/MediaPlayer2"
	mprisPlayerInterface = "org.mpris.MediaPlayer2.Player"
	propertiesGet        = "org.freedesktop.DBus.Properties.Get"
)

// mprisQuerier queries MPRIS players on the session bus. The token is the
// player's bus name (e.g. "org.mpris.MediaPlayer2.spotify").
type mprisQuerier struct {
	conn *dbus.Conn
}

// New returns a Querier backed by the D-Bus session bus. If the bus is
// unavailable the returned querier always reports StatusUnknown.
func New() (Querier, error) {
	conn, err := dbus.SessionBus()
	if err != nil {
		// D-Bus not available, degrade to "unknown" (intentional graceful degradation)
		return stubQuerier{}, nil //nolint:nilerr // graceful fallback when D-Bus unavailable
	}
	return &mprisQuerier{conn: conn}, nil
}

// PlaybackStatus reads the player's PlaybackStatus property. The ctx
// deadline bounds the bus call so a hung player cannot stall the caller.
func (q *mprisQuerier) PlaybackStatus(ctx context.Context, token string) (Status, error) {
	if token == "" {
		return StatusUnknown, nil
	}

	obj := q.conn.Object(token, mprisObjectPath)
	call := obj.CallWithContext(ctx, propertiesGet, 0, mprisPlayerInterface, "PlaybackStatus")
	if call.Err != nil {
		return StatusUnknown, call.Err
	}

	var v dbus.Variant
	if err := call.Store(&v); err != nil {
		return StatusUnknown, err
	}

	status, _ := v.Value().(string)
	switch strings.ToLower(status) {
	case "playing":
		return StatusPlaying, nil
	case "paused", "stopped":
		return StatusNotPlaying, nil
	}
	return StatusUnknown, nil
}
