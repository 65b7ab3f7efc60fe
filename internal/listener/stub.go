//go:build !linux

// Package listener feeds the engine from the desktop notification bus.
// Only Linux has one; elsewhere the listener idles until cancelled.
package listener

import (
	"context"

	"github.com/lumenlauncher/lumen/internal/engine"
)

// Listener is a no-op on platforms without a notification bus.
type Listener struct{}

// New returns a no-op listener.
func New(_ *engine.Engine) (*Listener, error) {
	return &Listener{}, nil
}

// Run blocks until ctx is cancelled.
func (l *Listener) Run(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}
