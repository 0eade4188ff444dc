package storage

import (
	"errors"
	"time"

	"github.com/gokaycavdar/go-urlguard/pkg/widget"
)

// ErrSessionNotFound is returned for unknown or expired session ids.
var ErrSessionNotFound = errors.New("session not found")

// SessionStore keeps the widgets of active presentation sessions.
// Implementations can use any backend; sessions are not meant to survive a
// restart, so the bundled MemoryStore is usually enough.
type SessionStore interface {
	// Create stores w under a fresh id and returns the id.
	Create(w *widget.Widget) (string, error)

	// Get returns the widget for id and refreshes its last-access time.
	Get(id string) (*widget.Widget, error)

	// Delete removes the session and closes its event subscriptions.
	Delete(id string) error

	// Sweep removes sessions idle for longer than maxIdle, skipping those
	// with a run in flight, and returns how many were removed.
	Sweep(maxIdle time.Duration) int

	// Len returns the number of stored sessions.
	Len() int
}
