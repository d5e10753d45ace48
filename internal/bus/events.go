package bus

import "pigeon/internal/models"

// Event is a marker for anything carried on the bus. The bus forwards
// references; it never owns payload data.
type Event interface{}

// LoggedIn is published after a user session is established.
type LoggedIn struct {
	Account *models.Account
}

// LoggedOut is published when the session is cleared.
type LoggedOut struct{}

// NewMessage is published for every message accepted into the local cache.
type NewMessage struct {
	Message *models.Message
}

// MessageRedacted is published per message processed by the deletion handler.
type MessageRedacted struct {
	Message *models.Message
	Hard    bool
}

// Sync state transitions for one reconciliation cycle.
const (
	SyncStarted   = "STARTED"
	SyncCompleted = "COMPLETED"
	SyncFailed    = "FAILED"
)

type SyncState struct {
	State string
}

// ConnectionChanged reports realtime transport connectivity flips.
type ConnectionChanged struct {
	Connected bool
}
