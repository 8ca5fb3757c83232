// internal/types/ids.go
package types

import (
	"strings"

	"github.com/google/uuid"
)

// SessionKey identifies a session from the frontend's point of view,
// colon-joined: "telegram:<user>:<chat>" or "tui:default".
type SessionKey string

// SessionID, TurnID and RunID are uuid-backed internal identifiers.
type (
	SessionID string
	TurnID    string
	RunID     string
)

func NewSessionID() SessionID { return SessionID(uuid.New().String()) }
func NewTurnID() TurnID       { return TurnID(uuid.New().String()) }
func NewRunID() RunID         { return RunID(uuid.New().String()) }

// NewSessionKey joins key parts with colons.
func NewSessionKey(parts ...string) SessionKey {
	return SessionKey(strings.Join(parts, ":"))
}
