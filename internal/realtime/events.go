package realtime

import (
	"encoding/json"
	"time"
)

// Inbound event types sent by clients.
const (
	EventJoinDocument   = "join-document"
	EventLeaveDocument  = "leave-document"
	EventDocumentUpdate = "document-update"
	EventCursorUpdate   = "cursor-update"
)

// Outbound event types fanned out to peers.
const (
	EventUserJoined      = "user-joined"
	EventUserLeft        = "user-left"
	EventUsersList       = "users-list"
	EventDocumentUpdated = "document-updated"
	EventCursorMoved     = "cursor-moved"
)

// Event is the wire envelope for both directions. Data carries the
// event-specific payload.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

type joinPayload struct {
	DocumentID string `json:"document_id"`
}

type editPayload struct {
	Content json.RawMessage `json:"content"`
}

type cursorPayload struct {
	Position json.RawMessage `json:"position"`
}

// PresenceUser is one live session in a document's roster. Sessions are
// keyed by connection, so the same user appears once per open tab.
type PresenceUser struct {
	UserID       string `json:"user_id"`
	UserName     string `json:"user_name"`
	ConnectionID string `json:"connection_id"`
}

// UserJoinedData notifies existing sessions about a new arrival.
type UserJoinedData struct {
	DocumentID string       `json:"document_id"`
	User       PresenceUser `json:"user"`
}

// UserLeftData notifies remaining sessions about a departure.
type UserLeftData struct {
	DocumentID string       `json:"document_id"`
	User       PresenceUser `json:"user"`
}

// UsersListData is the roster reply sent to a joining connection.
type UsersListData struct {
	DocumentID string         `json:"document_id"`
	Users      []PresenceUser `json:"users"`
}

// DocumentUpdatedData relays a whole-document edit. The last update a
// client observes wins; no merging happens at this layer.
type DocumentUpdatedData struct {
	DocumentID string          `json:"document_id"`
	Content    json.RawMessage `json:"content"`
	UserID     string          `json:"user_id"`
	Timestamp  time.Time       `json:"timestamp"`
}

// CursorMovedData relays a peer's cursor position.
type CursorMovedData struct {
	DocumentID string          `json:"document_id"`
	UserID     string          `json:"user_id"`
	UserName   string          `json:"user_name"`
	Position   json.RawMessage `json:"position"`
}
