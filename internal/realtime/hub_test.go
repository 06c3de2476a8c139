package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lcraddock/lexdraft/internal/models"
	apperrors "github.com/lcraddock/lexdraft/pkg/errors"
)

type denyingChecker struct{}

func (denyingChecker) RequireAccess(context.Context, string, string, models.DocumentPermission) error {
	return apperrors.ErrForbidden
}

func newTestSession(t *testing.T, hub *Hub, userID, userName string) *connection {
	t.Helper()
	return newConnection(hub, nil, Identity{UserID: userID, UserName: userName})
}

// drain collects every event currently queued for the connection.
func drain(c *connection) []Event {
	var events []Event
	for {
		select {
		case event := <-c.send:
			events = append(events, event)
		default:
			return events
		}
	}
}

func eventTypes(events []Event) []string {
	types := make([]string, 0, len(events))
	for _, event := range events {
		types = append(types, event.Type)
	}
	return types
}

func TestJoinRepliesWithRoster(t *testing.T) {
	hub := NewHub(nil)

	alice := newTestSession(t, hub, "user-a", "Alice")
	hub.join(alice, "doc-1")

	events := drain(alice)
	require.Len(t, events, 1)
	require.Equal(t, EventUsersList, events[0].Type)

	roster := events[0].Data.(UsersListData)
	require.Equal(t, "doc-1", roster.DocumentID)
	require.Len(t, roster.Users, 1)
	require.Equal(t, "user-a", roster.Users[0].UserID)
	require.Equal(t, alice.id, roster.Users[0].ConnectionID)
}

func TestJoinNotifiesExistingSessions(t *testing.T) {
	hub := NewHub(nil)

	alice := newTestSession(t, hub, "user-a", "Alice")
	bob := newTestSession(t, hub, "user-b", "Bob")

	hub.join(alice, "doc-1")
	drain(alice)

	hub.join(bob, "doc-1")

	aliceEvents := drain(alice)
	require.Equal(t, []string{EventUserJoined}, eventTypes(aliceEvents))
	joined := aliceEvents[0].Data.(UserJoinedData)
	require.Equal(t, "user-b", joined.User.UserID)

	bobEvents := drain(bob)
	require.Equal(t, []string{EventUsersList}, eventTypes(bobEvents))
	require.Len(t, bobEvents[0].Data.(UsersListData).Users, 2)
}

func TestJoinIsIdempotentPerConnection(t *testing.T) {
	hub := NewHub(nil)

	alice := newTestSession(t, hub, "user-a", "Alice")
	bob := newTestSession(t, hub, "user-b", "Bob")
	hub.join(alice, "doc-1")
	hub.join(bob, "doc-1")
	drain(alice)
	drain(bob)

	hub.join(alice, "doc-1")

	require.Equal(t, 2, hub.SessionCount("doc-1"))

	// Peers hear nothing about a duplicate join.
	require.Empty(t, drain(bob))

	aliceEvents := drain(alice)
	require.Equal(t, []string{EventUsersList}, eventTypes(aliceEvents))
	require.Len(t, aliceEvents[0].Data.(UsersListData).Users, 2)
}

func TestSameUserTwoConnectionsAreDistinctSessions(t *testing.T) {
	hub := NewHub(nil)

	tabOne := newTestSession(t, hub, "user-a", "Alice")
	tabTwo := newTestSession(t, hub, "user-a", "Alice")
	hub.join(tabOne, "doc-1")
	hub.join(tabTwo, "doc-1")

	require.Equal(t, 2, hub.SessionCount("doc-1"))

	drain(tabOne)
	events := drain(tabTwo)
	roster := events[0].Data.(UsersListData)
	require.Len(t, roster.Users, 2)
	require.NotEqual(t, roster.Users[0].ConnectionID, roster.Users[1].ConnectionID)
}

func TestEditBroadcastSkipsOrigin(t *testing.T) {
	hub := NewHub(nil)

	alice := newTestSession(t, hub, "user-a", "Alice")
	bob := newTestSession(t, hub, "user-b", "Bob")
	carol := newTestSession(t, hub, "user-c", "Carol")
	hub.join(alice, "doc-1")
	hub.join(bob, "doc-1")
	hub.join(carol, "doc-1")
	drain(alice)
	drain(bob)
	drain(carol)

	content := json.RawMessage(`{"blocks":[{"text":"revised demand"}]}`)
	hub.broadcastEdit(alice, content)

	require.Empty(t, drain(alice))

	for _, peer := range []*connection{bob, carol} {
		events := drain(peer)
		require.Equal(t, []string{EventDocumentUpdated}, eventTypes(events))
		updated := events[0].Data.(DocumentUpdatedData)
		require.Equal(t, "doc-1", updated.DocumentID)
		require.Equal(t, "user-a", updated.UserID)
		require.JSONEq(t, string(content), string(updated.Content))
		require.False(t, updated.Timestamp.IsZero())
	}
}

func TestEditWithoutJoinIsIgnored(t *testing.T) {
	hub := NewHub(nil)

	alice := newTestSession(t, hub, "user-a", "Alice")
	bob := newTestSession(t, hub, "user-b", "Bob")
	hub.join(bob, "doc-1")
	drain(bob)

	hub.broadcastEdit(alice, json.RawMessage(`{}`))

	require.Empty(t, drain(bob))
}

func TestCursorBroadcastSkipsOrigin(t *testing.T) {
	hub := NewHub(nil)

	alice := newTestSession(t, hub, "user-a", "Alice")
	bob := newTestSession(t, hub, "user-b", "Bob")
	hub.join(alice, "doc-1")
	hub.join(bob, "doc-1")
	drain(alice)
	drain(bob)

	hub.broadcastCursor(alice, json.RawMessage(`{"line":4,"column":12}`))

	require.Empty(t, drain(alice))

	events := drain(bob)
	require.Equal(t, []string{EventCursorMoved}, eventTypes(events))
	moved := events[0].Data.(CursorMovedData)
	require.Equal(t, "user-a", moved.UserID)
	require.Equal(t, "Alice", moved.UserName)

	// The session keeps the latest reported position.
	require.JSONEq(t, `{"line":4,"column":12}`, string(alice.cursor))
}

func TestLeaveNotifiesPeersAndCleansUp(t *testing.T) {
	hub := NewHub(nil)

	alice := newTestSession(t, hub, "user-a", "Alice")
	bob := newTestSession(t, hub, "user-b", "Bob")
	hub.join(alice, "doc-1")
	hub.join(bob, "doc-1")
	drain(alice)
	drain(bob)

	hub.leave(bob, "doc-1")

	aliceEvents := drain(alice)
	require.Equal(t, []string{EventUserLeft}, eventTypes(aliceEvents))
	require.Equal(t, "user-b", aliceEvents[0].Data.(UserLeftData).User.UserID)
	require.Empty(t, drain(bob))
	require.Equal(t, 1, hub.SessionCount("doc-1"))

	hub.leave(alice, "doc-1")
	require.Equal(t, 0, hub.SessionCount("doc-1"))

	hub.mu.RLock()
	_, tracked := hub.documents["doc-1"]
	hub.mu.RUnlock()
	require.False(t, tracked, "empty documents should be dropped from the registry")
}

func TestLeaveWrongDocumentIsNoOp(t *testing.T) {
	hub := NewHub(nil)

	alice := newTestSession(t, hub, "user-a", "Alice")
	hub.join(alice, "doc-1")
	drain(alice)

	hub.leave(alice, "doc-2")
	require.Equal(t, 1, hub.SessionCount("doc-1"))
}

func TestJoinSecondDocumentLeavesFirst(t *testing.T) {
	hub := NewHub(nil)

	alice := newTestSession(t, hub, "user-a", "Alice")
	bob := newTestSession(t, hub, "user-b", "Bob")
	hub.join(alice, "doc-1")
	hub.join(bob, "doc-1")
	drain(alice)
	drain(bob)

	hub.join(bob, "doc-2")

	aliceEvents := drain(alice)
	require.Equal(t, []string{EventUserLeft}, eventTypes(aliceEvents))
	require.Equal(t, 1, hub.SessionCount("doc-1"))
	require.Equal(t, 1, hub.SessionCount("doc-2"))

	// Edits in the first document no longer reach the mover.
	drain(bob)
	hub.broadcastEdit(alice, json.RawMessage(`{}`))
	require.Empty(t, drain(bob))
}

func TestDisconnectActsAsLeave(t *testing.T) {
	hub := NewHub(nil)

	alice := newTestSession(t, hub, "user-a", "Alice")
	bob := newTestSession(t, hub, "user-b", "Bob")
	hub.join(alice, "doc-1")
	hub.join(bob, "doc-1")
	drain(alice)
	drain(bob)

	bob.close()

	aliceEvents := drain(alice)
	require.Equal(t, []string{EventUserLeft}, eventTypes(aliceEvents))
	require.Equal(t, 1, hub.SessionCount("doc-1"))

	// A second close is harmless.
	bob.close()
	require.Empty(t, drain(alice))
}

func TestDisconnectWithoutJoinIsNoOp(t *testing.T) {
	hub := NewHub(nil)

	alice := newTestSession(t, hub, "user-a", "Alice")
	alice.close()
	require.Equal(t, 0, hub.SessionCount("doc-1"))
}

func TestJoinDeniedByAccessChecker(t *testing.T) {
	hub := NewHub(denyingChecker{})

	alice := newTestSession(t, hub, "user-a", "Alice")
	hub.join(alice, "doc-1")

	require.Equal(t, 0, hub.SessionCount("doc-1"))
	require.Empty(t, drain(alice))
}

func TestInboundEnvelopeDispatch(t *testing.T) {
	hub := NewHub(nil)

	alice := newTestSession(t, hub, "user-a", "Alice")
	bob := newTestSession(t, hub, "user-b", "Bob")
	hub.join(bob, "doc-1")
	drain(bob)

	alice.handle([]byte(`{"type":"join-document","data":{"document_id":"doc-1"}}`))
	require.Equal(t, 2, hub.SessionCount("doc-1"))
	require.Equal(t, []string{EventUsersList}, eventTypes(drain(alice)))
	drain(bob)

	alice.handle([]byte(`{"type":"document-update","data":{"content":{"title":"Demand"}}}`))
	require.Equal(t, []string{EventDocumentUpdated}, eventTypes(drain(bob)))

	alice.handle([]byte(`{"type":"cursor-update","data":{"position":{"line":1}}}`))
	require.Equal(t, []string{EventCursorMoved}, eventTypes(drain(bob)))

	// Malformed and unknown payloads are dropped without side effects.
	alice.handle([]byte(`not json`))
	alice.handle([]byte(`{"type":"shutdown-server"}`))
	require.Empty(t, drain(bob))

	alice.handle([]byte(`{"type":"leave-document"}`))
	require.Equal(t, []string{EventUserLeft}, eventTypes(drain(bob)))
	require.Equal(t, 1, hub.SessionCount("doc-1"))
}

func TestBackpressuredPeerDropSurvivesRacingBroadcasts(t *testing.T) {
	hub := NewHub(nil)

	alice := newTestSession(t, hub, "user-a", "Alice")
	slow := newTestSession(t, hub, "user-b", "Bob")
	hub.join(alice, "doc-1")
	hub.join(slow, "doc-1")
	drain(alice)
	drain(slow)

	// A reader that never drains eventually fills its buffer.
	for i := 0; i < defaultBufferSize; i++ {
		slow.send <- Event{Type: EventCursorMoved}
	}

	// The first delivery drops the peer; deliveries racing with the drop
	// may still hold it from an earlier roster snapshot and must not panic.
	require.NotPanics(t, func() {
		var wg sync.WaitGroup
		for g := 0; g < 4; g++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := 0; i < 100; i++ {
					hub.deliver(slow, Event{Type: EventDocumentUpdated})
				}
			}()
		}
		wg.Wait()
	})

	require.Equal(t, 1, hub.SessionCount("doc-1"))

	// The dropped peer no longer hears anything, and the drop is final.
	hub.broadcastEdit(alice, json.RawMessage(`{"body":"after"}`))
	select {
	case <-slow.done:
	default:
		t.Fatal("expected the backpressured connection to be closed")
	}
}
