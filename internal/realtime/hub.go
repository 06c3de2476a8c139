package realtime

import (
	"context"
	"encoding/json"
	"log"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/lcraddock/lexdraft/internal/models"
	"github.com/lcraddock/lexdraft/pkg/metrics"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1 << 20 // 1 MiB

	defaultBufferSize  = 64
	accessCheckTimeout = 5 * time.Second
)

// AccessChecker gates document joins. Implemented by the collaborator service.
type AccessChecker interface {
	RequireAccess(ctx context.Context, documentID, userID string, minimum models.DocumentPermission) error
}

// Identity is the authenticated user behind a connection. It is established
// from the verified token at upgrade time; payloads from the wire never
// override it.
type Identity struct {
	UserID   string
	UserName string
}

// Hub tracks live editing sessions per document and fans events out to peers.
// A connection belongs to at most one document at a time.
type Hub struct {
	mu        sync.RWMutex
	documents map[string]map[*connection]struct{}
	access    AccessChecker
	upgrader  websocket.Upgrader
}

// NewHub constructs a presence hub. The access checker may be nil, in which
// case joins are not permission gated (tests only).
func NewHub(access AccessChecker) *Hub {
	return &Hub{
		documents: make(map[string]map[*connection]struct{}),
		access:    access,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				// Allow same-origin requests and explicit localhost development.
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				originHost := hostWithoutPort(origin)
				requestHost := hostWithoutPort(r.Host)
				return originHost == requestHost || isLoopback(originHost)
			},
		},
	}
}

// Serve upgrades the HTTP connection to a WebSocket and pumps events until
// the client disconnects. The identity must already be authenticated.
func (h *Hub) Serve(identity Identity, w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("realtime: upgrade failed: %v", err)
		return
	}

	client := newConnection(h, conn, identity)

	go client.writeLoop()
	client.readLoop()
}

// SessionCount reports the number of live sessions in a document.
func (h *Hub) SessionCount(documentID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.documents[documentID])
}

func (h *Hub) join(c *connection, documentID string) {
	documentID = strings.TrimSpace(documentID)
	if documentID == "" {
		return
	}

	if h.access != nil {
		ctx, cancel := context.WithTimeout(context.Background(), accessCheckTimeout)
		err := h.access.RequireAccess(ctx, documentID, c.identity.UserID, models.PermissionNone)
		cancel()
		if err != nil {
			log.Printf("realtime: join denied for user=%s document=%s: %v", c.identity.UserID, documentID, err)
			return
		}
	}

	h.mu.Lock()
	if c.documentID == documentID {
		// Duplicate join from the same connection. The session already
		// exists, so just resend the roster.
		roster := h.rosterLocked(documentID)
		h.mu.Unlock()
		h.deliver(c, Event{Type: EventUsersList, Data: UsersListData{DocumentID: documentID, Users: roster}})
		return
	}

	departedPeers, departedEvent := h.detachLocked(c)

	if h.documents[documentID] == nil {
		h.documents[documentID] = make(map[*connection]struct{})
	}
	h.documents[documentID][c] = struct{}{}
	c.documentID = documentID

	peers := h.peersLocked(documentID, c)
	roster := h.rosterLocked(documentID)
	h.mu.Unlock()

	if departedEvent == nil {
		metrics.PresenceSessions.Inc()
	}
	h.fanOut(departedPeers, departedEvent)

	joined := Event{Type: EventUserJoined, Data: UserJoinedData{DocumentID: documentID, User: c.presenceUser()}}
	for _, peer := range peers {
		h.deliver(peer, joined)
	}
	h.deliver(c, Event{Type: EventUsersList, Data: UsersListData{DocumentID: documentID, Users: roster}})
}

func (h *Hub) leave(c *connection, documentID string) {
	documentID = strings.TrimSpace(documentID)

	h.mu.Lock()
	if c.documentID == "" || (documentID != "" && documentID != c.documentID) {
		h.mu.Unlock()
		return
	}
	peers, event := h.detachLocked(c)
	h.mu.Unlock()

	metrics.PresenceSessions.Dec()
	h.fanOut(peers, event)
}

func (h *Hub) broadcastEdit(c *connection, content json.RawMessage) {
	h.mu.RLock()
	documentID := c.documentID
	peers := h.peersLocked(documentID, c)
	h.mu.RUnlock()

	if documentID == "" {
		return
	}

	event := Event{Type: EventDocumentUpdated, Data: DocumentUpdatedData{
		DocumentID: documentID,
		Content:    content,
		UserID:     c.identity.UserID,
		Timestamp:  time.Now().UTC(),
	}}
	h.fanOut(peers, &event)
}

func (h *Hub) broadcastCursor(c *connection, position json.RawMessage) {
	h.mu.Lock()
	documentID := c.documentID
	c.cursor = position
	peers := h.peersLocked(documentID, c)
	h.mu.Unlock()

	if documentID == "" {
		return
	}

	event := Event{Type: EventCursorMoved, Data: CursorMovedData{
		DocumentID: documentID,
		UserID:     c.identity.UserID,
		UserName:   c.identity.UserName,
		Position:   position,
	}}
	h.fanOut(peers, &event)
}

func (h *Hub) unregister(c *connection) {
	h.mu.Lock()
	peers, event := h.detachLocked(c)
	h.mu.Unlock()

	if event != nil {
		metrics.PresenceSessions.Dec()
	}
	h.fanOut(peers, event)
}

// detachLocked removes the connection from its current document and returns
// the remaining peers plus the user-left event to deliver to them. Callers
// hold the write lock.
func (h *Hub) detachLocked(c *connection) ([]*connection, *Event) {
	documentID := c.documentID
	if documentID == "" {
		return nil, nil
	}

	sessions := h.documents[documentID]
	delete(sessions, c)
	if len(sessions) == 0 {
		delete(h.documents, documentID)
	}
	c.documentID = ""

	event := Event{Type: EventUserLeft, Data: UserLeftData{DocumentID: documentID, User: c.presenceUser()}}
	return h.peersLocked(documentID, c), &event
}

func (h *Hub) peersLocked(documentID string, except *connection) []*connection {
	sessions := h.documents[documentID]
	if len(sessions) == 0 {
		return nil
	}

	peers := make([]*connection, 0, len(sessions))
	for session := range sessions {
		if session == except {
			continue
		}
		peers = append(peers, session)
	}
	return peers
}

func (h *Hub) rosterLocked(documentID string) []PresenceUser {
	sessions := h.documents[documentID]
	roster := make([]PresenceUser, 0, len(sessions))
	for session := range sessions {
		roster = append(roster, session.presenceUser())
	}
	return roster
}

// fanOut delivers an event to each target. It must run without the hub lock
// held because a backpressured target is closed, which re-enters the hub.
func (h *Hub) fanOut(targets []*connection, event *Event) {
	if event == nil {
		return
	}
	for _, target := range targets {
		h.deliver(target, *event)
	}
}

// deliver enqueues an event without blocking. The send channel is never
// closed, so a racing fan-out that snapshotted a peer just before it was
// dropped enqueues into a channel nobody reads instead of panicking.
func (h *Hub) deliver(c *connection, event Event) {
	select {
	case <-c.done:
		return
	default:
	}

	metrics.PresenceEvents.WithLabelValues(event.Type).Inc()
	select {
	case c.send <- event:
	default:
		log.Printf("realtime: dropping backpressure client (user=%s)", c.identity.UserID)
		c.close()
	}
}

type connection struct {
	hub      *Hub
	socket   *websocket.Conn
	id       string
	identity Identity

	// documentID and cursor are guarded by hub.mu.
	documentID string
	cursor     json.RawMessage

	send chan Event
	done chan struct{}
	once sync.Once
}

func newConnection(hub *Hub, conn *websocket.Conn, identity Identity) *connection {
	return &connection{
		hub:      hub,
		socket:   conn,
		id:       uuid.NewString(),
		identity: identity,
		send:     make(chan Event, defaultBufferSize),
		done:     make(chan struct{}),
	}
}

func (c *connection) presenceUser() PresenceUser {
	return PresenceUser{
		UserID:       c.identity.UserID,
		UserName:     c.identity.UserName,
		ConnectionID: c.id,
	}
}

func (c *connection) readLoop() {
	defer c.close()

	c.socket.SetReadLimit(maxMessageSize)
	_ = c.socket.SetReadDeadline(time.Now().Add(pongWait))
	c.socket.SetPongHandler(func(string) error {
		_ = c.socket.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, payload, err := c.socket.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("realtime: unexpected close for user=%s: %v", c.identity.UserID, err)
			}
			break
		}

		if len(payload) == 0 {
			continue
		}
		c.handle(payload)
	}
}

func (c *connection) handle(payload []byte) {
	var envelope struct {
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(payload, &envelope); err != nil {
		log.Printf("realtime: invalid payload for user=%s: %v", c.identity.UserID, err)
		return
	}

	switch strings.ToLower(strings.TrimSpace(envelope.Type)) {
	case EventJoinDocument:
		var data joinPayload
		if err := json.Unmarshal(envelope.Data, &data); err != nil {
			log.Printf("realtime: invalid join payload for user=%s: %v", c.identity.UserID, err)
			return
		}
		c.hub.join(c, data.DocumentID)
	case EventLeaveDocument:
		var data joinPayload
		if len(envelope.Data) > 0 {
			_ = json.Unmarshal(envelope.Data, &data)
		}
		c.hub.leave(c, data.DocumentID)
	case EventDocumentUpdate:
		var data editPayload
		if err := json.Unmarshal(envelope.Data, &data); err != nil {
			log.Printf("realtime: invalid edit payload for user=%s: %v", c.identity.UserID, err)
			return
		}
		c.hub.broadcastEdit(c, data.Content)
	case EventCursorUpdate:
		var data cursorPayload
		if err := json.Unmarshal(envelope.Data, &data); err != nil {
			log.Printf("realtime: invalid cursor payload for user=%s: %v", c.identity.UserID, err)
			return
		}
		c.hub.broadcastCursor(c, data.Position)
	default:
		log.Printf("realtime: unsupported event '%s' from user=%s", envelope.Type, c.identity.UserID)
	}
}

func (c *connection) writeLoop() {
	defer c.close()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			_ = c.socket.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.socket.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case event := <-c.send:
			_ = c.socket.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.socket.WriteJSON(event); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.socket.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.socket.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// close tears the connection down once. It closes the done channel rather
// than the send channel: senders race with the teardown, and a send on a
// closed channel would panic while an orphaned buffered channel is just
// garbage collected.
func (c *connection) close() {
	c.once.Do(func() {
		c.hub.unregister(c)
		close(c.done)
		if c.socket != nil {
			_ = c.socket.Close()
		}
	})
}

func hostWithoutPort(host string) string {
	host = strings.TrimSpace(host)
	if host == "" {
		return ""
	}

	if strings.HasPrefix(host, "http://") || strings.HasPrefix(host, "https://") {
		parsed, err := http.NewRequest(http.MethodGet, host, nil)
		if err == nil {
			return hostWithoutPort(parsed.URL.Host)
		}
	}

	if h, _, err := net.SplitHostPort(host); err == nil {
		return h
	}
	return host
}

func isLoopback(host string) bool {
	ip := net.ParseIP(host)
	if ip != nil {
		return ip.IsLoopback()
	}
	return strings.EqualFold(host, "localhost")
}
