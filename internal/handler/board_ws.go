package handler

import (
	"encoding/json"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"

	"whiteboard-backend/internal/config"
	"whiteboard-backend/internal/model"
	"whiteboard-backend/internal/registry"
	"whiteboard-backend/internal/session"
)

// =============================================================================
// Board WebSocket - per-connection session management and room broadcast
// =============================================================================

// BoardWSHandler binds live connections to rooms and fans accepted edits
// out to every other member of the same room. Malformed or out-of-state
// events are dropped, never fatal: one bad client must not affect any
// other room or connection.
type BoardWSHandler struct {
	registry *registry.Registry
	cfg      *config.Config

	rooms map[string]map[*websocket.Conn]*boardClient
	mu    sync.RWMutex
}

// boardClient 연결된 클라이언트
type boardClient struct {
	sess    *session.Session
	conn    *websocket.Conn
	writeMu sync.Mutex // websocket conns are not safe for concurrent writes
}

// send marshals and writes one envelope. Write errors are logged and
// otherwise ignored; the read loop notices the dead conn and cleans up.
func (cl *boardClient) send(env model.Envelope) {
	data, err := json.Marshal(env)
	if err != nil {
		log.Printf("[BoardWS] Failed to marshal %s event: %v", env.Type, err)
		return
	}

	cl.writeMu.Lock()
	defer cl.writeMu.Unlock()

	if err := cl.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		log.Printf("[BoardWS] Failed to send %s to session %s: %v", env.Type, cl.sess.ID, err)
	}
}

// inboundEnvelope keeps the payload raw until the event type picks the
// concrete shape.
type inboundEnvelope struct {
	Type    model.EventType `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// NewBoardWSHandler BoardWSHandler 생성
func NewBoardWSHandler(cfg *config.Config, reg *registry.Registry) *BoardWSHandler {
	return &BoardWSHandler{
		registry: reg,
		cfg:      cfg,
		rooms:    make(map[string]map[*websocket.Conn]*boardClient),
	}
}

// ConnectionCount 현재 연결 수 (헬스체크용)
func (h *BoardWSHandler) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	count := 0
	for _, clients := range h.rooms {
		count += len(clients)
	}
	return count
}

// HandleWebSocket WebSocket 연결 처리
func (h *BoardWSHandler) HandleWebSocket(c *websocket.Conn) {
	// 패닉 복구 - 서버 크래시 방지
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[BoardWS] Recovered from panic: %v", r)
		}
	}()

	cl := &boardClient{sess: session.New(), conn: c}
	log.Printf("[BoardWS] Connected: session %s", cl.sess.ID)

	defer h.disconnect(cl)

	for {
		_, msgBytes, err := c.ReadMessage()
		if err != nil {
			break
		}

		var env inboundEnvelope
		if err := json.Unmarshal(msgBytes, &env); err != nil {
			continue
		}
		cl.sess.IncrementEventCount()
		h.dispatch(cl, env)
	}
}

// dispatch routes one inbound event. Everything except the join request
// requires a Bound session; events arriving while Unbound are silently
// dropped (defensive invariant, not a user-facing error).
func (h *BoardWSHandler) dispatch(cl *boardClient, env inboundEnvelope) {
	if env.Type == model.EventRoomJoin {
		if !cl.sess.IsBound() {
			h.handleJoin(cl, env.Payload)
		}
		return
	}

	if !cl.sess.IsBound() {
		return
	}

	switch env.Type {
	case model.EventStrokeAdded:
		h.handleStrokeAdded(cl, env.Payload)
	case model.EventStrokesErased:
		h.handleStrokesErased(cl, env.Payload)
	case model.EventTextAdded:
		h.handleTextAdded(cl, env.Payload)
	case model.EventChatSend:
		h.handleChatSend(cl, env.Payload)
	case model.EventBoardClear:
		h.handleBoardClear(cl)
	case model.EventCursorUpdate:
		h.handleCursorUpdate(cl, env.Payload)
	}
}

// handleJoin runs the join protocol: validate (or create) the room, add
// the user, push the full snapshot to the joiner and a join notice to
// everyone else.
func (h *BoardWSHandler) handleJoin(cl *boardClient, payload json.RawMessage) {
	var req model.JoinRequest
	if err := json.Unmarshal(payload, &req); err != nil || req.RoomID == "" {
		return
	}

	if !req.IsCreating {
		if _, ok := h.registry.GetRoom(req.RoomID); !ok {
			log.Printf("[BoardWS] Join rejected, room not found: %s", req.RoomID)
			cl.send(model.Envelope{
				Type: model.EventRoomError,
				Payload: model.JoinError{
					Code:    model.ErrorCodeRoomNotFound,
					Message: "room " + req.RoomID + " does not exist",
				},
			})
			return // connection stays Unbound and may retry
		}
	}

	userID := uuid.New().String()
	user, _ := h.registry.AddUser(req.RoomID, userID, strings.TrimSpace(req.UserName))

	if !cl.sess.Bind(userID, req.RoomID, user.Name, user.Role, user.Color) {
		// The connection closed while the join was in flight.
		h.registry.RemoveUser(req.RoomID, userID)
		return
	}

	h.mu.Lock()
	if h.rooms[req.RoomID] == nil {
		h.rooms[req.RoomID] = make(map[*websocket.Conn]*boardClient)
	}
	h.rooms[req.RoomID][cl.conn] = cl
	h.mu.Unlock()

	state, ok := h.registry.SnapshotState(req.RoomID)
	if !ok {
		state = model.NewWhiteboardState()
	}
	cl.send(model.Envelope{
		Type: model.EventRoomJoined,
		Payload: model.JoinSuccess{
			State:     state,
			UserID:    userID,
			Role:      user.Role,
			UserColor: user.Color,
		},
	})
	h.broadcast(req.RoomID, cl, model.Envelope{Type: model.EventUserJoined, Payload: user})

	log.Printf("[BoardWS] Room %s: session %s bound as user %s (%s)",
		req.RoomID, cl.sess.ID, userID, user.Role)
}

func (h *BoardWSHandler) handleStrokeAdded(cl *boardClient, payload json.RawMessage) {
	var stroke model.Stroke
	if err := json.Unmarshal(payload, &stroke); err != nil || stroke.ID == "" {
		return
	}

	userID, roomID, _, _ := cl.sess.Identity()
	stroke.AuthorID = userID // authorship comes from the session, not the wire

	if h.registry.AddStroke(roomID, &stroke) {
		h.broadcast(roomID, cl, model.Envelope{Type: model.EventStrokeAdded, Payload: &stroke})
	}
}

func (h *BoardWSHandler) handleStrokesErased(cl *boardClient, payload json.RawMessage) {
	var ids []string
	if err := json.Unmarshal(payload, &ids); err != nil || len(ids) == 0 {
		return
	}

	roomID := cl.sess.RoomID()
	if h.registry.RemoveStrokes(roomID, ids) {
		h.broadcast(roomID, cl, model.Envelope{Type: model.EventStrokesErased, Payload: ids})
	}
}

func (h *BoardWSHandler) handleTextAdded(cl *boardClient, payload json.RawMessage) {
	var text model.TextItem
	if err := json.Unmarshal(payload, &text); err != nil || text.ID == "" {
		return
	}

	userID, roomID, _, _ := cl.sess.Identity()
	text.AuthorID = userID

	if h.registry.AddText(roomID, &text) {
		h.broadcast(roomID, cl, model.Envelope{Type: model.EventTextAdded, Payload: &text})
	}
}

func (h *BoardWSHandler) handleChatSend(cl *boardClient, payload json.RawMessage) {
	var req model.ChatSend
	if err := json.Unmarshal(payload, &req); err != nil {
		return
	}

	content, ok := sanitizeChatContent(req.Content, h.cfg.Chat.MaxMessageLength)
	if !ok {
		return
	}

	userID, roomID, name, color := cl.sess.Identity()
	msg := &model.ChatMessage{
		ID:        uuid.New().String(),
		UserID:    userID,
		UserName:  name,
		UserColor: color,
		Content:   content,
		Timestamp: time.Now().UnixMilli(),
	}

	if h.registry.AddMessage(roomID, msg) {
		h.broadcast(roomID, cl, model.Envelope{Type: model.EventChatNew, Payload: msg})
	}
}

func (h *BoardWSHandler) handleBoardClear(cl *boardClient) {
	userID, roomID, _, _ := cl.sess.Identity()

	// Authorization lives in the registry: non-hosts get false and no
	// broadcast, with nothing surfaced to the requester.
	if h.registry.ClearBoard(roomID, userID) {
		h.broadcast(roomID, cl, model.Envelope{Type: model.EventBoardCleared})
	}
}

// handleCursorUpdate forwards a live cursor position. Cursor positions are
// never stored and never replayed to late joiners.
func (h *BoardWSHandler) handleCursorUpdate(cl *boardClient, payload json.RawMessage) {
	var cursor model.CursorUpdate
	if err := json.Unmarshal(payload, &cursor); err != nil {
		return
	}

	userID, roomID, name, color := cl.sess.Identity()
	cursor.UserID = userID
	cursor.UserName = name
	cursor.UserColor = color

	h.broadcast(roomID, cl, model.Envelope{Type: model.EventCursorUpdate, Payload: cursor})
}

// disconnect tears the connection down: unbind, remove the user from the
// room, notify the remaining members, and announce the migrated host.
func (h *BoardWSHandler) disconnect(cl *boardClient) {
	bound := cl.sess.IsBound()
	userID, roomID, _, _ := cl.sess.Identity()
	cl.sess.Close()
	cl.conn.Close()

	if !bound {
		log.Printf("[BoardWS] Disconnected: session %s (never joined)", cl.sess.ID)
		return
	}

	h.mu.Lock()
	if clients, ok := h.rooms[roomID]; ok {
		delete(clients, cl.conn)
		if len(clients) == 0 {
			delete(h.rooms, roomID)
		}
	}
	h.mu.Unlock()

	if _, ok := h.registry.RemoveUser(roomID, userID); ok {
		h.broadcastAll(roomID, model.Envelope{Type: model.EventUserLeft, Payload: userID})

		// The promoted client must learn about itself too, so the host
		// change goes to every remaining connection.
		if newHost := h.registry.CurrentHostID(roomID); newHost != "" && newHost != userID {
			h.broadcastAll(roomID, model.Envelope{Type: model.EventHostChanged, Payload: newHost})
		}
	}

	log.Printf("[BoardWS] Room %s: session %s disconnected (user %s, %d events, %s)",
		roomID, cl.sess.ID, userID, cl.sess.EventCount(), cl.sess.Duration().Round(time.Millisecond))
}

// broadcast sends to every connection in the room except the sender.
func (h *BoardWSHandler) broadcast(roomID string, sender *boardClient, env model.Envelope) {
	for _, cl := range h.roomClients(roomID) {
		if cl == sender {
			continue
		}
		cl.send(env)
	}
}

// broadcastAll sends to every connection in the room.
func (h *BoardWSHandler) broadcastAll(roomID string, env model.Envelope) {
	for _, cl := range h.roomClients(roomID) {
		cl.send(env)
	}
}

func (h *BoardWSHandler) roomClients(roomID string) []*boardClient {
	h.mu.RLock()
	defer h.mu.RUnlock()

	clients := make([]*boardClient, 0, len(h.rooms[roomID]))
	for _, cl := range h.rooms[roomID] {
		clients = append(clients, cl)
	}
	return clients
}

// sanitizeChatContent trims whitespace and caps the length in characters.
// Empty or whitespace-only content is rejected.
func sanitizeChatContent(content string, maxLen int) (string, bool) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", false
	}
	if runes := []rune(content); maxLen > 0 && len(runes) > maxLen {
		content = string(runes[:maxLen])
	}
	return content, true
}
