package registry

import (
	"log"
	"math/rand"
	"sync"
	"time"

	"whiteboard-backend/internal/model"
)

// =============================================================================
// Room Registry - authoritative in-memory room state
// =============================================================================

// Registry owns every room in the process. All state is in memory and is
// lost on restart. Mutations signal "room not found" via return values,
// never via errors.
type Registry struct {
	mu    sync.RWMutex
	grace time.Duration

	rooms map[string]*model.Room
	// joinOrder keeps userIDs per room in arrival order so host promotion
	// is deterministic (earliest remaining joiner wins).
	joinOrder map[string][]string
	// cleanups holds the pending deferred-deletion timer per empty room.
	cleanups map[string]*time.Timer
}

// New creates an empty registry. grace is how long an empty room survives
// before deletion.
func New(grace time.Duration) *Registry {
	return &Registry{
		grace:     grace,
		rooms:     make(map[string]*model.Room),
		joinOrder: make(map[string][]string),
		cleanups:  make(map[string]*time.Timer),
	}
}

// Stop cancels all pending cleanup timers. Used on shutdown and in tests.
func (r *Registry) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, timer := range r.cleanups {
		timer.Stop()
		delete(r.cleanups, id)
	}
}

// CreateRoom creates a fresh room under id. It always succeeds and replaces
// any existing room with the same id - callers that need idempotency must
// check existence first.
func (r *Registry) CreateRoom(id string) *model.Room {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.createRoomLocked(id)
}

func (r *Registry) createRoomLocked(id string) *model.Room {
	// A stale timer from a previous room under the same id must not reap
	// the replacement.
	if timer, ok := r.cleanups[id]; ok {
		timer.Stop()
		delete(r.cleanups, id)
	}
	room := &model.Room{
		ID:    id,
		State: model.NewWhiteboardState(),
	}
	r.rooms[id] = room
	r.joinOrder[id] = nil
	log.Printf("[Registry] Created room: %s", id)
	return room
}

// GetRoom returns the room under id, if any.
func (r *Registry) GetRoom(id string) (*model.Room, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room, ok := r.rooms[id]
	return room, ok
}

// GetOrCreateRoom returns the existing room or creates an empty one.
func (r *Registry) GetOrCreateRoom(id string) *model.Room {
	r.mu.Lock()
	defer r.mu.Unlock()

	if room, ok := r.rooms[id]; ok {
		return room
	}
	return r.createRoomLocked(id)
}

// AddUser adds a user to the room, creating the room if absent. The first
// user ever added becomes host. The returned bool reports host status.
// A pending deferred deletion for the room is cancelled.
func (r *Registry) AddUser(roomID, userID, name string) (*model.User, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[roomID]
	if !ok {
		room = r.createRoomLocked(roomID)
	}

	// Rejoin beat the grace period - keep the room alive.
	if timer, ok := r.cleanups[roomID]; ok {
		timer.Stop()
		delete(r.cleanups, roomID)
		log.Printf("[Registry] Cancelled pending cleanup for room %s", roomID)
	}

	isHost := len(room.State.Users) == 0
	user := &model.User{
		UserID: userID,
		Role:   model.RoleParticipant,
		Color:  model.UserColors[rand.Intn(len(model.UserColors))],
		Name:   name,
	}
	if isHost {
		user.Role = model.RoleHost
		room.HostID = userID
	}

	room.State.Users[userID] = user
	r.joinOrder[roomID] = append(r.joinOrder[roomID], userID)

	log.Printf("[Registry] Room %s: user %s (%s) joined as %s, total: %d",
		roomID, userID, name, user.Role, len(room.State.Users))

	return user, isHost
}

// RemoveUser deletes the user from the room. If the host left, the earliest
// remaining joiner is promoted; if the room is now empty, deletion is
// scheduled after the grace period.
func (r *Registry) RemoveUser(roomID, userID string) (*model.User, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[roomID]
	if !ok {
		return nil, false
	}
	user, ok := room.State.Users[userID]
	if !ok {
		return nil, false
	}

	delete(room.State.Users, userID)
	order := r.joinOrder[roomID]
	for i, id := range order {
		if id == userID {
			r.joinOrder[roomID] = append(order[:i], order[i+1:]...)
			break
		}
	}

	log.Printf("[Registry] Room %s: user %s left, remaining: %d",
		roomID, userID, len(room.State.Users))

	if room.HostID == userID {
		if remaining := r.joinOrder[roomID]; len(remaining) > 0 {
			next := remaining[0]
			room.HostID = next
			room.State.Users[next].Role = model.RoleHost
			log.Printf("[Registry] Room %s: host migrated %s -> %s", roomID, userID, next)
		} else {
			room.HostID = ""
		}
	}

	if len(room.State.Users) == 0 {
		r.scheduleCleanupLocked(roomID)
	}

	return user, true
}

// scheduleCleanupLocked arms the deferred deletion timer for an empty room.
// The timer re-checks emptiness at fire time: the id may have been rejoined
// through a path that did not cancel it.
func (r *Registry) scheduleCleanupLocked(roomID string) {
	if timer, ok := r.cleanups[roomID]; ok {
		timer.Stop()
	}
	log.Printf("[Registry] Room %s empty, deleting in %s", roomID, r.grace)
	r.cleanups[roomID] = time.AfterFunc(r.grace, func() {
		r.mu.Lock()
		defer r.mu.Unlock()

		delete(r.cleanups, roomID)
		room, ok := r.rooms[roomID]
		if !ok || len(room.State.Users) > 0 {
			return
		}
		delete(r.rooms, roomID)
		delete(r.joinOrder, roomID)
		log.Printf("[Registry] Removed expired room: %s", roomID)
	})
}

// AddStroke stores a finished stroke. Strokes with fewer than two points
// are never persisted.
func (r *Registry) AddStroke(roomID string, stroke *model.Stroke) bool {
	if stroke == nil || len(stroke.Points) < 2 {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[roomID]
	if !ok {
		return false
	}
	room.State.Strokes[stroke.ID] = stroke
	return true
}

// RemoveStrokes deletes a batch of strokes. Unknown ids are ignored.
func (r *Registry) RemoveStrokes(roomID string, ids []string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[roomID]
	if !ok {
		return false
	}
	for _, id := range ids {
		delete(room.State.Strokes, id)
	}
	return true
}

// AddText stores a committed text item.
func (r *Registry) AddText(roomID string, text *model.TextItem) bool {
	if text == nil {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[roomID]
	if !ok {
		return false
	}
	room.State.Texts[text.ID] = text
	return true
}

// AddMessage appends a chat message to the room history.
func (r *Registry) AddMessage(roomID string, msg *model.ChatMessage) bool {
	if msg == nil {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[roomID]
	if !ok {
		return false
	}
	room.State.Messages = append(room.State.Messages, msg)
	return true
}

// ClearBoard empties strokes and texts. Only the current host may clear;
// anyone else gets false and the board is untouched.
func (r *Registry) ClearBoard(roomID, userID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[roomID]
	if !ok || room.HostID != userID {
		return false
	}

	room.State.Strokes = make(map[string]*model.Stroke)
	room.State.Texts = make(map[string]*model.TextItem)
	log.Printf("[Registry] Room %s: board cleared by host %s", roomID, userID)
	return true
}

// IsHost reports whether userID currently holds the host role in the room.
func (r *Registry) IsHost(roomID, userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room, ok := r.rooms[roomID]
	return ok && userID != "" && room.HostID == userID
}

// CurrentHostID returns the room's host id, or "" when the room does not
// exist or has no members.
func (r *Registry) CurrentHostID(roomID string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room, ok := r.rooms[roomID]
	if !ok {
		return ""
	}
	return room.HostID
}

// SnapshotState returns a copy of the room state safe to marshal outside
// the registry lock. Strokes and texts are immutable once stored, so the
// maps are copied shallowly.
func (r *Registry) SnapshotState(roomID string) (*model.WhiteboardState, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room, ok := r.rooms[roomID]
	if !ok {
		return nil, false
	}

	snap := &model.WhiteboardState{
		Strokes:  make(map[string]*model.Stroke, len(room.State.Strokes)),
		Texts:    make(map[string]*model.TextItem, len(room.State.Texts)),
		Users:    make(map[string]*model.User, len(room.State.Users)),
		Messages: make([]*model.ChatMessage, len(room.State.Messages)),
	}
	for id, s := range room.State.Strokes {
		snap.Strokes[id] = s
	}
	for id, t := range room.State.Texts {
		snap.Texts[id] = t
	}
	for id, u := range room.State.Users {
		copied := *u
		snap.Users[id] = &copied
	}
	copy(snap.Messages, room.State.Messages)
	return snap, true
}

// Stats returns the current room and user totals.
func (r *Registry) Stats() (rooms, users int) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rooms = len(r.rooms)
	for _, room := range r.rooms {
		users += len(room.State.Users)
	}
	return rooms, users
}
