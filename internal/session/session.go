package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"whiteboard-backend/internal/model"
)

// State WebSocket 연결 상태
type State int

const (
	StateUnbound State = iota // 방 참가 전
	StateBound                // 방에 바인딩됨
	StateClosed               // 연결 종료 (terminal)
)

// String 상태를 문자열로 반환
func (s State) String() string {
	switch s {
	case StateUnbound:
		return "unbound"
	case StateBound:
		return "bound"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Session 클라이언트 연결 세션 (Thread-Safe)
//
// Lifecycle: Unbound → (join) → Bound → (disconnect) → Closed.
// Closed is terminal; a reconnecting client gets a fresh session.
type Session struct {
	ID          string
	ConnectedAt time.Time

	mu         sync.RWMutex
	state      State
	userID     string
	roomID     string
	name       string
	role       model.Role
	color      string
	eventCount uint64
}

// New 새 세션 생성
func New() *Session {
	return &Session{
		ID:          uuid.New().String(),
		ConnectedAt: time.Now(),
		state:       StateUnbound,
	}
}

// Bind 방 참가 성공 시 세션을 방에 바인딩. Returns false if the session is
// not Unbound (already joined, or already closed).
func (s *Session) Bind(userID, roomID, name string, role model.Role, color string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateUnbound {
		return false
	}
	s.state = StateBound
	s.userID = userID
	s.roomID = roomID
	s.name = name
	s.role = role
	s.color = color
	return true
}

// Close 세션 종료. Idempotent.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = StateClosed
}

// State 현재 상태 조회
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.state
}

// IsBound 바인딩 여부 확인
func (s *Session) IsBound() bool {
	return s.State() == StateBound
}

// Identity returns the bound (userID, roomID, name, color). Only meaningful
// while Bound.
func (s *Session) Identity() (userID, roomID, name, color string) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.userID, s.roomID, s.name, s.color
}

// UserID 바인딩된 사용자 ID 조회
func (s *Session) UserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.userID
}

// RoomID 바인딩된 방 ID 조회
func (s *Session) RoomID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.roomID
}

// Role 현재 역할 조회
func (s *Session) Role() model.Role {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.role
}

// SetRole 호스트 승격/강등 시 역할 갱신
func (s *Session) SetRole(role model.Role) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.role = role
}

// IncrementEventCount 처리한 이벤트 수 증가
func (s *Session) IncrementEventCount() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.eventCount++
	return s.eventCount
}

// EventCount 처리한 이벤트 수 조회
func (s *Session) EventCount() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.eventCount
}

// Duration 연결 유지 시간
func (s *Session) Duration() time.Duration {
	return time.Since(s.ConnectedAt)
}
