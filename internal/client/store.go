package client

import (
	"sync"

	"github.com/google/uuid"

	"whiteboard-backend/internal/geometry"
	"whiteboard-backend/internal/model"
)

// =============================================================================
// Sync Store - client-held mirror of the shared whiteboard state
// =============================================================================

// Status 연결 상태
type Status string

const (
	StatusDisconnected Status = "disconnected"
	StatusConnecting   Status = "connecting"
	StatusConnected    Status = "connected"
)

// ToolConfig 로컬 도구 설정 (동기화 대상 아님)
type ToolConfig struct {
	Tool         string
	Color        string
	Thickness    float64
	FontSize     float64
	EraserRadius float64
	EraserMode   geometry.Mode
}

// DefaultHistoryLimit 채팅 표시 한도 (표시/메모리 제한 - 정합성 제약 아님)
const DefaultHistoryLimit = 200

// Store mirrors the server's WhiteboardState plus local-only transient
// state: live cursors of other users, the in-progress stroke, and tool
// configuration. Locally originated edits are applied optimistically; the
// server never echoes a sender's own edit back, so nothing double-applies.
type Store struct {
	mu sync.RWMutex

	status       Status
	self         model.User
	state        *model.WhiteboardState
	cursors      map[string]model.CursorUpdate
	pending      []model.Point
	tool         ToolConfig
	historyLimit int
}

// NewStore 빈 스토어 생성
func NewStore() *Store {
	return &Store{
		status:       StatusDisconnected,
		state:        model.NewWhiteboardState(),
		cursors:      make(map[string]model.CursorUpdate),
		historyLimit: DefaultHistoryLimit,
		tool: ToolConfig{
			Tool:         "pen",
			Color:        "#000000",
			Thickness:    2,
			FontSize:     16,
			EraserRadius: 12,
			EraserMode:   geometry.ModePixel,
		},
	}
}

// SetStatus 연결 상태 변경
func (s *Store) SetStatus(status Status) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.status = status
}

// Status 연결 상태 조회
func (s *Store) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.status
}

// Hydrate replaces the entire mirrored document. Used once, on join.
func (s *Store) Hydrate(state *model.WhiteboardState, self model.User) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if state == nil {
		state = model.NewWhiteboardState()
	}
	if state.Strokes == nil {
		state.Strokes = make(map[string]*model.Stroke)
	}
	if state.Texts == nil {
		state.Texts = make(map[string]*model.TextItem)
	}
	if state.Users == nil {
		state.Users = make(map[string]*model.User)
	}
	s.state = state
	s.self = self
	s.status = StatusConnected
	s.trimMessagesLocked()
}

// Self 본인 정보 조회
func (s *Store) Self() model.User {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.self
}

// Tool 도구 설정 조회
func (s *Store) Tool() ToolConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.tool
}

// SetTool 도구 설정 변경
func (s *Store) SetTool(tool ToolConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tool = tool
}

// AddStroke 스트로크 추가 (서버 푸시 및 낙관적 로컬 반영 공용)
func (s *Store) AddStroke(stroke *model.Stroke) {
	if stroke == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.Strokes[stroke.ID] = stroke
}

// RemoveStrokes 스트로크 일괄 삭제 (없는 id는 무시)
func (s *Store) RemoveStrokes(ids []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range ids {
		delete(s.state.Strokes, id)
	}
}

// ApplyErase applies one pixel-erase outcome as a single atomic update:
// removals and replacement fragments land together or not at all.
func (s *Store) ApplyErase(result geometry.EraseResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range result.RemoveIDs {
		delete(s.state.Strokes, id)
	}
	for _, stroke := range result.NewStrokes {
		s.state.Strokes[stroke.ID] = stroke
	}
}

// AddText 텍스트 추가
func (s *Store) AddText(text *model.TextItem) {
	if text == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.Texts[text.ID] = text
}

// AddMessage 채팅 메시지 추가 (한도 초과 시 오래된 것부터 삭제)
func (s *Store) AddMessage(msg *model.ChatMessage) {
	if msg == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.Messages = append(s.state.Messages, msg)
	s.trimMessagesLocked()
}

func (s *Store) trimMessagesLocked() {
	if over := len(s.state.Messages) - s.historyLimit; over > 0 {
		s.state.Messages = append([]*model.ChatMessage(nil), s.state.Messages[over:]...)
	}
}

// ClearBoard 보드 비우기 (strokes + texts)
func (s *Store) ClearBoard() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.Strokes = make(map[string]*model.Stroke)
	s.state.Texts = make(map[string]*model.TextItem)
}

// AddUser 사용자 입장 반영
func (s *Store) AddUser(user *model.User) {
	if user == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.Users[user.UserID] = user
}

// RemoveUser 사용자 퇴장 반영. The user's live cursor goes with them.
func (s *Store) RemoveUser(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.state.Users, userID)
	delete(s.cursors, userID)
}

// SetHostChanged recomputes every mirrored user's role against the new
// host id, including our own - the promoted client must recognize itself
// as the new host.
func (s *Store) SetHostChanged(newHostID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, user := range s.state.Users {
		if id == newHostID {
			user.Role = model.RoleHost
		} else {
			user.Role = model.RoleParticipant
		}
	}
	if s.self.UserID == newHostID {
		s.self.Role = model.RoleHost
	} else if s.self.Role == model.RoleHost {
		s.self.Role = model.RoleParticipant
	}
}

// SetCursor 다른 사용자 커서 위치 갱신 (상태에 저장되지 않는 transient)
func (s *Store) SetCursor(cursor model.CursorUpdate) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cursors[cursor.UserID] = cursor
}

// Cursors 커서 맵 스냅샷
func (s *Store) Cursors() map[string]model.CursorUpdate {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]model.CursorUpdate, len(s.cursors))
	for id, c := range s.cursors {
		out[id] = c
	}
	return out
}

// BeginStroke pointer-down: 로컬 스트로크 시작
func (s *Store) BeginStroke(p model.Point) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pending = []model.Point{p}
}

// AppendPoint pointer-move: 진행 중 스트로크에 점 추가
func (s *Store) AppendPoint(p model.Point) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending != nil {
		s.pending = append(s.pending, p)
	}
}

// PendingPoints 진행 중 스트로크 조회 (렌더링용)
func (s *Store) PendingPoints() []model.Point {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]model.Point(nil), s.pending...)
}

// EndStroke pointer-up: 진행 중 스트로크를 확정. Returns the finished
// stroke, already applied optimistically, or nil when fewer than two
// points accumulated (never shared).
func (s *Store) EndStroke() *model.Stroke {
	s.mu.Lock()
	defer s.mu.Unlock()

	points := s.pending
	s.pending = nil
	if len(points) < 2 {
		return nil
	}

	stroke := &model.Stroke{
		ID:        uuid.New().String(),
		Points:    points,
		Color:     s.tool.Color,
		Thickness: s.tool.Thickness,
		AuthorID:  s.self.UserID,
	}
	s.state.Strokes[stroke.ID] = stroke
	return stroke
}

// Strokes 스트로크 목록 스냅샷 (지우개 연산용)
func (s *Store) Strokes() []*model.Stroke {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*model.Stroke, 0, len(s.state.Strokes))
	for _, stroke := range s.state.Strokes {
		out = append(out, stroke)
	}
	return out
}

// Stroke 단일 스트로크 조회
func (s *Store) Stroke(id string) (*model.Stroke, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stroke, ok := s.state.Strokes[id]
	return stroke, ok
}

// Texts 텍스트 목록 스냅샷
func (s *Store) Texts() []*model.TextItem {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*model.TextItem, 0, len(s.state.Texts))
	for _, t := range s.state.Texts {
		out = append(out, t)
	}
	return out
}

// Users 사용자 맵 스냅샷
func (s *Store) Users() map[string]*model.User {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]*model.User, len(s.state.Users))
	for id, u := range s.state.Users {
		copied := *u
		out[id] = &copied
	}
	return out
}

// Messages 채팅 이력 스냅샷
func (s *Store) Messages() []*model.ChatMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]*model.ChatMessage(nil), s.state.Messages...)
}
