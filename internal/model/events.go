package model

// EventType WebSocket 이벤트 타입
type EventType string

const (
	// Inbound (client → server)
	EventRoomJoin   EventType = "room:join"
	EventChatSend   EventType = "chat:send"
	EventBoardClear EventType = "board:clear"

	// Inbound and re-broadcast (edits keep the same name both ways)
	EventStrokeAdded   EventType = "stroke:added"
	EventStrokesErased EventType = "strokes:erased"
	EventTextAdded     EventType = "text:added"
	EventCursorUpdate  EventType = "cursor:update"

	// Outbound only
	EventRoomJoined   EventType = "room:joined"
	EventRoomError    EventType = "room:error"
	EventUserJoined   EventType = "user:joined"
	EventUserLeft     EventType = "user:left"
	EventHostChanged  EventType = "host:changed"
	EventBoardCleared EventType = "board:cleared"
	EventChatNew      EventType = "chat:new"
)

// String 메서드
func (e EventType) String() string {
	return string(e)
}

// ErrorCodeRoomNotFound is the only error surfaced to clients.
const ErrorCodeRoomNotFound = "ROOM_NOT_FOUND"

// Envelope WebSocket 메시지 봉투
type Envelope struct {
	Type    EventType   `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// JoinRequest 방 참가 요청
type JoinRequest struct {
	RoomID     string `json:"roomId"`
	UserName   string `json:"userName"`
	IsCreating bool   `json:"isCreating"`
}

// JoinSuccess 참가 성공 응답 (참가자 본인에게만 전송)
type JoinSuccess struct {
	State     *WhiteboardState `json:"state"`
	UserID    string           `json:"userId"`
	Role      Role             `json:"role"`
	UserColor string           `json:"userColor"`
}

// JoinError 참가 실패 응답
type JoinError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ChatSend 채팅 전송 요청 (content만 신뢰, 나머지는 서버 스탬핑)
type ChatSend struct {
	Content string `json:"content"`
}

// CursorUpdate 커서 위치 (transient - 상태에 저장되지 않음)
type CursorUpdate struct {
	UserID    string `json:"userId"`
	UserName  string `json:"userName"`
	UserColor string `json:"userColor"`
	Position  Point  `json:"position"`
	IsActive  bool   `json:"isActive"`
}
