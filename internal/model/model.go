package model

// Point 캔버스 좌표
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Stroke 한 번의 펜 제스처 (polyline)
type Stroke struct {
	ID        string  `json:"id"`
	Points    []Point `json:"points"`
	Color     string  `json:"color"`
	Thickness float64 `json:"thickness"`
	AuthorID  string  `json:"authorId"`
}

// TextItem 캔버스 텍스트
type TextItem struct {
	ID         string  `json:"id"`
	Position   Point   `json:"position"`
	Content    string  `json:"content"`
	FontSize   float64 `json:"fontSize"`
	Color      string  `json:"color"`
	AuthorID   string  `json:"authorId"`
	FontFamily string  `json:"fontFamily,omitempty"`
	Rotation   float64 `json:"rotation,omitempty"`
}

// ChatMessage 채팅 메시지 (서버에서 id/timestamp/발신자 정보 스탬핑)
type ChatMessage struct {
	ID        string `json:"id"`
	UserID    string `json:"userId"`
	UserName  string `json:"userName"`
	UserColor string `json:"userColor"`
	Content   string `json:"content"`
	Timestamp int64  `json:"timestamp"` // ms epoch
}

// Role 방 내 사용자 역할
type Role string

const (
	RoleHost        Role = "host"
	RoleParticipant Role = "participant"
)

// String 메서드
func (r Role) String() string {
	return string(r)
}

// User 방에 참여 중인 사용자
type User struct {
	UserID string `json:"userId"`
	Role   Role   `json:"role"`
	Color  string `json:"color"`
	Name   string `json:"name"`
}

// WhiteboardState 공유 문서 전체 (serializable)
type WhiteboardState struct {
	Strokes  map[string]*Stroke   `json:"strokes"`
	Texts    map[string]*TextItem `json:"texts"`
	Users    map[string]*User     `json:"users"`
	Messages []*ChatMessage       `json:"messages"`
}

// NewWhiteboardState 빈 상태 생성
func NewWhiteboardState() *WhiteboardState {
	return &WhiteboardState{
		Strokes:  make(map[string]*Stroke),
		Texts:    make(map[string]*TextItem),
		Users:    make(map[string]*User),
		Messages: make([]*ChatMessage, 0),
	}
}

// Room 협업 세션. HostID is "" while the room has zero members.
type Room struct {
	ID     string           `json:"id"`
	State  *WhiteboardState `json:"state"`
	HostID string           `json:"hostId"`
}

// UserColors 사용자 색상 팔레트 (12색, 무작위 할당 - 중복 허용)
var UserColors = [12]string{
	"#E74C3C", "#E67E22", "#F1C40F", "#2ECC71",
	"#1ABC9C", "#3498DB", "#9B59B6", "#E91E63",
	"#16A085", "#2980B9", "#8E44AD", "#D35400",
}
