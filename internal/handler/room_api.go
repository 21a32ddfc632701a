package handler

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"whiteboard-backend/internal/registry"
)

// RoomAPIHandler 방 조회/발급 REST 핸들러. Read-only against the registry
// plus opaque room-id issuance - no synchronization logic lives here.
type RoomAPIHandler struct {
	registry  *registry.Registry
	boardWS   *BoardWSHandler
	startedAt time.Time
}

// NewRoomAPIHandler RoomAPIHandler 생성
func NewRoomAPIHandler(reg *registry.Registry, boardWS *BoardWSHandler) *RoomAPIHandler {
	return &RoomAPIHandler{
		registry:  reg,
		boardWS:   boardWS,
		startedAt: time.Now(),
	}
}

// ComponentCheck 컴포넌트 상태
type ComponentCheck struct {
	Status string `json:"status"`
	Rooms  int    `json:"rooms,omitempty"`
	Users  int    `json:"users,omitempty"`
	Conns  int    `json:"connections,omitempty"`
}

// HealthResponse 헬스체크 응답
type HealthResponse struct {
	Status    string                    `json:"status"`
	Timestamp string                    `json:"timestamp"`
	Uptime    string                    `json:"uptime"`
	Checks    map[string]ComponentCheck `json:"checks"`
}

// Check 전체 상태 확인
func (h *RoomAPIHandler) Check(c *fiber.Ctx) error {
	rooms, users := h.registry.Stats()

	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().Format(time.RFC3339),
		Uptime:    time.Since(h.startedAt).Round(time.Second).String(),
		Checks: map[string]ComponentCheck{
			"registry": {Status: "healthy", Rooms: rooms, Users: users},
			"websocket": {
				Status: "healthy",
				Conns:  h.boardWS.ConnectionCount(),
			},
		},
	}

	return c.JSON(response)
}

// Liveness K8s liveness probe용 (단순 체크)
func (h *RoomAPIHandler) Liveness(c *fiber.Ctx) error {
	return c.SendString("OK")
}

// Readiness K8s readiness probe용
func (h *RoomAPIHandler) Readiness(c *fiber.Ctx) error {
	return c.SendString("READY")
}

// RoomExists "방이 존재하는가" 조회
func (h *RoomAPIHandler) RoomExists(c *fiber.Ctx) error {
	roomID := c.Params("id")
	if roomID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Room id is required"})
	}

	_, exists := h.registry.GetRoom(roomID)
	return c.JSON(fiber.Map{"roomId": roomID, "exists": exists})
}

// CreateRoomID issues a fresh opaque room id. The room itself is only
// created when the first client joins it over the websocket.
func (h *RoomAPIHandler) CreateRoomID(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"roomId": NewRoomID()})
}

// NewRoomID 짧은 불투명 방 식별자 생성
func NewRoomID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
}
