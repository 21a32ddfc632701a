package server

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"whiteboard-backend/internal/config"
	"whiteboard-backend/internal/handler"
	"whiteboard-backend/internal/registry"
)

// Server Fiber 서버 래퍼
type Server struct {
	app      *fiber.App
	cfg      *config.Config
	registry *registry.Registry

	boardWSHandler *handler.BoardWSHandler
	roomAPIHandler *handler.RoomAPIHandler
}

// New 새 서버 인스턴스 생성
func New(cfg *config.Config, reg *registry.Registry) *Server {
	app := fiber.New(fiber.Config{
		AppName:        "Whiteboard Sync Server",
		ServerHeader:   "Fiber",
		StrictRouting:  true,
		CaseSensitive:  true,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		Prefork:        false, // WebSocket과 호환성 문제로 비활성화
		ReadBufferSize: 16384,
	})

	boardWSHandler := handler.NewBoardWSHandler(cfg, reg)

	return &Server{
		app:            app,
		cfg:            cfg,
		registry:       reg,
		boardWSHandler: boardWSHandler,
		roomAPIHandler: handler.NewRoomAPIHandler(reg, boardWSHandler),
	}
}

// SetupMiddleware 미들웨어 설정
func (s *Server) SetupMiddleware() {
	// 패닉 복구
	s.app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))

	// 로깅
	s.app.Use(logger.New(logger.Config{
		Format:     "${time} | ${status} | ${latency} | ${ip} | ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
	}))

	// CORS
	s.app.Use(cors.New(cors.Config{
		AllowOrigins:     s.cfg.CORS.AllowOrigins,
		AllowHeaders:     s.cfg.CORS.AllowHeaders,
		AllowMethods:     "GET, POST, OPTIONS",
		AllowCredentials: false,
	}))
}

// SetupRoutes 라우트 설정
func (s *Server) SetupRoutes() {
	// 헬스체크 엔드포인트
	s.app.Get("/health", s.roomAPIHandler.Check)
	s.app.Get("/health/live", s.roomAPIHandler.Liveness)
	s.app.Get("/health/ready", s.roomAPIHandler.Readiness)

	// Rate Limiter (방 ID 발급 남용 방지)
	roomLimiter := limiter.New(limiter.Config{
		Max:        30,              // 최대 30회
		Expiration: 1 * time.Minute, // 1분당
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP() // IP 기반 제한
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "too many requests, please try again later",
			})
		},
	})

	// Room 라우트
	s.app.Post("/api/rooms", roomLimiter, s.roomAPIHandler.CreateRoomID)
	s.app.Get("/api/rooms/:id", s.roomAPIHandler.RoomExists)

	// WebSocket 업그레이드 체크 미들웨어
	s.app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	// WebSocket 보드 동기화 엔드포인트
	s.app.Get("/ws/board", websocket.New(s.boardWSHandler.HandleWebSocket, websocket.Config{
		ReadBufferSize:  s.cfg.WebSocket.ReadBufferSize,
		WriteBufferSize: s.cfg.WebSocket.WriteBufferSize,
	}))
}

// Start 서버 시작 (Graceful Shutdown 지원)
func (s *Server) Start() error {
	// Graceful Shutdown 설정
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("🛑 Shutting down server...")
		s.registry.Stop()
		if err := s.app.ShutdownWithTimeout(30 * time.Second); err != nil {
			log.Fatalf("Server shutdown error: %v", err)
		}
	}()

	log.Printf("🚀 Whiteboard Sync Server starting on %s", s.cfg.Server.Port)
	log.Printf("📡 WebSocket endpoint: ws://localhost%s/ws/board", s.cfg.Server.Port)

	return s.app.Listen(s.cfg.Server.Port)
}

// Shutdown 서버 종료
func (s *Server) Shutdown() error {
	s.registry.Stop()
	return s.app.ShutdownWithTimeout(30 * time.Second)
}
