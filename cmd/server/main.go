package main

import (
	"log"

	"whiteboard-backend/internal/config"
	"whiteboard-backend/internal/registry"
	"whiteboard-backend/internal/server"
)

func main() {
	// 설정 로드
	cfg := config.Load()

	// 방 레지스트리 초기화 (in-memory, 프로세스 종료 시 소멸)
	reg := registry.New(cfg.Room.CleanupGrace)

	// 서버 생성 및 설정
	srv := server.New(cfg, reg)
	srv.SetupMiddleware()
	srv.SetupRoutes()

	// 서버 시작
	if err := srv.Start(); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}
