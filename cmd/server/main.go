package main

import (
	"drawboard/internal/config"
	clog "drawboard/internal/log"
	"drawboard/internal/room"
	"drawboard/internal/server"
	"drawboard/internal/session"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

func main() {
	// main 函数负责加载配置、初始化日志并启动 Gin 服务，全部状态驻留内存。
	_ = godotenv.Load()
	cfg := config.Load()
	clog.Init(cfg.Env)
	if err := config.Validate(cfg); err != nil {
		log.Fatal().Err(err).Msg("config validate")
	}

	rooms := room.NewRegistry(cfg.DefaultRoom, cfg.MaxOperations)
	sessions := session.NewRegistry(cfg.CursorRate)

	r := server.SetupRouter(cfg, rooms, sessions)
	log.Info().Str("port", cfg.Port).Str("default_room", cfg.DefaultRoom).Msg("server starting")
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server run")
	}
}
