package config

import (
	"errors"
	"os"
	"strconv"
)

type Config struct {
	Port           string
	Env            string
	DefaultRoom    string
	MaxOperations  int
	HTTPRatePerSec int
	HTTPRateBurst  int
	CursorRate     int
}

func getenv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getint(key string, def int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil || v <= 0 {
		return def
	}
	return v
}

func Load() Config {
	return Config{
		Port:           getenv("APP_PORT", "8080"),
		Env:            getenv("APP_ENV", "dev"),
		DefaultRoom:    getenv("DEFAULT_ROOM", "main"),
		MaxOperations:  getint("MAX_OPERATIONS", 500),
		HTTPRatePerSec: getint("HTTP_RATE_PER_SEC", 20),
		HTTPRateBurst:  getint("HTTP_RATE_BURST", 40),
		CursorRate:     getint("CURSOR_RATE_PER_SEC", 30),
	}
}

// Validate 在启动前做基本检查，配置不合法时直接拒绝启动。
func Validate(cfg Config) error {
	if cfg.Port == "" {
		return errors.New("port must not be empty")
	}
	if cfg.DefaultRoom == "" {
		return errors.New("default room must not be empty")
	}
	if cfg.MaxOperations <= 0 {
		return errors.New("max operations must be positive")
	}
	return nil
}
