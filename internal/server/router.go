package server

import (
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"drawboard/internal/config"
	"drawboard/internal/metrics"
	"drawboard/internal/mw"
	"drawboard/internal/room"
	"drawboard/internal/session"
	"drawboard/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

// SetupRouter 统一初始化 Gin 中间件、诊断 API 以及 WebSocket 端点。
func SetupRouter(cfg config.Config, rooms *room.Registry, sessions *session.Registry) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(metrics.GinMiddleware())
	r.Use(mw.CORS(cfg.Env))
	r.Use(mw.RateLimit(rate.Limit(cfg.HTTPRatePerSec), cfg.HTTPRateBurst))

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")

	api.GET("/rooms", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"rooms": rooms.List()})
	})

	api.GET("/rooms/:id", func(c *gin.Context) {
		st := rooms.Stats(c.Param("id"))
		if st == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
			return
		}
		c.JSON(http.StatusOK, st)
	})

	// 增量拉取接口：返回 ID 严格大于 since 的操作，供客户端补拉。
	api.GET("/rooms/:id/operations", func(c *gin.Context) {
		rm := rooms.Get(c.Param("id"))
		if rm == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
			return
		}
		since, err := strconv.ParseInt(c.DefaultQuery("since", "0"), 10, 64)
		if err != nil || since < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid since"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"operations": rm.Log.Since(since)})
	})

	handler := ws.NewHandler(rooms)
	r.GET("/ws", ws.Serve(rooms, sessions, handler))

	// 未匹配的 GET 请求回落到静态客户端，根路径返回 index.html。
	webDir := filepath.Join(".", "web")
	r.NoRoute(func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Status(http.StatusNotFound)
			return
		}
		rel := strings.TrimPrefix(filepath.Clean(c.Request.URL.Path), "/")
		if rel == "" || rel == "." {
			rel = "index.html"
		}
		target := filepath.Join(webDir, rel)
		if fi, err := os.Stat(target); err == nil && !fi.IsDir() {
			c.File(target)
			return
		}
		c.Status(http.StatusNotFound)
	})
	return r
}
