package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/shouni/gemini-imagine/internal/config"
	"github.com/shouni/gemini-imagine/internal/presets"
	"github.com/shouni/gemini-imagine/pkg/session"
)

type Server struct {
	httpServer *http.Server
	log        *zap.Logger
}

// NewRouter はルーティングを設定した gin.Engine を返します。
func NewRouter(h *Handler, secureCookie bool, log *zap.Logger) *gin.Engine {
	if log == nil {
		log = zap.NewNop()
	}
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(log), SessionMiddleware(secureCookie))

	router.GET("/", h.GetUI)
	router.GET("/health", h.HealthCheck)

	api := router.Group("/api")
	{
		api.GET("/presets", h.GetPresets)
		api.GET("/session", h.GetSession)
		api.POST("/enhance", h.EnhancePrompt)
		api.POST("/generate", h.GenerateImage)
		api.POST("/history/:id/select", h.SelectImage)
		api.DELETE("/history", h.ClearHistory)
		api.POST("/error/dismiss", h.DismissError)
		api.GET("/images/current/download", h.DownloadCurrent)
	}
	return router
}

func New(cfg *config.Config, registry *session.Registry, p *presets.Presets, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	if !cfg.Log.Development {
		gin.SetMode(gin.ReleaseMode)
	}

	h := NewHandler(registry, p, log)
	router := NewRouter(h, cfg.Session.SecureCookie, log)

	s := &Server{
		httpServer: &http.Server{
			Addr:           cfg.Server.Addr(),
			Handler:        router,
			ReadTimeout:    cfg.Server.ReadTimeout,
			WriteTimeout:   cfg.Server.WriteTimeout,
			MaxHeaderBytes: 1 << 20, // 1 MB
		},
		log: log,
	}

	log.Info("Server created successfully",
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port))
	return s
}

// Run はサーバーを起動します。Shutdown による終了はエラーとしません。
func (s *Server) Run() error {
	s.log.Info("Server is running", zap.String("address", s.httpServer.Addr))

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("Shutting down server")
	return s.httpServer.Shutdown(ctx)
}

func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		}
		if c.Request.URL.Path == "/health" {
			log.Debug("request", fields...)
			return
		}
		log.Info("request", fields...)
	}
}
