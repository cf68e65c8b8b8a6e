package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"hexaosint/api/internal/config"
	"hexaosint/api/internal/middleware"
	"hexaosint/api/internal/providers/facecrawler"
	"hexaosint/api/internal/providers/serpapi"
	"hexaosint/api/internal/repository"
	"hexaosint/api/internal/service"
	"hexaosint/api/internal/storage"
)

type HandlerSet struct {
	log     zerolog.Logger
	cfg     *config.AppConfig
	auth    *service.AuthService
	targets *service.TargetService
	db      *pgxpool.Pool
	cache   *redis.Client
}

func NewHandlerSet(log zerolog.Logger, db *pgxpool.Pool, cache *redis.Client, evidence *storage.EvidenceStore, cfg *config.AppConfig) HandlerSet {
	userRepo := repository.NewUserRepository(db)
	tokenRepo := repository.NewTokenRepository(db)
	scanRepo := repository.NewScanRepository(db)

	auth := service.NewAuthService(userRepo, tokenRepo, cfg.Security, log)
	targets := service.NewTargetService(
		scanRepo,
		serpapi.New(cfg.Providers.SerpAPIKey),
		facecrawler.New(cfg.Providers.FaceCrawlerKey, cfg.Providers.FaceCrawlerSite),
		evidence,
		cache,
		cfg.Providers,
		log,
	)

	return HandlerSet{
		log:     log,
		cfg:     cfg,
		auth:    auth,
		targets: targets,
		db:      db,
		cache:   cache,
	}
}

func (h HandlerSet) Mount(router *gin.RouterGroup) {
	router.GET("/healthz", h.Health)

	limited := middleware.RateLimit(h.cache, h.cfg.RateLimit, h.log)
	authed := middleware.Auth(h.auth)

	v1 := router.Group("/v1")
	{
		auth := v1.Group("/auth")
		auth.POST("/register", limited, h.Register)
		auth.POST("/login", limited, h.Login)
		auth.POST("/refresh", h.Refresh)
		auth.POST("/logout", h.Logout)

		protected := v1.Group("/auth")
		protected.Use(authed)
		protected.POST("/logout-all", h.LogoutAll)
		protected.GET("/me", h.Me)
		protected.GET("/verify-token", h.VerifyToken)
		protected.GET("/sessions", h.ListSessions)

		target := v1.Group("/target")
		target.Use(authed)
		target.POST("/text-search", h.TextSearch)
		target.POST("/image-search/send", h.ImageSearchSend)
		target.POST("/image-search/receive", h.ImageSearchReceive)

		v1.GET("/scans", authed, h.ListScans)

		admin := v1.Group("/admin")
		admin.Use(authed, middleware.RequireAdmin())
		admin.GET("/users", h.AdminListUsers)
		admin.PATCH("/users/:id/status", h.AdminSetUserStatus)
	}
}

// internalError logs the full failure server-side and returns an opaque
// message; internal detail never reaches the client.
func (h HandlerSet) internalError(c *gin.Context, err error, msg string) {
	h.log.Error().Err(err).
		Str("path", c.Request.URL.Path).
		Msg(msg)
	c.JSON(500, gin.H{"error": "internal_server_error"})
}
