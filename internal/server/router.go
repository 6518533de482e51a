package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/omkarspace/Doc-Check/internal/auth"
)

// HealthFunc reports backing-store liveness for the health endpoint.
type HealthFunc func(ctx context.Context) error

type Router struct {
	engine  *gin.Engine
	logger  *slog.Logger
	authSvc *auth.Service
	authH   *AuthHandler
	batchH  *BatchHandler
	docH    *DocumentHandler
	statsH  *StatsHandler
	health  HealthFunc
}

func NewRouter(
	logger *slog.Logger,
	authSvc *auth.Service,
	authH *AuthHandler,
	batchH *BatchHandler,
	docH *DocumentHandler,
	statsH *StatsHandler,
	health HealthFunc,
) *Router {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(RequestID())
	engine.Use(RequestLogger(logger))
	engine.Use(Recovery(logger))

	return &Router{
		engine:  engine,
		logger:  logger,
		authSvc: authSvc,
		authH:   authH,
		batchH:  batchH,
		docH:    docH,
		statsH:  statsH,
		health:  health,
	}
}

func (r *Router) SetupRoutes() {
	r.engine.GET("/healthz", func(c *gin.Context) {
		if r.health != nil {
			if err := r.health(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "down", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "up"})
	})

	api := r.engine.Group("/api")
	v1 := r.engine.Group("/api/v1")

	v1.POST("/auth/login", r.authH.Login)
	v1.POST("/auth/register", r.authH.Register)
	v1.POST("/auth/logout", r.authH.Logout)

	authorized := api.Group("/")
	authorized.Use(RequireAuth(r.authSvc))
	{
		authorized.POST("/batches", r.batchH.Create)
		authorized.GET("/batches", r.batchH.List)
		authorized.GET("/batches/:id", r.batchH.Get)
		authorized.PATCH("/batches/:id", r.batchH.Update)
		authorized.DELETE("/batches/:id", r.batchH.Cancel)
		authorized.POST("/batches/:id/documents", r.batchH.AddDocuments)
		authorized.POST("/batches/:id/dispatch", r.batchH.Dispatch)
	}

	authorizedV1 := v1.Group("/")
	authorizedV1.Use(RequireAuth(r.authSvc))
	{
		authorizedV1.POST("/documents/upload", r.docH.Upload)
		authorizedV1.GET("/documents", r.docH.List)
		authorizedV1.GET("/documents/list", r.docH.List)
		authorizedV1.GET("/documents/:id", r.docH.Get)
		authorizedV1.GET("/documents/:id/result", r.docH.GetResult)
		authorizedV1.GET("/documents/:id/versions", r.docH.ListVersions)
		authorizedV1.POST("/documents/:id/retry", r.docH.Retry)
		authorizedV1.GET("/batches/:id/export", r.batchH.Export)
		authorizedV1.GET("/analytics/statistics", r.statsH.Statistics)
	}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
