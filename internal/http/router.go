package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/schoolbridge-backend/internal/http/handlers"
	httpMW "github.com/yungbote/schoolbridge-backend/internal/http/middleware"
	"github.com/yungbote/schoolbridge-backend/internal/observability"
	"github.com/yungbote/schoolbridge-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	Metrics        *observability.Metrics
	ServiceName    string
	CORSOrigins    []string
	AuthMiddleware *httpMW.AuthMiddleware

	MasteryHandler *httpH.MasteryHandler
	HealthHandler  *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.CORSOrigins...))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	api := r.Group("/api")
	if cfg.AuthMiddleware != nil {
		api.Use(cfg.AuthMiddleware.RequireAuth())
	}

	// Mastery
	if cfg.MasteryHandler != nil {
		m := api.Group("/mastery")
		m.POST("/runs", httpMW.RequireCapability(httpMW.CapRunSnapshots), cfg.MasteryHandler.TriggerRun)
		m.GET("/runs/:id", httpMW.RequireCapability(httpMW.CapReadMastery), cfg.MasteryHandler.GetRun)
		m.GET("/runs/:id/snapshots", httpMW.RequireCapability(httpMW.CapReadMastery), cfg.MasteryHandler.ListRunSnapshots)
		m.GET("/snapshots/:id", httpMW.RequireCapability(httpMW.CapReadMastery), cfg.MasteryHandler.GetSnapshot)
		m.POST("/snapshots/:id/submit", httpMW.RequireCapability(httpMW.CapSubmitSnapshot), cfg.MasteryHandler.SubmitSnapshot)
		m.POST("/snapshots/:id/review", httpMW.RequireCapability(httpMW.CapReviewSnapshot), cfg.MasteryHandler.ReviewSnapshot)
	}

	return r
}
