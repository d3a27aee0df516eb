package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/moralgraph-backend/internal/http/handlers"
	httpMW "github.com/yungbote/moralgraph-backend/internal/http/middleware"
	"github.com/yungbote/moralgraph-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log         *logger.Logger
	ServiceName string
	CORSOrigins []string

	DeliberationHandler *httpH.DeliberationHandler
	SubmissionHandler   *httpH.SubmissionHandler
	ValueHandler        *httpH.ValueHandler
	VoteHandler         *httpH.VoteHandler
	GraphHandler        *httpH.GraphHandler
	JobHandler          *httpH.JobHandler

	HealthHandler *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "moralgraph"
	}
	r.Use(otelgin.Middleware(serviceName))
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS(cfg.CORSOrigins...))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api")
	{
		// Deliberations
		if cfg.DeliberationHandler != nil {
			api.POST("/deliberations", cfg.DeliberationHandler.Create)
			api.GET("/deliberations", cfg.DeliberationHandler.List)
			api.GET("/deliberations/:id", cfg.DeliberationHandler.Get)
			api.POST("/deliberations/:id/questions", cfg.DeliberationHandler.AddQuestions)
			api.POST("/deliberations/:id/contexts", cfg.DeliberationHandler.AddContext)
			api.GET("/deliberations/:id/contexts", cfg.DeliberationHandler.ListContexts)
		}

		// Submissions
		if cfg.SubmissionHandler != nil {
			api.POST("/deliberations/:id/submissions", cfg.SubmissionHandler.Submit)
		}

		// Values
		if cfg.ValueHandler != nil {
			api.GET("/deliberations/:id/values", cfg.ValueHandler.List)
			api.GET("/deliberations/:id/values/:valueId", cfg.ValueHandler.Get)
			api.PUT("/deliberations/:id/values/:valueId/policies", cfg.ValueHandler.UpdatePolicies)
		}

		// Votes
		if cfg.VoteHandler != nil {
			api.POST("/deliberations/:id/votes", cfg.VoteHandler.Cast)
		}

		// Graph
		if cfg.GraphHandler != nil {
			api.GET("/deliberations/:id/graph", cfg.GraphHandler.Summary)
			api.GET("/deliberations/:id/hypotheses/draw", cfg.GraphHandler.Draw)
		}

		// Jobs
		if cfg.JobHandler != nil {
			api.POST("/deliberations/:id/jobs/dedupe", cfg.JobHandler.TriggerDedupe)
			api.POST("/deliberations/:id/jobs/contexts-dedupe", cfg.JobHandler.TriggerContextsDedupe)
			api.POST("/deliberations/:id/jobs/hypotheses", cfg.JobHandler.TriggerHypotheses)
			api.GET("/jobs/:id", cfg.JobHandler.GetJob)
		}
	}

	return r
}
