package app

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/moralgraph-backend/internal/http"
	httpH "github.com/yungbote/moralgraph-backend/internal/http/handlers"
	"github.com/yungbote/moralgraph-backend/internal/platform/logger"
)

type Handlers struct {
	Health       *httpH.HealthHandler
	Deliberation *httpH.DeliberationHandler
	Submission   *httpH.SubmissionHandler
	Value        *httpH.ValueHandler
	Vote         *httpH.VoteHandler
	Graph        *httpH.GraphHandler
	Job          *httpH.JobHandler
}

func wireHandlers(log *logger.Logger, cfg Config, services Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:       httpH.NewHealthHandler(),
		Deliberation: httpH.NewDeliberationHandler(services.Deliberations),
		Submission:   httpH.NewSubmissionHandler(services.Submissions),
		Value:        httpH.NewValueHandler(services.Values),
		Vote:         httpH.NewVoteHandler(services.Votes),
		Graph:        httpH.NewGraphHandler(services.Graph, cfg.Sampler),
		Job:          httpH.NewJobHandler(services.Jobs, services.Deliberations),
	}
}

func wireRouter(log *logger.Logger, cfg Config, handlers Handlers) *gin.Engine {
	return http.NewRouter(http.RouterConfig{
		Log:                 log,
		ServiceName:         cfg.Server.ServiceName,
		CORSOrigins:         cfg.Server.CORSOrigins,
		HealthHandler:       handlers.Health,
		DeliberationHandler: handlers.Deliberation,
		SubmissionHandler:   handlers.Submission,
		ValueHandler:        handlers.Value,
		VoteHandler:         handlers.Vote,
		GraphHandler:        handlers.Graph,
		JobHandler:          handlers.Job,
	})
}
