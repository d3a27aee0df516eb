package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/moralgraph-backend/internal/data/repos"
	"github.com/yungbote/moralgraph-backend/internal/platform/logger"
)

type Repos struct {
	Deliberation repos.DeliberationRepo
	Question     repos.QuestionRepo
	Value        repos.ValueRepo
	Submission   repos.SubmissionRepo
	Context      repos.ContextRepo
	Edge         repos.EdgeRepo
	Hypothesis   repos.HypothesisRepo
	JobRun       repos.JobRunRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Deliberation: repos.NewDeliberationRepo(db, log),
		Question:     repos.NewQuestionRepo(db, log),
		Value:        repos.NewValueRepo(db, log),
		Submission:   repos.NewSubmissionRepo(db, log),
		Context:      repos.NewContextRepo(db, log),
		Edge:         repos.NewEdgeRepo(db, log),
		Hypothesis:   repos.NewHypothesisRepo(db, log),
		JobRun:       repos.NewJobRunRepo(db, log),
	}
}
