package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/moralgraph-backend/internal/data/repos/graph"
	"github.com/yungbote/moralgraph-backend/internal/data/repos/jobs"
	"github.com/yungbote/moralgraph-backend/internal/data/repos/values"
	"github.com/yungbote/moralgraph-backend/internal/platform/logger"
)

type DeliberationRepo = values.DeliberationRepo
type QuestionRepo = values.QuestionRepo
type ValueRepo = values.ValueRepo
type SubmissionRepo = values.SubmissionRepo
type ContextRepo = values.ContextRepo
type ValueMatch = values.ValueMatch
type ContextMatch = values.ContextMatch

type EdgeRepo = graph.EdgeRepo
type HypothesisRepo = graph.HypothesisRepo
type HypothesisPair = graph.HypothesisPair

type JobRunRepo = jobs.JobRunRepo

func NewDeliberationRepo(db *gorm.DB, baseLog *logger.Logger) DeliberationRepo {
	return values.NewDeliberationRepo(db, baseLog)
}
func NewQuestionRepo(db *gorm.DB, baseLog *logger.Logger) QuestionRepo {
	return values.NewQuestionRepo(db, baseLog)
}
func NewValueRepo(db *gorm.DB, baseLog *logger.Logger) ValueRepo {
	return values.NewValueRepo(db, baseLog)
}
func NewSubmissionRepo(db *gorm.DB, baseLog *logger.Logger) SubmissionRepo {
	return values.NewSubmissionRepo(db, baseLog)
}
func NewContextRepo(db *gorm.DB, baseLog *logger.Logger) ContextRepo {
	return values.NewContextRepo(db, baseLog)
}

func NewEdgeRepo(db *gorm.DB, baseLog *logger.Logger) EdgeRepo {
	return graph.NewEdgeRepo(db, baseLog)
}
func NewHypothesisRepo(db *gorm.DB, baseLog *logger.Logger) HypothesisRepo {
	return graph.NewHypothesisRepo(db, baseLog)
}

func NewJobRunRepo(db *gorm.DB, baseLog *logger.Logger) JobRunRepo {
	return jobs.NewJobRunRepo(db, baseLog)
}
