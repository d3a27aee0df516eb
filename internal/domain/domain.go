package domain

import (
	"github.com/yungbote/moralgraph-backend/internal/domain/graph"
	"github.com/yungbote/moralgraph-backend/internal/domain/jobs"
	"github.com/yungbote/moralgraph-backend/internal/domain/values"
)

type Deliberation = values.Deliberation
type Question = values.Question
type QuestionContext = values.QuestionContext
type Value = values.Value
type RawSubmission = values.RawSubmission
type Context = values.Context

type Edge = graph.Edge
type EdgeHypothesis = graph.EdgeHypothesis
type VoteType = graph.VoteType
type Direction = graph.Direction

const (
	VoteUpgrade   = graph.VoteUpgrade
	VoteNoUpgrade = graph.VoteNoUpgrade
	VoteNotSure   = graph.VoteNotSure

	DirectionForward = graph.DirectionForward
	DirectionReverse = graph.DirectionReverse
)

func ParseVoteType(raw string) (VoteType, error) { return graph.ParseVoteType(raw) }

type JobRun = jobs.JobRun

// Models lists every table in migration order.
func Models() []any {
	return []any{
		&Deliberation{},
		&Question{},
		&Context{},
		&QuestionContext{},
		&Value{},
		&RawSubmission{},
		&Edge{},
		&EdgeHypothesis{},
		&JobRun{},
	}
}
