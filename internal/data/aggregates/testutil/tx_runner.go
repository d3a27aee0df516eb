package testutil

import (
	"context"
	"sync"

	"github.com/yungbote/moralgraph-backend/internal/data/aggregates"
	"github.com/yungbote/moralgraph-backend/internal/platform/dbctx"
)

// InjectedTxRunner runs the body without a database and counts outcomes.
// Fakes observe Rollback via the returned error.
type InjectedTxRunner struct {
	mu sync.Mutex

	FailBegin  error
	FailCommit error

	BeginCalls    int
	CommitCalls   int
	RollbackCalls int
}

var _ aggregates.TxRunner = (*InjectedTxRunner)(nil)

func (r *InjectedTxRunner) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	r.mu.Lock()
	r.BeginCalls++
	failBegin := r.FailBegin
	failCommit := r.FailCommit
	r.mu.Unlock()

	if failBegin != nil {
		return failBegin
	}
	if fn != nil {
		if err := fn(dbctx.Context{Ctx: ctx}); err != nil {
			r.mu.Lock()
			r.RollbackCalls++
			r.mu.Unlock()
			return err
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if failCommit != nil {
		r.RollbackCalls++
		return failCommit
	}
	r.CommitCalls++
	return nil
}
