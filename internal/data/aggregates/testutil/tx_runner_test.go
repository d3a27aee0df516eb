package testutil

import (
	"context"
	"errors"
	"testing"

	"github.com/yungbote/moralgraph-backend/internal/platform/dbctx"
)

func TestInjectedTxRunnerCounts(t *testing.T) {
	r := &InjectedTxRunner{}
	if err := r.InTx(context.Background(), func(dbctx.Context) error { return nil }); err != nil {
		t.Fatalf("InTx: %v", err)
	}
	boom := errors.New("boom")
	if err := r.InTx(context.Background(), func(dbctx.Context) error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("expected body error, got %v", err)
	}
	r.FailCommit = errors.New("commit")
	if err := r.InTx(context.Background(), func(dbctx.Context) error { return nil }); err == nil {
		t.Fatalf("expected commit error")
	}
	if r.BeginCalls != 3 || r.CommitCalls != 1 || r.RollbackCalls != 2 {
		t.Fatalf("unexpected counts begin=%d commit=%d rollback=%d", r.BeginCalls, r.CommitCalls, r.RollbackCalls)
	}
}
