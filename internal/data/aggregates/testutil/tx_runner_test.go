package testutil

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/yungbote/schoolbridge-backend/internal/platform/dbctx"
)

func TestInjectedTxRunnerCommitsOnSuccess(t *testing.T) {
	r := &InjectedTxRunner{}
	called := false
	err := r.InTx(context.Background(), func(_ dbctx.Context) error {
		called = true
		return nil
	})
	if err != nil || !called {
		t.Fatalf("err=%v called=%v", err, called)
	}
	if r.BeginCalls != 1 || r.CommitCalls != 1 || r.RollbackCalls != 0 {
		t.Fatalf("unexpected counters begin=%d commit=%d rollback=%d", r.BeginCalls, r.CommitCalls, r.RollbackCalls)
	}
}

func TestInjectedTxRunnerFailCommitOnlyFirstTimes(t *testing.T) {
	commitErr := errors.New("commit failed")
	r := &InjectedTxRunner{FailCommit: commitErr, FailTimes: 1}
	if err := r.InTx(context.Background(), func(_ dbctx.Context) error { return nil }); !errors.Is(err, commitErr) {
		t.Fatalf("first call should fail with commit err, got %v", err)
	}
	if err := r.InTx(context.Background(), func(_ dbctx.Context) error { return nil }); err != nil {
		t.Fatalf("second call should succeed, got %v", err)
	}
	if r.RollbackCalls != 1 || r.CommitCalls != 1 {
		t.Fatalf("unexpected counters commit=%d rollback=%d", r.CommitCalls, r.RollbackCalls)
	}
}

func TestHooksRecorderStatusCounts(t *testing.T) {
	h := &HooksRecorder{}
	h.ObserveOperation("op", "success", time.Millisecond)
	h.ObserveOperation("op", "conflict", time.Millisecond)
	h.ObserveOperation("other", "success", time.Millisecond)
	got := h.StatusCounts("op")
	if got["success"] != 1 || got["conflict"] != 1 || len(got) != 2 {
		t.Fatalf("unexpected counts: %v", got)
	}
}
