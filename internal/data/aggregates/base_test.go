package aggregates

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	domain "github.com/yungbote/schoolbridge-backend/internal/domain/mastery"
	"github.com/yungbote/schoolbridge-backend/internal/platform/dbctx"
)

func TestExecuteWriteReportsStatusByCode(t *testing.T) {
	cases := []struct {
		name      string
		body      error
		status    string
		conflicts int
		retries   int
	}{
		{"success", nil, "success", 0, 0},
		{"invariant", InvariantError("count mismatch"), string(domain.CodeInvariantViolation), 0, 0},
		{"conflict", ConflictError("stale review state"), string(domain.CodeConflict), 1, 0},
		{"retryable", fmt.Errorf("finalize run: %w", context.DeadlineExceeded), string(domain.CodeRetryable), 0, 1},
		{"coded", domain.NewError(domain.CodeNotFound, "x", "missing", nil), string(domain.CodeNotFound), 0, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			hooks := &spyHooks{}
			op := "Mastery.Test." + tc.name
			err := executeWrite(context.Background(), BaseDeps{Runner: spyTxRunner{}, Hooks: hooks}, op,
				func(_ dbctx.Context) error { return tc.body })
			if (tc.body == nil) != (err == nil) {
				t.Fatalf("err=%v", err)
			}
			if len(hooks.Operations) != 1 || hooks.Operations[0].Status != tc.status || hooks.Operations[0].Name != op {
				t.Fatalf("operations: %+v", hooks.Operations)
			}
			if len(hooks.Conflicts) != tc.conflicts || len(hooks.Retries) != tc.retries {
				t.Fatalf("conflicts=%v retries=%v", hooks.Conflicts, hooks.Retries)
			}
		})
	}
}

func TestExecuteWriteWithoutDB(t *testing.T) {
	called := false
	err := executeWrite(context.Background(), BaseDeps{Runner: NewGormTxRunner(nil)}, "Mastery.Test.NoDB", func(_ dbctx.Context) error {
		called = true
		return nil
	})
	if called {
		t.Fatalf("body must not run without a db")
	}
	if !domain.IsCode(err, domain.CodeInternal) {
		t.Fatalf("nil db should be internal, got %v", err)
	}
}

func TestAggregateErrorStatus(t *testing.T) {
	if got := aggregateErrorStatus(nil); got != "success" {
		t.Fatalf("nil status: want=success got=%s", got)
	}
	if got := aggregateErrorStatus(context.DeadlineExceeded); got != string(domain.CodeRetryable) {
		t.Fatalf("deadline status: got=%s", got)
	}
	if got := aggregateErrorStatus(errors.New("boom")); got != string(domain.CodeInternal) {
		t.Fatalf("plain error status: got=%s", got)
	}
}

func TestFanoutDeliversToEveryHook(t *testing.T) {
	a, b := &spyHooks{}, &spyHooks{}
	h := Fanout(a, nil, b)
	h.IncConflict("op")
	h.IncRetry("op")
	h.ObserveOperation("op", "success", time.Millisecond)
	for _, s := range []*spyHooks{a, b} {
		if len(s.Conflicts) != 1 || len(s.Retries) != 1 || len(s.Operations) != 1 {
			t.Fatalf("hook missed events: %+v", s)
		}
	}
}

type spyTxRunner struct{}

func (spyTxRunner) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(dbctx.Context{Ctx: ctx})
}

type spyHooks struct {
	Operations []spyOperation
	Conflicts  []string
	Retries    []string
}

type spyOperation struct {
	Name   string
	Status string
}

func (h *spyHooks) ObserveOperation(name, status string, _ time.Duration) {
	h.Operations = append(h.Operations, spyOperation{Name: name, Status: status})
}

func (h *spyHooks) IncConflict(name string) {
	h.Conflicts = append(h.Conflicts, name)
}

func (h *spyHooks) IncRetry(name string) {
	h.Retries = append(h.Retries, name)
}
