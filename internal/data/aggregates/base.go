package aggregates

import (
	"context"
	"strings"
	"time"

	domain "github.com/yungbote/schoolbridge-backend/internal/domain/mastery"
	"github.com/yungbote/schoolbridge-backend/internal/platform/dbctx"
	"github.com/yungbote/schoolbridge-backend/internal/platform/logger"
	"gorm.io/gorm"
)

type BaseDeps struct {
	DB       *gorm.DB
	Log      *logger.Logger
	Runner   TxRunner
	Hooks    Hooks
	CASGuard CASGuard
}

func (d BaseDeps) withDefaults() BaseDeps {
	if d.Runner == nil {
		d.Runner = NewGormTxRunner(d.DB)
	}
	if d.Hooks == nil {
		d.Hooks = noopHooks{}
	}
	if d.CASGuard.db == nil {
		d.CASGuard = NewCASGuard(d.DB)
	}
	if d.Log == nil {
		d.Log = logger.NewNop()
	}
	return d
}

// executeWrite runs fn in one transaction and reports the outcome through
// hooks. The returned error always carries an engine error code.
func executeWrite(ctx context.Context, deps BaseDeps, op string, fn func(dbc dbctx.Context) error) error {
	start := time.Now()
	deps = deps.withDefaults()
	op = strings.TrimSpace(op)
	if op == "" {
		op = "aggregate.write"
	}
	err := deps.Runner.InTx(ctx, fn)
	mapped := MapError(op, err)

	status := "success"
	if mapped != nil {
		status = aggregateErrorStatus(mapped)
		switch domain.CodeOf(mapped) {
		case domain.CodeConflict:
			deps.Hooks.IncConflict(op)
		case domain.CodeRetryable:
			deps.Hooks.IncRetry(op)
		case domain.CodeInternal, domain.CodeInvariantViolation:
			deps.Log.Warn("aggregate write failed", "op", op, "error", mapped)
		}
	}
	deps.Hooks.ObserveOperation(op, status, time.Since(start))
	return mapped
}

func aggregateErrorStatus(err error) string {
	if err == nil {
		return "success"
	}
	code := strings.TrimSpace(string(domain.CodeOf(err)))
	if code == "" {
		code = strings.TrimSpace(string(domain.CodeOf(MapError("aggregate.status", err))))
	}
	if code == "" {
		return "failure"
	}
	return code
}
