package testutil

import (
	"context"
	"errors"
	"sync"

	"github.com/yungbote/schoolbridge-backend/internal/data/aggregates"
	"github.com/yungbote/schoolbridge-backend/internal/platform/dbctx"
	"gorm.io/gorm"
)

// InjectedTxRunner wraps a real transaction runner (or none, when DB is nil)
// and injects failures. A failure injected after the body rolls the real
// transaction back, so tests can assert nothing was persisted. FailTimes
// limits how many calls fail; zero means every call.
type InjectedTxRunner struct {
	mu sync.Mutex

	DB *gorm.DB

	FailBegin  error
	FailCommit error
	FailTimes  int

	BeginCalls    int
	CommitCalls   int
	RollbackCalls int
}

var _ aggregates.TxRunner = (*InjectedTxRunner)(nil)

var errInjectedCommit = errors.New("injected commit failure")

func (r *InjectedTxRunner) shouldFail() bool {
	return r.FailTimes == 0 || r.BeginCalls <= r.FailTimes
}

func (r *InjectedTxRunner) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	r.mu.Lock()
	r.BeginCalls++
	fail := r.shouldFail()
	failBegin, failCommit := r.FailBegin, r.FailCommit
	r.mu.Unlock()

	if fail && failBegin != nil {
		return failBegin
	}

	body := func(dbc dbctx.Context) error {
		if fn != nil {
			if err := fn(dbc); err != nil {
				return err
			}
		}
		if fail && failCommit != nil {
			return errors.Join(errInjectedCommit, failCommit)
		}
		return nil
	}

	var err error
	if r.DB != nil {
		err = r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return body(dbctx.Context{Ctx: ctx, Tx: tx})
		})
	} else {
		err = body(dbctx.Context{Ctx: ctx})
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil {
		r.RollbackCalls++
		if errors.Is(err, errInjectedCommit) {
			return failCommit
		}
		return err
	}
	r.CommitCalls++
	return nil
}
