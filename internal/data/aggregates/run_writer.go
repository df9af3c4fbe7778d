package aggregates

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/yungbote/schoolbridge-backend/internal/data/repos"
	domain "github.com/yungbote/schoolbridge-backend/internal/domain/mastery"
	"github.com/yungbote/schoolbridge-backend/internal/platform/dbctx"
	"gorm.io/datatypes"
)

type RunWriterDeps struct {
	Base BaseDeps

	Runs      repos.SnapshotRunRepo
	Snapshots repos.SnapshotRepo
}

// RunWriter opens and closes snapshot runs. A run is finalized exactly once,
// and its snapshot_count is taken from the rows actually written.
type RunWriter interface {
	Start(ctx context.Context, run *domain.SnapshotRun) (*domain.SnapshotRun, error)
	Finalize(ctx context.Context, in FinalizeRunInput) (*domain.SnapshotRun, error)
}

type FinalizeRunInput struct {
	RunID          uuid.UUID
	OrganizationID uuid.UUID
	Status         domain.RunStatus
	PairsTotal     int
	PairsSkipped   int
	PairsFailed    int
	Summary        domain.RunSummary
	FinishedAt     time.Time
}

type runWriter struct {
	deps RunWriterDeps
}

func NewRunWriter(deps RunWriterDeps) RunWriter {
	deps.Base = deps.Base.withDefaults()
	return &runWriter{deps: deps}
}

func (w *runWriter) Start(ctx context.Context, run *domain.SnapshotRun) (*domain.SnapshotRun, error) {
	const op = "Mastery.Run.Start"
	if run == nil || run.OrganizationID == uuid.Nil || run.ScopeID == uuid.Nil || run.MasteryModelID == uuid.Nil {
		return nil, domain.NewError(domain.CodeValidation, op, "run requires organization, scope and mastery model", nil)
	}
	if w.deps.Runs == nil {
		return nil, domain.NewError(domain.CodeInternal, op, "run writer repos not configured", nil)
	}
	run.Status = domain.RunRunning
	run.SnapshotCount = 0
	err := executeWrite(ctx, w.deps.Base, op, func(dbc dbctx.Context) error {
		_, err := w.deps.Runs.Create(dbc, run)
		return err
	})
	if err != nil {
		return nil, err
	}
	return run, nil
}

func (w *runWriter) Finalize(ctx context.Context, in FinalizeRunInput) (*domain.SnapshotRun, error) {
	const op = "Mastery.Run.Finalize"
	if in.RunID == uuid.Nil {
		return nil, domain.NewError(domain.CodeValidation, op, "missing run_id", nil)
	}
	if in.Status != domain.RunCompleted && in.Status != domain.RunFailed {
		return nil, domain.NewError(domain.CodeValidation, op, "final status must be completed or failed", nil)
	}
	if w.deps.Runs == nil || w.deps.Snapshots == nil {
		return nil, domain.NewError(domain.CodeInternal, op, "run writer repos not configured", nil)
	}
	finishedAt := in.FinishedAt.UTC()
	if in.FinishedAt.IsZero() {
		finishedAt = time.Now().UTC()
	}
	summary, err := json.Marshal(in.Summary)
	if err != nil {
		return nil, domain.Wrap(domain.CodeInternal, op, err)
	}

	var out *domain.SnapshotRun
	err = executeWrite(ctx, w.deps.Base, op, func(dbc dbctx.Context) error {
		count, err := w.deps.Snapshots.CountByRun(dbc, in.RunID)
		if err != nil {
			return err
		}
		ok, err := w.deps.Runs.UpdateFieldsIfStatus(dbc, in.RunID, domain.RunRunning, map[string]interface{}{
			"snapshot_count": int(count),
			"status":         in.Status,
			"pairs_total":    in.PairsTotal,
			"pairs_skipped":  in.PairsSkipped,
			"pairs_failed":   in.PairsFailed,
			"summary":        datatypes.JSON(summary),
			"finished_at":    finishedAt,
		})
		if err != nil {
			return err
		}
		if err := RequireCASSuccess(ok, "run is not running"); err != nil {
			return err
		}
		out, err = w.deps.Runs.GetByID(dbc, in.OrganizationID, in.RunID)
		if err != nil {
			return err
		}
		if out == nil {
			return InvariantError("finalized run not readable in its organization")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
