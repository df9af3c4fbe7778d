package aggregates

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/yungbote/schoolbridge-backend/internal/data/repos"
	domain "github.com/yungbote/schoolbridge-backend/internal/domain/mastery"
	"github.com/yungbote/schoolbridge-backend/internal/platform/dbctx"
)

type ReviewWriterDeps struct {
	Base BaseDeps

	Snapshots repos.SnapshotRepo
	Events    repos.ReviewEventRepo
}

// ReviewWriter applies one review transition to a snapshot. Only review
// columns are written; the computed judgment is never touched.
type ReviewWriter interface {
	Transition(ctx context.Context, in ReviewTransitionInput) (*domain.Snapshot, error)
}

type ReviewTransitionInput struct {
	SnapshotID      uuid.UUID
	OrganizationID  uuid.UUID
	ActorID         uuid.UUID
	Action          domain.ReviewAction
	Notes           string
	OverrideLevelID *uuid.UUID
	Justification   string
	At              time.Time
}

type reviewWriter struct {
	deps ReviewWriterDeps
}

func NewReviewWriter(deps ReviewWriterDeps) ReviewWriter {
	deps.Base = deps.Base.withDefaults()
	return &reviewWriter{deps: deps}
}

func (w *reviewWriter) Transition(ctx context.Context, in ReviewTransitionInput) (*domain.Snapshot, error) {
	const op = "Mastery.Review.Transition"
	if in.SnapshotID == uuid.Nil || in.ActorID == uuid.Nil {
		return nil, domain.NewError(domain.CodeValidation, op, "snapshot_id and actor are required", nil)
	}
	if in.Action == domain.ActionOverride && (in.OverrideLevelID == nil || *in.OverrideLevelID == uuid.Nil) {
		return nil, domain.ValidationFailed(op, map[string]string{"override_level_id": "required"})
	}
	if w.deps.Snapshots == nil || w.deps.Events == nil {
		return nil, domain.NewError(domain.CodeInternal, op, "review writer repos not configured", nil)
	}
	at := in.At.UTC()
	if in.At.IsZero() {
		at = time.Now().UTC()
	}
	notes := strings.TrimSpace(in.Notes)
	justification := strings.TrimSpace(in.Justification)

	var out *domain.Snapshot
	err := executeWrite(ctx, w.deps.Base, op, func(dbc dbctx.Context) error {
		cur, err := w.deps.Snapshots.GetByID(dbc, in.OrganizationID, in.SnapshotID)
		if err != nil {
			return err
		}
		if cur == nil {
			return domain.NewError(domain.CodeNotFound, op, "snapshot not found", nil)
		}
		from := cur.ReviewStatus
		if from == "" {
			from = domain.ReviewDraft
		}
		to, err := domain.NextReviewStatus(from, in.Action)
		if err != nil {
			return err
		}

		actor := in.ActorID
		updates := map[string]any{
			"review_status": to,
			"updated_at":    at,
		}
		switch in.Action {
		case domain.ActionSubmit:
			updates["submitted_at"] = at
			updates["submitted_by"] = actor
		case domain.ActionOverride:
			updates["override_level_id"] = *in.OverrideLevelID
			updates["override_justification"] = justification
			fallthrough
		default:
			updates["reviewer_notes"] = notes
			updates["reviewed_by"] = actor
			updates["reviewed_at"] = at
		}

		ok, err := w.deps.Base.CASGuard.UpdateByStatus(dbc, "snapshot", "review_status", cur.ID, []string{string(from)}, updates)
		if err != nil {
			return err
		}
		if err := RequireCASSuccess(ok, "snapshot review state changed concurrently"); err != nil {
			return err
		}

		event := &domain.SnapshotReviewEvent{
			SnapshotID: cur.ID,
			Action:     in.Action,
			FromStatus: from,
			ToStatus:   to,
			Notes:      notes,
			ActorID:    actor,
			CreatedAt:  at,
		}
		if in.Action == domain.ActionOverride {
			event.OverrideLevelID = in.OverrideLevelID
			event.Justification = justification
		}
		if _, err := w.deps.Events.Create(dbc, event); err != nil {
			return err
		}

		out, err = w.deps.Snapshots.GetByID(dbc, in.OrganizationID, cur.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
