package mastery

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/schoolbridge-backend/internal/data/aggregates"
	"github.com/yungbote/schoolbridge-backend/internal/data/repos"
	domain "github.com/yungbote/schoolbridge-backend/internal/domain/mastery"
	"github.com/yungbote/schoolbridge-backend/internal/observability"
	"github.com/yungbote/schoolbridge-backend/internal/platform/dbctx"
	"github.com/yungbote/schoolbridge-backend/internal/platform/logger"
)

// reviewActionInvalid labels review attempts whose action did not parse.
const reviewActionInvalid = "invalid"

type ReviewWorkflowDeps struct {
	Log     *logger.Logger
	Metrics *observability.Metrics

	Snapshots repos.SnapshotRepo
	Models    repos.MasteryModelRepo
	Writer    aggregates.ReviewWriter
	Now       func() time.Time
}

// ReviewWorkflow moves a snapshot through its review lifecycle. It never
// re-classifies; an override records a reviewer's level next to the computed one.
type ReviewWorkflow interface {
	Review(ctx context.Context, actor Actor, snapshotID uuid.UUID, req ReviewRequest) (*domain.Snapshot, error)
	Submit(ctx context.Context, actor Actor, snapshotID uuid.UUID) (*domain.Snapshot, error)
}

type reviewWorkflow struct {
	deps ReviewWorkflowDeps
	log  *logger.Logger
}

func NewReviewWorkflow(deps ReviewWorkflowDeps) ReviewWorkflow {
	if deps.Log == nil {
		deps.Log = logger.NewNop()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &reviewWorkflow{deps: deps, log: deps.Log.With("service", "ReviewWorkflow")}
}

func (w *reviewWorkflow) Submit(ctx context.Context, actor Actor, snapshotID uuid.UUID) (*domain.Snapshot, error) {
	ctx, span := observability.Tracer().Start(ctx, "mastery.review.submit")
	defer span.End()
	if err := requireActor("mastery.review.submit", actor, snapshotID); err != nil {
		return nil, err
	}
	out, err := w.deps.Writer.Transition(ctx, aggregates.ReviewTransitionInput{
		SnapshotID:     snapshotID,
		OrganizationID: actor.OrganizationID,
		ActorID:        actor.UserID,
		Action:         domain.ActionSubmit,
		At:             w.deps.Now(),
	})
	w.observe(span, domain.ActionSubmit, err)
	return out, err
}

func (w *reviewWorkflow) Review(ctx context.Context, actor Actor, snapshotID uuid.UUID, req ReviewRequest) (*domain.Snapshot, error) {
	const op = "mastery.review"
	ctx, span := observability.Tracer().Start(ctx, "mastery.review")
	defer span.End()
	span.SetAttributes(attribute.String("snapshot.id", snapshotID.String()), attribute.String("review.action", req.Action))

	if err := requireActor(op, actor, snapshotID); err != nil {
		return nil, err
	}
	if err := validateStruct(op, req); err != nil {
		label := domain.ReviewAction(reviewActionInvalid)
		if parsed, ok := domain.ParseReviewAction(req.Action); ok {
			label = parsed
		}
		w.observe(span, label, err)
		return nil, err
	}
	action, _ := domain.ParseReviewAction(req.Action)
	notes := strings.TrimSpace(req.ReviewerNotes)
	justification := strings.TrimSpace(req.OverrideJustification)

	fields := map[string]string{}
	var overrideID *uuid.UUID
	switch action {
	case domain.ActionRequestChanges:
		if notes == "" {
			fields["reviewer_notes"] = "required when requesting changes"
		}
	case domain.ActionOverride:
		if req.OverrideLevelID == "" {
			fields["override_level_id"] = "required when overriding"
		} else {
			id := uuid.MustParse(req.OverrideLevelID)
			overrideID = &id
		}
		if justification == "" {
			fields["override_justification"] = "required when overriding"
		}
	}
	if len(fields) > 0 {
		err := domain.ValidationFailed(op, fields)
		w.observe(span, action, err)
		return nil, err
	}

	if overrideID != nil {
		if err := w.checkOverrideLevel(ctx, actor.OrganizationID, snapshotID, *overrideID); err != nil {
			w.observe(span, action, err)
			return nil, err
		}
	}

	out, err := w.deps.Writer.Transition(ctx, aggregates.ReviewTransitionInput{
		SnapshotID:      snapshotID,
		OrganizationID:  actor.OrganizationID,
		ActorID:         actor.UserID,
		Action:          action,
		Notes:           notes,
		OverrideLevelID: overrideID,
		Justification:   justification,
		At:              w.deps.Now(),
	})
	w.observe(span, action, err)
	if err != nil {
		return nil, err
	}
	w.log.Info("snapshot reviewed", "snapshot_id", out.ID, "action", action, "review_status", out.ReviewStatus, "reviewer_id", actor.UserID)
	return out, nil
}

// checkOverrideLevel requires the override level to come from the same
// mastery model as the computed level.
func (w *reviewWorkflow) checkOverrideLevel(ctx context.Context, orgID, snapshotID, levelID uuid.UUID) error {
	const op = "mastery.review.override_level"
	dbc := dbctx.Background(ctx)
	snap, err := w.deps.Snapshots.GetByID(dbc, orgID, snapshotID)
	if err != nil {
		return domain.Wrap(domain.CodeInternal, op, err)
	}
	if snap == nil {
		return domain.NewError(domain.CodeNotFound, op, "snapshot not found", nil)
	}
	current, err := w.deps.Models.GetLevel(dbc, snap.MasteryLevelID)
	if err != nil {
		return domain.Wrap(domain.CodeInternal, op, err)
	}
	override, err := w.deps.Models.GetLevel(dbc, levelID)
	if err != nil {
		return domain.Wrap(domain.CodeInternal, op, err)
	}
	if override == nil || current == nil || override.ModelID != current.ModelID {
		return domain.ValidationFailed(op, map[string]string{
			"override_level_id": "must be a level of the snapshot's mastery model",
		})
	}
	return nil
}

func (w *reviewWorkflow) observe(span trace.Span, action domain.ReviewAction, err error) {
	result := "ok"
	if err != nil {
		result = string(domain.CodeOf(err))
		if result == "" {
			result = "error"
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, result)
	}
	w.deps.Metrics.IncReview(string(action), result)
}

func requireActor(op string, actor Actor, snapshotID uuid.UUID) error {
	fields := map[string]string{}
	if actor.UserID == uuid.Nil || actor.OrganizationID == uuid.Nil {
		fields["actor"] = "an authenticated user with an organization is required"
	}
	if snapshotID == uuid.Nil {
		fields["snapshot_id"] = "required"
	}
	if len(fields) > 0 {
		return domain.ValidationFailed(op, fields)
	}
	return nil
}
