package aggregates

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/yungbote/schoolbridge-backend/internal/data/repos"
	domain "github.com/yungbote/schoolbridge-backend/internal/domain/mastery"
	"github.com/yungbote/schoolbridge-backend/internal/platform/dbctx"
)

type SnapshotWriterDeps struct {
	Base BaseDeps

	Snapshots repos.SnapshotRepo
	Links     repos.EvidenceLinkRepo
}

// SnapshotWriter persists one computed judgment together with the evidence
// links behind it. Either both land or neither does.
type SnapshotWriter interface {
	CreateWithEvidence(ctx context.Context, in CreateSnapshotInput) (*domain.Snapshot, error)
}

type CreateSnapshotInput struct {
	Snapshot *domain.Snapshot
	Items    []domain.EvidenceItem
}

type snapshotWriter struct {
	deps SnapshotWriterDeps
}

func NewSnapshotWriter(deps SnapshotWriterDeps) SnapshotWriter {
	deps.Base = deps.Base.withDefaults()
	return &snapshotWriter{deps: deps}
}

func (w *snapshotWriter) CreateWithEvidence(ctx context.Context, in CreateSnapshotInput) (*domain.Snapshot, error) {
	const op = "Mastery.Snapshot.CreateWithEvidence"
	s := in.Snapshot
	if s == nil {
		return nil, domain.NewError(domain.CodeValidation, op, "missing snapshot", nil)
	}
	fields := map[string]string{}
	for name, id := range map[string]uuid.UUID{
		"run_id":           s.RunID,
		"organization_id":  s.OrganizationID,
		"learner_id":       s.LearnerID,
		"competency_id":    s.CompetencyID,
		"mastery_level_id": s.MasteryLevelID,
		"confirmed_by":     s.ConfirmedBy,
	} {
		if id == uuid.Nil {
			fields[name] = "required"
		}
	}
	if len(fields) > 0 {
		return nil, domain.ValidationFailed(op, fields)
	}
	if s.EvidenceCount != len(in.Items) {
		return nil, domain.NewError(domain.CodeInvariantViolation, op,
			fmt.Sprintf("evidence_count %d does not match %d evidence items", s.EvidenceCount, len(in.Items)), nil)
	}
	if w.deps.Snapshots == nil || w.deps.Links == nil {
		return nil, domain.NewError(domain.CodeInternal, op, "snapshot writer repos not configured", nil)
	}

	err := executeWrite(ctx, w.deps.Base, op, func(dbc dbctx.Context) error {
		// the id must be fixed before links reference it
		if s.ID == uuid.Nil {
			s.ID = uuid.New()
		}
		links := make([]*domain.EvidenceLink, 0, len(in.Items))
		for _, it := range in.Items {
			link, err := domain.NewEvidenceLink(s.ID, it, s.CreatedBy)
			if err != nil {
				return err
			}
			links = append(links, link)
		}
		if _, err := w.deps.Snapshots.Create(dbc, s); err != nil {
			return err
		}
		if _, err := w.deps.Links.Create(dbc, links); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}
