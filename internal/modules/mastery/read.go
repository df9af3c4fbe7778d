package mastery

import (
	"context"

	"github.com/google/uuid"

	"github.com/yungbote/schoolbridge-backend/internal/data/repos"
	domain "github.com/yungbote/schoolbridge-backend/internal/domain/mastery"
	"github.com/yungbote/schoolbridge-backend/internal/platform/dbctx"
)

const (
	defaultPageSize = 100
	maxPageSize     = 500
)

// SnapshotDetail is a snapshot with the evidence and review history behind it.
type SnapshotDetail struct {
	Snapshot         *domain.Snapshot              `json:"snapshot"`
	EffectiveLevelID uuid.UUID                     `json:"effective_level_id"`
	EvidenceLinks    []*domain.EvidenceLink        `json:"evidence_links"`
	ReviewEvents     []*domain.SnapshotReviewEvent `json:"review_events"`
}

type SnapshotPage struct {
	Items  []*domain.Snapshot `json:"items"`
	Total  int64              `json:"total"`
	Limit  int                `json:"limit"`
	Offset int                `json:"offset"`
}

type Reader interface {
	GetRun(ctx context.Context, orgID, runID uuid.UUID) (*domain.SnapshotRun, error)
	ListRunSnapshots(ctx context.Context, orgID, runID uuid.UUID, limit, offset int) (*SnapshotPage, error)
	GetSnapshot(ctx context.Context, orgID, snapshotID uuid.UUID) (*SnapshotDetail, error)
}

type ReaderDeps struct {
	Runs      repos.SnapshotRunRepo
	Snapshots repos.SnapshotRepo
	Links     repos.EvidenceLinkRepo
	Events    repos.ReviewEventRepo
}

type reader struct {
	deps ReaderDeps
}

func NewReader(deps ReaderDeps) Reader { return &reader{deps: deps} }

func (r *reader) GetRun(ctx context.Context, orgID, runID uuid.UUID) (*domain.SnapshotRun, error) {
	const op = "mastery.read.run"
	run, err := r.deps.Runs.GetByID(dbctx.Background(ctx), orgID, runID)
	if err != nil {
		return nil, domain.Wrap(domain.CodeInternal, op, err)
	}
	if run == nil {
		return nil, domain.NewError(domain.CodeNotFound, op, "run not found", nil)
	}
	return run, nil
}

func (r *reader) ListRunSnapshots(ctx context.Context, orgID, runID uuid.UUID, limit, offset int) (*SnapshotPage, error) {
	const op = "mastery.read.run_snapshots"
	if _, err := r.GetRun(ctx, orgID, runID); err != nil {
		return nil, err
	}
	switch {
	case limit <= 0:
		limit = defaultPageSize
	case limit > maxPageSize:
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	dbc := dbctx.Background(ctx)
	total, err := r.deps.Snapshots.CountByRun(dbc, runID)
	if err != nil {
		return nil, domain.Wrap(domain.CodeInternal, op, err)
	}
	items, err := r.deps.Snapshots.ListByRun(dbc, runID, limit, offset)
	if err != nil {
		return nil, domain.Wrap(domain.CodeInternal, op, err)
	}
	if items == nil {
		items = []*domain.Snapshot{}
	}
	return &SnapshotPage{Items: items, Total: total, Limit: limit, Offset: offset}, nil
}

func (r *reader) GetSnapshot(ctx context.Context, orgID, snapshotID uuid.UUID) (*SnapshotDetail, error) {
	const op = "mastery.read.snapshot"
	dbc := dbctx.Background(ctx)
	snap, err := r.deps.Snapshots.GetByID(dbc, orgID, snapshotID)
	if err != nil {
		return nil, domain.Wrap(domain.CodeInternal, op, err)
	}
	if snap == nil {
		return nil, domain.NewError(domain.CodeNotFound, op, "snapshot not found", nil)
	}
	links, err := r.deps.Links.ListBySnapshot(dbc, snap.ID)
	if err != nil {
		return nil, domain.Wrap(domain.CodeInternal, op, err)
	}
	events, err := r.deps.Events.ListBySnapshot(dbc, snap.ID)
	if err != nil {
		return nil, domain.Wrap(domain.CodeInternal, op, err)
	}
	if links == nil {
		links = []*domain.EvidenceLink{}
	}
	if events == nil {
		events = []*domain.SnapshotReviewEvent{}
	}
	return &SnapshotDetail{
		Snapshot:         snap,
		EffectiveLevelID: snap.EffectiveLevelID(),
		EvidenceLinks:    links,
		ReviewEvents:     events,
	}, nil
}
