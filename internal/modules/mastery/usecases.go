package mastery

import (
	"context"
	"io"

	"github.com/google/uuid"

	domain "github.com/yungbote/schoolbridge-backend/internal/domain/mastery"
	"github.com/yungbote/schoolbridge-backend/internal/platform/logger"
)

type UsecasesDeps struct {
	Log *logger.Logger

	Runs     RunCoordinator
	Review   ReviewWorkflow
	Reader   Reader
	Importer ModelImporter
}

// Usecases is the surface the HTTP handlers and CLI commands call.
type Usecases struct {
	deps UsecasesDeps
}

func New(deps UsecasesDeps) Usecases { return Usecases{deps: deps} }

func (u Usecases) WithLog(log *logger.Logger) Usecases {
	u.deps.Log = log
	return u
}

func (u Usecases) TriggerRun(ctx context.Context, actor Actor, req TriggerRequest) (*RunResult, error) {
	return u.deps.Runs.Trigger(ctx, actor, req)
}

func (u Usecases) ReviewSnapshot(ctx context.Context, actor Actor, snapshotID uuid.UUID, req ReviewRequest) (*domain.Snapshot, error) {
	return u.deps.Review.Review(ctx, actor, snapshotID, req)
}

func (u Usecases) SubmitSnapshot(ctx context.Context, actor Actor, snapshotID uuid.UUID) (*domain.Snapshot, error) {
	return u.deps.Review.Submit(ctx, actor, snapshotID)
}

func (u Usecases) GetRun(ctx context.Context, actor Actor, runID uuid.UUID) (*domain.SnapshotRun, error) {
	return u.deps.Reader.GetRun(ctx, actor.OrganizationID, runID)
}

func (u Usecases) ListRunSnapshots(ctx context.Context, actor Actor, runID uuid.UUID, limit, offset int) (*SnapshotPage, error) {
	return u.deps.Reader.ListRunSnapshots(ctx, actor.OrganizationID, runID, limit, offset)
}

func (u Usecases) GetSnapshot(ctx context.Context, actor Actor, snapshotID uuid.UUID) (*SnapshotDetail, error) {
	return u.deps.Reader.GetSnapshot(ctx, actor.OrganizationID, snapshotID)
}

func (u Usecases) ImportModel(ctx context.Context, orgID uuid.UUID, r io.Reader) (*ImportResult, error) {
	doc, err := ParseModelDocument(r)
	if err != nil {
		return nil, err
	}
	return u.deps.Importer.Import(ctx, orgID, doc)
}
