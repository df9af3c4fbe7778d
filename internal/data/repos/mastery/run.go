package mastery

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	domain "github.com/yungbote/schoolbridge-backend/internal/domain/mastery"
	"github.com/yungbote/schoolbridge-backend/internal/platform/dbctx"
	"github.com/yungbote/schoolbridge-backend/internal/platform/logger"
)

type SnapshotRunRepo interface {
	Create(dbc dbctx.Context, run *domain.SnapshotRun) (*domain.SnapshotRun, error)
	GetByID(dbc dbctx.Context, orgID, id uuid.UUID) (*domain.SnapshotRun, error)
	ListByScope(dbc dbctx.Context, orgID uuid.UUID, kind domain.ScopeKind, scopeID uuid.UUID) ([]*domain.SnapshotRun, error)
	// UpdateFieldsIfStatus applies updates only while the run is in status.
	UpdateFieldsIfStatus(dbc dbctx.Context, id uuid.UUID, status domain.RunStatus, updates map[string]interface{}) (bool, error)
}

type snapshotRunRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSnapshotRunRepo(db *gorm.DB, baseLog *logger.Logger) SnapshotRunRepo {
	return &snapshotRunRepo{
		db:  db,
		log: baseLog.With("repo", "SnapshotRunRepo"),
	}
}

func (r *snapshotRunRepo) Create(dbc dbctx.Context, run *domain.SnapshotRun) (*domain.SnapshotRun, error) {
	if err := dbc.DB(r.db).Create(run).Error; err != nil {
		return nil, err
	}
	return run, nil
}

func (r *snapshotRunRepo) GetByID(dbc dbctx.Context, orgID, id uuid.UUID) (*domain.SnapshotRun, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var run domain.SnapshotRun
	if err := dbc.DB(r.db).
		Where("id = ? AND organization_id = ?", id, orgID).
		Limit(1).
		Find(&run).Error; err != nil {
		return nil, err
	}
	if run.ID == uuid.Nil {
		return nil, nil
	}
	return &run, nil
}

func (r *snapshotRunRepo) ListByScope(dbc dbctx.Context, orgID uuid.UUID, kind domain.ScopeKind, scopeID uuid.UUID) ([]*domain.SnapshotRun, error) {
	var out []*domain.SnapshotRun
	if err := dbc.DB(r.db).
		Where("organization_id = ? AND scope_kind = ? AND scope_id = ?", orgID, kind, scopeID).
		Order("created_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *snapshotRunRepo) UpdateFieldsIfStatus(dbc dbctx.Context, id uuid.UUID, status domain.RunStatus, updates map[string]interface{}) (bool, error) {
	if id == uuid.Nil || len(updates) == 0 {
		return false, nil
	}
	res := dbc.DB(r.db).
		Model(&domain.SnapshotRun{}).
		Where("id = ? AND status = ?", id, status).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
