package mastery

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	domain "github.com/yungbote/schoolbridge-backend/internal/domain/mastery"
	"github.com/yungbote/schoolbridge-backend/internal/platform/dbctx"
	"github.com/yungbote/schoolbridge-backend/internal/platform/logger"
)

// SnapshotRepo exposes no general update: core columns are written once and
// review columns change only through the review writer.
type SnapshotRepo interface {
	Create(dbc dbctx.Context, s *domain.Snapshot) (*domain.Snapshot, error)
	GetByID(dbc dbctx.Context, orgID, id uuid.UUID) (*domain.Snapshot, error)
	ListByRun(dbc dbctx.Context, runID uuid.UUID, limit, offset int) ([]*domain.Snapshot, error)
	CountByRun(dbc dbctx.Context, runID uuid.UUID) (int64, error)
}

type snapshotRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSnapshotRepo(db *gorm.DB, baseLog *logger.Logger) SnapshotRepo {
	return &snapshotRepo{
		db:  db,
		log: baseLog.With("repo", "SnapshotRepo"),
	}
}

func (r *snapshotRepo) Create(dbc dbctx.Context, s *domain.Snapshot) (*domain.Snapshot, error) {
	if err := dbc.DB(r.db).Create(s).Error; err != nil {
		return nil, err
	}
	return s, nil
}

func (r *snapshotRepo) GetByID(dbc dbctx.Context, orgID, id uuid.UUID) (*domain.Snapshot, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var s domain.Snapshot
	if err := dbc.DB(r.db).
		Where("id = ? AND organization_id = ?", id, orgID).
		Limit(1).
		Find(&s).Error; err != nil {
		return nil, err
	}
	if s.ID == uuid.Nil {
		return nil, nil
	}
	return &s, nil
}

func (r *snapshotRepo) ListByRun(dbc dbctx.Context, runID uuid.UUID, limit, offset int) ([]*domain.Snapshot, error) {
	var out []*domain.Snapshot
	if runID == uuid.Nil {
		return out, nil
	}
	q := dbc.DB(r.db).
		Where("run_id = ?", runID).
		Order("learner_id ASC, competency_id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *snapshotRepo) CountByRun(dbc dbctx.Context, runID uuid.UUID) (int64, error) {
	var n int64
	err := dbc.DB(r.db).
		Model(&domain.Snapshot{}).
		Where("run_id = ?", runID).
		Count(&n).Error
	return n, err
}
