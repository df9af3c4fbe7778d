package mastery

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	domain "github.com/yungbote/schoolbridge-backend/internal/domain/mastery"
	"github.com/yungbote/schoolbridge-backend/internal/platform/dbctx"
	"github.com/yungbote/schoolbridge-backend/internal/platform/logger"
)

type ReviewEventRepo interface {
	Create(dbc dbctx.Context, e *domain.SnapshotReviewEvent) (*domain.SnapshotReviewEvent, error)
	ListBySnapshot(dbc dbctx.Context, snapshotID uuid.UUID) ([]*domain.SnapshotReviewEvent, error)
}

type reviewEventRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewReviewEventRepo(db *gorm.DB, baseLog *logger.Logger) ReviewEventRepo {
	return &reviewEventRepo{
		db:  db,
		log: baseLog.With("repo", "ReviewEventRepo"),
	}
}

func (r *reviewEventRepo) Create(dbc dbctx.Context, e *domain.SnapshotReviewEvent) (*domain.SnapshotReviewEvent, error) {
	if err := dbc.DB(r.db).Create(e).Error; err != nil {
		return nil, err
	}
	return e, nil
}

func (r *reviewEventRepo) ListBySnapshot(dbc dbctx.Context, snapshotID uuid.UUID) ([]*domain.SnapshotReviewEvent, error) {
	var out []*domain.SnapshotReviewEvent
	if err := dbc.DB(r.db).
		Where("snapshot_id = ?", snapshotID).
		Order("created_at ASC, id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
