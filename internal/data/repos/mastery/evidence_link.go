package mastery

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	domain "github.com/yungbote/schoolbridge-backend/internal/domain/mastery"
	"github.com/yungbote/schoolbridge-backend/internal/platform/dbctx"
	"github.com/yungbote/schoolbridge-backend/internal/platform/logger"
)

type EvidenceLinkRepo interface {
	Create(dbc dbctx.Context, links []*domain.EvidenceLink) ([]*domain.EvidenceLink, error)
	ListBySnapshot(dbc dbctx.Context, snapshotID uuid.UUID) ([]*domain.EvidenceLink, error)
}

type evidenceLinkRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEvidenceLinkRepo(db *gorm.DB, baseLog *logger.Logger) EvidenceLinkRepo {
	return &evidenceLinkRepo{
		db:  db,
		log: baseLog.With("repo", "EvidenceLinkRepo"),
	}
}

func (r *evidenceLinkRepo) Create(dbc dbctx.Context, links []*domain.EvidenceLink) ([]*domain.EvidenceLink, error) {
	if len(links) == 0 {
		return []*domain.EvidenceLink{}, nil
	}
	if err := dbc.DB(r.db).Create(&links).Error; err != nil {
		return nil, err
	}
	return links, nil
}

func (r *evidenceLinkRepo) ListBySnapshot(dbc dbctx.Context, snapshotID uuid.UUID) ([]*domain.EvidenceLink, error) {
	var out []*domain.EvidenceLink
	if err := dbc.DB(r.db).
		Where("snapshot_id = ?", snapshotID).
		Order("occurred_at ASC, id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
