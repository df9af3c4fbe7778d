package school

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	sd "github.com/yungbote/schoolbridge-backend/internal/domain/school"
	"github.com/yungbote/schoolbridge-backend/internal/platform/dbctx"
	"github.com/yungbote/schoolbridge-backend/internal/platform/logger"
)

type SchoolYearRepo interface {
	GetActive(dbc dbctx.Context, orgID uuid.UUID) (*sd.SchoolYear, error)
}

type schoolYearRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSchoolYearRepo(db *gorm.DB, baseLog *logger.Logger) SchoolYearRepo {
	return &schoolYearRepo{
		db:  db,
		log: baseLog.With("repo", "SchoolYearRepo"),
	}
}

// GetActive returns nil when the organization has no active year.
func (r *schoolYearRepo) GetActive(dbc dbctx.Context, orgID uuid.UUID) (*sd.SchoolYear, error) {
	if orgID == uuid.Nil {
		return nil, nil
	}
	var y sd.SchoolYear
	err := dbc.DB(r.db).
		Where("organization_id = ? AND is_active = ?", orgID, true).
		Order("starts_on DESC").
		Limit(1).
		Find(&y).Error
	if err != nil {
		return nil, err
	}
	if y.ID == uuid.Nil {
		return nil, nil
	}
	return &y, nil
}
