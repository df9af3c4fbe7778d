package mastery

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	domain "github.com/yungbote/schoolbridge-backend/internal/domain/mastery"
	"github.com/yungbote/schoolbridge-backend/internal/platform/dbctx"
	"github.com/yungbote/schoolbridge-backend/internal/platform/logger"
)

type MasteryModelRepo interface {
	Create(dbc dbctx.Context, m *domain.MasteryModel) (*domain.MasteryModel, error)
	CreateLevels(dbc dbctx.Context, levels []*domain.MasteryLevel) ([]*domain.MasteryLevel, error)
	GetByID(dbc dbctx.Context, orgID, id uuid.UUID) (*domain.MasteryModel, error)
	GetByName(dbc dbctx.Context, orgID uuid.UUID, name string) (*domain.MasteryModel, error)
	UpdateThresholds(dbc dbctx.Context, id uuid.UUID, t domain.Thresholds) error
	ListLevels(dbc dbctx.Context, modelID uuid.UUID) ([]domain.MasteryLevel, error)
	GetLevel(dbc dbctx.Context, id uuid.UUID) (*domain.MasteryLevel, error)
}

type masteryModelRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMasteryModelRepo(db *gorm.DB, baseLog *logger.Logger) MasteryModelRepo {
	return &masteryModelRepo{
		db:  db,
		log: baseLog.With("repo", "MasteryModelRepo"),
	}
}

func (r *masteryModelRepo) Create(dbc dbctx.Context, m *domain.MasteryModel) (*domain.MasteryModel, error) {
	if err := dbc.DB(r.db).Create(m).Error; err != nil {
		return nil, err
	}
	return m, nil
}

func (r *masteryModelRepo) CreateLevels(dbc dbctx.Context, levels []*domain.MasteryLevel) ([]*domain.MasteryLevel, error) {
	if len(levels) == 0 {
		return []*domain.MasteryLevel{}, nil
	}
	if err := dbc.DB(r.db).Create(&levels).Error; err != nil {
		return nil, err
	}
	return levels, nil
}

// GetByID returns nil when the model does not exist in the organization.
func (r *masteryModelRepo) GetByID(dbc dbctx.Context, orgID, id uuid.UUID) (*domain.MasteryModel, error) {
	if orgID == uuid.Nil || id == uuid.Nil {
		return nil, nil
	}
	var m domain.MasteryModel
	if err := dbc.DB(r.db).
		Where("id = ? AND organization_id = ?", id, orgID).
		Limit(1).
		Find(&m).Error; err != nil {
		return nil, err
	}
	if m.ID == uuid.Nil {
		return nil, nil
	}
	return &m, nil
}

func (r *masteryModelRepo) GetByName(dbc dbctx.Context, orgID uuid.UUID, name string) (*domain.MasteryModel, error) {
	var m domain.MasteryModel
	if err := dbc.DB(r.db).
		Where("organization_id = ? AND name = ?", orgID, name).
		Limit(1).
		Find(&m).Error; err != nil {
		return nil, err
	}
	if m.ID == uuid.Nil {
		return nil, nil
	}
	return &m, nil
}

func (r *masteryModelRepo) UpdateThresholds(dbc dbctx.Context, id uuid.UUID, t domain.Thresholds) error {
	return dbc.DB(r.db).
		Model(&domain.MasteryModel{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"emerging_threshold":   t.Emerging,
			"developing_threshold": t.Developing,
			"proficient_threshold": t.Proficient,
			"mastered_threshold":   t.Mastered,
		}).Error
}

// ListLevels returns the model's levels in display order.
func (r *masteryModelRepo) ListLevels(dbc dbctx.Context, modelID uuid.UUID) ([]domain.MasteryLevel, error) {
	var out []domain.MasteryLevel
	if modelID == uuid.Nil {
		return out, nil
	}
	if err := dbc.DB(r.db).
		Where("model_id = ?", modelID).
		Find(&out).Error; err != nil {
		return nil, err
	}
	domain.SortLevels(out)
	return out, nil
}

func (r *masteryModelRepo) GetLevel(dbc dbctx.Context, id uuid.UUID) (*domain.MasteryLevel, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var l domain.MasteryLevel
	if err := dbc.DB(r.db).Where("id = ?", id).Limit(1).Find(&l).Error; err != nil {
		return nil, err
	}
	if l.ID == uuid.Nil {
		return nil, nil
	}
	return &l, nil
}
