package school

import (
	"sort"

	"github.com/google/uuid"
	"gorm.io/gorm"

	sd "github.com/yungbote/schoolbridge-backend/internal/domain/school"
	"github.com/yungbote/schoolbridge-backend/internal/platform/dbctx"
	"github.com/yungbote/schoolbridge-backend/internal/platform/logger"
)

// ScopeRepo answers roster and catalog questions for the four scope kinds.
// Every id list it returns is distinct and sorted.
type ScopeRepo interface {
	ExperienceExists(dbc dbctx.Context, orgID, experienceID uuid.UUID) (bool, error)
	SyllabusExists(dbc dbctx.Context, orgID, syllabusID uuid.UUID) (bool, error)
	ProgramExists(dbc dbctx.Context, orgID, programID uuid.UUID) (bool, error)
	SectionExists(dbc dbctx.Context, orgID, sectionID uuid.UUID) (bool, error)

	LearnersBySection(dbc dbctx.Context, orgID, sectionID uuid.UUID) ([]uuid.UUID, error)
	LearnersByProgram(dbc dbctx.Context, orgID, programID uuid.UUID) ([]uuid.UUID, error)
	LearnersByExperience(dbc dbctx.Context, orgID, experienceID uuid.UUID) ([]uuid.UUID, error)
	LearnersBySyllabus(dbc dbctx.Context, orgID, syllabusID uuid.UUID) ([]uuid.UUID, error)

	CompetenciesByExperience(dbc dbctx.Context, orgID, experienceID uuid.UUID) ([]uuid.UUID, error)
	CountSyllabusWeeks(dbc dbctx.Context, syllabusID uuid.UUID) (int64, error)
	CompetenciesBySyllabus(dbc dbctx.Context, orgID, syllabusID uuid.UUID) ([]uuid.UUID, error)
	CompetenciesByOrganization(dbc dbctx.Context, orgID uuid.UUID) ([]uuid.UUID, error)
}

type scopeRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewScopeRepo(db *gorm.DB, baseLog *logger.Logger) ScopeRepo {
	return &scopeRepo{
		db:  db,
		log: baseLog.With("repo", "ScopeRepo"),
	}
}

func (r *scopeRepo) exists(dbc dbctx.Context, model any, orgID, id uuid.UUID) (bool, error) {
	if orgID == uuid.Nil || id == uuid.Nil {
		return false, nil
	}
	var n int64
	err := dbc.DB(r.db).
		Model(model).
		Where("id = ? AND organization_id = ?", id, orgID).
		Count(&n).Error
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *scopeRepo) ExperienceExists(dbc dbctx.Context, orgID, experienceID uuid.UUID) (bool, error) {
	return r.exists(dbc, &sd.Experience{}, orgID, experienceID)
}

func (r *scopeRepo) SyllabusExists(dbc dbctx.Context, orgID, syllabusID uuid.UUID) (bool, error) {
	return r.exists(dbc, &sd.Syllabus{}, orgID, syllabusID)
}

func (r *scopeRepo) ProgramExists(dbc dbctx.Context, orgID, programID uuid.UUID) (bool, error) {
	return r.exists(dbc, &sd.Program{}, orgID, programID)
}

func (r *scopeRepo) SectionExists(dbc dbctx.Context, orgID, sectionID uuid.UUID) (bool, error) {
	return r.exists(dbc, &sd.Section{}, orgID, sectionID)
}

func (r *scopeRepo) LearnersBySection(dbc dbctx.Context, orgID, sectionID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := dbc.DB(r.db).
		Model(&sd.SectionEnrollment{}).
		Joins("JOIN section ON section.id = section_enrollment.section_id").
		Where("section_enrollment.section_id = ? AND section.organization_id = ? AND section_enrollment.status = ?",
			sectionID, orgID, sd.EnrollmentActive).
		Pluck("section_enrollment.learner_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return distinctSorted(ids), nil
}

func (r *scopeRepo) LearnersByProgram(dbc dbctx.Context, orgID, programID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := dbc.DB(r.db).
		Model(&sd.SectionEnrollment{}).
		Joins("JOIN section ON section.id = section_enrollment.section_id").
		Where("section.program_id = ? AND section.organization_id = ? AND section.is_active = ? AND section_enrollment.status = ?",
			programID, orgID, true, sd.EnrollmentActive).
		Pluck("section_enrollment.learner_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return distinctSorted(ids), nil
}

func (r *scopeRepo) LearnersByExperience(dbc dbctx.Context, orgID, experienceID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := dbc.DB(r.db).
		Model(&sd.Observation{}).
		Where("experience_id = ? AND organization_id = ? AND status = ? AND retired_at IS NULL",
			experienceID, orgID, sd.ObservationActive).
		Pluck("learner_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return distinctSorted(ids), nil
}

// LearnersBySyllabus counts any verification, accomplished or not.
func (r *scopeRepo) LearnersBySyllabus(dbc dbctx.Context, orgID, syllabusID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := dbc.DB(r.db).
		Model(&sd.LessonLogVerification{}).
		Joins("JOIN lesson_log ON lesson_log.id = lesson_log_verification.lesson_log_id").
		Joins("JOIN syllabus ON syllabus.id = lesson_log.syllabus_id").
		Where("lesson_log.syllabus_id = ? AND syllabus.organization_id = ?", syllabusID, orgID).
		Pluck("lesson_log_verification.learner_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return distinctSorted(ids), nil
}

func (r *scopeRepo) CompetenciesByExperience(dbc dbctx.Context, orgID, experienceID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := dbc.DB(r.db).
		Model(&sd.ExperienceCompetency{}).
		Joins("JOIN experience ON experience.id = experience_competency.experience_id").
		Where("experience_competency.experience_id = ? AND experience.organization_id = ?", experienceID, orgID).
		Pluck("experience_competency.competency_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return distinctSorted(ids), nil
}

func (r *scopeRepo) CountSyllabusWeeks(dbc dbctx.Context, syllabusID uuid.UUID) (int64, error) {
	var n int64
	err := dbc.DB(r.db).
		Model(&sd.SyllabusWeek{}).
		Where("syllabus_id = ?", syllabusID).
		Count(&n).Error
	return n, err
}

func (r *scopeRepo) CompetenciesBySyllabus(dbc dbctx.Context, orgID, syllabusID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := dbc.DB(r.db).
		Model(&sd.SyllabusWeekCompetency{}).
		Joins("JOIN syllabus_week ON syllabus_week.id = syllabus_week_competency.syllabus_week_id").
		Joins("JOIN syllabus ON syllabus.id = syllabus_week.syllabus_id").
		Where("syllabus_week.syllabus_id = ? AND syllabus.organization_id = ?", syllabusID, orgID).
		Pluck("syllabus_week_competency.competency_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return distinctSorted(ids), nil
}

func (r *scopeRepo) CompetenciesByOrganization(dbc dbctx.Context, orgID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := dbc.DB(r.db).
		Model(&sd.Competency{}).
		Where("organization_id = ?", orgID).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return distinctSorted(ids), nil
}

func distinctSorted(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}
