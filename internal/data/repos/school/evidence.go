package school

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/schoolbridge-backend/internal/domain/mastery"
	sd "github.com/yungbote/schoolbridge-backend/internal/domain/school"
	"github.com/yungbote/schoolbridge-backend/internal/platform/dbctx"
	"github.com/yungbote/schoolbridge-backend/internal/platform/logger"
)

// EvidenceQuery selects one learner's evidence for a set of competencies.
// SyllabusID is set only for syllabus-scoped runs, which also count
// participation.
type EvidenceQuery struct {
	OrganizationID uuid.UUID
	LearnerID      uuid.UUID
	CompetencyIDs  []uuid.UUID
	SyllabusID     *uuid.UUID
}

// EvidenceRepo reads raw evidence items grouped by competency. Items are not
// deduplicated here.
type EvidenceRepo interface {
	Assessments(dbc dbctx.Context, q EvidenceQuery) (map[uuid.UUID][]mastery.EvidenceItem, error)
	Observations(dbc dbctx.Context, q EvidenceQuery) (map[uuid.UUID][]mastery.EvidenceItem, error)
	Participation(dbc dbctx.Context, q EvidenceQuery) ([]mastery.EvidenceItem, error)
	PortfolioArtifacts(dbc dbctx.Context, q EvidenceQuery) (map[uuid.UUID][]mastery.EvidenceItem, error)
}

type evidenceRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEvidenceRepo(db *gorm.DB, baseLog *logger.Logger) EvidenceRepo {
	return &evidenceRepo{
		db:  db,
		log: baseLog.With("repo", "EvidenceRepo"),
	}
}

// Assessments follows completed assessments through their evidence links to
// observations that target a requested competency. An assessment counts once
// per competency no matter how many of its observations match.
func (r *evidenceRepo) Assessments(dbc dbctx.Context, q EvidenceQuery) (map[uuid.UUID][]mastery.EvidenceItem, error) {
	out := map[uuid.UUID][]mastery.EvidenceItem{}
	if q.LearnerID == uuid.Nil || len(q.CompetencyIDs) == 0 {
		return out, nil
	}
	db := dbc.DB(r.db)

	var assessments []sd.Assessment
	if err := db.
		Where("learner_id = ? AND organization_id = ? AND status = ?", q.LearnerID, q.OrganizationID, sd.AssessmentCompleted).
		Find(&assessments).Error; err != nil {
		return nil, err
	}
	if len(assessments) == 0 {
		return out, nil
	}
	byID := make(map[uuid.UUID]sd.Assessment, len(assessments))
	ids := make([]uuid.UUID, 0, len(assessments))
	for _, a := range assessments {
		byID[a.ID] = a
		ids = append(ids, a.ID)
	}

	var links []sd.AssessmentEvidence
	if err := db.
		Where("assessment_id IN ? AND observation_id IS NOT NULL", ids).
		Find(&links).Error; err != nil {
		return nil, err
	}
	if len(links) == 0 {
		return out, nil
	}
	obsIDs := make([]uuid.UUID, 0, len(links))
	for _, l := range links {
		obsIDs = append(obsIDs, *l.ObservationID)
	}

	var observations []sd.Observation
	if err := db.
		Where("id IN ? AND competency_id IN ?", distinctSorted(obsIDs), q.CompetencyIDs).
		Find(&observations).Error; err != nil {
		return nil, err
	}
	competencyOf := make(map[uuid.UUID]uuid.UUID, len(observations))
	for _, o := range observations {
		competencyOf[o.ID] = o.CompetencyID
	}

	type pair struct{ assessment, competency uuid.UUID }
	seen := map[pair]struct{}{}
	for _, l := range links {
		compID, ok := competencyOf[*l.ObservationID]
		if !ok {
			continue
		}
		p := pair{assessment: l.AssessmentID, competency: compID}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		a := byID[l.AssessmentID]
		out[compID] = append(out[compID], mastery.EvidenceItem{
			Kind:       mastery.EvidenceAssessment,
			SourceID:   a.ID,
			OccurredAt: a.OccurredAt(),
		})
	}
	return out, nil
}

func (r *evidenceRepo) Observations(dbc dbctx.Context, q EvidenceQuery) (map[uuid.UUID][]mastery.EvidenceItem, error) {
	out := map[uuid.UUID][]mastery.EvidenceItem{}
	if q.LearnerID == uuid.Nil || len(q.CompetencyIDs) == 0 {
		return out, nil
	}
	var rows []sd.Observation
	if err := dbc.DB(r.db).
		Where("learner_id = ? AND organization_id = ? AND competency_id IN ? AND status = ?",
			q.LearnerID, q.OrganizationID, q.CompetencyIDs, sd.ObservationActive).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, o := range rows {
		out[o.CompetencyID] = append(out[o.CompetencyID], mastery.EvidenceItem{
			Kind:       mastery.EvidenceObservation,
			SourceID:   o.ID,
			OccurredAt: o.ObservedAt,
		})
	}
	return out, nil
}

// Participation returns accomplished lesson-log verifications for the
// syllabus. They are not competency-specific; the source id is the lesson log.
func (r *evidenceRepo) Participation(dbc dbctx.Context, q EvidenceQuery) ([]mastery.EvidenceItem, error) {
	if q.SyllabusID == nil || q.LearnerID == uuid.Nil {
		return nil, nil
	}
	var rows []sd.LessonLogVerification
	if err := dbc.DB(r.db).
		Joins("JOIN lesson_log ON lesson_log.id = lesson_log_verification.lesson_log_id").
		Where("lesson_log.syllabus_id = ? AND lesson_log_verification.learner_id = ? AND lesson_log_verification.accomplished = ?",
			*q.SyllabusID, q.LearnerID, true).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]mastery.EvidenceItem, 0, len(rows))
	for _, v := range rows {
		out = append(out, mastery.EvidenceItem{
			Kind:       mastery.EvidenceLessonLogVerification,
			SourceID:   v.LessonLogID,
			OccurredAt: v.VerifiedAt,
		})
	}
	return out, nil
}

func (r *evidenceRepo) PortfolioArtifacts(dbc dbctx.Context, q EvidenceQuery) (map[uuid.UUID][]mastery.EvidenceItem, error) {
	out := map[uuid.UUID][]mastery.EvidenceItem{}
	if q.LearnerID == uuid.Nil || len(q.CompetencyIDs) == 0 {
		return out, nil
	}
	db := dbc.DB(r.db)

	var artifacts []sd.PortfolioArtifact
	if err := db.
		Where("learner_id = ? AND organization_id = ?", q.LearnerID, q.OrganizationID).
		Find(&artifacts).Error; err != nil {
		return nil, err
	}
	if len(artifacts) == 0 {
		return out, nil
	}
	byID := make(map[uuid.UUID]sd.PortfolioArtifact, len(artifacts))
	ids := make([]uuid.UUID, 0, len(artifacts))
	for _, a := range artifacts {
		byID[a.ID] = a
		ids = append(ids, a.ID)
	}

	var tags []sd.PortfolioArtifactTag
	if err := db.
		Where("artifact_id IN ? AND competency_id IN ?", ids, q.CompetencyIDs).
		Find(&tags).Error; err != nil {
		return nil, err
	}
	for _, t := range tags {
		a := byID[t.ArtifactID]
		out[t.CompetencyID] = append(out[t.CompetencyID], mastery.EvidenceItem{
			Kind:       mastery.EvidencePortfolioArtifact,
			SourceID:   a.ID,
			OccurredAt: a.CreatedAt,
		})
	}
	return out, nil
}
