package school

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ObservationActive   = "active"
	ObservationRetired  = "retired"
	AssessmentCompleted = "completed"
)

type Observation struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	OrganizationID uuid.UUID  `gorm:"type:uuid;not null;index" json:"organization_id"`
	LearnerID      uuid.UUID  `gorm:"type:uuid;not null;index" json:"learner_id"`
	CompetencyID   uuid.UUID  `gorm:"type:uuid;not null;index" json:"competency_id"`
	ExperienceID   *uuid.UUID `gorm:"type:uuid;index" json:"experience_id,omitempty"`
	Status         string     `gorm:"column:status;not null" json:"status"`
	RetiredAt      *time.Time `gorm:"column:retired_at" json:"retired_at,omitempty"`
	ObservedAt     time.Time  `gorm:"column:observed_at;not null" json:"observed_at"`
}

func (Observation) TableName() string { return "observation" }

func (o *Observation) BeforeCreate(*gorm.DB) error { return ensureID(&o.ID) }

type LessonLog struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	SyllabusID uuid.UUID `gorm:"type:uuid;not null;index" json:"syllabus_id"`
	LoggedOn   time.Time `gorm:"column:logged_on" json:"logged_on"`
}

func (LessonLog) TableName() string { return "lesson_log" }

func (l *LessonLog) BeforeCreate(*gorm.DB) error { return ensureID(&l.ID) }

type LessonLogVerification struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	LessonLogID  uuid.UUID `gorm:"type:uuid;not null;index" json:"lesson_log_id"`
	LearnerID    uuid.UUID `gorm:"type:uuid;not null;index" json:"learner_id"`
	Accomplished bool      `gorm:"column:accomplished;not null" json:"accomplished"`
	VerifiedAt   time.Time `gorm:"column:verified_at;not null" json:"verified_at"`
}

func (LessonLogVerification) TableName() string { return "lesson_log_verification" }

func (v *LessonLogVerification) BeforeCreate(*gorm.DB) error { return ensureID(&v.ID) }

type Assessment struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	OrganizationID uuid.UUID  `gorm:"type:uuid;not null;index" json:"organization_id"`
	LearnerID      uuid.UUID  `gorm:"type:uuid;not null;index" json:"learner_id"`
	Status         string     `gorm:"column:status;not null" json:"status"`
	CompletedAt    *time.Time `gorm:"column:completed_at" json:"completed_at,omitempty"`
	CreatedAt      time.Time  `gorm:"not null" json:"created_at"`
}

func (Assessment) TableName() string { return "assessment" }

func (a *Assessment) BeforeCreate(*gorm.DB) error { return ensureID(&a.ID) }

// OccurredAt falls back to creation time for assessments completed before
// completion timestamps were recorded.
func (a Assessment) OccurredAt() time.Time {
	if a.CompletedAt != nil && !a.CompletedAt.IsZero() {
		return *a.CompletedAt
	}
	return a.CreatedAt
}

// AssessmentEvidence links an assessment to the observation it drew on.
type AssessmentEvidence struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	AssessmentID  uuid.UUID  `gorm:"type:uuid;not null;index" json:"assessment_id"`
	ObservationID *uuid.UUID `gorm:"type:uuid;index" json:"observation_id,omitempty"`
}

func (AssessmentEvidence) TableName() string { return "assessment_evidence" }

func (e *AssessmentEvidence) BeforeCreate(*gorm.DB) error { return ensureID(&e.ID) }

type PortfolioArtifact struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	OrganizationID uuid.UUID `gorm:"type:uuid;not null;index" json:"organization_id"`
	LearnerID      uuid.UUID `gorm:"type:uuid;not null;index" json:"learner_id"`
	Title          string    `gorm:"column:title" json:"title"`
	CreatedAt      time.Time `gorm:"not null" json:"created_at"`
}

func (PortfolioArtifact) TableName() string { return "portfolio_artifact" }

func (p *PortfolioArtifact) BeforeCreate(*gorm.DB) error { return ensureID(&p.ID) }

type PortfolioArtifactTag struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ArtifactID   uuid.UUID `gorm:"type:uuid;not null;index" json:"artifact_id"`
	CompetencyID uuid.UUID `gorm:"type:uuid;not null;index" json:"competency_id"`
}

func (PortfolioArtifactTag) TableName() string { return "portfolio_artifact_tag" }

func (t *PortfolioArtifactTag) BeforeCreate(*gorm.DB) error { return ensureID(&t.ID) }

// All lists every read model, for migrations of test and reference schemas.
func All() []any {
	return []any{
		&Competency{}, &Experience{}, &ExperienceCompetency{},
		&Syllabus{}, &SyllabusWeek{}, &SyllabusWeekCompetency{},
		&SchoolYear{}, &Program{}, &Section{}, &SectionEnrollment{},
		&Observation{}, &LessonLog{}, &LessonLogVerification{},
		&Assessment{}, &AssessmentEvidence{},
		&PortfolioArtifact{}, &PortfolioArtifactTag{},
	}
}
