package school

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const EnrollmentActive = "active"

type Program struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	OrganizationID uuid.UUID `gorm:"type:uuid;not null;index" json:"organization_id"`
	Name           string    `gorm:"column:name;not null" json:"name"`
}

func (Program) TableName() string { return "program" }

func (p *Program) BeforeCreate(*gorm.DB) error { return ensureID(&p.ID) }

type Section struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	OrganizationID uuid.UUID  `gorm:"type:uuid;not null;index" json:"organization_id"`
	ProgramID      *uuid.UUID `gorm:"type:uuid;index" json:"program_id,omitempty"`
	Name           string     `gorm:"column:name;not null" json:"name"`
	IsActive       bool       `gorm:"column:is_active;not null;default:true" json:"is_active"`
}

func (Section) TableName() string { return "section" }

func (s *Section) BeforeCreate(*gorm.DB) error { return ensureID(&s.ID) }

type SectionEnrollment struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	SectionID  uuid.UUID `gorm:"type:uuid;not null;index" json:"section_id"`
	LearnerID  uuid.UUID `gorm:"type:uuid;not null;index" json:"learner_id"`
	Status     string    `gorm:"column:status;not null" json:"status"`
	EnrolledAt time.Time `gorm:"column:enrolled_at" json:"enrolled_at"`
}

func (SectionEnrollment) TableName() string { return "section_enrollment" }

func (e *SectionEnrollment) BeforeCreate(*gorm.DB) error { return ensureID(&e.ID) }
