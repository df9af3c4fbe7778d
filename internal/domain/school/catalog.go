package school

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Competency struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	OrganizationID uuid.UUID `gorm:"type:uuid;not null;index" json:"organization_id"`
	Name           string    `gorm:"column:name;not null" json:"name"`
	Code           string    `gorm:"column:code" json:"code,omitempty"`
	CreatedAt      time.Time `gorm:"not null" json:"created_at"`
}

func (Competency) TableName() string { return "competency" }

func (c *Competency) BeforeCreate(*gorm.DB) error { return ensureID(&c.ID) }

type Experience struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	OrganizationID uuid.UUID `gorm:"type:uuid;not null;index" json:"organization_id"`
	Title          string    `gorm:"column:title;not null" json:"title"`
	CreatedAt      time.Time `gorm:"not null" json:"created_at"`
}

func (Experience) TableName() string { return "experience" }

func (e *Experience) BeforeCreate(*gorm.DB) error { return ensureID(&e.ID) }

type ExperienceCompetency struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ExperienceID uuid.UUID `gorm:"type:uuid;not null;index" json:"experience_id"`
	CompetencyID uuid.UUID `gorm:"type:uuid;not null;index" json:"competency_id"`
}

func (ExperienceCompetency) TableName() string { return "experience_competency" }

func (e *ExperienceCompetency) BeforeCreate(*gorm.DB) error { return ensureID(&e.ID) }

type Syllabus struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	OrganizationID uuid.UUID `gorm:"type:uuid;not null;index" json:"organization_id"`
	Title          string    `gorm:"column:title;not null" json:"title"`
	CreatedAt      time.Time `gorm:"not null" json:"created_at"`
}

func (Syllabus) TableName() string { return "syllabus" }

func (s *Syllabus) BeforeCreate(*gorm.DB) error { return ensureID(&s.ID) }

type SyllabusWeek struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	SyllabusID uuid.UUID `gorm:"type:uuid;not null;index" json:"syllabus_id"`
	WeekNumber int       `gorm:"column:week_number;not null" json:"week_number"`
}

func (SyllabusWeek) TableName() string { return "syllabus_week" }

func (w *SyllabusWeek) BeforeCreate(*gorm.DB) error { return ensureID(&w.ID) }

type SyllabusWeekCompetency struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	SyllabusWeekID uuid.UUID `gorm:"type:uuid;not null;index" json:"syllabus_week_id"`
	CompetencyID   uuid.UUID `gorm:"type:uuid;not null;index" json:"competency_id"`
}

func (SyllabusWeekCompetency) TableName() string { return "syllabus_week_competency" }

func (w *SyllabusWeekCompetency) BeforeCreate(*gorm.DB) error { return ensureID(&w.ID) }

type SchoolYear struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	OrganizationID uuid.UUID `gorm:"type:uuid;not null;index" json:"organization_id"`
	Name           string    `gorm:"column:name;not null" json:"name"`
	StartsOn       time.Time `gorm:"column:starts_on" json:"starts_on"`
	EndsOn         time.Time `gorm:"column:ends_on" json:"ends_on"`
	IsActive       bool      `gorm:"column:is_active;not null;default:false" json:"is_active"`
}

func (SchoolYear) TableName() string { return "school_year" }

func (y *SchoolYear) BeforeCreate(*gorm.DB) error { return ensureID(&y.ID) }

func ensureID(id *uuid.UUID) error {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
	return nil
}
