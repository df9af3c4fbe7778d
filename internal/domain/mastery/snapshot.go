package mastery

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Snapshot is one point-in-time mastery judgment for a learner and competency.
// MasteryLevelID, RationaleText and EvidenceCount record what the engine
// decided and are never rewritten; review only fills the review columns.
type Snapshot struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	RunID          uuid.UUID  `gorm:"type:uuid;not null;index" json:"run_id"`
	OrganizationID uuid.UUID  `gorm:"type:uuid;not null;index" json:"organization_id"`
	LearnerID      uuid.UUID  `gorm:"type:uuid;not null;index:idx_snapshot_learner_competency" json:"learner_id"`
	CompetencyID   uuid.UUID  `gorm:"type:uuid;not null;index:idx_snapshot_learner_competency" json:"competency_id"`
	MasteryLevelID uuid.UUID  `gorm:"type:uuid;not null" json:"mastery_level_id"`
	TeacherID      *uuid.UUID `gorm:"type:uuid" json:"teacher_id,omitempty"`
	RationaleText  string     `gorm:"column:rationale_text;not null" json:"rationale_text"`
	EvidenceCount  int        `gorm:"column:evidence_count;not null" json:"evidence_count"`
	LastEvidenceAt *time.Time `gorm:"column:last_evidence_at" json:"last_evidence_at,omitempty"`
	SnapshotDate   time.Time  `gorm:"column:snapshot_date;not null" json:"snapshot_date"`
	ConfirmedAt    time.Time  `gorm:"column:confirmed_at;not null" json:"confirmed_at"`
	ConfirmedBy    uuid.UUID  `gorm:"type:uuid;column:confirmed_by;not null" json:"confirmed_by"`
	CreatedBy      uuid.UUID  `gorm:"type:uuid;not null" json:"created_by"`
	CreatedAt      time.Time  `gorm:"not null" json:"created_at"`

	ReviewStatus          ReviewStatus `gorm:"column:review_status;not null;index" json:"review_status"`
	SubmittedAt           *time.Time   `gorm:"column:submitted_at" json:"submitted_at,omitempty"`
	SubmittedBy           *uuid.UUID   `gorm:"type:uuid;column:submitted_by" json:"submitted_by,omitempty"`
	ReviewerNotes         string       `gorm:"column:reviewer_notes" json:"reviewer_notes,omitempty"`
	OverrideLevelID       *uuid.UUID   `gorm:"type:uuid;column:override_level_id" json:"override_level_id,omitempty"`
	OverrideJustification string       `gorm:"column:override_justification" json:"override_justification,omitempty"`
	ReviewedBy            *uuid.UUID   `gorm:"type:uuid;column:reviewed_by" json:"reviewed_by,omitempty"`
	ReviewedAt            *time.Time   `gorm:"column:reviewed_at" json:"reviewed_at,omitempty"`
	UpdatedAt             time.Time    `gorm:"not null" json:"updated_at"`
}

func (Snapshot) TableName() string { return "snapshot" }

func (s *Snapshot) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.ReviewStatus == "" {
		s.ReviewStatus = ReviewDraft
	}
	return nil
}

// EffectiveLevelID is the level downstream consumers should use: the override
// once a reviewer has overridden, otherwise the computed level.
func (s *Snapshot) EffectiveLevelID() uuid.UUID {
	if s.ReviewStatus == ReviewOverridden && s.OverrideLevelID != nil && *s.OverrideLevelID != uuid.Nil {
		return *s.OverrideLevelID
	}
	return s.MasteryLevelID
}

// SnapshotReviewEvent is an insert-only record of one review transition.
type SnapshotReviewEvent struct {
	ID              uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	SnapshotID      uuid.UUID    `gorm:"type:uuid;not null;index" json:"snapshot_id"`
	Action          ReviewAction `gorm:"column:action;not null" json:"action"`
	FromStatus      ReviewStatus `gorm:"column:from_status;not null" json:"from_status"`
	ToStatus        ReviewStatus `gorm:"column:to_status;not null" json:"to_status"`
	Notes           string       `gorm:"column:notes" json:"notes,omitempty"`
	OverrideLevelID *uuid.UUID   `gorm:"type:uuid;column:override_level_id" json:"override_level_id,omitempty"`
	Justification   string       `gorm:"column:justification" json:"justification,omitempty"`
	ActorID         uuid.UUID    `gorm:"type:uuid;column:actor_id;not null" json:"actor_id"`
	CreatedAt       time.Time    `gorm:"not null;index" json:"created_at"`
}

func (SnapshotReviewEvent) TableName() string { return "snapshot_review_event" }

func (e *SnapshotReviewEvent) BeforeCreate(*gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
