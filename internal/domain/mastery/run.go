package mastery

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// SnapshotRun groups every snapshot produced by one batch invocation. It is
// created once, finalized once and never deleted.
type SnapshotRun struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	OrganizationID uuid.UUID      `gorm:"type:uuid;not null;index" json:"organization_id"`
	SchoolID       *uuid.UUID     `gorm:"type:uuid;index" json:"school_id,omitempty"`
	ScopeKind      ScopeKind      `gorm:"column:scope_kind;not null;index:idx_snapshot_run_scope" json:"scope_kind"`
	ScopeID        uuid.UUID      `gorm:"type:uuid;column:scope_id;not null;index:idx_snapshot_run_scope" json:"scope_id"`
	MasteryModelID uuid.UUID      `gorm:"type:uuid;not null" json:"mastery_model_id"`
	SchoolYearID   *uuid.UUID     `gorm:"type:uuid;index" json:"school_year_id,omitempty"`
	Quarter        *int           `gorm:"column:quarter" json:"quarter,omitempty"`
	Term           string         `gorm:"column:term" json:"term,omitempty"`
	SnapshotDate   time.Time      `gorm:"column:snapshot_date;not null" json:"snapshot_date"`
	SnapshotCount  int            `gorm:"column:snapshot_count;not null;default:0" json:"snapshot_count"`
	PairsTotal     int            `gorm:"column:pairs_total;not null;default:0" json:"pairs_total"`
	PairsSkipped   int            `gorm:"column:pairs_skipped;not null;default:0" json:"pairs_skipped"`
	PairsFailed    int            `gorm:"column:pairs_failed;not null;default:0" json:"pairs_failed"`
	Status         RunStatus      `gorm:"column:status;not null;index" json:"status"`
	Summary        datatypes.JSON `gorm:"column:summary" json:"summary,omitempty"`
	CreatedBy      uuid.UUID      `gorm:"type:uuid;not null" json:"created_by"`
	CreatedAt      time.Time      `gorm:"not null;index" json:"created_at"`
	FinishedAt     *time.Time     `gorm:"column:finished_at" json:"finished_at,omitempty"`
}

func (SnapshotRun) TableName() string { return "snapshot_run" }

func (r *SnapshotRun) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.Status == "" {
		r.Status = RunRunning
	}
	return nil
}

// RunSummary is stored on the run as JSON once the batch finishes.
type RunSummary struct {
	Learners     int       `json:"learners"`
	Competencies int       `json:"competencies"`
	FailedPairs  []PairKey `json:"failed_pairs,omitempty"`
	Stopped      bool      `json:"stopped,omitempty"`
	StopReason   string    `json:"stop_reason,omitempty"`
}

type PairKey struct {
	LearnerID    uuid.UUID `json:"learner_id"`
	CompetencyID uuid.UUID `json:"competency_id"`
}
