package mastery

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type EvidenceKind string

const (
	EvidenceAssessment            EvidenceKind = "assessment"
	EvidenceObservation           EvidenceKind = "observation"
	EvidenceLessonLogVerification EvidenceKind = "lesson_log_verification"
	EvidencePortfolioArtifact     EvidenceKind = "portfolio_artifact"
)

// EvidenceItem is one qualifying piece of evidence found for a pair. SourceID
// is the assessment, observation, lesson log or artifact it came from.
type EvidenceItem struct {
	Kind       EvidenceKind `json:"kind"`
	SourceID   uuid.UUID    `json:"source_id"`
	OccurredAt time.Time    `json:"occurred_at"`
}

// EvidenceAggregate is the deduplicated evidence for one learner and competency.
type EvidenceAggregate struct {
	Items          []EvidenceItem
	LastEvidenceAt *time.Time
}

type evidenceKey struct {
	kind EvidenceKind
	id   uuid.UUID
}

// NewEvidenceAggregate folds items together, keeping one item per kind and
// source. When the same source appears twice the earliest timestamp wins.
func NewEvidenceAggregate(items []EvidenceItem) EvidenceAggregate {
	seen := make(map[evidenceKey]int, len(items))
	out := make([]EvidenceItem, 0, len(items))
	for _, it := range items {
		if it.SourceID == uuid.Nil {
			continue
		}
		k := evidenceKey{kind: it.Kind, id: it.SourceID}
		if idx, ok := seen[k]; ok {
			if it.OccurredAt.Before(out[idx].OccurredAt) {
				out[idx].OccurredAt = it.OccurredAt
			}
			continue
		}
		seen[k] = len(out)
		out = append(out, it)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].OccurredAt.Equal(out[j].OccurredAt) {
			return out[i].OccurredAt.Before(out[j].OccurredAt)
		}
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		return out[i].SourceID.String() < out[j].SourceID.String()
	})

	agg := EvidenceAggregate{Items: out}
	for _, it := range out {
		if it.OccurredAt.IsZero() {
			continue
		}
		if agg.LastEvidenceAt == nil || it.OccurredAt.After(*agg.LastEvidenceAt) {
			t := it.OccurredAt
			agg.LastEvidenceAt = &t
		}
	}
	return agg
}

func (a EvidenceAggregate) Count() int { return len(a.Items) }

func (a EvidenceAggregate) HasAssessment() bool { return a.KindCount(EvidenceAssessment) > 0 }

func (a EvidenceAggregate) HasObservation() bool { return a.KindCount(EvidenceObservation) > 0 }

func (a EvidenceAggregate) KindCount(kind EvidenceKind) int {
	n := 0
	for _, it := range a.Items {
		if it.Kind == kind {
			n++
		}
	}
	return n
}

// EvidenceLink ties a snapshot to one evidence item. Exactly one reference
// column is set, matching Kind.
type EvidenceLink struct {
	ID                  uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	SnapshotID          uuid.UUID    `gorm:"type:uuid;not null;index" json:"snapshot_id"`
	Kind                EvidenceKind `gorm:"column:kind;not null" json:"kind"`
	AssessmentID        *uuid.UUID   `gorm:"type:uuid;column:assessment_id" json:"assessment_id,omitempty"`
	ObservationID       *uuid.UUID   `gorm:"type:uuid;column:observation_id" json:"observation_id,omitempty"`
	PortfolioArtifactID *uuid.UUID   `gorm:"type:uuid;column:portfolio_artifact_id" json:"portfolio_artifact_id,omitempty"`
	LessonLogID         *uuid.UUID   `gorm:"type:uuid;column:lesson_log_id" json:"lesson_log_id,omitempty"`
	OccurredAt          *time.Time   `gorm:"column:occurred_at" json:"occurred_at,omitempty"`
	CreatedBy           uuid.UUID    `gorm:"type:uuid;not null" json:"created_by"`
	CreatedAt           time.Time    `gorm:"not null" json:"created_at"`
}

func (EvidenceLink) TableName() string { return "evidence_link" }

func (l *EvidenceLink) BeforeCreate(*gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

// NewEvidenceLink maps an item onto the reference column for its kind.
func NewEvidenceLink(snapshotID uuid.UUID, it EvidenceItem, createdBy uuid.UUID) (*EvidenceLink, error) {
	ref := it.SourceID
	link := &EvidenceLink{
		SnapshotID: snapshotID,
		Kind:       it.Kind,
		CreatedBy:  createdBy,
	}
	if !it.OccurredAt.IsZero() {
		t := it.OccurredAt
		link.OccurredAt = &t
	}
	switch it.Kind {
	case EvidenceAssessment:
		link.AssessmentID = &ref
	case EvidenceObservation:
		link.ObservationID = &ref
	case EvidencePortfolioArtifact:
		link.PortfolioArtifactID = &ref
	case EvidenceLessonLogVerification:
		link.LessonLogID = &ref
	default:
		return nil, NewError(CodeInvariantViolation, "mastery.evidence_link", "unknown evidence kind "+string(it.Kind), nil)
	}
	return link, nil
}

// Reference returns the id of the single populated reference column.
func (l *EvidenceLink) Reference() (uuid.UUID, bool) {
	var set []uuid.UUID
	for _, p := range []*uuid.UUID{l.AssessmentID, l.ObservationID, l.PortfolioArtifactID, l.LessonLogID} {
		if p != nil {
			set = append(set, *p)
		}
	}
	if len(set) != 1 {
		return uuid.Nil, false
	}
	return set[0], true
}
