package mastery

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LevelKind is the stable discriminant the classifier matches on. Labels are
// display text and may be renamed by an organization.
type LevelKind string

const (
	LevelUnspecified LevelKind = ""
	LevelNotStarted  LevelKind = "not_started"
	LevelEmerging    LevelKind = "emerging"
	LevelDeveloping  LevelKind = "developing"
	LevelProficient  LevelKind = "proficient"
	LevelMastered    LevelKind = "mastered"
)

func (k LevelKind) Valid() bool {
	switch k {
	case LevelUnspecified, LevelNotStarted, LevelEmerging, LevelDeveloping, LevelProficient, LevelMastered:
		return true
	}
	return false
}

// Thresholds are the evidence-count bars of a mastery model. not_started is
// implicitly zero. They are expected, not required, to be non-decreasing.
type Thresholds struct {
	Emerging   int `json:"emerging" yaml:"emerging"`
	Developing int `json:"developing" yaml:"developing"`
	Proficient int `json:"proficient" yaml:"proficient"`
	Mastered   int `json:"mastered" yaml:"mastered"`
}

// Monotonic reports whether the bars are non-decreasing.
func (t Thresholds) Monotonic() bool {
	return 0 <= t.Emerging && t.Emerging <= t.Developing && t.Developing <= t.Proficient && t.Proficient <= t.Mastered
}

type MasteryModel struct {
	ID                  uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	OrganizationID      uuid.UUID `gorm:"type:uuid;not null;index" json:"organization_id"`
	Name                string    `gorm:"column:name;not null" json:"name"`
	EmergingThreshold   *int      `gorm:"column:emerging_threshold" json:"emerging_threshold,omitempty"`
	DevelopingThreshold *int      `gorm:"column:developing_threshold" json:"developing_threshold,omitempty"`
	ProficientThreshold *int      `gorm:"column:proficient_threshold" json:"proficient_threshold,omitempty"`
	MasteredThreshold   *int      `gorm:"column:mastered_threshold" json:"mastered_threshold,omitempty"`
	CreatedAt           time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt           time.Time `gorm:"not null" json:"updated_at"`
}

func (MasteryModel) TableName() string { return "mastery_model" }

func (m *MasteryModel) BeforeCreate(*gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// Thresholds returns the configured bars; ok is false unless all four are set.
func (m *MasteryModel) Thresholds() (Thresholds, bool) {
	if m == nil || m.EmergingThreshold == nil || m.DevelopingThreshold == nil ||
		m.ProficientThreshold == nil || m.MasteredThreshold == nil {
		return Thresholds{}, false
	}
	return Thresholds{
		Emerging:   *m.EmergingThreshold,
		Developing: *m.DevelopingThreshold,
		Proficient: *m.ProficientThreshold,
		Mastered:   *m.MasteredThreshold,
	}, true
}

func (m *MasteryModel) SetThresholds(t Thresholds) {
	m.EmergingThreshold = &t.Emerging
	m.DevelopingThreshold = &t.Developing
	m.ProficientThreshold = &t.Proficient
	m.MasteredThreshold = &t.Mastered
}

type MasteryLevel struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ModelID      uuid.UUID `gorm:"type:uuid;not null;index" json:"model_id"`
	Label        string    `gorm:"column:label;not null" json:"label"`
	Kind         LevelKind `gorm:"column:kind;not null;default:''" json:"kind,omitempty"`
	DisplayOrder int       `gorm:"column:display_order;not null" json:"display_order"`
	CreatedAt    time.Time `gorm:"not null" json:"created_at"`
}

func (MasteryLevel) TableName() string { return "mastery_level" }

func (l *MasteryLevel) BeforeCreate(*gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

// Catalog is a mastery model together with its levels in display order.
type Catalog struct {
	Model  MasteryModel   `json:"model"`
	Levels []MasteryLevel `json:"levels"`
}

// SortLevels orders levels by display order, breaking ties on id.
func SortLevels(levels []MasteryLevel) {
	sort.SliceStable(levels, func(i, j int) bool {
		if levels[i].DisplayOrder != levels[j].DisplayOrder {
			return levels[i].DisplayOrder < levels[j].DisplayOrder
		}
		return levels[i].ID.String() < levels[j].ID.String()
	})
}

func (c *Catalog) Level(id uuid.UUID) (MasteryLevel, bool) {
	if c == nil {
		return MasteryLevel{}, false
	}
	for _, l := range c.Levels {
		if l.ID == id {
			return l, true
		}
	}
	return MasteryLevel{}, false
}

// normalizeLabel folds "Not Started", "not-started" and "NOT_STARTED" together.
func normalizeLabel(label string) string {
	s := strings.ToLower(strings.TrimSpace(label))
	s = strings.ReplaceAll(s, "-", "_")
	return strings.Join(strings.Fields(s), "_")
}

// LabelMatches reports whether the level's label names kind. It is the
// fallback for catalogs whose levels carry no discriminant.
func (l MasteryLevel) LabelMatches(kind LevelKind) bool {
	return l.Kind == LevelUnspecified && normalizeLabel(l.Label) == string(kind)
}
