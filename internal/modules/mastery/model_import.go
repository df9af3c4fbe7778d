package mastery

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/yungbote/schoolbridge-backend/internal/data/aggregates"
	domain "github.com/yungbote/schoolbridge-backend/internal/domain/mastery"
	"github.com/yungbote/schoolbridge-backend/internal/platform/logger"
)

// ModelDocument is the YAML form of a mastery model:
//
//	name: Five level
//	thresholds: {emerging: 1, developing: 3, proficient: 5, mastered: 8}
//	levels:
//	  - {label: Not Started, kind: not_started}
//	  - {label: Emerging, kind: emerging}
type ModelDocument struct {
	Name       string               `yaml:"name"`
	Thresholds *domain.Thresholds   `yaml:"thresholds"`
	Levels     []ModelLevelDocument `yaml:"levels"`
}

type ModelLevelDocument struct {
	Label string `yaml:"label"`
	Kind  string `yaml:"kind"`
	// Order defaults to the level's position in the list.
	Order *int `yaml:"order"`
}

// ParseModelDocument decodes and checks a model document. Unknown keys are
// rejected so typos do not silently drop configuration.
func ParseModelDocument(r io.Reader) (*ModelDocument, error) {
	const op = "mastery.model.parse"
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, domain.Wrap(domain.CodeInternal, op, err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	var doc ModelDocument
	if err := dec.Decode(&doc); err != nil {
		return nil, domain.ValidationFailed(op, map[string]string{"document": err.Error()})
	}

	fields := map[string]string{}
	if strings.TrimSpace(doc.Name) == "" {
		fields["name"] = "required"
	}
	if len(doc.Levels) == 0 {
		fields["levels"] = "at least one level is required"
	}
	seen := map[domain.LevelKind]bool{}
	for i, l := range doc.Levels {
		key := fmt.Sprintf("levels[%d]", i)
		if strings.TrimSpace(l.Label) == "" {
			fields[key+".label"] = "required"
		}
		kind := domain.LevelKind(strings.TrimSpace(l.Kind))
		if !kind.Valid() {
			fields[key+".kind"] = "unknown level kind " + l.Kind
			continue
		}
		if kind != domain.LevelUnspecified && seen[kind] {
			fields[key+".kind"] = "duplicate level kind " + l.Kind
		}
		seen[kind] = true
	}
	if t := doc.Thresholds; t != nil && (t.Emerging < 0 || t.Developing < 0 || t.Proficient < 0 || t.Mastered < 0) {
		fields["thresholds"] = "must not be negative"
	}
	if len(fields) > 0 {
		return nil, domain.ValidationFailed(op, fields)
	}
	return &doc, nil
}

// levels converts the document's levels to records in display order.
func (d *ModelDocument) levels() []domain.MasteryLevel {
	out := make([]domain.MasteryLevel, 0, len(d.Levels))
	for i, l := range d.Levels {
		order := i
		if l.Order != nil {
			order = *l.Order
		}
		out = append(out, domain.MasteryLevel{
			Label:        strings.TrimSpace(l.Label),
			Kind:         domain.LevelKind(strings.TrimSpace(l.Kind)),
			DisplayOrder: order,
		})
	}
	return out
}

type ImportResult struct {
	Catalog  *domain.Catalog `json:"catalog"`
	Created  bool            `json:"created"`
	Warnings []string        `json:"warnings,omitempty"`
}

type ModelImporter struct {
	Writer  aggregates.ModelWriter
	Catalog CatalogSource
	Log     *logger.Logger
}

// Import writes doc for the organization. Non-monotonic thresholds are
// accepted with a warning.
func (m ModelImporter) Import(ctx context.Context, orgID uuid.UUID, doc *ModelDocument) (*ImportResult, error) {
	res, err := m.Writer.Upsert(ctx, aggregates.UpsertModelInput{
		OrganizationID: orgID,
		Name:           doc.Name,
		Thresholds:     doc.Thresholds,
		Levels:         doc.levels(),
	})
	if err != nil {
		return nil, err
	}
	out := &ImportResult{Catalog: res.Catalog, Created: res.Created}
	if doc.Thresholds == nil {
		out.Warnings = append(out.Warnings, "thresholds are not set; runs with this model will skip every pair")
	} else if !doc.Thresholds.Monotonic() {
		out.Warnings = append(out.Warnings, "thresholds are not non-decreasing; classification will still follow the rule order")
	}
	if !res.Created {
		out.Warnings = append(out.Warnings, "model already existed; only thresholds were updated")
	}
	if m.Catalog != nil {
		m.Catalog.Invalidate(orgID, res.Catalog.Model.ID)
	}
	if m.Log != nil {
		for _, w := range out.Warnings {
			m.Log.Warn("mastery model import", "model", doc.Name, "warning", w)
		}
	}
	return out, nil
}
