package mastery

import (
	"fmt"
	"strings"

	domain "github.com/yungbote/schoolbridge-backend/internal/domain/mastery"
)

var rationaleKinds = []struct {
	kind             domain.EvidenceKind
	singular, plural string
}{
	{domain.EvidenceAssessment, "assessment", "assessments"},
	{domain.EvidenceObservation, "observation", "observations"},
	{domain.EvidenceLessonLogVerification, "lesson-log verification", "lesson-log verifications"},
	{domain.EvidencePortfolioArtifact, "portfolio artifact", "portfolio artifacts"},
}

// BuildRationale renders the human-readable explanation stored with a
// snapshot, e.g. "Evidence: 6 items (2 assessments, 3 observations,
// 1 portfolio artifact); classified as Proficient."
func BuildRationale(agg domain.EvidenceAggregate, level domain.MasteryLevel) string {
	label := strings.TrimSpace(level.Label)
	if label == "" {
		label = string(level.Kind)
	}
	n := agg.Count()
	if n == 0 {
		return fmt.Sprintf("Evidence: no qualifying items; classified as %s.", label)
	}
	parts := make([]string, 0, len(rationaleKinds))
	for _, k := range rationaleKinds {
		c := agg.KindCount(k.kind)
		switch c {
		case 0:
		case 1:
			parts = append(parts, "1 "+k.singular)
		default:
			parts = append(parts, fmt.Sprintf("%d %s", c, k.plural))
		}
	}
	noun := "items"
	if n == 1 {
		noun = "item"
	}
	out := fmt.Sprintf("Evidence: %d %s (%s); classified as %s.", n, noun, strings.Join(parts, ", "), label)
	if agg.LastEvidenceAt != nil {
		out += " Last evidence " + agg.LastEvidenceAt.UTC().Format("2006-01-02") + "."
	}
	return out
}
