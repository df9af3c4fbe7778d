package mastery

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestEvidenceAggregateDeduplicates(t *testing.T) {
	a := uuid.New()
	o := uuid.New()
	t0 := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	agg := NewEvidenceAggregate([]EvidenceItem{
		{Kind: EvidenceAssessment, SourceID: a, OccurredAt: t0.Add(time.Hour)},
		{Kind: EvidenceAssessment, SourceID: a, OccurredAt: t0},
		{Kind: EvidenceObservation, SourceID: o, OccurredAt: t0.Add(48 * time.Hour)},
		// same id under another kind is a different item
		{Kind: EvidenceObservation, SourceID: a, OccurredAt: t0},
	})
	if agg.Count() != 3 {
		t.Fatalf("count: want=3 got=%d", agg.Count())
	}
	if !agg.HasAssessment() || !agg.HasObservation() {
		t.Fatalf("flags not set: %+v", agg)
	}
	if agg.LastEvidenceAt == nil || !agg.LastEvidenceAt.Equal(t0.Add(48*time.Hour)) {
		t.Fatalf("last evidence: %v", agg.LastEvidenceAt)
	}
	if agg.Items[0].OccurredAt != t0 {
		t.Fatalf("earliest timestamp should win on duplicates")
	}
}

func TestEvidenceAggregateEmpty(t *testing.T) {
	agg := NewEvidenceAggregate(nil)
	if agg.Count() != 0 || agg.LastEvidenceAt != nil || agg.HasAssessment() || agg.HasObservation() {
		t.Fatalf("expected zero aggregate, got %+v", agg)
	}
}

func TestNewEvidenceLinkSetsExactlyOneReference(t *testing.T) {
	snap := uuid.New()
	by := uuid.New()
	for _, kind := range []EvidenceKind{EvidenceAssessment, EvidenceObservation, EvidencePortfolioArtifact, EvidenceLessonLogVerification} {
		src := uuid.New()
		link, err := NewEvidenceLink(snap, EvidenceItem{Kind: kind, SourceID: src, OccurredAt: time.Now()}, by)
		if err != nil {
			t.Fatalf("%s: %v", kind, err)
		}
		ref, ok := link.Reference()
		if !ok || ref != src {
			t.Fatalf("%s: reference=%s ok=%v", kind, ref, ok)
		}
	}
	if _, err := NewEvidenceLink(snap, EvidenceItem{Kind: "attendance", SourceID: uuid.New()}, by); err == nil {
		t.Fatalf("attendance is never evidence")
	}
}
