package mastery

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"

	repotest "github.com/yungbote/schoolbridge-backend/internal/data/repos/testutil"
	domain "github.com/yungbote/schoolbridge-backend/internal/domain/mastery"
	"github.com/yungbote/schoolbridge-backend/internal/observability"
)

// reviewable runs the section scenario and returns one submitted snapshot.
func reviewable(t *testing.T) (*engine, *domain.Snapshot) {
	t.Helper()
	e := newEngine(t)
	s := e.seedSection()
	res, err := e.coordinator().Trigger(e.ctx, e.actor, e.sectionRequest(s))
	if err != nil {
		t.Fatalf("Trigger: %v", err)
	}
	snap := e.snapshotsOf(res.RunID)[domain.PairKey{LearnerID: s.learnerA, CompetencyID: s.compMastered}]
	if snap == nil {
		t.Fatalf("no snapshot for learnerA/compMastered")
	}

	out, err := e.workflow().Submit(e.ctx, e.actor, snap.ID)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if out.ReviewStatus != domain.ReviewSubmitted || out.SubmittedAt == nil {
		t.Fatalf("submit did not record: status=%q submitted_at=%v", out.ReviewStatus, out.SubmittedAt)
	}
	return e, out
}

func wantCode(t *testing.T, err error, code domain.ErrorCode, what string) {
	t.Helper()
	if !domain.IsCode(err, code) {
		t.Fatalf("%s: want %s, got %v", what, code, err)
	}
}

func wantField(t *testing.T, err error, field string) {
	t.Helper()
	wantCode(t, err, domain.CodeValidation, "field "+field)
	if _, ok := domain.FieldsOf(err)[field]; !ok {
		t.Fatalf("want field %q in %v", field, domain.FieldsOf(err))
	}
}

func TestReviewApprove(t *testing.T) {
	e, snap := reviewable(t)
	reviewer := Actor{UserID: uuid.New(), OrganizationID: e.actor.OrganizationID}

	out, err := e.workflow().Review(e.ctx, reviewer, snap.ID, ReviewRequest{Action: "approve"})
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if out.ReviewStatus != domain.ReviewApproved {
		t.Fatalf("status: %q", out.ReviewStatus)
	}
	if out.ReviewedBy == nil || *out.ReviewedBy != reviewer.UserID {
		t.Fatalf("reviewed_by: %v", out.ReviewedBy)
	}
	if out.EffectiveLevelID() != snap.MasteryLevelID {
		t.Fatalf("approval should keep the computed level")
	}

	_, err = e.workflow().Review(e.ctx, reviewer, snap.ID, ReviewRequest{Action: "approve"})
	wantCode(t, err, domain.CodeConflict, "approved snapshots are terminal")
}

func TestReviewRequestChangesNeedsNotes(t *testing.T) {
	e, snap := reviewable(t)
	w := e.workflow()

	_, err := w.Review(e.ctx, e.actor, snap.ID, ReviewRequest{Action: "request_changes", ReviewerNotes: "   "})
	wantField(t, err, "reviewer_notes")
	assertUnchanged(t, e, snap)

	out, err := w.Review(e.ctx, e.actor, snap.ID, ReviewRequest{Action: "request_changes", ReviewerNotes: "Cite the lab write-up."})
	if err != nil {
		t.Fatalf("request_changes: %v", err)
	}
	if out.ReviewStatus != domain.ReviewChangesRequested || out.ReviewerNotes != "Cite the lab write-up." {
		t.Fatalf("unexpected snapshot: status=%q notes=%q", out.ReviewStatus, out.ReviewerNotes)
	}

	// changes_requested goes back to submitted, then can be approved
	out, err = w.Submit(e.ctx, e.actor, snap.ID)
	if err != nil || out.ReviewStatus != domain.ReviewSubmitted {
		t.Fatalf("resubmit: %v", err)
	}
	out, err = w.Review(e.ctx, e.actor, snap.ID, ReviewRequest{Action: "approve"})
	if err != nil || out.ReviewStatus != domain.ReviewApproved {
		t.Fatalf("approve after resubmit: %v", err)
	}

	detail, err := e.reader().GetSnapshot(e.ctx, e.actor.OrganizationID, snap.ID)
	if err != nil {
		t.Fatalf("GetSnapshot: %v", err)
	}
	if len(detail.ReviewEvents) != 4 {
		t.Fatalf("want 4 review events, got %d", len(detail.ReviewEvents))
	}
	if detail.ReviewEvents[0].Action != domain.ActionSubmit || detail.ReviewEvents[3].Action != domain.ActionApprove {
		t.Fatalf("event order: %s ... %s", detail.ReviewEvents[0].Action, detail.ReviewEvents[3].Action)
	}
}

func TestReviewOverride(t *testing.T) {
	e, snap := reviewable(t)
	w := e.workflow()
	target := e.level(domain.LevelProficient)

	cases := []struct {
		name  string
		req   ReviewRequest
		field string
	}{
		{"missing level", ReviewRequest{Action: "override", OverrideJustification: "portfolio review"}, "override_level_id"},
		{"missing justification", ReviewRequest{Action: "override", OverrideLevelID: target.ID.String()}, "override_justification"},
		{"unknown level", ReviewRequest{Action: "override", OverrideLevelID: uuid.NewString(), OverrideJustification: "x"}, "override_level_id"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := w.Review(e.ctx, e.actor, snap.ID, tc.req)
			wantField(t, err, tc.field)
			assertUnchanged(t, e, snap)
		})
	}

	_, foreign := repotest.SeedModel(t, e.ctx, e.db, e.actor.OrganizationID, standardThresholds)
	_, err := w.Review(e.ctx, e.actor, snap.ID, ReviewRequest{
		Action:                "override",
		OverrideLevelID:       foreign[3].ID.String(),
		OverrideJustification: "other model",
	})
	wantCode(t, err, domain.CodeValidation, "level from another model")
	assertUnchanged(t, e, snap)

	out, err := w.Review(e.ctx, e.actor, snap.ID, ReviewRequest{
		Action:                "override",
		OverrideLevelID:       target.ID.String(),
		OverrideJustification: "Assessment was retaken under accommodation.",
		ReviewerNotes:         "see IEP",
	})
	if err != nil {
		t.Fatalf("override: %v", err)
	}
	if out.ReviewStatus != domain.ReviewOverridden || out.EffectiveLevelID() != target.ID {
		t.Fatalf("override not applied: status=%q effective=%s", out.ReviewStatus, out.EffectiveLevelID())
	}

	// the computed judgment is untouched
	if out.MasteryLevelID != snap.MasteryLevelID || out.RationaleText != snap.RationaleText ||
		out.EvidenceCount != snap.EvidenceCount || out.ConfirmedBy != snap.ConfirmedBy {
		t.Fatalf("override changed computed fields: %+v", out)
	}

	detail, err := e.reader().GetSnapshot(e.ctx, e.actor.OrganizationID, snap.ID)
	if err != nil {
		t.Fatalf("GetSnapshot: %v", err)
	}
	if detail.EffectiveLevelID != target.ID {
		t.Fatalf("detail effective level: %s", detail.EffectiveLevelID)
	}
	if len(detail.EvidenceLinks) != snap.EvidenceCount {
		t.Fatalf("want %d evidence links, got %d", snap.EvidenceCount, len(detail.EvidenceLinks))
	}
	last := detail.ReviewEvents[len(detail.ReviewEvents)-1]
	if last.FromStatus != domain.ReviewSubmitted || last.ToStatus != domain.ReviewOverridden {
		t.Fatalf("last event: %s -> %s", last.FromStatus, last.ToStatus)
	}
	if last.Justification != "Assessment was retaken under accommodation." {
		t.Fatalf("justification not audited: %q", last.Justification)
	}
}

func TestReviewIllegalTransitions(t *testing.T) {
	e := newEngine(t)
	s := e.seedSection()
	res, err := e.coordinator().Trigger(e.ctx, e.actor, e.sectionRequest(s))
	if err != nil {
		t.Fatalf("Trigger: %v", err)
	}
	snap := e.snapshotsOf(res.RunID)[domain.PairKey{LearnerID: s.learnerB, CompetencyID: s.compNone}]
	if snap == nil {
		t.Fatalf("no snapshot for learnerB/compNone")
	}
	w := e.workflow()

	_, err = w.Review(e.ctx, e.actor, snap.ID, ReviewRequest{Action: "approve"})
	wantCode(t, err, domain.CodeConflict, "draft cannot be approved")

	_, err = w.Review(e.ctx, e.actor, snap.ID, ReviewRequest{Action: "submit"})
	wantCode(t, err, domain.CodeValidation, "submit is not a reviewer action")

	_, err = w.Review(e.ctx, e.actor, uuid.New(), ReviewRequest{Action: "approve"})
	wantCode(t, err, domain.CodeNotFound, "unknown snapshot")

	other := Actor{UserID: uuid.New(), OrganizationID: uuid.New()}
	_, err = w.Submit(e.ctx, other, snap.ID)
	wantCode(t, err, domain.CodeNotFound, "snapshots are scoped to their organization")

	_, err = w.Review(e.ctx, Actor{}, snap.ID, ReviewRequest{Action: "approve"})
	wantCode(t, err, domain.CodeValidation, "anonymous actor")
}

func TestReviewMetricsKeepActionLabelsBounded(t *testing.T) {
	e, snap := reviewable(t)
	metrics, err := observability.NewMetrics()
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	w := e.workflow(func(d *ReviewWorkflowDeps) { d.Metrics = metrics })
	const name = "schoolbridge_mastery_reviews_total"

	if _, err := w.Review(e.ctx, e.actor, snap.ID, ReviewRequest{Action: "junk-0"}); err == nil {
		t.Fatalf("unknown action should fail validation")
	}
	before, err := promtest.GatherAndCount(metrics.Registry(), name)
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for i := 1; i < 50; i++ {
		_, err := w.Review(e.ctx, e.actor, snap.ID, ReviewRequest{Action: fmt.Sprintf("junk-%d", i)})
		wantCode(t, err, domain.CodeValidation, "unknown action")
	}
	after, err := promtest.GatherAndCount(metrics.Registry(), name)
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if before != 1 || after != before {
		t.Fatalf("review series grew with client input: before=%d after=%d", before, after)
	}
}

func assertUnchanged(t *testing.T, e *engine, want *domain.Snapshot) {
	t.Helper()
	got, err := e.snapRepo.GetByID(dbcOf(e), e.actor.OrganizationID, want.ID)
	if err != nil || got == nil {
		t.Fatalf("reload snapshot: %v", err)
	}
	if got.ReviewStatus != want.ReviewStatus || got.ReviewerNotes != want.ReviewerNotes {
		t.Fatalf("review state changed: status=%q notes=%q", got.ReviewStatus, got.ReviewerNotes)
	}
	if got.OverrideLevelID != nil || got.OverrideJustification != "" {
		t.Fatalf("override recorded on a rejected request")
	}
	if got.MasteryLevelID != want.MasteryLevelID {
		t.Fatalf("computed level changed")
	}
}
