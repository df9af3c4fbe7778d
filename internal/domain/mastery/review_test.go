package mastery

import (
	"testing"

	"github.com/google/uuid"
)

func TestNextReviewStatus(t *testing.T) {
	cases := []struct {
		from   ReviewStatus
		action ReviewAction
		want   ReviewStatus
		code   ErrorCode
	}{
		{ReviewDraft, ActionSubmit, ReviewSubmitted, ""},
		{ReviewChangesRequested, ActionSubmit, ReviewSubmitted, ""},
		{ReviewSubmitted, ActionApprove, ReviewApproved, ""},
		{ReviewSubmitted, ActionRequestChanges, ReviewChangesRequested, ""},
		{ReviewSubmitted, ActionOverride, ReviewOverridden, ""},
		{ReviewDraft, ActionApprove, ReviewDraft, CodeConflict},
		{ReviewApproved, ActionOverride, ReviewApproved, CodeConflict},
		{ReviewOverridden, ActionApprove, ReviewOverridden, CodeConflict},
		{ReviewSubmitted, ActionSubmit, ReviewSubmitted, CodeConflict},
		{ReviewSubmitted, ReviewAction("delete"), ReviewSubmitted, CodeValidation},
	}
	for _, tc := range cases {
		got, err := NextReviewStatus(tc.from, tc.action)
		if tc.code == "" {
			if err != nil {
				t.Fatalf("%s/%s: unexpected err %v", tc.from, tc.action, err)
			}
		} else if !IsCode(err, tc.code) {
			t.Fatalf("%s/%s: want code %s got %v", tc.from, tc.action, tc.code, err)
		}
		if got != tc.want {
			t.Fatalf("%s/%s: want %s got %s", tc.from, tc.action, tc.want, got)
		}
	}
}

func TestParseReviewActionRejectsSubmit(t *testing.T) {
	if _, ok := ParseReviewAction(" Approve "); !ok {
		t.Fatalf("approve should parse")
	}
	if _, ok := ParseReviewAction("submit"); ok {
		t.Fatalf("submit is not a reviewer action")
	}
}

func TestEffectiveLevelID(t *testing.T) {
	computed := uuid.New()
	override := uuid.New()
	s := &Snapshot{MasteryLevelID: computed, ReviewStatus: ReviewSubmitted, OverrideLevelID: &override}
	if got := s.EffectiveLevelID(); got != computed {
		t.Fatalf("override only counts once overridden: got %s", got)
	}
	s.ReviewStatus = ReviewOverridden
	if got := s.EffectiveLevelID(); got != override {
		t.Fatalf("want override level, got %s", got)
	}
	if s.MasteryLevelID != computed {
		t.Fatalf("computed level must be retained")
	}
}
