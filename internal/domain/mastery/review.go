package mastery

import (
	"fmt"
	"strings"
)

type ReviewStatus string

const (
	ReviewDraft            ReviewStatus = "draft"
	ReviewSubmitted        ReviewStatus = "submitted"
	ReviewApproved         ReviewStatus = "approved"
	ReviewChangesRequested ReviewStatus = "changes_requested"
	ReviewOverridden       ReviewStatus = "overridden"
)

type ReviewAction string

const (
	ActionSubmit         ReviewAction = "submit"
	ActionApprove        ReviewAction = "approve"
	ActionRequestChanges ReviewAction = "request_changes"
	ActionOverride       ReviewAction = "override"
)

// ParseReviewAction accepts only reviewer actions; submit has its own entry point.
func ParseReviewAction(raw string) (ReviewAction, bool) {
	a := ReviewAction(strings.ToLower(strings.TrimSpace(raw)))
	switch a {
	case ActionApprove, ActionRequestChanges, ActionOverride:
		return a, true
	}
	return a, false
}

type transition struct {
	from []ReviewStatus
	to   ReviewStatus
}

// reviewTransitions is the single source of truth for the proposal lifecycle:
// draft -> submitted -> {approved, changes_requested, overridden}, and a
// changes_requested snapshot may be resubmitted.
var reviewTransitions = map[ReviewAction]transition{
	ActionSubmit:         {from: []ReviewStatus{ReviewDraft, ReviewChangesRequested}, to: ReviewSubmitted},
	ActionApprove:        {from: []ReviewStatus{ReviewSubmitted}, to: ReviewApproved},
	ActionRequestChanges: {from: []ReviewStatus{ReviewSubmitted}, to: ReviewChangesRequested},
	ActionOverride:       {from: []ReviewStatus{ReviewSubmitted}, to: ReviewOverridden},
}

// NextReviewStatus applies action to current, or returns a conflict error when
// the transition table does not allow it.
func NextReviewStatus(current ReviewStatus, action ReviewAction) (ReviewStatus, error) {
	t, ok := reviewTransitions[action]
	if !ok {
		return current, NewError(CodeValidation, "mastery.review", fmt.Sprintf("unknown review action %q", action), nil)
	}
	for _, from := range t.from {
		if from == current {
			return t.to, nil
		}
	}
	return current, NewError(CodeConflict, "mastery.review",
		fmt.Sprintf("cannot %s a snapshot in %s state", strings.ReplaceAll(string(action), "_", " "), current), nil)
}

func (s ReviewStatus) Terminal() bool {
	return s == ReviewApproved || s == ReviewOverridden
}
