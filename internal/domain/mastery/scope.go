package mastery

import (
	"strings"

	"github.com/google/uuid"
)

type ScopeKind string

const (
	ScopeExperience ScopeKind = "experience"
	ScopeSyllabus   ScopeKind = "syllabus"
	ScopeProgram    ScopeKind = "program"
	ScopeSection    ScopeKind = "section"
)

var ScopeKinds = []ScopeKind{ScopeExperience, ScopeSyllabus, ScopeProgram, ScopeSection}

func (k ScopeKind) Valid() bool {
	switch k {
	case ScopeExperience, ScopeSyllabus, ScopeProgram, ScopeSection:
		return true
	}
	return false
}

func ParseScopeKind(raw string) (ScopeKind, bool) {
	k := ScopeKind(strings.ToLower(strings.TrimSpace(raw)))
	return k, k.Valid()
}

// Scope is the target of one batch invocation. It is never persisted on its own.
type Scope struct {
	Kind           ScopeKind
	ID             uuid.UUID
	OrganizationID uuid.UUID
}

// EmptyReason explains why a scope produced nothing to compute.
type EmptyReason string

const (
	EmptyNone           EmptyReason = ""
	EmptyNoLearners     EmptyReason = "no_learners"
	EmptyNoCompetencies EmptyReason = "no_competencies"
	EmptyNoWeeks        EmptyReason = "no_weeks"
)

// ScopeResolution is the concrete learner and competency sets of a scope.
// An empty set is reported through Empty, not as an error.
type ScopeResolution struct {
	Scope        Scope
	Learners     []uuid.UUID
	Competencies []uuid.UUID
	Empty        EmptyReason
}

func (r ScopeResolution) IsEmpty() bool { return r.Empty != EmptyNone }

func (r ScopeResolution) Pairs() int { return len(r.Learners) * len(r.Competencies) }

// Guidance is the remediation message shown to the person who triggered the run.
func (r ScopeResolution) Guidance() string {
	return ScopeGuidance(r.Scope.Kind, r.Empty)
}

func ScopeGuidance(kind ScopeKind, reason EmptyReason) string {
	switch reason {
	case EmptyNoLearners:
		switch kind {
		case ScopeExperience:
			return "No learners have active observations for this experience. Record observations for this experience first."
		case ScopeSyllabus:
			return "No learners have lesson-log verifications for this syllabus. Verify lesson logs for this syllabus first."
		case ScopeProgram:
			return "No learners are enrolled in an active section of this program. Enroll learners in a section first."
		case ScopeSection:
			return "No learners are actively enrolled in this section. Enroll learners in this section first."
		}
	case EmptyNoWeeks:
		return "This syllabus has no weeks. Add weeks to this syllabus first."
	case EmptyNoCompetencies:
		switch kind {
		case ScopeExperience:
			return "No competencies are linked to this experience. Link competencies to this experience first."
		case ScopeSyllabus:
			return "No competencies are linked to the weeks of this syllabus. Link competencies to its weeks first."
		default:
			return "No competencies are defined for this organization. Add competencies first."
		}
	}
	return ""
}
