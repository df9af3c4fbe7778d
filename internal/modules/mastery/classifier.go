package mastery

import (
	domain "github.com/yungbote/schoolbridge-backend/internal/domain/mastery"
)

// Classify maps an evidence aggregate onto a level of the catalog. The rules
// are a first-match decision list:
//
//  1. no evidence                                  -> not_started (else first level)
//  2. count >= mastered with assessment AND obs    -> mastered    (else last level)
//  3. count >= proficient with assessment OR obs   -> proficient  (else last level)
//  4. count >= developing                          -> developing  (else level min(2, last))
//  5. count >= emerging                            -> emerging    (else level min(1, last))
//  6. otherwise                                    -> first level
//
// ok is false when thresholds are not configured or the catalog is empty.
// Levels are matched on Kind, then on label for levels without a kind.
func Classify(evidenceCount int, hasAssessment, hasObservation bool, thresholds *domain.Thresholds, levels []domain.MasteryLevel) (domain.MasteryLevel, bool) {
	if thresholds == nil || len(levels) == 0 {
		return domain.MasteryLevel{}, false
	}
	ordered := make([]domain.MasteryLevel, len(levels))
	copy(ordered, levels)
	domain.SortLevels(ordered)

	last := len(ordered) - 1
	pick := func(kind domain.LevelKind, fallback int) domain.MasteryLevel {
		if l, ok := levelOfKind(ordered, kind); ok {
			return l
		}
		return ordered[fallback]
	}

	t := *thresholds
	switch {
	case evidenceCount <= 0:
		return pick(domain.LevelNotStarted, 0), true
	case evidenceCount >= t.Mastered && hasAssessment && hasObservation:
		return pick(domain.LevelMastered, last), true
	case evidenceCount >= t.Proficient && (hasAssessment || hasObservation):
		return pick(domain.LevelProficient, last), true
	case evidenceCount >= t.Developing:
		return pick(domain.LevelDeveloping, min(2, last)), true
	case evidenceCount >= t.Emerging:
		return pick(domain.LevelEmerging, min(1, last)), true
	default:
		return ordered[0], true
	}
}

func levelOfKind(levels []domain.MasteryLevel, kind domain.LevelKind) (domain.MasteryLevel, bool) {
	for _, l := range levels {
		if l.Kind == kind {
			return l, true
		}
	}
	for _, l := range levels {
		if l.LabelMatches(kind) {
			return l, true
		}
	}
	return domain.MasteryLevel{}, false
}
