package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/schoolbridge-backend/internal/domain/mastery"
	"github.com/yungbote/schoolbridge-backend/internal/domain/school"
)

func create(tb testing.TB, ctx context.Context, tx *gorm.DB, what string, v any) {
	tb.Helper()
	if err := tx.WithContext(ctx).Create(v).Error; err != nil {
		tb.Fatalf("seed %s: %v", what, err)
	}
}

// SeedModel creates a mastery model with the five standard levels, in
// display order not_started..mastered.
func SeedModel(tb testing.TB, ctx context.Context, tx *gorm.DB, orgID uuid.UUID, t mastery.Thresholds) (*mastery.MasteryModel, []mastery.MasteryLevel) {
	tb.Helper()
	m := &mastery.MasteryModel{OrganizationID: orgID, Name: "standard-" + uuid.NewString()[:8]}
	m.SetThresholds(t)
	create(tb, ctx, tx, "mastery model", m)

	kinds := []struct {
		kind  mastery.LevelKind
		label string
	}{
		{mastery.LevelNotStarted, "Not Started"},
		{mastery.LevelEmerging, "Emerging"},
		{mastery.LevelDeveloping, "Developing"},
		{mastery.LevelProficient, "Proficient"},
		{mastery.LevelMastered, "Mastered"},
	}
	levels := make([]mastery.MasteryLevel, 0, len(kinds))
	for i, k := range kinds {
		l := &mastery.MasteryLevel{ModelID: m.ID, Label: k.label, Kind: k.kind, DisplayOrder: i}
		create(tb, ctx, tx, "mastery level", l)
		levels = append(levels, *l)
	}
	return m, levels
}

func SeedCompetency(tb testing.TB, ctx context.Context, tx *gorm.DB, orgID uuid.UUID, name string) *school.Competency {
	tb.Helper()
	c := &school.Competency{OrganizationID: orgID, Name: name}
	create(tb, ctx, tx, "competency", c)
	return c
}

func SeedSchoolYear(tb testing.TB, ctx context.Context, tx *gorm.DB, orgID uuid.UUID, active bool) *school.SchoolYear {
	tb.Helper()
	now := time.Now().UTC()
	y := &school.SchoolYear{OrganizationID: orgID, Name: "2025-2026", StartsOn: now.AddDate(0, -3, 0), EndsOn: now.AddDate(0, 9, 0), IsActive: active}
	create(tb, ctx, tx, "school year", y)
	return y
}

func SeedProgram(tb testing.TB, ctx context.Context, tx *gorm.DB, orgID uuid.UUID) *school.Program {
	tb.Helper()
	p := &school.Program{OrganizationID: orgID, Name: "program"}
	create(tb, ctx, tx, "program", p)
	return p
}

func SeedSection(tb testing.TB, ctx context.Context, tx *gorm.DB, orgID uuid.UUID, programID *uuid.UUID, active bool) *school.Section {
	tb.Helper()
	s := &school.Section{OrganizationID: orgID, ProgramID: programID, Name: "section", IsActive: active}
	create(tb, ctx, tx, "section", s)
	if !active {
		// default:true would override the zero value on insert
		if err := tx.WithContext(ctx).Model(s).Update("is_active", false).Error; err != nil {
			tb.Fatalf("deactivate section: %v", err)
		}
	}
	return s
}

func SeedEnrollment(tb testing.TB, ctx context.Context, tx *gorm.DB, sectionID, learnerID uuid.UUID, status string) *school.SectionEnrollment {
	tb.Helper()
	e := &school.SectionEnrollment{SectionID: sectionID, LearnerID: learnerID, Status: status, EnrolledAt: time.Now().UTC()}
	create(tb, ctx, tx, "enrollment", e)
	return e
}

func SeedExperience(tb testing.TB, ctx context.Context, tx *gorm.DB, orgID uuid.UUID, competencyIDs ...uuid.UUID) *school.Experience {
	tb.Helper()
	e := &school.Experience{OrganizationID: orgID, Title: "experience"}
	create(tb, ctx, tx, "experience", e)
	for _, c := range competencyIDs {
		create(tb, ctx, tx, "experience competency", &school.ExperienceCompetency{ExperienceID: e.ID, CompetencyID: c})
	}
	return e
}

// SeedSyllabus creates a syllabus with one week per entry of weeks, each
// linked to the listed competencies.
func SeedSyllabus(tb testing.TB, ctx context.Context, tx *gorm.DB, orgID uuid.UUID, weeks ...[]uuid.UUID) *school.Syllabus {
	tb.Helper()
	s := &school.Syllabus{OrganizationID: orgID, Title: "syllabus"}
	create(tb, ctx, tx, "syllabus", s)
	for i, comps := range weeks {
		w := &school.SyllabusWeek{SyllabusID: s.ID, WeekNumber: i + 1}
		create(tb, ctx, tx, "syllabus week", w)
		for _, c := range comps {
			create(tb, ctx, tx, "syllabus week competency", &school.SyllabusWeekCompetency{SyllabusWeekID: w.ID, CompetencyID: c})
		}
	}
	return s
}

func SeedLessonLog(tb testing.TB, ctx context.Context, tx *gorm.DB, syllabusID uuid.UUID) *school.LessonLog {
	tb.Helper()
	l := &school.LessonLog{SyllabusID: syllabusID, LoggedOn: time.Now().UTC()}
	create(tb, ctx, tx, "lesson log", l)
	return l
}

func SeedVerification(tb testing.TB, ctx context.Context, tx *gorm.DB, lessonLogID, learnerID uuid.UUID, accomplished bool, at time.Time) *school.LessonLogVerification {
	tb.Helper()
	v := &school.LessonLogVerification{LessonLogID: lessonLogID, LearnerID: learnerID, Accomplished: accomplished, VerifiedAt: at}
	create(tb, ctx, tx, "verification", v)
	return v
}

func SeedObservation(tb testing.TB, ctx context.Context, tx *gorm.DB, orgID, learnerID, competencyID uuid.UUID, experienceID *uuid.UUID, status string, at time.Time) *school.Observation {
	tb.Helper()
	o := &school.Observation{
		OrganizationID: orgID,
		LearnerID:      learnerID,
		CompetencyID:   competencyID,
		ExperienceID:   experienceID,
		Status:         status,
		ObservedAt:     at,
	}
	if status == school.ObservationRetired {
		t := at
		o.RetiredAt = &t
	}
	create(tb, ctx, tx, "observation", o)
	return o
}

// SeedAssessment creates an assessment backed by the given observations.
func SeedAssessment(tb testing.TB, ctx context.Context, tx *gorm.DB, orgID, learnerID uuid.UUID, status string, at time.Time, observationIDs ...uuid.UUID) *school.Assessment {
	tb.Helper()
	a := &school.Assessment{OrganizationID: orgID, LearnerID: learnerID, Status: status, CreatedAt: at}
	if status == school.AssessmentCompleted {
		t := at
		a.CompletedAt = &t
	}
	create(tb, ctx, tx, "assessment", a)
	for _, id := range observationIDs {
		obs := id
		create(tb, ctx, tx, "assessment evidence", &school.AssessmentEvidence{AssessmentID: a.ID, ObservationID: &obs})
	}
	return a
}

func SeedArtifact(tb testing.TB, ctx context.Context, tx *gorm.DB, orgID, learnerID uuid.UUID, at time.Time, competencyIDs ...uuid.UUID) *school.PortfolioArtifact {
	tb.Helper()
	a := &school.PortfolioArtifact{OrganizationID: orgID, LearnerID: learnerID, Title: "artifact", CreatedAt: at}
	create(tb, ctx, tx, "artifact", a)
	for _, c := range competencyIDs {
		create(tb, ctx, tx, "artifact tag", &school.PortfolioArtifactTag{ArtifactID: a.ID, CompetencyID: c})
	}
	return a
}
