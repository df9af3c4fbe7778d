package school

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/schoolbridge-backend/internal/data/repos/testutil"
	"github.com/yungbote/schoolbridge-backend/internal/domain/mastery"
	sd "github.com/yungbote/schoolbridge-backend/internal/domain/school"
	"github.com/yungbote/schoolbridge-backend/internal/platform/dbctx"
)

func TestEvidenceRepoAssessmentsCountOncePerAssessment(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	dbc := dbctx.Background(ctx)
	repo := NewEvidenceRepo(db, testutil.Logger(t))

	org, learner := uuid.New(), uuid.New()
	comp := testutil.SeedCompetency(t, ctx, db, org, "writing")
	other := testutil.SeedCompetency(t, ctx, db, org, "math")
	now := time.Now().UTC().Truncate(time.Second)

	o1 := testutil.SeedObservation(t, ctx, db, org, learner, comp.ID, nil, sd.ObservationActive, now)
	o2 := testutil.SeedObservation(t, ctx, db, org, learner, comp.ID, nil, sd.ObservationActive, now)
	o3 := testutil.SeedObservation(t, ctx, db, org, learner, other.ID, nil, sd.ObservationActive, now)

	done := testutil.SeedAssessment(t, ctx, db, org, learner, sd.AssessmentCompleted, now, o1.ID, o2.ID, o3.ID)
	testutil.SeedAssessment(t, ctx, db, org, learner, "draft", now, o1.ID)

	got, err := repo.Assessments(dbc, EvidenceQuery{OrganizationID: org, LearnerID: learner, CompetencyIDs: []uuid.UUID{comp.ID, other.ID}})
	if err != nil {
		t.Fatalf("Assessments: %v", err)
	}
	if len(got[comp.ID]) != 1 || got[comp.ID][0].SourceID != done.ID {
		t.Fatalf("writing assessments: %+v", got[comp.ID])
	}
	if len(got[other.ID]) != 1 {
		t.Fatalf("math assessments: %+v", got[other.ID])
	}
}

func TestEvidenceRepoObservationsParticipationPortfolio(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	dbc := dbctx.Background(ctx)
	repo := NewEvidenceRepo(db, testutil.Logger(t))

	org, learner := uuid.New(), uuid.New()
	comp := testutil.SeedCompetency(t, ctx, db, org, "science")
	now := time.Now().UTC().Truncate(time.Second)

	testutil.SeedObservation(t, ctx, db, org, learner, comp.ID, nil, sd.ObservationActive, now)
	testutil.SeedObservation(t, ctx, db, org, learner, comp.ID, nil, sd.ObservationRetired, now)
	testutil.SeedObservation(t, ctx, db, org, uuid.New(), comp.ID, nil, sd.ObservationActive, now)

	syl := testutil.SeedSyllabus(t, ctx, db, org, []uuid.UUID{comp.ID})
	l1 := testutil.SeedLessonLog(t, ctx, db, syl.ID)
	l2 := testutil.SeedLessonLog(t, ctx, db, syl.ID)
	testutil.SeedVerification(t, ctx, db, l1.ID, learner, true, now)
	testutil.SeedVerification(t, ctx, db, l2.ID, learner, false, now)

	art := testutil.SeedArtifact(t, ctx, db, org, learner, now, comp.ID)
	testutil.SeedArtifact(t, ctx, db, org, learner, now)

	q := EvidenceQuery{OrganizationID: org, LearnerID: learner, CompetencyIDs: []uuid.UUID{comp.ID}}
	obs, err := repo.Observations(dbc, q)
	if err != nil || len(obs[comp.ID]) != 1 {
		t.Fatalf("observations: %+v %v", obs, err)
	}

	part, err := repo.Participation(dbc, q)
	if err != nil || len(part) != 0 {
		t.Fatalf("participation only applies to syllabus scope: %+v %v", part, err)
	}
	q.SyllabusID = &syl.ID
	part, err = repo.Participation(dbc, q)
	if err != nil {
		t.Fatalf("Participation: %v", err)
	}
	if len(part) != 1 || part[0].SourceID != l1.ID || part[0].Kind != mastery.EvidenceLessonLogVerification {
		t.Fatalf("participation should keep accomplished only: %+v", part)
	}

	port, err := repo.PortfolioArtifacts(dbc, q)
	if err != nil || len(port[comp.ID]) != 1 || port[comp.ID][0].SourceID != art.ID {
		t.Fatalf("portfolio: %+v %v", port, err)
	}
}
