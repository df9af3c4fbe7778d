package mastery

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/schoolbridge-backend/internal/data/aggregates"
	"github.com/yungbote/schoolbridge-backend/internal/data/repos"
	repotest "github.com/yungbote/schoolbridge-backend/internal/data/repos/testutil"
	domain "github.com/yungbote/schoolbridge-backend/internal/domain/mastery"
	"github.com/yungbote/schoolbridge-backend/internal/domain/school"
	"github.com/yungbote/schoolbridge-backend/internal/platform/dbctx"
)

var standardThresholds = domain.Thresholds{Emerging: 1, Developing: 3, Proficient: 5, Mastered: 8}

// engine wires the real repos and writers over a test database.
type engine struct {
	t      *testing.T
	ctx    context.Context
	db     *gorm.DB
	actor  Actor
	model  *domain.MasteryModel
	levels []domain.MasteryLevel

	scopes    repos.ScopeRepo
	evidence  repos.EvidenceRepo
	models    repos.MasteryModelRepo
	runRepo   repos.SnapshotRunRepo
	snapRepo  repos.SnapshotRepo
	linkRepo  repos.EvidenceLinkRepo
	eventRepo repos.ReviewEventRepo
	catalog   CatalogSource

	snapshotWriter aggregates.SnapshotWriter
	runWriter      aggregates.RunWriter
	reviewWriter   aggregates.ReviewWriter
}

func newEngine(t *testing.T) *engine {
	t.Helper()
	db := repotest.DB(t)
	log := repotest.Logger(t)
	e := &engine{
		t:   t,
		ctx: context.Background(),
		db:  db,
		actor: Actor{
			UserID:         uuid.New(),
			OrganizationID: uuid.New(),
		},
		scopes:    repos.NewScopeRepo(db, log),
		evidence:  repos.NewEvidenceRepo(db, log),
		models:    repos.NewMasteryModelRepo(db, log),
		runRepo:   repos.NewSnapshotRunRepo(db, log),
		snapRepo:  repos.NewSnapshotRepo(db, log),
		linkRepo:  repos.NewEvidenceLinkRepo(db, log),
		eventRepo: repos.NewReviewEventRepo(db, log),
	}
	e.catalog = NewCatalogSource(e.models, repos.NewSchoolYearRepo(db, log), 0)
	base := aggregates.BaseDeps{DB: db, Log: log}
	e.snapshotWriter = aggregates.NewSnapshotWriter(aggregates.SnapshotWriterDeps{Base: base, Snapshots: e.snapRepo, Links: e.linkRepo})
	e.runWriter = aggregates.NewRunWriter(aggregates.RunWriterDeps{Base: base, Runs: e.runRepo, Snapshots: e.snapRepo})
	e.reviewWriter = aggregates.NewReviewWriter(aggregates.ReviewWriterDeps{Base: base, Snapshots: e.snapRepo, Events: e.eventRepo})
	e.model, e.levels = repotest.SeedModel(t, e.ctx, db, e.actor.OrganizationID, standardThresholds)
	return e
}

func (e *engine) coordinator(mutate ...func(*RunCoordinatorDeps)) RunCoordinator {
	deps := RunCoordinatorDeps{
		Log:       repotest.Logger(e.t),
		Scopes:    NewScopeResolver(e.scopes, repotest.Logger(e.t)),
		Evidence:  NewEvidenceCollector(e.evidence),
		Catalog:   e.catalog,
		Runs:      e.runWriter,
		Snapshots: e.snapshotWriter,
		Workers:   3,
	}
	for _, m := range mutate {
		m(&deps)
	}
	return NewRunCoordinator(deps)
}

func (e *engine) workflow(mutate ...func(*ReviewWorkflowDeps)) ReviewWorkflow {
	deps := ReviewWorkflowDeps{
		Log:       repotest.Logger(e.t),
		Snapshots: e.snapRepo,
		Models:    e.models,
		Writer:    e.reviewWriter,
	}
	for _, m := range mutate {
		m(&deps)
	}
	return NewReviewWorkflow(deps)
}

func (e *engine) reader() Reader {
	return NewReader(ReaderDeps{Runs: e.runRepo, Snapshots: e.snapRepo, Links: e.linkRepo, Events: e.eventRepo})
}

func (e *engine) level(kind domain.LevelKind) domain.MasteryLevel {
	for _, l := range e.levels {
		if l.Kind == kind {
			return l
		}
	}
	e.t.Fatalf("no level of kind %s", kind)
	return domain.MasteryLevel{}
}

// sectionScenario is a section with two learners and two competencies:
//
//	learnerA x compMastered: 4 observations, 1 assessment, 3 artifacts -> mastered
//	learnerA x compNone:     nothing                                   -> not_started
//	learnerB x compMastered: 2 artifacts                               -> emerging
//	learnerB x compNone:     5 artifacts                               -> developing
type sectionScenario struct {
	section      *school.Section
	learnerA     uuid.UUID
	learnerB     uuid.UUID
	compMastered uuid.UUID
	compNone     uuid.UUID
}

func (e *engine) seedSection() sectionScenario {
	e.t.Helper()
	org := e.actor.OrganizationID
	s := sectionScenario{learnerA: uuid.New(), learnerB: uuid.New()}
	s.compMastered = repotest.SeedCompetency(e.t, e.ctx, e.db, org, "reading").ID
	s.compNone = repotest.SeedCompetency(e.t, e.ctx, e.db, org, "writing").ID
	s.section = repotest.SeedSection(e.t, e.ctx, e.db, org, nil, true)
	repotest.SeedEnrollment(e.t, e.ctx, e.db, s.section.ID, s.learnerA, school.EnrollmentActive)
	repotest.SeedEnrollment(e.t, e.ctx, e.db, s.section.ID, s.learnerB, school.EnrollmentActive)

	at := time.Now().UTC().Add(-48 * time.Hour)
	var obsIDs []uuid.UUID
	for i := 0; i < 4; i++ {
		o := repotest.SeedObservation(e.t, e.ctx, e.db, org, s.learnerA, s.compMastered, nil, school.ObservationActive, at.Add(time.Duration(i)*time.Hour))
		obsIDs = append(obsIDs, o.ID)
	}
	// Two links to observations of the same competency still count once.
	repotest.SeedAssessment(e.t, e.ctx, e.db, org, s.learnerA, school.AssessmentCompleted, at, obsIDs[0], obsIDs[1])
	for i := 0; i < 3; i++ {
		repotest.SeedArtifact(e.t, e.ctx, e.db, org, s.learnerA, at, s.compMastered)
	}
	for i := 0; i < 2; i++ {
		repotest.SeedArtifact(e.t, e.ctx, e.db, org, s.learnerB, at, s.compMastered)
	}
	for i := 0; i < 5; i++ {
		repotest.SeedArtifact(e.t, e.ctx, e.db, org, s.learnerB, at, s.compNone)
	}
	return s
}

func (e *engine) sectionRequest(s sectionScenario) TriggerRequest {
	return TriggerRequest{
		ScopeKind:      string(domain.ScopeSection),
		ScopeID:        s.section.ID.String(),
		MasteryModelID: e.model.ID.String(),
	}
}

func (e *engine) countRows(model any, where string, args ...any) int64 {
	e.t.Helper()
	var n int64
	if err := e.db.Model(model).Where(where, args...).Count(&n).Error; err != nil {
		e.t.Fatalf("count rows: %v", err)
	}
	return n
}

func (e *engine) snapshotsOf(runID uuid.UUID) map[domain.PairKey]*domain.Snapshot {
	e.t.Helper()
	var rows []*domain.Snapshot
	if err := e.db.Where("run_id = ?", runID).Find(&rows).Error; err != nil {
		e.t.Fatalf("load snapshots: %v", err)
	}
	out := make(map[domain.PairKey]*domain.Snapshot, len(rows))
	for _, r := range rows {
		out[domain.PairKey{LearnerID: r.LearnerID, CompetencyID: r.CompetencyID}] = r
	}
	return out
}

func dbcOf(e *engine) dbctx.Context { return dbctx.Background(e.ctx) }
