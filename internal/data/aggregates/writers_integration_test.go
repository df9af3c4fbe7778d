package aggregates_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/schoolbridge-backend/internal/data/aggregates"
	aggtest "github.com/yungbote/schoolbridge-backend/internal/data/aggregates/testutil"
	"github.com/yungbote/schoolbridge-backend/internal/data/repos"
	repotest "github.com/yungbote/schoolbridge-backend/internal/data/repos/testutil"
	domain "github.com/yungbote/schoolbridge-backend/internal/domain/mastery"
	"github.com/yungbote/schoolbridge-backend/internal/platform/dbctx"
)

type writerFixture struct {
	db        *gorm.DB
	org       uuid.UUID
	actor     uuid.UUID
	levels    []domain.MasteryLevel
	run       *domain.SnapshotRun
	snapshots repos.SnapshotRepo
	links     repos.EvidenceLinkRepo
	events    repos.ReviewEventRepo
	runs      repos.SnapshotRunRepo
	hooks     *aggtest.HooksRecorder
}

func newWriterFixture(t *testing.T) *writerFixture {
	t.Helper()
	db := repotest.DB(t)
	log := repotest.Logger(t)
	ctx := context.Background()
	f := &writerFixture{
		db:        db,
		org:       uuid.New(),
		actor:     uuid.New(),
		snapshots: repos.NewSnapshotRepo(db, log),
		links:     repos.NewEvidenceLinkRepo(db, log),
		events:    repos.NewReviewEventRepo(db, log),
		runs:      repos.NewSnapshotRunRepo(db, log),
		hooks:     &aggtest.HooksRecorder{},
	}
	model, levels := repotest.SeedModel(t, ctx, db, f.org, domain.Thresholds{Emerging: 1, Developing: 3, Proficient: 5, Mastered: 8})
	f.levels = levels
	run, err := aggregates.NewRunWriter(aggregates.RunWriterDeps{Base: f.base(), Runs: f.runs, Snapshots: f.snapshots}).Start(ctx, &domain.SnapshotRun{
		OrganizationID: f.org,
		ScopeKind:      domain.ScopeSection,
		ScopeID:        uuid.New(),
		MasteryModelID: model.ID,
		SnapshotDate:   time.Now().UTC(),
		CreatedBy:      f.actor,
	})
	if err != nil {
		t.Fatalf("start run: %v", err)
	}
	f.run = run
	return f
}

func (f *writerFixture) base() aggregates.BaseDeps {
	return aggregates.BaseDeps{DB: f.db, Hooks: f.hooks}
}

func (f *writerFixture) snapshot(items int) (*domain.Snapshot, []domain.EvidenceItem) {
	now := time.Now().UTC()
	evidence := make([]domain.EvidenceItem, 0, items)
	for i := 0; i < items; i++ {
		evidence = append(evidence, domain.EvidenceItem{Kind: domain.EvidenceObservation, SourceID: uuid.New(), OccurredAt: now})
	}
	return &domain.Snapshot{
		RunID:          f.run.ID,
		OrganizationID: f.org,
		LearnerID:      uuid.New(),
		CompetencyID:   uuid.New(),
		MasteryLevelID: f.levels[1].ID,
		RationaleText:  "Evidence: test",
		EvidenceCount:  items,
		SnapshotDate:   now,
		ConfirmedAt:    now,
		ConfirmedBy:    f.actor,
		CreatedBy:      f.actor,
	}, evidence
}

func TestSnapshotWriterWritesSnapshotAndLinks(t *testing.T) {
	f := newWriterFixture(t)
	ctx := context.Background()
	w := aggregates.NewSnapshotWriter(aggregates.SnapshotWriterDeps{Base: f.base(), Snapshots: f.snapshots, Links: f.links})

	s, items := f.snapshot(3)
	created, err := w.CreateWithEvidence(ctx, aggregates.CreateSnapshotInput{Snapshot: s, Items: items})
	if err != nil {
		t.Fatalf("CreateWithEvidence: %v", err)
	}
	if created.ReviewStatus != domain.ReviewDraft {
		t.Fatalf("new snapshot should be draft, got %q", created.ReviewStatus)
	}
	links, err := f.links.ListBySnapshot(dbctx.Background(ctx), created.ID)
	if err != nil || len(links) != 3 {
		t.Fatalf("links: %d %v", len(links), err)
	}
}

func TestSnapshotWriterRollsBackLinksWithSnapshot(t *testing.T) {
	f := newWriterFixture(t)
	ctx := context.Background()
	runner := &aggtest.InjectedTxRunner{DB: f.db, FailCommit: errors.New("disk full")}
	base := f.base()
	base.Runner = runner
	w := aggregates.NewSnapshotWriter(aggregates.SnapshotWriterDeps{Base: base, Snapshots: f.snapshots, Links: f.links})

	s, items := f.snapshot(2)
	if _, err := w.CreateWithEvidence(ctx, aggregates.CreateSnapshotInput{Snapshot: s, Items: items}); err == nil {
		t.Fatalf("expected injected failure")
	}
	n, err := f.snapshots.CountByRun(dbctx.Background(ctx), f.run.ID)
	if err != nil || n != 0 {
		t.Fatalf("snapshot should have rolled back: n=%d err=%v", n, err)
	}
	links, err := f.links.ListBySnapshot(dbctx.Background(ctx), s.ID)
	if err != nil || len(links) != 0 {
		t.Fatalf("links should have rolled back: %d %v", len(links), err)
	}
}

func TestSnapshotWriterRejectsCountMismatch(t *testing.T) {
	f := newWriterFixture(t)
	w := aggregates.NewSnapshotWriter(aggregates.SnapshotWriterDeps{Base: f.base(), Snapshots: f.snapshots, Links: f.links})
	s, items := f.snapshot(2)
	s.EvidenceCount = 5
	_, err := w.CreateWithEvidence(context.Background(), aggregates.CreateSnapshotInput{Snapshot: s, Items: items})
	if !domain.IsCode(err, domain.CodeInvariantViolation) {
		t.Fatalf("want invariant violation, got %v", err)
	}
}

func TestRunWriterFinalizeCountsRowsOnce(t *testing.T) {
	f := newWriterFixture(t)
	ctx := context.Background()
	sw := aggregates.NewSnapshotWriter(aggregates.SnapshotWriterDeps{Base: f.base(), Snapshots: f.snapshots, Links: f.links})
	for i := 0; i < 2; i++ {
		s, items := f.snapshot(i)
		if _, err := sw.CreateWithEvidence(ctx, aggregates.CreateSnapshotInput{Snapshot: s, Items: items}); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	rw := aggregates.NewRunWriter(aggregates.RunWriterDeps{Base: f.base(), Runs: f.runs, Snapshots: f.snapshots})
	in := aggregates.FinalizeRunInput{
		RunID:          f.run.ID,
		OrganizationID: f.org,
		Status:         domain.RunCompleted,
		PairsTotal:     3,
		PairsSkipped:   1,
		Summary:        domain.RunSummary{Learners: 3, Competencies: 1},
	}
	run, err := rw.Finalize(ctx, in)
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if run.SnapshotCount != 2 || run.Status != domain.RunCompleted || run.FinishedAt == nil {
		t.Fatalf("unexpected run: %+v", run)
	}
	if _, err := rw.Finalize(ctx, in); !domain.IsCode(err, domain.CodeConflict) {
		t.Fatalf("second finalize should conflict, got %v", err)
	}
	if got := f.hooks.StatusCounts("Mastery.Run.Finalize"); got["success"] != 1 || got["conflict"] != 1 {
		t.Fatalf("hook statuses: %v", got)
	}
}

func TestReviewWriterTransitionsAndAudits(t *testing.T) {
	f := newWriterFixture(t)
	ctx := context.Background()
	sw := aggregates.NewSnapshotWriter(aggregates.SnapshotWriterDeps{Base: f.base(), Snapshots: f.snapshots, Links: f.links})
	s, items := f.snapshot(1)
	created, err := sw.CreateWithEvidence(ctx, aggregates.CreateSnapshotInput{Snapshot: s, Items: items})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	rw := aggregates.NewReviewWriter(aggregates.ReviewWriterDeps{Base: f.base(), Snapshots: f.snapshots, Events: f.events})
	reviewer := uuid.New()

	if _, err := rw.Transition(ctx, aggregates.ReviewTransitionInput{SnapshotID: created.ID, OrganizationID: f.org, ActorID: reviewer, Action: domain.ActionApprove}); !domain.IsCode(err, domain.CodeConflict) {
		t.Fatalf("approving a draft should conflict, got %v", err)
	}
	if _, err := rw.Transition(ctx, aggregates.ReviewTransitionInput{SnapshotID: created.ID, OrganizationID: f.org, ActorID: f.actor, Action: domain.ActionSubmit}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	override := f.levels[4].ID
	got, err := rw.Transition(ctx, aggregates.ReviewTransitionInput{
		SnapshotID:      created.ID,
		OrganizationID:  f.org,
		ActorID:         reviewer,
		Action:          domain.ActionOverride,
		Notes:           "portfolio shows more",
		OverrideLevelID: &override,
		Justification:   "capstone project",
	})
	if err != nil {
		t.Fatalf("override: %v", err)
	}
	if got.ReviewStatus != domain.ReviewOverridden || got.EffectiveLevelID() != override {
		t.Fatalf("unexpected review state: %+v", got)
	}
	if got.MasteryLevelID != created.MasteryLevelID || got.RationaleText != created.RationaleText || got.EvidenceCount != created.EvidenceCount {
		t.Fatalf("core fields changed by review")
	}
	if got.ReviewedBy == nil || *got.ReviewedBy != reviewer || got.OverrideJustification != "capstone project" {
		t.Fatalf("review fields not recorded: %+v", got)
	}

	events, err := f.events.ListBySnapshot(dbctx.Background(ctx), created.ID)
	if err != nil || len(events) != 2 {
		t.Fatalf("events: %d %v", len(events), err)
	}
	if events[0].ToStatus != domain.ReviewSubmitted || events[1].ToStatus != domain.ReviewOverridden {
		t.Fatalf("event order: %+v", events)
	}
}
