package mastery

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/yungbote/schoolbridge-backend/internal/data/aggregates"
	domain "github.com/yungbote/schoolbridge-backend/internal/domain/mastery"
	"github.com/yungbote/schoolbridge-backend/internal/observability"
	"github.com/yungbote/schoolbridge-backend/internal/platform/logger"
)

const (
	defaultRunWorkers     = 4
	defaultPairWriteTries = 3
	finalizeTimeout       = 30 * time.Second
	maxFailedPairsListed  = 200
)

// Actor is the authenticated caller on whose behalf the engine acts.
type Actor struct {
	UserID         uuid.UUID
	OrganizationID uuid.UUID
	SchoolID       *uuid.UUID
}

// RunResult is what a caller gets back from a batch.
type RunResult struct {
	RunID         uuid.UUID        `json:"run_id"`
	SnapshotCount int              `json:"snapshot_count"`
	Status        domain.RunStatus `json:"status"`
	Message       string           `json:"message"`
}

type RunCoordinatorDeps struct {
	Log     *logger.Logger
	Metrics *observability.Metrics

	Scopes    ScopeResolver
	Evidence  EvidenceCollector
	Catalog   CatalogSource
	Locker    ScopeLocker
	Runs      aggregates.RunWriter
	Snapshots aggregates.SnapshotWriter

	// Workers bounds how many learners are processed at once.
	Workers int
	// Timeout bounds the whole pair loop; zero means no deadline.
	Timeout           time.Duration
	PairWriteMaxTries uint
	// RetryBackOff builds the backoff between pair write attempts.
	RetryBackOff func() backoff.BackOff
	Now          func() time.Time
}

// RunCoordinator executes one snapshot batch end to end.
type RunCoordinator interface {
	Trigger(ctx context.Context, actor Actor, req TriggerRequest) (*RunResult, error)
}

type runCoordinator struct {
	deps RunCoordinatorDeps
	log  *logger.Logger
}

func NewRunCoordinator(deps RunCoordinatorDeps) RunCoordinator {
	if deps.Log == nil {
		deps.Log = logger.NewNop()
	}
	if deps.Locker == nil {
		deps.Locker = NewNoopLocker()
	}
	if deps.Workers <= 0 {
		deps.Workers = defaultRunWorkers
	}
	if deps.PairWriteMaxTries == 0 {
		deps.PairWriteMaxTries = defaultPairWriteTries
	}
	if deps.RetryBackOff == nil {
		deps.RetryBackOff = func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 50 * time.Millisecond
			b.MaxInterval = time.Second
			return b
		}
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &runCoordinator{deps: deps, log: deps.Log.With("service", "RunCoordinator")}
}

// runPlan is a validated trigger request.
type runPlan struct {
	scope        domain.Scope
	modelID      uuid.UUID
	schoolYearID *uuid.UUID
	quarter      *int
	term         string
	snapshotDate time.Time
}

func (c *runCoordinator) plan(actor Actor, req TriggerRequest) (runPlan, error) {
	const op = "mastery.run.validate"
	if err := validateStruct(op, req); err != nil {
		return runPlan{}, err
	}
	if actor.UserID == uuid.Nil || actor.OrganizationID == uuid.Nil {
		return runPlan{}, domain.ValidationFailed(op, map[string]string{"actor": "an authenticated user with an organization is required"})
	}
	kind, _ := domain.ParseScopeKind(req.ScopeKind)
	p := runPlan{
		scope: domain.Scope{
			Kind:           kind,
			ID:             uuid.MustParse(req.ScopeID),
			OrganizationID: actor.OrganizationID,
		},
		modelID: uuid.MustParse(req.MasteryModelID),
		quarter: req.Quarter,
		term:    strings.TrimSpace(req.Term),
	}
	if req.SchoolYearID != "" {
		id := uuid.MustParse(req.SchoolYearID)
		p.schoolYearID = &id
	}
	if req.SnapshotDate != "" {
		d, _ := time.Parse(time.DateOnly, req.SnapshotDate)
		p.snapshotDate = d
	} else {
		now := c.deps.Now().UTC()
		p.snapshotDate = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	}
	return p, nil
}

func (c *runCoordinator) Trigger(ctx context.Context, actor Actor, req TriggerRequest) (*RunResult, error) {
	ctx, span := observability.Tracer().Start(ctx, "mastery.run")
	defer span.End()
	started := c.deps.Now()

	p, err := c.plan(actor, req)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(
		attribute.String("scope.kind", string(p.scope.Kind)),
		attribute.String("scope.id", p.scope.ID.String()),
		attribute.String("mastery_model.id", p.modelID.String()),
	)
	log := c.log.With("scope_kind", p.scope.Kind, "scope_id", p.scope.ID, "actor_id", actor.UserID)

	if p.schoolYearID == nil {
		if p.schoolYearID, err = c.deps.Catalog.ActiveSchoolYear(ctx, actor.OrganizationID); err != nil {
			return nil, err
		}
	}
	catalog, err := c.deps.Catalog.Catalog(ctx, actor.OrganizationID, p.modelID)
	if err != nil {
		return nil, err
	}
	thresholds, configured := catalog.Model.Thresholds()
	if !configured || len(catalog.Levels) == 0 {
		log.Warn("mastery model is not configured; every pair will be skipped", "mastery_model_id", p.modelID)
	}

	release, err := c.deps.Locker.Acquire(ctx, p.scope)
	if err != nil {
		return nil, err
	}
	defer release(context.WithoutCancel(ctx))

	res, err := c.deps.Scopes.Resolve(ctx, p.scope)
	if err != nil {
		return nil, err
	}
	if res.IsEmpty() {
		span.SetAttributes(attribute.String("scope.empty", string(res.Empty)))
		return nil, &domain.Error{
			Code:    domain.CodeScopeEmpty,
			Op:      "mastery.run.resolve",
			Message: res.Guidance(),
			Fields:  map[string]string{"reason": string(res.Empty)},
		}
	}

	run, err := c.deps.Runs.Start(ctx, &domain.SnapshotRun{
		OrganizationID: actor.OrganizationID,
		SchoolID:       actor.SchoolID,
		ScopeKind:      p.scope.Kind,
		ScopeID:        p.scope.ID,
		MasteryModelID: p.modelID,
		SchoolYearID:   p.schoolYearID,
		Quarter:        p.quarter,
		Term:           p.term,
		SnapshotDate:   p.snapshotDate,
		CreatedBy:      actor.UserID,
	})
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("run.id", run.ID.String()))
	log = log.With("run_id", run.ID)
	log.Info("snapshot run started", "learners", len(res.Learners), "competencies", len(res.Competencies))

	var tp *domain.Thresholds
	if configured {
		tp = &thresholds
	}
	b := &batch{
		c:          c,
		log:        log,
		actor:      actor,
		run:        run,
		scope:      p.scope,
		res:        res,
		thresholds: tp,
		levels:     catalog.Levels,
	}
	b.execute(ctx)

	status := domain.RunCompleted
	if b.stopped {
		status = domain.RunFailed
	}
	finCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), finalizeTimeout)
	defer cancel()
	final, err := c.deps.Runs.Finalize(finCtx, aggregates.FinalizeRunInput{
		RunID:          run.ID,
		OrganizationID: actor.OrganizationID,
		Status:         status,
		PairsTotal:     res.Pairs(),
		PairsSkipped:   b.skipped,
		PairsFailed:    b.failed,
		Summary:        b.summary(),
		FinishedAt:     c.deps.Now().UTC(),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "finalize failed")
		c.deps.Metrics.ObserveRun(string(p.scope.Kind), "error", c.deps.Now().Sub(started))
		return nil, err
	}

	c.deps.Metrics.ObserveRun(string(p.scope.Kind), string(final.Status), c.deps.Now().Sub(started))
	c.deps.Metrics.AddPairs("created", final.SnapshotCount)
	c.deps.Metrics.AddPairs("skipped", b.skipped)
	c.deps.Metrics.AddPairs("failed", b.failed)
	span.SetAttributes(attribute.Int("run.snapshot_count", final.SnapshotCount))

	out := &RunResult{
		RunID:         final.ID,
		SnapshotCount: final.SnapshotCount,
		Status:        final.Status,
		Message:       runMessage(final, res, b.skipped, b.failed),
	}
	log.Info("snapshot run finished",
		"status", final.Status,
		"snapshot_count", final.SnapshotCount,
		"pairs_skipped", b.skipped,
		"pairs_failed", b.failed,
	)
	if b.stopped {
		span.SetStatus(codes.Error, "run stopped")
		return out, domain.NewError(domain.CodeRetryable, "mastery.run", "run stopped before every pair was processed: "+b.stopReason, b.stopCause)
	}
	return out, nil
}

func runMessage(run *domain.SnapshotRun, res domain.ScopeResolution, skipped, failed int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Created %d snapshots for %d learners across %d competencies.",
		run.SnapshotCount, len(res.Learners), len(res.Competencies))
	if skipped > 0 {
		fmt.Fprintf(&sb, " %d pairs skipped without a level.", skipped)
	}
	if failed > 0 {
		fmt.Fprintf(&sb, " %d pairs failed and were not saved.", failed)
	}
	if run.Status == domain.RunFailed {
		sb.WriteString(" The run stopped early; trigger it again to cover the remaining pairs.")
	}
	return sb.String()
}

// batch is the mutable state of one pair loop.
type batch struct {
	c          *runCoordinator
	log        *logger.Logger
	actor      Actor
	run        *domain.SnapshotRun
	scope      domain.Scope
	res        domain.ScopeResolution
	thresholds *domain.Thresholds
	levels     []domain.MasteryLevel

	mu          sync.Mutex
	skipped     int
	failed      int
	failedPairs []domain.PairKey
	stopped     bool
	stopReason  string
	stopCause   error
}

func (b *batch) execute(ctx context.Context) {
	runCtx := ctx
	if b.c.deps.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, b.c.deps.Timeout)
		defer cancel()
	}

	var g errgroup.Group
	g.SetLimit(b.c.deps.Workers)
	for _, learnerID := range b.res.Learners {
		if err := runCtx.Err(); err != nil {
			b.stop(err)
			break
		}
		g.Go(func() error {
			b.processLearner(runCtx, learnerID)
			return nil
		})
	}
	_ = g.Wait()
	if err := runCtx.Err(); err != nil {
		b.stop(err)
	}
}

func (b *batch) processLearner(ctx context.Context, learnerID uuid.UUID) {
	if ctx.Err() != nil {
		return
	}
	aggs, err := b.c.deps.Evidence.CollectForLearner(ctx, b.scope, learnerID, b.res.Competencies)
	if err != nil {
		b.log.Warn("evidence collection failed; skipping learner", "learner_id", learnerID, "error", err)
		for _, compID := range b.res.Competencies {
			b.recordFailure(learnerID, compID)
		}
		return
	}
	for _, compID := range b.res.Competencies {
		if ctx.Err() != nil {
			return
		}
		b.processPair(ctx, learnerID, compID, aggs[compID])
	}
}

func (b *batch) processPair(ctx context.Context, learnerID, competencyID uuid.UUID, agg domain.EvidenceAggregate) {
	level, ok := Classify(agg.Count(), agg.HasAssessment(), agg.HasObservation(), b.thresholds, b.levels)
	if !ok {
		b.mu.Lock()
		b.skipped++
		b.mu.Unlock()
		return
	}
	now := b.c.deps.Now().UTC()
	teacher := b.actor.UserID
	snap := &domain.Snapshot{
		RunID:          b.run.ID,
		OrganizationID: b.run.OrganizationID,
		LearnerID:      learnerID,
		CompetencyID:   competencyID,
		MasteryLevelID: level.ID,
		TeacherID:      &teacher,
		RationaleText:  BuildRationale(agg, level),
		EvidenceCount:  agg.Count(),
		LastEvidenceAt: agg.LastEvidenceAt,
		SnapshotDate:   b.run.SnapshotDate,
		ConfirmedAt:    now,
		ConfirmedBy:    b.actor.UserID,
		CreatedBy:      b.actor.UserID,
		CreatedAt:      now,
	}
	if err := b.persist(ctx, snap, agg.Items); err != nil {
		b.log.Warn("snapshot write failed; skipping pair",
			"learner_id", learnerID,
			"competency_id", competencyID,
			"error", err,
		)
		b.recordFailure(learnerID, competencyID)
	}
}

// persist retries only errors the data layer marks retryable.
func (b *batch) persist(ctx context.Context, snap *domain.Snapshot, items []domain.EvidenceItem) error {
	_, err := backoff.Retry(ctx, func() (*domain.Snapshot, error) {
		out, err := b.c.deps.Snapshots.CreateWithEvidence(ctx, aggregates.CreateSnapshotInput{Snapshot: snap, Items: items})
		if err != nil && !domain.IsCode(err, domain.CodeRetryable) {
			return nil, backoff.Permanent(err)
		}
		return out, err
	},
		backoff.WithBackOff(b.c.deps.RetryBackOff()),
		backoff.WithMaxTries(b.c.deps.PairWriteMaxTries),
	)
	return err
}

func (b *batch) recordFailure(learnerID, competencyID uuid.UUID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failed++
	if len(b.failedPairs) < maxFailedPairsListed {
		b.failedPairs = append(b.failedPairs, domain.PairKey{LearnerID: learnerID, CompetencyID: competencyID})
	}
}

func (b *batch) stop(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.stopped {
		return
	}
	b.stopped = true
	b.stopCause = err
	b.stopReason = err.Error()
	b.log.Warn("snapshot run stopped", "reason", b.stopReason)
}

func (b *batch) summary() domain.RunSummary {
	b.mu.Lock()
	defer b.mu.Unlock()
	return domain.RunSummary{
		Learners:     len(b.res.Learners),
		Competencies: len(b.res.Competencies),
		FailedPairs:  append([]domain.PairKey(nil), b.failedPairs...),
		Stopped:      b.stopped,
		StopReason:   b.stopReason,
	}
}
