package app

import (
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/yungbote/schoolbridge-backend/internal/data/aggregates"
	"github.com/yungbote/schoolbridge-backend/internal/modules/mastery"
	"github.com/yungbote/schoolbridge-backend/internal/observability"
	"github.com/yungbote/schoolbridge-backend/internal/platform/logger"
)

type Services struct {
	Catalog mastery.CatalogSource
	Locker  mastery.ScopeLocker
	Runs    mastery.RunCoordinator
	Review  mastery.ReviewWorkflow
	Reader  mastery.Reader
	Mastery mastery.Usecases
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, metrics *observability.Metrics, rdb redis.UniversalClient, r Repos) Services {
	log.Info("Wiring services...")

	hooks := aggregates.NewLogHooks(log)
	if metrics != nil {
		hooks = aggregates.Fanout(aggregates.NewMetricsHooks(metrics), hooks)
	}
	base := aggregates.BaseDeps{
		DB:       db,
		Log:      log,
		Runner:   aggregates.NewGormTxRunner(db),
		Hooks:    hooks,
		CASGuard: aggregates.NewCASGuard(db),
	}

	catalog := mastery.NewCatalogSource(r.Model, r.SchoolYear, cfg.CatalogCacheTTL)

	locker := mastery.NewNoopLocker()
	if cfg.ScopeLockEnabled && rdb != nil {
		locker = mastery.NewRedisLocker(rdb, cfg.ScopeLockTTL)
	}

	runs := mastery.NewRunCoordinator(mastery.RunCoordinatorDeps{
		Log:               log,
		Metrics:           metrics,
		Scopes:            mastery.NewScopeResolver(r.Scope, log),
		Evidence:          mastery.NewEvidenceCollector(r.Evidence),
		Catalog:           catalog,
		Locker:            locker,
		Runs:              aggregates.NewRunWriter(aggregates.RunWriterDeps{Base: base, Runs: r.Run, Snapshots: r.Snapshot}),
		Snapshots:         aggregates.NewSnapshotWriter(aggregates.SnapshotWriterDeps{Base: base, Snapshots: r.Snapshot, Links: r.Link}),
		Workers:           cfg.RunWorkers,
		Timeout:           cfg.RunTimeout,
		PairWriteMaxTries: cfg.PairWriteMaxTries,
	})

	review := mastery.NewReviewWorkflow(mastery.ReviewWorkflowDeps{
		Log:       log,
		Metrics:   metrics,
		Snapshots: r.Snapshot,
		Models:    r.Model,
		Writer:    aggregates.NewReviewWriter(aggregates.ReviewWriterDeps{Base: base, Snapshots: r.Snapshot, Events: r.ReviewEvent}),
	})

	reader := mastery.NewReader(mastery.ReaderDeps{
		Runs:      r.Run,
		Snapshots: r.Snapshot,
		Links:     r.Link,
		Events:    r.ReviewEvent,
	})

	importer := mastery.ModelImporter{
		Writer:  aggregates.NewModelWriter(aggregates.ModelWriterDeps{Base: base, Models: r.Model}),
		Catalog: catalog,
		Log:     log.With("service", "ModelImporter"),
	}

	return Services{
		Catalog: catalog,
		Locker:  locker,
		Runs:    runs,
		Review:  review,
		Reader:  reader,
		Mastery: mastery.New(mastery.UsecasesDeps{
			Log:      log,
			Runs:     runs,
			Review:   review,
			Reader:   reader,
			Importer: importer,
		}),
	}
}
