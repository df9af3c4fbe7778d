package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/schoolbridge-backend/internal/data/repos"
	"github.com/yungbote/schoolbridge-backend/internal/platform/logger"
)

type Repos struct {
	Scope      repos.ScopeRepo
	Evidence   repos.EvidenceRepo
	SchoolYear repos.SchoolYearRepo

	Model       repos.MasteryModelRepo
	Run         repos.SnapshotRunRepo
	Snapshot    repos.SnapshotRepo
	Link        repos.EvidenceLinkRepo
	ReviewEvent repos.ReviewEventRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Scope:       repos.NewScopeRepo(db, log),
		Evidence:    repos.NewEvidenceRepo(db, log),
		SchoolYear:  repos.NewSchoolYearRepo(db, log),
		Model:       repos.NewMasteryModelRepo(db, log),
		Run:         repos.NewSnapshotRunRepo(db, log),
		Snapshot:    repos.NewSnapshotRepo(db, log),
		Link:        repos.NewEvidenceLinkRepo(db, log),
		ReviewEvent: repos.NewReviewEventRepo(db, log),
	}
}
