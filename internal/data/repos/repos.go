package repos

import (
	"github.com/yungbote/schoolbridge-backend/internal/data/repos/mastery"
	"github.com/yungbote/schoolbridge-backend/internal/data/repos/school"
	"github.com/yungbote/schoolbridge-backend/internal/platform/logger"
	"gorm.io/gorm"
)

type ScopeRepo = school.ScopeRepo
type EvidenceRepo = school.EvidenceRepo
type EvidenceQuery = school.EvidenceQuery
type SchoolYearRepo = school.SchoolYearRepo

type MasteryModelRepo = mastery.MasteryModelRepo
type SnapshotRunRepo = mastery.SnapshotRunRepo
type SnapshotRepo = mastery.SnapshotRepo
type EvidenceLinkRepo = mastery.EvidenceLinkRepo
type ReviewEventRepo = mastery.ReviewEventRepo

func NewScopeRepo(db *gorm.DB, baseLog *logger.Logger) ScopeRepo {
	return school.NewScopeRepo(db, baseLog)
}
func NewEvidenceRepo(db *gorm.DB, baseLog *logger.Logger) EvidenceRepo {
	return school.NewEvidenceRepo(db, baseLog)
}
func NewSchoolYearRepo(db *gorm.DB, baseLog *logger.Logger) SchoolYearRepo {
	return school.NewSchoolYearRepo(db, baseLog)
}

func NewMasteryModelRepo(db *gorm.DB, baseLog *logger.Logger) MasteryModelRepo {
	return mastery.NewMasteryModelRepo(db, baseLog)
}
func NewSnapshotRunRepo(db *gorm.DB, baseLog *logger.Logger) SnapshotRunRepo {
	return mastery.NewSnapshotRunRepo(db, baseLog)
}
func NewSnapshotRepo(db *gorm.DB, baseLog *logger.Logger) SnapshotRepo {
	return mastery.NewSnapshotRepo(db, baseLog)
}
func NewEvidenceLinkRepo(db *gorm.DB, baseLog *logger.Logger) EvidenceLinkRepo {
	return mastery.NewEvidenceLinkRepo(db, baseLog)
}
func NewReviewEventRepo(db *gorm.DB, baseLog *logger.Logger) ReviewEventRepo {
	return mastery.NewReviewEventRepo(db, baseLog)
}
