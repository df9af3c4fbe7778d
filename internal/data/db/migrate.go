package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/schoolbridge-backend/internal/domain/mastery"
	"github.com/yungbote/schoolbridge-backend/internal/domain/school"
)

// AutoMigrateAll creates the tables the mastery engine owns. With reference
// set it also creates the school-platform tables the engine reads, which is
// only useful for local and demo databases.
func AutoMigrateAll(db *gorm.DB, reference bool) error {
	if err := db.AutoMigrate(mastery.Tables()...); err != nil {
		return fmt.Errorf("migrate mastery tables: %w", err)
	}
	if !reference {
		return nil
	}
	if err := db.AutoMigrate(school.All()...); err != nil {
		return fmt.Errorf("migrate reference tables: %w", err)
	}
	return nil
}
