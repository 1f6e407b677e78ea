package persistence

import (
	"fmt"

	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// AutoMigrate creates every table and the composite unique indexes.
// Tests and local sqlite runs use it; deployed databases are migrated
// with cmd/migrate.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	for _, stmt := range models.Indexes {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}
	return nil
}
