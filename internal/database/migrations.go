package database

import (
	"fmt"

	"github.com/yukikurage/taskboard-api/internal/logging"
	"github.com/yukikurage/taskboard-api/internal/models"
	"gorm.io/gorm"
)

// AddIndexes adds the composite indexes used by task and notice listings.
// Single-column indexes are declared on the models.
func AddIndexes(db *gorm.DB) error {
	indexes := []struct {
		model   interface{}
		name    string
		columns string
	}{
		// Board listing: filter by stage, newest first
		{&models.Task{}, "idx_tasks_stage_created_at", "stage, created_at"},
		{&models.Task{}, "idx_tasks_created_at", "created_at"},

		// Team lookups in insertion order
		{&models.TaskMember{}, "idx_task_members_task_position", "task_id, position"},

		// Unread notices per user
		{&models.Notice{}, "idx_notices_created_at", "created_at"},
	}

	migrator := db.Migrator()
	for _, idx := range indexes {
		if migrator.HasIndex(idx.model, idx.name) {
			logging.Logger.Debugf("Index %s already exists, skipping", idx.name)
			continue
		}

		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(idx.model); err != nil {
			return fmt.Errorf("failed to resolve table for index %s: %w", idx.name, err)
		}

		sql := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, stmt.Schema.Table, idx.columns)
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}

		logging.Logger.Infof("Created index %s on %s(%s)", idx.name, stmt.Schema.Table, idx.columns)
	}

	return nil
}
