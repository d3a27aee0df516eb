package db

import (
	"fmt"

	types "github.com/yungbote/moralgraph-backend/internal/domain"
	"gorm.io/gorm"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(types.Models()...)
}

// EnsureIndexes adds postgres-only indexes that gorm tags cannot express.
func EnsureIndexes(db *gorm.DB) error {
	if db.Dialector.Name() != DriverPostgres {
		return nil
	}
	stmts := []struct {
		name string
		sql  string
	}{
		{"idx_raw_submission_pending", `CREATE INDEX IF NOT EXISTS idx_raw_submission_pending ON raw_submission(deliberation_id, created_at) WHERE canonical_value_id IS NULL;`},
		{"idx_edge_hypothesis_live", `CREATE INDEX IF NOT EXISTS idx_edge_hypothesis_live ON edge_hypothesis(deliberation_id, context_id) WHERE archived_at IS NULL;`},
		{"idx_job_run_runnable", `CREATE INDEX IF NOT EXISTS idx_job_run_runnable ON job_run(status, created_at) WHERE deleted_at IS NULL;`},
	}
	for _, s := range stmts {
		if err := db.Exec(s.sql).Error; err != nil {
			return fmt.Errorf("create %s: %w", s.name, err)
		}
	}
	return nil
}
