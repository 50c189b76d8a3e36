package database

import (
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/viktsys/gasinsight/config"
	"github.com/viktsys/gasinsight/logger"
)

// OptimizeIndexes creates an index on fecha for every sensor table that lacks one.
// Every fetch is a range scan over fecha.
func OptimizeIndexes(db *gorm.DB, tables []string) error {
	log := logger.GetLogger().WithComponent("database")
	for _, table := range tables {
		if !config.ValidTableName(table) {
			return fmt.Errorf("invalid table name %q", table)
		}
		name := IndexName(table)
		if db.Migrator().HasIndex(table, name) {
			continue
		}
		if err := db.Exec("CREATE INDEX ? ON ? (?)",
			clause.Column{Name: name}, clause.Table{Name: table}, clause.Column{Name: "fecha"},
		).Error; err != nil {
			return fmt.Errorf("failed to create index on %s: %w", table, err)
		}
		log.WithFields(logger.Fields{"table": table, "index": name}).Info("index created")
	}
	return nil
}

func IndexName(table string) string {
	return "idx_" + table + "_fecha"
}
