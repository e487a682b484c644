package store

import (
	"time"

	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
)

var mysqlDialect = dialect{
	name:   "mysql",
	driver: "mysql",
	schema: []string{
		`CREATE TABLE IF NOT EXISTS analyses (
			id VARCHAR(36) PRIMARY KEY,
			user_id VARCHAR(255) NOT NULL,
			content TEXT NOT NULL,
			analysis_type VARCHAR(16) NOT NULL,
			sender VARCHAR(255) NOT NULL DEFAULT '',
			is_scam BOOLEAN NOT NULL,
			confidence_score DOUBLE NOT NULL,
			detected_keywords JSON NOT NULL,
			entities JSON NOT NULL,
			risk_indicators JSON NOT NULL,
			created_at BIGINT NOT NULL,
			INDEX idx_analyses_user_created (user_id, created_at),
			INDEX idx_analyses_created (created_at)
		)`,
	},
}

// NewMySQLStore connects to a MySQL analysis log
func NewMySQLStore(dsn string, logger *zap.Logger, retention, cleanupFreq time.Duration) (*SQLStore, error) {
	return openSQLStore(mysqlDialect, dsn, logger, retention, cleanupFreq)
}
