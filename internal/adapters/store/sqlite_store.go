package store

import (
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

var sqliteDialect = dialect{
	name:   "sqlite",
	driver: "sqlite3",
	schema: []string{
		`CREATE TABLE IF NOT EXISTS analyses (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			content TEXT NOT NULL,
			analysis_type TEXT NOT NULL,
			sender TEXT NOT NULL DEFAULT '',
			is_scam BOOLEAN NOT NULL,
			confidence_score REAL NOT NULL,
			detected_keywords TEXT NOT NULL,
			entities TEXT NOT NULL,
			risk_indicators TEXT NOT NULL,
			created_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_analyses_user_created ON analyses(user_id, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_analyses_created ON analyses(created_at)`,
	},
}

// NewSQLiteStore opens (or creates) a SQLite analysis log
func NewSQLiteStore(dbPath string, logger *zap.Logger, retention, cleanupFreq time.Duration) (*SQLStore, error) {
	return openSQLStore(sqliteDialect, dbPath, logger, retention, cleanupFreq)
}
