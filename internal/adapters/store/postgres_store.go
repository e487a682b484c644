package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/mikey/scamguard/internal/core"
)

// DBTX abstracts the pgx operations the store needs so queries work with
// both *pgxpool.Pool and pgx.Tx
type DBTX interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	QueryRow(context.Context, string, ...any) pgx.Row
}

var _ DBTX = (*pgxpool.Pool)(nil)

const postgresSchema = `
	CREATE TABLE IF NOT EXISTS analyses (
		id UUID PRIMARY KEY,
		user_id TEXT NOT NULL,
		content TEXT NOT NULL,
		analysis_type TEXT NOT NULL,
		sender TEXT NOT NULL DEFAULT '',
		is_scam BOOLEAN NOT NULL,
		confidence_score DOUBLE PRECISION NOT NULL,
		detected_keywords JSONB NOT NULL,
		entities JSONB NOT NULL,
		risk_indicators JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	CREATE INDEX IF NOT EXISTS idx_analyses_user_created ON analyses(user_id, created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_analyses_created ON analyses(created_at);`

// PostgresStore is a PostgreSQL implementation of core.AnalysisStore
type PostgresStore struct {
	pool    *pgxpool.Pool
	db      DBTX
	logger  *zap.Logger
	janitor *janitor
}

// NewPostgresStore creates a connection pool and ensures the schema exists
func NewPostgresStore(ctx context.Context, dsn string, logger *zap.Logger, retention, cleanupFreq time.Duration) (*PostgresStore, error) {
	logger = logger.Named("postgres_store")

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(connectCtx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(connectCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := pool.Exec(connectCtx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	logger.Info("Connected to PostgreSQL",
		zap.String("host", poolConfig.ConnConfig.Host),
		zap.String("database", poolConfig.ConnConfig.Database))

	s := &PostgresStore{
		pool:   pool,
		db:     pool,
		logger: logger,
	}
	s.janitor = startJanitor(s, retention, cleanupFreq, logger)
	return s, nil
}

// RecordAnalysis inserts one record
func (s *PostgresStore) RecordAnalysis(ctx context.Context, record *core.AnalysisRecord) error {
	cols, err := encodeRecordJSON(record)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO analyses (id, user_id, content, analysis_type, sender, is_scam,
			confidence_score, detected_keywords, entities, risk_indicators, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, record.ID, record.UserID, record.Content, string(record.Type), record.Sender, record.IsScam,
		record.Confidence, cols.keywords, cols.entities, cols.risk, record.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert analysis: %w", err)
	}
	return nil
}

// ListByUser returns a user's records, newest first
func (s *PostgresStore) ListByUser(ctx context.Context, userID string, limit int) ([]*core.AnalysisRecord, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id::text, user_id, content, analysis_type, sender, is_scam, confidence_score,
			detected_keywords, entities, risk_indicators, created_at
		FROM analyses
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query analyses: %w", err)
	}
	defer rows.Close()

	out := []*core.AnalysisRecord{}
	for rows.Next() {
		var (
			rec  core.AnalysisRecord
			typ  string
			cols recordJSON
		)
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.Content, &typ, &rec.Sender, &rec.IsScam,
			&rec.Confidence, &cols.keywords, &cols.entities, &cols.risk, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan analysis: %w", err)
		}
		rec.Type = core.MessageType(typ)
		rec.CreatedAt = rec.CreatedAt.UTC()
		if err := cols.decode(&rec); err != nil {
			return nil, err
		}
		out = append(out, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read analyses: %w", err)
	}
	return out, nil
}

// UserStats summarises one user's records
func (s *PostgresStore) UserStats(ctx context.Context, userID string) (*core.UsageStats, error) {
	stats := &core.UsageStats{}
	err := s.db.QueryRow(ctx, `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE is_scam),
			COUNT(*) FILTER (WHERE analysis_type = 'email'),
			COUNT(*) FILTER (WHERE analysis_type = 'sms')
		FROM analyses
		WHERE user_id = $1
	`, userID).Scan(&stats.Total, &stats.Scams, &stats.Email, &stats.SMS)
	if err != nil {
		return nil, fmt.Errorf("failed to query user stats: %w", err)
	}
	stats.Finalize()
	return stats, nil
}

// GlobalStats summarises every record
func (s *PostgresStore) GlobalStats(ctx context.Context) (*core.GlobalStats, error) {
	stats := &core.GlobalStats{}
	err := s.db.QueryRow(ctx, `
		SELECT COUNT(DISTINCT user_id),
			COUNT(*),
			COUNT(*) FILTER (WHERE is_scam),
			COUNT(*) FILTER (WHERE analysis_type = 'email'),
			COUNT(*) FILTER (WHERE analysis_type = 'email' AND is_scam),
			COUNT(*) FILTER (WHERE analysis_type = 'sms'),
			COUNT(*) FILTER (WHERE analysis_type = 'sms' AND is_scam)
		FROM analyses
	`).Scan(&stats.TotalUsers, &stats.TotalAnalyses, &stats.ScamAnalyses,
		&stats.Email.Total, &stats.Email.Scams, &stats.SMS.Total, &stats.SMS.Scams)
	if err != nil {
		return nil, fmt.Errorf("failed to query global stats: %w", err)
	}
	stats.Finalize()
	return stats, nil
}

// UserSummaries returns per-user counters ordered by analysis count
func (s *PostgresStore) UserSummaries(ctx context.Context) ([]*core.UserSummary, error) {
	rows, err := s.db.Query(ctx, `
		SELECT user_id, COUNT(*) AS analysis_count, COUNT(*) FILTER (WHERE is_scam), MAX(created_at)
		FROM analyses
		GROUP BY user_id
		ORDER BY analysis_count DESC, user_id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query user summaries: %w", err)
	}

	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*core.UserSummary, error) {
		var summary core.UserSummary
		if err := row.Scan(&summary.UserID, &summary.AnalysisCount, &summary.ScamCount, &summary.LastAnalysisAt); err != nil {
			return nil, err
		}
		summary.LastAnalysisAt = summary.LastAnalysisAt.UTC()
		return &summary, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read user summaries: %w", err)
	}
	if out == nil {
		out = []*core.UserSummary{}
	}
	return out, nil
}

// Purge removes records created before the cutoff
func (s *PostgresStore) Purge(ctx context.Context, before time.Time) (int64, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM analyses WHERE created_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("failed to purge analyses: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Ping checks the database connection
func (s *PostgresStore) Ping(ctx context.Context) error {
	if s.pool == nil {
		return errors.New("postgres pool not initialised")
	}
	return s.pool.Ping(ctx)
}

// Stop stops the background cleanup task and closes the pool
func (s *PostgresStore) Stop() {
	s.janitor.stop()
	if s.pool != nil {
		s.logger.Info("Closing PostgreSQL connection pool")
		s.pool.Close()
	}
}
