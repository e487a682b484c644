package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mikey/scamguard/internal/core"
)

// dialect holds the statements that differ between SQL backends
type dialect struct {
	name   string
	driver string
	schema []string
}

// SQLStore is a database/sql implementation of core.AnalysisStore shared
// by the SQLite and MySQL backends. Timestamps are stored as unix
// milliseconds so both drivers scan them the same way.
type SQLStore struct {
	db      *sql.DB
	dialect dialect
	logger  *zap.Logger
	janitor *janitor
}

const selectRecordColumns = `
	SELECT id, user_id, content, analysis_type, sender, is_scam, confidence_score,
		detected_keywords, entities, risk_indicators, created_at
	FROM analyses`

func openSQLStore(d dialect, dsn string, logger *zap.Logger, retention, cleanupFreq time.Duration) (*SQLStore, error) {
	db, err := sql.Open(d.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", d.name, err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to %s database: %w", d.name, err)
	}

	s := newSQLStore(db, d, logger)
	if err := s.migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	s.janitor = startJanitor(s, retention, cleanupFreq, s.logger)
	return s, nil
}

func newSQLStore(db *sql.DB, d dialect, logger *zap.Logger) *SQLStore {
	return &SQLStore{
		db:      db,
		dialect: d,
		logger:  logger.Named(d.name + "_store"),
	}
}

func (s *SQLStore) migrate(ctx context.Context) error {
	for _, stmt := range s.dialect.schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

// RecordAnalysis inserts one record
func (s *SQLStore) RecordAnalysis(ctx context.Context, record *core.AnalysisRecord) error {
	cols, err := encodeRecordJSON(record)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO analyses (id, user_id, content, analysis_type, sender, is_scam,
			confidence_score, detected_keywords, entities, risk_indicators, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, record.ID, record.UserID, record.Content, string(record.Type), record.Sender, record.IsScam,
		record.Confidence, string(cols.keywords), string(cols.entities), string(cols.risk), record.CreatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to insert analysis: %w", err)
	}
	return nil
}

// ListByUser returns a user's records, newest first
func (s *SQLStore) ListByUser(ctx context.Context, userID string, limit int) ([]*core.AnalysisRecord, error) {
	rows, err := s.db.QueryContext(ctx, selectRecordColumns+`
		WHERE user_id = ?
		ORDER BY created_at DESC
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query analyses: %w", err)
	}
	defer rows.Close()

	out := []*core.AnalysisRecord{}
	for rows.Next() {
		var (
			rec       core.AnalysisRecord
			typ       string
			cols      recordJSON
			createdAt int64
		)
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.Content, &typ, &rec.Sender, &rec.IsScam,
			&rec.Confidence, &cols.keywords, &cols.entities, &cols.risk, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan analysis: %w", err)
		}
		rec.Type = core.MessageType(typ)
		rec.CreatedAt = time.UnixMilli(createdAt).UTC()
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
func (s *SQLStore) UserStats(ctx context.Context, userID string) (*core.UsageStats, error) {
	stats := &core.UsageStats{}
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
			COALESCE(SUM(CASE WHEN is_scam THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN analysis_type = 'email' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN analysis_type = 'sms' THEN 1 ELSE 0 END), 0)
		FROM analyses
		WHERE user_id = ?
	`, userID).Scan(&stats.Total, &stats.Scams, &stats.Email, &stats.SMS)
	if err != nil {
		return nil, fmt.Errorf("failed to query user stats: %w", err)
	}
	stats.Finalize()
	return stats, nil
}

// GlobalStats summarises every record
func (s *SQLStore) GlobalStats(ctx context.Context) (*core.GlobalStats, error) {
	stats := &core.GlobalStats{}
	err := s.db.QueryRowContext(ctx, globalStatsQuery).Scan(
		&stats.TotalUsers, &stats.TotalAnalyses, &stats.ScamAnalyses,
		&stats.Email.Total, &stats.Email.Scams, &stats.SMS.Total, &stats.SMS.Scams)
	if err != nil {
		return nil, fmt.Errorf("failed to query global stats: %w", err)
	}
	stats.Finalize()
	return stats, nil
}

// UserSummaries returns per-user counters ordered by analysis count
func (s *SQLStore) UserSummaries(ctx context.Context) ([]*core.UserSummary, error) {
	rows, err := s.db.QueryContext(ctx, userSummariesQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to query user summaries: %w", err)
	}
	defer rows.Close()

	out := []*core.UserSummary{}
	for rows.Next() {
		var (
			summary core.UserSummary
			last    int64
		)
		if err := rows.Scan(&summary.UserID, &summary.AnalysisCount, &summary.ScamCount, &last); err != nil {
			return nil, fmt.Errorf("failed to scan user summary: %w", err)
		}
		summary.LastAnalysisAt = time.UnixMilli(last).UTC()
		out = append(out, &summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read user summaries: %w", err)
	}
	return out, nil
}

// Purge removes records created before the cutoff
func (s *SQLStore) Purge(ctx context.Context, before time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM analyses WHERE created_at < ?`, before.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to purge analyses: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		s.logger.Warn("Failed to get rows affected during purge", zap.Error(err))
		return 0, nil
	}
	return n, nil
}

// Ping checks the database connection
func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Stop stops the background cleanup task and closes the database connection
func (s *SQLStore) Stop() {
	s.janitor.stop()
	if err := s.db.Close(); err != nil {
		s.logger.Error("Failed to close database", zap.Error(err))
	}
}

const globalStatsQuery = `
	SELECT COUNT(DISTINCT user_id),
		COUNT(*),
		COALESCE(SUM(CASE WHEN is_scam THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN analysis_type = 'email' THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN analysis_type = 'email' AND is_scam THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN analysis_type = 'sms' THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN analysis_type = 'sms' AND is_scam THEN 1 ELSE 0 END), 0)
	FROM analyses`

const userSummariesQuery = `
	SELECT user_id,
		COUNT(*) AS analysis_count,
		COALESCE(SUM(CASE WHEN is_scam THEN 1 ELSE 0 END), 0),
		MAX(created_at)
	FROM analyses
	GROUP BY user_id
	ORDER BY analysis_count DESC, user_id ASC`

// recordJSON holds the JSON encoded columns of a record
type recordJSON struct {
	keywords []byte
	entities []byte
	risk     []byte
}

func encodeRecordJSON(record *core.AnalysisRecord) (recordJSON, error) {
	var (
		cols recordJSON
		err  error
	)
	keywords := record.DetectedKeywords
	if keywords == nil {
		keywords = []core.KeywordMatch{}
	}
	if cols.keywords, err = json.Marshal(keywords); err != nil {
		return cols, fmt.Errorf("failed to encode keywords: %w", err)
	}
	if cols.entities, err = json.Marshal(record.Entities); err != nil {
		return cols, fmt.Errorf("failed to encode entities: %w", err)
	}
	if cols.risk, err = json.Marshal(record.RiskIndicators); err != nil {
		return cols, fmt.Errorf("failed to encode risk indicators: %w", err)
	}
	return cols, nil
}

func (c recordJSON) decode(rec *core.AnalysisRecord) error {
	rec.DetectedKeywords = []core.KeywordMatch{}
	rec.Entities = core.NewEntityBundle()
	if len(c.keywords) > 0 {
		if err := json.Unmarshal(c.keywords, &rec.DetectedKeywords); err != nil {
			return fmt.Errorf("failed to decode keywords: %w", err)
		}
	}
	if len(c.entities) > 0 {
		if err := json.Unmarshal(c.entities, &rec.Entities); err != nil {
			return fmt.Errorf("failed to decode entities: %w", err)
		}
	}
	if len(c.risk) > 0 {
		if err := json.Unmarshal(c.risk, &rec.RiskIndicators); err != nil {
			return fmt.Errorf("failed to decode risk indicators: %w", err)
		}
	}
	for _, kind := range core.EntityKinds {
		rec.Entities.Set(kind, rec.Entities.Get(kind))
	}
	return nil
}
