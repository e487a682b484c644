package store

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mikey/scamguard/internal/core"
)

// fakeDB is a DBTX that records statements and replays canned results
type fakeDB struct {
	sql  []string
	args [][]any

	tag  pgconn.CommandTag
	rows [][]any
	row  []any
	err  error
}

func (f *fakeDB) record(sql string, args []any) {
	f.sql = append(f.sql, sql)
	f.args = append(f.args, args)
}

func (f *fakeDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.record(sql, args)
	return f.tag, f.err
}

func (f *fakeDB) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	f.record(sql, args)
	if f.err != nil {
		return nil, f.err
	}
	return &fakeRows{rows: f.rows, pos: -1}, nil
}

func (f *fakeDB) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	f.record(sql, args)
	return fakeRow{values: f.row, err: f.err}
}

type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	return scanValues(r.values, dest)
}

type fakeRows struct {
	rows [][]any
	pos  int
}

func (r *fakeRows) Close()                                       {}
func (r *fakeRows) Err() error                                   { return nil }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeRows) RawValues() [][]byte                          { return nil }
func (r *fakeRows) Conn() *pgx.Conn                              { return nil }

func (r *fakeRows) Next() bool {
	r.pos++
	return r.pos < len(r.rows)
}

func (r *fakeRows) Scan(dest ...any) error {
	return scanValues(r.rows[r.pos], dest)
}

func (r *fakeRows) Values() ([]any, error) {
	return r.rows[r.pos], nil
}

func scanValues(values []any, dest []any) error {
	if len(values) != len(dest) {
		return fmt.Errorf("scan: %d values into %d destinations", len(values), len(dest))
	}
	for i, v := range values {
		target := reflect.ValueOf(dest[i]).Elem()
		src := reflect.ValueOf(v)
		if !src.Type().AssignableTo(target.Type()) {
			return fmt.Errorf("scan: column %d is %s, destination is %s", i, src.Type(), target.Type())
		}
		target.Set(src)
	}
	return nil
}

func newFakePostgresStore(db *fakeDB) *PostgresStore {
	return &PostgresStore{db: db, logger: zap.NewNop()}
}

func TestPostgresStoreRecordAnalysis(t *testing.T) {
	db := &fakeDB{tag: pgconn.NewCommandTag("INSERT 0 1")}
	s := newFakePostgresStore(db)
	rec := newRecord("alice", core.MessageTypeSMS, true, baseTime)

	require.NoError(t, s.RecordAnalysis(context.Background(), rec))

	require.Len(t, db.sql, 1)
	assert.Contains(t, db.sql[0], "INSERT INTO analyses")
	args := db.args[0]
	require.Len(t, args, 11)
	assert.Equal(t, rec.ID, args[0])
	assert.Equal(t, "sms", args[3])
	assert.JSONEq(t, `[{"word":"urgent","type":"scam"}]`, string(args[7].([]byte)))
	assert.JSONEq(t, `{"phoneNumbers":[],"amounts":[],"dates":[],"emails":[],"urls":[]}`, string(args[8].([]byte)))
	assert.Equal(t, baseTime, args[10])
}

func TestPostgresStoreListByUser(t *testing.T) {
	newer := baseTime.Add(2 * time.Minute).In(time.FixedZone("CET", 3600))
	db := &fakeDB{rows: [][]any{
		{"id-2", "alice", "newer", "sms", "+15551234567", true, 0.8,
			[]byte(`[{"word":"urgent","type":"scam"}]`),
			[]byte(`{"phoneNumbers":["+15551234567"]}`),
			[]byte(`{"urgency":0.625,"fear":0.15,"authority":0.15,"financial":0.15}`),
			newer},
		{"id-1", "alice", "older", "email", "a@example.com", false, 0.2,
			[]byte(`[]`), []byte(`{}`), []byte(`{}`), baseTime},
	}}
	s := newFakePostgresStore(db)

	got, err := s.ListByUser(context.Background(), "alice", 2)
	require.NoError(t, err)

	assert.Contains(t, db.sql[0], "ORDER BY created_at DESC")
	assert.Contains(t, db.sql[0], "LIMIT $2")
	assert.Equal(t, []any{"alice", 2}, db.args[0])

	require.Len(t, got, 2)
	assert.Equal(t, "id-2", got[0].ID)
	assert.Equal(t, core.MessageTypeSMS, got[0].Type)
	assert.Equal(t, time.UTC, got[0].CreatedAt.Location())
	assert.True(t, got[0].CreatedAt.Equal(newer))
	assert.Equal(t, []string{"+15551234567"}, got[0].Entities.PhoneNumbers)
	assert.NotNil(t, got[0].Entities.Amounts)
	assert.Equal(t, 0.625, got[0].RiskIndicators.Urgency)

	assert.Empty(t, got[1].DetectedKeywords)
	for _, kind := range core.EntityKinds {
		assert.NotNil(t, got[1].Entities.Get(kind), string(kind))
	}
}

func TestPostgresStoreListByUserError(t *testing.T) {
	s := newFakePostgresStore(&fakeDB{err: errors.New("connection reset")})

	_, err := s.ListByUser(context.Background(), "alice", 5)
	assert.ErrorContains(t, err, "failed to query analyses")
}

func TestPostgresStoreUserStats(t *testing.T) {
	db := &fakeDB{row: []any{int64(4), int64(3), int64(1), int64(3)}}
	s := newFakePostgresStore(db)

	stats, err := s.UserStats(context.Background(), "alice")
	require.NoError(t, err)

	assert.Contains(t, db.sql[0], "COUNT(*) FILTER (WHERE is_scam)")
	assert.Equal(t, []any{"alice"}, db.args[0])
	assert.Equal(t, int64(4), stats.Total)
	assert.Equal(t, int64(3), stats.Scams)
	assert.Equal(t, int64(1), stats.Safe)
	assert.Equal(t, int64(1), stats.Email)
	assert.Equal(t, int64(3), stats.SMS)
	assert.Equal(t, 25.0, stats.ProtectionRate)
}

func TestPostgresStoreGlobalStats(t *testing.T) {
	db := &fakeDB{row: []any{int64(2), int64(4), int64(2), int64(2), int64(1), int64(2), int64(1)}}
	s := newFakePostgresStore(db)

	stats, err := s.GlobalStats(context.Background())
	require.NoError(t, err)

	assert.Contains(t, db.sql[0], "COUNT(DISTINCT user_id)")
	assert.Contains(t, db.sql[0], "FILTER (WHERE analysis_type = 'sms' AND is_scam)")
	assert.Equal(t, int64(2), stats.TotalUsers)
	assert.Equal(t, int64(4), stats.TotalAnalyses)
	assert.Equal(t, core.ChannelStats{Total: 2, Scams: 1}, stats.Email)
	assert.Equal(t, core.ChannelStats{Total: 2, Scams: 1}, stats.SMS)
	assert.Equal(t, 50.0, stats.DetectionRate)
}

func TestPostgresStoreGlobalStatsError(t *testing.T) {
	s := newFakePostgresStore(&fakeDB{err: errors.New("timeout")})

	_, err := s.GlobalStats(context.Background())
	assert.ErrorContains(t, err, "failed to query global stats")
}

func TestPostgresStoreUserSummaries(t *testing.T) {
	db := &fakeDB{rows: [][]any{
		{"alice", int64(3), int64(2), baseTime.Add(2 * time.Minute)},
		{"bob", int64(1), int64(0), baseTime.Add(3 * time.Minute)},
	}}
	s := newFakePostgresStore(db)

	got, err := s.UserSummaries(context.Background())
	require.NoError(t, err)

	assert.Contains(t, db.sql[0], "ORDER BY analysis_count DESC, user_id ASC")
	require.Len(t, got, 2)
	assert.Equal(t, &core.UserSummary{
		UserID:         "alice",
		AnalysisCount:  3,
		ScamCount:      2,
		LastAnalysisAt: baseTime.Add(2 * time.Minute),
	}, got[0])
	assert.Equal(t, "bob", got[1].UserID)
}

func TestPostgresStoreUserSummariesEmpty(t *testing.T) {
	s := newFakePostgresStore(&fakeDB{})

	got, err := s.UserSummaries(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestPostgresStorePurge(t *testing.T) {
	db := &fakeDB{tag: pgconn.NewCommandTag("DELETE 3")}
	s := newFakePostgresStore(db)

	n, err := s.Purge(context.Background(), baseTime)
	require.NoError(t, err)

	assert.Equal(t, int64(3), n)
	assert.Contains(t, db.sql[0], "DELETE FROM analyses WHERE created_at < $1")
	assert.Equal(t, []any{baseTime}, db.args[0])
}

func TestPostgresStorePurgeError(t *testing.T) {
	s := newFakePostgresStore(&fakeDB{err: errors.New("read-only transaction")})

	_, err := s.Purge(context.Background(), baseTime)
	assert.ErrorContains(t, err, "failed to purge analyses")
}

func TestPostgresStorePingWithoutPool(t *testing.T) {
	s := newFakePostgresStore(&fakeDB{})
	assert.Error(t, s.Ping(context.Background()))
}
