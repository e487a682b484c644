package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mikey/scamguard/internal/core"
)

// MemoryStore is an in-memory implementation of core.AnalysisStore
type MemoryStore struct {
	records map[string]*core.AnalysisRecord
	byUser  map[string][]*core.AnalysisRecord
	mu      sync.RWMutex
	logger  *zap.Logger
	janitor *janitor
}

// NewMemoryStore creates a new in-memory store. Records older than
// retention are purged every cleanupFreq; a zero retention keeps them.
func NewMemoryStore(logger *zap.Logger, retention, cleanupFreq time.Duration) *MemoryStore {
	s := &MemoryStore{
		records: make(map[string]*core.AnalysisRecord),
		byUser:  make(map[string][]*core.AnalysisRecord),
		logger:  logger.Named("memory_store"),
	}
	s.janitor = startJanitor(s, retention, cleanupFreq, s.logger)
	return s
}

// RecordAnalysis appends a record to the log
func (s *MemoryStore) RecordAnalysis(ctx context.Context, record *core.AnalysisRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[record.ID]; exists {
		return fmt.Errorf("analysis %s already recorded", record.ID)
	}
	stored := *record
	s.records[record.ID] = &stored
	s.byUser[record.UserID] = append(s.byUser[record.UserID], &stored)
	return nil
}

// ListByUser returns a user's records, newest first
func (s *MemoryStore) ListByUser(ctx context.Context, userID string, limit int) ([]*core.AnalysisRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := s.byUser[userID]
	if limit <= 0 {
		return []*core.AnalysisRecord{}, nil
	}
	// Background writes can land out of order, so sort before cutting
	out := make([]*core.AnalysisRecord, 0, len(records))
	for i := len(records) - 1; i >= 0; i-- {
		rec := *records[i]
		out = append(out, &rec)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// UserStats summarises one user's records
func (s *MemoryStore) UserStats(ctx context.Context, userID string) (*core.UsageStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &core.UsageStats{}
	for _, rec := range s.byUser[userID] {
		stats.Total++
		if rec.IsScam {
			stats.Scams++
		}
		switch rec.Type {
		case core.MessageTypeEmail:
			stats.Email++
		case core.MessageTypeSMS:
			stats.SMS++
		}
	}
	stats.Finalize()
	return stats, nil
}

// GlobalStats summarises every record
func (s *MemoryStore) GlobalStats(ctx context.Context) (*core.GlobalStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &core.GlobalStats{TotalUsers: int64(len(s.byUser))}
	for _, rec := range s.records {
		stats.TotalAnalyses++
		channel := &stats.SMS
		if rec.Type == core.MessageTypeEmail {
			channel = &stats.Email
		}
		channel.Total++
		if rec.IsScam {
			stats.ScamAnalyses++
			channel.Scams++
		}
	}
	stats.Finalize()
	return stats, nil
}

// UserSummaries returns per-user counters ordered by analysis count
func (s *MemoryStore) UserSummaries(ctx context.Context) ([]*core.UserSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*core.UserSummary, 0, len(s.byUser))
	for userID, records := range s.byUser {
		summary := &core.UserSummary{UserID: userID}
		for _, rec := range records {
			summary.AnalysisCount++
			if rec.IsScam {
				summary.ScamCount++
			}
			if rec.CreatedAt.After(summary.LastAnalysisAt) {
				summary.LastAnalysisAt = rec.CreatedAt
			}
		}
		out = append(out, summary)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AnalysisCount != out[j].AnalysisCount {
			return out[i].AnalysisCount > out[j].AnalysisCount
		}
		return out[i].UserID < out[j].UserID
	})
	return out, nil
}

// Purge removes records created before the cutoff
func (s *MemoryStore) Purge(ctx context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var purged int64
	for userID, records := range s.byUser {
		kept := records[:0]
		for _, rec := range records {
			if rec.CreatedAt.Before(before) {
				delete(s.records, rec.ID)
				purged++
				continue
			}
			kept = append(kept, rec)
		}
		if len(kept) == 0 {
			delete(s.byUser, userID)
		} else {
			s.byUser[userID] = kept
		}
	}
	return purged, nil
}

// Stop stops the background cleanup task
func (s *MemoryStore) Stop() {
	s.janitor.stop()
}
