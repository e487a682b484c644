package core

import (
	"context"
	"time"
)

// Analyzer scores a message and assembles the analysis result
type Analyzer interface {
	// Analyze runs the full scoring pipeline over a validated request
	Analyze(ctx context.Context, req *AnalysisRequest) (*AnalysisResult, error)
}

// RequestValidator checks a request before any scoring happens
type RequestValidator interface {
	Validate(req *AnalysisRequest) error
}

// IdentityProvider resolves the caller of the current request, if any
type IdentityProvider interface {
	CurrentUser(ctx context.Context) (*User, bool)
}

// AnalysisStore persists analysis records
type AnalysisStore interface {
	// RecordAnalysis appends a record to the analysis log
	RecordAnalysis(ctx context.Context, record *AnalysisRecord) error

	// ListByUser returns a user's records, newest first
	ListByUser(ctx context.Context, userID string, limit int) ([]*AnalysisRecord, error)

	// UserStats aggregates a single user's records
	UserStats(ctx context.Context, userID string) (*UsageStats, error)

	// GlobalStats aggregates all records
	GlobalStats(ctx context.Context) (*GlobalStats, error)

	// UserSummaries returns per-user counters
	UserSummaries(ctx context.Context) ([]*UserSummary, error)

	// Purge removes records created before the cutoff
	Purge(ctx context.Context, before time.Time) (int64, error)
}

// EventPublisher announces completed analyses to other systems
type EventPublisher interface {
	PublishAnalysis(ctx context.Context, record *AnalysisRecord) error
}

// SenderAssessor produces an informational reputation for a sender
type SenderAssessor interface {
	Assess(messageType MessageType, sender string) SenderReputation
}
