package core

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
	dashboardRecent     = 10
)

// ContentProcessor bounds and cleans message text before scanning
type ContentProcessor interface {
	ProcessText(text string, maxSize int) string
}

// MetricsRecorder receives service level measurements
type MetricsRecorder interface {
	ObserveAnalysis(messageType MessageType, isFraud bool, duration time.Duration)
	PersistenceFailed(stage string)
}

// ServiceOptions holds the tunables of the analysis service
type ServiceOptions struct {
	MaxContentBytes int
	PersistTimeout  time.Duration
}

// AnalysisService is the core service for message analysis
type AnalysisService struct {
	analyzer  Analyzer
	validator RequestValidator
	identity  IdentityProvider
	store     AnalysisStore
	publisher EventPublisher
	assessor  SenderAssessor
	processor ContentProcessor
	metrics   MetricsRecorder
	logger    *zap.Logger
	opts      ServiceOptions
	now       func() time.Time

	wg sync.WaitGroup
}

// NewAnalysisService creates a new analysis service. store, publisher,
// assessor and metrics may be nil.
func NewAnalysisService(
	analyzer Analyzer,
	validator RequestValidator,
	identity IdentityProvider,
	store AnalysisStore,
	publisher EventPublisher,
	assessor SenderAssessor,
	processor ContentProcessor,
	metrics MetricsRecorder,
	logger *zap.Logger,
	opts ServiceOptions,
) *AnalysisService {
	if opts.PersistTimeout <= 0 {
		opts.PersistTimeout = 5 * time.Second
	}
	return &AnalysisService{
		analyzer:  analyzer,
		validator: validator,
		identity:  identity,
		store:     store,
		publisher: publisher,
		assessor:  assessor,
		processor: processor,
		metrics:   metrics,
		logger:    logger.Named("analysis"),
		opts:      opts,
		now:       time.Now,
	}
}

// Analyze validates and scores a message. Persistence of the result for an
// authenticated caller happens in the background and never affects the
// returned result.
func (s *AnalysisService) Analyze(ctx context.Context, req *AnalysisRequest) (*AnalysisResult, error) {
	if err := s.validator.Validate(req); err != nil {
		s.logger.Debug("Rejected analysis request",
			zap.String("type", string(req.Type)),
			zap.Error(err))
		return nil, err
	}

	scored := *req
	if s.processor != nil {
		scored.Content = s.processor.ProcessText(req.Content, s.opts.MaxContentBytes)
	}

	start := s.now()
	result, err := s.analyzer.Analyze(ctx, &scored)
	if err != nil {
		return nil, fmt.Errorf("failed to analyze message: %w", err)
	}
	duration := s.now().Sub(start)

	result.ProcessingID = uuid.NewString()
	result.AnalyzedAt = s.now().UTC()
	if s.assessor != nil {
		reputation := s.assessor.Assess(req.Type, req.Sender)
		result.SenderReputation = &reputation
	}

	if s.metrics != nil {
		s.metrics.ObserveAnalysis(req.Type, result.IsScam, duration)
	}

	s.logger.Info("Analyzed message",
		zap.String("processing_id", result.ProcessingID),
		zap.String("type", string(req.Type)),
		zap.Bool("is_scam", result.IsScam),
		zap.Float64("confidence", result.Confidence),
		zap.Int("keywords", len(result.DetectedKeywords)),
		zap.Duration("duration", duration))

	var userID string
	if s.identity != nil {
		if user, ok := s.identity.CurrentUser(ctx); ok {
			userID = user.ID
		}
	}
	s.dispatch(ctx, NewAnalysisRecord(userID, &scored, result))

	return result, nil
}

// dispatch stores and publishes a record off the request path
func (s *AnalysisService) dispatch(ctx context.Context, record *AnalysisRecord) {
	persist := s.store != nil && record.UserID != ""
	if !persist && s.publisher == nil {
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.PersistTimeout)
		defer cancel()

		if persist {
			if err := s.store.RecordAnalysis(ctx, record); err != nil {
				s.logger.Error("Failed to save analysis",
					zap.String("processing_id", record.ID),
					zap.String("user_id", record.UserID),
					zap.Error(err))
				s.failed("store")
			}
		}
		if s.publisher != nil {
			if err := s.publisher.PublishAnalysis(ctx, record); err != nil {
				s.logger.Warn("Failed to publish analysis event",
					zap.String("processing_id", record.ID),
					zap.Error(err))
				s.failed("publish")
			}
		}
	}()
}

func (s *AnalysisService) failed(stage string) {
	if s.metrics != nil {
		s.metrics.PersistenceFailed(stage)
	}
}

// Wait blocks until background writes have finished
func (s *AnalysisService) Wait() {
	s.wg.Wait()
}

// History returns the caller's most recent analyses
func (s *AnalysisService) History(ctx context.Context, user *User, limit int) ([]*AnalysisRecord, error) {
	if user == nil {
		return nil, ErrUnauthorized
	}
	if s.store == nil {
		return nil, ErrStoreDisabled
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	return s.store.ListByUser(ctx, user.ID, limit)
}

// Dashboard is the per-user overview
type Dashboard struct {
	Stats  *UsageStats       `json:"stats"`
	Recent []*AnalysisRecord `json:"recent"`
}

// Dashboard returns the caller's counters and recent analyses
func (s *AnalysisService) Dashboard(ctx context.Context, user *User) (*Dashboard, error) {
	if user == nil {
		return nil, ErrUnauthorized
	}
	if s.store == nil {
		return nil, ErrStoreDisabled
	}
	stats, err := s.store.UserStats(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user stats: %w", err)
	}
	recent, err := s.store.ListByUser(ctx, user.ID, dashboardRecent)
	if err != nil {
		return nil, fmt.Errorf("failed to load recent analyses: %w", err)
	}
	return &Dashboard{Stats: stats, Recent: recent}, nil
}

// AdminStats returns counters across all users
func (s *AnalysisService) AdminStats(ctx context.Context) (*GlobalStats, error) {
	if s.store == nil {
		return nil, ErrStoreDisabled
	}
	return s.store.GlobalStats(ctx)
}

// AdminUsers returns per-user counters
func (s *AnalysisService) AdminUsers(ctx context.Context) ([]*UserSummary, error) {
	if s.store == nil {
		return nil, ErrStoreDisabled
	}
	return s.store.UserSummaries(ctx)
}
