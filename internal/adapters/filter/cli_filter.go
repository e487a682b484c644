package filter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mikey/scamguard/internal/core"
)

// CliFilter analyzes one message and writes a report to out
type CliFilter struct {
	service    core.Analyzer
	logger     *zap.Logger
	out        io.Writer
	verbose    bool
	jsonOutput bool
}

// NewCliFilter creates a new CLI filter
func NewCliFilter(service core.Analyzer, logger *zap.Logger, out io.Writer, verbose, jsonOutput bool) *CliFilter {
	return &CliFilter{
		service:    service,
		logger:     logger.Named("cli"),
		out:        out,
		verbose:    verbose,
		jsonOutput: jsonOutput,
	}
}

// ProcessMessage analyzes a message and prints the result
func (f *CliFilter) ProcessMessage(ctx context.Context, req *core.AnalysisRequest) (*core.AnalysisResult, error) {
	f.logger.Debug("Processing message",
		zap.String("type", string(req.Type)),
		zap.String("sender", req.Sender))

	start := time.Now()
	result, err := f.service.Analyze(ctx, req)
	if err != nil {
		f.logger.Error("Failed to analyze message", zap.Error(err))
		return nil, err
	}
	duration := time.Since(start)

	if f.jsonOutput {
		enc := json.NewEncoder(f.out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return nil, fmt.Errorf("failed to encode result: %w", err)
		}
		return result, nil
	}

	f.printReport(req, result, duration)
	return result, nil
}

func (f *CliFilter) printReport(req *core.AnalysisRequest, result *core.AnalysisResult, duration time.Duration) {
	w := f.out
	fmt.Fprintf(w, "\n=== Message Summary ===\n")
	fmt.Fprintf(w, "Type: %s\n", req.Type)
	fmt.Fprintf(w, "Sender: %s\n", req.Sender)
	fmt.Fprintf(w, "Content length: %d bytes\n", len(req.Content))
	if f.verbose {
		preview := req.Content
		if len(preview) > 500 {
			preview = preview[:500] + "..."
		}
		fmt.Fprintf(w, "\nContent preview:\n%s\n", preview)
	}

	fmt.Fprintf(w, "\n=== Results ===\n")
	fmt.Fprintf(w, "Result: %s\n", result.Result)
	fmt.Fprintf(w, "Is scam: %t\n", result.IsScam)
	fmt.Fprintf(w, "Confidence: %.4f\n", result.Confidence)
	fmt.Fprintf(w, "Risk: urgency=%.2f fear=%.2f authority=%.2f financial=%.2f\n",
		result.Details.Urgency, result.Details.Fear, result.Details.Authority, result.Details.Financial)

	if len(result.DetectedKeywords) > 0 {
		words := make([]string, 0, len(result.DetectedKeywords))
		for _, kw := range result.DetectedKeywords {
			words = append(words, fmt.Sprintf("%s (%s)", kw.Term, kw.Polarity))
		}
		fmt.Fprintf(w, "Keywords: %s\n", strings.Join(words, ", "))
	}

	for _, kind := range core.EntityKinds {
		if values := result.Entities.Get(kind); len(values) > 0 {
			fmt.Fprintf(w, "%s: %s\n", kind, strings.Join(values, ", "))
		}
	}

	if result.SenderReputation != nil {
		fmt.Fprintf(w, "Sender: %s\n", result.SenderReputation.Assessment)
	}

	if len(result.SimilarExamples) > 0 {
		fmt.Fprintf(w, "\nSimilar known scams:\n")
		for _, ex := range result.SimilarExamples {
			fmt.Fprintf(w, "  - %s\n", ex)
		}
	}

	fmt.Fprintf(w, "\nRecommendations:\n")
	for _, rec := range result.Recommendations {
		fmt.Fprintf(w, "  - %s\n", rec)
	}
	fmt.Fprintf(w, "\nProcessing time: %v\n", duration)
}

// Start is a no-op for the CLI filter
func (f *CliFilter) Start() error {
	return nil
}

// Stop is a no-op for the CLI filter
func (f *CliFilter) Stop() error {
	return nil
}
