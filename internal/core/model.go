package core

import (
	"fmt"
	"strings"
	"time"
)

// MessageType identifies the channel a message arrived on
type MessageType string

const (
	MessageTypeEmail MessageType = "email"
	MessageTypeSMS   MessageType = "sms"
)

// ParseMessageType converts a user supplied string into a MessageType
func ParseMessageType(s string) (MessageType, error) {
	switch MessageType(strings.ToLower(strings.TrimSpace(s))) {
	case MessageTypeEmail:
		return MessageTypeEmail, nil
	case MessageTypeSMS:
		return MessageTypeSMS, nil
	default:
		return "", fmt.Errorf("unsupported message type: %q", s)
	}
}

// Label returns the verdict text shown for this message type
func (t MessageType) Label(isFraud bool) string {
	if t == MessageTypeEmail {
		if isFraud {
			return "Spam"
		}
		return "Not Spam"
	}
	if isFraud {
		return "Scam"
	}
	return "Not Scam"
}

// AnalysisRequest is a single message submitted for analysis
type AnalysisRequest struct {
	Type    MessageType `json:"type" validate:"required,oneof=email sms"`
	Content string      `json:"content" validate:"required"`
	Sender  string      `json:"sender" validate:"required,notblank"`
}

// Polarity tags a keyword match as evidence for or against fraud
type Polarity string

const (
	PolaritySuspicious Polarity = "scam"
	PolarityLegitimate Polarity = "legitimate"
)

// KeywordMatch is a vocabulary term found in the message
type KeywordMatch struct {
	Term     string   `json:"word"`
	Polarity Polarity `json:"type"`
}

// StructuralSignals are regex-derived facts about the message shape
type StructuralSignals struct {
	HasLegitBankFormat        bool
	HasMaskedAccount          bool
	HasOfficialHelpline       bool
	HasProperDateTime         bool
	HasSuspiciousShortenedURL bool
	HasPhoneNumber            bool
	HasURL                    bool
	HasMonetaryAmount         bool
}

// EntityKind names one class of extracted entity
type EntityKind string

const (
	EntityPhone  EntityKind = "PHONE"
	EntityAmount EntityKind = "AMOUNT"
	EntityDate   EntityKind = "DATE"
	EntityEmail  EntityKind = "EMAIL"
	EntityURL    EntityKind = "URL"
)

// EntityKinds lists every entity kind in extraction order
var EntityKinds = []EntityKind{EntityPhone, EntityAmount, EntityDate, EntityEmail, EntityURL}

// EntityBundle holds the substrings extracted for each entity kind.
// Slices are never nil so they encode as empty JSON arrays.
type EntityBundle struct {
	PhoneNumbers []string `json:"phoneNumbers"`
	Amounts      []string `json:"amounts"`
	Dates        []string `json:"dates"`
	Emails       []string `json:"emails"`
	URLs         []string `json:"urls"`
}

// NewEntityBundle returns a bundle with every kind initialised to empty
func NewEntityBundle() EntityBundle {
	return EntityBundle{
		PhoneNumbers: []string{},
		Amounts:      []string{},
		Dates:        []string{},
		Emails:       []string{},
		URLs:         []string{},
	}
}

// Get returns the matches for a kind
func (b EntityBundle) Get(kind EntityKind) []string {
	switch kind {
	case EntityPhone:
		return b.PhoneNumbers
	case EntityAmount:
		return b.Amounts
	case EntityDate:
		return b.Dates
	case EntityEmail:
		return b.Emails
	case EntityURL:
		return b.URLs
	}
	return nil
}

// Set replaces the matches for a kind
func (b *EntityBundle) Set(kind EntityKind, values []string) {
	if values == nil {
		values = []string{}
	}
	switch kind {
	case EntityPhone:
		b.PhoneNumbers = values
	case EntityAmount:
		b.Amounts = values
	case EntityDate:
		b.Dates = values
	case EntityEmail:
		b.Emails = values
	case EntityURL:
		b.URLs = values
	}
}

// Verdict is the binary classification with its confidence
type Verdict struct {
	IsFraud    bool
	Label      string
	Confidence float64
}

// RiskIndicators scores four persuasion axes in [0,1]
type RiskIndicators struct {
	Urgency   float64 `json:"urgency"`
	Fear      float64 `json:"fear"`
	Authority float64 `json:"authority"`
	Financial float64 `json:"financial"`
}

// LegitimacyIndicators mirrors the positive structural signals
type LegitimacyIndicators struct {
	HasOfficialBankFormat  bool `json:"hasOfficialBankFormat"`
	HasMaskedAccountNumber bool `json:"hasMaskedAccountNumber"`
	HasOfficialHelpline    bool `json:"hasOfficialHelpline"`
	HasProperDateTime      bool `json:"hasProperDateTime"`
}

// SenderReputation is an informational assessment of the sender
type SenderReputation struct {
	Trusted    bool   `json:"trusted"`
	Assessment string `json:"assessment"`
}

// AnalysisResult is the complete outcome of one analysis
type AnalysisResult struct {
	ProcessingID         string                `json:"processingId,omitempty"`
	Type                 MessageType           `json:"type"`
	Result               string                `json:"result"`
	Confidence           float64               `json:"confidence"`
	IsScam               bool                  `json:"isScam"`
	Details              RiskIndicators        `json:"details"`
	Entities             EntityBundle          `json:"entities"`
	DetectedKeywords     []KeywordMatch        `json:"detectedKeywords"`
	SimilarExamples      []string              `json:"similarExamples"`
	Recommendations      []string              `json:"recommendations"`
	LegitimacyIndicators *LegitimacyIndicators `json:"legitimacyIndicators,omitempty"`
	SenderReputation     *SenderReputation     `json:"senderReputation,omitempty"`
	AnalyzedAt           time.Time             `json:"analyzedAt"`
}

// Verdict returns the verdict portion of the result
func (r *AnalysisResult) Verdict() Verdict {
	return Verdict{IsFraud: r.IsScam, Label: r.Result, Confidence: r.Confidence}
}

// Role is the access level of an authenticated user
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// User is an authenticated caller
type User struct {
	ID    string
	Email string
	Role  Role
}

// IsAdmin reports whether the user has the admin role
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// AnalysisRecord is the persisted form of an analysis
type AnalysisRecord struct {
	ID               string         `json:"id"`
	UserID           string         `json:"userId"`
	Content          string         `json:"content"`
	Type             MessageType    `json:"type"`
	Sender           string         `json:"sender,omitempty"`
	IsScam           bool           `json:"isScam"`
	Confidence       float64        `json:"confidence"`
	DetectedKeywords []KeywordMatch `json:"detectedKeywords"`
	Entities         EntityBundle   `json:"entities"`
	RiskIndicators   RiskIndicators `json:"riskIndicators"`
	CreatedAt        time.Time      `json:"createdAt"`
}

// NewAnalysisRecord builds the record stored for a user's analysis
func NewAnalysisRecord(userID string, req *AnalysisRequest, result *AnalysisResult) *AnalysisRecord {
	return &AnalysisRecord{
		ID:               result.ProcessingID,
		UserID:           userID,
		Content:          req.Content,
		Type:             req.Type,
		Sender:           req.Sender,
		IsScam:           result.IsScam,
		Confidence:       result.Confidence,
		DetectedKeywords: result.DetectedKeywords,
		Entities:         result.Entities,
		RiskIndicators:   result.Details,
		CreatedAt:        result.AnalyzedAt,
	}
}

// UsageStats summarises one user's analyses
type UsageStats struct {
	Total          int64   `json:"total"`
	Scams          int64   `json:"scams"`
	Safe           int64   `json:"safe"`
	Email          int64   `json:"email"`
	SMS            int64   `json:"sms"`
	ProtectionRate float64 `json:"protectionRate"`
}

// ChannelStats counts analyses for one message type
type ChannelStats struct {
	Total int64 `json:"total"`
	Scams int64 `json:"scams"`
}

// GlobalStats summarises all analyses
type GlobalStats struct {
	TotalUsers    int64        `json:"totalUsers"`
	TotalAnalyses int64        `json:"totalAnalyses"`
	ScamAnalyses  int64        `json:"scamAnalyses"`
	Email         ChannelStats `json:"email"`
	SMS           ChannelStats `json:"sms"`
	DetectionRate float64      `json:"detectionRate"`
}

// UserSummary is one row of the admin user listing
type UserSummary struct {
	UserID         string    `json:"userId"`
	AnalysisCount  int64     `json:"analysisCount"`
	ScamCount      int64     `json:"scamCount"`
	LastAnalysisAt time.Time `json:"lastAnalysisAt"`
}

// Finalize derives the computed fields from the raw counters
func (s *UsageStats) Finalize() {
	s.Safe = s.Total - s.Scams
	if s.Total == 0 {
		s.ProtectionRate = 100
		return
	}
	s.ProtectionRate = float64(s.Safe) / float64(s.Total) * 100
}

// Finalize derives the detection rate from the raw counters
func (s *GlobalStats) Finalize() {
	if s.TotalAnalyses == 0 {
		s.DetectionRate = 0
		return
	}
	s.DetectionRate = float64(s.ScamAnalyses) / float64(s.TotalAnalyses) * 100
}
