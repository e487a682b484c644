package filter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mikey/scamguard/internal/core"
)

func cliRequest() *core.AnalysisRequest {
	return &core.AnalysisRequest{
		Type:    core.MessageTypeSMS,
		Content: "URGENT: your KYC is pending",
		Sender:  "+91 98765 43210",
	}
}

func TestCliFilterTextReport(t *testing.T) {
	analyzer := &mockAnalyzer{}
	result := scamResult()
	result.Entities = core.NewEntityBundle()
	result.Entities.URLs = []string{"bit.ly/x"}
	result.Recommendations = []string{"Do not click links"}
	result.SenderReputation = &core.SenderReputation{Assessment: "Number looks okay"}
	analyzer.On("Analyze", mock.Anything, cliRequest()).Return(result, nil)

	var out bytes.Buffer
	f := NewCliFilter(analyzer, zap.NewNop(), &out, true, false)

	got, err := f.ProcessMessage(context.Background(), cliRequest())
	require.NoError(t, err)
	assert.Same(t, result, got)

	report := out.String()
	assert.Contains(t, report, "Result: Scam Email")
	assert.Contains(t, report, "Confidence: 0.9500")
	assert.Contains(t, report, "Keywords: urgent (scam), kyc (scam)")
	assert.Contains(t, report, "URL: bit.ly/x")
	assert.Contains(t, report, "Sender: Number looks okay")
	assert.Contains(t, report, "  - Do not click links")
	assert.Contains(t, report, "Content preview:\nURGENT: your KYC is pending")
}

func TestCliFilterJSON(t *testing.T) {
	analyzer := &mockAnalyzer{}
	analyzer.On("Analyze", mock.Anything, mock.Anything).Return(scamResult(), nil)

	var out bytes.Buffer
	f := NewCliFilter(analyzer, zap.NewNop(), &out, false, true)

	_, err := f.ProcessMessage(context.Background(), cliRequest())
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	assert.Equal(t, true, decoded["isScam"])
	assert.Equal(t, "Scam Email", decoded["result"])
}

func TestCliFilterError(t *testing.T) {
	analyzer := &mockAnalyzer{}
	analyzer.On("Analyze", mock.Anything, mock.Anything).Return(nil, errors.New("boom"))

	var out bytes.Buffer
	f := NewCliFilter(analyzer, zap.NewNop(), &out, false, false)

	_, err := f.ProcessMessage(context.Background(), cliRequest())
	assert.Error(t, err)
	assert.Empty(t, out.String())
}
