package main

import (
	"fmt"
	"io"
	"net/mail"

	"github.com/mikey/scamguard/internal/adapters/filter"
	"github.com/mikey/scamguard/internal/core"
)

// buildRequest turns CLI input into an analysis request. Email input that
// parses as an RFC 5322 message is reduced to its subject and text parts,
// and its From address is used when no sender was given.
func buildRequest(typeName, sender string, raw []byte) (*core.AnalysisRequest, error) {
	messageType, err := core.ParseMessageType(typeName)
	if err != nil {
		return nil, err
	}

	content := string(raw)
	if messageType == core.MessageTypeEmail && filter.LooksLikeMessage(raw) {
		msg, err := filter.ParseMessage(raw)
		if err != nil {
			return nil, err
		}
		if sender == "" {
			if addr, err := mail.ParseAddress(msg.Header.Get("From")); err == nil {
				sender = addr.Address
			}
		}
		content, err = filter.MessageText(msg)
		if err != nil {
			return nil, fmt.Errorf("failed to extract message text: %w", err)
		}
	}

	return &core.AnalysisRequest{
		Type:    messageType,
		Content: content,
		Sender:  sender,
	}, nil
}

func printSignals(w io.Writer, s core.StructuralSignals) {
	fmt.Fprintf(w, "\n=== Structural Signals ===\n")
	fmt.Fprintf(w, "Official bank format: %t\n", s.HasLegitBankFormat)
	fmt.Fprintf(w, "Masked account number: %t\n", s.HasMaskedAccount)
	fmt.Fprintf(w, "Official helpline: %t\n", s.HasOfficialHelpline)
	fmt.Fprintf(w, "Proper date/time: %t\n", s.HasProperDateTime)
	fmt.Fprintf(w, "Shortened URL: %t\n", s.HasSuspiciousShortenedURL)
	fmt.Fprintf(w, "Phone number: %t\n", s.HasPhoneNumber)
	fmt.Fprintf(w, "URL: %t\n", s.HasURL)
	fmt.Fprintf(w, "Monetary amount: %t\n", s.HasMonetaryAmount)
}
