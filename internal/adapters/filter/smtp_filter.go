package filter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/mail"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/emersion/go-smtp"
	"go.uber.org/zap"

	"github.com/mikey/scamguard/internal/core"
)

const analysisErrorHeader = "X-Scam-Analysis-Error"

// SMTPOptions configures the SMTP content filter
type SMTPOptions struct {
	ListenAddress    string
	BlockFraud       bool
	StatusHeader     string
	ConfidenceHeader string
	KeywordsHeader   string
	ForwardEnabled   bool
	ForwardAddress   string
	ForwardPort      int
	SubjectPrefix    string
	ModifySubject    bool
	AnalysisTimeout  time.Duration
}

// Forwarder delivers a filtered message to the next hop
type Forwarder func(sender string, recipients []string, data []byte) error

// SMTPFilter is an SMTP content filter: it accepts mail, analyzes the text
// content as an email and re-injects the annotated message
type SMTPFilter struct {
	service core.Analyzer
	logger  *zap.Logger
	opts    SMTPOptions
	server  *smtp.Server
	forward Forwarder
}

// NewSMTPFilter creates a new SMTP content filter
func NewSMTPFilter(service core.Analyzer, logger *zap.Logger, opts SMTPOptions) *SMTPFilter {
	if opts.SubjectPrefix == "" && opts.ModifySubject {
		opts.SubjectPrefix = "[SCAM] "
	}
	if opts.AnalysisTimeout <= 0 {
		opts.AnalysisTimeout = 10 * time.Second
	}
	f := &SMTPFilter{
		service: service,
		logger:  logger.Named("smtp-filter"),
		opts:    opts,
	}
	f.forward = f.sendToNextHop
	return f
}

// WithForwarder replaces the next hop delivery
func (f *SMTPFilter) WithForwarder(forward Forwarder) *SMTPFilter {
	f.forward = forward
	return f
}

// Start starts the SMTP listener
func (f *SMTPFilter) Start() error {
	f.server = smtp.NewServer(&smtpBackend{filter: f})
	f.server.Addr = f.opts.ListenAddress
	f.server.Domain = "localhost"
	f.server.ReadTimeout = 30 * time.Second
	f.server.WriteTimeout = 30 * time.Second
	f.server.MaxMessageBytes = 30 * 1024 * 1024
	f.server.MaxRecipients = 50
	f.server.AllowInsecureAuth = true

	f.logger.Info("SMTP filter starting", zap.String("address", f.opts.ListenAddress))

	go func() {
		if err := f.server.ListenAndServe(); err != nil && !errors.Is(err, smtp.ErrServerClosed) {
			f.logger.Error("SMTP server error", zap.Error(err))
		}
	}()
	return nil
}

// Stop stops the SMTP listener
func (f *SMTPFilter) Stop() error {
	if f.server != nil {
		return f.server.Close()
	}
	return nil
}

// ProcessMessage analyzes a single request through the service
func (f *SMTPFilter) ProcessMessage(ctx context.Context, req *core.AnalysisRequest) (*core.AnalysisResult, error) {
	return f.service.Analyze(ctx, req)
}

// Filter analyzes a raw message and returns it with the result headers
// added. A fraud verdict with blocking enabled returns an SMTP 550 error.
func (f *SMTPFilter) Filter(ctx context.Context, envelopeFrom string, raw []byte) ([]byte, *core.AnalysisResult, error) {
	msg, err := ParseMessage(raw)
	if err != nil {
		return nil, nil, err
	}

	text, err := MessageText(msg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to extract text content: %w", err)
	}

	sender := envelopeFrom
	if sender == "" {
		if addr, err := mail.ParseAddress(msg.Header.Get("From")); err == nil {
			sender = addr.Address
		}
	}

	ctx, cancel := context.WithTimeout(ctx, f.opts.AnalysisTimeout)
	defer cancel()

	result, analysisErr := f.service.Analyze(ctx, &core.AnalysisRequest{
		Type:    core.MessageTypeEmail,
		Content: text,
		Sender:  sender,
	})
	if analysisErr != nil {
		// Mail keeps flowing when analysis fails
		f.logger.Error("Failed to analyze email",
			zap.Error(analysisErr),
			zap.String("sender", sender))
		return f.annotate(raw, nil, analysisErr), nil, nil
	}

	if result.IsScam && f.opts.BlockFraud {
		f.logger.Info("Rejecting fraudulent email",
			zap.String("sender", sender),
			zap.Float64("confidence", result.Confidence),
			zap.String("processing_id", result.ProcessingID))
		return nil, result, &smtp.SMTPError{
			Code:         550,
			EnhancedCode: smtp.EnhancedCode{5, 7, 1},
			Message:      fmt.Sprintf("Rejected as likely scam (confidence: %.2f)", result.Confidence),
		}
	}

	return f.annotate(raw, result, nil), result, nil
}

// annotate rebuilds the message with the result headers first, existing
// result headers removed and the subject optionally prefixed
func (f *SMTPFilter) annotate(raw []byte, result *core.AnalysisResult, analysisErr error) []byte {
	headerBlock, body := splitMessage(raw)

	var out bytes.Buffer
	if result != nil {
		fmt.Fprintf(&out, "%s: %s\r\n", f.opts.StatusHeader, statusValue(result))
		fmt.Fprintf(&out, "%s: %.4f\r\n", f.opts.ConfidenceHeader, result.Confidence)
		if keywords := keywordsValue(result); keywords != "" {
			fmt.Fprintf(&out, "%s: %s\r\n", f.opts.KeywordsHeader, keywords)
		}
	} else {
		fmt.Fprintf(&out, "%s: unknown\r\n", f.opts.StatusHeader)
		fmt.Fprintf(&out, "%s: %s\r\n", analysisErrorHeader, sanitizeHeaderValue(analysisErr.Error()))
	}

	prefixSubject := result != nil && result.IsScam && f.opts.ModifySubject && f.opts.SubjectPrefix != ""
	owned := []string{f.opts.StatusHeader, f.opts.ConfidenceHeader, f.opts.KeywordsHeader, analysisErrorHeader}

	for _, field := range headerFields(headerBlock) {
		name := fieldName(field)
		if containsFold(owned, name) {
			continue
		}
		if prefixSubject && strings.EqualFold(name, "Subject") {
			subject := DecodeHeader(unfold(fieldValue(field)))
			if !strings.HasPrefix(subject, f.opts.SubjectPrefix) {
				subject = f.opts.SubjectPrefix + subject
			}
			fmt.Fprintf(&out, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
			continue
		}
		out.WriteString(field)
	}

	out.WriteString("\r\n")
	out.Write(body)
	return out.Bytes()
}

func statusValue(result *core.AnalysisResult) string {
	if result.IsScam {
		return "scam"
	}
	return "safe"
}

func keywordsValue(result *core.AnalysisResult) string {
	parts := make([]string, 0, len(result.DetectedKeywords))
	for _, kw := range result.DetectedKeywords {
		parts = append(parts, kw.Term+":"+string(kw.Polarity))
	}
	return sanitizeHeaderValue(strings.Join(parts, ", "))
}

func sanitizeHeaderValue(v string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(v)
}

// splitMessage returns the raw header block and body
func splitMessage(raw []byte) ([]byte, []byte) {
	if i := bytes.Index(raw, []byte("\r\n\r\n")); i != -1 {
		return raw[:i+2], raw[i+4:]
	}
	if i := bytes.Index(raw, []byte("\n\n")); i != -1 {
		return raw[:i+1], raw[i+2:]
	}
	return raw, nil
}

// headerFields splits a header block into fields, keeping folded
// continuation lines with their field
func headerFields(block []byte) []string {
	lines := strings.SplitAfter(string(block), "\n")
	var fields []string
	for _, line := range lines {
		if line == "" {
			continue
		}
		if !strings.HasSuffix(line, "\r\n") {
			line = strings.TrimSuffix(line, "\n") + "\r\n"
		}
		if (line[0] == ' ' || line[0] == '\t') && len(fields) > 0 {
			fields[len(fields)-1] += line
			continue
		}
		fields = append(fields, line)
	}
	return fields
}

func fieldName(field string) string {
	name, _, _ := strings.Cut(field, ":")
	return strings.TrimSpace(name)
}

func fieldValue(field string) string {
	_, value, _ := strings.Cut(field, ":")
	return strings.TrimSpace(value)
}

func unfold(v string) string {
	return strings.Join(strings.Fields(v), " ")
}

func containsFold(names []string, name string) bool {
	for _, n := range names {
		if strings.EqualFold(n, name) {
			return true
		}
	}
	return false
}

// sendToNextHop re-injects the filtered message over SMTP
func (f *SMTPFilter) sendToNextHop(sender string, recipients []string, data []byte) error {
	addr := net.JoinHostPort(f.opts.ForwardAddress, strconv.Itoa(f.opts.ForwardPort))

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "localhost"
	}

	conn, err := net.DialTimeout("tcp", addr, 10*time.Second)
	if err != nil {
		return fmt.Errorf("failed to connect to next hop: %w", err)
	}
	if err := conn.SetDeadline(time.Now().Add(30 * time.Second)); err != nil {
		conn.Close()
		return fmt.Errorf("failed to set connection deadline: %w", err)
	}

	c := smtp.NewClient(conn)
	defer c.Close()

	if err := c.Hello(hostname); err != nil {
		return fmt.Errorf("EHLO failed: %w", err)
	}
	if err := c.Mail(sender, nil); err != nil {
		return fmt.Errorf("MAIL FROM failed: %w", err)
	}

	accepted := 0
	for _, rcpt := range recipients {
		if err := c.Rcpt(rcpt, nil); err != nil {
			f.logger.Warn("RCPT TO failed for recipient",
				zap.String("recipient", rcpt),
				zap.Error(err))
			continue
		}
		accepted++
	}
	if accepted == 0 {
		return fmt.Errorf("all recipients were rejected")
	}

	wc, err := c.Data()
	if err != nil {
		return fmt.Errorf("DATA command failed: %w", err)
	}
	if _, err := wc.Write(data); err != nil {
		wc.Close()
		return fmt.Errorf("failed to send message data: %w", err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	if err := c.Quit(); err != nil {
		f.logger.Warn("QUIT command failed", zap.Error(err))
	}
	return nil
}

// smtpBackend implements the go-smtp Backend interface
type smtpBackend struct {
	filter *SMTPFilter
}

// NewSession creates a new SMTP session
func (b *smtpBackend) NewSession(_ *smtp.Conn) (smtp.Session, error) {
	return &smtpSession{filter: b.filter}, nil
}

// smtpSession implements the go-smtp Session interface
type smtpSession struct {
	filter     *SMTPFilter
	sender     string
	recipients []string
}

func (s *smtpSession) Reset() {
	s.sender = ""
	s.recipients = nil
}

func (s *smtpSession) Mail(from string, _ *smtp.MailOptions) error {
	s.sender = from
	return nil
}

func (s *smtpSession) Rcpt(to string, _ *smtp.RcptOptions) error {
	s.recipients = append(s.recipients, to)
	return nil
}

func (s *smtpSession) Data(r io.Reader) error {
	raw, err := io.ReadAll(r)
	if err != nil {
		s.filter.logger.Error("Failed to read message data", zap.Error(err))
		return err
	}

	filtered, result, err := s.filter.Filter(context.Background(), s.sender, raw)
	if err != nil {
		return err
	}

	if !s.filter.opts.ForwardEnabled {
		s.filter.logger.Warn("Forwarding disabled, message dropped after analysis",
			zap.String("sender", s.sender))
		return nil
	}
	if err := s.filter.forward(s.sender, s.recipients, filtered); err != nil {
		s.filter.logger.Error("Failed to forward message",
			zap.Error(err),
			zap.String("sender", s.sender))
		return err
	}

	fields := []zap.Field{zap.String("sender", s.sender), zap.Int("recipients", len(s.recipients))}
	if result != nil {
		fields = append(fields,
			zap.Bool("is_scam", result.IsScam),
			zap.Float64("confidence", result.Confidence),
			zap.String("processing_id", result.ProcessingID))
	}
	s.filter.logger.Info("Processed email", fields...)
	return nil
}

func (s *smtpSession) Logout() error {
	return nil
}
