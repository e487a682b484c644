package filter

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"net/textproto"
	"strings"
)

const maxMultipartDepth = 5

var headerDecoder = new(mime.WordDecoder)

// ParseMessage parses a raw RFC 5322 message
func ParseMessage(raw []byte) (*mail.Message, error) {
	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}
	return msg, nil
}

// LooksLikeMessage reports whether raw starts with a header block
func LooksLikeMessage(raw []byte) bool {
	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	if err != nil {
		return false
	}
	return msg.Header.Get("From") != "" || msg.Header.Get("Subject") != ""
}

// DecodeHeader decodes RFC 2047 encoded words, returning the input when it
// cannot be decoded
func DecodeHeader(value string) string {
	decoded, err := headerDecoder.DecodeHeader(value)
	if err != nil {
		return value
	}
	return decoded
}

// MessageText returns the decoded subject followed by the text content
func MessageText(msg *mail.Message) (string, error) {
	body, err := ExtractText(msg)
	if err != nil {
		return "", err
	}
	subject := DecodeHeader(msg.Header.Get("Subject"))
	if subject == "" {
		return body, nil
	}
	return subject + "\n\n" + body, nil
}

// ExtractText extracts the text/plain content from a message. Multipart
// bodies are walked recursively; attachments and other media are skipped.
func ExtractText(msg *mail.Message) (string, error) {
	header := textproto.MIMEHeader(msg.Header)
	return extractPart(header, msg.Body, 0)
}

func extractPart(header textproto.MIMEHeader, body io.Reader, depth int) (string, error) {
	contentType := header.Get("Content-Type")
	if contentType == "" {
		contentType = "text/plain"
	}

	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		// Unparseable content type, treat the body as text
		return readDecoded(header, body)
	}

	switch {
	case strings.HasPrefix(mediaType, "multipart/"):
		boundary := params["boundary"]
		if boundary == "" || depth >= maxMultipartDepth {
			return "", nil
		}
		return extractMultipart(multipart.NewReader(body, boundary), depth)
	case mediaType == "text/plain":
		return readDecoded(header, body)
	default:
		return "", nil
	}
}

func extractMultipart(mr *multipart.Reader, depth int) (string, error) {
	var text strings.Builder
	for {
		part, err := mr.NextRawPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			if text.Len() > 0 {
				return text.String(), nil
			}
			return "", fmt.Errorf("failed to read multipart body: %w", err)
		}

		if isAttachment(part.Header) {
			continue
		}

		content, err := extractPart(part.Header, part, depth+1)
		if err != nil {
			continue
		}
		if content == "" {
			continue
		}
		if text.Len() > 0 {
			text.WriteString("\n")
		}
		text.WriteString(content)
	}
	return text.String(), nil
}

func isAttachment(header textproto.MIMEHeader) bool {
	disposition, _, err := mime.ParseMediaType(header.Get("Content-Disposition"))
	return err == nil && disposition == "attachment"
}

func readDecoded(header textproto.MIMEHeader, body io.Reader) (string, error) {
	switch strings.ToLower(strings.TrimSpace(header.Get("Content-Transfer-Encoding"))) {
	case "quoted-printable":
		body = quotedprintable.NewReader(body)
	case "base64":
		body = base64.NewDecoder(base64.StdEncoding, body)
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("failed to read message body: %w", err)
	}
	return string(data), nil
}
