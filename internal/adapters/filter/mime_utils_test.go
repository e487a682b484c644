package filter

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractTextPlain(t *testing.T) {
	raw := "From: a@example.com\r\nSubject: Hello\r\n\r\nJust text.\r\n"
	msg, err := ParseMessage([]byte(raw))
	require.NoError(t, err)

	text, err := ExtractText(msg)
	require.NoError(t, err)
	assert.Equal(t, "Just text.\r\n", text)
}

func TestExtractTextMultipartSkipsHTMLAndAttachments(t *testing.T) {
	raw := strings.Join([]string{
		"From: a@example.com",
		"Subject: Offer",
		"Content-Type: multipart/mixed; boundary=outer",
		"",
		"--outer",
		"Content-Type: multipart/alternative; boundary=inner",
		"",
		"--inner",
		"Content-Type: text/plain; charset=utf-8",
		"",
		"plain part",
		"--inner",
		"Content-Type: text/html",
		"",
		"<p>html part</p>",
		"--inner--",
		"--outer",
		"Content-Type: text/plain",
		"Content-Disposition: attachment; filename=notes.txt",
		"",
		"attached text",
		"--outer--",
		"",
	}, "\r\n")

	msg, err := ParseMessage([]byte(raw))
	require.NoError(t, err)

	text, err := ExtractText(msg)
	require.NoError(t, err)
	assert.Equal(t, "plain part", text)
}

func TestExtractTextTransferEncodings(t *testing.T) {
	qp := "Content-Type: text/plain\r\nContent-Transfer-Encoding: quoted-printable\r\n\r\nYour account is blocked =\r\ntoday=21"
	msg, err := ParseMessage([]byte(qp))
	require.NoError(t, err)
	text, err := ExtractText(msg)
	require.NoError(t, err)
	assert.Equal(t, "Your account is blocked today!", text)

	b64 := "Content-Type: text/plain\r\nContent-Transfer-Encoding: base64\r\n\r\nVmVyaWZ5IHlv\r\ndXIgS1lD\r\n"
	msg, err = ParseMessage([]byte(b64))
	require.NoError(t, err)
	text, err = ExtractText(msg)
	require.NoError(t, err)
	assert.Equal(t, "Verify your KYC", text)
}

func TestMessageTextIncludesDecodedSubject(t *testing.T) {
	raw := "From: a@example.com\r\nSubject: =?utf-8?q?Urgent=3A_verify?=\r\n\r\nbody"
	msg, err := ParseMessage([]byte(raw))
	require.NoError(t, err)

	text, err := MessageText(msg)
	require.NoError(t, err)
	assert.Equal(t, "Urgent: verify\n\nbody", text)
}

func TestLooksLikeMessage(t *testing.T) {
	assert.True(t, LooksLikeMessage([]byte("From: a@example.com\nSubject: x\n\nbody")))
	assert.False(t, LooksLikeMessage([]byte("Your OTP is 1234. Do not share.")))
}

func TestDecodeHeaderFallsBack(t *testing.T) {
	assert.Equal(t, "plain subject", DecodeHeader("plain subject"))
	assert.Equal(t, "=?bogus?x?abc?=", DecodeHeader("=?bogus?x?abc?="))
}
