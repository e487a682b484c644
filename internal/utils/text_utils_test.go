package utils

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestTruncateText(t *testing.T) {
	tp := NewTextProcessor(zap.NewNop())

	assert.Equal(t, "hello", tp.TruncateText("hello", 0))
	assert.Equal(t, "hello", tp.TruncateText("hello", 10))
	assert.Equal(t, "hel", tp.TruncateText("hello", 3))

	// "é" is two bytes; cutting through it drops the partial rune
	out := tp.TruncateText("caféteria", 4)
	assert.Equal(t, "caf", out)
	assert.True(t, utf8.ValidString(out))
}

func TestSanitizeUTF8(t *testing.T) {
	tp := NewTextProcessor(zap.NewNop())

	assert.Equal(t, "plain", tp.SanitizeUTF8("plain"))
	assert.Equal(t, "ab", tp.SanitizeUTF8("a\xffb"))
	assert.Equal(t, "ab", tp.SanitizeUTF8("a\x00b"))
	assert.Equal(t, "₹500", tp.SanitizeUTF8("₹500"))
}

func TestNormalize(t *testing.T) {
	tp := NewTextProcessor(zap.NewNop())
	decomposed := "cafe\u0301"
	assert.Equal(t, "caf\u00e9", tp.Normalize(decomposed))
	assert.Equal(t, "already", tp.Normalize("already"))
}

func TestProcessText(t *testing.T) {
	tp := NewTextProcessor(zap.NewNop())
	long := strings.Repeat("urgent ", 3000)

	out := tp.ProcessText(long, 10000)
	assert.LessOrEqual(t, len(out), 10000)
	assert.True(t, strings.HasPrefix(out, "urgent urgent"))

	assert.Equal(t, "ok", tp.ProcessText("o\xffk", 100))
}
