package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixed = time.Date(2025, 6, 15, 12, 0, 30, 0, time.UTC)

func newTestLimiter(limit int) (*Limiter, redismock.ClientMock) {
	client, mock := redismock.NewClientMock()
	l := NewLimiter(client, "sg:", limit, time.Minute).WithNow(func() time.Time { return fixed })
	return l, mock
}

func TestKeyFormat(t *testing.T) {
	l, _ := newTestLimiter(10)
	assert.Equal(t, "sg:ratelimit:ip:10.0.0.1:29166480", l.Key("ip:10.0.0.1", fixed))
}

func TestAllowWithinLimit(t *testing.T) {
	l, mock := newTestLimiter(3)
	key := l.Key("ip:1.2.3.4", fixed)

	mock.ExpectTxPipeline()
	mock.ExpectIncr(key).SetVal(2)
	mock.ExpectExpire(key, time.Minute).SetVal(true)
	mock.ExpectTxPipelineExec()

	res, err := l.Allow(context.Background(), "ip:1.2.3.4")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, int64(3), res.Limit)
	assert.Equal(t, int64(1), res.Remaining)
	assert.Equal(t, time.Date(2025, 6, 15, 12, 1, 0, 0, time.UTC), res.ResetAt.UTC())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAllowOverLimit(t *testing.T) {
	l, mock := newTestLimiter(3)
	key := l.Key("ip:1.2.3.4", fixed)

	mock.ExpectTxPipeline()
	mock.ExpectIncr(key).SetVal(4)
	mock.ExpectExpire(key, time.Minute).SetVal(true)
	mock.ExpectTxPipelineExec()

	res, err := l.Allow(context.Background(), "ip:1.2.3.4")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, int64(0), res.Remaining)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAllowRedisError(t *testing.T) {
	l, mock := newTestLimiter(3)
	key := l.Key("ip:1.2.3.4", fixed)

	mock.ExpectTxPipeline()
	mock.ExpectIncr(key).SetErr(errors.New("connection refused"))

	_, err := l.Allow(context.Background(), "ip:1.2.3.4")
	assert.Error(t, err)
}

func TestAllowDisabledLimit(t *testing.T) {
	l, mock := newTestLimiter(0)

	res, err := l.Allow(context.Background(), "ip:1.2.3.4")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubSecondWindowIsClamped(t *testing.T) {
	client, mock := redismock.NewClientMock()
	l := NewLimiter(client, "sg:", 5, 250*time.Millisecond).WithNow(func() time.Time { return fixed })

	key := l.Key("ip:1.2.3.4", fixed)
	assert.Equal(t, fmt.Sprintf("sg:ratelimit:ip:1.2.3.4:%d", fixed.Unix()), key)

	mock.ExpectTxPipeline()
	mock.ExpectIncr(key).SetVal(1)
	mock.ExpectExpire(key, time.Second).SetVal(true)
	mock.ExpectTxPipelineExec()

	res, err := l.Allow(context.Background(), "ip:1.2.3.4")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, fixed.Add(time.Second), res.ResetAt.UTC())
	assert.NoError(t, mock.ExpectationsWereMet())
}
