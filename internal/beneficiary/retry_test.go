package beneficiary

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestWithRetryLogsAttempts(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	boom := errors.New("rate limited")

	calls := 0
	err := withRetry(context.Background(), "eth_getLogs", 3, time.Millisecond, zap.New(core), func(context.Context) error {
		calls++
		if calls < 3 {
			return boom
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 3, calls)

	retries := logs.FilterMessage("rpc failed, retrying").All()
	require.Len(t, retries, 2)
	first := retries[0].ContextMap()
	require.Equal(t, "eth_getLogs", first["op"])
	require.Equal(t, int64(1), first["attempt"])
	require.Equal(t, time.Millisecond, first["delay"])
	require.Equal(t, 2*time.Millisecond, retries[1].ContextMap()["delay"])
	require.Equal(t, 1, logs.FilterMessage("rpc recovered").Len())
}

func TestWithRetryExhausted(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	boom := errors.New("unavailable")

	calls := 0
	err := withRetry(context.Background(), "eth_blockNumber", 2, time.Millisecond, zap.New(core), func(context.Context) error {
		calls++
		return boom
	})
	require.ErrorIs(t, err, boom)
	require.Equal(t, 3, calls)

	exhausted := logs.FilterMessage("rpc failed, retries exhausted").All()
	require.Len(t, exhausted, 1)
	require.Equal(t, int64(3), exhausted[0].ContextMap()["attempts"])
}

func TestWithRetryStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := withRetry(ctx, "eth_getLogs", 5, time.Hour, nil, func(context.Context) error {
		calls++
		cancel()
		return errors.New("timeout")
	})
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 1, calls)
}
