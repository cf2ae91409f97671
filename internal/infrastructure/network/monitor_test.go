package network

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/GatherLoop/gathersync/internal/infrastructure/observability/logging"
	"github.com/GatherLoop/gathersync/internal/infrastructure/origin"
)

func testLogger(t *testing.T) *logging.ChanneledLogger {
	t.Helper()
	logger, err := logging.NewChanneledLogger(&logging.LoggerConfig{
		OutputToConsole: true,
		DefaultLevel:    slog.LevelError + 4,
		ChannelLevels:   make(map[logging.Channel]slog.Level),
	})
	require.NoError(t, err)
	return logger
}

// toggleOrigin is a health endpoint that can be flipped between healthy
// and failing.
func toggleOrigin(t *testing.T, healthy *atomic.Bool) *origin.Client {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if healthy.Load() {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(server.Close)

	client, err := origin.NewClient(server.URL, "/api/health", time.Second)
	require.NoError(t, err)
	return client
}

func TestMonitorFiresCallbacksOnReconnect(t *testing.T) {
	var healthy atomic.Bool
	m := NewMonitor(toggleOrigin(t, &healthy), time.Minute, testLogger(t))

	var first, second atomic.Int32
	m.OnOnline(func(ctx context.Context) { first.Add(1) })
	m.OnOnline(func(ctx context.Context) { second.Add(1) })

	ctx := context.Background()

	// Down on the first probe: offline, nothing fires.
	m.probe(ctx)
	require.False(t, m.Online())
	require.Zero(t, first.Load())

	// Back up: every registered callback fires once.
	healthy.Store(true)
	m.probe(ctx)
	require.True(t, m.Online())
	require.Equal(t, int32(1), first.Load())
	require.Equal(t, int32(1), second.Load())

	// Staying up is not a transition.
	m.probe(ctx)
	require.Equal(t, int32(1), first.Load())
}

func TestMonitorFirstProbeOnlineIsQuiet(t *testing.T) {
	var healthy atomic.Bool
	healthy.Store(true)
	m := NewMonitor(toggleOrigin(t, &healthy), time.Minute, testLogger(t))

	var fired atomic.Int32
	m.OnOnline(func(ctx context.Context) { fired.Add(1) })

	m.probe(context.Background())
	require.True(t, m.Online())
	require.Zero(t, fired.Load(), "startup with a healthy origin is not a reconnect")
}
