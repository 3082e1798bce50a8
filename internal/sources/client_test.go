package sources

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/techsignal/internal/ratelimit"
)

func TestClient_Get_RetriesOnce429ThenSucceeds(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	original := throttleRetryDelay
	throttleRetryDelay = time.Millisecond
	defer func() { throttleRetryDelay = original }()

	client := NewClient(ratelimit.NewManager(map[string]float64{"test": 1000}), []string{"test"})
	body, err := client.Get(context.Background(), "test", srv.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestClient_Get_ErrorStatusSurfaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(ratelimit.NewManager(map[string]float64{"test": 1000}), []string{"test"})
	_, err := client.Get(context.Background(), "test", srv.URL, nil)
	assert.Error(t, err)
}

func TestClient_BreakerState_UnknownSource(t *testing.T) {
	client := NewClient(ratelimit.NewManager(nil), nil)
	_, ok := client.BreakerState("missing")
	assert.False(t, ok)
}
