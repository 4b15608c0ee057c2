package Adhoc

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type regServer struct {
	mu   sync.Mutex
	reqs []RegisterRequest
	code int
}

func (s *regServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if r.URL.Path != "/api/register" || json.NewDecoder(r.Body).Decode(&req) != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	s.reqs = append(s.reqs, req)
	code := s.code
	s.mu.Unlock()
	if code != 0 {
		w.WriteHeader(code)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(RegisterResponse{Id: req.Id, Success: true})
}

func (s *regServer) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.reqs)
}

func serverConfig(t *testing.T, url string) RegServerConfig {
	t.Helper()
	host, port, err := net.SplitHostPort(url[len("http://"):])
	require.NoError(t, err)
	p, err := strconv.Atoi(port)
	require.NoError(t, err)
	return RegServerConfig{Addr: host, Port: p}
}

func TestSend(t *testing.T) {
	rs := &regServer{}
	srv := httptest.NewServer(rs)
	defer srv.Close()

	hb := NewHeartbeat(serverConfig(t, srv.URL), "10.0.0.5", 8090, time.Second, func() (int, uint64) { return 3, 120 })
	ok, err := hb.Send(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)

	require.Len(t, rs.reqs, 1)
	got := rs.reqs[0]
	assert.Equal(t, hb.ID, got.Id)
	assert.Equal(t, "10.0.0.5", got.IP)
	assert.Equal(t, 8090, got.Port)
	assert.Equal(t, 3, got.Zones)
	assert.Equal(t, uint64(120), got.Frames)
	assert.NotZero(t, got.TimeStamp)
}

func TestSendServerError(t *testing.T) {
	rs := &regServer{code: http.StatusServiceUnavailable}
	srv := httptest.NewServer(rs)
	defer srv.Close()

	hb := NewHeartbeat(serverConfig(t, srv.URL), "127.0.0.1", 1, time.Second, nil)
	ok, err := hb.Send(context.Background())
	assert.False(t, ok)
	assert.ErrorContains(t, err, "503")
}

func TestRunUntilCancelled(t *testing.T) {
	rs := &regServer{}
	srv := httptest.NewServer(rs)
	defer srv.Close()

	hb := NewHeartbeat(serverConfig(t, srv.URL), "127.0.0.1", 1, 20*time.Millisecond, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		hb.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return rs.count() >= 3 }, 2*time.Second, 10*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("heartbeat did not stop")
	}
}
