package debugserver

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kindredapp/kindred/internal/realtime"
	"github.com/kindredapp/kindred/protocol/wire"
)

type staticState struct {
	state realtime.State
}

func (s staticState) State() realtime.State { return s.state }

func newTestServer(t *testing.T, cfg Config) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(New(cfg).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func TestHealthz(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t, Config{State: staticState{}})

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestStateIsJSON(t *testing.T) {
	t.Parallel()
	st := realtime.InitialState()
	st.Connection = realtime.Connected
	st.PartnerOnline = true
	st.PartnerMood = &wire.Mood{Emoji: "🥰", Label: "Loved"}
	srv := newTestServer(t, Config{State: staticState{state: st}})

	resp, err := http.Get(srv.URL + "/state")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var got map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	require.Equal(t, "connected", got["connection"])
	require.Equal(t, true, got["partnerOnline"])
	require.Equal(t, "Loved", got["partnerMood"].(map[string]any)["label"])
	require.Nil(t, got["partnerScribble"])
}

func TestLogsTail(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t, Config{
		State: staticState{},
		Logs:  func() []string { return []string{"INFO a", "INFO b", "WARN c"} },
	})

	body := func(path string) (int, string) {
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		defer resp.Body.Close()
		raw, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		return resp.StatusCode, string(raw)
	}

	code, text := body("/logs")
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "INFO a\nINFO b\nWARN c\n", text)

	code, text = body("/logs?n=1")
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "WARN c\n", text)

	code, _ = body("/logs?n=x")
	require.Equal(t, http.StatusBadRequest, code)
}

func TestAppStateRoute(t *testing.T) {
	t.Parallel()
	var (
		mu  sync.Mutex
		got []realtime.AppState
	)
	srv := newTestServer(t, Config{
		State: staticState{},
		AppState: func(s realtime.AppState) {
			mu.Lock()
			defer mu.Unlock()
			got = append(got, s)
		},
	})

	post := func(state string) int {
		resp, err := http.Post(srv.URL+"/app-state/"+state, "text/plain", nil)
		require.NoError(t, err)
		resp.Body.Close()
		return resp.StatusCode
	}
	require.Equal(t, http.StatusNoContent, post("background"))
	require.Equal(t, http.StatusNoContent, post("active"))
	require.Equal(t, http.StatusBadRequest, post("sleeping"))
	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []realtime.AppState{realtime.AppStateBackground, realtime.AppStateActive}, got)
}

func TestAppStateRouteDisabled(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t, Config{State: staticState{}})

	resp, err := http.Post(srv.URL+"/app-state/active", "text/plain", nil)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRunStopsOnCancel(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	s := New(Config{Addr: "127.0.0.1:0", State: staticState{}})

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	cancel()
	require.NoError(t, <-done)
}
