package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tmaxmax/go-sse"

	"github.com/comigor/dermachat-go/internal/catalog"
	"github.com/comigor/dermachat-go/internal/chat"
)

type mockSearcher struct {
	SearchFunc func(ctx context.Context, query string) (*catalog.SearchResult, error)
}

func (m *mockSearcher) Search(ctx context.Context, q string) (*catalog.SearchResult, error) {
	return m.SearchFunc(ctx, q)
}

func newTestServer(t *testing.T) (*httptest.Server, *Server) {
	t.Helper()
	searcher := &mockSearcher{SearchFunc: func(context.Context, string) (*catalog.SearchResult, error) {
		return &catalog.SearchResult{
			ParsedQuery: catalog.ParsedQuery{Concern: "acne"},
			Products:    []catalog.Product{{ID: "p1", Name: "Gel"}},
		}, nil
	}}
	srv := New(func(_ string, opts ...chat.Option) *chat.Controller {
		return chat.New(searcher, append([]chat.Option{chat.WithRevealInterval(0)}, opts...)...)
	})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return ts, srv
}

func createSession(t *testing.T, ts *httptest.Server) string {
	t.Helper()
	resp, err := ts.Client().Post(ts.URL+"/api/sessions", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var out struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.NotEmpty(t, out.ID)
	return out.ID
}

func submit(t *testing.T, ts *httptest.Server, id, query string) int {
	t.Helper()
	body := strings.NewReader(`{"query":` + jsonString(query) + `}`)
	resp, err := ts.Client().Post(ts.URL+"/api/sessions/"+id+"/messages", "application/json", body)
	require.NoError(t, err)
	resp.Body.Close()
	return resp.StatusCode
}

func jsonString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func state(t *testing.T, ts *httptest.Server, id string) chat.Snapshot {
	t.Helper()
	resp, err := ts.Client().Get(ts.URL + "/api/sessions/" + id + "/messages")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var snap chat.Snapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snap))
	return snap
}

func TestSubmitAndTranscript(t *testing.T) {
	ts, _ := newTestServer(t)
	id := createSession(t, ts)

	require.Equal(t, http.StatusAccepted, submit(t, ts, id, "acne gel"))

	require.Eventually(t, func() bool {
		return len(state(t, ts, id).Transcript) == 2
	}, time.Second, 10*time.Millisecond)

	snap := state(t, ts, id)
	require.Equal(t, chat.RoleUser, snap.Transcript[0].Role)
	require.Equal(t, "acne gel", snap.Transcript[0].Content)
	require.Equal(t, chat.RoleAssistant, snap.Transcript[1].Role)
	require.Contains(t, snap.Transcript[1].Content, "acne")
	require.Equal(t, chat.PhaseIdle, snap.Phase)
	require.Len(t, snap.View.Products, 1)
}

func TestSubmitBlankQuery(t *testing.T) {
	ts, _ := newTestServer(t)
	id := createSession(t, ts)

	require.Equal(t, http.StatusBadRequest, submit(t, ts, id, "   "))
	require.Empty(t, state(t, ts, id).Transcript)
}

func TestUnknownSession(t *testing.T) {
	ts, _ := newTestServer(t)

	require.Equal(t, http.StatusNotFound, submit(t, ts, "nope", "hi"))

	resp, err := ts.Client().Get(ts.URL + "/api/sessions/nope/events")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDeleteSession(t *testing.T) {
	ts, srv := newTestServer(t)
	id := createSession(t, ts)
	require.Equal(t, 1, srv.Sessions())

	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/api/sessions/"+id, nil)
	require.NoError(t, err)
	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	require.Zero(t, srv.Sessions())

	require.Equal(t, http.StatusNotFound, submit(t, ts, id, "hi"))
}

func TestResetSession(t *testing.T) {
	ts, _ := newTestServer(t)
	id := createSession(t, ts)
	submit(t, ts, id, "acne gel")
	require.Eventually(t, func() bool {
		return len(state(t, ts, id).Transcript) == 2
	}, time.Second, 10*time.Millisecond)

	resp, err := ts.Client().Post(ts.URL+"/api/sessions/"+id+"/reset", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	require.Empty(t, state(t, ts, id).Transcript)
}

// subscribe streams the event types of a session until the test ends.
func subscribe(t *testing.T, ts *httptest.Server, id string) <-chan string {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	types := make(chan string, 256)
	go func() {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/sessions/"+id+"/events", nil)
		if err != nil {
			return
		}
		resp, err := ts.Client().Do(req)
		if err != nil {
			return
		}
		defer resp.Body.Close()
		for ev, err := range sse.Read(resp.Body, nil) {
			if err != nil {
				return
			}
			select {
			case types <- ev.Type:
			case <-ctx.Done():
				return
			}
		}
	}()
	return types
}

// waitForType repeats trigger until an event of type want shows up. The stream may
// subscribe after the first trigger.
func waitForType(t *testing.T, types <-chan string, want string, trigger func()) {
	t.Helper()
	require.Eventually(t, func() bool {
		trigger()
		deadline := time.After(50 * time.Millisecond)
		for {
			select {
			case typ := <-types:
				if typ == want {
					return true
				}
			case <-deadline:
				return false
			}
		}
	}, 3*time.Second, 10*time.Millisecond)
}

func TestEventsStream(t *testing.T) {
	ts, _ := newTestServer(t)
	id := createSession(t, ts)

	types := subscribe(t, ts, id)
	waitForType(t, types, "message", func() { submit(t, ts, id, "acne gel") })
}

func TestNotifyUnauthorizedReachesStreams(t *testing.T) {
	ts, srv := newTestServer(t)
	first := createSession(t, ts)
	second := createSession(t, ts)

	firstTypes := subscribe(t, ts, first)
	secondTypes := subscribe(t, ts, second)
	waitForType(t, firstTypes, "unauthorized", srv.NotifyUnauthorized)
	waitForType(t, secondTypes, "unauthorized", srv.NotifyUnauthorized)
}

func TestEventMessage(t *testing.T) {
	msg, err := eventMessage(chat.Event{Kind: chat.EventRevealProgress, Partial: "Great question!"})
	require.NoError(t, err)
	require.Equal(t, sse.Type("reveal"), msg.Type)

	var buf strings.Builder
	_, err = msg.WriteTo(&buf)
	require.NoError(t, err)
	require.Contains(t, buf.String(), "event: reveal\n")
	require.Contains(t, buf.String(), `"partial":"Great question!"`)
}

func TestShutdownClosesSessions(t *testing.T) {
	ts, srv := newTestServer(t)
	id := createSession(t, ts)
	createSession(t, ts)

	require.NoError(t, srv.Shutdown(context.Background()))
	require.Zero(t, srv.Sessions())

	require.Equal(t, http.StatusServiceUnavailable, submit(t, ts, id, "hi"))

	resp, err := ts.Client().Get(ts.URL + "/api/sessions/" + id + "/messages")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	resp, err := ts.Client().Post(ts.URL+"/api/sessions", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}
