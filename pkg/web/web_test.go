package web

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teslashibe/go-memey/pkg/assets"
	"github.com/teslashibe/go-memey/pkg/emotion"
	"github.com/teslashibe/go-memey/pkg/input"
	"github.com/teslashibe/go-memey/pkg/session"
	"github.com/teslashibe/go-memey/pkg/trigger"
)

func newTestServer(addr string, queue int) (*Server, *input.Controller) {
	controls := input.NewController(queue)
	lib := assets.NewLibrary(
		assets.Entry{Emotion: emotion.Happy, Images: []string{"a.png", "b.gif"}, Sound: "happy.mp3"},
	)
	return NewServer(addr, controls, lib), controls
}

func doRequest(t *testing.T, s *Server, method, path string) (*http.Response, []byte) {
	t.Helper()
	resp, err := s.App().Test(httptest.NewRequest(method, path, nil))
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()
	return resp, body
}

func TestAPIStatus(t *testing.T) {
	s, _ := newTestServer(":0", 1)
	s.PublishStatus(session.Status{
		SessionID: "abc",
		Phase:     trigger.PhaseAccumulating,
		Candidate: emotion.Sad,
		Progress:  0.5,
	})

	resp, body := doRequest(t, s, "GET", "/api/status")
	assert.Equal(t, 200, resp.StatusCode)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, "abc", got["session_id"])
	assert.Equal(t, "accumulating", got["phase"])
	assert.Equal(t, "sad", got["candidate"])
	assert.Equal(t, 0.5, got["progress"])
}

func TestAPIEmotions(t *testing.T) {
	s, _ := newTestServer(":0", 1)

	resp, body := doRequest(t, s, "GET", "/api/emotions")
	assert.Equal(t, 200, resp.StatusCode)

	var got []EmotionInfo
	require.NoError(t, json.Unmarshal(body, &got))
	require.Len(t, got, 7)
	assert.Equal(t, EmotionInfo{Name: "happy", Color: "#FFD700", Images: 2, Sound: true}, got[0])
	assert.Equal(t, 0, got[1].Images)
	assert.False(t, got[1].Sound)
}

func TestAPIEvents(t *testing.T) {
	s, _ := newTestServer(":0", 1)
	for i := 0; i < maxRecentEvents+5; i++ {
		s.PublishEvent(trigger.Event{ID: "ev", Emotion: emotion.Angry})
	}

	resp, body := doRequest(t, s, "GET", "/api/events")
	assert.Equal(t, 200, resp.StatusCode)

	var got []trigger.Event
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Len(t, got, maxRecentEvents)
}

func TestAPIActions(t *testing.T) {
	s, controls := newTestServer(":0", 1)

	resp, _ := doRequest(t, s, "POST", "/api/actions/trigger")
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Equal(t, input.Trigger, controls.Next(-1))

	resp, _ = doRequest(t, s, "POST", "/api/actions/explode")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = doRequest(t, s, "POST", "/api/actions/quit")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// Queue holds one command
	resp, _ = doRequest(t, s, "POST", "/api/actions/reset")
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	resp, _ = doRequest(t, s, "POST", "/api/actions/sound")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestWSRequiresUpgrade(t *testing.T) {
	s, _ := newTestServer(":0", 1)
	resp, _ := doRequest(t, s, "GET", "/ws/status")
	assert.Equal(t, fiber.StatusUpgradeRequired, resp.StatusCode)
}

func TestWebSocketFeeds(t *testing.T) {
	s, _ := newTestServer("127.0.0.1:18090", 1)
	s.PublishStatus(session.Status{SessionID: "live"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.StartAsync(ctx)
	defer s.Shutdown()
	time.Sleep(100 * time.Millisecond)

	statusWS, _, err := websocket.DefaultDialer.Dial("ws://127.0.0.1:18090/ws/status", nil)
	require.NoError(t, err)
	defer statusWS.Close()

	// Late joiners get the current snapshot first
	statusWS.SetReadDeadline(time.Now().Add(2 * time.Second))
	var st session.Status
	require.NoError(t, statusWS.ReadJSON(&st))
	assert.Equal(t, "live", st.SessionID)

	eventsWS, _, err := websocket.DefaultDialer.Dial("ws://127.0.0.1:18090/ws/events", nil)
	require.NoError(t, err)
	defer eventsWS.Close()

	require.Eventually(t, func() bool { return s.eventHub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	s.PublishEvent(trigger.Event{ID: "ev-1", Emotion: emotion.Surprised, Manual: true})

	eventsWS.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev trigger.Event
	require.NoError(t, eventsWS.ReadJSON(&ev))
	assert.Equal(t, "ev-1", ev.ID)
	assert.Equal(t, emotion.Surprised, ev.Emotion)
	assert.True(t, ev.Manual)

	s.PublishStatus(session.Status{SessionID: "live", Events: 1})
	for st.Events == 0 {
		require.NoError(t, statusWS.ReadJSON(&st))
	}
	assert.Equal(t, uint64(1), st.Events)
}
