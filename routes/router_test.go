package routes

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"venuematch_server/auth"
	"venuematch_server/models"
	"venuematch_server/services"
	"venuematch_server/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	t      *testing.T
	clock  *services.FixedClock
	router http.Handler
}

func newTestServer(t *testing.T) *testServer {
	clock := services.NewFixedClock(time.Date(2026, 3, 14, 20, 0, 0, 0, time.UTC))
	checkIns := services.NewMemoryCheckIns(clock, 6*time.Hour)
	engine := services.NewEngine(services.Dependencies{
		Store:     store.NewMemoryStore(),
		CheckIns:  checkIns,
		Blocks:    services.NewMemoryBlockList(),
		Typing:    services.NewMemoryTypingStore(clock),
		Validator: services.BasicTextValidator{MaxLength: 100},
		Clock:     clock,
	}, services.Settings{
		MatchWindow:       3 * time.Hour,
		InterestTTL:       24 * time.Hour,
		MessageCap:        3,
		TypingTTL:         4 * time.Second,
		DependencyTimeout: time.Second,
	})
	router := NewRouter(Deps{
		Engine:         engine,
		CheckIns:       checkIns,
		Auth:           &auth.Authenticator{},
		RequestTimeout: 5 * time.Second,
	})
	return &testServer{t: t, clock: clock, router: router}
}

func (s *testServer) do(method, path, userID string, body any) (int, map[string]any) {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if userID != "" {
		req.Header.Set(auth.UserHeader, userID)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	out := map[string]any{}
	if rec.Body.Len() > 0 {
		require.NoError(s.t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec.Code, out
}

func TestRouter_Health(t *testing.T) {
	s := newTestServer(t)
	code, body := s.do("GET", "/health", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "healthy", body["status"])

	code, _ = s.do("GET", "/api/match", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestRouter_MatchLifecycle(t *testing.T) {
	s := newTestServer(t)

	for _, user := range []string{"alice", "bob"} {
		code, _ := s.do("POST", "/api/checkin", user, map[string]string{"venueId": "v1"})
		require.Equal(t, http.StatusOK, code)
	}

	code, body := s.do("POST", "/api/interest", "alice", map[string]string{"toUserId": "bob", "venueId": "v1"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, string(models.InterestStatusPending), body["status"])

	code, body = s.do("POST", "/api/interest", "bob", map[string]string{"toUserId": "alice", "venueId": "v1"})
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, string(models.InterestStatusMatched), body["status"])
	matchID := body["matchId"].(string)

	code, body = s.do("GET", "/api/match", "alice", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["matches"], 1)

	code, _ = s.do("GET", "/api/match/"+matchID, "carol", nil)
	assert.Equal(t, http.StatusForbidden, code)

	for i := 0; i < 3; i++ {
		code, _ = s.do("POST", "/api/chat/"+matchID+"/messages", "alice", map[string]string{"text": "hi"})
		require.Equal(t, http.StatusCreated, code)
	}
	code, body = s.do("POST", "/api/chat/"+matchID+"/messages", "alice", map[string]string{"text": "hi?"})
	assert.Equal(t, http.StatusTooManyRequests, code)
	assert.Equal(t, "QuotaExceeded", body["kind"])
	assert.Equal(t, "limit reached", body["message"])

	code, body = s.do("GET", "/api/chat/"+matchID+"/quota", "alice", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(0), body["remaining"])
	assert.Equal(t, false, body["canSend"])

	code, body = s.do("POST", "/api/chat/"+matchID+"/read", "bob", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(3), body["updated"])

	s.clock.Advance(3*time.Hour + time.Minute)
	code, body = s.do("POST", "/api/chat/"+matchID+"/messages", "bob", map[string]string{"text": "sorry, late"})
	assert.Equal(t, http.StatusGone, code)
	assert.Equal(t, "Expired", body["kind"])
	assert.Equal(t, true, body["rematchAvailable"])

	code, body = s.do("GET", "/api/rematch/"+matchID, "bob", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["rematchAvailable"])

	code, body = s.do("POST", "/api/rematch/"+matchID, "bob", nil)
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, matchID, body["rematchedFromId"])

	code, body = s.do("POST", "/api/rematch/"+matchID, "alice", nil)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "AlreadyRematched", body["kind"])
}

func TestRouter_BadRequests(t *testing.T) {
	s := newTestServer(t)

	code, _ := s.do("POST", "/api/interest", "alice", map[string]string{"toUserId": "bob"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = s.do("POST", "/api/interest", "alice", map[string]string{"toUserId": "bob", "venueId": "v1", "extra": "x"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, body := s.do("POST", "/api/interest", "alice", map[string]string{"toUserId": "alice", "venueId": "v1"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "SelfInterest", body["kind"])

	code, body = s.do("POST", "/api/interest", "alice", map[string]string{"toUserId": "bob", "venueId": "v1"})
	assert.Equal(t, http.StatusPreconditionFailed, code)
	assert.Equal(t, "NotCheckedIn", body["kind"])

	code, _ = s.do("GET", "/api/chat/nope/messages", "alice", nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, body = s.do("GET", "/api/interest/mutual?userA=alice&userB=bob", "alice", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, false, body["mutual"])
}
