package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/wolserv-project/wolserv/internal/config"
	"github.com/wolserv-project/wolserv/internal/events"
	"github.com/wolserv-project/wolserv/internal/lobby"
	"github.com/wolserv-project/wolserv/internal/peer"
	"github.com/wolserv-project/wolserv/internal/reactor"
	"github.com/wolserv-project/wolserv/internal/room"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	cfg := config.DefaultConfig()
	reg := room.NewRegistry()
	reg.SeedLobbies(2, 21, 50)

	r := reactor.New(time.Second, 30*time.Second, 60*time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go r.Run(ctx)

	lf := lobby.New("testserv", "supersecret", "Welcome!", reg, nil)
	pf := peer.New([]peer.Entry{{Name: "westwood2", Address: "10.0.1.2:4005"}}, nil)

	srv := NewServer(cfg, events.NewEventBus(), r, lf, pf, nil)
	return srv.buildRouter()
}

func doRequest(t *testing.T, router http.Handler, method, path string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestPingEndpoint(t *testing.T) {
	router := newTestRouter(t)

	w := doRequest(t, router, "GET", "/api/public/ping", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var resp map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if resp["status"] != "ok" {
		t.Errorf("Expected status ok, got %v", resp["status"])
	}
}

func TestStatusReportsSeededRooms(t *testing.T) {
	router := newTestRouter(t)

	w := doRequest(t, router, "GET", "/api/status", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var resp struct {
		Sessions int `json:"sessions"`
		Rooms    int `json:"rooms"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if resp.Rooms != 2 {
		t.Errorf("Expected 2 seeded rooms, got %d", resp.Rooms)
	}
	if resp.Sessions != 0 {
		t.Errorf("Expected 0 sessions, got %d", resp.Sessions)
	}
}

func TestRoomsSnapshot(t *testing.T) {
	router := newTestRouter(t)

	w := doRequest(t, router, "GET", "/api/rooms", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var resp struct {
		Rooms []lobby.RoomInfo `json:"rooms"`
		Count int              `json:"count"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if resp.Count != 2 {
		t.Fatalf("Expected 2 rooms, got %d", resp.Count)
	}
	for _, r := range resp.Rooms {
		if !r.Permanent {
			t.Errorf("Seeded lobby %s must be permanent", r.Name)
		}
		if r.GameType != 21 {
			t.Errorf("Seeded lobby %s has game type %d", r.Name, r.GameType)
		}
	}
}

func TestPeersSnapshot(t *testing.T) {
	router := newTestRouter(t)

	w := doRequest(t, router, "GET", "/api/peers", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var resp struct {
		Peers []peer.Entry `json:"peers"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if len(resp.Peers) != 1 || resp.Peers[0].Name != "westwood2" {
		t.Errorf("Expected static peer in directory, got %+v", resp.Peers)
	}
}

func TestConfigRedactsSecret(t *testing.T) {
	router := newTestRouter(t)

	w := doRequest(t, router, "GET", "/api/config", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var resp struct {
		ServerData config.ServerData `json:"server_data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if resp.ServerData.Secret != "********" {
		t.Errorf("Secret must be redacted, got %q", resp.ServerData.Secret)
	}
}

func TestUpdateServerConfigRejectsBadBody(t *testing.T) {
	router := newTestRouter(t)

	w := doRequest(t, router, "POST", "/api/config/server", []byte(`{"key": "motd"}`))
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for missing value, got %d", w.Code)
	}
}

func TestUnknownAPIPathReturnsJSON404(t *testing.T) {
	router := newTestRouter(t)

	w := doRequest(t, router, "GET", "/api/nope", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("Expected 404, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Errorf("Expected JSON 404 body, got content type %q", ct)
	}
}

func TestDashboardServedOnRoot(t *testing.T) {
	router := newTestRouter(t)

	w := doRequest(t, router, "GET", "/", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if !bytes.Contains(w.Body.Bytes(), []byte("WOLServ")) {
		t.Error("Expected dashboard page content")
	}
}

func TestSecurityHeaders(t *testing.T) {
	router := newTestRouter(t)

	w := doRequest(t, router, "GET", "/api/public/ping", nil)
	if got := w.Header().Get("Server"); got != "WOLServ" {
		t.Errorf("Expected Server header WOLServ, got %q", got)
	}
	if got := w.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("Expected nosniff header, got %q", got)
	}
}

func TestLadderRejectsBadGameType(t *testing.T) {
	router := newTestRouter(t)

	w := doRequest(t, router, "GET", "/api/ladder/notanumber", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", w.Code)
	}
}
