package preview

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
)

func websocketURL(t *testing.T, baseURL string) string {
	t.Helper()

	parsed, err := url.Parse(baseURL)
	if err != nil {
		t.Fatalf("failed to parse test server url: %v", err)
	}
	parsed.Scheme = "ws"
	parsed.Path = "/ws"
	return parsed.String()
}

func dialViewer(t *testing.T, baseURL string) *websocket.Conn {
	t.Helper()

	conn, resp, err := websocket.DefaultDialer.Dial(websocketURL(t, baseURL), nil)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		t.Fatalf("failed to open websocket connection: %v", err)
	}
	t.Cleanup(func() {
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		conn.Close()
		if resp != nil {
			resp.Body.Close()
		}
	})
	return conn
}

func TestMuxServesViewerPage(t *testing.T) {
	hub := newHub(nil)
	t.Cleanup(hub.Close)
	srv := httptest.NewServer(newMux(hub, handlerConfig{}))
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL + "/")
	if err != nil {
		t.Fatalf("failed to fetch viewer page: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("expected html content type, got %q", ct)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read viewer page: %v", err)
	}
	if !strings.Contains(string(body), "<canvas") {
		t.Fatalf("expected viewer page to embed a canvas")
	}

	missing, err := http.Get(srv.URL + "/nope")
	if err != nil {
		t.Fatalf("failed to fetch unknown path: %v", err)
	}
	defer missing.Body.Close()
	if missing.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown path, got %d", missing.StatusCode)
	}
}

func TestMuxHealthEndpoint(t *testing.T) {
	hub := newHub(nil)
	t.Cleanup(hub.Close)
	srv := httptest.NewServer(newMux(hub, handlerConfig{}))
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("failed to fetch health: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read health body: %v", err)
	}
	if string(body) != "ok" {
		t.Fatalf("expected ok, got %q", body)
	}
}

func TestWebsocketDeliversGreetingThenSnapshots(t *testing.T) {
	hub := newHub(nil)
	hub.SetHello([]byte(`{"type":"hello","title":"Test Battle"}`))
	t.Cleanup(hub.Close)
	srv := httptest.NewServer(newMux(hub, handlerConfig{}))
	t.Cleanup(srv.Close)

	conn := dialViewer(t, srv.URL)

	_, payload, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("failed to read greeting: %v", err)
	}
	var greeting map[string]any
	if err := json.Unmarshal(payload, &greeting); err != nil {
		t.Fatalf("failed to decode greeting: %v", err)
	}
	if typ, ok := greeting["type"].(string); !ok || typ != "hello" {
		t.Fatalf("expected hello greeting, got %v", greeting["type"])
	}

	hub.Broadcast([]byte(`{"type":"snapshot","tick":7}`))

	_, payload, err = conn.ReadMessage()
	if err != nil {
		t.Fatalf("failed to read snapshot: %v", err)
	}
	var frame map[string]any
	if err := json.Unmarshal(payload, &frame); err != nil {
		t.Fatalf("failed to decode snapshot: %v", err)
	}
	if typ, ok := frame["type"].(string); !ok || typ != "snapshot" {
		t.Fatalf("expected snapshot frame, got %v", frame["type"])
	}
	if tick, ok := frame["tick"].(float64); !ok || int(tick) != 7 {
		t.Fatalf("expected tick 7, got %v", frame["tick"])
	}
}

func TestWebsocketLateJoinerGetsLatestSnapshot(t *testing.T) {
	hub := newHub(nil)
	hub.SetHello([]byte(`{"type":"hello"}`))
	t.Cleanup(hub.Close)
	srv := httptest.NewServer(newMux(hub, handlerConfig{}))
	t.Cleanup(srv.Close)

	hub.Broadcast([]byte(`{"type":"snapshot","tick":100}`))
	hub.Broadcast([]byte(`{"type":"snapshot","tick":200}`))

	conn := dialViewer(t, srv.URL)

	if _, _, err := conn.ReadMessage(); err != nil {
		t.Fatalf("failed to read greeting: %v", err)
	}
	_, payload, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("failed to read replayed snapshot: %v", err)
	}
	var frame map[string]any
	if err := json.Unmarshal(payload, &frame); err != nil {
		t.Fatalf("failed to decode replayed snapshot: %v", err)
	}
	if tick, ok := frame["tick"].(float64); !ok || int(tick) != 200 {
		t.Fatalf("expected the latest snapshot, got %v", frame["tick"])
	}
}

func TestWebsocketClosedHubTurnsViewersAway(t *testing.T) {
	hub := newHub(nil)
	hub.Close()
	srv := httptest.NewServer(newMux(hub, handlerConfig{}))
	t.Cleanup(srv.Close)

	conn, resp, err := websocket.DefaultDialer.Dial(websocketURL(t, srv.URL), nil)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		t.Fatalf("failed to open websocket connection: %v", err)
	}
	t.Cleanup(func() {
		conn.Close()
		if resp != nil {
			resp.Body.Close()
		}
	})

	if _, _, err := conn.ReadMessage(); !websocket.IsCloseError(err, websocket.CloseGoingAway) {
		t.Fatalf("expected going-away close, got %v", err)
	}
}
