package preview

import (
	_ "embed"
	"log"
	"net/http"

	"github.com/gorilla/websocket"
)

//go:embed viewer.html
var viewerPage []byte

type handlerConfig struct {
	Logger *log.Logger
}

type wsHandler struct {
	hub      *Hub
	logger   *log.Logger
	upgrader websocket.Upgrader
}

func newWSHandler(hub *Hub, cfg handlerConfig) *wsHandler {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &wsHandler{
		hub:    hub,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

func (h *wsHandler) Handle(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Printf("upgrade failed for %s: %v", r.RemoteAddr, err)
		return
	}

	sub, ok := h.hub.Attach(conn, r.RemoteAddr)
	if !ok {
		message := websocket.FormatCloseMessage(websocket.CloseGoingAway, "preview closed")
		conn.WriteMessage(websocket.CloseMessage, message)
		conn.Close()
		return
	}

	// Viewers send nothing meaningful; the read loop only notices the
	// connection going away.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			h.hub.Detach(sub)
			return
		}
	}
}

// newMux builds the preview HTTP surface: the embedded viewer page, the
// snapshot websocket, and a health probe.
func newMux(hub *Hub, cfg handlerConfig) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("ok"))
	})

	ws := newWSHandler(hub, cfg)
	mux.HandleFunc("/ws", ws.Handle)

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(viewerPage)
	})

	return mux
}
