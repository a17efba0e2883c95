package server

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/Adarsh-codesOP/one2one/internal/config"
	"github.com/Adarsh-codesOP/one2one/internal/signaling"
	"github.com/Adarsh-codesOP/one2one/internal/version"
)

// Routes builds the HTTP surface: the websocket endpoint plus the
// unauthenticated service-info and health endpoints.
func Routes(hub *signaling.Hub, registry *signaling.Registry, cfg *config.Server, logger *log.Entry) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/", serviceInfoHandler(registry))
	mux.HandleFunc("/health", healthHandler)
	mux.HandleFunc("/ws", ServeWs(hub, cfg, logger))
	return mux
}

func serviceInfoHandler(registry *signaling.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"service": "One2One Signaling Server",
			"status":  "running",
			"version": version.Version,
			"rooms":   registry.RoomCount(),
		})
	}
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Signaling server is healthy."))
}

// ServeWs returns an http.HandlerFunc that upgrades requests to websocket
// connections and hands them to the hub.
func ServeWs(hub *signaling.Hub, cfg *config.Server, logger *log.Entry) http.HandlerFunc {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  64 * 1024,
		WriteBufferSize: 64 * 1024,
		CheckOrigin: func(r *http.Request) bool {
			return cfg.OriginAllowed(r.Header.Get("Origin"))
		},
	}

	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.WithError(err).Warn("websocket upgrade failed")
			return
		}

		client := &signaling.Client{
			Hub:  hub,
			Conn: conn,
			Send: make(chan *signaling.Message, 256),
		}

		client.Hub.Register <- client

		// One reader and one writer goroutine per connection own the
		// client's lifecycle from here.
		go client.WritePump()
		go client.ReadPump()
	}
}
