// Package ws terminates websocket connections and runs the per-session
// protocol state machine. Each connection gets its own reader goroutine
// and a writer goroutine; the world never blocks on a slow socket.
package ws

import (
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"thestreet.dev/internal/protocol"
	"thestreet.dev/internal/sim/world"
	"thestreet.dev/internal/tuning"
)

type Server struct {
	cfg   tuning.Config
	log   *log.Logger
	world *world.World

	upgrader websocket.Upgrader
}

func NewServer(cfg tuning.Config, logger *log.Logger, w *world.World) *Server {
	return &Server{
		cfg:   cfg,
		log:   logger,
		world: w,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  protocol.MaxMessageBytes,
			WriteBufferSize: protocol.MaxMessageBytes,
			// The relay fronts anonymized transports; origin checks are
			// meaningless here.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

func (s *Server) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(rw, r, nil)
	if err != nil {
		s.log.Printf("upgrade %s: %v", r.RemoteAddr, err)
		return
	}
	sess := newSession(s, conn)
	go sess.run()
}
