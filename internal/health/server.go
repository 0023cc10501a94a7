package health

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Server is the trivial liveness endpoint hosting platforms probe to
// confirm the process is up. It carries no application logic.
type Server struct {
	httpServer *http.Server
	log        zerolog.Logger
}

func NewServer(port int, log zerolog.Logger) *Server {
	mux := http.NewServeMux()
	handler := func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}
	mux.HandleFunc("/", handler)
	mux.HandleFunc("/healthz", handler)

	return &Server{
		httpServer: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		log: log,
	}
}

// Start serves in the background until Stop is called.
func (s *Server) Start() {
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.Error().Err(err).Msg("health server stopped")
		}
	}()
	s.log.Info().Str("addr", s.httpServer.Addr).Msg("health server listening")
}

func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
