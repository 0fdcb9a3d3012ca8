// Package httpapi exposes the question-answering service over HTTP.
// The transport is thin: decode, delegate to the resolver and composer,
// encode the domain outcome. No external failure escapes as a raw fault.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/sandevgo/membot/internal/service/answer"
	"github.com/sandevgo/membot/internal/service/sync"
	"github.com/sandevgo/membot/pkg/log"
)

type Server struct {
	resolver *answer.Resolver
	composer *answer.Composer
	dir      *sync.Directory
	backend  string
	port     int
	server   *http.Server
}

func NewServer(resolver *answer.Resolver, composer *answer.Composer, dir *sync.Directory, backend string, port int) *Server {
	return &Server{
		resolver: resolver,
		composer: composer,
		dir:      dir,
		backend:  backend,
		port:     port,
	}
}

// Start serves until Shutdown or a listener error.
func (s *Server) Start(ctx context.Context) error {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))

	r.Post("/ask", s.withCtx(ctx, s.handleAsk))
	r.Get("/health", s.withCtx(ctx, s.handleHealth))
	r.Get("/status", s.withCtx(ctx, s.handleStatus))

	addr := fmt.Sprintf(":%d", s.port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: r,
	}

	log.FromCtx(ctx).Info().Str("addr", addr).Msg("starting http api")
	if err := s.server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return s.server.Shutdown(shutdownCtx)
}

// withCtx re-attaches the process logger context to each request, so
// handlers log through the same sink as the rest of the service.
func (s *Server) withCtx(ctx context.Context, h http.HandlerFunc) http.HandlerFunc {
	logger := log.FromCtx(ctx)
	return func(w http.ResponseWriter, r *http.Request) {
		h(w, r.WithContext(logger.WithContext(r.Context())))
	}
}
