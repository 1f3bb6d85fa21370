// Package server provides the HTTP API for talentsearch.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/hireloop/talentsearch/internal/analytics"
	"github.com/hireloop/talentsearch/internal/config"
	"github.com/hireloop/talentsearch/internal/indexer"
	"github.com/hireloop/talentsearch/internal/search"
	"github.com/hireloop/talentsearch/internal/storage"
	"github.com/hireloop/talentsearch/internal/vector"
)

// userIDHeader carries the authenticated user. Upstream auth terminates at
// the gateway; this service only scopes data by the header value.
const userIDHeader = "X-User-ID"

type contextKey string

const userIDKey contextKey = "user_id"

// Server is the HTTP server for the talentsearch API.
type Server struct {
	orchestrator *search.Orchestrator
	indexer      *indexer.Indexer
	store        storage.Store
	index        vector.Index
	emitter      *analytics.Emitter
	config       *config.Config
	logger       *zap.Logger
	server       *http.Server
}

// NewServer creates a server with the given dependencies. emitter may be nil.
func NewServer(
	orchestrator *search.Orchestrator,
	idx *indexer.Indexer,
	store storage.Store,
	vecIndex vector.Index,
	emitter *analytics.Emitter,
	cfg *config.Config,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		orchestrator: orchestrator,
		indexer:      idx,
		store:        store,
		index:        vecIndex,
		emitter:      emitter,
		config:       cfg,
		logger:       logger,
	}
}

// Router builds the chi router with all routes and middleware.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.requireUser)

		r.Post("/search", s.handleSearch)
		r.Get("/search/stream", s.handleSearchStream)
		r.Post("/search/stream", s.handleSearchStream)

		r.Post("/resumes", s.handleCreateResume)
		r.Get("/resumes", s.handleListResumes)
		r.Get("/resumes/{id}", s.handleGetResume)
		r.Put("/resumes/{id}", s.handleUpdateResume)
		r.Delete("/resumes/{id}", s.handleDeleteResume)

		r.Post("/reindex", s.handleReindex)
		r.Get("/status", s.handleStatus)
	})
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Router(),
		// No WriteTimeout: streaming searches hold the response open.
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// requireUser rejects requests without a user header and stores the user id
// in the request context.
func (s *Server) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := r.Header.Get(userIDHeader)
		if user == "" {
			s.respondError(w, http.StatusUnauthorized, "missing "+userIDHeader+" header")
			return
		}
		ctx := context.WithValue(r.Context(), userIDKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func userID(r *http.Request) string {
	user, _ := r.Context().Value(userIDKey).(string)
	return user
}
