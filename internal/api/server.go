// Package api exposes the HTTP trigger surface: starting scoring runs,
// issuing one-time upload slots for case documents, and querying run state.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/converter"
	"golang.org/x/sync/errgroup"

	"github.com/danielyudicarvalho/case-scoring/internal/blobstore"
	"github.com/danielyudicarvalho/case-scoring/internal/configuration"
)

// TemporalClient is the slice of the Temporal client the server needs.
type TemporalClient interface {
	ExecuteWorkflow(ctx context.Context, options client.StartWorkflowOptions, workflow any, args ...any) (client.WorkflowRun, error)
	QueryWorkflow(ctx context.Context, workflowID, runID, queryType string, args ...any) (converter.EncodedValue, error)
}

// uploadGrant is a pending one-time upload slot.
type uploadGrant struct {
	key       string
	expiresAt time.Time
}

// Server is the trigger HTTP server.
type Server struct {
	logger   *slog.Logger
	temporal TemporalClient
	docs     blobstore.Store
	cfg      *configuration.Config

	mu     sync.Mutex
	grants map[string]uploadGrant

	now func() time.Time
}

// NewServer builds the trigger server over an established Temporal client
// and the shared document store.
func NewServer(cfg *configuration.Config, temporal TemporalClient, docs blobstore.Store, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		logger:   logger,
		temporal: temporal,
		docs:     docs,
		cfg:      cfg,
		grants:   make(map[string]uploadGrant),
		now:      time.Now,
	}
}

// Handler returns the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /cases", s.handleStartCase)
	mux.HandleFunc("POST /uploads", s.handleCreateUpload)
	mux.HandleFunc("PUT /uploads/{token}", s.handlePutUpload)
	mux.HandleFunc("GET /runs/{id}", s.handleGetRun)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	return mux
}

// Run serves until the context is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("trigger server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout.Std())
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// writeJSON writes a JSON response body with the given status.
func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError writes the uniform error shape.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// issueGrant records a one-time upload slot and returns its token. Grants
// whose deadline passed without redemption are swept here so the table only
// ever grows by live entries.
func (s *Server) issueGrant(key string) (string, time.Time) {
	token := uuid.New().String()
	now := s.now()
	expires := now.Add(s.cfg.Server.UploadTokenTTL.Std())

	s.mu.Lock()
	for t, grant := range s.grants {
		if now.After(grant.expiresAt) {
			delete(s.grants, t)
		}
	}
	s.grants[token] = uploadGrant{key: key, expiresAt: expires}
	s.mu.Unlock()
	return token, expires
}

// consumeGrant redeems a token, removing it whether or not it is still
// valid. Returns the granted object key.
func (s *Server) consumeGrant(token string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	grant, ok := s.grants[token]
	if !ok {
		return "", false
	}
	delete(s.grants, token)
	if s.now().After(grant.expiresAt) {
		return "", false
	}
	return grant.key, true
}
