package devserver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/handlers"

	"github.com/randalmurphal/reviewdesk/auth"
	"github.com/randalmurphal/reviewdesk/content"
	"github.com/randalmurphal/reviewdesk/session"
)

// DefaultIssuer is stamped on tokens minted by the dev backend.
const DefaultIssuer = "reviewdesk-devserver"

// IngestKeyHeader carries the generation pipeline's ingest key.
const IngestKeyHeader = "X-Ingest-Key"

// Config configures a Server.
type Config struct {
	// Secret signs bearer and evidence tokens (at least 32 bytes).
	Secret []byte
	Issuer string

	AccessTokenTTL   time.Duration
	EvidenceTokenTTL time.Duration

	// Store defaults to an empty store.
	Store *Store

	// Evaluator defaults to ManualEvaluator.
	Evaluator Evaluator

	Logger *slog.Logger

	// RequestLog receives Apache combined log lines. Nil disables them.
	RequestLog io.Writer

	// PruneInterval is how often ListenAndServe drops expired evidence
	// images. Defaults to the evidence token lifetime.
	PruneInterval time.Duration

	Now func() time.Time
}

// Server is an in-memory implementation of the review backend API.
type Server struct {
	store      *Store
	jwt        auth.JWTConfig
	eval       Evaluator
	logger     *slog.Logger
	requestLog io.Writer
	pruneEvery time.Duration
	handler    http.Handler
}

// New creates a server.
func New(cfg Config) (*Server, error) {
	if len(cfg.Secret) < 32 {
		return nil, fmt.Errorf("devserver: %w", auth.ErrSecretTooShort)
	}
	if cfg.Issuer == "" {
		cfg.Issuer = DefaultIssuer
	}
	if cfg.Store == nil {
		cfg.Store = NewStore(cfg.Now)
	}
	if cfg.Evaluator == nil {
		cfg.Evaluator = ManualEvaluator{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	s := &Server{
		store: cfg.Store,
		jwt: auth.JWTConfig{
			Secret:           cfg.Secret,
			Issuer:           cfg.Issuer,
			AccessTokenTTL:   cfg.AccessTokenTTL,
			EvidenceTokenTTL: cfg.EvidenceTokenTTL,
			Now:              cfg.Now,
		},
		eval:       cfg.Evaluator,
		logger:     cfg.Logger,
		requestLog: cfg.RequestLog,
		pruneEvery: cfg.PruneInterval,
	}
	if s.pruneEvery <= 0 {
		s.pruneEvery = s.jwt.EvidenceTTL()
	}
	s.handler = s.routes()
	return s, nil
}

// Store returns the backing store.
func (s *Server) Store() *Store {
	return s.store
}

// Handler returns the HTTP handler serving the API.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// IssueToken mints a bearer token for u without a password grant.
func (s *Server) IssueToken(u User) (string, error) {
	return auth.IssueAccessToken(s.jwt, u.ID)
}

// IssueIngestKey mints an ingest key that creates items on behalf of a
// creator account. The secret is only returned here.
func (s *Server) IssueIngestKey(creator User) (string, error) {
	if creator.Role != session.RoleCreator {
		return "", fmt.Errorf("issue ingest key: %s is %s, not a creator", creator.Email, creator.Role)
	}
	key, err := auth.GenerateIngestKey()
	if err != nil {
		return "", err
	}
	s.store.AddIngestKey(key.Hash, creator.ID)
	s.logger.Info("ingest key issued", "key_id", key.ID, "key", key.Display, "owner", creator.Email)
	return key.Secret, nil
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Post("/auth/token", s.handleToken)
	r.Get("/evidence/{token}", s.handleEvidence)
	r.Post("/content", s.handleIngest)

	r.Group(func(r chi.Router) {
		r.Use(s.requireUser)
		r.Get("/me", s.handleMe)
		r.Get("/inbox", s.handleInbox)
		r.Post("/content/{id}/approve", s.handleTransition(content.StatusApproved))
		r.Post("/content/{id}/reject", s.handleTransition(content.StatusRejected))
		r.Post("/content/{id}/audit-image", s.handleAuditItem)
		r.Post("/brands/{brandID}/audit-image", s.handleAuditBrand)
	})

	var h http.Handler = r
	if s.requestLog != nil {
		h = handlers.CombinedLoggingHandler(s.requestLog, h)
	}
	return handlers.RecoveryHandler(
		handlers.RecoveryLogger(recoveryLogger{s.logger}),
		handlers.PrintRecoveryStack(false),
	)(h)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully. Expired evidence images are pruned while it runs.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	rctx, stop := context.WithCancel(ctx)
	defer stop()
	go s.runRetention(rctx, s.pruneEvery)

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("devserver listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("devserver shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// recoveryLogger adapts slog to the handlers.RecoveryHandlerLogger interface.
type recoveryLogger struct {
	logger *slog.Logger
}

func (l recoveryLogger) Println(v ...any) {
	l.logger.Error("panic serving request", "error", fmt.Sprint(v...))
}
