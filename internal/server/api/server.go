// Package api exposes the sync server over HTTP+JSON under /api/v1.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/focussync/internal/logging"
	"github.com/dmitrijs2005/focussync/internal/server/models"
	"github.com/dmitrijs2005/focussync/internal/server/services"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
)

const (
	apiPrefix       = "/api/v1"
	maxRequestBytes = 8 << 20
)

type UserService interface {
	Register(ctx context.Context, email string, password []byte) (*models.User, error)
	Login(ctx context.Context, email string, password []byte) (*services.Session, error)
	RefreshToken(ctx context.Context, refreshToken string) (*services.Session, error)
	UserIDFromAccessToken(token string) (string, error)
}

type RecordService interface {
	Push(ctx context.Context, userID, collection string, rows []map[string]any) (services.PushResult, error)
	Pull(ctx context.Context, userID, collection string, since *time.Time) ([]json.RawMessage, error)
}

type BackupService interface {
	PresignPut(ctx context.Context, userID string) (string, error)
	PresignGet(ctx context.Context, userID string) (string, error)
}

type HTTPServer struct {
	address         string
	users           UserService
	records         RecordService
	backups         BackupService
	logger          logging.Logger
	validate        *validator.Validate
	shutdownTimeout time.Duration
}

func NewHTTPServer(addr string, l logging.Logger, us UserService, rs RecordService, bs BackupService, shutdownTimeout time.Duration) *HTTPServer {
	return &HTTPServer{
		address:         addr,
		users:           us,
		records:         rs,
		backups:         bs,
		logger:          l.With("module", "http_server"),
		validate:        validator.New(validator.WithRequiredStructEnabled()),
		shutdownTimeout: shutdownTimeout,
	}
}

// Routes builds the router. Everything except ping and the auth endpoints
// requires a bearer access token.
func (s *HTTPServer) Routes() http.Handler {
	r := mux.NewRouter()
	r.Use(s.recoverMiddleware, s.loggingMiddleware)
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	api := r.PathPrefix(apiPrefix).Subrouter()
	api.HandleFunc("/ping", s.Ping).Methods(http.MethodGet)
	api.HandleFunc("/auth/register", s.Register).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", s.Login).Methods(http.MethodPost)
	api.HandleFunc("/auth/refresh", s.Refresh).Methods(http.MethodPost)

	protected := api.PathPrefix("").Subrouter()
	protected.Use(s.accessTokenMiddleware)
	protected.HandleFunc("/records/{collection}", s.PushRecords).Methods(http.MethodPost)
	protected.HandleFunc("/records/{collection}", s.PullRecords).Methods(http.MethodGet)
	protected.HandleFunc("/backups/presign-put", s.PresignBackupPut).Methods(http.MethodPost)
	protected.HandleFunc("/backups/presign-get", s.PresignBackupGet).Methods(http.MethodGet)

	return r
}

// Run serves until ctx is cancelled, then drains in-flight requests for up
// to the shutdown timeout.
func (s *HTTPServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

func (s *HTTPServer) Serve(ctx context.Context, listen net.Listener) error {
	srv := &http.Server{
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())
		errCh <- srv.Serve(listen)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info(ctx, "Stopping HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
