// Package httpapi exposes the asset lifecycle and account operations over a
// REST endpoint. Uploads arrive as multipart forms; everything else speaks
// JSON. All asset routes require a Bearer access token.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/dmitrijs2005/filekeeper/internal/logging"
	"github.com/dmitrijs2005/filekeeper/internal/server/services"
	"github.com/gorilla/mux"
)

type HTTPServer struct {
	address   string
	assets    *services.AssetService
	users     *services.UserService
	logger    logging.Logger
	jwtSecret []byte
}

func NewHTTPServer(a string, l logging.Logger, us *services.UserService, as *services.AssetService, secretKey string) *HTTPServer {
	return &HTTPServer{
		address:   a,
		logger:    l.With("module", "http_server"),
		users:     us,
		assets:    as,
		jwtSecret: []byte(secretKey),
	}
}

// Router builds the route table. Split out from Run so tests can drive the
// handlers through httptest without binding a socket.
func (s *HTTPServer) Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/ping", s.Ping).Methods(http.MethodGet)

	r.HandleFunc("/auth/register", s.RegisterUser).Methods(http.MethodPost)
	r.HandleFunc("/auth/login", s.Login).Methods(http.MethodPost)
	r.HandleFunc("/auth/refresh", s.Refresh).Methods(http.MethodPost)

	protected := r.NewRoute().Subrouter()
	protected.Use(s.accessTokenMiddleware)
	protected.HandleFunc("/upload", s.Upload).Methods(http.MethodPost)
	protected.HandleFunc("/assets", s.ListAssets).Methods(http.MethodGet)
	protected.HandleFunc("/search", s.SearchAssets).Methods(http.MethodGet)
	protected.HandleFunc("/download", s.Download).Methods(http.MethodGet)
	protected.HandleFunc("/delete", s.Delete).Methods(http.MethodDelete)

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *HTTPServer) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.address,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
