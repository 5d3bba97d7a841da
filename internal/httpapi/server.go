// Package httpapi exposes the cart, category tree, store selection and
// checkout as a small local JSON API.
package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"storefront/internal/app"
)

// Server routes API requests to the app components.
type Server struct {
	app *app.App
	log *zap.Logger
}

// NewHandler returns the API handler for a.
func NewHandler(a *app.App) http.Handler {
	s := &Server{app: a, log: a.Log.Named("httpapi")}
	return s.routes()
}

func (s *Server) routes() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }).Methods(http.MethodGet)
	r.Handle("/metrics", s.app.Metrics.Handler()).Methods(http.MethodGet)

	v1 := r.PathPrefix("/api/v1").Subrouter()
	v1.HandleFunc("/cart", s.getCart).Methods(http.MethodGet)
	v1.HandleFunc("/cart", s.clearCart).Methods(http.MethodDelete)
	v1.HandleFunc("/cart/items", s.addItem).Methods(http.MethodPost)
	v1.HandleFunc("/cart/items/{id:[0-9]+}", s.updateItem).Methods(http.MethodPut)
	v1.HandleFunc("/cart/items/{id:[0-9]+}", s.removeItem).Methods(http.MethodDelete)
	v1.HandleFunc("/cart/open", s.setOpen).Methods(http.MethodPut)

	v1.HandleFunc("/categories", s.getCategories).Methods(http.MethodGet)
	v1.HandleFunc("/categories/{key}/toggle", s.toggleCategory).Methods(http.MethodPost)

	v1.HandleFunc("/store", s.getStore).Methods(http.MethodGet)
	v1.HandleFunc("/store", s.putStore).Methods(http.MethodPut)
	v1.HandleFunc("/store", s.deleteStore).Methods(http.MethodDelete)

	v1.HandleFunc("/checkout/quote", s.getQuote).Methods(http.MethodGet)
	v1.HandleFunc("/checkout/orders", s.placeOrder).Methods(http.MethodPost)

	notFound := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "no such route")
	})
	notAllowed := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
	})
	// Subrouters resolve their own misses; the root handlers never see them.
	for _, rt := range []*mux.Router{r, v1} {
		rt.NotFoundHandler = notFound
		rt.MethodNotAllowedHandler = notAllowed
	}
	r.Use(s.logMiddleware)
	return r
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (s *Server) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		route := r.URL.Path
		if cur := mux.CurrentRoute(r); cur != nil {
			if tmpl, err := cur.GetPathTemplate(); err == nil {
				route = tmpl
			}
		}
		dur := time.Since(start)
		s.app.Metrics.Observe(r.Context(), "http "+r.Method+" "+route, sw.status < 500, dur)
		s.log.Debug("request",
			zap.String("method", r.Method),
			zap.String("route", route),
			zap.Int("status", sw.status),
			zap.Duration("duration", dur),
			zap.String("remote", r.RemoteAddr))
	})
}

// Serve runs the API on addr until ctx ends, then shuts down gracefully
// within the configured timeout. ready, when non-nil, receives the bound
// address once the listener is up.
func Serve(ctx context.Context, a *app.App, addr string, ready func(net.Addr)) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	server := &http.Server{
		Handler:           NewHandler(a),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	log := a.Log.Named("httpapi")
	if ready != nil {
		ready(ln.Addr())
	}

	errCh := make(chan error, 1)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info("http server starting", zap.String("addr", ln.Addr().String()))
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		log.Info("shutdown requested")
	case serveErr = <-errCh:
		log.Error("http server error", zap.Error(serveErr))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.ShutdownTimeout())
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown error", zap.Error(err))
		if serveErr == nil {
			serveErr = err
		}
	}
	wg.Wait()
	return serveErr
}
