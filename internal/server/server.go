// Package server exposes the graph engine over HTTP.
//
// The engine itself is single-writer; the server is the serialization point
// for concurrent clients. One mutex guards the live graph, so structural
// mutations from parallel requests apply in a total order and every response
// reflects a fully validated state.
package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/foldview/foldview/pkg/graph"
	"github.com/foldview/foldview/pkg/store"
)

// Options configures a Server.
type Options struct {
	// Logger receives request and lifecycle logs. Nil discards them.
	Logger *log.Logger

	// Store enables the document persistence endpoints. Nil disables them.
	Store store.Store

	// Budget is the default smart-collapse budget for requests that do not
	// carry their own.
	Budget float64

	// Model is the smart-collapse cost model. The zero value means defaults.
	Model graph.CostModel

	// FootprintWarnLimit overrides the collapsed-footprint warning threshold.
	// Zero keeps the engine default; negative disables the warning.
	FootprintWarnLimit float64
}

// Server hosts one live graph behind an HTTP API.
type Server struct {
	logger    *log.Logger
	store     store.Store
	budget    float64
	model     graph.CostModel
	warnLimit float64

	mu sync.Mutex
	g  *graph.Graph

	router chi.Router
}

// New creates a server with an empty graph.
func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if opts.Budget <= 0 {
		opts.Budget = 30000
	}
	if (opts.Model == graph.CostModel{}) {
		opts.Model = graph.DefaultCostModel()
	}
	s := &Server{
		logger:    opts.Logger,
		store:     opts.Store,
		budget:    opts.Budget,
		model:     opts.Model,
		warnLimit: opts.FootprintWarnLimit,
		g:         graph.New(),
	}
	s.applyWarnLimit(s.g)
	s.router = s.routes()
	return s
}

// applyWarnLimit configures the footprint warning threshold on a graph about
// to become the live one.
func (s *Server) applyWarnLimit(g *graph.Graph) {
	switch {
	case s.warnLimit < 0:
		g.SetFootprintWarnLimit(0)
	case s.warnLimit > 0:
		g.SetFootprintWarnLimit(s.warnLimit)
	}
}

// Handler returns the server's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/view", s.handleView)
		r.Get("/document", s.handleExportDocument)
		r.Post("/document", s.handleLoadDocument)

		r.Route("/containers/{id}", func(r chi.Router) {
			r.Post("/collapse", s.handleCollapse)
			r.Post("/expand", s.handleExpand)
			r.Post("/expand-for-search", s.handleExpandForSearch)
		})
		r.Post("/collapse-all", s.handleCollapseAll)
		r.Post("/expand-all", s.handleExpandAll)
		r.Get("/search-expansions", s.handleSearchExpansions)
		r.Delete("/search-expansions", s.handleClearSearchExpansions)

		r.Post("/smart-collapse", s.handleSmartCollapse)
		r.Post("/smart-collapse/rearm", s.handleReArmSmartCollapse)

		r.Get("/layout", s.handleLayoutState)
		r.Post("/layout/begin", s.handleLayoutBegin)
		r.Post("/layout/complete", s.handleLayoutComplete)
		r.Post("/layout/fail", s.handleLayoutFail)

		r.Get("/history", s.handleHistory)

		if s.store != nil {
			r.Route("/documents", func(r chi.Router) {
				r.Get("/", s.handleListDocuments)
				r.Get("/{name}", s.handleGetDocument)
				r.Put("/{name}", s.handleSaveDocument)
				r.Delete("/{name}", s.handleDeleteDocument)
				r.Post("/{name}/open", s.handleOpenDocument)
			})
		}
	})

	return r
}

// logRequests logs one line per request with method, path, status and timing.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

// ListenAndServe runs the server until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info("server shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}
