package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Handler returns the API router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.healthz)

	r.Route("/editors", func(r chi.Router) {
		r.Post("/", s.createEditor)
		r.Route("/{editor}", func(r chi.Router) {
			r.Get("/", s.getEditor)
			r.Delete("/", s.deleteEditor)
			r.Put("/tnorm", s.setTNorm)
			r.Post("/compute", s.compute)
			r.Post("/isomorphism", s.isomorphism)

			r.Route("/{slot}", func(r chi.Router) {
				r.Delete("/", s.clearGraph)
				r.Get("/graph", s.getGraph)
				r.Put("/graph", s.loadGraph)
				r.Post("/twinwidth", s.twinWidth)
				r.Post("/nodes", s.addNode)
				r.Delete("/nodes/{node}", s.removeNode)
				r.Put("/nodes/{node}/position", s.moveNode)
				r.Post("/selection/{node}", s.toggleSelection)
				r.Post("/edges", s.addEdge)
				r.Delete("/edges/{edge}", s.removeEdge)
			})
		})
	})
	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
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
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	s.logger.Debug("health check", "remote_addr", r.RemoteAddr)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}
