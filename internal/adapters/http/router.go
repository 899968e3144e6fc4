package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/cors"
	"github.com/sardarit-bd/real-estate-punta-backend/internal/application"
	"github.com/sardarit-bd/real-estate-punta-backend/internal/ports"
)

type Handler struct {
	service  *application.Service
	verifier ports.TokenVerifier
}

func NewHandler(service *application.Service, verifier ports.TokenVerifier) *Handler {
	return &Handler{service: service, verifier: verifier}
}

type RouterOptions struct {
	AllowedOrigins []string
	// Ready reports whether backing stores are reachable; nil means always ready.
	Ready func(ctx context.Context) error
}

func NewRouter(handler *Handler, opts RouterOptions) http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(recoverMiddleware)
	r.Use(loggingMiddleware)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { writeMessage(w, http.StatusOK, "ok") })
	r.Get("/readyz", func(w http.ResponseWriter, req *http.Request) {
		if opts.Ready != nil {
			if err := opts.Ready(req.Context()); err != nil {
				logHTTPOperationError(req.Context(), "readiness", http.StatusServiceUnavailable, "NOT_READY", "dependencies unavailable", err)
				writeError(w, http.StatusServiceUnavailable, "NOT_READY", "dependencies unavailable")
				return
			}
		}
		writeMessage(w, http.StatusOK, "ready")
	})

	r.Route("/v1", func(r chi.Router) {
		r.Route("/leases", func(r chi.Router) {
			r.Use(handler.authMiddleware)
			r.Post("/", handler.createLease)
			r.Get("/my-leases", handler.listMyLeases)
			r.Get("/stats", handler.leaseStats)
			r.Get("/{leaseID}", handler.getLease)
			r.Delete("/{leaseID}", handler.deleteLease)
			r.Post("/{leaseID}/send", handler.sendLease)
			r.Post("/{leaseID}/request-changes", handler.requestChanges)
			r.Put("/{leaseID}/update", handler.updateLease)
			r.Post("/{leaseID}/sign", handler.signLease)
			r.Post("/{leaseID}/cancel", handler.cancelLease)
			r.Post("/{leaseID}/restore", handler.restoreLease)
			r.Post("/{leaseID}/messages", handler.postMessage)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(handler.authMiddleware)
			r.Delete("/leases/{leaseID}", handler.purgeLease)
		})
	})

	if len(opts.AllowedOrigins) == 0 {
		return r
	}
	co := cors.New(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: true,
	})
	return co.Handler(r)
}
