package api

import "net/http"

func RegisterRoutes(mux *http.ServeMux, h *Handler) http.Handler {
	// KV APIs
	mux.HandleFunc("PUT /kv/{key}", h.SetKey)
	mux.HandleFunc("GET /kv/{key}", h.GetKey)
	mux.HandleFunc("DELETE /kv/{key}", h.DeleteKey)
	mux.HandleFunc("GET /kv/{key}/ttl", h.GetTTL)
	mux.HandleFunc("PUT /kv/{key}/ttl", h.SetTTL)

	// Admin APIs
	mux.HandleFunc("GET /admin/keys", h.ListKeys)
	mux.HandleFunc("GET /admin/stats", h.GetStats)
	mux.HandleFunc("POST /admin/sweep", h.Sweep)

	// Observability APIs
	mux.HandleFunc("GET /metrics", h.GetMetrics)
	mux.Handle("GET /metrics/prometheus", h.metrics.Handler())
	mux.HandleFunc("GET /health", h.GetHealth)

	return Chain(
		mux,
		RecoveryMiddleware(h.logger, h.metrics),
		LoggingMiddleware(h.logger, h.metrics),
	)
}
