package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"timed-cache/internal/health"
	"timed-cache/internal/logs"
	"timed-cache/internal/metrics"
	"timed-cache/internal/store"
	"timed-cache/internal/timedmap"
)

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	store      *store.Store
	metrics    *metrics.Registry
	logger     *logs.Logger
	analyzer   *health.Analyzer
	defaultTTL time.Duration
}

// NewHandler creates a new API handler. defaultTTL applies to writes that
// do not carry ttl_seconds.
func NewHandler(
	store *store.Store,
	metrics *metrics.Registry,
	logger *logs.Logger,
	defaultTTL time.Duration,
) *Handler {
	return &Handler{
		store:      store,
		metrics:    metrics,
		logger:     logger,
		analyzer:   health.NewAnalyzer(metrics, logger, store),
		defaultTTL: defaultTTL,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

/* ---------------- PUT /kv/{key} ---------------- */

type setRequest struct {
	Value string `json:"value"`
	// TTLSeconds == nil uses the server default, 0 stores a constant key.
	TTLSeconds *int64 `json:"ttl_seconds,omitempty"`
}

func (h *Handler) SetKey(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	if key == "" {
		http.Error(w, "missing key in URL", http.StatusBadRequest)
		return
	}

	var req setRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}

	ttl := h.defaultTTL
	if req.TTLSeconds != nil {
		if *req.TTLSeconds < 0 {
			http.Error(w, "ttl_seconds must not be negative", http.StatusBadRequest)
			return
		}
		ttl = secondsToDuration(*req.TTLSeconds)
	}

	h.store.Set(key, req.Value, ttl)
	w.WriteHeader(http.StatusNoContent)
}

/* ---------------- GET /kv/{key} ---------------- */

func (h *Handler) GetKey(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	if key == "" {
		http.Error(w, "missing key", http.StatusBadRequest)
		return
	}

	value, ok := h.store.Get(key)
	if !ok {
		http.Error(w, "key not found", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"value": value,
	})
}

/* ---------------- DELETE /kv/{key} ---------------- */

func (h *Handler) DeleteKey(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	if key == "" {
		http.Error(w, "missing key", http.StatusBadRequest)
		return
	}

	h.store.Delete(key)
	w.WriteHeader(http.StatusNoContent)
}

/* ---------------- GET /kv/{key}/ttl ---------------- */

type ttlResponse struct {
	Key              string `json:"key"`
	Constant         bool   `json:"constant"`
	RemainingSeconds int64  `json:"remaining_seconds,omitempty"`
}

func (h *Handler) GetTTL(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")

	remaining, expirable, found := h.store.TTL(key)
	if !found {
		http.Error(w, "key not found", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, ttlResponse{
		Key:              key,
		Constant:         !expirable,
		RemainingSeconds: int64(remaining / time.Second),
	})
}

/* ---------------- PUT /kv/{key}/ttl ---------------- */

type expireRequest struct {
	TTLSeconds int64 `json:"ttl_seconds"`
}

func (h *Handler) SetTTL(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")

	var req expireRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	if req.TTLSeconds < 0 {
		http.Error(w, "ttl_seconds must not be negative", http.StatusBadRequest)
		return
	}

	err := h.store.Expire(key, secondsToDuration(req.TTLSeconds))
	switch {
	case errors.Is(err, timedmap.ErrEntryNotFound):
		http.Error(w, "key not found", http.StatusNotFound)
	case err != nil:
		h.logger.Error("expire failed", zap.String("key", key), zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

/* ---------------- GET /admin/keys ---------------- */

func (h *Handler) ListKeys(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.List())
}

/* ---------------- GET /admin/stats ---------------- */

type statsResponse struct {
	timedmap.Stats
	Pending []timedmap.BucketInfo `json:"pending"`
}

func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, statsResponse{
		Stats:   h.store.Stats(),
		Pending: h.store.Buckets(),
	})
}

/* ---------------- POST /admin/sweep ---------------- */

func (h *Handler) Sweep(w http.ResponseWriter, r *http.Request) {
	removed := h.store.RemoveExpired()
	h.logger.Info("manual sweep", zap.Int("removed", removed))

	writeJSON(w, http.StatusOK, map[string]int{
		"removed": removed,
	})
}

/* ---------------- GET /metrics ---------------- */

func (h *Handler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.metrics.Snapshot())
}

/* ---------------- GET /health ---------------- */

func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.analyzer.Analyze())
}

// secondsToDuration saturates instead of overflowing on huge inputs.
func secondsToDuration(s int64) time.Duration {
	const maxSeconds = int64(1<<63-1) / int64(time.Second)
	if s > maxSeconds {
		s = maxSeconds
	}
	return time.Duration(s) * time.Second
}
