package stats

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/LianruiSun/JobboCat/internal/common/logger"
)

// Handler serves the read-only stats endpoints.
type Handler struct {
	service *Service
	logger  logger.Logger
}

func NewHandler(service *Service, log logger.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  log.WithFields(map[string]interface{}{"handler": "stats"}),
	}
}

// Focusing handles GET /focusing.
func (h *Handler) Focusing(w http.ResponseWriter, r *http.Request) {
	h.serveCount(w, r, "focusing", h.service.CurrentlyFocusing)
}

// TotalUsers handles GET /stats/users.
func (h *Handler) TotalUsers(w http.ResponseWriter, r *http.Request) {
	h.serveCount(w, r, "totalUsers", h.service.TotalUsers)
}

func (h *Handler) serveCount(w http.ResponseWriter, r *http.Request, field string, query func(context.Context) (int64, error)) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	if r.Method != http.MethodGet {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusMethodNotAllowed)
		json.NewEncoder(w).Encode(map[string]string{"error": "Method Not Allowed"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), QueryTimeout)
	defer cancel()

	count, err := query(ctx)
	if err != nil {
		h.logger.Error("stats query failed", map[string]interface{}{
			"field": field,
			"error": err.Error(),
		})
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": "Internal server error"})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]int64{field: count})
}
