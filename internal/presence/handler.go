package presence

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	apperrors "github.com/LianruiSun/JobboCat/internal/common/errors"
	"github.com/LianruiSun/JobboCat/internal/common/logger"
	"github.com/LianruiSun/JobboCat/internal/common/metrics"
	"github.com/LianruiSun/JobboCat/internal/common/observability"
	"github.com/LianruiSun/JobboCat/internal/common/validation"
)

// HeartbeatRequest is the POST /heartbeat body.
type HeartbeatRequest struct {
	SessionID string `json:"sessionId"`
}

// HeartbeatResponse is the successful heartbeat reply.
type HeartbeatResponse struct {
	Online int64 `json:"online"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Handler serves the heartbeat endpoint.
type Handler struct {
	service *Service
	obs     *observability.Observability
	logger  logger.Logger
}

func NewHandler(service *Service, obs *observability.Observability, log logger.Logger) *Handler {
	return &Handler{
		service: service,
		obs:     obs,
		logger:  log.WithFields(map[string]interface{}{"handler": "heartbeat"}),
	}
}

// ServeHTTP handles POST /heartbeat and the OPTIONS preflight. CORS is open
// to any origin; the endpoint is called from browser sessions directly.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	writeCORSHeaders(w)

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	if r.Method != http.MethodPost {
		h.writeError(w, r, apperrors.NewMethodNotAllowedError(r.Method))
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.writeError(w, r, apperrors.NewInvalidRequestError("unreadable request body"))
		return
	}

	if err := validation.ValidateHeartbeatRequest(body); err != nil {
		h.writeError(w, r, apperrors.NewInvalidRequestError("sessionId is required"))
		return
	}

	var req HeartbeatRequest
	if err := json.Unmarshal(body, &req); err != nil {
		h.writeError(w, r, apperrors.NewInvalidRequestError("malformed JSON body"))
		return
	}

	count, err := h.service.Heartbeat(r.Context(), req.SessionID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	metrics.HeartbeatsTotal.WithLabelValues("ok").Inc()
	h.obs.RecordRequest(r.Context(), "/heartbeat", "ok")
	h.obs.RecordRequestDuration(r.Context(), "/heartbeat", time.Since(start))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(HeartbeatResponse{Online: count})
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	message := "Internal server error"

	if stdErr, ok := err.(*apperrors.StandardError); ok {
		status = apperrors.HTTPStatus(stdErr.Code)
		message = stdErr.Message
		if stdErr.Code == apperrors.ErrCodeInvalidRequest {
			message = stdErr.Details
		}
	}

	metrics.HeartbeatsTotal.WithLabelValues("error").Inc()
	h.obs.RecordRequest(r.Context(), "/heartbeat", "error")
	h.logger.Warn("heartbeat request failed", map[string]interface{}{
		"status": status,
		"error":  err.Error(),
	})

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse{Error: message})
}

func writeCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
}
