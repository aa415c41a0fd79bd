package progress

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	httperrors "github.com/wordrun/wordrun-platform/pkg/http/errors"
)

// HTTPHandler serves the record top-list.
type HTTPHandler struct {
	service *Service
	logger  zerolog.Logger
}

// NewHTTPHandler builds the records HTTP handler.
func NewHTTPHandler(service *Service, logger zerolog.Logger) *HTTPHandler {
	return &HTTPHandler{
		service: service,
		logger:  logger.With().Str("component", "records_http").Logger(),
	}
}

// HandleGet handles GET /v1/records?limit=N
func (h *HTTPHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	entries, err := h.service.TopRecords(r.Context(), limit)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to fetch records")
		httperrors.RespondError(w, http.StatusInternalServerError, httperrors.ErrCodeRecordsFetchFailed, "Could not fetch records")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"records": entries,
	})
}
