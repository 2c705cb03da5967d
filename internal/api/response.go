package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/yanizio/maillog/internal/logstore"
	"github.com/yanizio/maillog/internal/tester"
	"github.com/yanizio/maillog/internal/validation"
)

// errorBody is the shape of every failed response.
type errorBody struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// respondJSON writes data with the given status code.
func (h *Handler) respondJSON(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.Log.Warnw("encode response failed", "err", err)
	}
}

// respondError writes {success:false, message} with code.
func (h *Handler) respondError(w http.ResponseWriter, code int, message string) {
	h.respondJSON(w, code, errorBody{Message: message})
}

// respondErr maps err onto a status code and a client-safe message.
// Storage faults are logged here and never echoed.
func (h *Handler) respondErr(w http.ResponseWriter, r *http.Request, err error) {
	var ve *validation.Error
	switch {
	case errors.As(err, &ve):
		h.respondError(w, http.StatusBadRequest, ve.Reason)
	case errors.Is(err, logstore.ErrNotFound):
		h.respondError(w, http.StatusNotFound, "Log not found")
	case errors.Is(err, tester.ErrSendFailed):
		h.respondError(w, http.StatusBadGateway, "Mail transport failed")
	default:
		h.Log.Errorw("api request failed", "path", r.URL.Path, "err", err)
		h.respondError(w, http.StatusInternalServerError, "Internal server error")
	}
}
