package progress

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/getsentry/sentry-go"

	"throwerx-backend/internal/account"
	"throwerx-backend/internal/storage"
)

const maxJSONBodyBytes = 1 << 20

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Save persists the four progress fields for the authenticated account.
// Unknown payload fields are ignored; the decode target only carries the
// fields the record keeps.
func (h *Handler) Save(w http.ResponseWriter, r *http.Request) {
	username, ok := account.UsernameFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "missing authorization token")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)

	var payload storage.Progress
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid json body")
		return
	}

	if err := h.service.Save(r.Context(), username, payload); err != nil {
		if errors.Is(err, account.ErrInvalidToken) {
			writeMessage(w, http.StatusUnauthorized, "invalid token")
			return
		}
		sentry.CaptureException(err)
		writeMessage(w, http.StatusInternalServerError, "failed to save progress")
		return
	}

	writeMessage(w, http.StatusOK, "progress saved successfully")
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}
