package account

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/getsentry/sentry-go"
)

const maxJSONBodyBytes = 1 << 20

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Message    string     `json:"message"`
	Token      string     `json:"token"`
	PlayerData PlayerData `json:"player_data"`
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)

	var body credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid json body")
		return
	}

	if err := h.service.Register(r.Context(), body.Username, body.Password); err != nil {
		switch {
		case errors.Is(err, ErrMissingFields):
			writeMessage(w, http.StatusBadRequest, "username and password are required")
		case errors.Is(err, ErrUsernameTaken):
			writeMessage(w, http.StatusConflict, "username is already taken")
		default:
			sentry.CaptureException(err)
			writeMessage(w, http.StatusInternalServerError, "failed to register account")
		}
		return
	}

	writeMessage(w, http.StatusCreated, "account registered successfully")
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)

	var body credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid json body")
		return
	}

	result, err := h.service.Login(r.Context(), body.Username, body.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			writeMessage(w, http.StatusUnauthorized, "invalid username or password")
			return
		}
		sentry.CaptureException(err)
		writeMessage(w, http.StatusInternalServerError, "failed to login")
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		Message:    "login successful",
		Token:      result.Token,
		PlayerData: result.Player,
	})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}
