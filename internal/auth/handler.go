package auth

import (
	"encoding/json"
	"errors"
	"io"
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
	Username *string `json:"username"`
	Password *string `json:"password"`
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	username, password, ok := decodeCredentials(w, r)
	if !ok {
		return
	}

	user, err := h.service.Register(r.Context(), username, password)
	if err != nil {
		switch {
		case errors.Is(err, ErrValidation):
			writeError(w, http.StatusBadRequest, "username or password format is invalid")
		case errors.Is(err, ErrDuplicateUsername):
			writeError(w, http.StatusBadRequest, "username already exists")
		default:
			sentry.CaptureException(err)
			writeError(w, http.StatusInternalServerError, "failed to register")
		}
		return
	}

	writeJSON(w, http.StatusCreated, registerResponse{
		Message:   "user created",
		UserID:    user.ID,
		CreatedAt: user.CreatedAt,
	})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	username, password, ok := decodeCredentials(w, r)
	if !ok {
		return
	}

	token, err := h.service.Login(r.Context(), username, password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		sentry.CaptureException(err)
		writeError(w, http.StatusInternalServerError, "failed to login")
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{Token: token})
}

// Protected echoes the identity carried by a valid bearer token.
func (h *Handler) Protected(w http.ResponseWriter, r *http.Request) {
	token, ok := bearerToken(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing authorization token")
		return
	}

	claims, err := h.service.Authorize(r.Context(), token)
	if err != nil {
		writeError(w, http.StatusForbidden, "invalid or expired token")
		return
	}

	writeJSON(w, http.StatusOK, protectedResponse{
		Message: "protected resource",
		User: identity{
			ID:        claims.SubjectID,
			Username:  claims.Username,
			CreatedAt: claims.CreatedAt,
		},
	})
}

// decodeCredentials writes a 400 and reports false when the body is not a
// single JSON object carrying both fields.
func decodeCredentials(w http.ResponseWriter, r *http.Request) (string, string, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)

	var body credentialsRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return "", "", false
	}
	if err := decoder.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return "", "", false
	}
	if body.Username == nil || body.Password == nil {
		writeError(w, http.StatusBadRequest, "username and password are required")
		return "", "", false
	}

	return *body.Username, *body.Password, true
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
