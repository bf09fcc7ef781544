// Package handler implements the REST endpoints. Business logic lives
// here; persistence and token mechanics are delegated.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"hospital-management-api/internal/config"
	"hospital-management-api/internal/model"
	"hospital-management-api/internal/notify"
	"hospital-management-api/internal/store"
)

type Handler struct {
	store  store.Store
	mailer notify.EmailSender
	cfg    *config.Config
}

func New(st store.Store, mailer notify.EmailSender, cfg *config.Config) *Handler {
	return &Handler{store: st, mailer: mailer, cfg: cfg}
}

// response envelope: {success, message?, data?} / {success:false, error}

func writeSuccess(w http.ResponseWriter, status int, message string, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	body := map[string]any{"success": true}
	if message != "" {
		body["message"] = message
	}
	if data != nil {
		body["data"] = data
	}
	json.NewEncoder(w).Encode(body)
}

func statusFor(kind model.ErrorKind) int {
	switch kind {
	case model.KindValidation:
		return http.StatusBadRequest
	case model.KindUnauthorized:
		return http.StatusUnauthorized
	case model.KindForbidden:
		return http.StatusForbidden
	case model.KindNotFound:
		return http.StatusNotFound
	case model.KindConflict:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// fail converts a typed workflow failure into the envelope. Anything
// untyped is logged and surfaced as a generic 500.
func fail(w http.ResponseWriter, err error) {
	var e *model.Error
	if !errors.As(err, &e) {
		e = model.InternalError(err)
	}
	if e.Kind == model.KindInternal {
		slog.Error("request failed", slog.String("error", err.Error()))
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusFor(e.Kind))
	json.NewEncoder(w).Encode(map[string]any{"success": false, "error": e.Message})
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return model.ValidationError("invalid request body")
	}
	return nil
}

var emailRx = regexp.MustCompile(`^\S+@\S+\.\S+$`)

// normalizeEmail lowercases and validates the address.
func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !emailRx.MatchString(email) {
		return "", model.ValidationError("please provide a valid email address")
	}
	return email, nil
}

func validateName(name string) error {
	n := len([]rune(strings.TrimSpace(name)))
	if n < 3 || n > 36 {
		return model.ValidationError("name must be between 3 and 36 characters")
	}
	return nil
}

func validatePassword(pw string) error {
	if len(pw) < 8 {
		return model.ValidationError("password must be at least 8 characters")
	}
	return nil
}

// parseDate accepts a calendar date, tolerating a full timestamp.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	return time.Time{}, model.ValidationError("invalid date, expected YYYY-MM-DD")
}

func (h *Handler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(h.cfg.SessionExpiry),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// Health reports liveness of the process and its store.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		fail(w, model.InternalError(err))
		return
	}
	writeSuccess(w, http.StatusOK, "ok", nil)
}
