package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/rental-dashboard/internal/application"
)

var (
	errBadRequestBody      = errors.New("شێوەی داواکارییەکە نادروستە.")
	errInvalidBookingID    = errors.New("ناسنامەی حیجزەکە نادروستە.")
	errInvalidRoomID       = errors.New("ناسنامەی ژوورەکە نادروستە.")
	errInvalidOperatorID   = errors.New("ناسنامەی کارمەندەکە نادروستە.")
	errMissingSessionToken = errors.New("تکایە تۆکنی چوونەژوورەوە دابنێ.")
)

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	if logger == nil {
		logger = slog.Default()
	}
	return responder{logger: logger}
}

func (r responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}

	if status == http.StatusNoContent || payload == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (r responder) writeError(ctx context.Context, w http.ResponseWriter, status int, err error) {
	message := localizedStatusMessage(status)
	if err != nil {
		if msg := strings.TrimSpace(err.Error()); msg != "" {
			message = msg
		}
		r.loggerFor(ctx).ErrorContext(ctx, "request failed", "status", status, "error", err)
	}

	r.writeJSON(ctx, w, status, errorResponse{Message: message})
}

func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		r.writeError(ctx, w, http.StatusInternalServerError, errors.New("unknown error"))
		return
	}

	switch {
	case errors.Is(err, application.ErrUnauthorized):
		r.writeJSON(ctx, w, http.StatusForbidden, errorResponse{
			ErrorCode: "AUTH_FORBIDDEN",
			Message:   "دەسەڵاتت نییە بۆ ئەم کردارە.",
		})
	case errors.Is(err, application.ErrNotFound):
		r.writeJSON(ctx, w, http.StatusNotFound, errorResponse{Message: "داواکراوەکە نەدۆزرایەوە."})
	case errors.Is(err, application.ErrAlreadyExists):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{Message: "تۆمارێک بەم زانیارییە پێشتر هەیە."})
	case errors.Is(err, application.ErrSessionExpired):
		r.writeJSON(ctx, w, http.StatusUnauthorized, errorResponse{
			ErrorCode: "AUTH_SESSION_EXPIRED",
			Message:   "کاتی دانیشتنەکە بەسەرچووە. دووبارە بچۆرە ژوورەوە.",
		})
	case errors.Is(err, application.ErrSessionRevoked):
		r.writeJSON(ctx, w, http.StatusUnauthorized, errorResponse{
			ErrorCode: "AUTH_SESSION_REVOKED",
			Message:   "دانیشتنەکە هەڵوەشێنراوەتەوە. دووبارە بچۆرە ژوورەوە.",
		})
	case errors.Is(err, application.ErrInvalidCredentials):
		r.writeJSON(ctx, w, http.StatusUnauthorized, errorResponse{
			ErrorCode: "AUTH_INVALID_CREDENTIALS",
			Message:   "ئیمەیڵ یان وشەی نهێنی هەڵەیە.",
		})
	default:
		var vErr *application.ValidationError
		if errors.As(err, &vErr) {
			details := localizeValidationErrors(vErr)
			r.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{
				Message: "هەڵە لە داخڵکراوەکاندا هەیە.",
				Errors:  details,
			})
			return
		}

		r.writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{Message: "هەڵەیەکی ناوخۆیی ڕوویدا."})
	}
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	if logger := LoggerFromContext(ctx); logger != nil {
		return logger
	}
	return r.logger
}

func localizedStatusMessage(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "ناوەڕۆکی داواکارییەکە دروست نییە."
	case http.StatusUnauthorized:
		return "پێویستە بچیتە ژوورەوە."
	case http.StatusForbidden:
		return "دەسەڵاتت نییە بۆ ئەم کردارە."
	case http.StatusNotFound:
		return "داواکراوەکە نەدۆزرایەوە."
	case http.StatusConflict:
		return "داواکارییەکە لەگەڵ دۆخی ئێستا ناکۆکە."
	case http.StatusUnprocessableEntity:
		return "هەڵە لە داخڵکراوەکاندا هەیە."
	default:
		return "هەڵەیەکی ناوخۆیی ڕوویدا."
	}
}

func localizeValidationErrors(vErr *application.ValidationError) map[string]string {
	if vErr == nil || len(vErr.FieldErrors) == 0 {
		return nil
	}

	translated := make(map[string]string, len(vErr.FieldErrors))
	for field, msg := range vErr.FieldErrors {
		translated[field] = translateValidationMessage(msg)
	}
	return translated
}

func translateValidationMessage(message string) string {
	switch message {
	case "email is required":
		return "ئیمەیڵ پێویستە."
	case "email is invalid":
		return "شێوەی ئیمەیڵەکە دروست نییە."
	case "display name is required":
		return "ناوی پیشاندان پێویستە."
	case "password must be at least 8 characters":
		return "وشەی نهێنی دەبێت لانیکەم ٨ پیت بێت."
	case "name is required":
		return "ناوی ژوور پێویستە."
	case "hour cost must not be negative":
		return "کرێی کاتژمێر نابێت کەمتر لە سفر بێت."
	case "room name is required":
		return "ناوی ژوور پێویستە."
	case "customer name is required":
		return "ناوی کڕیار پێویستە."
	case "calendar date is required":
		return "بەروار پێویستە."
	case "calendar date is invalid":
		return "بەروارەکە دروست نییە."
	case "start time is required":
		return "کاتی دەستپێک پێویستە."
	case "room does not exist":
		return "ئەم ژوورە بوونی نییە."
	case "related records are missing":
		return "تۆمارە پەیوەندیدارەکان نەدۆزرانەوە."
	default:
		return message
	}
}

type errorResponse struct {
	ErrorCode string            `json:"error_code,omitempty"`
	Message   string            `json:"message"`
	Errors    map[string]string `json:"errors,omitempty"`
}
