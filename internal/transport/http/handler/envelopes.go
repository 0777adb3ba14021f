package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/lead-capture-api/internal/domain"
)

const (
	maxBodyBytes = 64 << 10

	msgBadBody     = "リクエストの形式が正しくありません。"
	msgServerError = "サーバーエラーが発生しました。"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	OK       bool     `json:"ok"`
	Message  string   `json:"message,omitempty"`
	Token    string   `json:"token,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// PortfolioEnvelope wraps portfolio submission responses.
type PortfolioEnvelope struct {
	OK            bool   `json:"ok"`
	ID            string `json:"id,omitempty"`
	Message       string `json:"message,omitempty"`
	AdminMailSent bool   `json:"adminMailSent"`
	UserMailSent  bool   `json:"userMailSent"`
	UserMailError string `json:"userMailError,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{OK: false, Message: msg})
}

// decodeBody reads a size-limited JSON body into dst.
func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, msgBadBody)
		return false
	}
	return true
}

// httpError maps domain error kinds to status codes. Client-correctable kinds
// are 400; gateway problems and anything unrecognized are 500.
func httpError(w http.ResponseWriter, r *http.Request, err error) {
	var de *domain.Error
	msg := msgServerError
	if errors.As(err, &de) {
		msg = de.Message
	}
	switch {
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrSessionInvalid),
		errors.Is(err, domain.ErrCodeInvalid):
		writeError(w, http.StatusBadRequest, msg)
	case errors.Is(err, domain.ErrGatewayUnavailable):
		slog.ErrorContext(r.Context(), "verification gateway unavailable", "path", r.URL.Path, "err", err)
		writeError(w, http.StatusInternalServerError, msg)
	case errors.Is(err, domain.ErrGateway):
		slog.ErrorContext(r.Context(), "verification gateway error", "path", r.URL.Path, "err", err)
		writeError(w, http.StatusInternalServerError, err.Error())
	default:
		slog.ErrorContext(r.Context(), "unhandled error", "path", r.URL.Path, "err", err)
		writeError(w, http.StatusInternalServerError, msgServerError)
	}
}
