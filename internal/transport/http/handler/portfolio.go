package handler

import (
	"net/http"

	"github.com/lead-capture-api/internal/application/portfolio"
	"github.com/lead-capture-api/internal/domain"
)

// PortfolioHandler serves the portfolio disclosure form.
type PortfolioHandler struct {
	svc portfolio.Service
}

func NewPortfolioHandler(svc portfolio.Service) *PortfolioHandler {
	return &PortfolioHandler{svc: svc}
}

func (h *PortfolioHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var body domain.PortfolioSubmission
	if !decodeBody(w, r, &body) {
		return
	}
	res, err := h.svc.Submit(r.Context(), &body)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, PortfolioEnvelope{
		OK:            true,
		ID:            res.ID,
		Message:       res.Message,
		AdminMailSent: res.AdminMailSent,
		UserMailSent:  res.UserMailSent,
		UserMailError: res.UserMailError,
	})
}
