package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/lead-capture-api/internal/application/report"
)

// ReportHandler serves the three steps of the special-report signup.
type ReportHandler struct {
	svc report.Service
}

func NewReportHandler(svc report.Service) *ReportHandler {
	return &ReportHandler{svc: svc}
}

// flexString accepts a JSON string or number. Verification codes arrive as
// either depending on the client.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

type handleBody struct {
	Email string `json:"email"`
	Token string `json:"token"`
}

// handle prefers the signed token and falls back to the email.
func (b handleBody) handle() string {
	if t := strings.TrimSpace(b.Token); t != "" {
		return t
	}
	return b.Email
}

type sendSMSBody struct {
	handleBody
	Phone string `json:"phone"`
}

type verifyBody struct {
	handleBody
	Code flexString `json:"code"`
}

func (h *ReportHandler) Register(w http.ResponseWriter, r *http.Request) {
	var body report.RegisterRequest
	if !decodeBody(w, r, &body) {
		return
	}
	res, err := h.svc.Register(r.Context(), body)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.envelope(res))
}

func (h *ReportHandler) SendSMS(w http.ResponseWriter, r *http.Request) {
	var body sendSMSBody
	if !decodeBody(w, r, &body) {
		return
	}
	res, err := h.svc.RequestPhoneVerification(r.Context(), body.handle(), body.Phone)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.envelope(res))
}

func (h *ReportHandler) VerifySMS(w http.ResponseWriter, r *http.Request) {
	var body verifyBody
	if !decodeBody(w, r, &body) {
		return
	}
	res, err := h.svc.VerifyCode(r.Context(), body.handle(), string(body.Code))
	if err != nil {
		httpError(w, r, err)
		return
	}
	env := h.envelope(res)
	env.Token = ""
	writeJSON(w, http.StatusOK, env)
}

// envelope exposes the handle only when it is a token; a store handle is the
// email the client already holds.
func (h *ReportHandler) envelope(res *report.Result) MessageEnvelope {
	env := MessageEnvelope{OK: true, Warnings: res.Warnings}
	if h.svc.CarrierKind() == report.KindToken {
		env.Token = res.Handle
	}
	return env
}
