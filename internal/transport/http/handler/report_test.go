package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/lead-capture-api/internal/application/report"
	"github.com/lead-capture-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mock ---

type mockReportSvc struct {
	mock.Mock
	kind string
}

func (m *mockReportSvc) Register(ctx context.Context, req report.RegisterRequest) (*report.Result, error) {
	args := m.Called(ctx, req)
	if res, _ := args.Get(0).(*report.Result); res != nil {
		return res, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockReportSvc) RequestPhoneVerification(ctx context.Context, handle, phone string) (*report.Result, error) {
	args := m.Called(ctx, handle, phone)
	if res, _ := args.Get(0).(*report.Result); res != nil {
		return res, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockReportSvc) VerifyCode(ctx context.Context, handle, code string) (*report.Result, error) {
	args := m.Called(ctx, handle, code)
	if res, _ := args.Get(0).(*report.Result); res != nil {
		return res, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockReportSvc) CarrierKind() string { return m.kind }

// --- helpers ---

func newReportRouter(svc report.Service) http.Handler {
	h := NewReportHandler(svc)
	r := chi.NewRouter()
	r.Post("/v1/report/register", h.Register)
	r.Post("/v1/report/send-sms", h.SendSMS)
	r.Post("/v1/report/verify-sms", h.VerifySMS)
	return r
}

func post(t *testing.T, h http.Handler, path, body string) (*httptest.ResponseRecorder, MessageEnvelope) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	var env MessageEnvelope
	require.NoError(t, json.NewDecoder(w.Body).Decode(&env))
	return w, env
}

// --- tests ---

func TestRegister_Success_StoreCarrierHidesHandle(t *testing.T) {
	svc := &mockReportSvc{kind: report.KindStore}
	svc.On("Register", mock.Anything, mock.MatchedBy(func(req report.RegisterRequest) bool {
		return req.Name == "山田太郎" && req.DisclaimerAccepted != nil && *req.DisclaimerAccepted
	})).Return(&report.Result{Handle: "taro@example.com"}, nil)

	w, env := post(t, newReportRouter(svc), "/v1/report/register",
		`{"name":"山田太郎","email":"taro@example.com","postalCode":"1000001","address1":"東京都","disclaimerAccepted":true}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.OK)
	assert.Empty(t, env.Token)
	svc.AssertExpectations(t)
}

func TestRegister_Success_TokenCarrierReturnsTokenAndWarnings(t *testing.T) {
	svc := &mockReportSvc{kind: report.KindToken}
	svc.On("Register", mock.Anything, mock.Anything).
		Return(&report.Result{Handle: "abc.def", Warnings: []string{report.WarnAdminMail}}, nil)

	w, env := post(t, newReportRouter(svc), "/v1/report/register", `{"name":"x"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "abc.def", env.Token)
	assert.Equal(t, []string{report.WarnAdminMail}, env.Warnings)
}

func TestRegister_ValidationError(t *testing.T) {
	svc := &mockReportSvc{kind: report.KindStore}
	svc.On("Register", mock.Anything, mock.Anything).
		Return(nil, domain.NewError(domain.ErrValidation, "名前を入力してください。"))

	w, env := post(t, newReportRouter(svc), "/v1/report/register", `{}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, env.OK)
	assert.Equal(t, "名前を入力してください。", env.Message)
}

func TestRegister_MalformedJSON(t *testing.T) {
	svc := &mockReportSvc{kind: report.KindStore}

	w, env := post(t, newReportRouter(svc), "/v1/report/register", `{"name":`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, msgBadBody, env.Message)
	svc.AssertNotCalled(t, "Register", mock.Anything, mock.Anything)
}

func TestRegister_UnexpectedErrorIs500(t *testing.T) {
	svc := &mockReportSvc{kind: report.KindStore}
	svc.On("Register", mock.Anything, mock.Anything).Return(nil, errors.New("disk full"))

	w, env := post(t, newReportRouter(svc), "/v1/report/register", `{}`)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, msgServerError, env.Message)
}

func TestSendSMS_TokenPreferredOverEmail(t *testing.T) {
	svc := &mockReportSvc{kind: report.KindToken}
	svc.On("RequestPhoneVerification", mock.Anything, "tok.sig", "09012345678").
		Return(&report.Result{Handle: "tok2.sig2"}, nil)

	w, env := post(t, newReportRouter(svc), "/v1/report/send-sms",
		`{"email":"taro@example.com","token":"tok.sig","phone":"09012345678"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "tok2.sig2", env.Token)
	svc.AssertExpectations(t)
}

func TestSendSMS_ErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{"session", domain.NewError(domain.ErrSessionInvalid, "申込が見つかりません。"), http.StatusBadRequest, "申込が見つかりません。"},
		{"unavailable", domain.NewError(domain.ErrGatewayUnavailable, "SMS送信の設定がありません。"), http.StatusInternalServerError, "SMS送信の設定がありません。"},
		{"gateway", domain.WrapError(domain.ErrGateway, "SMS送信に失敗しました。", errors.New("invalid number")), http.StatusInternalServerError, "SMS送信に失敗しました。: invalid number"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &mockReportSvc{kind: report.KindStore}
			svc.On("RequestPhoneVerification", mock.Anything, "taro@example.com", "090").Return(nil, tc.err)

			w, env := post(t, newReportRouter(svc), "/v1/report/send-sms", `{"email":"taro@example.com","phone":"090"}`)

			assert.Equal(t, tc.status, w.Code)
			assert.Equal(t, tc.msg, env.Message)
			assert.False(t, env.OK)
		})
	}
}

func TestVerifySMS_NumericCodeAccepted(t *testing.T) {
	svc := &mockReportSvc{kind: report.KindToken}
	svc.On("VerifyCode", mock.Anything, "taro@example.com", "123456").
		Return(&report.Result{Handle: "taro@example.com", Warnings: []string{report.WarnUserMail}}, nil)

	w, env := post(t, newReportRouter(svc), "/v1/report/verify-sms", `{"email":"taro@example.com","code":123456}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.OK)
	assert.Empty(t, env.Token)
	assert.Equal(t, []string{report.WarnUserMail}, env.Warnings)
	svc.AssertExpectations(t)
}

func TestVerifySMS_CodeInvalidIs400(t *testing.T) {
	svc := &mockReportSvc{kind: report.KindStore}
	svc.On("VerifyCode", mock.Anything, "taro@example.com", "000000").
		Return(nil, domain.NewError(domain.ErrCodeInvalid, "認証コードが正しくないか、有効期限が切れています。"))

	w, env := post(t, newReportRouter(svc), "/v1/report/verify-sms", `{"email":"taro@example.com","code":"000000"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "認証コードが正しくないか、有効期限が切れています。", env.Message)
}

func TestFlexString(t *testing.T) {
	var body struct {
		A flexString `json:"a"`
		B flexString `json:"b"`
		C flexString `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":"012345","b":12345,"c":null}`), &body))
	assert.Equal(t, flexString("012345"), body.A)
	assert.Equal(t, flexString("12345"), body.B)
	assert.Equal(t, flexString(""), body.C)

	assert.Error(t, json.Unmarshal([]byte(`{"a":[1]}`), &body))
}

func TestHealth_Ping(t *testing.T) {
	h := NewHealthHandler(func() string { return "file" })
	r := chi.NewRouter()
	r.Get("/v1/health-check/{action}", h.Ping)

	for action, want := range map[string]string{"ping": "pong", "store": "file"} {
		req := httptest.NewRequest(http.MethodGet, "/v1/health-check/"+action, nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
		var env MessageEnvelope
		require.NoError(t, json.NewDecoder(w.Body).Decode(&env))
		assert.Equal(t, want, env.Message)
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/health-check/nope", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
