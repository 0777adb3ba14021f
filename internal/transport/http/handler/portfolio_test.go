package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lead-capture-api/internal/application/portfolio"
	"github.com/lead-capture-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockPortfolioSvc struct{ mock.Mock }

func (m *mockPortfolioSvc) Submit(ctx context.Context, sub *domain.PortfolioSubmission) (*portfolio.Result, error) {
	args := m.Called(ctx, sub)
	if res, _ := args.Get(0).(*portfolio.Result); res != nil {
		return res, args.Error(1)
	}
	return nil, args.Error(1)
}

func submit(t *testing.T, svc portfolio.Service, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/portfolio", bytes.NewBufferString(body))
	w := httptest.NewRecorder()
	NewPortfolioHandler(svc).Submit(w, req)
	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&out))
	return w, out
}

func TestPortfolioSubmit_Success(t *testing.T) {
	svc := &mockPortfolioSvc{}
	svc.On("Submit", mock.Anything, mock.MatchedBy(func(s *domain.PortfolioSubmission) bool {
		return s.FamilyName == "山田" && len(s.Funds.Details) == 1 && *s.Funds.Details[0].Amount == 40
	})).Return(&portfolio.Result{ID: "01HV", AdminMailSent: true, UserMailError: "rejected"}, nil)

	w, out := submit(t, svc, `{"submittedAt":"2024-04-01T00:00:00Z","familyName":"山田","funds":{"details":[{"name":"オルカン","sizeMode":"amount","amount":40}]}}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, out["ok"])
	assert.Equal(t, true, out["adminMailSent"])
	assert.Equal(t, false, out["userMailSent"])
	assert.Equal(t, "rejected", out["userMailError"])
	assert.Equal(t, "01HV", out["id"])
	svc.AssertExpectations(t)
}

func TestPortfolioSubmit_ValidationError(t *testing.T) {
	svc := &mockPortfolioSvc{}
	svc.On("Submit", mock.Anything, mock.Anything).
		Return(nil, domain.NewError(domain.ErrValidation, "入力内容が正しくありません。"))

	w, out := submit(t, svc, `{"email":"bad"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, false, out["ok"])
	assert.Equal(t, "入力内容が正しくありません。", out["message"])
}

func TestPortfolioSubmit_BodyTooLarge(t *testing.T) {
	svc := &mockPortfolioSvc{}
	big := `{"familyName":"` + string(bytes.Repeat([]byte("a"), maxBodyBytes+1)) + `"}`

	w, _ := submit(t, svc, big)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	svc.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything)
}
