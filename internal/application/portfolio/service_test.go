package portfolio

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/lead-capture-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockMailer struct{ mock.Mock }

func (m *mockMailer) SendEmail(ctx context.Context, to []string, subject, body string) error {
	return m.Called(ctx, to, subject, body).Error(0)
}

type mockArchiver struct{ mock.Mock }

func (m *mockArchiver) PutJSON(ctx context.Context, key string, data []byte) (string, error) {
	args := m.Called(ctx, key, data)
	return args.String(0), args.Error(1)
}

var fixedNow = time.Date(2024, 4, 1, 23, 30, 0, 0, time.UTC)

func pct(f float64) *float64 { return &f }

func sampleSubmission() *domain.PortfolioSubmission {
	sub := &domain.PortfolioSubmission{
		SubmittedAt: "2024-04-01T23:30:00Z",
		FamilyName:  "山田",
		GivenName:   "太郎",
		Email:       " taro@example.com ",
	}
	sub.Funds.Details = []domain.FundDetail{
		{DetailRow: domain.DetailRow{Name: "オルカン", Amount: pct(40)}},
		{DetailRow: domain.DetailRow{Name: "", Amount: pct(12.25)}},
		{DetailRow: domain.DetailRow{Name: "blank row"}},
	}
	sub.Cash.Details = []domain.CashDetail{
		{DetailRow: domain.DetailRow{Amount: pct(20)}},
		{DetailRow: domain.DetailRow{Amount: pct(5.5)}, Currency: "USD"},
	}
	sub.Commodities.Details = []domain.CommodityDetail{
		{DetailRow: domain.DetailRow{Amount: pct(10)}, CommodityType: "GOLD"},
	}
	sub.Other.Details = []domain.OtherDetail{
		{DetailRow: domain.DetailRow{Amount: pct(12.25)}, InvestmentType: "私募ファンド・組合出資"},
	}
	return sub
}

func newTestService(ml Mailer, ar Archiver) Service {
	return NewService(ServiceDeps{
		Mailer:      ml,
		Archive:     ar,
		AdminEmails: []string{"staff@example.com"},
		BrandName:   "投資のKAWARA版",
		Now:         func() time.Time { return fixedNow },
	})
}

func TestFormatPercentage(t *testing.T) {
	cases := map[float64]string{
		40:        "40%",
		0:         "0%",
		12.25:     "12.3%",
		33.333333: "33.3%",
		5.5:       "5.5%",
		99.96:     "100%",
	}
	for in, want := range cases {
		assert.Equal(t, want, FormatPercentage(in), "input %v", in)
	}
}

func TestSubmit_SendsBothMailsAndArchives(t *testing.T) {
	ml := &mockMailer{}
	ml.On("SendEmail", mock.Anything, []string{"staff@example.com"}, "【資産運用AI分析】フォーム入力 山田 太郎様", mock.Anything).Return(nil)
	ml.On("SendEmail", mock.Anything, []string{"taro@example.com"}, "【投資のKAWARA版】資産運用AI分析の申請を承りました", mock.Anything).Return(nil)
	ar := &mockArchiver{}
	ar.On("PutJSON", mock.Anything, mock.MatchedBy(func(key string) bool {
		return strings.HasPrefix(key, "portfolio/2024/04/01/") && strings.HasSuffix(key, ".json")
	}), mock.Anything).Return("s3://bucket/key", nil)

	res, err := newTestService(ml, ar).Submit(context.Background(), sampleSubmission())
	require.NoError(t, err)

	assert.Len(t, res.ID, 26)
	assert.True(t, res.AdminMailSent)
	assert.True(t, res.UserMailSent)
	assert.Empty(t, res.UserMailError)
	assert.Equal(t, "s3://bucket/key", res.ArchiveURL)
	ml.AssertExpectations(t)
	ar.AssertExpectations(t)

	body := ml.Calls[0].Arguments.String(3)
	sections, raw, found := strings.Cut(body, "【JSONデータ】")
	require.True(t, found)
	assert.Contains(t, body, "受信日時: 2024/04/02 08:30")
	assert.Contains(t, body, "・オルカン：40%\n")
	assert.Contains(t, body, "・（未入力）：12.3%\n")
	assert.NotContains(t, sections, "blank row", "rows without an amount are not listed")
	assert.Contains(t, raw, `"name": "blank row"`)
	assert.Contains(t, body, "・JPY：20%\n")
	assert.Contains(t, body, "・USD：5.5%\n")
	assert.Contains(t, body, "・金：10%\n")
	assert.Contains(t, body, "・私募ファンド・組合出資：12.3%\n")
	assert.Contains(t, body, "【JSONデータ】\n{")
	assert.Contains(t, body, `"familyName": "山田"`)

	userBody := ml.Calls[1].Arguments.String(3)
	assert.True(t, strings.HasPrefix(userBody, "山田 太郎 様\n\n"))
	assert.Contains(t, userBody, "投資のKAWARA版「資産運用AI分析」")
}

func TestSubmit_MailFailuresDoNotFail(t *testing.T) {
	ml := &mockMailer{}
	ml.On("SendEmail", mock.Anything, []string{"staff@example.com"}, mock.Anything, mock.Anything).Return(errors.New("throttled"))
	ml.On("SendEmail", mock.Anything, []string{"taro@example.com"}, mock.Anything, mock.Anything).Return(errors.New("address rejected"))
	ar := &mockArchiver{}
	ar.On("PutJSON", mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("no bucket"))

	res, err := newTestService(ml, ar).Submit(context.Background(), sampleSubmission())
	require.NoError(t, err)
	assert.False(t, res.AdminMailSent)
	assert.False(t, res.UserMailSent)
	assert.Equal(t, "address rejected", res.UserMailError)
	assert.Empty(t, res.ArchiveURL)
}

func TestSubmit_NoEmailSkipsAutoReply(t *testing.T) {
	ml := &mockMailer{}
	ml.On("SendEmail", mock.Anything, []string{"staff@example.com"}, "【資産運用AI分析】フォーム入力 様", mock.Anything).Return(nil)
	sub := &domain.PortfolioSubmission{SubmittedAt: "not a date"}

	res, err := newTestService(ml, nil).Submit(context.Background(), sub)
	require.NoError(t, err)
	assert.True(t, res.AdminMailSent)
	assert.False(t, res.UserMailSent)
	ml.AssertNumberOfCalls(t, "SendEmail", 1)
	assert.Contains(t, ml.Calls[0].Arguments.String(3), "受信日時: not a date")
}

func TestSubmit_NoMailerLogsPayload(t *testing.T) {
	res, err := newTestService(nil, nil).Submit(context.Background(), sampleSubmission())
	require.NoError(t, err)
	assert.Equal(t, msgMailSkipped, res.Message)
	assert.False(t, res.AdminMailSent)
}

func TestSubmit_Validation(t *testing.T) {
	ml := &mockMailer{}
	svc := newTestService(ml, nil)

	bad := sampleSubmission()
	bad.Email = "not-an-email"
	_, err := svc.Submit(context.Background(), bad)
	assert.ErrorIs(t, err, domain.ErrValidation)

	over := sampleSubmission()
	over.Crypto.Details = []domain.CryptoDetail{{DetailRow: domain.DetailRow{Name: "BTC", Amount: pct(101)}}}
	_, err = svc.Submit(context.Background(), over)
	assert.ErrorIs(t, err, domain.ErrValidation)

	badCurrency := sampleSubmission()
	badCurrency.Cash.Details[0].Currency = "JPYX"
	_, err = svc.Submit(context.Background(), badCurrency)
	assert.ErrorIs(t, err, domain.ErrValidation)

	ml.AssertNotCalled(t, "SendEmail", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
