package report

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/lead-capture-api/internal/domain"
	"github.com/lead-capture-api/internal/pkg/phone"
)

// Soft warnings attached to successful results when a notification could not be sent.
const (
	WarnAdminMail    = "admin_notification_failed"
	WarnUserMail     = "user_notification_failed"
	WarnStatePersist = "verified_state_not_saved"
)

const minPostalCodeLen = 7

// User-facing messages.
const (
	msgNameRequired        = "名前を入力してください。"
	msgEmailRequired       = "メールアドレスを入力してください。"
	msgPostalInvalid       = "有効な郵便番号を入力してください。"
	msgAddressRequired     = "住所（都道府県・市区町村）を入力してください。"
	msgDisclaimerRequired  = "免責事項に同意してください。"
	msgPhoneRequired       = "電話番号を入力してください。"
	msgCodeRequired        = "メールアドレスと認証コードを入力してください。"
	msgHandleRequired      = "メールアドレスが必要です。"
	msgNoRegistration      = "申込が見つかりません。先にフォームから登録してください。"
	msgNoPhone             = "申込または電話番号が見つかりません。先にSMS認証コードを送信してください。"
	msgSMSNotConfigured    = "SMS送信の設定がありません。"
	msgSMSFailed           = "SMS送信に失敗しました。"
	msgVerifyNotConfigured = "認証の設定がありません。"
	msgVerifyFailed        = "認証処理に失敗しました。"
	msgCodeInvalid         = "認証コードが正しくないか、有効期限が切れています。"
)

// Gateway is the SMS one-time-code provider.
type Gateway interface {
	StartVerification(ctx context.Context, e164Phone string) error
	CheckVerification(ctx context.Context, e164Phone, code string) (approved bool, err error)
}

// Mailer sends one plain-text message to every recipient in to.
type Mailer interface {
	SendEmail(ctx context.Context, to []string, subject, body string) error
}

type RegisterRequest struct {
	Name               string `json:"name"`
	Email              string `json:"email"`
	PostalCode         string `json:"postalCode"`
	Address1           string `json:"address1"`
	Address2           string `json:"address2"`
	DisclaimerAccepted *bool  `json:"disclaimerAccepted"`
}

// Result is returned by every successful phase. Handle is the value the
// client must send with the next phase.
type Result struct {
	Handle   string
	Warnings []string
}

// Service drives a report signup through Registered → PhoneSubmitted → Verified.
type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*Result, error)
	RequestPhoneVerification(ctx context.Context, handle, rawPhone string) (*Result, error)
	VerifyCode(ctx context.Context, handle, code string) (*Result, error)
	CarrierKind() string
}

type ServiceDeps struct {
	Carrier     Carrier
	Gateway     Gateway // nil when no SMS provider is configured
	Mailer      Mailer
	AdminEmails []string
	CountryCode string
	BrandName   string
	CompanyName string
	Now         func() time.Time
}

type service struct {
	carrier     Carrier
	gateway     Gateway
	mailer      Mailer
	adminEmails []string
	countryCode string
	brand       string
	company     string
	now         func() time.Time
}

func NewService(deps ServiceDeps) Service {
	s := &service{
		carrier:     deps.Carrier,
		gateway:     deps.Gateway,
		mailer:      deps.Mailer,
		adminEmails: deps.AdminEmails,
		countryCode: deps.CountryCode,
		brand:       deps.BrandName,
		company:     deps.CompanyName,
		now:         deps.Now,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.countryCode == "" {
		s.countryCode = "81"
	}
	return s
}

func (s *service) CarrierKind() string { return s.carrier.Kind() }

func (s *service) Register(ctx context.Context, req RegisterRequest) (*Result, error) {
	name := strings.TrimSpace(req.Name)
	email := domain.NormalizeEmail(req.Email)
	postal := domain.NormalizePostalCode(req.PostalCode)
	line1 := strings.TrimSpace(req.Address1)
	line2 := strings.TrimSpace(req.Address2)

	switch {
	case name == "":
		return nil, domain.NewError(domain.ErrValidation, msgNameRequired)
	case email == "":
		return nil, domain.NewError(domain.ErrValidation, msgEmailRequired)
	case len([]rune(postal)) < minPostalCodeLen:
		return nil, domain.NewError(domain.ErrValidation, msgPostalInvalid)
	case line1 == "":
		return nil, domain.NewError(domain.ErrValidation, msgAddressRequired)
	case req.DisclaimerAccepted == nil || !*req.DisclaimerAccepted:
		return nil, domain.NewError(domain.ErrValidation, msgDisclaimerRequired)
	}

	now := s.now()
	rec := &domain.PendingRegistration{
		Email:              email,
		Name:               name,
		Address:            domain.ComposeAddress(postal, line1, line2),
		DisclaimerAccepted: true,
		CreatedAt:          now,
	}
	handle, err := s.carrier.Create(ctx, rec)
	if err != nil {
		return nil, err
	}

	res := &Result{Handle: handle}
	if len(s.adminEmails) > 0 {
		m := registeredAdminMail(rec, now)
		if !s.notify(ctx, s.adminEmails, m, "registered") {
			res.Warnings = append(res.Warnings, WarnAdminMail)
		}
	}
	slog.InfoContext(ctx, "report registration created", "email", email, "carrier", s.carrier.Kind())
	return res, nil
}

func (s *service) RequestPhoneVerification(ctx context.Context, handle, rawPhone string) (*Result, error) {
	if strings.TrimSpace(handle) == "" {
		return nil, domain.NewError(domain.ErrSessionInvalid, msgHandleRequired)
	}
	cleaned := phone.Clean(rawPhone)
	if cleaned == "" {
		return nil, domain.NewError(domain.ErrValidation, msgPhoneRequired)
	}
	if _, err := s.resolve(ctx, handle, msgNoRegistration); err != nil {
		return nil, err
	}
	if s.gateway == nil {
		return nil, domain.NewError(domain.ErrGatewayUnavailable, msgSMSNotConfigured)
	}

	e164 := phone.ToE164(cleaned, s.countryCode)
	if err := s.gateway.StartVerification(ctx, e164); err != nil {
		if errors.Is(err, domain.ErrGatewayUnavailable) {
			return nil, domain.WrapError(domain.ErrGatewayUnavailable, msgSMSNotConfigured, err)
		}
		return nil, domain.WrapError(domain.ErrGateway, msgSMSFailed, err)
	}

	next, err := s.carrier.AttachPhone(ctx, handle, e164)
	if err != nil {
		if errors.Is(err, domain.ErrSessionInvalid) {
			return nil, domain.NewError(domain.ErrSessionInvalid, msgNoRegistration)
		}
		return nil, err
	}
	return &Result{Handle: next}, nil
}

func (s *service) VerifyCode(ctx context.Context, handle, code string) (*Result, error) {
	if strings.TrimSpace(handle) == "" {
		return nil, domain.NewError(domain.ErrSessionInvalid, msgCodeRequired)
	}
	rec, err := s.resolve(ctx, handle, msgNoPhone)
	if err != nil {
		return nil, err
	}
	if !rec.HasPhone() {
		return nil, domain.NewError(domain.ErrSessionInvalid, msgNoPhone)
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, domain.NewError(domain.ErrValidation, msgCodeRequired)
	}
	if s.gateway == nil {
		return nil, domain.NewError(domain.ErrGatewayUnavailable, msgVerifyNotConfigured)
	}

	checked := phone.ToE164(rec.Phone, s.countryCode)
	approved, err := s.gateway.CheckVerification(ctx, checked, code)
	if err != nil {
		if errors.Is(err, domain.ErrGatewayUnavailable) {
			return nil, domain.WrapError(domain.ErrGatewayUnavailable, msgVerifyNotConfigured, err)
		}
		return nil, domain.WrapError(domain.ErrGateway, msgVerifyFailed, err)
	}
	if !approved {
		return nil, domain.NewError(domain.ErrCodeInvalid, msgCodeInvalid)
	}

	res := &Result{Handle: handle}
	if err := s.carrier.MarkVerified(ctx, handle, checked); err != nil {
		switch {
		case errors.Is(err, domain.ErrCodeInvalid):
			slog.WarnContext(ctx, "phone replaced during code check", "email", rec.Email)
			return nil, domain.WrapError(domain.ErrCodeInvalid, msgCodeInvalid, err)
		case errors.Is(err, domain.ErrSessionInvalid):
			return nil, domain.WrapError(domain.ErrSessionInvalid, msgNoPhone, err)
		}
		slog.WarnContext(ctx, "failed to persist verified state", "email", rec.Email, "err", err)
		res.Warnings = append(res.Warnings, WarnStatePersist)
	}

	now := s.now()
	if len(s.adminEmails) > 0 && !s.notify(ctx, s.adminEmails, verifiedAdminMail(rec, now), "verified") {
		res.Warnings = append(res.Warnings, WarnAdminMail)
	}
	if !s.notify(ctx, []string{rec.Email}, userCompletedMail(rec, s.brand, s.company), "user_completed") {
		res.Warnings = append(res.Warnings, WarnUserMail)
	}
	slog.InfoContext(ctx, "report registration verified", "email", rec.Email, "carrier", s.carrier.Kind())
	return res, nil
}

// resolve maps an unknown or expired handle to a SessionInvalid error with msg.
func (s *service) resolve(ctx context.Context, handle, msg string) (*domain.PendingRegistration, error) {
	rec, err := s.carrier.Resolve(ctx, handle)
	if errors.Is(err, domain.ErrSessionInvalid) {
		return nil, domain.NewError(domain.ErrSessionInvalid, msg)
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// notify sends m and reports whether it was delivered. Failures are logged, never returned.
func (s *service) notify(ctx context.Context, to []string, m mail, kind string) bool {
	if s.mailer == nil {
		return false
	}
	if err := s.mailer.SendEmail(ctx, to, m.subject, m.body); err != nil {
		slog.WarnContext(ctx, "notification failed", "kind", kind, "to", to, "err", errors.Join(domain.ErrNotification, err))
		return false
	}
	return true
}
