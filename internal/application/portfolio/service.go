// Package portfolio accepts the portfolio disclosure form, notifies staff,
// replies to the submitter and archives the raw submission.
package portfolio

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/lead-capture-api/internal/domain"
	"github.com/lead-capture-api/internal/pkg/id"
	"github.com/lead-capture-api/internal/pkg/validate"
)

const msgMailSkipped = "開発環境: データをログに出力しました（メール送信はスキップ）"

// Mailer sends one plain-text message to every recipient in to.
type Mailer interface {
	SendEmail(ctx context.Context, to []string, subject, body string) error
}

// Archiver stores the raw submission and returns its location.
type Archiver interface {
	PutJSON(ctx context.Context, key string, data []byte) (string, error)
}

// Result reports what happened to each side effect. Mail and archive
// failures never fail a submission.
type Result struct {
	ID            string
	AdminMailSent bool
	UserMailSent  bool
	UserMailError string
	ArchiveURL    string
	Message       string
}

type Service interface {
	Submit(ctx context.Context, sub *domain.PortfolioSubmission) (*Result, error)
}

type ServiceDeps struct {
	Mailer      Mailer   // nil logs the submission instead of mailing it
	Archive     Archiver // nil disables archiving
	AdminEmails []string
	BrandName   string
	CompanyName string
	Now         func() time.Time
}

type service struct {
	mailer      Mailer
	archive     Archiver
	adminEmails []string
	brand       string
	company     string
	now         func() time.Time
}

func NewService(deps ServiceDeps) Service {
	s := &service{
		mailer:      deps.Mailer,
		archive:     deps.Archive,
		adminEmails: deps.AdminEmails,
		brand:       deps.BrandName,
		company:     deps.CompanyName,
		now:         deps.Now,
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

func (s *service) Submit(ctx context.Context, sub *domain.PortfolioSubmission) (*Result, error) {
	sub.Email = strings.TrimSpace(sub.Email)
	if err := validate.Struct(sub); err != nil {
		return nil, domain.WrapError(domain.ErrValidation, "入力内容が正しくありません。", err)
	}
	raw, err := indentJSON(sub)
	if err != nil {
		return nil, fmt.Errorf("marshal submission: %w", err)
	}

	now := s.now()
	res := &Result{ID: id.NewAt(now)}

	if s.archive != nil {
		key := fmt.Sprintf("portfolio/%s/%s.json", now.UTC().Format("2006/01/02"), res.ID)
		url, err := s.archive.PutJSON(ctx, key, raw)
		if err != nil {
			slog.WarnContext(ctx, "portfolio archive failed", "id", res.ID, "err", err)
		} else {
			res.ArchiveURL = url
		}
	}

	if s.mailer == nil {
		slog.InfoContext(ctx, "portfolio submission received", "id", res.ID, "payload", string(raw))
		res.Message = msgMailSkipped
		return res, nil
	}

	name := sub.FullName()
	if len(s.adminEmails) > 0 {
		subject := fmt.Sprintf("【資産運用AI分析】フォーム入力 %s様", name)
		if err := s.mailer.SendEmail(ctx, s.adminEmails, subject, adminBody(sub, raw)); err != nil {
			slog.WarnContext(ctx, "portfolio admin mail failed", "id", res.ID, "err", err)
		} else {
			res.AdminMailSent = true
		}
	}

	if sub.Email != "" {
		subject := fmt.Sprintf("【%s】資産運用AI分析の申請を承りました", s.brand)
		if err := s.mailer.SendEmail(ctx, []string{sub.Email}, subject, userBody(sub, s.brand, s.company)); err != nil {
			slog.WarnContext(ctx, "portfolio user mail failed", "id", res.ID, "to", sub.Email, "err", err)
			res.UserMailError = err.Error()
		} else {
			res.UserMailSent = true
		}
	}

	slog.InfoContext(ctx, "portfolio submission processed",
		"id", res.ID,
		"admin_mail_sent", res.AdminMailSent,
		"user_mail_sent", res.UserMailSent,
	)
	return res, nil
}
