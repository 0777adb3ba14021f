// Package ses sends plain-text notification email through Amazon SES v2.
package ses

import (
	"context"
	"fmt"
	"net/mail"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/lead-capture-api/internal/config"
	"github.com/lead-capture-api/internal/infrastructure/awsconf"
)

const charset = "UTF-8"

// SendAPI is the subset of the SES v2 client used by Mailer.
type SendAPI interface {
	SendEmail(ctx context.Context, in *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// Mailer sends one SES message per call.
type Mailer struct {
	client SendAPI
	from   string
}

// NewMailer builds an SES client from cfg. An empty MailFromName sends from the bare address.
func NewMailer(ctx context.Context, cfg *config.Config) (*Mailer, error) {
	awsCfg, err := awsconf.Load(ctx, cfg, "")
	if err != nil {
		return nil, fmt.Errorf("load AWS config for SES: %w", err)
	}
	endpoint := awsconf.Endpoint(cfg)
	client := sesv2.NewFromConfig(awsCfg, func(o *sesv2.Options) {
		if endpoint != nil {
			o.BaseEndpoint = endpoint
		}
	})
	return NewMailerWithAPI(client, cfg.MailFromName, cfg.MailFromAddress), nil
}

// NewMailerWithAPI wraps an existing SES client.
func NewMailerWithAPI(client SendAPI, fromName, fromAddress string) *Mailer {
	from := fromAddress
	if fromName != "" {
		from = (&mail.Address{Name: fromName, Address: fromAddress}).String()
	}
	return &Mailer{client: client, from: from}
}

func (m *Mailer) SendEmail(ctx context.Context, to []string, subject, body string) error {
	_, err := m.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(m.from),
		Destination:      &types.Destination{ToAddresses: to},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(subject), Charset: aws.String(charset)},
				Body: &types.Body{
					Text: &types.Content{Data: aws.String(body), Charset: aws.String(charset)},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("ses send email: %w", err)
	}
	return nil
}
