package smtp

import (
	"context"
	"encoding/base64"
	"mime"
	"net/mail"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"github.com/lead-capture-api/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedTime = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

func TestSendEmail_BuildsUTF8Message(t *testing.T) {
	m := NewMailer(&config.Config{
		SMTPHost:        "mail.local",
		SMTPPort:        "2525",
		MailFromAddress: "noreply@example.com",
		MailFromName:    "株式会社テスト",
	})
	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte
	m.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, msg
		return nil
	}

	err := m.SendEmail(context.Background(), []string{"a@b.com", "c@d.com"}, "【申込】山田様", "本文です")
	require.NoError(t, err)

	assert.Equal(t, "mail.local:2525", gotAddr)
	assert.Equal(t, "noreply@example.com", gotFrom)
	assert.Equal(t, []string{"a@b.com", "c@d.com"}, gotTo)

	headers, body, found := strings.Cut(string(gotMsg), "\r\n\r\n")
	require.True(t, found)
	assert.Contains(t, headers, "To: a@b.com, c@d.com")
	assert.Contains(t, headers, "charset=UTF-8")
	assert.Contains(t, headers, "Subject: "+mime.BEncoding.Encode("UTF-8", "【申込】山田様"))

	decoded, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(strings.TrimSpace(body), "\r\n", ""))
	require.NoError(t, err)
	assert.Equal(t, "本文です", string(decoded))
}

func TestSendEmail_NoRecipients(t *testing.T) {
	m := NewMailer(&config.Config{})
	assert.Error(t, m.SendEmail(context.Background(), nil, "s", "b"))
}

func TestBuildMessage_WrapsLongBodies(t *testing.T) {
	msg := string(buildMessage(mail.Address{Address: "noreply@example.com"}, []string{"a@b.com"}, "s", strings.Repeat("あ", 200), fixedTime))
	_, body, _ := strings.Cut(msg, "\r\n\r\n")
	for _, line := range strings.Split(strings.TrimRight(body, "\r\n"), "\r\n") {
		assert.LessOrEqual(t, len(line), 76)
	}
}
