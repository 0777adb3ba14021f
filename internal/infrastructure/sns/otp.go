package sns

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"
)

const codeDigits = 6

type otpEntry struct {
	hash      []byte
	expiresAt time.Time
	attempts  int
}

// OTPGateway issues its own six-digit codes and delivers them over SNS. Only a
// bcrypt hash of each code is kept, in memory, keyed by E.164 number.
type OTPGateway struct {
	sender      SMSSender
	ttl         time.Duration
	maxAttempts int
	message     string // fmt format taking the code and the lifetime in minutes

	mu      sync.Mutex
	entries map[string]otpEntry
	now     func() time.Time
	newCode func() (string, error)
}

// NewOTPGateway returns a gateway whose codes live for ttl and allow maxAttempts checks.
func NewOTPGateway(sender SMSSender, ttl time.Duration, maxAttempts int) *OTPGateway {
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	return &OTPGateway{
		sender:      sender,
		ttl:         ttl,
		maxAttempts: maxAttempts,
		message:     "認証コード: %s（%d分間有効）",
		entries:     make(map[string]otpEntry),
		now:         time.Now,
		newCode:     randomCode,
	}
}

// StartVerification replaces any outstanding code for phone and sends a new one.
// The code is stored only after the SMS was accepted.
func (g *OTPGateway) StartVerification(ctx context.Context, phone string) error {
	code, err := g.newCode()
	if err != nil {
		return fmt.Errorf("generate otp: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash otp: %w", err)
	}
	msg := fmt.Sprintf(g.message, code, int(g.ttl.Minutes()))
	if err := g.sender.SendSMS(ctx, phone, msg); err != nil {
		return fmt.Errorf("sns publish: %w", err)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.prune()
	g.entries[phone] = otpEntry{hash: hash, expiresAt: g.now().Add(g.ttl)}
	return nil
}

// CheckVerification consumes the code on success. A wrong code counts as an
// attempt; the entry is dropped once attempts are exhausted or it expired.
func (g *OTPGateway) CheckVerification(_ context.Context, phone, code string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	e, ok := g.entries[phone]
	if !ok {
		return false, nil
	}
	if !g.now().Before(e.expiresAt) {
		delete(g.entries, phone)
		return false, nil
	}
	if bcrypt.CompareHashAndPassword(e.hash, []byte(code)) != nil {
		e.attempts++
		if e.attempts >= g.maxAttempts {
			delete(g.entries, phone)
		} else {
			g.entries[phone] = e
		}
		return false, nil
	}
	delete(g.entries, phone)
	return true, nil
}

// prune drops expired entries. Caller holds g.mu.
func (g *OTPGateway) prune() {
	now := g.now()
	for k, e := range g.entries {
		if !now.Before(e.expiresAt) {
			delete(g.entries, k)
		}
	}
}

func randomCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", codeDigits, n.Int64()), nil
}
