package report

import (
	"context"
	"errors"
	"time"

	"github.com/lead-capture-api/internal/domain"
	"github.com/lead-capture-api/internal/pkg/token"
)

// Carrier names.
const (
	KindStore = "store"
	KindToken = "token"
)

// Carrier keeps a pending registration alive between the three requests of
// the signup flow. Handles are opaque to the service: a normalized email for
// the store carrier, a signed token for the token carrier. Resolve and
// AttachPhone return domain.ErrSessionInvalid for unknown or expired handles.
type Carrier interface {
	Kind() string
	Create(ctx context.Context, rec *domain.PendingRegistration) (handle string, err error)
	Resolve(ctx context.Context, handle string) (*domain.PendingRegistration, error)
	AttachPhone(ctx context.Context, handle, phone string) (newHandle string, err error)
	MarkVerified(ctx context.Context, handle, phone string) error
}

// PendingStore is the minimal interface the store carrier requires.
type PendingStore interface {
	Get(ctx context.Context, email string) (*domain.PendingRegistration, error)
	Upsert(ctx context.Context, rec *domain.PendingRegistration) error
	Update(ctx context.Context, email string, fn func(*domain.PendingRegistration) error) (*domain.PendingRegistration, error)
}

// StoreCarrier keeps records server-side, keyed by normalized email.
type StoreCarrier struct {
	store PendingStore
	ttl   time.Duration
}

func NewStoreCarrier(store PendingStore, ttl time.Duration) *StoreCarrier {
	return &StoreCarrier{store: store, ttl: ttl}
}

func (c *StoreCarrier) Kind() string { return KindStore }

func (c *StoreCarrier) Create(ctx context.Context, rec *domain.PendingRegistration) (string, error) {
	rec.Email = domain.NormalizeEmail(rec.Email)
	rec.ExpiresAt = rec.CreatedAt.Add(c.ttl)
	if err := c.store.Upsert(ctx, rec); err != nil {
		return "", err
	}
	return rec.Email, nil
}

func (c *StoreCarrier) Resolve(ctx context.Context, handle string) (*domain.PendingRegistration, error) {
	rec, err := c.store.Get(ctx, domain.NormalizeEmail(handle))
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, domain.ErrSessionInvalid
	}
	return rec, nil
}

func (c *StoreCarrier) AttachPhone(ctx context.Context, handle, phone string) (string, error) {
	rec, err := c.store.Update(ctx, domain.NormalizeEmail(handle), func(r *domain.PendingRegistration) error {
		r.Phone = phone
		return nil
	})
	if err != nil {
		return "", err
	}
	return rec.Email, nil
}

// MarkVerified flips verified only while the record still carries phone, the
// number the code was checked against. A phone replaced in between yields
// domain.ErrCodeInvalid.
func (c *StoreCarrier) MarkVerified(ctx context.Context, handle, phone string) error {
	_, err := c.store.Update(ctx, domain.NormalizeEmail(handle), func(r *domain.PendingRegistration) error {
		if !r.HasPhone() {
			return domain.ErrSessionInvalid
		}
		if r.Phone != phone {
			return domain.ErrCodeInvalid
		}
		r.Verified = true
		return nil
	})
	return err
}

// TokenCodec is the minimal interface the token carrier requires.
type TokenCodec interface {
	Sign(p token.Payload) (string, error)
	Verify(tok string) (*token.Payload, error)
}

// TokenCarrier keeps no server state: every handle is a signed token holding
// the whole record. Old tokens stay valid until their own expiry.
type TokenCarrier struct {
	codec TokenCodec
}

func NewTokenCarrier(codec TokenCodec) *TokenCarrier {
	return &TokenCarrier{codec: codec}
}

func (c *TokenCarrier) Kind() string { return KindToken }

func (c *TokenCarrier) Create(_ context.Context, rec *domain.PendingRegistration) (string, error) {
	return c.codec.Sign(toPayload(rec))
}

func (c *TokenCarrier) Resolve(_ context.Context, handle string) (*domain.PendingRegistration, error) {
	p, err := c.codec.Verify(handle)
	if err != nil {
		if errors.Is(err, token.ErrInvalid) {
			return nil, domain.ErrSessionInvalid
		}
		return nil, err
	}
	return &domain.PendingRegistration{
		Email:              p.Email,
		Name:               p.Name,
		Address:            p.Addr,
		Phone:              p.Phone,
		DisclaimerAccepted: true,
		ExpiresAt:          time.Unix(p.Exp, 0),
	}, nil
}

func (c *TokenCarrier) AttachPhone(ctx context.Context, handle, phone string) (string, error) {
	rec, err := c.Resolve(ctx, handle)
	if err != nil {
		return "", err
	}
	rec.Phone = phone
	return c.codec.Sign(toPayload(rec))
}

// MarkVerified is a no-op: a token is immutable, so the checked phone is the
// one it carries and a successful code check is itself the completion.
func (c *TokenCarrier) MarkVerified(context.Context, string, string) error { return nil }

func toPayload(rec *domain.PendingRegistration) token.Payload {
	return token.Payload{
		Email: domain.NormalizeEmail(rec.Email),
		Name:  rec.Name,
		Addr:  rec.Address,
		Phone: rec.Phone,
	}
}
