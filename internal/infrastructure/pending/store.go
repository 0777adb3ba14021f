// Package pending stores in-flight report registrations keyed by normalized
// email, falling back from a remote backend to a JSON file to process memory.
package pending

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/lead-capture-api/internal/domain"
)

// ErrUnavailable marks a backend failure that pins the store to the next backend.
var ErrUnavailable = errors.New("pending backend unavailable")

// Backend is one storage layer. Load returns nil, nil for absent or unreadable
// records; Save replaces the whole record.
type Backend interface {
	Name() string
	Load(ctx context.Context, email string) (*domain.PendingRegistration, error)
	Save(ctx context.Context, rec *domain.PendingRegistration) error
}

// Store is the layered pending-record store. Degradation is one-way: once a
// backend reports ErrUnavailable it is never tried again.
type Store struct {
	mu       sync.Mutex // guards active
	backends []Backend
	active   int
	locks    keyLocks
	now      func() time.Time
}

// New returns a Store over backends in priority order. An in-memory backend is
// appended when the last given backend is not already one.
func New(backends ...Backend) *Store {
	if len(backends) == 0 {
		backends = []Backend{NewMemory()}
	} else if _, ok := backends[len(backends)-1].(*Memory); !ok {
		backends = append(backends, NewMemory())
	}
	return &Store{backends: backends, now: time.Now}
}

// WithClock sets the clock used for expiry checks. It must match the clock
// that stamps ExpiresAt on stored records.
func (s *Store) WithClock(now func() time.Time) *Store {
	if now != nil {
		s.now = now
	}
	return s
}

// Backend returns the name of the backend currently serving requests.
func (s *Store) Backend() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.backends[s.active].Name()
}

// Get returns the live record for email, or nil when it is absent or expired.
func (s *Store) Get(ctx context.Context, email string) (*domain.PendingRegistration, error) {
	key := domain.NormalizeEmail(email)
	var rec *domain.PendingRegistration
	err := s.do(func(b Backend) error {
		var err error
		rec, err = b.Load(ctx, key)
		return err
	})
	if err != nil {
		return nil, err
	}
	if rec == nil || rec.Expired(s.now()) {
		return nil, nil
	}
	return rec, nil
}

// Upsert replaces the record stored under rec.Email.
func (s *Store) Upsert(ctx context.Context, rec *domain.PendingRegistration) error {
	rec.Email = domain.NormalizeEmail(rec.Email)
	unlock := s.locks.lock(rec.Email)
	defer unlock()
	return s.save(ctx, rec)
}

// Update applies fn to the live record for email under a per-key lock and
// stores the result. It returns domain.ErrSessionInvalid when no live record
// exists; an error from fn aborts without writing.
func (s *Store) Update(ctx context.Context, email string, fn func(*domain.PendingRegistration) error) (*domain.PendingRegistration, error) {
	key := domain.NormalizeEmail(email)
	unlock := s.locks.lock(key)
	defer unlock()

	rec, err := s.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, domain.ErrSessionInvalid
	}
	if err := fn(rec); err != nil {
		return nil, err
	}
	rec.Email = key
	if err := s.save(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *Store) save(ctx context.Context, rec *domain.PendingRegistration) error {
	return s.do(func(b Backend) error { return b.Save(ctx, rec) })
}

// do runs op against the active backend, degrading and retrying on ErrUnavailable.
func (s *Store) do(op func(Backend) error) error {
	for {
		s.mu.Lock()
		idx := s.active
		b := s.backends[idx]
		s.mu.Unlock()

		err := op(b)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrUnavailable) || idx == len(s.backends)-1 {
			return fmt.Errorf("pending store (%s): %w", b.Name(), err)
		}
		s.degrade(idx, err)
	}
}

func (s *Store) degrade(from int, cause error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active != from {
		return
	}
	s.active = from + 1
	slog.Warn("pending store degraded",
		"from", s.backends[from].Name(),
		"to", s.backends[s.active].Name(),
		"err", cause,
	)
}

type keyLock struct {
	sync.Mutex
	refs int
}

// keyLocks hands out one mutex per key and drops it when the last holder unlocks.
type keyLocks struct {
	mu sync.Mutex
	m  map[string]*keyLock
}

func (k *keyLocks) lock(key string) func() {
	k.mu.Lock()
	if k.m == nil {
		k.m = make(map[string]*keyLock)
	}
	l, ok := k.m[key]
	if !ok {
		l = &keyLock{}
		k.m[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.m, key)
		}
		k.mu.Unlock()
	}
}
