package session

import (
	"context"
	"errors"
	"time"

	"smartattend/internal/apperr"
	"smartattend/internal/metrics"
	"smartattend/internal/roster"
)

const (
	TypeQR     = "qr"
	TypeCode   = "code"
	TypeManual = "manual"

	StatusActive = "active"
	StatusClosed = "closed"
)

const codeInsertRetries = 5

// Store is the persistence surface the service needs.
type Store interface {
	Insert(ctx context.Context, s Session) (Session, error)
	GetByID(ctx context.Context, id int64) (*Session, error)
	LatestByCode(ctx context.Context, code string) (*Session, error)
	CloseIfActive(ctx context.Context, id int64) (bool, error)
	CloseStaleForSlot(ctx context.Context, classID string, slotID int, day, now time.Time) error
	SetCode(ctx context.Context, id int64, code string, expiresAt time.Time, attempts int) (*Session, error)
	ListForClass(ctx context.Context, classID string, day *time.Time) ([]Session, error)
	SweepExpired(ctx context.Context, now time.Time) ([]Closed, error)
}

// CodeCache is the short-lived code→session mapping (Redis in production).
type CodeCache interface {
	CacheCode(ctx context.Context, code string, sessionID int64, ttl time.Duration) error
	LookupCode(ctx context.Context, code string) (int64, bool, error)
	DropCode(ctx context.Context, codes ...string) error
}

// Classes resolves ownership of the class a session belongs to.
type Classes interface {
	EnsureOwnership(ctx context.Context, classID, requesterID, role string) (*roster.Class, error)
}

// Config tunes code generation and expiry.
type Config struct {
	CodeLength    int
	CodeTTL       time.Duration
	MaxCodeResets int
}

// Service owns the session lifecycle: none → active → closed, no reopening.
type Service struct {
	store   Store
	cache   CodeCache
	classes Classes
	cfg     Config
	now     func() time.Time
}

// NewService creates a session service.
func NewService(store Store, cache CodeCache, classes Classes, cfg Config) *Service {
	if cfg.CodeLength <= 0 {
		cfg.CodeLength = 6
	}
	if cfg.CodeTTL <= 0 {
		cfg.CodeTTL = time.Minute
	}
	if cfg.MaxCodeResets <= 0 {
		cfg.MaxCodeResets = 3
	}
	return &Service{store: store, cache: cache, classes: classes, cfg: cfg, now: time.Now}
}

// OpenRequest carries everything needed to open a session.
type OpenRequest struct {
	ClassID     string
	SlotID      int
	Day         time.Time
	Type        string
	RequesterID string
	Role        string
}

// Open creates an active session with a fresh code. An active session for the
// same (class, slot, day) is a Conflict; a stale expired-active one is closed
// first. The storage-level unique index decides races between concurrent opens.
func (s *Service) Open(ctx context.Context, req OpenRequest) (Session, error) {
	if req.ClassID == "" {
		return Session{}, apperr.Validation("class id required")
	}
	if req.SlotID <= 0 {
		return Session{}, apperr.Validation("slot must be positive")
	}
	if req.Type != TypeQR && req.Type != TypeCode && req.Type != TypeManual {
		return Session{}, apperr.Validation("invalid session type")
	}
	if _, err := s.classes.EnsureOwnership(ctx, req.ClassID, req.RequesterID, req.Role); err != nil {
		return Session{}, err
	}

	now := s.now().UTC()
	day := req.Day
	if day.IsZero() {
		day = now
	}
	day = day.Truncate(24 * time.Hour)

	if err := s.store.CloseStaleForSlot(ctx, req.ClassID, req.SlotID, day, now); err != nil {
		return Session{}, err
	}

	expiresAt := now
	if req.Type != TypeManual {
		expiresAt = now.Add(s.cfg.CodeTTL)
	}

	for i := 0; i < codeInsertRetries; i++ {
		code, err := generateCode(s.cfg.CodeLength)
		if err != nil {
			return Session{}, err
		}
		created, err := s.store.Insert(ctx, Session{
			ClassID:   req.ClassID,
			SlotID:    req.SlotID,
			Day:       day,
			Type:      req.Type,
			Code:      code,
			ExpiresAt: expiresAt,
		})
		if err != nil {
			if errors.Is(err, errCodeCollision) {
				continue
			}
			if errors.Is(err, errSlotTaken) {
				return Session{}, apperr.Conflict("an active session already exists for this slot")
			}
			return Session{}, err
		}
		if req.Type != TypeManual {
			// Cache is an optimization; the DB lookup still works without it.
			_ = s.cache.CacheCode(ctx, created.Code, created.ID, s.cfg.CodeTTL)
		}
		metrics.SessionsOpened.WithLabelValues(req.Type).Inc()
		return created, nil
	}
	return Session{}, apperr.Conflict("could not allocate a unique code")
}

// ResetCode issues a new code for an active non-manual session, up to the
// configured number of resets. Exhausting resets closes the session.
func (s *Service) ResetCode(ctx context.Context, sessionID int64, requesterID, role string) (Session, error) {
	sess, err := s.requireOwned(ctx, sessionID, requesterID, role)
	if err != nil {
		return Session{}, err
	}
	if sess.Type == TypeManual {
		return Session{}, apperr.Validation("manual sessions have no code to reset")
	}
	if sess.Status != StatusActive {
		return Session{}, apperr.Conflict("session is closed")
	}
	if sess.Attempts >= s.cfg.MaxCodeResets {
		if _, err := s.store.CloseIfActive(ctx, sess.ID); err != nil {
			return Session{}, err
		}
		_ = s.cache.DropCode(ctx, sess.Code)
		metrics.SessionsClosed.WithLabelValues("reset_exhausted").Inc()
		return Session{}, apperr.Conflict("code resets exhausted")
	}

	now := s.now().UTC()
	for i := 0; i < codeInsertRetries; i++ {
		code, err := generateCode(s.cfg.CodeLength)
		if err != nil {
			return Session{}, err
		}
		updated, err := s.store.SetCode(ctx, sess.ID, code, now.Add(s.cfg.CodeTTL), sess.Attempts+1)
		if err != nil {
			if errors.Is(err, errCodeCollision) {
				continue
			}
			return Session{}, err
		}
		if updated == nil {
			// Closed between our read and the update (teacher or sweep).
			return Session{}, apperr.Conflict("session is closed")
		}
		_ = s.cache.DropCode(ctx, sess.Code)
		_ = s.cache.CacheCode(ctx, updated.Code, updated.ID, s.cfg.CodeTTL)
		return *updated, nil
	}
	return Session{}, apperr.Conflict("could not allocate a unique code")
}

// Close transitions a session active→closed. Closing an already-closed
// session is a Conflict; a missing one is NotFound.
func (s *Service) Close(ctx context.Context, sessionID int64, requesterID, role string) error {
	sess, err := s.requireOwned(ctx, sessionID, requesterID, role)
	if err != nil {
		return err
	}
	closed, err := s.store.CloseIfActive(ctx, sess.ID)
	if err != nil {
		return err
	}
	if !closed {
		return apperr.Conflict("session already closed")
	}
	_ = s.cache.DropCode(ctx, sess.Code)
	metrics.SessionsClosed.WithLabelValues("teacher").Inc()
	return nil
}

// FindByCode resolves a normalized code to the session that most recently
// held it, cache first, storage second. The session may be closed or past its
// window; callers decide what that answers. Nil means the code was never
// issued.
func (s *Service) FindByCode(ctx context.Context, code string) (*Session, error) {
	code = NormalizeCode(code)
	if code == "" {
		return nil, apperr.Validation("code required")
	}

	// The cache only ever holds active codes.
	if id, ok, err := s.cache.LookupCode(ctx, code); err == nil && ok {
		sess, err := s.store.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if sess != nil && sess.Status == StatusActive && sess.Code == code {
			metrics.CodeLookups.WithLabelValues("cache").Inc()
			return sess, nil
		}
	}

	sess, err := s.store.LatestByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		metrics.CodeLookups.WithLabelValues("miss").Inc()
		return nil, nil
	}
	metrics.CodeLookups.WithLabelValues("db").Inc()
	return sess, nil
}

// Get returns a session by id, nil when missing.
func (s *Service) Get(ctx context.Context, sessionID int64) (*Session, error) {
	return s.store.GetByID(ctx, sessionID)
}

// Detail returns a session and its class after an ownership check.
func (s *Service) Detail(ctx context.Context, sessionID int64, requesterID, role string) (Session, *roster.Class, error) {
	sess, err := s.store.GetByID(ctx, sessionID)
	if err != nil {
		return Session{}, nil, err
	}
	if sess == nil {
		return Session{}, nil, apperr.NotFound("session not found")
	}
	cls, err := s.classes.EnsureOwnership(ctx, sess.ClassID, requesterID, role)
	if err != nil {
		return Session{}, nil, err
	}
	return *sess, cls, nil
}

// ListForClass lists sessions after an ownership check, ordered by slot then
// creation time.
func (s *Service) ListForClass(ctx context.Context, classID string, day *time.Time, requesterID, role string) ([]Session, error) {
	if _, err := s.classes.EnsureOwnership(ctx, classID, requesterID, role); err != nil {
		return nil, err
	}
	return s.store.ListForClass(ctx, classID, day)
}

// SweepExpired closes all expired-active sessions and purges their cached
// codes. Safe to run concurrently with request handlers and with itself.
func (s *Service) SweepExpired(ctx context.Context) (int, error) {
	closed, err := s.store.SweepExpired(ctx, s.now().UTC())
	if err != nil {
		return 0, err
	}
	if len(closed) > 0 {
		codes := make([]string, len(closed))
		for i, c := range closed {
			codes[i] = c.Code
		}
		_ = s.cache.DropCode(ctx, codes...)
		metrics.SessionsClosed.WithLabelValues("sweep").Add(float64(len(closed)))
	}
	return len(closed), nil
}

// Expired reports whether the session's submission window has passed.
func (s *Service) Expired(sess *Session) bool {
	return sess.ExpiresAt.Before(s.now().UTC())
}

func (s *Service) requireOwned(ctx context.Context, sessionID int64, requesterID, role string) (*Session, error) {
	sess, err := s.store.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, apperr.NotFound("session not found")
	}
	if _, err := s.classes.EnsureOwnership(ctx, sess.ClassID, requesterID, role); err != nil {
		return nil, err
	}
	return sess, nil
}
