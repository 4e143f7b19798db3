package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/JosephStocks/roberthalf-scraper/internal/model"
)

// Authenticator produces a fresh session by driving an interactive login.
// Implementations may be slow (tens of seconds) and are only invoked when no
// cached session is usable.
type Authenticator interface {
	Login(ctx context.Context) (*model.Session, error)
}

// State is the manager's position in the session lifecycle.
type State int

const (
	StateNoSession State = iota
	StateLoaded
	StateValidating
	StateValid
	StateRefreshing
)

func (s State) String() string {
	switch s {
	case StateNoSession:
		return "no_session"
	case StateLoaded:
		return "loaded"
	case StateValidating:
		return "validating"
	case StateValid:
		return "valid"
	case StateRefreshing:
		return "refreshing"
	default:
		return "unknown"
	}
}

// Manager is the authoritative session lifecycle state machine. It owns the
// current session record exclusively: nothing else reads the store or calls
// the authenticator.
type Manager struct {
	store     Store
	validator Validator
	auth      Authenticator
	maxAge    time.Duration
	now       func() time.Time
	logger    *slog.Logger

	state   State
	current *model.Session
}

// NewManager wires the session lifecycle dependencies. now is injectable for
// freshness tests; pass nil for time.Now.
func NewManager(store Store, validator Validator, auth Authenticator, maxAge time.Duration, now func() time.Time, logger *slog.Logger) *Manager {
	if now == nil {
		now = time.Now
	}
	return &Manager{
		store:     store,
		validator: validator,
		auth:      auth,
		maxAge:    maxAge,
		now:       now,
		logger:    logger,
		state:     StateNoSession,
	}
}

// State reports the manager's current lifecycle state.
func (m *Manager) State() State {
	return m.state
}

// Get returns a usable session, reusing the cached record when the validator
// accepts it and falling back to a full interactive login otherwise. It fails
// with *model.AuthError only when the authenticator itself fails.
func (m *Manager) Get(ctx context.Context) (*model.Session, error) {
	// Already validated during this run.
	if m.state == StateValid && m.current != nil {
		return m.current, nil
	}

	sess, err := m.store.Load()
	switch {
	case err == nil:
		m.state = StateLoaded
		m.current = sess
	case err == model.ErrNoSession:
		m.logger.Info("no persisted session, login required")
		return m.refresh(ctx)
	default:
		return nil, fmt.Errorf("load session: %w", err)
	}

	if !sess.Fresh(m.maxAge, m.now()) {
		m.logger.Info("persisted session is stale, refreshing",
			"age", m.now().Sub(sess.AcquiredAt).Round(time.Minute), "max_age", m.maxAge)
		return m.refresh(ctx)
	}

	m.state = StateValidating
	if !m.validator.Usable(ctx, sess) {
		m.logger.Info("persisted session rejected by probe, refreshing")
		return m.refresh(ctx)
	}

	m.state = StateValid
	m.logger.Info("reusing persisted session",
		"acquired_at", sess.AcquiredAt.Format(time.RFC3339))
	return sess, nil
}

// Invalidate discards the current session in memory and on disk, forcing the
// next Get to perform a full login. Called when the upstream rejects a
// session mid-run.
func (m *Manager) Invalidate() {
	m.current = nil
	m.state = StateNoSession
	if err := m.store.Clear(); err != nil {
		m.logger.Error("failed to clear persisted session", "error", err)
	}
}

// refresh drives the authenticator and persists the replacement record. The
// prior record is only replaced after a successful login; a login failure
// leaves nothing persisted.
func (m *Manager) refresh(ctx context.Context) (*model.Session, error) {
	m.state = StateRefreshing
	m.current = nil

	sess, err := m.auth.Login(ctx)
	if err != nil {
		m.state = StateNoSession
		return nil, &model.AuthError{Err: err}
	}

	if err := m.store.Save(sess); err != nil {
		// A save failure costs a login next run but does not sink this one.
		m.logger.Error("failed to persist refreshed session", "error", err)
	}

	m.state = StateValid
	m.current = sess
	m.logger.Info("session refreshed", "cookies", len(sess.Cookies))
	return sess, nil
}
