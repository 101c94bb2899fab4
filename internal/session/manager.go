package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/lavolpecheprogramma/tanklog/internal/errs"
	"github.com/lavolpecheprogramma/tanklog/internal/model"
)

// ExpirySkew is subtracted from a token's remaining lifetime before it is
// considered fresh, so a token is never handed out moments before upstream
// rejects it.
const ExpirySkew = 30 * time.Second

const (
	readyPollInterval = 50 * time.Millisecond
	readyTimeout      = 10 * time.Second
)

// Manager owns the single user session: acquisition, freshness, silent
// refresh and persistence. Concurrent token requests are collapsed into one
// upstream call.
type Manager struct {
	identity IdentityClient
	profiles ProfileFetcher
	store    Store
	log      *zap.Logger

	now          func() time.Time
	pollInterval time.Duration
	pollTimeout  time.Duration

	flight singleflight.Group

	mu               sync.Mutex
	sess             *model.Session
	profile          *model.UserProfile
	hydrated         bool
	needsInteraction bool
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock overrides the time source. Used in tests.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithReadyPolicy overrides how long and how often to wait for the identity
// service to load.
func WithReadyPolicy(interval, timeout time.Duration) Option {
	return func(m *Manager) {
		m.pollInterval = interval
		m.pollTimeout = timeout
	}
}

// NewManager builds a Manager. The session is not loaded until Hydrate or
// the first operation that needs it.
func NewManager(identity IdentityClient, profiles ProfileFetcher, store Store, log *zap.Logger, opts ...Option) *Manager {
	m := &Manager{
		identity:     identity,
		profiles:     profiles,
		store:        store,
		log:          log,
		now:          time.Now,
		pollInterval: readyPollInterval,
		pollTimeout:  readyTimeout,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Hydrate loads the persisted session, if any. A stored value that fails
// the shape check is discarded and removed from the store. Hydrate is
// idempotent.
func (m *Manager) Hydrate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hydrateLocked()
}

func (m *Manager) hydrateLocked() {
	if m.hydrated {
		return
	}
	m.hydrated = true

	sess, err := m.store.Load()
	if err != nil {
		m.log.Debug("discarding unreadable stored session", zap.Error(err))
		_ = m.store.Clear()
		return
	}
	if sess == nil {
		return
	}
	if !validShape(sess) {
		m.log.Debug("discarding malformed stored session")
		_ = m.store.Clear()
		return
	}
	m.sess = sess
	if sess.User != nil {
		cp := *sess.User
		m.profile = &cp
	}
}

// validShape checks the minimal structure of a stored session before it is
// trusted. Expired sessions pass: they still carry the account hint used
// for silent refresh.
func validShape(sess *model.Session) bool {
	return sess.AccessToken != "" && !sess.ExpiresAt.IsZero()
}

// fresh reports whether the session's token can still be used, leaving
// ExpirySkew of margin before the actual expiry.
func (m *Manager) fresh(sess *model.Session) bool {
	return sess != nil && sess.AccessToken != "" && sess.ExpiresAt.After(m.now().Add(ExpirySkew))
}

// IsAuthenticated reports whether a fresh session is held.
func (m *Manager) IsAuthenticated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hydrateLocked()
	return m.fresh(m.sess)
}

// NeedsInteraction reports whether the last silent refresh concluded that
// only an interactive login can restore the session.
func (m *Manager) NeedsInteraction() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.needsInteraction
}

// Session returns a copy of the current session, or nil.
func (m *Manager) Session() *model.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hydrateLocked()
	if m.sess == nil {
		return nil
	}
	cp := *m.sess
	return &cp
}

// CurrentUser returns the display profile, or nil when unknown.
func (m *Manager) CurrentUser() *model.UserProfile {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hydrateLocked()
	if m.profile == nil {
		return nil
	}
	cp := *m.profile
	return &cp
}

// HandleCredential records the display profile carried by a signed identity
// assertion. The assertion grants no API access and is never used for
// authorization.
func (m *Manager) HandleCredential(credential string) error {
	profile, err := DecodeCredentialProfile(credential)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profile = &profile
	return nil
}

// awaitIdentity waits for the identity service to finish loading, polling
// at a fixed interval up to a hard timeout. Fails closed.
func (m *Manager) awaitIdentity(ctx context.Context) error {
	if m.identity.Ready() {
		return nil
	}
	deadline := time.NewTimer(m.pollTimeout)
	defer deadline.Stop()
	tick := time.NewTicker(m.pollInterval)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			return fmt.Errorf("identity service not ready after %s: %w", m.pollTimeout, errs.ErrAuthRequired)
		case <-tick.C:
			if m.identity.Ready() {
				return nil
			}
		}
	}
}

// AcquireToken requests a token from the identity service at the given
// interactivity level. Concurrent calls share one upstream request and all
// receive the same session or the same error. On success the session is
// replaced wholesale and persisted.
func (m *Manager) AcquireToken(ctx context.Context, prompt Prompt, hint string) (*model.Session, error) {
	v, err, _ := m.flight.Do("token", func() (any, error) {
		if err := m.awaitIdentity(ctx); err != nil {
			return nil, err
		}
		grant, err := m.identity.RequestToken(ctx, prompt, hint)
		if err != nil {
			return nil, err
		}
		if grant.AccessToken == "" {
			return nil, errors.New("identity service returned an empty token")
		}
		now := m.now()
		sess := &model.Session{
			AccessToken: grant.AccessToken,
			TokenType:   grant.TokenType,
			Scope:       grant.Scope,
			CreatedAt:   now,
			ExpiresAt:   now.Add(grant.ExpiresIn),
		}
		m.setSession(sess)
		return sess, nil
	})
	if err != nil {
		return nil, err
	}
	sess := v.(*model.Session)
	cp := *sess
	return &cp, nil
}

// setSession installs sess as the one current session, attaching the known
// profile, and persists it.
func (m *Manager) setSession(sess *model.Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hydrateLocked()
	if sess.User == nil && m.profile != nil {
		cp := *m.profile
		sess.User = &cp
	}
	m.sess = sess
	m.needsInteraction = false
	if err := m.store.Save(sess); err != nil {
		m.log.Debug("persisting session failed", zap.Error(err))
	}
}

// Invalidate drops the current session after the API rejected its token.
// The interaction flag is raised so the UI can signal a re-login; a
// successful silent refresh on the next Token call lowers it again.
func (m *Manager) Invalidate() {
	m.clearSession()
	m.mu.Lock()
	m.needsInteraction = true
	m.mu.Unlock()
}

// clearSession drops the in-memory session and the stored copy.
func (m *Manager) clearSession() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sess = nil
	if err := m.store.Clear(); err != nil {
		m.log.Debug("clearing stored session failed", zap.Error(err))
	}
}

// TrySilentRefresh attempts to restore a fresh session without user
// interaction. When the identity service reports that interaction is
// required the session is cleared, the interaction flag is set and no error
// is returned: a nil session tells the caller to log in. Any other failure
// also clears the session but is surfaced.
func (m *Manager) TrySilentRefresh(ctx context.Context) (*model.Session, error) {
	m.mu.Lock()
	m.hydrateLocked()
	if m.fresh(m.sess) {
		cp := *m.sess
		m.mu.Unlock()
		return &cp, nil
	}
	hint := ""
	if m.profile != nil {
		hint = m.profile.Email
	} else if m.sess != nil && m.sess.User != nil {
		hint = m.sess.User.Email
	}
	m.mu.Unlock()

	sess, err := m.AcquireToken(ctx, PromptNone, hint)
	if err != nil {
		m.clearSession()
		if interactionRequired(err) {
			m.mu.Lock()
			m.needsInteraction = true
			m.mu.Unlock()
			m.log.Debug("silent refresh needs interaction", zap.Error(err))
			return nil, nil
		}
		return nil, fmt.Errorf("silent refresh: %w", err)
	}
	return sess, nil
}

// Token returns a usable bearer token, silently refreshing if the held one
// is stale. Returns errs.ErrAuthRequired when only an interactive login can
// produce one. Satisfies sheets.TokenSource.
func (m *Manager) Token(ctx context.Context) (string, error) {
	sess, err := m.TrySilentRefresh(ctx)
	if err != nil {
		return "", err
	}
	if sess == nil {
		return "", errs.ErrAuthRequired
	}
	return sess.AccessToken, nil
}

// Login acquires a session interactively and resolves the user profile.
// A profile fetch failure does not fail the login.
func (m *Manager) Login(ctx context.Context, prompt Prompt) (*model.Session, error) {
	m.mu.Lock()
	m.hydrateLocked()
	m.needsInteraction = false
	hint := ""
	if m.profile != nil {
		hint = m.profile.Email
	}
	m.mu.Unlock()

	sess, err := m.AcquireToken(ctx, prompt, hint)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	if sess.User == nil && m.profiles != nil {
		profile, err := m.profiles.Fetch(ctx, sess.AccessToken)
		if err != nil {
			m.log.Debug("resolving user profile failed", zap.Error(err))
		} else {
			m.mu.Lock()
			m.profile = &profile
			if m.sess != nil {
				cp := profile
				m.sess.User = &cp
				if saveErr := m.store.Save(m.sess); saveErr != nil {
					m.log.Debug("persisting session failed", zap.Error(saveErr))
				}
				scp := *m.sess
				sess = &scp
			}
			m.mu.Unlock()
		}
	}
	return sess, nil
}

// Logout drops the session locally and, when revoke is set, invalidates the
// token upstream. Revocation failures are logged and swallowed: the local
// state is already gone.
func (m *Manager) Logout(ctx context.Context, revoke bool) {
	m.mu.Lock()
	m.hydrateLocked()
	token := ""
	if m.sess != nil {
		token = m.sess.AccessToken
	}
	m.sess = nil
	m.profile = nil
	m.needsInteraction = false
	if err := m.store.Clear(); err != nil {
		m.log.Debug("clearing stored session failed", zap.Error(err))
	}
	m.mu.Unlock()

	if revoke && token != "" {
		if err := m.identity.Revoke(ctx, token); err != nil {
			m.log.Debug("token revocation failed", zap.Error(err))
		}
	}
}
