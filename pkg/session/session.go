// Package session tracks who is logged in. It holds the access and refresh
// tokens, persists them to the state store, and caches the user profile
// for the lifetime of the process.
//
// States:
//
//	Unauthenticated ──Login/Init──▶ Authenticating ──ok──▶ Authenticated
//	       ▲                               │                     │
//	       └───────────rejected────────────┘◀──Logout/rejected───┘
//
// The Store is the API client's token source; while Unauthenticated it
// hands out no token, so requests go out without an Authorization header.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/shashiranjanraj/nexus/app/models"
	"github.com/shashiranjanraj/nexus/pkg/auth"
	"github.com/shashiranjanraj/nexus/pkg/event"
	nxhttp "github.com/shashiranjanraj/nexus/pkg/http"
	"github.com/shashiranjanraj/nexus/pkg/logger"
	"github.com/shashiranjanraj/nexus/pkg/metrics"
	"github.com/shashiranjanraj/nexus/pkg/notification"
	"github.com/shashiranjanraj/nexus/pkg/storage"
	"github.com/shashiranjanraj/nexus/pkg/validate"
)

var (
	// ErrAuthentication is returned when the backend rejects credentials.
	ErrAuthentication = errors.New("session: authentication failed")
	// ErrNotAuthenticated is returned by operations that need a login.
	ErrNotAuthenticated = errors.New("session: not logged in")
)

// State is the session lifecycle position.
type State int

const (
	Unauthenticated State = iota
	Authenticating
	Authenticated
)

func (s State) String() string {
	switch s {
	case Authenticating:
		return "authenticating"
	case Authenticated:
		return "authenticated"
	default:
		return "unauthenticated"
	}
}

// AuthAPI is the part of the backend the session talks to.
type AuthAPI interface {
	ObtainToken(ctx context.Context, c models.Credentials) (models.Tokens, error)
	RefreshToken(ctx context.Context, refresh string) (models.Tokens, error)
	Register(ctx context.Context, r models.Registration) error
	Me(ctx context.Context) (models.User, error)
	UpdateMe(ctx context.Context, p models.ProfileUpdate) (models.User, error)
}

// Snapshot is what subscribers receive after every transition.
type Snapshot struct {
	State State
	User  *models.User
}

// Store is the session. It is safe for concurrent use.
type Store struct {
	api      AuthAPI
	state    storage.Store
	notifier notification.Notifier
	now      func() time.Time

	mu      sync.RWMutex
	current State
	access  string
	refresh string
	user    *models.User

	fetch   singleflight.Group
	changes event.Bus[Snapshot]
}

// New returns an Unauthenticated session. Call Init to pick up stored tokens.
func New(api AuthAPI, state storage.Store, n notification.Notifier) *Store {
	if n == nil {
		n = notification.Discard
	}
	return &Store{api: api, state: state, notifier: n, now: time.Now}
}

// ------------------- Reads -------------------

// Token returns the access token to present, or "" when logged out.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == Unauthenticated {
		return ""
	}
	return s.access
}

// State returns the current state.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// User returns a copy of the cached profile.
func (s *Store) User() (models.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return models.User{}, false
	}
	return *s.user, true
}

// IsAdmin reports whether the logged-in user is staff.
func (s *Store) IsAdmin() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current == Authenticated && s.user != nil && s.user.IsStaff
}

// Subscribe registers fn for every state transition.
func (s *Store) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	return s.changes.Subscribe(fn)
}

// ------------------- Lifecycle -------------------

// Init validates the stored token by fetching the profile. It never fails:
// a missing, malformed or rejected token leaves the session
// Unauthenticated. An expired access token is exchanged once through the
// stored refresh token before giving up.
func (s *Store) Init(ctx context.Context) {
	log := logger.WithCtx(ctx)

	access := s.read(ctx, storage.KeyAccessToken)
	if access == "" {
		s.transition(Unauthenticated, nil)
		return
	}
	refresh := s.read(ctx, storage.KeyRefreshToken)

	s.mu.Lock()
	s.access, s.refresh = access, refresh
	s.mu.Unlock()
	s.transition(Authenticating, nil)

	expired, err := auth.Expired(access, s.now())
	switch {
	case err != nil:
		log.Debug("session: stored access token is malformed", "error", err)
		s.discard(ctx)
		return
	case expired && refresh == "":
		log.Debug("session: stored access token expired, no refresh token")
		s.discard(ctx)
		return
	case expired:
		log.Debug("session: stored access token expired, refreshing")
		if err := s.exchange(ctx, refresh); err != nil {
			log.Debug("session: refresh token rejected", "error", err)
			s.discard(ctx)
			return
		}
	}

	user, err := s.api.Me(ctx)
	if err != nil {
		s.reject(ctx, err)
		return
	}
	s.transition(Authenticated, &user)
}

// Login exchanges credentials for tokens and loads the profile. Nothing is
// persisted unless both steps succeed.
func (s *Store) Login(ctx context.Context, username, password string) (models.User, error) {
	creds := models.Credentials{Username: username, Password: password}
	if err := validate.Check(creds); err != nil {
		s.notifier.Notify(notification.Error("Login Failed", err.Error()))
		return models.User{}, fmt.Errorf("%w: %w", ErrAuthentication, err)
	}

	s.transition(Authenticating, nil)

	tokens, err := s.api.ObtainToken(ctx, creds)
	if err != nil {
		s.clear()
		s.transition(Unauthenticated, nil)
		s.notifier.Notify(notification.Error("Login Failed", failureMessage(err, "Invalid credentials")))
		return models.User{}, loginError(err)
	}

	s.mu.Lock()
	s.access, s.refresh = tokens.Access, tokens.Refresh
	s.mu.Unlock()

	user, err := s.api.Me(ctx)
	if err != nil {
		s.clear()
		s.transition(Unauthenticated, nil)
		s.notifier.Notify(notification.Error("Login Failed", "Failed to load profile"))
		return models.User{}, fmt.Errorf("session: load profile: %w", err)
	}

	s.persist(ctx, tokens)
	s.transition(Authenticated, &user)
	s.notifier.Notify(notification.Success("Welcome back!", "You have successfully logged in."))
	return user, nil
}

// Register creates the account and logs straight in.
func (s *Store) Register(ctx context.Context, r models.Registration) (models.User, error) {
	if err := validate.Check(r); err != nil {
		s.notifier.Notify(notification.Error("Registration failed", err.Error()))
		return models.User{}, err
	}
	if err := s.api.Register(ctx, r); err != nil {
		s.notifier.Notify(notification.Error("Registration failed", failureMessage(err, "Something went wrong")))
		return models.User{}, fmt.Errorf("session: register: %w", err)
	}
	return s.Login(ctx, r.Username, r.Password)
}

// Logout forgets the tokens and the profile.
func (s *Store) Logout(ctx context.Context) {
	s.discard(ctx)
}

// Refresh re-validates the token and re-fetches the profile. Concurrent
// callers share one request, which is not cancelled when the caller that
// started it gives up; each caller still returns on its own ctx. A rejected
// token logs the session out.
func (s *Store) Refresh(ctx context.Context) (models.User, error) {
	if s.Token() == "" {
		return models.User{}, ErrNotAuthenticated
	}

	shared := context.WithoutCancel(ctx)
	ch := s.fetch.DoChan("me", func() (interface{}, error) {
		return s.api.Me(shared)
	})
	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return models.User{}, ctx.Err()
	}
	v, err := res.Val, res.Err
	if err != nil {
		if rejected(err) {
			s.reject(ctx, err)
			return models.User{}, fmt.Errorf("%w: %w", ErrNotAuthenticated, err)
		}
		return models.User{}, err
	}

	user := v.(models.User)
	s.transition(Authenticated, &user)
	return user, nil
}

// UpdateProfile patches the profile and refreshes the cached copy.
func (s *Store) UpdateProfile(ctx context.Context, p models.ProfileUpdate) (models.User, error) {
	if s.Token() == "" {
		return models.User{}, ErrNotAuthenticated
	}
	p.Phone = validate.NormalizePhone(p.Phone)
	if err := validate.Check(p); err != nil {
		return models.User{}, err
	}
	if _, err := s.api.UpdateMe(ctx, p); err != nil {
		s.notifier.Notify(notification.Error("Update failed", failureMessage(err, "Could not update profile")))
		return models.User{}, fmt.Errorf("session: update profile: %w", err)
	}
	user, err := s.Refresh(ctx)
	if err != nil {
		return models.User{}, err
	}
	s.notifier.Notify(notification.Success("Profile updated", ""))
	return user, nil
}

// ------------------- Internals -------------------

func (s *Store) exchange(ctx context.Context, refresh string) error {
	tokens, err := s.api.RefreshToken(ctx, refresh)
	if err != nil {
		return err
	}
	if tokens.Refresh == "" {
		tokens.Refresh = refresh
	}
	s.mu.Lock()
	s.access, s.refresh = tokens.Access, tokens.Refresh
	s.mu.Unlock()
	s.persist(ctx, tokens)
	return nil
}

// reject handles a failed profile fetch. Only an explicit 401/403 discards
// the stored tokens; a backend that cannot be reached leaves them for the
// next start.
func (s *Store) reject(ctx context.Context, err error) {
	log := logger.WithCtx(ctx)
	if rejected(err) {
		log.Debug("session: token rejected by backend", "error", err)
		s.discard(ctx)
		return
	}
	log.Debug("session: could not validate token", "error", err)
	s.clear()
	s.transition(Unauthenticated, nil)
}

func (s *Store) discard(ctx context.Context) {
	s.clear()
	for _, key := range []string{storage.KeyAccessToken, storage.KeyRefreshToken} {
		if err := s.state.Delete(ctx, key); err != nil {
			metrics.PersistFailed(key, "delete")
			logger.WithCtx(ctx).Warn("session: delete token failed", "key", key, "error", err)
		}
	}
	s.transition(Unauthenticated, nil)
}

func (s *Store) clear() {
	s.mu.Lock()
	s.access, s.refresh, s.user = "", "", nil
	s.mu.Unlock()
}

func (s *Store) persist(ctx context.Context, t models.Tokens) {
	s.write(ctx, storage.KeyAccessToken, t.Access)
	if t.Refresh != "" {
		s.write(ctx, storage.KeyRefreshToken, t.Refresh)
	}
}

func (s *Store) write(ctx context.Context, key, value string) {
	if err := s.state.Put(ctx, key, []byte(value)); err != nil {
		metrics.PersistFailed(key, "write")
		logger.WithCtx(ctx).Warn("session: persist token failed", "key", key, "error", err)
	}
}

func (s *Store) read(ctx context.Context, key string) string {
	raw, err := s.state.Get(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		return ""
	}
	if err != nil {
		metrics.PersistFailed(key, "read")
		logger.WithCtx(ctx).Debug("session: read token failed", "key", key, "error", err)
		return ""
	}
	return string(raw)
}

func (s *Store) transition(to State, user *models.User) {
	s.mu.Lock()
	s.current = to
	if to == Authenticated {
		s.user = user
	}
	snap := Snapshot{State: to}
	if s.user != nil {
		u := *s.user
		snap.User = &u
	}
	s.mu.Unlock()

	s.changes.Publish(snap)
}

func rejected(err error) bool {
	status := nxhttp.StatusOf(err)
	return status == 401 || status == 403
}

func loginError(err error) error {
	var apiErr *nxhttp.APIError
	if errors.As(err, &apiErr) && apiErr.Status < 500 {
		return fmt.Errorf("%w: %w", ErrAuthentication, err)
	}
	return fmt.Errorf("session: login: %w", err)
}

func failureMessage(err error, fallback string) string {
	var apiErr *nxhttp.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	var verrs validate.Errors
	if errors.As(err, &verrs) {
		return verrs.First()
	}
	return fallback
}
