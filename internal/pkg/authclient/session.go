package authclient

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"
)

// State of a client session
type State int

const (
	StateAnonymous State = iota
	StateAuthenticated
)

func (s State) String() string {
	if s == StateAuthenticated {
		return "authenticated"
	}
	return "anonymous"
}

// EventType names a session transition
type EventType string

const (
	EventSignedIn       EventType = "SIGNED_IN"
	EventSignedOut      EventType = "SIGNED_OUT"
	EventTokenRefreshed EventType = "TOKEN_REFRESHED"
	EventUserUpdated    EventType = "USER_UPDATED"
)

// Event is delivered to listeners after the session changed
type Event struct {
	Type EventType
	User *User
}

// Listener observes session events
type Listener func(Event)

// Session keeps the current identity and token consistent with the server.
// The {token, user} pair is replaced or cleared as a unit.
type Session struct {
	backend AuthBackend
	store   Store
	logger  zerolog.Logger

	mu    sync.RWMutex
	creds *Credentials

	listenersMu sync.RWMutex
	listeners   []Listener
}

// SessionOption configures a Session
type SessionOption func(*Session)

// WithStore persists the session between runs
func WithStore(store Store) SessionOption {
	return func(s *Session) { s.store = store }
}

// WithLogger sets the session logger
func WithLogger(l zerolog.Logger) SessionOption {
	return func(s *Session) { s.logger = l }
}

// NewSession creates an anonymous session
func NewSession(backend AuthBackend, opts ...SessionOption) *Session {
	s := &Session{backend: backend, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OnChange registers a listener and returns a function removing it
func (s *Session) OnChange(l Listener) func() {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()
	s.listeners = append(s.listeners, l)
	idx := len(s.listeners) - 1
	return func() {
		s.listenersMu.Lock()
		defer s.listenersMu.Unlock()
		if idx < len(s.listeners) {
			s.listeners[idx] = nil
		}
	}
}

// emit calls listeners outside the lock so they may subscribe or unsubscribe.
func (s *Session) emit(ev Event) {
	s.listenersMu.RLock()
	listeners := make([]Listener, len(s.listeners))
	copy(listeners, s.listeners)
	s.listenersMu.RUnlock()

	for _, l := range listeners {
		if l != nil {
			l(ev)
		}
	}
}

// State returns the current state
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.creds == nil {
		return StateAnonymous
	}
	return StateAuthenticated
}

// User returns the cached identity or nil when anonymous
func (s *Session) User() *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.creds == nil || s.creds.User == nil {
		return nil
	}
	u := *s.creds.User
	return &u
}

// AccessToken returns the cached token or "" when anonymous
func (s *Session) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.creds == nil {
		return ""
	}
	return s.creds.Token.AccessToken
}

// Restore loads persisted credentials. A stale token is detected on the first
// authenticated call, which signs the session out.
func (s *Session) Restore() error {
	if s.store == nil {
		return nil
	}
	creds, err := s.store.Load()
	if err != nil {
		return err
	}
	if creds == nil {
		return nil
	}
	s.mu.Lock()
	s.creds = creds
	s.mu.Unlock()
	s.emit(Event{Type: EventSignedIn, User: creds.User})
	return nil
}

func (s *Session) replace(res *AuthResult, evType EventType) error {
	if res == nil || res.Token.AccessToken == "" {
		return errors.New("auth backend returned no token")
	}
	creds := &Credentials{Token: res.Token, User: res.User}

	s.mu.Lock()
	if evType == EventTokenRefreshed && creds.User == nil && s.creds != nil {
		creds.User = s.creds.User
	}
	s.creds = creds
	if s.store != nil {
		if err := s.store.Save(creds); err != nil {
			s.logger.Warn().Err(err).Msg("Failed to persist session")
		}
	}
	s.mu.Unlock()

	s.emit(Event{Type: evType, User: creds.User})
	return nil
}

func (s *Session) clear() {
	s.mu.Lock()
	wasAuthenticated := s.creds != nil
	s.creds = nil
	if s.store != nil {
		if err := s.store.Clear(); err != nil {
			s.logger.Warn().Err(err).Msg("Failed to clear persisted session")
		}
	}
	s.mu.Unlock()

	if wasAuthenticated {
		s.emit(Event{Type: EventSignedOut})
	}
}

// Login authenticates with email and password
func (s *Session) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	res, err := s.backend.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return res, s.replace(res, EventSignedIn)
}

// Register creates an account and signs in
func (s *Session) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	res, err := s.backend.Register(ctx, in)
	if err != nil {
		return nil, err
	}
	return res, s.replace(res, EventSignedIn)
}

// Refresh exchanges the refresh token for a new pair
func (s *Session) Refresh(ctx context.Context) (*AuthResult, error) {
	s.mu.RLock()
	creds := s.creds
	s.mu.RUnlock()
	if creds == nil {
		return nil, ErrUnauthenticated
	}

	res, err := s.backend.Refresh(ctx, creds.Token.AccessToken, creds.Token.RefreshToken)
	if err != nil {
		if errors.Is(err, ErrUnauthenticated) {
			s.logger.Info().Msg("Session rejected by server, signing out")
			s.clear()
		}
		return nil, err
	}
	return res, s.replace(res, EventTokenRefreshed)
}

// Logout revokes the session server-side and always clears it locally
func (s *Session) Logout(ctx context.Context) error {
	s.mu.RLock()
	creds := s.creds
	s.mu.RUnlock()
	if creds == nil {
		return nil
	}

	err := s.backend.Logout(ctx, creds.Token.AccessToken, creds.Token.RefreshToken)
	s.clear()
	if err != nil && !errors.Is(err, ErrUnauthenticated) {
		return err
	}
	return nil
}

// Call runs fn with the current token. A rejected token signs the session out.
func (s *Session) Call(ctx context.Context, fn func(ctx context.Context, token string) error) error {
	token := s.AccessToken()
	if token == "" {
		return ErrUnauthenticated
	}
	err := fn(ctx, token)
	if errors.Is(err, ErrUnauthenticated) {
		s.logger.Info().Msg("Token rejected by server, signing out")
		s.clear()
	}
	return err
}

// CurrentUser re-reads the identity from the server. It returns nil when the
// session is anonymous or the server no longer accepts the token.
func (s *Session) CurrentUser(ctx context.Context) (*User, error) {
	var user *User
	err := s.Call(ctx, func(ctx context.Context, token string) error {
		u, err := s.backend.CurrentUser(ctx, token)
		user = u
		return err
	})
	if errors.Is(err, ErrUnauthenticated) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	s.setUser(user)
	return user, nil
}

func (s *Session) setUser(user *User) {
	if user == nil {
		return
	}
	s.mu.Lock()
	if s.creds == nil {
		s.mu.Unlock()
		return
	}
	creds := &Credentials{Token: s.creds.Token, User: user}
	s.creds = creds
	if s.store != nil {
		if err := s.store.Save(creds); err != nil {
			s.logger.Warn().Err(err).Msg("Failed to persist session")
		}
	}
	s.mu.Unlock()
	s.emit(Event{Type: EventUserUpdated, User: user})
}

// UpdateProfile changes the current user's profile
func (s *Session) UpdateProfile(ctx context.Context, update ProfileUpdate) (*User, error) {
	var user *User
	err := s.Call(ctx, func(ctx context.Context, token string) error {
		u, err := s.backend.UpdateProfile(ctx, token, update)
		user = u
		return err
	})
	if err != nil {
		return nil, err
	}
	s.setUser(user)
	return user, nil
}

// ListUsers lists every user (admin only)
func (s *Session) ListUsers(ctx context.Context) ([]User, error) {
	var users []User
	err := s.Call(ctx, func(ctx context.Context, token string) error {
		u, err := s.backend.ListUsers(ctx, token)
		users = u
		return err
	})
	return users, err
}

// UpdateUserRole changes the role of the user with the given email (admin only)
func (s *Session) UpdateUserRole(ctx context.Context, email, role string) (*User, error) {
	var user *User
	err := s.Call(ctx, func(ctx context.Context, token string) error {
		u, err := s.backend.UpdateUserRole(ctx, token, email, role)
		user = u
		return err
	})
	if err != nil {
		return nil, err
	}
	if current := s.User(); current != nil && user != nil && current.ID == user.ID {
		s.setUser(user)
	}
	return user, nil
}
