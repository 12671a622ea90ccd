package authclient

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockBackend struct {
	loginFn       func(ctx context.Context, email, password string) (*AuthResult, error)
	registerFn    func(ctx context.Context, in RegisterInput) (*AuthResult, error)
	currentUserFn func(ctx context.Context, token string) (*User, error)
	refreshFn     func(ctx context.Context, token, refreshToken string) (*AuthResult, error)
	logoutFn      func(ctx context.Context, token, refreshToken string) error
	listUsersFn   func(ctx context.Context, token string) ([]User, error)
	updateRoleFn  func(ctx context.Context, token, email, role string) (*User, error)
	updateProfFn  func(ctx context.Context, token string, update ProfileUpdate) (*User, error)
}

var _ AuthBackend = (*mockBackend)(nil)

func (m *mockBackend) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	return m.loginFn(ctx, email, password)
}

func (m *mockBackend) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	return m.registerFn(ctx, in)
}

func (m *mockBackend) CurrentUser(ctx context.Context, token string) (*User, error) {
	return m.currentUserFn(ctx, token)
}

func (m *mockBackend) Refresh(ctx context.Context, token, refreshToken string) (*AuthResult, error) {
	return m.refreshFn(ctx, token, refreshToken)
}

func (m *mockBackend) Logout(ctx context.Context, token, refreshToken string) error {
	return m.logoutFn(ctx, token, refreshToken)
}

func (m *mockBackend) ListUsers(ctx context.Context, token string) ([]User, error) {
	return m.listUsersFn(ctx, token)
}

func (m *mockBackend) UpdateUserRole(ctx context.Context, token, email, role string) (*User, error) {
	return m.updateRoleFn(ctx, token, email, role)
}

func (m *mockBackend) UpdateProfile(ctx context.Context, token string, update ProfileUpdate) (*User, error) {
	return m.updateProfFn(ctx, token, update)
}

func loggedIn(token string) func(context.Context, string, string) (*AuthResult, error) {
	return func(_ context.Context, email, _ string) (*AuthResult, error) {
		return &AuthResult{
			Token: Token{AccessToken: token, RefreshToken: "r-" + token},
			User:  &User{ID: "u1", Email: email, Role: "student"},
		}, nil
	}
}

func recordEvents(s *Session) *[]EventType {
	var events []EventType
	s.OnChange(func(ev Event) { events = append(events, ev.Type) })
	return &events
}

func TestSession_LoginAndLogout(t *testing.T) {
	store := &MemoryStore{}
	logoutCalls := 0
	backend := &mockBackend{
		loginFn: loggedIn("t1"),
		logoutFn: func(_ context.Context, token, refresh string) error {
			logoutCalls++
			assert.Equal(t, "t1", token)
			assert.Equal(t, "r-t1", refresh)
			return errors.New("network down")
		},
	}
	s := NewSession(backend, WithStore(store))
	events := recordEvents(s)

	assert.Equal(t, StateAnonymous, s.State())
	_, err := s.Login(context.Background(), "a@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, StateAuthenticated, s.State())
	assert.Equal(t, "t1", s.AccessToken())
	assert.Equal(t, "a@example.com", s.User().Email)
	saved, _ := store.Load()
	require.NotNil(t, saved)
	assert.Equal(t, "t1", saved.Token.AccessToken)

	// Local state is cleared even when the server call fails.
	err = s.Logout(context.Background())
	assert.Error(t, err)
	assert.Equal(t, StateAnonymous, s.State())
	assert.Nil(t, s.User())
	saved, _ = store.Load()
	assert.Nil(t, saved)
	assert.Equal(t, 1, logoutCalls)
	assert.Equal(t, []EventType{EventSignedIn, EventSignedOut}, *events)

	// Logging out twice is a no-op.
	require.NoError(t, s.Logout(context.Background()))
	assert.Equal(t, 1, logoutCalls)
}

func TestSession_ListenerCanResubscribe(t *testing.T) {
	s := NewSession(&mockBackend{loginFn: loggedIn("t1"), logoutFn: func(context.Context, string, string) error { return nil }})

	var seen []EventType
	var unsubscribe func()
	unsubscribe = s.OnChange(func(ev Event) {
		unsubscribe()
		s.OnChange(func(ev Event) { seen = append(seen, ev.Type) })
		assert.Equal(t, "a@example.com", s.User().Email)
	})

	done := make(chan error, 1)
	go func() {
		_, err := s.Login(context.Background(), "a@example.com", "pw")
		if err == nil {
			err = s.Logout(context.Background())
		}
		done <- err
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("listener changing subscriptions blocked the session")
	}
	assert.Equal(t, []EventType{EventSignedOut}, seen)
}

func TestSession_FailedLoginKeepsState(t *testing.T) {
	backend := &mockBackend{loginFn: func(context.Context, string, string) (*AuthResult, error) {
		return nil, &APIError{StatusCode: 401, Message: "Invalid credentials"}
	}}
	s := NewSession(backend)

	_, err := s.Login(context.Background(), "a@example.com", "bad")

	assert.ErrorIs(t, err, ErrUnauthenticated)
	assert.Equal(t, StateAnonymous, s.State())
}

func TestSession_RejectedTokenSignsOut(t *testing.T) {
	backend := &mockBackend{
		loginFn: loggedIn("t1"),
		currentUserFn: func(context.Context, string) (*User, error) {
			return nil, &APIError{StatusCode: 401, Code: "AUTH_006", Message: "Token expired"}
		},
		listUsersFn: func(context.Context, string) ([]User, error) {
			return nil, &APIError{StatusCode: 403, Message: "Access denied"}
		},
	}
	s := NewSession(backend)
	events := recordEvents(s)
	_, err := s.Login(context.Background(), "a@example.com", "pw")
	require.NoError(t, err)

	// 403 is terminal for the call but not for the session.
	_, err = s.ListUsers(context.Background())
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, StateAuthenticated, s.State())

	user, err := s.CurrentUser(context.Background())
	require.NoError(t, err)
	assert.Nil(t, user)
	assert.Equal(t, StateAnonymous, s.State())
	assert.Equal(t, []EventType{EventSignedIn, EventSignedOut}, *events)

	_, err = s.ListUsers(context.Background())
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestSession_Refresh(t *testing.T) {
	backend := &mockBackend{
		loginFn: loggedIn("t1"),
		refreshFn: func(_ context.Context, token, refresh string) (*AuthResult, error) {
			assert.Equal(t, "r-t1", refresh)
			return &AuthResult{Token: Token{AccessToken: "t2", RefreshToken: "r-t2"}}, nil
		},
	}
	s := NewSession(backend)
	events := recordEvents(s)

	_, err := s.Refresh(context.Background())
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, err = s.Login(context.Background(), "a@example.com", "pw")
	require.NoError(t, err)
	_, err = s.Refresh(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "t2", s.AccessToken())
	require.NotNil(t, s.User())
	assert.Equal(t, "u1", s.User().ID)
	assert.Equal(t, []EventType{EventSignedIn, EventTokenRefreshed}, *events)
}

func TestSession_UpdateProfile(t *testing.T) {
	name := "Ana Maria"
	backend := &mockBackend{
		loginFn: loggedIn("t1"),
		updateProfFn: func(_ context.Context, _ string, u ProfileUpdate) (*User, error) {
			return &User{ID: "u1", Email: "a@example.com", Name: *u.Name}, nil
		},
	}
	s := NewSession(backend)
	_, err := s.Login(context.Background(), "a@example.com", "pw")
	require.NoError(t, err)
	events := recordEvents(s)

	_, err = s.UpdateProfile(context.Background(), ProfileUpdate{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Ana Maria", s.User().Name)
	assert.Equal(t, []EventType{EventUserUpdated}, *events)
}

func TestFileStore_RestoreSession(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lms", "credentials.json")
	store := NewFileStore(path)

	creds, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, creds)

	first := NewSession(&mockBackend{loginFn: loggedIn("t1")}, WithStore(store))
	_, err = first.Login(context.Background(), "a@example.com", "pw")
	require.NoError(t, err)

	second := NewSession(&mockBackend{}, WithStore(NewFileStore(path)))
	require.NoError(t, second.Restore())
	assert.Equal(t, StateAuthenticated, second.State())
	assert.Equal(t, "t1", second.AccessToken())

	require.NoError(t, store.Clear())
	creds, err = store.Load()
	require.NoError(t, err)
	assert.Nil(t, creds)
}
