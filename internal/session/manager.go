// Package session owns authentication state: it is the only component that
// moves a client between unauthenticated, authenticating and authenticated,
// and it keeps the credential store in step with memory.
package session

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/wanderplan/wanderplan/internal/credentials"
	"github.com/wanderplan/wanderplan/internal/gateway"
	"github.com/wanderplan/wanderplan/internal/result"
	"github.com/wanderplan/wanderplan/internal/user"
)

const (
	EndpointLogin       = "/auth/login"
	EndpointRegister    = "/auth/register"
	EndpointGoogleLogin = "/auth/google"
	EndpointLogout      = "/auth/logout"
	EndpointRefresh     = "/auth/refresh"
)

// Manager holds the current credential and user. Create one per client and
// pass it to whatever needs session state.
type Manager struct {
	store  credentials.Store
	api    *gateway.Client
	logger *slog.Logger

	mu    sync.RWMutex
	state State
	token string
	user  *user.User
}

// New builds a Manager in the unauthenticated state. Call Restore to pick
// up a previously persisted session.
func New(store credentials.Store, api *gateway.Client, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Manager{store: store, api: api, logger: logger}
}

// Restore loads a persisted session without contacting the backend. The
// manager becomes authenticated only when both a token and a readable user
// record are stored. An expired token surfaces later as an ordinary failed
// envelope from whichever call uses it.
func (m *Manager) Restore(ctx context.Context) State {
	token, hasToken, err := m.store.Get(ctx, credentials.KeyAccessToken)
	if err != nil {
		m.logger.Warn("restore access token", slog.Any("error", err))
		hasToken = false
	}
	u, hasUser := m.loadUser(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()
	if hasToken && token != "" && hasUser {
		m.token = token
		m.user = &u
		m.transition(Authenticated)
	} else {
		m.token = ""
		m.user = nil
		m.transition(Unauthenticated)
	}
	return m.state
}

// Login authenticates with a username and password.
func (m *Manager) Login(ctx context.Context, creds Credentials) result.Envelope[user.User] {
	if strings.TrimSpace(creds.Username) == "" || creds.Password == "" {
		return result.Invalid[user.User]("Username and password are required", EndpointLogin)
	}
	return m.authenticate(ctx, EndpointLogin, creds, "Login failed")
}

// Register creates an account. Backends that return a token sign the user
// in immediately; otherwise the returned user is persisted and the manager
// stays unauthenticated until Login.
func (m *Manager) Register(ctx context.Context, reg Registration) result.Envelope[user.User] {
	if strings.TrimSpace(reg.Email) == "" || reg.Password == "" {
		return result.Invalid[user.User]("Email and password are required", EndpointRegister)
	}
	return m.authenticate(ctx, EndpointRegister, reg, "Registration failed")
}

// LoginWithGoogle exchanges a Google ID token for a session.
func (m *Manager) LoginWithGoogle(ctx context.Context, idToken string) result.Envelope[user.User] {
	if strings.TrimSpace(idToken) == "" {
		return result.Invalid[user.User]("Google ID token is required", EndpointGoogleLogin)
	}
	return m.authenticate(ctx, EndpointGoogleLogin, googleLoginRequest{IDToken: idToken}, "Google login failed")
}

func (m *Manager) authenticate(ctx context.Context, endpoint string, body any, fallback string) result.Envelope[user.User] {
	m.begin()

	env := m.api.Post(ctx, endpoint, body)
	if !env.Success {
		m.fail()
		return result.Forward[user.User](env)
	}

	var payload authPayload
	if err := json.Unmarshal(result.Unwrap(env.Data), &payload); err != nil {
		m.fail()
		return result.Fail[user.User](result.ErrorInfo{Message: fallback, Path: endpoint, Args: []string{err.Error()}})
	}

	// Token and user are persisted independently: the backend may omit
	// either, and what it did send must not be lost.
	token := payload.accessToken()
	if token != "" {
		if err := m.store.Set(ctx, credentials.KeyAccessToken, token); err != nil {
			m.logger.Error("persist access token", slog.Any("error", err))
			m.fail()
			return result.Fail[user.User](result.ErrorInfo{Message: fallback, Path: endpoint, Args: []string{err.Error()}})
		}
	}
	if refresh := payload.refreshToken(); refresh != "" {
		if err := m.store.Set(ctx, credentials.KeyRefreshToken, refresh); err != nil {
			m.logger.Warn("persist refresh token", slog.Any("error", err))
		}
	}
	if payload.User != nil {
		if err := m.saveUser(ctx, *payload.User); err != nil {
			m.logger.Error("persist user", slog.Any("error", err))
			m.fail()
			return result.Fail[user.User](result.ErrorInfo{Message: fallback, Path: endpoint, Args: []string{err.Error()}})
		}
	}

	m.complete(token, payload.User)

	var out user.User
	if payload.User != nil {
		out = payload.User.Clone()
	}
	return result.OK(out)
}

// Logout asks the backend to invalidate the token, then clears local state
// whatever the backend answered. It always succeeds.
func (m *Manager) Logout(ctx context.Context) result.Envelope[struct{}] {
	token, hasToken, err := m.store.Get(ctx, credentials.KeyAccessToken)
	if err != nil {
		m.logger.Warn("read access token for logout", slog.Any("error", err))
	}
	if hasToken && token != "" {
		if env := m.api.Post(ctx, EndpointLogout, nil); !env.Success {
			m.logger.Warn("remote logout failed", slog.String("message", env.Message()))
		}
	}

	m.mu.Lock()
	m.token = ""
	m.user = nil
	m.transition(Unauthenticated)
	m.mu.Unlock()

	if err := credentials.Clear(ctx, m.store); err != nil {
		m.logger.Warn("clear credentials", slog.Any("error", err))
	}
	return result.OK(struct{}{})
}

// Refresh trades the stored refresh token for a new access token.
func (m *Manager) Refresh(ctx context.Context) result.Envelope[string] {
	refresh, ok, err := m.store.Get(ctx, credentials.KeyRefreshToken)
	if err != nil {
		return result.Fail[string](result.ErrorInfo{Message: "Token refresh failed", Path: EndpointRefresh, Args: []string{err.Error()}})
	}
	if !ok || refresh == "" {
		return result.Invalid[string]("No refresh token available", EndpointRefresh)
	}

	env := m.api.Post(ctx, EndpointRefresh, refreshRequest{RefreshToken: refresh})
	if !env.Success {
		return result.Forward[string](env)
	}

	var payload authPayload
	if err := json.Unmarshal(result.Unwrap(env.Data), &payload); err != nil || payload.accessToken() == "" {
		args := []string{"response carried no access token"}
		if err != nil {
			args = []string{err.Error()}
		}
		return result.Fail[string](result.ErrorInfo{Message: "Token refresh failed", Path: EndpointRefresh, Args: args})
	}

	token := payload.accessToken()
	if err := m.store.Set(ctx, credentials.KeyAccessToken, token); err != nil {
		return result.Fail[string](result.ErrorInfo{Message: "Token refresh failed", Path: EndpointRefresh, Args: []string{err.Error()}})
	}
	if rotated := payload.refreshToken(); rotated != "" {
		if err := m.store.Set(ctx, credentials.KeyRefreshToken, rotated); err != nil {
			m.logger.Warn("persist rotated refresh token", slog.Any("error", err))
		}
	}

	m.mu.Lock()
	m.token = token
	if m.user != nil {
		m.transition(Authenticated)
	}
	m.mu.Unlock()
	return result.OK(token)
}

// SetUser replaces the cached user record, typically after a profile edit
// or a premium purchase. Concurrent callers race; the last write wins.
// The session state is left as it was.
func (m *Manager) SetUser(ctx context.Context, u user.User) result.Envelope[user.User] {
	if u.IsZero() {
		return result.Invalid[user.User]("User record is empty", "session/user")
	}
	u = u.Clone()
	if err := m.saveUser(ctx, u); err != nil {
		return result.Fail[user.User](result.ErrorInfo{Message: "Failed to save user", Path: "session/user", Args: []string{err.Error()}})
	}

	m.mu.Lock()
	m.user = &u
	m.mu.Unlock()
	return result.OK(u.Clone())
}

// State reports the current authentication state.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// IsAuthenticated reports whether a token and user are held.
func (m *Manager) IsAuthenticated() bool {
	return m.State() == Authenticated
}

// AccessToken returns the in-memory access token, or "".
func (m *Manager) AccessToken() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token
}

// User returns a copy of the cached user record.
func (m *Manager) User() (user.User, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.user == nil {
		return user.User{}, false
	}
	return m.user.Clone(), true
}

func (m *Manager) begin() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transition(Authenticating)
}

// fail drops the in-memory session. The store is left alone, so Restore
// can still bring back an earlier session.
func (m *Manager) fail() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	m.user = nil
	m.transition(Unauthenticated)
}

// complete is called once the payload has been persisted. Missing fields
// fall back to what the manager already held.
func (m *Manager) complete(token string, u *user.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if token != "" {
		m.token = token
	}
	if u != nil {
		cp := u.Clone()
		m.user = &cp
	}
	if m.token != "" && m.user != nil {
		m.transition(Authenticated)
		return
	}
	m.transition(Unauthenticated)
}

// transition must be called with mu held.
func (m *Manager) transition(next State) {
	if m.state == next {
		return
	}
	m.logger.Info("session state changed", slog.String("from", m.state.String()), slog.String("to", next.String()))
	m.state = next
}

func (m *Manager) loadUser(ctx context.Context) (user.User, bool) {
	raw, ok, err := m.store.Get(ctx, credentials.KeyUser)
	if err != nil {
		m.logger.Warn("restore user", slog.Any("error", err))
		return user.User{}, false
	}
	if !ok || raw == "" {
		return user.User{}, false
	}
	var u user.User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		m.logger.Warn("stored user is unreadable", slog.Any("error", err))
		return user.User{}, false
	}
	return u, true
}

func (m *Manager) saveUser(ctx context.Context, u user.User) error {
	raw, err := json.Marshal(u)
	if err != nil {
		return err
	}
	return m.store.Set(ctx, credentials.KeyUser, string(raw))
}
