package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/wanderplan/wanderplan/internal/credentials"
	"github.com/wanderplan/wanderplan/internal/gateway"
	"github.com/wanderplan/wanderplan/internal/logging"
	"github.com/wanderplan/wanderplan/internal/user"
)

type backend struct {
	server *httptest.Server
	hits   atomic.Int64
	auth   atomic.Value
}

func newBackend(t *testing.T, routes map[string]http.HandlerFunc) *backend {
	t.Helper()
	b := &backend{}
	mux := http.NewServeMux()
	for pattern, h := range routes {
		h := h
		mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
			b.hits.Add(1)
			b.auth.Store(r.Header.Get("Authorization"))
			h(w, r)
		})
	}
	b.server = httptest.NewServer(mux)
	t.Cleanup(b.server.Close)
	return b
}

func (b *backend) lastAuth() string {
	v, _ := b.auth.Load().(string)
	return v
}

func jsonReply(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}
}

func newManager(t *testing.T, baseURL string, store credentials.Store) *Manager {
	t.Helper()
	api := gateway.New(gateway.Config{BaseURL: baseURL, Timeout: 2 * time.Second}, store, logging.Discard(), nil)
	return New(store, api, logging.Discard())
}

func storedValue(t *testing.T, store credentials.Store, key string) (string, bool) {
	t.Helper()
	v, ok, err := store.Get(context.Background(), key)
	if err != nil {
		t.Fatalf("store get %s: %v", key, err)
	}
	return v, ok
}

func TestLoginPersistsCredentialAndUser(t *testing.T) {
	var gotBody Credentials
	b := newBackend(t, map[string]http.HandlerFunc{
		"POST /auth/login": func(w http.ResponseWriter, r *http.Request) {
			json.NewDecoder(r.Body).Decode(&gotBody)
			jsonReply(http.StatusOK, `{"accessToken":"tok123","user":{"_id":"u1","email":"a@x.com"}}`)(w, r)
		},
	})
	store := credentials.NewMemoryStore()
	m := newManager(t, b.server.URL, store)
	ctx := context.Background()

	env := m.Login(ctx, Credentials{Username: "alice", Password: "secret"})
	if !env.Success {
		t.Fatalf("login: %+v", env.Error)
	}
	if gotBody.Username != "alice" || gotBody.Password != "secret" {
		t.Fatalf("unexpected login body: %+v", gotBody)
	}
	if token, _ := storedValue(t, store, credentials.KeyAccessToken); token != "tok123" {
		t.Fatalf("expected stored token tok123, got %q", token)
	}
	if !m.IsAuthenticated() {
		t.Fatalf("expected authenticated, got %s", m.State())
	}

	if m.AccessToken() != "tok123" {
		t.Fatalf("in-memory token = %q", m.AccessToken())
	}
	raw, _ := storedValue(t, store, credentials.KeyUser)
	var persisted user.User
	if err := json.Unmarshal([]byte(raw), &persisted); err != nil {
		t.Fatalf("decode stored user: %v", err)
	}
	inMemory, ok := m.User()
	if !ok || inMemory.ID != persisted.ID || inMemory.Email != persisted.Email || persisted.ID != "u1" {
		t.Fatalf("memory %+v and store %+v disagree", inMemory, persisted)
	}

	restarted := newManager(t, b.server.URL, store)
	if state := restarted.Restore(ctx); state != Authenticated {
		t.Fatalf("expected restored session, got %s", state)
	}
	if b.hits.Load() != 1 {
		t.Fatalf("restore must not call the backend, hits=%d", b.hits.Load())
	}
}

func TestRestoreNeedsBothTokenAndUser(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		name  string
		token string
		user  string
		want  State
	}{
		{"empty", "", "", Unauthenticated},
		{"token only", "tok", "", Unauthenticated},
		{"user only", "", `{"_id":"u1"}`, Unauthenticated},
		{"corrupt user", "tok", `{"_id":`, Unauthenticated},
		{"both", "tok", `{"id":"u1","email":"a@x.com"}`, Authenticated},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := credentials.NewMemoryStore()
			if tc.token != "" {
				store.Set(ctx, credentials.KeyAccessToken, tc.token)
			}
			if tc.user != "" {
				store.Set(ctx, credentials.KeyUser, tc.user)
			}
			m := newManager(t, "http://unused.invalid", store)
			if got := m.Restore(ctx); got != tc.want {
				t.Fatalf("Restore = %s, want %s", got, tc.want)
			}
			if got := m.IsAuthenticated(); got != (tc.want == Authenticated) {
				t.Fatalf("IsAuthenticated = %v", got)
			}
		})
	}
}

func TestLoginPartialPayloads(t *testing.T) {
	ctx := context.Background()

	t.Run("token only", func(t *testing.T) {
		b := newBackend(t, map[string]http.HandlerFunc{
			"POST /auth/login": jsonReply(http.StatusOK, `{"access_token":"tok-only","refresh_token":"ref-1"}`),
		})
		store := credentials.NewMemoryStore()
		m := newManager(t, b.server.URL, store)

		if env := m.Login(ctx, Credentials{Username: "alice", Password: "secret"}); !env.Success {
			t.Fatalf("login: %+v", env.Error)
		}
		if v, _ := storedValue(t, store, credentials.KeyAccessToken); v != "tok-only" {
			t.Fatalf("expected token persisted, got %q", v)
		}
		if v, _ := storedValue(t, store, credentials.KeyRefreshToken); v != "ref-1" {
			t.Fatalf("expected refresh token persisted, got %q", v)
		}
		if _, ok := storedValue(t, store, credentials.KeyUser); ok {
			t.Fatal("user key must stay untouched")
		}
		if m.IsAuthenticated() {
			t.Fatal("a token without a user is not a full session")
		}
	})

	t.Run("user only", func(t *testing.T) {
		b := newBackend(t, map[string]http.HandlerFunc{
			"POST /auth/login": jsonReply(http.StatusOK, `{"user":{"_id":"u2","email":"b@x.com"}}`),
		})
		store := credentials.NewMemoryStore()
		store.Set(ctx, credentials.KeyAccessToken, "earlier-token")
		m := newManager(t, b.server.URL, store)

		if env := m.Login(ctx, Credentials{Username: "bob", Password: "secret"}); !env.Success || env.Data.ID != "u2" {
			t.Fatalf("login: %+v", env)
		}
		if v, _ := storedValue(t, store, credentials.KeyAccessToken); v != "earlier-token" {
			t.Fatalf("token key must stay untouched, got %q", v)
		}
		if _, ok := storedValue(t, store, credentials.KeyUser); !ok {
			t.Fatal("expected user persisted")
		}
	})
}

func TestLoginFailures(t *testing.T) {
	b := newBackend(t, map[string]http.HandlerFunc{
		"POST /auth/login": jsonReply(http.StatusUnauthorized, `{"statusCode":401,"message":"Invalid credentials"}`),
	})
	store := credentials.NewMemoryStore()
	m := newManager(t, b.server.URL, store)
	ctx := context.Background()

	env := m.Login(ctx, Credentials{Username: "alice", Password: "wrong"})
	if env.Success || env.Message() != "Invalid credentials" || env.StatusCode() != http.StatusUnauthorized {
		t.Fatalf("expected backend message, got %+v", env.Error)
	}
	if m.State() != Unauthenticated {
		t.Fatalf("expected unauthenticated, got %s", m.State())
	}
	if _, ok := storedValue(t, store, credentials.KeyAccessToken); ok {
		t.Fatal("failed login must not persist a token")
	}

	before := b.hits.Load()
	if env := m.Login(ctx, Credentials{Username: " ", Password: ""}); env.Success || env.StatusCode() != 400 {
		t.Fatalf("expected local validation failure, got %+v", env)
	}
	if b.hits.Load() != before {
		t.Fatal("local validation must not reach the backend")
	}

	offline := newManager(t, "http://127.0.0.1:1", credentials.NewMemoryStore())
	if env := offline.Login(ctx, Credentials{Username: "alice", Password: "secret"}); env.Success || env.Message() != gateway.NetworkErrorMessage {
		t.Fatalf("expected network error, got %+v", env)
	}
	if offline.State() != Unauthenticated {
		t.Fatalf("expected unauthenticated after network error, got %s", offline.State())
	}
}

func TestFailedReloginClearsMemory(t *testing.T) {
	var calls atomic.Int64
	b := newBackend(t, map[string]http.HandlerFunc{
		"POST /auth/login": func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) == 1 {
				jsonReply(http.StatusOK, `{"accessToken":"tok1","user":{"_id":"u1","name":"Alice"}}`)(w, r)
				return
			}
			jsonReply(http.StatusUnauthorized, `{"statusCode":401,"message":"Invalid credentials"}`)(w, r)
		},
	})
	store := credentials.NewMemoryStore()
	m := newManager(t, b.server.URL, store)
	ctx := context.Background()

	if env := m.Login(ctx, Credentials{Username: "alice", Password: "secret"}); !env.Success {
		t.Fatalf("first login: %+v", env.Error)
	}
	if env := m.Login(ctx, Credentials{Username: "alice", Password: "wrong"}); env.Success {
		t.Fatal("expected second login to fail")
	}
	if m.State() != Unauthenticated || m.AccessToken() != "" {
		t.Fatalf("expected cleared session, got state=%s token=%q", m.State(), m.AccessToken())
	}
	if _, ok := m.User(); ok {
		t.Fatal("expected no cached user after failed login")
	}

	if env := m.SetUser(ctx, user.User{ID: "u1", Name: "Edited"}); !env.Success {
		t.Fatalf("set user: %+v", env.Error)
	}
	if m.State() != Unauthenticated {
		t.Fatalf("SetUser must not sign in, got %s", m.State())
	}

	if state := m.Restore(ctx); state != Authenticated || m.AccessToken() != "tok1" {
		t.Fatalf("expected restore from store, got state=%s token=%q", state, m.AccessToken())
	}
}

func TestLoginUnreadablePayload(t *testing.T) {
	b := newBackend(t, map[string]http.HandlerFunc{
		"POST /auth/login": jsonReply(http.StatusOK, `{"accessToken":42}`),
	})
	m := newManager(t, b.server.URL, credentials.NewMemoryStore())
	env := m.Login(context.Background(), Credentials{Username: "alice", Password: "secret"})
	if env.Success || env.Message() != "Login failed" || env.Error.Path != EndpointLogin {
		t.Fatalf("expected generic login failure, got %+v", env)
	}
}

func TestLogoutIsIdempotentAndAlwaysSucceeds(t *testing.T) {
	b := newBackend(t, map[string]http.HandlerFunc{
		"POST /auth/login":  jsonReply(http.StatusOK, `{"accessToken":"tok123","refreshToken":"r1","user":{"_id":"u1"}}`),
		"POST /auth/logout": jsonReply(http.StatusInternalServerError, `{"message":"boom"}`),
	})
	store := credentials.NewMemoryStore()
	m := newManager(t, b.server.URL, store)
	ctx := context.Background()

	m.Login(ctx, Credentials{Username: "alice", Password: "secret"})

	if env := m.Logout(ctx); !env.Success {
		t.Fatalf("logout must succeed, got %+v", env.Error)
	}
	if b.lastAuth() != "Bearer tok123" {
		t.Fatalf("expected remote logout to carry the token, got %q", b.lastAuth())
	}
	hits := b.hits.Load()

	if env := m.Logout(ctx); !env.Success {
		t.Fatalf("second logout must succeed, got %+v", env.Error)
	}
	if b.hits.Load() != hits {
		t.Fatal("logout without a token should not call the backend")
	}
	for _, key := range credentials.Keys() {
		if _, ok := storedValue(t, store, key); ok {
			t.Fatalf("expected %s cleared", key)
		}
	}
	if m.IsAuthenticated() || m.AccessToken() != "" {
		t.Fatal("expected memory cleared")
	}
	if _, ok := m.User(); ok {
		t.Fatal("expected user cleared")
	}
}

func TestLogoutWhenBackendUnreachable(t *testing.T) {
	ctx := context.Background()
	store := credentials.NewMemoryStore()
	store.Set(ctx, credentials.KeyAccessToken, "tok")
	store.Set(ctx, credentials.KeyUser, `{"_id":"u1"}`)
	m := newManager(t, "http://127.0.0.1:1", store)
	m.Restore(ctx)

	if env := m.Logout(ctx); !env.Success {
		t.Fatalf("logout must succeed offline, got %+v", env.Error)
	}
	if _, ok := storedValue(t, store, credentials.KeyAccessToken); ok {
		t.Fatal("expected token cleared")
	}
}

func TestRegisterWithoutTokenStaysSignedOut(t *testing.T) {
	b := newBackend(t, map[string]http.HandlerFunc{
		"POST /auth/register": jsonReply(http.StatusCreated, `{"success":true,"data":{"user":{"_id":"u3","email":"c@x.com","name":"Chi"}}}`),
	})
	store := credentials.NewMemoryStore()
	m := newManager(t, b.server.URL, store)

	env := m.Register(context.Background(), Registration{Email: "c@x.com", Password: "secret", Name: "Chi"})
	if !env.Success || env.Data.Name != "Chi" {
		t.Fatalf("register: %+v", env)
	}
	if m.IsAuthenticated() {
		t.Fatal("register without token must not authenticate")
	}
}

func TestLoginWithGoogleUnwrapsNestedPayload(t *testing.T) {
	b := newBackend(t, map[string]http.HandlerFunc{
		"POST /auth/google": func(w http.ResponseWriter, r *http.Request) {
			var req googleLoginRequest
			json.NewDecoder(r.Body).Decode(&req)
			if req.IDToken != "google-id-token" {
				jsonReply(http.StatusBadRequest, `{"message":"bad token"}`)(w, r)
				return
			}
			jsonReply(http.StatusOK, `{"success":true,"data":{"data":{"token":"g-tok","user":{"_id":"u4","isPremium":true}}}}`)(w, r)
		},
	})
	m := newManager(t, b.server.URL, credentials.NewMemoryStore())

	env := m.LoginWithGoogle(context.Background(), "google-id-token")
	if !env.Success || !env.Data.IsPremium {
		t.Fatalf("google login: %+v", env)
	}
	if !m.IsAuthenticated() || m.AccessToken() != "g-tok" {
		t.Fatalf("expected authenticated with g-tok, got %s/%q", m.State(), m.AccessToken())
	}

	if env := m.LoginWithGoogle(context.Background(), ""); env.Success {
		t.Fatal("expected local validation failure")
	}
}

func TestRefresh(t *testing.T) {
	var gotRefresh refreshRequest
	b := newBackend(t, map[string]http.HandlerFunc{
		"POST /auth/refresh": func(w http.ResponseWriter, r *http.Request) {
			json.NewDecoder(r.Body).Decode(&gotRefresh)
			jsonReply(http.StatusOK, `{"data":{"accessToken":"tok-2","refreshToken":"ref-2"}}`)(w, r)
		},
	})
	ctx := context.Background()
	store := credentials.NewMemoryStore()
	m := newManager(t, b.server.URL, store)

	if env := m.Refresh(ctx); env.Success || env.StatusCode() != 400 {
		t.Fatalf("expected local failure without refresh token, got %+v", env)
	}
	if b.hits.Load() != 0 {
		t.Fatal("refresh without token must not reach the backend")
	}

	store.Set(ctx, credentials.KeyAccessToken, "tok-1")
	store.Set(ctx, credentials.KeyRefreshToken, "ref-1")
	store.Set(ctx, credentials.KeyUser, `{"_id":"u1"}`)
	m.Restore(ctx)

	env := m.Refresh(ctx)
	if !env.Success || env.Data != "tok-2" {
		t.Fatalf("refresh: %+v", env)
	}
	if gotRefresh.RefreshToken != "ref-1" {
		t.Fatalf("expected stored refresh token sent, got %q", gotRefresh.RefreshToken)
	}
	if v, _ := storedValue(t, store, credentials.KeyRefreshToken); v != "ref-2" {
		t.Fatalf("expected rotated refresh token, got %q", v)
	}
	if m.AccessToken() != "tok-2" || !m.IsAuthenticated() {
		t.Fatalf("expected in-memory token updated, got %q", m.AccessToken())
	}
}

func TestSetUserReplacesRecord(t *testing.T) {
	ctx := context.Background()
	store := credentials.NewMemoryStore()
	store.Set(ctx, credentials.KeyAccessToken, "tok")
	store.Set(ctx, credentials.KeyUser, `{"_id":"u1","name":"Old"}`)
	m := newManager(t, "http://unused.invalid", store)
	m.Restore(ctx)

	favorites := []string{"p1"}
	env := m.SetUser(ctx, user.User{ID: "u1", Name: "New", Favorites: favorites, IsPremium: true})
	if !env.Success {
		t.Fatalf("set user: %+v", env.Error)
	}
	favorites[0] = "mutated"

	got, _ := m.User()
	if got.Name != "New" || got.Favorites[0] != "p1" {
		t.Fatalf("expected isolated copy, got %+v", got)
	}
	got.Favorites[0] = "mutated again"
	again, _ := m.User()
	if again.Favorites[0] != "p1" {
		t.Fatal("User must return a copy")
	}

	raw, _ := storedValue(t, store, credentials.KeyUser)
	var persisted user.User
	json.Unmarshal([]byte(raw), &persisted)
	if !persisted.IsPremium || persisted.Name != "New" {
		t.Fatalf("expected persisted replacement, got %+v", persisted)
	}

	if env := m.SetUser(ctx, user.User{}); env.Success {
		t.Fatal("expected empty user to be rejected")
	}
	if !m.IsAuthenticated() {
		t.Fatalf("SetUser must keep an authenticated session, got %s", m.State())
	}
}
