package session

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/gazexpress/gazexpress/internal/app/domain/user"
	"github.com/gazexpress/gazexpress/internal/app/storage"
	"github.com/gazexpress/gazexpress/internal/app/storage/memory"
	"github.com/gazexpress/gazexpress/pkg/logger"
)

func testLogger() *logger.Logger {
	log := logger.NewDefault("session-test")
	log.SetOutput(io.Discard)
	return log
}

// fakeAPI scripts the backend responses one call at a time.
type fakeAPI struct {
	loginTokens  user.TokenPair
	loginErr     error
	profileUser  user.User
	profileErr   error
	registerErr  error
	refreshToken string
	refreshErr   error

	loginCalls    int
	profileCalls  int
	registerCalls int
	refreshCalls  int
}

func (f *fakeAPI) Login(context.Context, string, string) (user.TokenPair, error) {
	f.loginCalls++
	return f.loginTokens, f.loginErr
}

func (f *fakeAPI) Profile(context.Context, string) (user.User, error) {
	f.profileCalls++
	return f.profileUser, f.profileErr
}

func (f *fakeAPI) Register(context.Context, user.Registration) error {
	f.registerCalls++
	return f.registerErr
}

func (f *fakeAPI) Refresh(context.Context, string) (string, error) {
	f.refreshCalls++
	return f.refreshToken, f.refreshErr
}

func awa() user.User {
	return user.User{
		ID:     "u-1",
		Email:  "awa@example.ci",
		Nom:    "Kone",
		Prenom: "Awa",
		Role:   user.RoleClient,
	}
}

func TestLoginCommitsTokensAndUserTogether(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	api := &fakeAPI{
		loginTokens: user.TokenPair{Access: "access-1", Refresh: "refresh-1"},
		profileUser: awa(),
	}
	svc := New(api, store, testLogger())

	if err := svc.Login(ctx, "awa@example.ci", "secret"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if !svc.IsAuthenticated() {
		t.Fatal("expected authenticated session")
	}
	if got := svc.AccessToken(); got != "access-1" {
		t.Fatalf("expected access token access-1, got %q", got)
	}
	if u := svc.User(); u == nil || u.ID != "u-1" {
		t.Fatalf("expected user u-1, got %+v", u)
	}
	if _, err := store.Get(ctx, storage.TokensKey); err != nil {
		t.Fatalf("expected persisted tokens: %v", err)
	}
	if _, err := store.Get(ctx, storage.UserKey); err != nil {
		t.Fatalf("expected persisted user: %v", err)
	}
}

func TestLoginTokenFailureCommitsNothing(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	api := &fakeAPI{loginErr: errors.New("401 invalid credentials")}
	svc := New(api, store, testLogger())

	err := svc.Login(ctx, "awa@example.ci", "wrong")
	if !errors.Is(err, ErrAuthenticationFailed) {
		t.Fatalf("expected ErrAuthenticationFailed, got %v", err)
	}
	if svc.IsAuthenticated() {
		t.Fatal("expected unauthenticated session")
	}
	if api.profileCalls != 0 {
		t.Fatal("profile must not be called when the token call fails")
	}
	if store.Len() != 0 {
		t.Fatalf("expected nothing persisted, store holds %d entries", store.Len())
	}
}

func TestLoginProfileFailureDiscardsTokens(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	api := &fakeAPI{
		loginTokens: user.TokenPair{Access: "access-1", Refresh: "refresh-1"},
		profileErr:  errors.New("500 backend down"),
	}
	svc := New(api, store, testLogger())

	err := svc.Login(ctx, "awa@example.ci", "secret")
	if !errors.Is(err, ErrAuthenticationFailed) {
		t.Fatalf("expected ErrAuthenticationFailed, got %v", err)
	}
	if svc.IsAuthenticated() {
		t.Fatal("half-completed login must not authenticate")
	}
	if svc.AccessToken() != "" {
		t.Fatal("tokens from a half-completed flow must be discarded")
	}
	if store.Len() != 0 {
		t.Fatalf("expected nothing persisted, store holds %d entries", store.Len())
	}
}

func TestRegisterRunsLoginAfterwards(t *testing.T) {
	ctx := context.Background()
	api := &fakeAPI{
		loginTokens: user.TokenPair{Access: "access-1", Refresh: "refresh-1"},
		profileUser: awa(),
	}
	svc := New(api, memory.New(), testLogger())

	err := svc.Register(ctx, user.Registration{
		Email:    "awa@example.ci",
		Password: "secret",
		Nom:      "Kone",
		Prenom:   "Awa",
		Role:     user.RoleClient,
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if api.registerCalls != 1 || api.loginCalls != 1 {
		t.Fatalf("expected register then login, got register=%d login=%d", api.registerCalls, api.loginCalls)
	}
	if !svc.IsAuthenticated() {
		t.Fatal("expected authenticated session after registration")
	}
}

func TestRegisterFailureSkipsLogin(t *testing.T) {
	ctx := context.Background()
	api := &fakeAPI{registerErr: errors.New("400 email taken")}
	svc := New(api, memory.New(), testLogger())

	err := svc.Register(ctx, user.Registration{Email: "awa@example.ci", Password: "secret"})
	if !errors.Is(err, ErrAuthenticationFailed) {
		t.Fatalf("expected ErrAuthenticationFailed, got %v", err)
	}
	if api.loginCalls != 0 {
		t.Fatal("login must not run when registration fails")
	}
}

func TestLogoutAlwaysClearsEvenWhenStoreFails(t *testing.T) {
	ctx := context.Background()
	api := &fakeAPI{
		loginTokens: user.TokenPair{Access: "access-1", Refresh: "refresh-1"},
		profileUser: awa(),
	}
	svc := New(api, failingKV{}, testLogger())

	if err := svc.Login(ctx, "awa@example.ci", "secret"); err != nil {
		t.Fatalf("login: %v", err)
	}
	svc.Logout(ctx)
	if svc.IsAuthenticated() {
		t.Fatal("logout must clear the session even when storage deletes fail")
	}
	if svc.AccessToken() != "" || svc.User() != nil {
		t.Fatal("expected empty session after logout")
	}
}

func TestLoadRequiresBothEntries(t *testing.T) {
	ctx := context.Background()

	tokens, _ := json.Marshal(user.TokenPair{Access: "access-1", Refresh: "refresh-1"})
	u, _ := json.Marshal(awa())

	cases := []struct {
		name string
		seed map[string]string
		want bool
	}{
		{"both present", map[string]string{storage.TokensKey: string(tokens), storage.UserKey: string(u)}, true},
		{"tokens only", map[string]string{storage.TokensKey: string(tokens)}, false},
		{"user only", map[string]string{storage.UserKey: string(u)}, false},
		{"corrupt tokens", map[string]string{storage.TokensKey: "{oops", storage.UserKey: string(u)}, false},
		{"corrupt user", map[string]string{storage.TokensKey: string(tokens), storage.UserKey: "{oops"}, false},
		{"empty store", nil, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := memory.New()
			for k, v := range tc.seed {
				if err := store.Set(ctx, k, v); err != nil {
					t.Fatalf("seed store: %v", err)
				}
			}
			svc := New(&fakeAPI{}, store, testLogger())
			svc.Load(ctx)
			if got := svc.IsAuthenticated(); got != tc.want {
				t.Fatalf("IsAuthenticated() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestUpdateUserLeavesTokensAlone(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	api := &fakeAPI{
		loginTokens: user.TokenPair{Access: "access-1", Refresh: "refresh-1"},
		profileUser: awa(),
	}
	svc := New(api, store, testLogger())

	if err := svc.Login(ctx, "awa@example.ci", "secret"); err != nil {
		t.Fatalf("login: %v", err)
	}

	updated := awa()
	updated.Telephone = "+2250701020304"
	svc.UpdateUser(ctx, updated)

	if got := svc.User(); got == nil || got.Telephone != "+2250701020304" {
		t.Fatalf("expected updated phone number, got %+v", got)
	}
	if got := svc.AccessToken(); got != "access-1" {
		t.Fatalf("tokens must be untouched, got %q", got)
	}

	raw, err := store.Get(ctx, storage.UserKey)
	if err != nil {
		t.Fatalf("read persisted user: %v", err)
	}
	var persisted user.User
	if err := json.Unmarshal([]byte(raw), &persisted); err != nil {
		t.Fatalf("decode persisted user: %v", err)
	}
	if persisted.Telephone != "+2250701020304" {
		t.Fatalf("expected updated record persisted, got %+v", persisted)
	}
}

func TestRefreshRotatesAccessTokenOnly(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	api := &fakeAPI{
		loginTokens:  user.TokenPair{Access: "access-1", Refresh: "refresh-1"},
		profileUser:  awa(),
		refreshToken: "access-2",
	}
	svc := New(api, store, testLogger())

	if err := svc.Login(ctx, "awa@example.ci", "secret"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := svc.Refresh(ctx); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if got := svc.AccessToken(); got != "access-2" {
		t.Fatalf("expected rotated access token, got %q", got)
	}

	raw, err := store.Get(ctx, storage.TokensKey)
	if err != nil {
		t.Fatalf("read persisted tokens: %v", err)
	}
	var persisted user.TokenPair
	if err := json.Unmarshal([]byte(raw), &persisted); err != nil {
		t.Fatalf("decode persisted tokens: %v", err)
	}
	if persisted.Access != "access-2" || persisted.Refresh != "refresh-1" {
		t.Fatalf("expected rotated pair {access-2 refresh-1}, got %+v", persisted)
	}
}

func TestRefreshWithoutSessionFails(t *testing.T) {
	svc := New(&fakeAPI{refreshToken: "access-2"}, memory.New(), testLogger())
	if err := svc.Refresh(context.Background()); !errors.Is(err, ErrAuthenticationFailed) {
		t.Fatalf("expected ErrAuthenticationFailed, got %v", err)
	}
}

func TestAccessExpiresAt(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	token := unsignedJWT(t, map[string]interface{}{"exp": exp.Unix()})

	api := &fakeAPI{
		loginTokens: user.TokenPair{Access: token, Refresh: "refresh-1"},
		profileUser: awa(),
	}
	svc := New(api, memory.New(), testLogger())
	if err := svc.Login(context.Background(), "awa@example.ci", "secret"); err != nil {
		t.Fatalf("login: %v", err)
	}

	if got := svc.AccessExpiresAt(); !got.Equal(exp) {
		t.Fatalf("expected expiry %v, got %v", exp, got)
	}

	svc.Logout(context.Background())
	if got := svc.AccessExpiresAt(); !got.IsZero() {
		t.Fatalf("expected zero time when signed out, got %v", got)
	}
}

// unsignedJWT assembles a structurally valid token with an empty signature,
// enough for unverified claim parsing.
func unsignedJWT(t *testing.T, claims map[string]interface{}) string {
	t.Helper()
	header, err := json.Marshal(map[string]string{"alg": "none", "typ": "JWT"})
	if err != nil {
		t.Fatalf("encode header: %v", err)
	}
	payload, err := json.Marshal(claims)
	if err != nil {
		t.Fatalf("encode claims: %v", err)
	}
	enc := base64.RawURLEncoding
	return fmt.Sprintf("%s.%s.", enc.EncodeToString(header), enc.EncodeToString(payload))
}

type failingKV struct{}

var errStoreDown = errors.New("store down")

func (failingKV) Get(context.Context, string) (string, error) { return "", errStoreDown }
func (failingKV) Set(context.Context, string, string) error   { return errStoreDown }
func (failingKV) Delete(context.Context, string) error        { return errStoreDown }
