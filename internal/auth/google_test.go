package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/aijoy/joyapi/internal/model"
)

// newTestProvider はhttptestサーバーを指すGoogleProviderを生成する。
func newTestProvider(tokenURL, userInfoURL string) *GoogleProvider {
	return NewGoogleProvider(GoogleConfig{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURL:  "http://localhost:8080/auth/google/callback",
		AuthURL:      "http://example.com/auth",
		TokenURL:     tokenURL,
		UserInfoURL:  userInfoURL,
	})
}

// TestGoogleProvider_AuthURL は同意画面URLに必須パラメータが含まれることを検証する。
func TestGoogleProvider_AuthURL(t *testing.T) {
	p := newTestProvider("http://example.com/token", "http://example.com/userinfo")

	rawURL := p.AuthURL()
	parsed, err := url.Parse(rawURL)
	if err != nil {
		t.Fatalf("failed to parse auth URL: %v", err)
	}

	q := parsed.Query()
	if got := q.Get("client_id"); got != "client-id" {
		t.Errorf("client_id = %q, want %q", got, "client-id")
	}
	if got := q.Get("scope"); got != "openid email profile" {
		t.Errorf("scope = %q, want %q", got, "openid email profile")
	}
	if got := q.Get("access_type"); got != "offline" {
		t.Errorf("access_type = %q, want %q", got, "offline")
	}
	if got := q.Get("prompt"); got != "consent" {
		t.Errorf("prompt = %q, want %q", got, "consent")
	}
	if got := q.Get("response_type"); got != "code" {
		t.Errorf("response_type = %q, want %q", got, "code")
	}
}

// TestGoogleProvider_ExchangeCode はトークン交換の正常系を検証する。
func TestGoogleProvider_ExchangeCode(t *testing.T) {
	var gotGrantType, gotCode string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatalf("failed to parse form: %v", err)
		}
		gotGrantType = r.PostFormValue("grant_type")
		gotCode = r.PostFormValue("code")

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"at-123","refresh_token":"rt-456","expires_in":3599,"token_type":"Bearer"}`))
	}))
	defer server.Close()

	p := newTestProvider(server.URL, "http://example.com/userinfo")

	tokens, err := p.ExchangeCode(context.Background(), "auth-code")
	if err != nil {
		t.Fatalf("ExchangeCode failed: %v", err)
	}

	if gotGrantType != "authorization_code" {
		t.Errorf("grant_type = %q, want %q", gotGrantType, "authorization_code")
	}
	if gotCode != "auth-code" {
		t.Errorf("code = %q, want %q", gotCode, "auth-code")
	}
	if tokens.AccessToken != "at-123" {
		t.Errorf("AccessToken = %q, want %q", tokens.AccessToken, "at-123")
	}
	if tokens.RefreshToken != "rt-456" {
		t.Errorf("RefreshToken = %q, want %q", tokens.RefreshToken, "rt-456")
	}
}

// TestGoogleProvider_ExchangeCode_Rejected はGoogle側の拒否がErrUpstreamAuthになることを検証する。
func TestGoogleProvider_ExchangeCode_Rejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"invalid_grant"}`))
	}))
	defer server.Close()

	p := newTestProvider(server.URL, "http://example.com/userinfo")

	if _, err := p.ExchangeCode(context.Background(), "used-code"); !errors.Is(err, model.ErrUpstreamAuth) {
		t.Errorf("expected ErrUpstreamAuth, got %v", err)
	}
}

// TestGoogleProvider_ExchangeCode_EmptyAccessToken は空のアクセストークンがエラーになることを検証する。
func TestGoogleProvider_ExchangeCode_EmptyAccessToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"expires_in":3599}`))
	}))
	defer server.Close()

	p := newTestProvider(server.URL, "http://example.com/userinfo")

	if _, err := p.ExchangeCode(context.Background(), "code"); !errors.Is(err, model.ErrUpstreamAuth) {
		t.Errorf("expected ErrUpstreamAuth, got %v", err)
	}
}

// TestGoogleProvider_Refresh はリフレッシュトークンでの再発行を検証する。
func TestGoogleProvider_Refresh(t *testing.T) {
	var gotGrantType, gotRefreshToken string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatalf("failed to parse form: %v", err)
		}
		gotGrantType = r.PostFormValue("grant_type")
		gotRefreshToken = r.PostFormValue("refresh_token")

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"at-new","expires_in":3599,"token_type":"Bearer"}`))
	}))
	defer server.Close()

	p := newTestProvider(server.URL, "http://example.com/userinfo")

	tokens, err := p.Refresh(context.Background(), "rt-456")
	if err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	if gotGrantType != "refresh_token" {
		t.Errorf("grant_type = %q, want %q", gotGrantType, "refresh_token")
	}
	if gotRefreshToken != "rt-456" {
		t.Errorf("refresh_token = %q, want %q", gotRefreshToken, "rt-456")
	}
	if tokens.AccessToken != "at-new" {
		t.Errorf("AccessToken = %q, want %q", tokens.AccessToken, "at-new")
	}
}

// TestGoogleProvider_FetchUserInfo はBearerヘッダー付きでプロフィールを取得できることを検証する。
func TestGoogleProvider_FetchUserInfo(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"sub":"g-1","email":"user@example.com","name":"A","picture":"http://img"}`))
	}))
	defer server.Close()

	p := newTestProvider("http://example.com/token", server.URL)

	info, err := p.FetchUserInfo(context.Background(), "at-123")
	if err != nil {
		t.Fatalf("FetchUserInfo failed: %v", err)
	}

	if !strings.HasPrefix(gotAuth, "Bearer at-123") {
		t.Errorf("Authorization = %q, want Bearer prefix", gotAuth)
	}
	if info.Email != "user@example.com" {
		t.Errorf("Email = %q, want %q", info.Email, "user@example.com")
	}
	if info.Name != "A" {
		t.Errorf("Name = %q, want %q", info.Name, "A")
	}
}

// TestGoogleProvider_FetchUserInfo_InvalidToken はトークン不正がErrUpstreamAuthになることを検証する。
func TestGoogleProvider_FetchUserInfo_InvalidToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	p := newTestProvider("http://example.com/token", server.URL)

	if _, err := p.FetchUserInfo(context.Background(), "bad"); !errors.Is(err, model.ErrUpstreamAuth) {
		t.Errorf("expected ErrUpstreamAuth, got %v", err)
	}
}

// TestGoogleProvider_FetchUserInfo_EmptyEmail はemailを欠くレスポンスがエラーになることを検証する。
func TestGoogleProvider_FetchUserInfo_EmptyEmail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"sub":"g-1","name":"A"}`))
	}))
	defer server.Close()

	p := newTestProvider("http://example.com/token", server.URL)

	if _, err := p.FetchUserInfo(context.Background(), "at"); !errors.Is(err, model.ErrUpstreamAuth) {
		t.Errorf("expected ErrUpstreamAuth, got %v", err)
	}
}
