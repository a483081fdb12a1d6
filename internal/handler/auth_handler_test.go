package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aijoy/joyapi/internal/auth"
	"github.com/aijoy/joyapi/internal/model"
)

// mockAuthService はAuthServiceInterfaceのモック実装。
type mockAuthService struct {
	loginURLFunc       func() string
	handleCallbackFunc func(ctx context.Context, code string) (*auth.CallbackResult, error)
	refreshFunc        func(ctx context.Context, providerRefreshToken string) (string, int, error)
	logoutFunc         func(ctx context.Context, sessionToken string) error
	profileFunc        func(ctx context.Context, sessionToken string) (*model.User, error)
}

func (m *mockAuthService) LoginURL() string {
	if m.loginURLFunc != nil {
		return m.loginURLFunc()
	}
	return "https://accounts.google.com/o/oauth2/v2/auth?client_id=test"
}

func (m *mockAuthService) HandleCallback(ctx context.Context, code string) (*auth.CallbackResult, error) {
	return m.handleCallbackFunc(ctx, code)
}

func (m *mockAuthService) Refresh(ctx context.Context, providerRefreshToken string) (string, int, error) {
	return m.refreshFunc(ctx, providerRefreshToken)
}

func (m *mockAuthService) Logout(ctx context.Context, sessionToken string) error {
	return m.logoutFunc(ctx, sessionToken)
}

func (m *mockAuthService) Profile(ctx context.Context, sessionToken string) (*model.User, error) {
	return m.profileFunc(ctx, sessionToken)
}

func testAuthConfig() AuthHandlerConfig {
	return AuthHandlerConfig{
		CookieSecure:     false,
		RefreshMaxAgeSec: 7 * 24 * 60 * 60,
	}
}

// TestAuthHandler_Login は同意画面への302リダイレクトを検証する。
func TestAuthHandler_Login(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{}, testAuthConfig())

	req := httptest.NewRequest(http.MethodGet, "/auth/google", nil)
	w := httptest.NewRecorder()

	h.Login(w, req)

	if w.Code != http.StatusFound {
		t.Errorf("status = %d, want 302", w.Code)
	}
	if loc := w.Header().Get("Location"); !strings.Contains(loc, "accounts.google.com") {
		t.Errorf("Location = %q, want Google consent URL", loc)
	}
}

// TestAuthHandler_Callback はコールバック成功時のレスポンスと
// refreshToken Cookieの属性を検証する。
func TestAuthHandler_Callback(t *testing.T) {
	service := &mockAuthService{
		handleCallbackFunc: func(ctx context.Context, code string) (*auth.CallbackResult, error) {
			if code != "auth-code" {
				t.Errorf("code = %q, want %q", code, "auth-code")
			}
			return &auth.CallbackResult{
				Message:              "환영합니다, 철수님!",
				AccessToken:          "jwt-token",
				ExpiresIn:            3600,
				ProviderRefreshToken: "rt-google",
				User: &model.User{
					Email:        "user@example.com",
					Name:         "철수",
					ProfileImage: "http://img",
					RefreshToken: "rt-google",
				},
			}, nil
		},
	}

	h := NewAuthHandler(service, testAuthConfig())

	req := httptest.NewRequest(http.MethodGet, "/auth/google/callback?code=auth-code", nil)
	w := httptest.NewRecorder()

	h.Callback(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}

	raw := w.Body.String()
	var body callbackResponse
	if err := json.Unmarshal([]byte(raw), &body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Message != "환영합니다, 철수님!" {
		t.Errorf("Message = %q, want greeting", body.Message)
	}
	if body.AccessToken != "jwt-token" || body.ExpiresIn != 3600 {
		t.Errorf("token fields = (%q, %d), want (jwt-token, 3600)", body.AccessToken, body.ExpiresIn)
	}
	if body.User.Email != "user@example.com" {
		t.Errorf("User.Email = %q, want %q", body.User.Email, "user@example.com")
	}

	// レスポンスボディにリフレッシュトークンが含まれないこと
	if strings.Contains(raw, "rt-google") {
		t.Error("response body must not contain the provider refresh token")
	}

	cookies := w.Result().Cookies()
	var refreshCookie *http.Cookie
	for _, c := range cookies {
		if c.Name == refreshCookieName {
			refreshCookie = c
		}
	}
	if refreshCookie == nil {
		t.Fatal("refreshToken cookie should be set")
	}
	if refreshCookie.Value != "rt-google" {
		t.Errorf("cookie value = %q, want provider refresh token", refreshCookie.Value)
	}
	if !refreshCookie.HttpOnly {
		t.Error("cookie should be HttpOnly")
	}
	if refreshCookie.SameSite != http.SameSiteStrictMode {
		t.Error("cookie should be SameSite=Strict")
	}
	if refreshCookie.MaxAge != 7*24*60*60 {
		t.Errorf("cookie MaxAge = %d, want 7 days", refreshCookie.MaxAge)
	}
}

// TestAuthHandler_Callback_NoRefreshToken はGoogleがリフレッシュトークンを
// 省略した場合にCookieが設定されないことを検証する。
func TestAuthHandler_Callback_NoRefreshToken(t *testing.T) {
	service := &mockAuthService{
		handleCallbackFunc: func(ctx context.Context, code string) (*auth.CallbackResult, error) {
			return &auth.CallbackResult{
				Message:     "환영합니다, A님!",
				AccessToken: "jwt-token",
				ExpiresIn:   3600,
				User:        &model.User{Email: "user@example.com", Name: "A"},
			}, nil
		},
	}

	h := NewAuthHandler(service, testAuthConfig())

	req := httptest.NewRequest(http.MethodGet, "/auth/google/callback?code=c", nil)
	w := httptest.NewRecorder()

	h.Callback(w, req)

	for _, c := range w.Result().Cookies() {
		if c.Name == refreshCookieName {
			t.Error("cookie should not be set when provider omits the refresh token")
		}
	}
}

// TestAuthHandler_Callback_MissingCode はcodeパラメータ欠落で400になることを検証する。
func TestAuthHandler_Callback_MissingCode(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{}, testAuthConfig())

	req := httptest.NewRequest(http.MethodGet, "/auth/google/callback", nil)
	w := httptest.NewRecorder()

	h.Callback(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

// TestAuthHandler_Callback_UpstreamFailure はGoogle側のトークン交換失敗が
// 認証エラーではなく500になることを検証する。
func TestAuthHandler_Callback_UpstreamFailure(t *testing.T) {
	service := &mockAuthService{
		handleCallbackFunc: func(ctx context.Context, code string) (*auth.CallbackResult, error) {
			return nil, model.ErrUpstreamAuth
		},
	}

	h := NewAuthHandler(service, testAuthConfig())

	req := httptest.NewRequest(http.MethodGet, "/auth/google/callback?code=bad", nil)
	w := httptest.NewRecorder()

	h.Callback(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
	if !strings.Contains(w.Body.String(), "UPSTREAM_AUTH_FAILED") {
		t.Errorf("body should carry the upstream failure code: %s", w.Body.String())
	}
}

// TestAuthHandler_Token_UpstreamFailure はGoogle側のリフレッシュ失敗が
// 500になることを検証する（401はCookie欠落の場合に限る）。
func TestAuthHandler_Token_UpstreamFailure(t *testing.T) {
	service := &mockAuthService{
		refreshFunc: func(ctx context.Context, providerRefreshToken string) (string, int, error) {
			return "", 0, model.ErrUpstreamAuth
		},
	}

	h := NewAuthHandler(service, testAuthConfig())

	req := httptest.NewRequest(http.MethodPost, "/auth/token", nil)
	req.AddCookie(&http.Cookie{Name: refreshCookieName, Value: "revoked-rt"})
	w := httptest.NewRecorder()

	h.Token(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
}

// TestAuthHandler_Token はCookieのリフレッシュトークンによる再発行を検証する。
func TestAuthHandler_Token(t *testing.T) {
	service := &mockAuthService{
		refreshFunc: func(ctx context.Context, providerRefreshToken string) (string, int, error) {
			if providerRefreshToken != "rt-google" {
				t.Errorf("refresh token = %q, want cookie value", providerRefreshToken)
			}
			return "new-jwt", 3600, nil
		},
	}

	h := NewAuthHandler(service, testAuthConfig())

	req := httptest.NewRequest(http.MethodPost, "/auth/token", nil)
	req.AddCookie(&http.Cookie{Name: refreshCookieName, Value: "rt-google"})
	w := httptest.NewRecorder()

	h.Token(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}

	var body tokenResponse
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.AccessToken != "new-jwt" || body.ExpiresIn != 3600 {
		t.Errorf("body = %+v, want new token", body)
	}
}

// TestAuthHandler_Token_MissingCookie はCookie欠落で401になることを検証する。
func TestAuthHandler_Token_MissingCookie(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{}, testAuthConfig())

	req := httptest.NewRequest(http.MethodPost, "/auth/token", nil)
	w := httptest.NewRecorder()

	h.Token(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

// TestAuthHandler_Logout はログアウト成功でCookieが破棄されることを検証する。
func TestAuthHandler_Logout(t *testing.T) {
	service := &mockAuthService{
		logoutFunc: func(ctx context.Context, sessionToken string) error {
			if sessionToken != "jwt-token" {
				t.Errorf("token = %q, want bearer token", sessionToken)
			}
			return nil
		},
	}

	h := NewAuthHandler(service, testAuthConfig())

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.Header.Set("Authorization", "Bearer jwt-token")
	w := httptest.NewRecorder()

	h.Logout(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var cleared bool
	for _, c := range w.Result().Cookies() {
		if c.Name == refreshCookieName && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Error("refreshToken cookie should be cleared")
	}
}

// TestAuthHandler_Logout_InvalidToken は不正トークンで401になることを検証する。
func TestAuthHandler_Logout_InvalidToken(t *testing.T) {
	service := &mockAuthService{
		logoutFunc: func(ctx context.Context, sessionToken string) error {
			return model.ErrInvalidToken
		},
	}

	h := NewAuthHandler(service, testAuthConfig())

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	w := httptest.NewRecorder()

	h.Logout(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

// TestAuthHandler_Logout_UserNotFound は対応ユーザーなしで404になることを検証する。
func TestAuthHandler_Logout_UserNotFound(t *testing.T) {
	service := &mockAuthService{
		logoutFunc: func(ctx context.Context, sessionToken string) error {
			return model.ErrUserNotFound
		},
	}

	h := NewAuthHandler(service, testAuthConfig())

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.Header.Set("Authorization", "Bearer jwt-token")
	w := httptest.NewRecorder()

	h.Logout(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

// TestAuthHandler_Me はプロフィール取得の射影にリフレッシュトークンが
// 含まれないことを検証する。
func TestAuthHandler_Me(t *testing.T) {
	service := &mockAuthService{
		profileFunc: func(ctx context.Context, sessionToken string) (*model.User, error) {
			return &model.User{
				ID:           "user-1",
				Email:        "user@example.com",
				Name:         "A",
				Status:       model.StatusOnline,
				RefreshToken: "rt-secret",
			}, nil
		},
	}

	h := NewAuthHandler(service, testAuthConfig())

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer jwt-token")
	w := httptest.NewRecorder()

	h.Me(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	raw := w.Body.String()
	var body userResponse
	if err := json.Unmarshal([]byte(raw), &body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Email != "user@example.com" || body.Status != "ONLINE" {
		t.Errorf("body = %+v, want user projection", body)
	}
	if strings.Contains(raw, "rt-secret") {
		t.Error("response must not expose the stored refresh token")
	}
}

// TestAuthHandler_Me_NoBearer はAuthorizationヘッダー欠落で401になることを検証する。
func TestAuthHandler_Me_NoBearer(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{}, testAuthConfig())

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	w := httptest.NewRecorder()

	h.Me(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}
