package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/aijoy/joyapi/internal/auth"
	"github.com/aijoy/joyapi/internal/middleware"
	"github.com/aijoy/joyapi/internal/model"
)

// refreshCookieName はGoogleのRefresh Tokenを保持するCookie名。
const refreshCookieName = "refreshToken"

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	LoginURL() string
	HandleCallback(ctx context.Context, code string) (*auth.CallbackResult, error)
	Refresh(ctx context.Context, providerRefreshToken string) (string, int, error)
	Logout(ctx context.Context, sessionToken string) error
	Profile(ctx context.Context, sessionToken string) (*model.User, error)
}

// AuthHandlerConfig は認証ハンドラーの設定。
type AuthHandlerConfig struct {
	CookieDomain     string
	CookieSecure     bool
	RefreshMaxAgeSec int // Refresh TokenのCookie有効期間（秒）
}

// AuthHandler はOAuth認証ライフサイクルのHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
	config  AuthHandlerConfig
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, config AuthHandlerConfig) *AuthHandler {
	return &AuthHandler{
		service: service,
		config:  config,
	}
}

// userResponse はユーザー情報のAPIレスポンス。
// 保存済みRefresh Tokenは決して含めない。
type userResponse struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	Name          string    `json:"name"`
	LoginProvider string    `json:"loginProvider"`
	Status        string    `json:"status"`
	ProfileImage  string    `json:"profileImage,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

// callbackResponse はOAuthコールバックのAPIレスポンス。
type callbackResponse struct {
	Message     string       `json:"message"`
	AccessToken string       `json:"accessToken"`
	ExpiresIn   int          `json:"expiresIn"`
	User        callbackUser `json:"user"`
}

// callbackUser はコールバックレスポンスのユーザー射影。
type callbackUser struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture,omitempty"`
}

// tokenResponse はAccess Token再発行のAPIレスポンス。
type tokenResponse struct {
	AccessToken string `json:"accessToken"`
	ExpiresIn   int    `json:"expiresIn"`
}

// Login はGoogleの同意画面へリダイレクトする。
// GET /auth/google
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, h.service.LoginURL(), http.StatusFound)
}

// Callback はOAuthコールバックを処理し、Access Tokenを発行する。
// GoogleのRefresh TokenはHTTP Only Cookieにのみ保存し、
// レスポンスボディには含めない。
// GET /auth/google/callback?code=xxx
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "MISSING_AUTH_CODE",
			Message:  "인가 코드가 없습니다.",
			Category: "auth",
			Action:   "로그인을 다시 시도해 주세요.",
		})
		return
	}

	result, err := h.service.HandleCallback(r.Context(), code)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if result.ProviderRefreshToken != "" {
		h.setRefreshCookie(w, result.ProviderRefreshToken)
	}

	writeJSON(w, http.StatusOK, callbackResponse{
		Message:     result.Message,
		AccessToken: result.AccessToken,
		ExpiresIn:   result.ExpiresIn,
		User: callbackUser{
			Email:   result.User.Email,
			Name:    result.User.Name,
			Picture: result.User.ProfileImage,
		},
	})
}

// Token はCookieのRefresh Tokenから新しいAccess Tokenを発行する。
// POST /auth/token
func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(refreshCookieName)
	if err != nil || cookie.Value == "" {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewMissingCredentialError())
		return
	}

	accessToken, expiresIn, err := h.service.Refresh(r.Context(), cookie.Value)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken: accessToken,
		ExpiresIn:   expiresIn,
	})
}

// Logout はユーザーをOFFLINEにし、保存済みRefresh TokenとCookieを破棄する。
// POST /auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token := middleware.BearerToken(r)
	if token == "" {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewInvalidTokenError())
		return
	}

	if err := h.service.Logout(r.Context(), token); err != nil {
		handleServiceError(w, err)
		return
	}

	h.clearRefreshCookie(w)

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "로그아웃되었습니다.",
	})
}

// Me は現在のログインユーザー情報を返す。
// GET /auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	token := middleware.BearerToken(r)
	if token == "" {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewInvalidTokenError())
		return
	}

	user, err := h.service.Profile(r.Context(), token)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, userResponse{
		ID:            user.ID,
		Email:         user.Email,
		Name:          user.Name,
		LoginProvider: user.LoginProvider,
		Status:        string(user.Status),
		ProfileImage:  user.ProfileImage,
		CreatedAt:     user.CreatedAt,
	})
}

// setRefreshCookie はRefresh TokenをHTTP Only Cookieに保存する。
func (h *AuthHandler) setRefreshCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    token,
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   h.config.RefreshMaxAgeSec,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteStrictMode,
	})
}

// clearRefreshCookie はRefresh TokenのCookieを削除する。
func (h *AuthHandler) clearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteStrictMode,
	})
}
