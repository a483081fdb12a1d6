package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/aijoy/joyapi/internal/model"
)

const (
	defaultGoogleAuthURL     = "https://accounts.google.com/o/oauth2/v2/auth"
	defaultGoogleTokenURL    = "https://oauth2.googleapis.com/token"
	defaultGoogleUserInfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"
)

// GoogleConfig はGoogle OAuthプロバイダーの設定。
type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string

	// テスト用にオーバーライド可能なURL
	AuthURL     string
	TokenURL    string
	UserInfoURL string
}

// TokenSet はGoogleのトークンエンドポイントが返すトークンの組。
// RefreshTokenは初回同意時のみ返されることがあるため空の場合がある。
type TokenSet struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int
}

// UserInfo はGoogleのユーザー情報エンドポイントが返すプロフィール。
type UserInfo struct {
	Email   string
	Name    string
	Picture string
}

// GoogleProvider はGoogle OAuth 2.0のトークン交換・プロフィール取得を提供する。
type GoogleProvider struct {
	config     GoogleConfig
	httpClient *http.Client
}

// NewGoogleProvider はGoogleProviderを生成する。
func NewGoogleProvider(config GoogleConfig) *GoogleProvider {
	if config.AuthURL == "" {
		config.AuthURL = defaultGoogleAuthURL
	}
	if config.TokenURL == "" {
		config.TokenURL = defaultGoogleTokenURL
	}
	if config.UserInfoURL == "" {
		config.UserInfoURL = defaultGoogleUserInfoURL
	}
	return &GoogleProvider{
		config:     config,
		httpClient: http.DefaultClient,
	}
}

// AuthURL はGoogle OAuthの同意画面URLを生成する。
// access_type=offlineとprompt=consentを指定し、再ログイン時にも
// リフレッシュトークンが返されることを保証する。副作用はない。
func (p *GoogleProvider) AuthURL() string {
	params := url.Values{
		"client_id":     {p.config.ClientID},
		"redirect_uri":  {p.config.RedirectURL},
		"response_type": {"code"},
		"scope":         {"openid email profile"},
		"access_type":   {"offline"},
		"prompt":        {"consent"},
	}
	return p.config.AuthURL + "?" + params.Encode()
}

// googleTokenResponse はGoogleのトークンエンドポイントのレスポンス。
type googleTokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
}

// googleUserInfo はGoogleのユーザー情報エンドポイントのレスポンス。
type googleUserInfo struct {
	Sub     string `json:"sub"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// ExchangeCode は認可コードをトークンの組に交換する。
// コードは使い捨てで、再利用はGoogle側で拒否されmodel.ErrUpstreamAuthになる。
func (p *GoogleProvider) ExchangeCode(ctx context.Context, code string) (*TokenSet, error) {
	data := url.Values{
		"code":          {code},
		"client_id":     {p.config.ClientID},
		"client_secret": {p.config.ClientSecret},
		"redirect_uri":  {p.config.RedirectURL},
		"grant_type":    {"authorization_code"},
	}

	tokenResp, err := p.postTokenEndpoint(ctx, data)
	if err != nil {
		return nil, err
	}

	return &TokenSet{
		AccessToken:  tokenResp.AccessToken,
		RefreshToken: tokenResp.RefreshToken,
		ExpiresIn:    tokenResp.ExpiresIn,
	}, nil
}

// Refresh は保存済みのリフレッシュトークンで新しいアクセストークンを取得する。
// トークンがGoogle側で失効している場合はmodel.ErrUpstreamAuthを返す。
func (p *GoogleProvider) Refresh(ctx context.Context, refreshToken string) (*TokenSet, error) {
	data := url.Values{
		"client_id":     {p.config.ClientID},
		"client_secret": {p.config.ClientSecret},
		"refresh_token": {refreshToken},
		"grant_type":    {"refresh_token"},
	}

	tokenResp, err := p.postTokenEndpoint(ctx, data)
	if err != nil {
		return nil, err
	}

	return &TokenSet{
		AccessToken: tokenResp.AccessToken,
		ExpiresIn:   tokenResp.ExpiresIn,
	}, nil
}

// postTokenEndpoint はトークンエンドポイントへのフォームPOSTを実行する。
func (p *GoogleProvider) postTokenEndpoint(ctx context.Context, data url.Values) (*googleTokenResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.TokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: token request failed: %v", model.ErrUpstreamAuth, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read token response: %v", model.ErrUpstreamAuth, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: token endpoint returned status %d: %s", model.ErrUpstreamAuth, resp.StatusCode, string(body))
	}

	var tokenResp googleTokenResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return nil, fmt.Errorf("%w: failed to parse token response: %v", model.ErrUpstreamAuth, err)
	}

	if tokenResp.AccessToken == "" {
		return nil, fmt.Errorf("%w: empty access token in response", model.ErrUpstreamAuth)
	}

	return &tokenResp, nil
}

// FetchUserInfo はアクセストークンでGoogleのプロフィールを取得する。
// トークンが不正・期限切れの場合はmodel.ErrUpstreamAuthを返す。
func (p *GoogleProvider) FetchUserInfo(ctx context.Context, accessToken string) (*UserInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.config.UserInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create user info request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: user info request failed: %v", model.ErrUpstreamAuth, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read user info response: %v", model.ErrUpstreamAuth, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: user info endpoint returned status %d: %s", model.ErrUpstreamAuth, resp.StatusCode, string(body))
	}

	var info googleUserInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("%w: failed to parse user info response: %v", model.ErrUpstreamAuth, err)
	}

	if info.Email == "" {
		return nil, fmt.Errorf("%w: empty email in user info response", model.ErrUpstreamAuth)
	}

	return &UserInfo{
		Email:   info.Email,
		Name:    info.Name,
		Picture: info.Picture,
	}, nil
}

// compile-time interface check
var _ Provider = (*GoogleProvider)(nil)
