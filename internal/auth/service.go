// Package auth はGoogle OAuthログインとアクセストークンのライフサイクルを提供する。
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/aijoy/joyapi/internal/model"
	"github.com/aijoy/joyapi/internal/repository"
)

// providerGoogle はusers.login_providerに保存するIdPタグ。
const providerGoogle = "google"

// Provider はOAuthトークン交換・プロフィール取得のインターフェース。
type Provider interface {
	// AuthURL は同意画面URLを生成する。
	AuthURL() string
	// ExchangeCode は認可コードをトークンの組に交換する。
	ExchangeCode(ctx context.Context, code string) (*TokenSet, error)
	// FetchUserInfo はアクセストークンでプロフィールを取得する。
	FetchUserInfo(ctx context.Context, accessToken string) (*UserInfo, error)
	// Refresh はリフレッシュトークンで新しいアクセストークンを取得する。
	Refresh(ctx context.Context, refreshToken string) (*TokenSet, error)
}

// MetricsRecorder は認証イベントのメトリクス記録インターフェース。
type MetricsRecorder interface {
	RecordLoginSuccess()
	RecordLoginFailure()
	RecordTokenIssued()
	RecordUpstreamLatency(target string, duration time.Duration)
}

// upstreamGoogle はGoogleへの外部呼び出しのメトリクスターゲット名。
const upstreamGoogle = "google"

// CallbackResult はOAuthコールバック処理の結果。
// ProviderRefreshTokenはCookieへの転送専用で、レスポンスボディには含めない。
type CallbackResult struct {
	Message              string
	AccessToken          string
	ExpiresIn            int
	ProviderRefreshToken string
	User                 *model.User
}

// Service はログイン・リフレッシュ・ログアウトのライフサイクルを編成する。
// リクエストをまたぐ状態は持たず、永続状態はすべてUserRepositoryが所有する。
type Service struct {
	provider Provider
	issuer   *TokenIssuer
	users    repository.UserRepository
	metrics  MetricsRecorder
}

// NewService はServiceを生成する。metricsはnilでもよい。
func NewService(provider Provider, issuer *TokenIssuer, users repository.UserRepository, metrics MetricsRecorder) *Service {
	return &Service{
		provider: provider,
		issuer:   issuer,
		users:    users,
		metrics:  metrics,
	}
}

// LoginURL はGoogleの同意画面URLを返す。状態変更はない。
func (s *Service) LoginURL() string {
	return s.provider.AuthURL()
}

// HandleCallback はOAuthコールバックを処理する。
// 認可コードをトークンに交換し、プロフィールでユーザーを解決・作成した上で
// アクセストークンを発行する。初めてのemailの場合はユーザーを自動作成する。
// Googleがリフレッシュトークンを省略した場合、保存済みトークンは上書きしない。
func (s *Service) HandleCallback(ctx context.Context, code string) (*CallbackResult, error) {
	// 1. 認可コードをトークンに交換
	start := time.Now()
	tokens, err := s.provider.ExchangeCode(ctx, code)
	s.recordUpstreamLatency(start)
	if err != nil {
		s.recordLoginFailure()
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}

	// 2. プロフィールを取得
	info, err := s.provider.FetchUserInfo(ctx, tokens.AccessToken)
	if err != nil {
		s.recordLoginFailure()
		return nil, fmt.Errorf("failed to fetch user info: %w", err)
	}

	// 3. ユーザーの解決・作成
	user, err := s.resolveOrCreateUser(ctx, info, tokens.RefreshToken)
	if err != nil {
		s.recordLoginFailure()
		return nil, err
	}

	// 4. アクセストークンを発行
	accessToken, expiresIn, err := s.issuer.Issue(user.ID, user.Email)
	if err != nil {
		s.recordLoginFailure()
		return nil, fmt.Errorf("failed to issue access token: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordLoginSuccess()
		s.metrics.RecordTokenIssued()
	}

	slog.Info("user logged in",
		slog.String("email", user.Email),
		slog.Bool("refresh_token_returned", tokens.RefreshToken != ""),
	)

	return &CallbackResult{
		Message:              fmt.Sprintf("환영합니다, %s님!", info.Name),
		AccessToken:          accessToken,
		ExpiresIn:            expiresIn,
		ProviderRefreshToken: tokens.RefreshToken,
		User:                 user,
	}, nil
}

// resolveOrCreateUser はemailでユーザーを解決し、存在しなければ作成する。
// 同時初回ログインの競合はusers.emailの一意制約で解決する。敗者は
// model.ErrDuplicateUserを受け取り、既存行を読み直して冪等に成功する。
func (s *Service) resolveOrCreateUser(ctx context.Context, info *UserInfo, refreshToken string) (*model.User, error) {
	user, err := s.users.FindByEmail(ctx, info.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if user == nil {
		now := time.Now()
		newUser := &model.User{
			ID:            uuid.New().String(),
			Email:         info.Email,
			Name:          info.Name,
			LoginProvider: providerGoogle,
			Status:        model.StatusOnline,
			ProfileImage:  info.Picture,
			RefreshToken:  refreshToken,
			CreatedAt:     now,
			UpdatedAt:     now,
		}

		err := s.users.Create(ctx, newUser)
		if err == nil {
			slog.Info("new user created", slog.String("email", info.Email))
			return newUser, nil
		}
		if !errors.Is(err, model.ErrDuplicateUser) {
			return nil, fmt.Errorf("failed to create user: %w", err)
		}

		// 同時INSERTに敗れた場合は既存行を読み直す
		user, err = s.users.FindByEmail(ctx, info.Email)
		if err != nil {
			return nil, fmt.Errorf("failed to re-read user after duplicate insert: %w", err)
		}
		if user == nil {
			return nil, fmt.Errorf("user disappeared after duplicate insert: %s", info.Email)
		}
	}

	// 既存ユーザー: 状態をONLINEに更新
	if err := s.users.UpdateStatus(ctx, user.Email, model.StatusOnline); err != nil {
		return nil, fmt.Errorf("failed to update user status: %w", err)
	}
	user.Status = model.StatusOnline

	// リフレッシュトークンはGoogleが返した場合のみ上書きする
	if refreshToken != "" {
		if err := s.users.UpdateRefreshToken(ctx, user.ID, refreshToken); err != nil {
			return nil, fmt.Errorf("failed to store refresh token: %w", err)
		}
		user.RefreshToken = refreshToken
	}

	return user, nil
}

// Refresh は保存済みのGoogleリフレッシュトークンで新しいアクセストークンを発行する。
// ユーザーの特定はクライアント申告ではなく、新しいプロバイダーアクセストークンでの
// プロフィール再取得によって行う（トークンすり替えによるなりすまし対策）。
func (s *Service) Refresh(ctx context.Context, providerRefreshToken string) (string, int, error) {
	if providerRefreshToken == "" {
		return "", 0, model.ErrMissingCredential
	}

	start := time.Now()
	tokens, err := s.provider.Refresh(ctx, providerRefreshToken)
	s.recordUpstreamLatency(start)
	if err != nil {
		return "", 0, fmt.Errorf("failed to refresh provider token: %w", err)
	}

	info, err := s.provider.FetchUserInfo(ctx, tokens.AccessToken)
	if err != nil {
		return "", 0, fmt.Errorf("failed to fetch user info: %w", err)
	}

	user, err := s.users.FindByEmail(ctx, info.Email)
	if err != nil {
		return "", 0, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return "", 0, fmt.Errorf("%w: %s", model.ErrUserNotFound, info.Email)
	}

	accessToken, expiresIn, err := s.issuer.Issue(user.ID, user.Email)
	if err != nil {
		return "", 0, fmt.Errorf("failed to issue access token: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordTokenIssued()
	}

	return accessToken, expiresIn, nil
}

// Logout はアクセストークンを検証し、ユーザーをOFFLINEにして
// 保存済みのGoogleリフレッシュトークンを削除する。
// トークンが不正・欠落の場合はmodel.ErrInvalidTokenを返す（冪等ではない）。
// アクセストークン自体はステートレスなため失効させられず、自然満了まで
// 暗号学的には有効なままとなる。これは受容済みの制約であり、サーバー側の
// 失効リストは持たない。
func (s *Service) Logout(ctx context.Context, sessionToken string) error {
	claims, err := s.issuer.Verify(sessionToken)
	if err != nil {
		return err
	}

	user, err := s.users.FindByEmail(ctx, claims.Email)
	if err != nil {
		return fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return fmt.Errorf("%w: %s", model.ErrUserNotFound, claims.Email)
	}

	if err := s.users.UpdateStatus(ctx, user.Email, model.StatusOffline); err != nil {
		return fmt.Errorf("failed to update user status: %w", err)
	}

	if err := s.users.ClearRefreshToken(ctx, user.ID); err != nil {
		return fmt.Errorf("failed to clear refresh token: %w", err)
	}

	slog.Info("user logged out", slog.String("email", user.Email))
	return nil
}

// Profile はアクセストークンを検証し、対応するユーザーを返す。
// 返すユーザーの射影に保存済みリフレッシュトークンを含めるかはハンドラー層の
// 責務だが、呼び出し側は決して露出させないこと。
func (s *Service) Profile(ctx context.Context, sessionToken string) (*model.User, error) {
	claims, err := s.issuer.Verify(sessionToken)
	if err != nil {
		return nil, err
	}

	user, err := s.users.FindByEmail(ctx, claims.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("%w: %s", model.ErrUserNotFound, claims.Email)
	}

	return user, nil
}

func (s *Service) recordLoginFailure() {
	if s.metrics != nil {
		s.metrics.RecordLoginFailure()
	}
}

func (s *Service) recordUpstreamLatency(start time.Time) {
	if s.metrics != nil {
		s.metrics.RecordUpstreamLatency(upstreamGoogle, time.Since(start))
	}
}
