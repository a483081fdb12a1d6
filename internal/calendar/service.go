package calendar

import (
	"context"
	"fmt"
	"time"

	"github.com/aijoy/joyapi/internal/auth"
	"github.com/aijoy/joyapi/internal/model"
	"github.com/aijoy/joyapi/internal/repository"
)

// TokenRefresher は保存済みリフレッシュトークンから新しい
// プロバイダーアクセストークンを取得するインターフェース。
// auth.Providerの部分集合として定義する。
type TokenRefresher interface {
	Refresh(ctx context.Context, refreshToken string) (*auth.TokenSet, error)
}

// EventsClient はカレンダーAPI呼び出しのインターフェース。
type EventsClient interface {
	ListEvents(ctx context.Context, accessToken string, timeMin, timeMax time.Time) ([]*model.CalendarEvent, error)
	CreateEvent(ctx context.Context, accessToken string, event *model.CalendarEvent) (*model.CalendarEvent, error)
}

// Service はユーザーのGoogleカレンダーへのプロキシを提供する。
// 呼び出しごとに保存済みリフレッシュトークンからアクセストークンを発行する
// （プロバイダートークンのキャッシュは持たない）。
type Service struct {
	users     repository.UserRepository
	refresher TokenRefresher
	client    EventsClient
}

// NewService はServiceを生成する。
func NewService(users repository.UserRepository, refresher TokenRefresher, client EventsClient) *Service {
	return &Service{
		users:     users,
		refresher: refresher,
		client:    client,
	}
}

// ListEvents は指定時間窓のユーザーの予定一覧を返す。
func (s *Service) ListEvents(ctx context.Context, userID string, timeMin, timeMax time.Time) ([]*model.CalendarEvent, error) {
	accessToken, err := s.providerAccessToken(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.client.ListEvents(ctx, accessToken, timeMin, timeMax)
}

// CreateEvent はユーザーのカレンダーに予定を作成する。
func (s *Service) CreateEvent(ctx context.Context, userID string, event *model.CalendarEvent) (*model.CalendarEvent, error) {
	accessToken, err := s.providerAccessToken(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.client.CreateEvent(ctx, accessToken, event)
}

// providerAccessToken は保存済みリフレッシュトークンからアクセストークンを発行する。
// リフレッシュトークンが未保存の場合はmodel.ErrMissingCredentialを返す。
func (s *Service) providerAccessToken(ctx context.Context, userID string) (string, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return "", fmt.Errorf("%w: %s", model.ErrUserNotFound, userID)
	}
	if !user.HasRefreshToken() {
		return "", fmt.Errorf("%w: no stored provider refresh token", model.ErrMissingCredential)
	}

	tokens, err := s.refresher.Refresh(ctx, user.RefreshToken)
	if err != nil {
		return "", fmt.Errorf("failed to refresh provider token: %w", err)
	}
	return tokens.AccessToken, nil
}
