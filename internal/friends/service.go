// Package friends は友達リクエストと友達一覧のドメインロジックを提供する。
package friends

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/aijoy/joyapi/internal/model"
	"github.com/aijoy/joyapi/internal/repository"
)

// Service は友達管理のサービス層。
type Service struct {
	users   repository.UserRepository
	friends repository.FriendRepository
}

// NewService はServiceを生成する。
func NewService(users repository.UserRepository, friends repository.FriendRepository) *Service {
	return &Service{
		users:   users,
		friends: friends,
	}
}

// AddByEmail は指定emailのユーザーへ友達リクエストを送る。
// 相手が存在しない場合はmodel.ErrUserNotFound、自分自身への
// リクエストと既存ペアへの重複リクエストはAPIErrorを返す。
func (s *Service) AddByEmail(ctx context.Context, fromUserID, email string) (*model.FriendRequest, *model.User, error) {
	target, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to find user: %w", err)
	}
	if target == nil {
		return nil, nil, fmt.Errorf("%w: %s", model.ErrUserNotFound, email)
	}

	if target.ID == fromUserID {
		return nil, nil, model.NewSelfFriendRequestError()
	}

	req := &model.FriendRequest{
		ID:          uuid.New().String(),
		FromUserID:  fromUserID,
		ToUserID:    target.ID,
		Status:      model.RequestPending,
		RequestedAt: time.Now(),
	}

	if err := s.friends.CreateRequest(ctx, req); err != nil {
		if err == model.ErrDuplicateFriendRequest {
			return nil, nil, model.NewDuplicateFriendRequestError()
		}
		return nil, nil, fmt.Errorf("failed to create friend request: %w", err)
	}

	slog.Info("friend request sent",
		slog.String("from_user", fromUserID),
		slog.String("to_user", target.ID),
	)

	return req, target, nil
}

// PendingRequests は指定ユーザー宛の未応答リクエストを返す。
func (s *Service) PendingRequests(ctx context.Context, userID string) ([]repository.FriendRequestWithSender, error) {
	reqs, err := s.friends.ListPendingByReceiver(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list friend requests: %w", err)
	}
	return reqs, nil
}

// Accept は友達リクエストを承認する。承認できるのは宛先ユーザーのみ。
func (s *Service) Accept(ctx context.Context, requestID, userID string) error {
	return s.respond(ctx, requestID, userID, model.RequestAccepted)
}

// Reject は友達リクエストを拒否する。拒否できるのは宛先ユーザーのみ。
func (s *Service) Reject(ctx context.Context, requestID, userID string) error {
	return s.respond(ctx, requestID, userID, model.RequestRejected)
}

// respond は未応答リクエストの状態遷移を実行する。
// PENDING以外からの遷移は許可しない。
func (s *Service) respond(ctx context.Context, requestID, userID string, status model.FriendRequestStatus) error {
	req, err := s.friends.FindRequestByID(ctx, requestID)
	if err != nil {
		return fmt.Errorf("failed to find friend request: %w", err)
	}
	if req == nil || req.ToUserID != userID {
		// 他人宛のリクエストは存在自体を漏らさない
		return model.NewFriendRequestNotFoundError(requestID)
	}
	if req.Status != model.RequestPending {
		return model.NewFriendRequestNotFoundError(requestID)
	}

	if err := s.friends.UpdateRequestStatus(ctx, requestID, status); err != nil {
		return fmt.Errorf("failed to update friend request: %w", err)
	}

	slog.Info("friend request answered",
		slog.String("request_id", requestID),
		slog.String("status", string(status)),
	)
	return nil
}

// List は承認済みの友達一覧を返す。
func (s *Service) List(ctx context.Context, userID string) ([]*model.Friend, error) {
	friends, err := s.friends.ListFriendsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list friends: %w", err)
	}
	return friends, nil
}
