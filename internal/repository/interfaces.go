// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/aijoy/joyapi/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByEmail は指定emailのユーザーを取得する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// Create はユーザーを作成する。
	// email一意制約に違反した場合はmodel.ErrDuplicateUserを返す。
	Create(ctx context.Context, user *model.User) error

	// UpdateStatus は指定emailのユーザーのログイン状態を更新する。
	UpdateStatus(ctx context.Context, email string, status model.UserStatus) error

	// UpdateRefreshToken は保存済みのGoogleリフレッシュトークンを上書きする。
	UpdateRefreshToken(ctx context.Context, userID, token string) error

	// ClearRefreshToken は保存済みのGoogleリフレッシュトークンを削除する。
	ClearRefreshToken(ctx context.Context, userID string) error
}

// FriendRequestWithSender は友達リクエストと送信者情報を結合した構造体。
type FriendRequestWithSender struct {
	model.FriendRequest
	SenderName  string
	SenderEmail string
	SenderImage string
}

// FriendRepository は友達リクエストデータの永続化インターフェース。
type FriendRepository interface {
	// CreateRequest は友達リクエストを作成する。
	// 同一ペアの重複リクエストはmodel.ErrDuplicateFriendRequestを返す。
	CreateRequest(ctx context.Context, req *model.FriendRequest) error

	// FindRequestByID は指定IDのリクエストを取得する。見つからない場合はnilを返す。
	FindRequestByID(ctx context.Context, id string) (*model.FriendRequest, error)

	// ListPendingByReceiver は指定ユーザー宛の未応答リクエストを送信者情報付きで返す。
	ListPendingByReceiver(ctx context.Context, userID string) ([]FriendRequestWithSender, error)

	// UpdateRequestStatus はリクエストの状態を更新する。
	UpdateRequestStatus(ctx context.Context, id string, status model.FriendRequestStatus) error

	// ListFriendsByUser は承認済みの友達一覧を返す。方向は問わない。
	ListFriendsByUser(ctx context.Context, userID string) ([]*model.Friend, error)
}

// ChatRepository はチャットメッセージの永続化インターフェース。
type ChatRepository interface {
	// Create はチャットメッセージを保存する。
	Create(ctx context.Context, msg *model.ChatMessage) error

	// ListRecentByUser は指定ユーザーの直近limit件のメッセージを古い順で返す。
	ListRecentByUser(ctx context.Context, userID string, limit int) ([]*model.ChatMessage, error)
}
