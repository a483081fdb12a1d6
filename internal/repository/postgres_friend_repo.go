package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/aijoy/joyapi/internal/model"
)

// PostgresFriendRepo はPostgreSQLを使用した友達リクエストリポジトリ。
type PostgresFriendRepo struct {
	db *sql.DB
}

// NewPostgresFriendRepo はPostgresFriendRepoを生成する。
func NewPostgresFriendRepo(db *sql.DB) *PostgresFriendRepo {
	return &PostgresFriendRepo{db: db}
}

// CreateRequest は友達リクエストを作成する。
// 同一ペアの重複リクエストはmodel.ErrDuplicateFriendRequestを返す。
func (r *PostgresFriendRepo) CreateRequest(ctx context.Context, req *model.FriendRequest) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO friend_requests (id, from_user, to_user, status, requested_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		req.ID, req.FromUserID, req.ToUserID, req.Status, req.RequestedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return model.ErrDuplicateFriendRequest
		}
		return fmt.Errorf("failed to insert friend request: %w", err)
	}
	return nil
}

// FindRequestByID は指定IDのリクエストを取得する。見つからない場合はnilを返す。
func (r *PostgresFriendRepo) FindRequestByID(ctx context.Context, id string) (*model.FriendRequest, error) {
	req := &model.FriendRequest{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, from_user, to_user, status, requested_at
		 FROM friend_requests WHERE id = $1`, id,
	).Scan(&req.ID, &req.FromUserID, &req.ToUserID, &req.Status, &req.RequestedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan friend request: %w", err)
	}
	return req, nil
}

// ListPendingByReceiver は指定ユーザー宛の未応答リクエストを送信者情報付きで返す。
func (r *PostgresFriendRepo) ListPendingByReceiver(ctx context.Context, userID string) ([]FriendRequestWithSender, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT fr.id, fr.from_user, fr.to_user, fr.status, fr.requested_at,
		        u.name, u.email, u.profile_image
		 FROM friend_requests fr
		 JOIN users u ON u.id = fr.from_user
		 WHERE fr.to_user = $1 AND fr.status = 'PENDING'
		 ORDER BY fr.requested_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query friend requests: %w", err)
	}
	defer rows.Close()

	var result []FriendRequestWithSender
	for rows.Next() {
		var row FriendRequestWithSender
		if err := rows.Scan(
			&row.ID, &row.FromUserID, &row.ToUserID, &row.Status, &row.RequestedAt,
			&row.SenderName, &row.SenderEmail, &row.SenderImage,
		); err != nil {
			return nil, fmt.Errorf("failed to scan friend request row: %w", err)
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

// UpdateRequestStatus はリクエストの状態を更新する。
func (r *PostgresFriendRepo) UpdateRequestStatus(ctx context.Context, id string, status model.FriendRequestStatus) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE friend_requests SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("failed to update friend request status: %w", err)
	}
	return nil
}

// ListFriendsByUser は承認済みの友達一覧を返す。方向は問わない。
func (r *PostgresFriendRepo) ListFriendsByUser(ctx context.Context, userID string) ([]*model.Friend, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT u.id, u.email, u.name, u.profile_image, fr.requested_at
		 FROM friend_requests fr
		 JOIN users u ON u.id = CASE WHEN fr.from_user = $1 THEN fr.to_user ELSE fr.from_user END
		 WHERE (fr.from_user = $1 OR fr.to_user = $1) AND fr.status = 'ACCEPTED'
		 ORDER BY u.name`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query friends: %w", err)
	}
	defer rows.Close()

	var friends []*model.Friend
	for rows.Next() {
		f := &model.Friend{}
		if err := rows.Scan(&f.UserID, &f.Email, &f.Name, &f.ProfileImage, &f.Since); err != nil {
			return nil, fmt.Errorf("failed to scan friend row: %w", err)
		}
		friends = append(friends, f)
	}
	return friends, rows.Err()
}
