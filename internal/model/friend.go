package model

import "time"

// FriendRequestStatus は友達リクエストの状態を表す。
type FriendRequestStatus string

const (
	// RequestPending は相手の応答待ちの状態を示す。
	RequestPending FriendRequestStatus = "PENDING"
	// RequestAccepted は承認済みの状態を示す。
	RequestAccepted FriendRequestStatus = "ACCEPTED"
	// RequestRejected は拒否済みの状態を示す。
	RequestRejected FriendRequestStatus = "REJECTED"
)

// FriendRequest はユーザー間の友達リクエストを表す。
type FriendRequest struct {
	ID          string
	FromUserID  string
	ToUserID    string
	Status      FriendRequestStatus
	RequestedAt time.Time
}

// Friend は承認済みの友達一覧の1件を表す。
// friend_requestsとusersをJOINした読み取り専用のビュー。
type Friend struct {
	UserID       string
	Email        string
	Name         string
	ProfileImage string
	Since        time.Time
}
