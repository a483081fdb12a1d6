// Package model はドメインモデルを定義する。
package model

import "time"

// UserStatus はユーザーのログイン状態を表す。
type UserStatus string

const (
	// StatusOnline はログイン中の状態を示す。
	StatusOnline UserStatus = "ONLINE"
	// StatusOffline はログアウト済みの状態を示す。
	StatusOffline UserStatus = "OFFLINE"
)

// User はサービス利用ユーザーを表す。
// RefreshTokenはGoogleが発行した長期credentialで、APIレスポンスには決して含めない。
type User struct {
	ID            string
	Email         string
	Name          string
	LoginProvider string
	Status        UserStatus
	ProfileImage  string
	RefreshToken  string // 空文字は未保存を意味する
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// HasRefreshToken はGoogleのリフレッシュトークンが保存済みかを返す。
func (u *User) HasRefreshToken() bool {
	return u.RefreshToken != ""
}
