package model

import "time"

// ChatRole はチャットメッセージの発話者を表す。
type ChatRole string

const (
	// RoleUser はユーザーの発話を示す。
	RoleUser ChatRole = "user"
	// RoleAssistant はアシスタントの応答を示す。
	RoleAssistant ChatRole = "assistant"
)

// ChatMessage は保存されたチャットメッセージを表す。
type ChatMessage struct {
	ID        string
	UserID    string
	Role      ChatRole
	Content   string
	CreatedAt time.Time
}
