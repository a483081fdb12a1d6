package model

import (
	"errors"
	"fmt"
)

// 認証ライフサイクルのドメインエラー。
// サービス層はこれらをラップして返し、ハンドラー層でHTTPステータスに写像する。
var (
	// ErrUpstreamAuth はGoogle側がリクエストを拒否したことを示す。
	ErrUpstreamAuth = errors.New("upstream auth provider rejected the request")
	// ErrInvalidToken はローカル発行のアクセストークンが不正・期限切れであることを示す。
	ErrInvalidToken = errors.New("invalid or expired access token")
	// ErrMissingCredential はリフレッシュトークンが提示されなかったことを示す。
	ErrMissingCredential = errors.New("missing refresh token credential")
	// ErrUserNotFound はトークンは有効だが対応するユーザーが存在しないことを示す。
	ErrUserNotFound = errors.New("user not found")
	// ErrDuplicateUser はemail一意制約に違反する同時INSERTを示す。
	// 呼び出し元は既存行を読み直して冪等に成功させる。
	ErrDuplicateUser = errors.New("duplicate user email")
	// ErrDuplicateFriendRequest は同一ペアへの重複した友達リクエストを示す。
	ErrDuplicateFriendRequest = errors.New("duplicate friend request")
)

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, chat, friends, calendar, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeUpstreamAuth       = "UPSTREAM_AUTH_FAILED"
	ErrCodeInvalidToken       = "INVALID_TOKEN"
	ErrCodeMissingCredential  = "MISSING_CREDENTIAL"
	ErrCodeUserNotFound       = "USER_NOT_FOUND"
	ErrCodeSelfFriendRequest  = "SELF_FRIEND_REQUEST"
	ErrCodeDuplicateRequest   = "DUPLICATE_FRIEND_REQUEST"
	ErrCodeRequestNotFound    = "FRIEND_REQUEST_NOT_FOUND"
	ErrCodeEmptyMessage       = "EMPTY_MESSAGE"
	ErrCodeChatFailed         = "CHAT_FAILED"
	ErrCodeCalendarFailed     = "CALENDAR_FAILED"
)

// NewInvalidTokenError は不正トークンエラーを生成する。
func NewInvalidTokenError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidToken,
		Message:  "유효하지 않은 Access Token입니다.",
		Category: "auth",
		Action:   "다시 로그인해 주세요.",
	}
}

// NewMissingCredentialError はリフレッシュトークン未提示エラーを生成する。
func NewMissingCredentialError() *APIError {
	return &APIError{
		Code:     ErrCodeMissingCredential,
		Message:  "Refresh Token이 없습니다.",
		Category: "auth",
		Action:   "다시 로그인해 주세요.",
	}
}

// NewUserNotFoundError はユーザー未検出エラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "해당 사용자를 찾을 수 없습니다.",
		Category: "auth",
		Action:   "다시 로그인해 주세요.",
	}
}

// NewUpstreamAuthError はGoogle側の認証失敗エラーを生成する。
func NewUpstreamAuthError() *APIError {
	return &APIError{
		Code:     ErrCodeUpstreamAuth,
		Message:  "Google 인증에 실패했습니다.",
		Category: "auth",
		Action:   "잠시 후 다시 시도해 주세요.",
	}
}

// NewSelfFriendRequestError は自分自身への友達リクエストエラーを生成する。
func NewSelfFriendRequestError() *APIError {
	return &APIError{
		Code:     ErrCodeSelfFriendRequest,
		Message:  "자기 자신을 친구로 추가할 수 없습니다.",
		Category: "friends",
		Action:   "다른 사용자의 이메일을 입력해 주세요.",
	}
}

// NewDuplicateFriendRequestError は重複友達リクエストエラーを生成する。
func NewDuplicateFriendRequestError() *APIError {
	return &APIError{
		Code:     ErrCodeDuplicateRequest,
		Message:  "이미 친구 요청을 보냈습니다.",
		Category: "friends",
		Action:   "상대방의 응답을 기다려 주세요.",
	}
}

// NewFriendRequestNotFoundError は友達リクエスト未検出エラーを生成する。
func NewFriendRequestNotFoundError(requestID string) *APIError {
	return &APIError{
		Code:     ErrCodeRequestNotFound,
		Message:  fmt.Sprintf("친구 요청을 찾을 수 없습니다: %s", requestID),
		Category: "friends",
		Action:   "요청 목록을 다시 확인해 주세요.",
	}
}

// NewEmptyMessageError は空メッセージエラーを生成する。
func NewEmptyMessageError() *APIError {
	return &APIError{
		Code:     ErrCodeEmptyMessage,
		Message:  "메시지가 비어 있습니다.",
		Category: "validation",
		Action:   "메시지를 입력해 주세요.",
	}
}

// NewChatFailedError はチャット応答生成失敗エラーを生成する。
func NewChatFailedError() *APIError {
	return &APIError{
		Code:     ErrCodeChatFailed,
		Message:  "응답 생성에 실패했습니다.",
		Category: "chat",
		Action:   "잠시 후 다시 시도해 주세요.",
	}
}

// NewCalendarFailedError はカレンダー連携失敗エラーを生成する。
func NewCalendarFailedError() *APIError {
	return &APIError{
		Code:     ErrCodeCalendarFailed,
		Message:  "캘린더 요청 처리에 실패했습니다.",
		Category: "calendar",
		Action:   "잠시 후 다시 시도해 주세요.",
	}
}
