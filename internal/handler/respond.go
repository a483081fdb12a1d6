// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/aijoy/joyapi/internal/middleware"
	"github.com/aijoy/joyapi/internal/model"
)

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

// handleServiceError はサービス層のエラーをHTTPレスポンスに写像する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		middleware.WriteErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	switch {
	case errors.Is(err, model.ErrInvalidToken):
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewInvalidTokenError())
	case errors.Is(err, model.ErrMissingCredential):
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewMissingCredentialError())
	case errors.Is(err, model.ErrUserNotFound):
		middleware.WriteErrorResponse(w, http.StatusNotFound, model.NewUserNotFoundError())
	case errors.Is(err, model.ErrUpstreamAuth):
		middleware.WriteErrorResponse(w, http.StatusInternalServerError, model.NewUpstreamAuthError())
	case errors.Is(err, model.ErrDuplicateFriendRequest):
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewDuplicateFriendRequestError())
	default:
		slog.Error("internal server error", slog.String("error", err.Error()))
		middleware.WriteInternalServerError(w)
	}
}

// mapAPIErrorToHTTPStatus はエラーコードからHTTPステータスコードを決定する。
// Google側の失敗（UPSTREAM_AUTH_FAILED）は認証エラーではなく500として返す。
// 401はクライアント側のcredential不備（トークン不正・Cookie欠落）に限定する。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeInvalidToken, model.ErrCodeMissingCredential:
		return http.StatusUnauthorized
	case model.ErrCodeUpstreamAuth:
		return http.StatusInternalServerError
	case model.ErrCodeUserNotFound, model.ErrCodeRequestNotFound:
		return http.StatusNotFound
	case model.ErrCodeSelfFriendRequest, model.ErrCodeDuplicateRequest, model.ErrCodeEmptyMessage:
		return http.StatusBadRequest
	case model.ErrCodeChatFailed, model.ErrCodeCalendarFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeInvalidRequestBody はJSONボディの解析失敗レスポンスを書き込む。
func writeInvalidRequestBody(w http.ResponseWriter) {
	middleware.WriteErrorResponse(w, http.StatusBadRequest, &model.APIError{
		Code:     "INVALID_REQUEST",
		Message:  "요청 본문을 해석할 수 없습니다.",
		Category: "validation",
		Action:   "올바른 JSON 형식으로 요청해 주세요.",
	})
}
