package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/aijoy/joyapi/internal/middleware"
	"github.com/aijoy/joyapi/internal/model"
)

// ChatServiceInterface はチャットハンドラーが必要とするサービスインターフェース。
type ChatServiceInterface interface {
	Send(ctx context.Context, userID, text string) (*model.ChatMessage, error)
	History(ctx context.Context, userID string, limit int) ([]*model.ChatMessage, error)
}

// ChatHandler はAIチャットのHTTPハンドラー。
type ChatHandler struct {
	service ChatServiceInterface
}

// NewChatHandler はChatHandlerを生成する。
func NewChatHandler(service ChatServiceInterface) *ChatHandler {
	return &ChatHandler{service: service}
}

// sendMessageRequest はチャット送信リクエストのボディ。
type sendMessageRequest struct {
	Message string `json:"message"`
}

// chatMessageResponse はチャットメッセージのAPIレスポンス。
type chatMessageResponse struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// Send はユーザーメッセージを受け取り、アシスタントの応答を返す。
// POST /chat
func (h *ChatHandler) Send(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewInvalidTokenError())
		return
	}

	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	if req.Message == "" {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewEmptyMessageError())
		return
	}

	reply, err := h.service.Send(r.Context(), userID, req.Message)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"reply": toChatMessageResponse(reply),
	})
}

// History は最近のチャット履歴を古い順で返す。
// GET /chat/history?limit=50
func (h *ChatHandler) History(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewInvalidTokenError())
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, _ = strconv.Atoi(raw)
	}

	messages, err := h.service.History(r.Context(), userID, limit)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]chatMessageResponse, 0, len(messages))
	for _, m := range messages {
		responses = append(responses, toChatMessageResponse(m))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"messages": responses,
	})
}

// toChatMessageResponse はモデルをAPIレスポンス形式に変換する。
func toChatMessageResponse(m *model.ChatMessage) chatMessageResponse {
	return chatMessageResponse{
		ID:        m.ID,
		Role:      string(m.Role),
		Content:   m.Content,
		CreatedAt: m.CreatedAt,
	}
}
