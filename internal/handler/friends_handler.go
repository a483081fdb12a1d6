package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/aijoy/joyapi/internal/middleware"
	"github.com/aijoy/joyapi/internal/model"
	"github.com/aijoy/joyapi/internal/repository"
)

// FriendServiceInterface は友達ハンドラーが必要とするサービスインターフェース。
type FriendServiceInterface interface {
	AddByEmail(ctx context.Context, fromUserID, email string) (*model.FriendRequest, *model.User, error)
	PendingRequests(ctx context.Context, userID string) ([]repository.FriendRequestWithSender, error)
	Accept(ctx context.Context, requestID, userID string) error
	Reject(ctx context.Context, requestID, userID string) error
	List(ctx context.Context, userID string) ([]*model.Friend, error)
}

// FriendHandler は友達管理のHTTPハンドラー。
type FriendHandler struct {
	service FriendServiceInterface
}

// NewFriendHandler はFriendHandlerを生成する。
func NewFriendHandler(service FriendServiceInterface) *FriendHandler {
	return &FriendHandler{service: service}
}

// addFriendRequest は友達リクエスト送信のボディ。
type addFriendRequest struct {
	Email string `json:"email"`
}

// friendRequestResponse は受信した友達リクエストのAPIレスポンス。
type friendRequestResponse struct {
	ID          string    `json:"id"`
	SenderName  string    `json:"senderName"`
	SenderEmail string    `json:"senderEmail"`
	SenderImage string    `json:"senderImage,omitempty"`
	RequestedAt time.Time `json:"requestedAt"`
}

// friendResponse は友達一覧のAPIレスポンス。
type friendResponse struct {
	UserID       string    `json:"userId"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	ProfileImage string    `json:"profileImage,omitempty"`
	Since        time.Time `json:"since"`
}

// AddRequest はemail指定で友達リクエストを送る。
// POST /friends/requests
func (h *FriendHandler) AddRequest(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewInvalidTokenError())
		return
	}

	var req addFriendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	if req.Email == "" {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "EMPTY_EMAIL",
			Message:  "이메일이 비어 있습니다.",
			Category: "validation",
			Action:   "친구의 이메일을 입력해 주세요.",
		})
		return
	}

	request, target, err := h.service.AddByEmail(r.Context(), userID, req.Email)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message":   "친구 요청을 보냈습니다.",
		"requestId": request.ID,
		"to": map[string]string{
			"email": target.Email,
			"name":  target.Name,
		},
	})
}

// ListRequests は自分宛の未応答リクエスト一覧を返す。
// GET /friends/requests
func (h *FriendHandler) ListRequests(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewInvalidTokenError())
		return
	}

	requests, err := h.service.PendingRequests(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]friendRequestResponse, 0, len(requests))
	for _, req := range requests {
		responses = append(responses, friendRequestResponse{
			ID:          req.ID,
			SenderName:  req.SenderName,
			SenderEmail: req.SenderEmail,
			SenderImage: req.SenderImage,
			RequestedAt: req.RequestedAt,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"requests": responses,
	})
}

// AcceptRequest は友達リクエストを承認する。
// POST /friends/requests/{id}/accept
func (h *FriendHandler) AcceptRequest(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, h.service.Accept, "친구 요청을 수락했습니다.")
}

// RejectRequest は友達リクエストを拒否する。
// POST /friends/requests/{id}/reject
func (h *FriendHandler) RejectRequest(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, h.service.Reject, "친구 요청을 거절했습니다.")
}

// respond は承認・拒否の共通処理。
func (h *FriendHandler) respond(w http.ResponseWriter, r *http.Request, action func(ctx context.Context, requestID, userID string) error, message string) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewInvalidTokenError())
		return
	}

	requestID := chi.URLParam(r, "id")
	if err := action(r.Context(), requestID, userID); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message": message,
	})
}

// ListFriends は承認済みの友達一覧を返す。
// GET /friends
func (h *FriendHandler) ListFriends(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewInvalidTokenError())
		return
	}

	friends, err := h.service.List(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]friendResponse, 0, len(friends))
	for _, f := range friends {
		responses = append(responses, friendResponse{
			UserID:       f.UserID,
			Email:        f.Email,
			Name:         f.Name,
			ProfileImage: f.ProfileImage,
			Since:        f.Since,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"friends": responses,
	})
}
