package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/aijoy/joyapi/internal/model"
	"github.com/aijoy/joyapi/internal/repository"
)

// mockFriendService はFriendServiceInterfaceのモック実装。
type mockFriendService struct {
	addByEmailFunc      func(ctx context.Context, fromUserID, email string) (*model.FriendRequest, *model.User, error)
	pendingRequestsFunc func(ctx context.Context, userID string) ([]repository.FriendRequestWithSender, error)
	acceptFunc          func(ctx context.Context, requestID, userID string) error
	rejectFunc          func(ctx context.Context, requestID, userID string) error
	listFunc            func(ctx context.Context, userID string) ([]*model.Friend, error)
}

func (m *mockFriendService) AddByEmail(ctx context.Context, fromUserID, email string) (*model.FriendRequest, *model.User, error) {
	return m.addByEmailFunc(ctx, fromUserID, email)
}

func (m *mockFriendService) PendingRequests(ctx context.Context, userID string) ([]repository.FriendRequestWithSender, error) {
	return m.pendingRequestsFunc(ctx, userID)
}

func (m *mockFriendService) Accept(ctx context.Context, requestID, userID string) error {
	return m.acceptFunc(ctx, requestID, userID)
}

func (m *mockFriendService) Reject(ctx context.Context, requestID, userID string) error {
	return m.rejectFunc(ctx, requestID, userID)
}

func (m *mockFriendService) List(ctx context.Context, userID string) ([]*model.Friend, error) {
	return m.listFunc(ctx, userID)
}

// TestFriendHandler_AddRequest は友達リクエスト送信で201が返ることを検証する。
func TestFriendHandler_AddRequest(t *testing.T) {
	service := &mockFriendService{
		addByEmailFunc: func(ctx context.Context, fromUserID, email string) (*model.FriendRequest, *model.User, error) {
			return &model.FriendRequest{ID: "req-1", FromUserID: fromUserID, ToUserID: "user-2"},
				&model.User{ID: "user-2", Email: email, Name: "B"}, nil
		},
	}

	h := NewFriendHandler(service)

	req := authedRequest(http.MethodPost, "/friends/requests", strings.NewReader(`{"email":"b@example.com"}`))
	w := httptest.NewRecorder()

	h.AddRequest(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "req-1") {
		t.Errorf("response should contain request ID: %s", w.Body.String())
	}
}

// TestFriendHandler_AddRequest_UnknownEmail は未登録emailで404になることを検証する。
func TestFriendHandler_AddRequest_UnknownEmail(t *testing.T) {
	service := &mockFriendService{
		addByEmailFunc: func(ctx context.Context, fromUserID, email string) (*model.FriendRequest, *model.User, error) {
			return nil, nil, model.ErrUserNotFound
		},
	}

	h := NewFriendHandler(service)

	req := authedRequest(http.MethodPost, "/friends/requests", strings.NewReader(`{"email":"ghost@example.com"}`))
	w := httptest.NewRecorder()

	h.AddRequest(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

// TestFriendHandler_AddRequest_Self は自分自身へのリクエストで400になることを検証する。
func TestFriendHandler_AddRequest_Self(t *testing.T) {
	service := &mockFriendService{
		addByEmailFunc: func(ctx context.Context, fromUserID, email string) (*model.FriendRequest, *model.User, error) {
			return nil, nil, model.NewSelfFriendRequestError()
		},
	}

	h := NewFriendHandler(service)

	req := authedRequest(http.MethodPost, "/friends/requests", strings.NewReader(`{"email":"me@example.com"}`))
	w := httptest.NewRecorder()

	h.AddRequest(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

// TestFriendHandler_AcceptRequest はURLパラメータのリクエストIDが伝播することを検証する。
func TestFriendHandler_AcceptRequest(t *testing.T) {
	var gotRequestID, gotUserID string
	service := &mockFriendService{
		acceptFunc: func(ctx context.Context, requestID, userID string) error {
			gotRequestID = requestID
			gotUserID = userID
			return nil
		},
	}

	r := chi.NewRouter()
	h := NewFriendHandler(service)
	r.Post("/friends/requests/{id}/accept", h.AcceptRequest)

	req := authedRequest(http.MethodPost, "/friends/requests/req-9/accept", strings.NewReader(""))
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	if gotRequestID != "req-9" || gotUserID != "user-1" {
		t.Errorf("accept called with (%q, %q), want (req-9, user-1)", gotRequestID, gotUserID)
	}
}

// TestFriendHandler_RejectRequest_NotFound は存在しないリクエストで404になることを検証する。
func TestFriendHandler_RejectRequest_NotFound(t *testing.T) {
	service := &mockFriendService{
		rejectFunc: func(ctx context.Context, requestID, userID string) error {
			return model.NewFriendRequestNotFoundError(requestID)
		},
	}

	r := chi.NewRouter()
	h := NewFriendHandler(service)
	r.Post("/friends/requests/{id}/reject", h.RejectRequest)

	req := authedRequest(http.MethodPost, "/friends/requests/ghost/reject", strings.NewReader(""))
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

// TestFriendHandler_ListRequests は未応答リクエスト一覧のレスポンス形式を検証する。
func TestFriendHandler_ListRequests(t *testing.T) {
	service := &mockFriendService{
		pendingRequestsFunc: func(ctx context.Context, userID string) ([]repository.FriendRequestWithSender, error) {
			return []repository.FriendRequestWithSender{
				{
					FriendRequest: model.FriendRequest{ID: "req-1"},
					SenderName:    "B",
					SenderEmail:   "b@example.com",
				},
			}, nil
		},
	}

	h := NewFriendHandler(service)

	req := authedRequest(http.MethodGet, "/friends/requests", nil)
	w := httptest.NewRecorder()

	h.ListRequests(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var body struct {
		Requests []friendRequestResponse `json:"requests"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(body.Requests) != 1 || body.Requests[0].SenderEmail != "b@example.com" {
		t.Errorf("body = %+v, want one request from b@example.com", body)
	}
}

// TestFriendHandler_ListFriends は友達一覧のレスポンス形式を検証する。
func TestFriendHandler_ListFriends(t *testing.T) {
	service := &mockFriendService{
		listFunc: func(ctx context.Context, userID string) ([]*model.Friend, error) {
			return []*model.Friend{
				{UserID: "user-2", Email: "b@example.com", Name: "B"},
			}, nil
		},
	}

	h := NewFriendHandler(service)

	req := authedRequest(http.MethodGet, "/friends", nil)
	w := httptest.NewRecorder()

	h.ListFriends(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var body struct {
		Friends []friendResponse `json:"friends"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(body.Friends) != 1 || body.Friends[0].UserID != "user-2" {
		t.Errorf("body = %+v, want one friend user-2", body)
	}
}
