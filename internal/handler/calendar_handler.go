package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/aijoy/joyapi/internal/middleware"
	"github.com/aijoy/joyapi/internal/model"
)

// CalendarServiceInterface はカレンダーハンドラーが必要とするサービスインターフェース。
type CalendarServiceInterface interface {
	ListEvents(ctx context.Context, userID string, timeMin, timeMax time.Time) ([]*model.CalendarEvent, error)
	CreateEvent(ctx context.Context, userID string, event *model.CalendarEvent) (*model.CalendarEvent, error)
}

// CalendarHandler はGoogleカレンダープロキシのHTTPハンドラー。
type CalendarHandler struct {
	service CalendarServiceInterface
}

// NewCalendarHandler はCalendarHandlerを生成する。
func NewCalendarHandler(service CalendarServiceInterface) *CalendarHandler {
	return &CalendarHandler{service: service}
}

// createEventRequest は予定作成リクエストのボディ。
type createEventRequest struct {
	Summary string    `json:"summary"`
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
}

// eventResponse は予定のAPIレスポンス。
type eventResponse struct {
	ID       string    `json:"id"`
	Summary  string    `json:"summary"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	HTMLLink string    `json:"htmlLink,omitempty"`
}

// ListEvents は指定時間窓の予定一覧を返す。
// GET /calendar/events?timeMin=...&timeMax=...
func (h *CalendarHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewInvalidTokenError())
		return
	}

	timeMin, timeMax, err := parseTimeWindow(r)
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_TIME_WINDOW",
			Message:  "시간 범위가 올바르지 않습니다.",
			Category: "validation",
			Action:   "timeMin과 timeMax를 RFC3339 형식으로 지정해 주세요.",
		})
		return
	}

	events, err := h.service.ListEvents(r.Context(), userID, timeMin, timeMax)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]eventResponse, 0, len(events))
	for _, e := range events {
		responses = append(responses, toEventResponse(e))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"events": responses,
	})
}

// CreateEvent はユーザーのカレンダーに予定を作成する。
// POST /calendar/events
func (h *CalendarHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewInvalidTokenError())
		return
	}

	var req createEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	if req.Summary == "" || req.Start.IsZero() || req.End.IsZero() {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_EVENT",
			Message:  "예정 정보가 올바르지 않습니다.",
			Category: "validation",
			Action:   "summary, start, end를 모두 지정해 주세요.",
		})
		return
	}

	created, err := h.service.CreateEvent(r.Context(), userID, &model.CalendarEvent{
		Summary: req.Summary,
		Start:   req.Start,
		End:     req.End,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toEventResponse(created))
}

// parseTimeWindow はクエリからtimeMin/timeMaxを解析する。
// 未指定の場合は現在時刻から7日間を既定値とする。
func parseTimeWindow(r *http.Request) (time.Time, time.Time, error) {
	now := time.Now()
	timeMin := now
	timeMax := now.AddDate(0, 0, 7)

	if raw := r.URL.Query().Get("timeMin"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		timeMin = parsed
	}
	if raw := r.URL.Query().Get("timeMax"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		timeMax = parsed
	}

	return timeMin, timeMax, nil
}

// toEventResponse はモデルをAPIレスポンス形式に変換する。
func toEventResponse(e *model.CalendarEvent) eventResponse {
	return eventResponse{
		ID:       e.ID,
		Summary:  e.Summary,
		Start:    e.Start,
		End:      e.End,
		HTMLLink: e.HTMLLink,
	}
}
