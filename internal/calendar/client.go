// Package calendar はGoogleカレンダーの予定プロキシを提供する。
// 予定はGoogle側が保持し、ローカルには永続化しない。
package calendar

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/aijoy/joyapi/internal/model"
)

// defaultEventsEndpoint はprimaryカレンダーのeventsエンドポイント。
const defaultEventsEndpoint = "https://www.googleapis.com/calendar/v3/calendars/primary/events"

// Client はGoogleカレンダーAPIのクライアント。
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	endpoint   string // テスト用にエンドポイントを差し替え可能
}

// NewClient はClientを生成する。
func NewClient(httpClient *http.Client, logger *slog.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     logger,
		endpoint:   defaultEventsEndpoint,
	}
}

// googleEventTime はGoogleカレンダーの日時表現。
// 終日予定はDate、それ以外はDateTimeを持つ。
type googleEventTime struct {
	DateTime string `json:"dateTime,omitempty"`
	Date     string `json:"date,omitempty"`
}

// googleEvent はGoogleカレンダーのevent資源の読み取りに使う射影。
type googleEvent struct {
	ID       string          `json:"id"`
	Summary  string          `json:"summary"`
	Start    googleEventTime `json:"start"`
	End      googleEventTime `json:"end"`
	HTMLLink string          `json:"htmlLink"`
}

// ListEvents は指定時間窓の予定一覧を取得する。
// accessTokenにはGoogleのプロバイダーアクセストークンを渡す。
func (c *Client) ListEvents(ctx context.Context, accessToken string, timeMin, timeMax time.Time) ([]*model.CalendarEvent, error) {
	q := url.Values{
		"singleEvents": {"true"},
		"orderBy":      {"startTime"},
	}
	if !timeMin.IsZero() {
		q.Set("timeMin", timeMin.Format(time.RFC3339))
	}
	if !timeMax.IsZero() {
		q.Set("timeMax", timeMax.Format(time.RFC3339))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create events request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	body, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var listResp struct {
		Items []googleEvent `json:"items"`
	}
	if err := json.Unmarshal(body, &listResp); err != nil {
		return nil, fmt.Errorf("failed to parse events response: %w", err)
	}

	events := make([]*model.CalendarEvent, 0, len(listResp.Items))
	for _, item := range listResp.Items {
		events = append(events, toEvent(item))
	}
	return events, nil
}

// CreateEvent は予定を作成し、作成された予定を返す。
func (c *Client) CreateEvent(ctx context.Context, accessToken string, event *model.CalendarEvent) (*model.CalendarEvent, error) {
	payload, err := json.Marshal(googleEvent{
		Summary: event.Summary,
		Start:   googleEventTime{DateTime: event.Start.Format(time.RFC3339)},
		End:     googleEventTime{DateTime: event.End.Format(time.RFC3339)},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create event request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	body, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var created googleEvent
	if err := json.Unmarshal(body, &created); err != nil {
		return nil, fmt.Errorf("failed to parse created event: %w", err)
	}
	return toEvent(created), nil
}

// do はリクエストを実行し、2xx以外をエラーとしてボディを返す。
func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("calendar request failed",
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("calendar request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read calendar response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Error("calendar endpoint returned error status",
			slog.Int("http_status", resp.StatusCode),
		)
		return nil, fmt.Errorf("calendar endpoint returned status %d: %s", resp.StatusCode, string(body))
	}

	return body, nil
}

// toEvent はGoogleのevent資源をドメインモデルに変換する。
func toEvent(e googleEvent) *model.CalendarEvent {
	return &model.CalendarEvent{
		ID:       e.ID,
		Summary:  e.Summary,
		Start:    parseEventTime(e.Start),
		End:      parseEventTime(e.End),
		HTMLLink: e.HTMLLink,
	}
}

// parseEventTime はdateTimeまたはdate形式の日時をパースする。
func parseEventTime(t googleEventTime) time.Time {
	if t.DateTime != "" {
		if parsed, err := time.Parse(time.RFC3339, t.DateTime); err == nil {
			return parsed
		}
	}
	if t.Date != "" {
		if parsed, err := time.Parse("2006-01-02", t.Date); err == nil {
			return parsed
		}
	}
	return time.Time{}
}
