package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"

	"github.com/aijoy/joyapi/internal/model"
	"github.com/aijoy/joyapi/internal/repository"
)

// historyWindow はcompletionリクエストに含める直近メッセージ数。
const historyWindow = 10

// Completer は応答生成のインターフェース。
type Completer interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}

// MetricsRecorder はチャット関連のメトリクス記録インターフェース。
type MetricsRecorder interface {
	RecordUpstreamLatency(target string, duration time.Duration)
	RecordChatCompletion(result string)
}

// upstreamOpenAI はcompletions APIへの外部呼び出しのメトリクスターゲット名。
const upstreamOpenAI = "openai"

// Service はチャットのビジネスロジックを提供する。
// ユーザー発話の保存、履歴付きの応答生成、応答の保存を行う。
type Service struct {
	completer Completer
	repo      repository.ChatRepository
	sanitizer *bluemonday.Policy
	metrics   MetricsRecorder
	now       func() time.Time // テストで差し替え可能
}

// NewService はServiceを生成する。metricsはnilでもよい。
func NewService(completer Completer, repo repository.ChatRepository, metrics MetricsRecorder) *Service {
	return &Service{
		completer: completer,
		repo:      repo,
		sanitizer: bluemonday.StrictPolicy(),
		metrics:   metrics,
		now:       time.Now,
	}
}

// Send はユーザー発話を保存し、履歴付きでLLM応答を生成して返す。
// 発話テキストはHTMLタグを除去してから保存する。
func (s *Service) Send(ctx context.Context, userID, text string) (*model.ChatMessage, error) {
	text = strings.TrimSpace(s.sanitizer.Sanitize(text))
	if text == "" {
		return nil, model.NewEmptyMessageError()
	}

	// 1. 履歴を取得（直近N件、古い順）
	history, err := s.repo.ListRecentByUser(ctx, userID, historyWindow)
	if err != nil {
		return nil, fmt.Errorf("failed to load chat history: %w", err)
	}

	// 2. ユーザー発話を保存
	userMsg := &model.ChatMessage{
		ID:        uuid.New().String(),
		UserID:    userID,
		Role:      model.RoleUser,
		Content:   text,
		CreatedAt: s.now(),
	}
	if err := s.repo.Create(ctx, userMsg); err != nil {
		return nil, fmt.Errorf("failed to save user message: %w", err)
	}

	// 3. completionリクエストを構築
	messages := make([]Message, 0, len(history)+2)
	messages = append(messages, Message{Role: "system", Content: s.systemPrompt()})
	for _, m := range history {
		messages = append(messages, Message{Role: string(m.Role), Content: m.Content})
	}
	messages = append(messages, Message{Role: "user", Content: text})

	// 4. 応答を生成
	start := time.Now()
	reply, err := s.completer.Complete(ctx, messages)
	if s.metrics != nil {
		s.metrics.RecordUpstreamLatency(upstreamOpenAI, time.Since(start))
	}
	if err != nil {
		s.recordCompletion("error")
		return nil, fmt.Errorf("failed to generate reply: %w", err)
	}
	s.recordCompletion("success")

	// 5. 応答を保存
	assistantMsg := &model.ChatMessage{
		ID:        uuid.New().String(),
		UserID:    userID,
		Role:      model.RoleAssistant,
		Content:   reply,
		CreatedAt: s.now(),
	}
	if err := s.repo.Create(ctx, assistantMsg); err != nil {
		return nil, fmt.Errorf("failed to save assistant message: %w", err)
	}

	slog.Info("chat reply generated",
		slog.String("user_id", userID),
		slog.Int("reply_length", len(reply)),
	)

	return assistantMsg, nil
}

// History は指定ユーザーの直近limit件のメッセージを古い順で返す。
func (s *Service) History(ctx context.Context, userID string, limit int) ([]*model.ChatMessage, error) {
	if limit <= 0 {
		limit = 50
	}
	msgs, err := s.repo.ListRecentByUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load chat history: %w", err)
	}
	return msgs, nil
}

func (s *Service) recordCompletion(result string) {
	if s.metrics != nil {
		s.metrics.RecordChatCompletion(result)
	}
}

// 曜日の韓国語表記
var weekdaysKorean = map[time.Weekday]string{
	time.Sunday:    "일요일",
	time.Monday:    "월요일",
	time.Tuesday:   "화요일",
	time.Wednesday: "수요일",
	time.Thursday:  "목요일",
	time.Friday:    "금요일",
	time.Saturday:  "토요일",
}

// systemPrompt は日程調整アシスタントのシステムプロンプトを生成する。
// 時刻に関する質問に正確に答えられるよう、現在の韓国時間を埋め込む。
func (s *Service) systemPrompt() string {
	kst := time.FixedZone("KST", 9*60*60)
	now := s.now().In(kst)
	currentTime := fmt.Sprintf("%d년 %02d월 %02d일 %s %02d시 %02d분 (한국 시간)",
		now.Year(), int(now.Month()), now.Day(), weekdaysKorean[now.Weekday()], now.Hour(), now.Minute())

	return fmt.Sprintf(`당신은 AI Joy Assistant의 일정 조율 도우미입니다.
사용자와 친구들의 일정을 조율하고 약속을 잡는 것을 도와주세요.

현재 시간: %s

주요 기능:
1. 친구와의 일정 조율
2. 약속 시간 및 장소 제안
3. 일정 충돌 확인
4. 친근하고 도움이 되는 대화

시간 관련 질문에 답할 때는 현재 시간을 참고하여 정확한 답변을 제공하세요.
항상 친근하고 도움이 되는 톤으로 응답하세요.`, currentTime)
}
