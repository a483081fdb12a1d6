// Package chat はLLMによるチャット応答生成と会話履歴の管理を提供する。
package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
)

// Message はchat completions APIに渡す1発話。
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionConfig はcompletionクライアントの設定。
type CompletionConfig struct {
	BaseURL string // テスト用に差し替え可能
	APIKey  string
	Model   string
}

// CompletionClient はOpenAI互換のchat completionsエンドポイントのクライアント。
type CompletionClient struct {
	httpClient *http.Client
	logger     *slog.Logger
	config     CompletionConfig
}

// NewCompletionClient はCompletionClientを生成する。
func NewCompletionClient(httpClient *http.Client, logger *slog.Logger, config CompletionConfig) *CompletionClient {
	return &CompletionClient{
		httpClient: httpClient,
		logger:     logger,
		config:     config,
	}
}

// completionRequest はchat completionsエンドポイントへのリクエストボディ。
type completionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
}

// completionResponse はchat completionsエンドポイントのレスポンス。
type completionResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

// Complete はメッセージ列を送信してアシスタントの応答テキストを取得する。
func (c *CompletionClient) Complete(ctx context.Context, messages []Message) (string, error) {
	reqBody := completionRequest{
		Model:       c.config.Model,
		Messages:    messages,
		MaxTokens:   500,
		Temperature: 0.7,
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.config.BaseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create completion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("completion request failed",
			slog.String("error", err.Error()),
		)
		return "", fmt.Errorf("completion request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read completion response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("completion endpoint returned error status",
			slog.Int("http_status", resp.StatusCode),
		)
		return "", fmt.Errorf("completion endpoint returned status %d: %s", resp.StatusCode, string(body))
	}

	var compResp completionResponse
	if err := json.Unmarshal(body, &compResp); err != nil {
		return "", fmt.Errorf("failed to parse completion response: %w", err)
	}

	if len(compResp.Choices) == 0 {
		return "", fmt.Errorf("empty choices in completion response")
	}

	return compResp.Choices[0].Message.Content, nil
}
