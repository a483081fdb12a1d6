package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/aijoy/joyapi/internal/metrics"
	"github.com/aijoy/joyapi/internal/middleware"
	"github.com/aijoy/joyapi/internal/model"
)

// HealthChecker はDB疎通確認のインターフェース。*sql.DBが満たす。
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	TokenVerifier     middleware.TokenVerifier
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	Logger            *slog.Logger

	// 運用
	HealthChecker HealthChecker
	Gatherer      prometheus.Gatherer

	// 認証
	AuthService AuthServiceInterface
	AuthConfig  AuthHandlerConfig

	// 機能サービス
	ChatService     ChatServiceInterface
	FriendService   FriendServiceInterface
	CalendarService CalendarServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → Logging → CORS → (保護ルートのみ) Auth → RateLimit
//
// 認証ルート（/auth/*）、/healthz、/metricsは認証ミドルウェアの外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewLoggingMiddleware(logger))
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	authHandler := NewAuthHandler(deps.AuthService, deps.AuthConfig)
	chatHandler := NewChatHandler(deps.ChatService)
	friendHandler := NewFriendHandler(deps.FriendService)
	calendarHandler := NewCalendarHandler(deps.CalendarService)

	// --- 認証不要のルート ---

	r.Get("/healthz", newHealthzHandler(deps.HealthChecker))

	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.Gatherer))
	}

	// 認証ルート（OAuthフロー + トークンライフサイクル）
	r.Route("/auth", func(r chi.Router) {
		r.Get("/google", authHandler.Login)
		r.Get("/google/callback", authHandler.Callback)
		r.Post("/token", authHandler.Token)
		r.Post("/logout", authHandler.Logout)
		r.Get("/me", authHandler.Me)
	})

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Auth → RateLimit
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewAuthMiddleware(deps.TokenVerifier))
		if deps.RateLimiter != nil {
			r.Use(deps.RateLimiter.Middleware())
		}

		// AIチャット
		r.Route("/chat", func(r chi.Router) {
			r.Post("/", chatHandler.Send)
			r.Get("/history", chatHandler.History)
		})

		// 友達管理
		r.Route("/friends", func(r chi.Router) {
			r.Get("/", friendHandler.ListFriends)

			r.Route("/requests", func(r chi.Router) {
				r.Post("/", friendHandler.AddRequest)
				r.Get("/", friendHandler.ListRequests)
				r.Post("/{id}/accept", friendHandler.AcceptRequest)
				r.Post("/{id}/reject", friendHandler.RejectRequest)
			})
		})

		// カレンダープロキシ
		r.Route("/calendar", func(r chi.Router) {
			r.Get("/events", calendarHandler.ListEvents)
			r.Post("/events", calendarHandler.CreateEvent)
		})
	})

	return r
}

// newHealthzHandler はDB疎通を確認するヘルスチェックハンドラーを返す。
func newHealthzHandler(checker HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if checker != nil {
			if err := checker.PingContext(r.Context()); err != nil {
				slog.Error("health check db ping failed", slog.String("error", err.Error()))
				middleware.WriteErrorResponse(w, http.StatusServiceUnavailable, &model.APIError{
					Code:     "UNHEALTHY",
					Message:  "데이터베이스에 연결할 수 없습니다.",
					Category: "system",
					Action:   "잠시 후 다시 시도해 주세요.",
				})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
