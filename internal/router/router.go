package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"learnpulse-backend/internal/handlers"
	"learnpulse-backend/internal/middleware"
	"learnpulse-backend/internal/websocket"
)

func New(
	jwtAuth *middleware.JWTAuth,
	authHandler *handlers.AuthHandler,
	activityHandler *handlers.ActivityHandler,
	sessionHandler *handlers.SessionHandler,
	walletHandler *handlers.WalletHandler,
	assistantHandler *handlers.AssistantHandler,
	wsHub *websocket.Hub,
	frontendURL string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(frontendURL))

	// Auth rate limiter (10 req/min per IP)
	authLimiter := middleware.NewRateLimiter(10, time.Minute)

	// Ticks arrive every second per live session; allow bursts well above
	// that but cap what a single client can push.
	tickLimiter := middleware.NewRateLimiter(300, time.Minute)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {

		// ──── Auth Routes (public) ────
		r.Route("/auth", func(r chi.Router) {
			r.Use(authLimiter.Middleware)
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/refresh", authHandler.Refresh)

			// Logout requires auth
			r.Group(func(r chi.Router) {
				r.Use(jwtAuth.Middleware)
				r.Post("/logout", authHandler.Logout)
			})
		})

		// ──── User Routes ────
		r.Route("/user", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/me", authHandler.Me)
			r.Put("/password", authHandler.ChangePassword)
		})

		// ──── Activity Routes ────
		r.Route("/activities", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/", activityHandler.Catalog)
			r.Get("/{id}", activityHandler.Get)
		})

		// ──── Session Routes ────
		r.Route("/sessions", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Post("/start", sessionHandler.Start)
			r.Get("/results", sessionHandler.Results)
			r.Get("/{id}", sessionHandler.Get)
			r.Post("/{id}/finalize", sessionHandler.Finalize)
			r.Post("/{id}/teardown", sessionHandler.Teardown)

			r.Group(func(r chi.Router) {
				r.Use(tickLimiter.Middleware)
				r.Post("/{id}/tick", sessionHandler.Tick)
				r.Post("/{id}/events", sessionHandler.Signal)
				r.Post("/{id}/answer", sessionHandler.Answer)
			})
		})

		// ──── Wallet & Leaderboard Routes ────
		r.Route("/wallet", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/", walletHandler.Get)
			r.Get("/ledger", walletHandler.Ledger)
		})
		r.Group(func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/competitions/{id}/leaderboard", walletHandler.Leaderboard)
		})

		// ──── Study Assistant ────
		r.Route("/assistant", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Post("/chat", assistantHandler.Chat)
		})

		// ──── Admin Routes ────
		r.Route("/admin/activities", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Use(middleware.RequireAdmin)
			r.Get("/", activityHandler.List)
			r.Post("/", activityHandler.Create)
			r.Post("/validate-video", activityHandler.ValidateVideo)
			r.Put("/{id}", activityHandler.Update)
			r.Put("/{id}/active", activityHandler.SetActive)
			r.Delete("/{id}", activityHandler.Delete)
		})

		// ──── WebSocket ────
		r.Get("/ws", wsHub.HandleWebSocket)
	})

	return r
}
