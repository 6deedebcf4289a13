package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"learnpulse-backend/internal/config"
	"learnpulse-backend/internal/database"
	"learnpulse-backend/internal/engine"
	"learnpulse-backend/internal/handlers"
	"learnpulse-backend/internal/middleware"
	"learnpulse-backend/internal/repository"
	"learnpulse-backend/internal/router"
	"learnpulse-backend/internal/services"
	"learnpulse-backend/internal/websocket"
	"learnpulse-backend/internal/worker"
)

func main() {
	log.Println("🚀 Starting LearnPulse Backend...")

	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	log.Println("✓ Environment variables loaded")

	// ──── Step 2: Initialize PostgreSQL Connection Pool ────
	pool, err := database.NewPostgresPool(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("✗ PostgreSQL connection failed: %v", err)
	}
	defer pool.Close()
	log.Println("✓ PostgreSQL connected")

	// ──── Step 3: Initialize Redis Clients ────
	redisClients, err := database.NewRedisClients(cfg.RedisURL)
	if err != nil {
		log.Fatalf("✗ Redis connection failed: %v", err)
	}
	defer redisClients.Close()
	log.Println("✓ Redis connected")

	// ──── Step 4: Run Database Migrations ────
	if err := database.RunMigrations(pool, "migrations"); err != nil {
		log.Fatalf("✗ Database migration failed: %v", err)
	}
	log.Println("✓ Database migrations applied")

	// ──── Initialize Repositories ────
	userRepo := repository.NewUserRepo(pool)
	activityRepo := repository.NewActivityRepo(pool)
	progressRepo := repository.NewProgressRepo(pool)
	settlementRepo := repository.NewSettlementRepo(pool)
	walletRepo := repository.NewWalletRepo(pool)

	// ──── Step 5: Start Progress Engine ────
	eventPublisher := services.NewEventPublisher(redisClients.Queue)
	manager := engine.NewManager(progressRepo, settlementRepo, eventPublisher, engine.Config{
		DebounceSeconds:  cfg.TrackerDebounceSeconds,
		TickGraceSeconds: cfg.TickGraceSeconds,
		IdleTimeout:      time.Duration(cfg.SessionIdleTimeoutSeconds) * time.Second,
		Policy:           guardPolicy(cfg),
	})
	log.Println("✓ Progress engine initialized")

	// ──── Initialize Services ────
	jwtAuth := middleware.NewJWTAuth(cfg.JWTSecret)
	authService := services.NewAuthService(userRepo, redisClients.Queue, jwtAuth)
	videoService := services.NewVideoService()
	activityService := services.NewActivityService(activityRepo, videoService)
	sessionService := services.NewSessionService(manager, activityRepo, settlementRepo, redisClients.Queue)

	assistantService, err := services.NewAssistantService(cfg.GeminiAPIKey, activityRepo, videoService)
	if err != nil {
		log.Fatalf("✗ Assistant initialization failed: %v", err)
	}
	defer assistantService.Close()
	if assistantService.Enabled() {
		log.Println("✓ Study assistant initialized")
	} else {
		log.Println("  Study assistant disabled (no GEMINI_API_KEY)")
	}

	// ──── Initialize Handlers ────
	authHandler := handlers.NewAuthHandler(authService)
	activityHandler := handlers.NewActivityHandler(activityService, videoService)
	sessionHandler := handlers.NewSessionHandler(sessionService)
	walletHandler := handlers.NewWalletHandler(walletRepo)
	assistantHandler := handlers.NewAssistantHandler(assistantService)

	// ──── Step 6: Start Settlement Worker Pool ────
	workerPool := worker.NewPool(redisClients.Queue, sessionService, cfg.FinalizeWorkers)
	workerPool.Start()
	log.Printf("✓ Settlement worker pool started (%d goroutines)", cfg.FinalizeWorkers)

	reaper := services.NewReaper(manager, time.Duration(cfg.ReapIntervalSeconds)*time.Second)
	reaper.Start()
	log.Println("✓ Idle session reaper started")

	// ──── Step 7: Start WebSocket Hub ────
	wsHub := websocket.NewHub(redisClients.PubSub, cfg.JWTSecret)
	log.Println("✓ WebSocket hub started")

	// ──── Step 8: Start HTTP Server ────
	r := router.New(
		jwtAuth,
		authHandler,
		activityHandler,
		sessionHandler,
		walletHandler,
		assistantHandler,
		wsHub,
		cfg.FrontendURL,
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down...")
		workerPool.Stop()
		reaper.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Printf("✓ LearnPulse Backend ready on http://localhost:%s", cfg.Port)
	log.Printf("  API: http://localhost:%s/api/v1", cfg.Port)
	log.Printf("  WS:  ws://localhost:%s/api/v1/ws", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}

// guardPolicy maps the env thresholds onto per-signal limits.
func guardPolicy(cfg *config.Config) engine.GuardPolicy {
	return engine.GuardPolicy{
		Warn: map[engine.SignalType]int{
			engine.SignalForbiddenKey:   cfg.GuardInputWarn,
			engine.SignalContextMenu:    cfg.GuardInputWarn,
			engine.SignalTabHidden:      cfg.GuardFocusWarn,
			engine.SignalFullscreenExit: cfg.GuardFocusWarn,
		},
		Terminate: map[engine.SignalType]int{
			engine.SignalForbiddenKey:   cfg.GuardInputTerminate,
			engine.SignalContextMenu:    cfg.GuardInputTerminate,
			engine.SignalTabHidden:      cfg.GuardFocusTerminate,
			engine.SignalFullscreenExit: cfg.GuardFocusTerminate,
		},
	}
}
