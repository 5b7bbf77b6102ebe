package http

import (
	"context"
	"fmt"
	"log"
	stdhttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"contentcraft/internal/ai"
	"contentcraft/internal/cache"
	"contentcraft/internal/config"
	"contentcraft/internal/database"
	"contentcraft/internal/handler"
	"contentcraft/internal/queue"
	"contentcraft/internal/redis"
	"contentcraft/internal/repository"
	"contentcraft/internal/service"
	"contentcraft/internal/worker"
)

// Run wires every component and serves until SIGINT/SIGTERM.
func Run() error {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// 2. Connect to Database
	db, err := database.Connect(cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	// 3. Connect to Redis (optional: the app degrades to DB-only without it)
	var (
		redisClient *redis.Client
		postIndex   cache.PostIndex
		publisher   queue.Publisher
		workers     *worker.Manager
		usageSvc    *service.UsageService
	)
	if cfg.RedisURL != "" {
		redisClient, err = redis.NewClient(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("failed to create redis client: %w", err)
		}
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err = redisClient.Ping(pingCtx)
		cancel()
		if err != nil {
			log.Printf("[Server] Redis unreachable, continuing without cache/queue: %v", err)
			redisClient.Close()
			redisClient = nil
		}
	} else {
		log.Println("[Server] REDIS_URL not set, continuing without cache/queue")
	}

	if redisClient != nil {
		defer redisClient.Close()
		postIndex = cache.NewPostIndex(redisClient.Client)
		publisher = queue.NewPublisher(redisClient.Client)
		usageSvc = service.NewUsageService(redisClient.Client)

		consumer := queue.NewConsumer(redisClient.Client)
		workers = worker.NewManager(
			consumer,
			worker.NewHandler(postIndex, redisClient.Client),
			worker.DefaultManagerConfig(),
		)
		if err := workers.Start(context.Background()); err != nil {
			return fmt.Errorf("failed to start workers: %w", err)
		}
		defer workers.Stop()
	}

	// 4. Media storage (optional: avatar uploads disabled without R2 creds)
	var mediaSvc *service.MediaService
	if cfg.R2AccountID != "" && cfg.R2BucketName != "" {
		mediaSvc, err = service.NewMediaService(context.Background(), cfg)
		if err != nil {
			return fmt.Errorf("failed to create media service: %w", err)
		}
	} else {
		log.Println("[Server] R2 not configured, avatar uploads disabled")
	}

	// 5. Repositories
	userRepo := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db)
	refreshTokenRepo := repository.NewRefreshTokenRepository(db)

	// 6. Services
	userSvc := service.NewUserService(userRepo)
	authSvc := service.NewAuthService(refreshTokenRepo, userRepo, cfg)
	postSvc := service.NewPostService(postRepo, postIndex, publisher)

	aiClient := ai.NewClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAITimeout)
	generationSvc := service.NewGenerationService(userRepo, aiClient, cfg.OpenAIModel, cfg.OpenAITimeout, publisher)

	// 7. Handlers and router
	router := NewRouter(RouterConfig{
		AuthHandler:     handler.NewAuthHandler(userSvc, authSvc),
		GenerateHandler: handler.NewGenerateHandler(generationSvc),
		PostHandler:     handler.NewPostHandler(postSvc),
		ProfileHandler:  handler.NewProfileHandler(userSvc, mediaSvc),
		UsageHandler:    handler.NewUsageHandler(usageSvc),
		JWTSecret:       cfg.JWTSecret,
	})

	srv := &stdhttp.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("[Server] Listening on :%s", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case sig := <-stop:
		log.Printf("[Server] Received %s, shutting down", sig)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}

	log.Println("[Server] Shutdown complete")
	return nil
}
