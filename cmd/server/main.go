package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	config "github.com/maheshrc27/creatortask/configs"
	"github.com/maheshrc27/creatortask/internal/api/handlers"
	"github.com/maheshrc27/creatortask/internal/api/middleware"
	"github.com/maheshrc27/creatortask/internal/events"
	job "github.com/maheshrc27/creatortask/internal/jobs"
	"github.com/maheshrc27/creatortask/internal/publisher"
	"github.com/maheshrc27/creatortask/internal/queue"
	"github.com/maheshrc27/creatortask/internal/repository"
	"github.com/maheshrc27/creatortask/internal/service"
	"github.com/maheshrc27/creatortask/internal/storage"
	"github.com/robfig/cron"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Failed to load environment variables", err)
	}

	cfg := config.LoadConfig()

	db, err := sql.Open("postgres", cfg.PostgresURI)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := db.Ping(); err != nil {
		log.Fatalf("Database is unreachable: %v", err)
	}

	if cfg.Dispatch.AuthRequired && cfg.Dispatch.CronSecret == "" {
		slog.Warn("CRON_SECRET is not set; every dispatch trigger will be rejected")
	}

	postRepo := repository.NewPostRepository(db)
	socialAccountRepo := repository.NewSocialAccountRepository(db, cfg.TokenEncryptionKey)
	historyRepo := repository.NewPostingHistoryRepository(db)

	media, err := storage.New(context.Background(), cfg.R2)
	if err != nil {
		log.Fatalf("Failed to set up media storage: %v", err)
	}
	registry := publisher.NewPlatformRegistry(cfg, media)

	var eventPublisher events.Publisher = events.NoopPublisher{}
	if cfg.RabbitMQURL != "" {
		rmq, err := events.NewRabbitMQPublisher(cfg.RabbitMQURL)
		if err != nil {
			slog.Warn("RabbitMQ unavailable, post events disabled", "error", err)
		} else {
			defer rmq.Close()
			eventPublisher = rmq
		}
	}

	dispatchService := service.NewDispatchService(postRepo, socialAccountRepo, historyRepo, registry, eventPublisher, cfg.Dispatch)
	postService := service.NewPostService(postRepo, historyRepo)

	// Redis is optional. Without it posts are only picked up by dispatch cycles.
	var (
		scheduler      handlers.PostScheduler
		asynqServer    *asynq.Server
		asynqScheduler *asynq.Scheduler
		cycleJob       *job.CycleJob
	)
	if cfg.RedisURI != "" {
		redisConn := asynq.RedisClientOpt{Addr: cfg.RedisURI}
		client := asynq.NewClient(redisConn)
		defer client.Close()
		scheduler = queue.NewScheduler(client)

		asynqServer = asynq.NewServer(redisConn, asynq.Config{
			Concurrency: cfg.Dispatch.Concurrency,
		})
		if err := asynqServer.Start(queue.NewQueue(dispatchService).ServeMux()); err != nil {
			log.Fatalf("Could not start Asynq server: %v", err)
		}

		if cfg.Dispatch.CycleSchedule != "" {
			asynqScheduler = asynq.NewScheduler(redisConn, nil)
			entryID, err := queue.RegisterCycle(asynqScheduler, cfg.Dispatch.CycleSchedule)
			if err != nil {
				log.Fatalf("Could not register dispatch cycle: %v", err)
			}
			if err := asynqScheduler.Start(); err != nil {
				log.Fatalf("Could not start Asynq scheduler: %v", err)
			}
			slog.Info("dispatch cycle scheduled", "entry_id", entryID, "schedule", cfg.Dispatch.CycleSchedule)
		}
	} else if cfg.Dispatch.CycleSchedule != "" {
		cycleJob = job.NewCycleJob(dispatchService, 10*time.Minute)
	}

	// cron jobs
	c := cron.New()
	if err := job.Register(c, job.NewStaleClaimJob(dispatchService), cycleJob, cfg.Dispatch.CycleSchedule); err != nil {
		log.Fatalf("Could not register cron jobs: %v", err)
	}
	c.Start()

	app := fiber.New(fiber.Config{
		ReadTimeout:  10 * time.Minute,
		WriteTimeout: 10 * time.Minute,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		},
	})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOriginsFunc: func(origin string) bool {
			return true
		},
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           3600,
	}))

	health := handlers.NewHealthHandler(db, media, cfg.RabbitMQURL)
	app.Get("/health", health.Health)

	// external scheduler trigger
	dispatch := handlers.NewDispatchHandler(dispatchService)
	cronAuth := middleware.CronAuth(cfg.Dispatch)
	app.Get("/api/process-scheduled-posts", cronAuth, dispatch.ProcessScheduledPosts)
	app.Post("/api/process-scheduled-posts", cronAuth, dispatch.ProcessScheduledPosts)

	authMiddleware := middleware.NewAuthMiddleware(*cfg)

	posts := app.Group("/api/posts")
	posts.Use(authMiddleware.AuthMiddleware())

	post := handlers.NewPostHandler(postService, scheduler)
	posts.Post("/", post.CreatePost)
	posts.Get("/", post.ListPosts)
	posts.Get("/:id", post.GetPost)
	posts.Get("/:id/attempts", post.ListAttempts)
	posts.Post("/:id/retry", post.RetryPost)
	posts.Delete("/:id", post.RemovePost)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()
	log.Printf("Server is running on http://localhost:%s", cfg.Port)

	gracefulShutdown(app, db, c, asynqServer, asynqScheduler)
}

func closeDB(db *sql.DB) {
	fmt.Fprint(os.Stdout, "Closing database connection... ")
	if err := db.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to close database: %v", err)
		return
	}
	fmt.Fprintln(os.Stdout, "Done")
}

func gracefulShutdown(app *fiber.App, db *sql.DB, c *cron.Cron, server *asynq.Server, scheduler *asynq.Scheduler) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Fatalf("Failed to shut down server: %v", err)
	}

	c.Stop()
	if scheduler != nil {
		scheduler.Shutdown()
	}
	// in-flight dispatch tasks finish before the database closes
	if server != nil {
		server.Shutdown()
	}

	closeDB(db)
	log.Println("Server shutdown complete.")
}
