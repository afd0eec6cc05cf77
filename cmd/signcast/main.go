package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"

	"github.com/signcast/signcast/internal/api"
	"github.com/signcast/signcast/internal/config"
	"github.com/signcast/signcast/internal/db"
	"github.com/signcast/signcast/internal/feeds"
	"github.com/signcast/signcast/internal/jobs"
	"github.com/signcast/signcast/internal/media"
	"github.com/signcast/signcast/internal/version"
	"github.com/signcast/signcast/internal/watcher"
)

func main() {
	ver := version.Load()
	log.Printf("SignCast %s starting...", ver.Version)

	cfg := config.Load()

	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	defer database.Close()

	if err := db.Migrate(database); err != nil {
		log.Fatalf("migration failed: %v", err)
	}

	cfg.MergeFromDB(database.DB)

	var (
		queue       *jobs.Queue
		redisClient *redis.Client
	)
	if cfg.JobsEnabled() {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		queue = jobs.NewQueue(cfg.RedisAddr)

		feedRepo := feeds.NewRepository(database)
		syncer := feeds.NewSyncer()
		queue.RegisterHandler(jobs.TaskFeedSync, jobs.NewFeedSyncHandler(feedRepo, syncer))
		queue.RegisterHandler(jobs.TaskFeedSyncAll, jobs.NewFeedSyncAllHandler(feedRepo, queue))

		if err := queue.Start(context.Background()); err != nil {
			log.Fatalf("job queue start failed: %v", err)
		}
		defer queue.Stop()
	} else {
		log.Println("no redis address configured, background jobs disabled")
	}

	srv := api.NewServer(cfg, database, queue, redisClient)

	var feedCron *cron.Cron
	if queue != nil && cfg.FeedSyncSchedule != "" {
		enqueuer := jobs.NewEnqueuer(queue)
		feedCron = cron.New()
		_, err := feedCron.AddFunc(cfg.FeedSyncSchedule, func() {
			if err := enqueuer.EnqueueSweep(); err != nil {
				log.Printf("feed sync sweep enqueue failed: %v", err)
			}
		})
		if err != nil {
			log.Fatalf("invalid feed sync schedule %q: %v", cfg.FeedSyncSchedule, err)
		}
		feedCron.Start()
		defer feedCron.Stop()
		log.Printf("feed sync scheduled: %s", cfg.FeedSyncSchedule)
	}

	if cfg.DataDir != "" {
		w, err := watcher.New(media.NewRepository(database), srv.Hub(), cfg.DataDir)
		if err != nil {
			log.Fatalf("watcher init failed: %v", err)
		}
		if err := w.Start(); err != nil {
			log.Printf("watcher start failed: %v", err)
		} else {
			defer w.Stop()
		}
	}

	httpServer := &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.Port),
		Handler:      srv.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("listening on :%d", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	httpServer.Shutdown(ctx)
}
