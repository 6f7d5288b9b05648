package main

import (
	"context"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"lodgedesk/internal/config"
	"lodgedesk/internal/database"
	"lodgedesk/internal/middleware"
	"lodgedesk/internal/modules/allocation"
	"lodgedesk/internal/modules/catalog"
	"lodgedesk/internal/modules/feedsync"
	"lodgedesk/internal/repository"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}
	if err := repository.Migrate(db); err != nil {
		log.Fatal(err)
	}

	roomRepo := repository.NewRoomRepository(db)
	bookingRepo := repository.NewBookingRepository(db)

	catalogService := catalog.NewService(roomRepo)
	catalogHandler := catalog.NewHandler(catalogService)

	allocationService := allocation.NewService(bookingRepo, catalogService, cfg.AllocMaxRetries)
	allocationHandler := allocation.NewHandler(allocationService, cfg.NightCutoffHour, cfg.BusinessTimeZone)

	fetcher := feedsync.NewFetcher(cfg.FeedFetchTimeout)
	syncService := feedsync.NewService(roomRepo, bookingRepo, fetcher)
	syncHandler := feedsync.NewHandler(syncService)

	if cfg.FeedSyncCron != "" {
		c := cron.New()
		_, err := c.AddFunc(cfg.FeedSyncCron, func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			defer cancel()
			if _, err := syncService.SyncAll(ctx); err != nil {
				log.Printf("scheduled_sync_failed error=%q", err)
			}
		})
		if err != nil {
			log.Fatalf("invalid FEED_SYNC_CRON %q: %v", cfg.FeedSyncCron, err)
		}
		c.Start()
		defer c.Stop()
	}

	r := gin.Default()
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorLogger())

	v1 := r.Group("/api/v1")
	{
		catalogHandler.RegisterRoutes(v1)
		allocationHandler.RegisterRoutes(v1)
		syncHandler.RegisterRoutes(v1)
	}

	if err := r.Run(cfg.HTTPAddr); err != nil {
		log.Fatal(err)
	}
}
