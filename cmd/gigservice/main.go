package main

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/gigforge/gig-service/app/events"
	"github.com/gigforge/gig-service/app/repository"
	"github.com/gigforge/gig-service/app/services"
	"github.com/gigforge/gig-service/internal/pkg/cache"
	"github.com/gigforge/gig-service/internal/pkg/database"
	"github.com/gigforge/gig-service/internal/pkg/elastic"
	"github.com/gigforge/gig-service/internal/pkg/env"
	"github.com/gigforge/gig-service/internal/pkg/queue"
	"github.com/gigforge/gig-service/internal/pkg/router"
	"github.com/gigforge/gig-service/internal/pkg/storage"
)

func main() {
	app := NewApplication()
	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "0.0.0.0"), env.GetEnv("APP_PORT", "4003")))
	log.Fatal(err)
}

func NewApplication() *fiber.App {
	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()

	index, err := elastic.NewClient(
		env.GetEnv("ELASTIC_SEARCH_URL", "http://localhost:9200"),
		env.GetEnv("ELASTIC_SEARCH_USERNAME", ""),
		env.GetEnv("ELASTIC_SEARCH_PASSWORD", ""),
		env.GetEnv("ELASTIC_SEARCH_INDEX", "gigs"),
	)
	if err != nil {
		log.Fatalf("Failed to create search client: %v", err)
	}
	if err := index.EnsureIndex(context.Background()); err != nil {
		log.Errorf("Could not ensure search index: %v", err)
	}

	broker, err := queue.Connect(queue.URL(
		env.GetEnv("RABBITMQ_USER", "guest"),
		env.GetEnv("RABBITMQ_PASSWORD", "guest"),
		env.GetEnv("RABBITMQ_HOST", "localhost"),
		env.GetEnv("RABBITMQ_PORT", "5672"),
	))
	if err != nil {
		log.Fatalf("Failed to connect to broker: %v", err)
	}

	publisher, err := broker.NewPublisher()
	if err != nil {
		log.Fatalf("Failed to open publish channel: %v", err)
	}

	assets, err := storage.NewClient(storage.ConfigFromEnv())
	if err != nil {
		log.Fatalf("Failed to create asset store client: %v", err)
	}

	repos := repository.NewRepositories(database.GetDB(), index, func() int64 {
		return time.Now().UnixMilli()
	})
	service := services.NewGigService(repos.Gig, repos.Catalog, publisher, assets)

	if err := events.StartConsumers(broker, service); err != nil {
		log.Fatalf("Failed to start consumers: %v", err)
	}

	app := fiber.New(fiber.Config{
		BodyLimit: 10 * 1024 * 1024, // cover images only
	})
	app.Use(recover.New(), logger.New())

	router.InstallRouter(app, router.NewApiRouter(service))

	return app
}
