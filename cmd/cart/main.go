package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/awokou/ecommerce-microservices/internal/catalog"
	"github.com/awokou/ecommerce-microservices/internal/repository"
	"github.com/awokou/ecommerce-microservices/internal/service"
	transport "github.com/awokou/ecommerce-microservices/internal/transport/http"
	"github.com/awokou/ecommerce-microservices/internal/transport/http/handler"
	"github.com/awokou/ecommerce-microservices/pkg/config"
	"github.com/awokou/ecommerce-microservices/pkg/db"
	"github.com/awokou/ecommerce-microservices/pkg/kafka"
	outbox "github.com/awokou/ecommerce-microservices/pkg/outbox/repository"
	"github.com/awokou/ecommerce-microservices/pkg/outbox/worker"
	"github.com/awokou/ecommerce-microservices/pkg/utils"
	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf(".env not found: %v\n", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.MustLoad()

	tp, err := utils.InitTracer(ctx, "cart-service")
	if err != nil {
		log.Fatalf("Error init tracer: %v", err)
	}

	pool, err := db.NewPostgresDB(cfg.Postgres.URL)
	if err != nil {
		log.Fatalf("Error creating new postgres DB: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr: cfg.Redis.Addr,
	})

	logger, err := config.NewLogger(config.LoggerConfig{
		Level: "info",
		Env:   cfg.Env,
	})
	if err != nil {
		log.Fatalf("Error creating logger: %v", err)
	}
	defer func() {
		if err := logger.Sync(); err != nil {
			log.Printf("error syncing logger: %v", err)
		}
	}()

	logger.Info("cart service started!")

	cartRepository := repository.NewCartRepository(pool, logger)
	outboxRepository := outbox.NewOutboxRepository(pool, logger)

	catalogClient := catalog.NewHTTPClient(cfg.Catalog.BaseURL, cfg.Catalog.CallTimeout, logger)
	catalogGateway := catalog.NewGateway(catalogClient, cfg.Breaker, cfg.Retry, cfg.Catalog.CallTimeout, logger)

	cartService := service.NewCartService(
		pool,
		logger,
		cartRepository,
		outboxRepository,
		catalogGateway,
		cfg.Cart.MaxItems,
		cfg.Cart.TTLDays,
	)
	cachedCartService := service.NewCachedCartService(cartService, rdb, cfg.Cart.CacheTTL)

	kafkaProducer, err := kafka.NewProducer(cfg.Kafka.Brokers)
	if err != nil {
		log.Fatalf("error creating kafka producer: %v", err)
	}

	outboxProcessor := worker.NewOutboxProcessor(pool, outboxRepository, kafkaProducer, logger)
	go outboxProcessor.Start(ctx)

	app := fiber.New()
	app.Use(otelfiber.Middleware())

	cartHandler := handler.NewCartHandler(cachedCartService, logger)
	transport.RegisterRoutes(app, cartHandler)

	go func() {
		log.Println("HTTP Cart service listening on port: " + cfg.HTTP.Port)
		if err := app.Listen(cfg.HTTP.Port); err != nil {
			log.Fatalf("Error listening HTTP on port %v: %v", cfg.HTTP.Port, err)
		}
	}()

	<-ctx.Done()

	log.Println("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("Error shutting down HTTP server: %v", err)
	} else {
		log.Println("Stopped HTTP server successfully")
	}

	if err := kafkaProducer.Close(); err != nil {
		log.Printf("Error closing kafka producer: %v", err)
	}

	pool.Close()
	log.Println("Closed db pool successfully")

	if err := tp.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error stopping telemetry: %v\n", err)
	} else {
		log.Println("Telemetry closed correctly")
	}
}
