package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-stock-ledger/internal/cache"
	"go-stock-ledger/internal/config"
	"go-stock-ledger/internal/events"
	"go-stock-ledger/internal/handler"
	"go-stock-ledger/internal/middleware"
	"go-stock-ledger/internal/repository"
	"go-stock-ledger/internal/repository/memory"
	"go-stock-ledger/internal/service"
	"go-stock-ledger/internal/ws"
	"go-stock-ledger/pkg/database"
	"go-stock-ledger/pkg/logger"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func main() {
	// 1. Load config
	cfg := config.Load()

	log := logger.New(cfg.Environment)
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Setup storage
	store, closeStore := openStore(cfg, log)
	defer closeStore()

	// 3. Graph cache, websocket hub and event publishers
	graphCache := cache.NewGraphCache(cfg, log)
	if closer, ok := graphCache.(interface{ Close() error }); ok {
		defer closer.Close()
	}

	wsHub := ws.NewHub(log)
	go wsHub.Run(ctx)

	publishers := []events.Publisher{wsHub}
	if len(cfg.KafkaBrokers) > 0 {
		kafka, err := events.NewKafkaPublisher(cfg, log)
		if err != nil {
			log.Warn("Kafka unavailable, stock events stay local", zap.Error(err))
		} else {
			defer kafka.Close()
			publishers = append(publishers, kafka)
			log.Info("Kafka publisher initialized", zap.Strings("brokers", cfg.KafkaBrokers), zap.String("topic", cfg.KafkaTopicStock))
		}
	}

	// 4. Dependency Injection (Wiring Layers)
	convService := service.NewConversionService(store, graphCache, log)
	invService := service.NewInventoryService(store, convService, events.NewMultiPublisher(publishers...), log)
	costService := service.NewCostService(store, convService)
	profitService := service.NewProfitService(store, convService, service.ProfitConfig{
		WeekStart:   cfg.WeekStart,
		Location:    cfg.Location,
		Concurrency: cfg.ReportConcurrency,
	}, log)

	unitHandler := handler.NewUnitHandler(convService)
	invHandler := handler.NewInventoryHandler(invService)
	reportHandler := handler.NewReportHandler(costService, profitService)

	// 5. Setup Fiber
	app := fiber.New(fiber.Config{
		AppName: "Stock Ledger v1.0",
	})

	app.Use(recover.New())
	app.Use(logger.FiberMiddleware(log))
	app.Use(cors.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// 6. Routes
	secret := []byte(cfg.JWTSecret)
	api := app.Group("/api/v1", middleware.RequireAuth(secret))
	handler.RegisterRoutes(api, unitHandler, invHandler, reportHandler)

	// WebSocket Route
	app.Use("/ws", middleware.RequireToken(secret), func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	})
	app.Get("/ws", websocket.New(func(c *websocket.Conn) {
		raw, _ := c.Locals("user_id").(string)
		userID, err := uuid.Parse(raw)
		if err != nil {
			c.Close()
			return
		}
		wsHub.Subscribe(ws.Subscription{Client: c, UserID: userID})
		defer wsHub.Leave(c)

		for {
			// Keep alive loop
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
	}))

	// 7. Graceful Shutdown
	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Error("Server stopped", zap.Error(err))
			stop()
		}
	}()
	log.Info("Server started", zap.String("port", cfg.Port), zap.String("db_driver", cfg.DBDriver))

	<-ctx.Done()

	log.Info("Shutting down server...")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	log.Info("Server exited")
}

func openStore(cfg *config.Config, log *zap.Logger) (repository.Store, func()) {
	if cfg.DBDriver == "memory" {
		log.Warn("Using in-memory store, data is lost on restart")
		return memory.NewStore(), func() {}
	}

	db, err := database.ConnectDB(database.Options{
		Driver:      cfg.DBDriver,
		DatabaseURL: cfg.DatabaseURL,
		Host:        cfg.DBHost,
		Port:        cfg.DBPort,
		User:        cfg.DBUser,
		Password:    cfg.DBPassword,
		Name:        cfg.DBName,
		SQLitePath:  cfg.SQLitePath,
	}, log)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}

	// Auto Migrate (Hati-hati di production, sebaiknya pakai tools migrasi terpisah)
	if err := repository.AutoMigrate(db); err != nil {
		log.Fatal("Failed to migrate database", zap.Error(err))
	}

	return repository.NewGormStore(db), func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	}
}
