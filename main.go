package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"match-settlement-system/handlers"
	"match-settlement-system/middleware"
	"match-settlement-system/models"
	"match-settlement-system/repository"
	"match-settlement-system/services"
	"match-settlement-system/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	app := fiber.New(fiber.Config{})

	// 🔐 GLOBAL: Only Gateway requests allowed — no exceptions
	app.Use(middleware.GatewayAuthMiddleware())

	allowedOriginsEnv := os.Getenv("ALLOWED_ORIGINS")
	if allowedOriginsEnv == "" {
		log.Println("⚠️  ALLOWED_ORIGINS environment variable not set, using default: http://localhost:3000")
		allowedOriginsEnv = "http://localhost:3000"
	}
	allowedOriginsList := strings.Split(allowedOriginsEnv, ",")
	for i, origin := range allowedOriginsList {
		allowedOriginsList[i] = strings.TrimSpace(origin)
	}
	allowedOriginsString := strings.Join(allowedOriginsList, ",")

	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOriginsString,
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, X-User-ID, X-Service-Token",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.Match{},
		&models.PlayerRating{},
		&models.PlayerProfile{},
		&models.GoldLedgerEntry{},
		&models.Settlement{},
		&models.SystemConfig{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	runner := repository.NewGormRunner(db)
	settlementService := services.NewSettlementService(runner)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := settlementService.EnsureRewardConfig(ctx, "10"); err != nil {
		log.Fatal("failed to seed reward config:", err)
	}

	// --- Profile mirror sync (profile-service → player_profiles) ---
	profileServiceURL := os.Getenv("PROFILE_SERVICE_URL")
	if profileServiceURL == "" {
		log.Fatal("PROFILE_SERVICE_URL environment variable not set")
	}
	serviceToken := os.Getenv("SETTLEMENT_SERVICE_TOKEN")
	if serviceToken == "" {
		log.Fatal("SETTLEMENT_SERVICE_TOKEN environment variable not set")
	}

	syncWorker := workers.NewProfileSyncWorker(db, profileServiceURL, "/api/v1/public/profiles", serviceToken)
	if err := syncWorker.Start(ctx); err != nil {
		log.Fatal("failed to start profile sync worker:", err)
	}

	handlers.SetupSettlementRoutes(app, settlementService)

	port := os.Getenv("PORT")
	if port == "" {
		port = "5300"
	}

	go func() {
		if err := app.Listen(":" + port); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Printf("✅ Server running on http://localhost:%s", port)
	log.Println("✅ Profile Sync Worker running")
	log.Println("✅ GatewayAuthMiddleware enforced globally — all requests must come from Gateway")
	log.Printf("✅ CORS configured for origins: %s", allowedOriginsString)

	<-ctx.Done()
	log.Println("Shutting down server...")
	_ = app.Shutdown()
}
