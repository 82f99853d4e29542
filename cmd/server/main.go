package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/vegasatr/OtpuskPass-bot/internal/config"
	"github.com/vegasatr/OtpuskPass-bot/internal/dialog"
	"github.com/vegasatr/OtpuskPass-bot/internal/handler"
	"github.com/vegasatr/OtpuskPass-bot/internal/repository"
	"github.com/vegasatr/OtpuskPass-bot/internal/service"
	"github.com/vegasatr/OtpuskPass-bot/internal/session"
	"github.com/vegasatr/OtpuskPass-bot/internal/telegram"
	"github.com/vegasatr/OtpuskPass-bot/internal/ton"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Connect to database
	repo, err := repository.New(cfg.Database.DSN())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer repo.Close()

	// Create services
	ratesSvc := service.NewRatesService()
	subscriptionSvc := service.NewSubscriptionService(repo)
	bookingSvc := service.NewBookingService(repo)

	// Payment client: a real wallet-backed client when a receiving
	// address is configured, the fixed stub otherwise.
	var paymentClient ton.Client
	if cfg.TON.WalletAddress != "" {
		verifier := ton.NewVerifier(cfg.TON.Testnet)
		paymentClient = ton.NewWalletClient(cfg.TON.WalletAddress, config.PaymentAddressTTL, ratesSvc, verifier)
		log.Printf("TON wallet client configured for %s", cfg.TON.WalletAddress)
	} else {
		paymentClient = ton.NewStubClient()
		log.Println("TON_WALLET_ADDRESS not set, using stub payment client")
	}

	// Dialogue router over an in-memory session store
	sessions := session.NewMemoryStore()
	router := dialog.NewRouter(sessions, repo, paymentClient, subscriptionSvc)

	// Create Telegram bot
	var bot *telegram.Bot
	if cfg.Telegram.BotToken != "" {
		bot, err = telegram.NewBot(cfg, router)
		if err != nil {
			log.Printf("Warning: Failed to create Telegram bot: %v", err)
		} else {
			log.Printf("Telegram bot @%s initialized", bot.GetBotUsername())
		}
	}

	// Create handlers
	h := handler.New(cfg, repo, ratesSvc, bookingSvc)

	// Create Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.Server.AllowOrigins,
		AllowHeaders: "Origin, Content-Type, Accept",
	}))

	// Health check
	app.Get("/health", h.Health)

	// Public API (no auth)
	app.Get("/api/rates", h.GetRates)
	app.Get("/api/user/:telegram_id", h.GetUser)
	app.Get("/api/user/:telegram_id/bookings", h.GetUserBookings)
	app.Get("/api/user/:telegram_id/transactions", h.GetUserTransactions)
	app.Get("/api/user/:telegram_id/referrals", h.GetUserReferrals)
	app.Get("/api/apartments/:city", h.GetApartments)
	app.Get("/api/bookings/:id", h.GetBooking)
	app.Post("/api/bookings", h.CreateBooking)

	// Start background jobs
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start Telegram bot long polling
	if bot != nil {
		go bot.StartPolling(ctx)
		log.Println("Telegram bot started with long polling")
	}

	// Start payment reconciliation worker
	paymentWorker := service.NewPaymentWorker(repo, paymentClient, subscriptionSvc, config.PaymentCheckInterval, config.PaymentLookback)
	go paymentWorker.Start(ctx)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("Shutting down server...")
		cancel()
		_ = app.Shutdown()
	}()

	// Start server
	log.Printf("Server starting on port %s", cfg.Server.Port)
	if err := app.Listen(":" + cfg.Server.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
