package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Meghamegha2003/DERRY-WORLD-RESTAURANT-sub001/config"
	"github.com/Meghamegha2003/DERRY-WORLD-RESTAURANT-sub001/middleware"
	"github.com/Meghamegha2003/DERRY-WORLD-RESTAURANT-sub001/repository"
	"github.com/Meghamegha2003/DERRY-WORLD-RESTAURANT-sub001/routes"
	"github.com/Meghamegha2003/DERRY-WORLD-RESTAURANT-sub001/services"
	"github.com/Meghamegha2003/DERRY-WORLD-RESTAURANT-sub001/utils"
	"github.com/gin-gonic/gin"
)

func main() {
	// Initialize logger
	if err := utils.InitLogger(); err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer utils.SyncLogger()

	cfg, err := config.LoadConfig()
	if err != nil {
		utils.LogError("Error loading config: %v", err)
		log.Fatal("Error loading config:", err)
	}
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := newStore(cfg)
	if err != nil {
		utils.LogError("Failed to initialize store: %v", err)
		log.Fatal("Failed to initialize store:", err)
	}

	var idempotency middleware.IdempotencyStore = middleware.NewMemoryIdempotencyStore()
	redisClient, err := config.NewRedisClient(ctx, cfg)
	if err != nil {
		utils.LogError("Redis unavailable, idempotency keys kept in memory: %v", err)
	} else if redisClient != nil {
		defer redisClient.Close()
		idempotency = middleware.NewRedisIdempotencyStore(redisClient)
	}

	var gateway services.PaymentGateway
	if cfg.RazorpayKey != "" && cfg.RazorpaySecret != "" {
		gateway = services.NewRazorpayGateway(cfg.RazorpayKey, cfg.RazorpaySecret)
	}
	refunds := services.NewRefundService(gateway, services.RefundPolicy(cfg.RefundPolicy))

	hub := services.NewHub()
	notifiers := services.MultiNotifier{hub}
	if cfg.EmailEnabled() {
		notifiers = append(notifiers, services.NewEmailNotifier(services.EmailConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
		}, store))
	}

	orders := services.NewOrderService(store, refunds, notifiers, services.OrderServiceConfig{
		ItemReturnWindow:  cfg.ItemReturnWindow,
		OrderReturnWindow: cfg.OrderReturnWindow,
	})

	router := routes.SetupRouter(routes.Deps{
		Orders:         orders,
		Store:          store,
		Hub:            hub,
		Idempotency:    idempotency,
		IdempotencyTTL: cfg.IdempotencyTTL,
		JWTSecret:      cfg.JWTSecret,
		SessionSecret:  cfg.SessionSecret,
		SecureCookies:  cfg.IsProduction(),
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	server.RegisterOnShutdown(hub.Close)

	go func() {
		utils.LogInfo("Server starting on port %s (store: %s, refund policy: %s)", cfg.Port, cfg.Store, cfg.RefundPolicy)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			utils.LogError("Error starting server: %v", err)
			log.Fatal("Error starting server:", err)
		}
	}()

	<-ctx.Done()
	utils.LogInfo("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		utils.LogError("Graceful shutdown failed: %v", err)
	}
}

func newStore(cfg *config.Config) (repository.Store, error) {
	if cfg.Store == config.StoreMemory {
		utils.LogInfo("Using in-memory store")
		return repository.NewMemoryStore(), nil
	}
	db, err := config.InitDB(cfg)
	if err != nil {
		return nil, err
	}
	return repository.NewGormStore(db), nil
}
