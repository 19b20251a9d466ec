package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/go-redis/redis/v8"
	_ "github.com/go-sql-driver/mysql"
	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"marketplace-service/internal/api"
	"marketplace-service/internal/config"
	"marketplace-service/internal/gateway"
	"marketplace-service/internal/invoice"
	"marketplace-service/internal/repository"
	"marketplace-service/internal/service"
	"marketplace-service/internal/sharding"
	"marketplace-service/migrations"
)

func connectDB(dsn, name string) (*sql.DB, error) {
	var db *sql.DB
	var err error
	for i := 0; i < 10; i++ {
		db, err = sql.Open("mysql", dsn)
		if err == nil {
			err = db.Ping()
			if err == nil {
				log.Printf("Connected to DB %s", name)
				return db, nil
			}
		}
		log.Printf("Retry %d: Failed to connect to DB %s: %v", i+1, name, err)
		time.Sleep(3 * time.Second)
	}
	return nil, fmt.Errorf("failed to connect to DB %s after retries: %v", name, err)
}

func main() {
	cfg := config.Load()

	// One DSN per shard: DB1_DSN, DB2_DSN, ...
	dbShards := make([]*sql.DB, 0, cfg.ShardCount)
	for i := 1; i <= cfg.ShardCount; i++ {
		name := fmt.Sprintf("shard-%d", i)
		dsn := os.Getenv(fmt.Sprintf("DB%d_DSN", i))
		if dsn == "" {
			dsn = "root:@tcp(127.0.0.1:3306)/marketplace"
		}
		db, err := connectDB(dsn, name)
		if err != nil {
			panic(err)
		}
		dbShards = append(dbShards, db)
	}

	for _, migrate := range []func(int, ...*sql.DB) error{
		migrations.AutoMigrateUsers,
		migrations.AutoMigrateCartItems,
		migrations.AutoMigratePurchases,
		migrations.AutoMigratePurchaseItems,
		migrations.AutoMigrateInvoices,
		migrations.AutoMigrateSubscriptions,
	} {
		if err := migrate(3, dbShards...); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
	}

	rdb := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
	})

	kafkaWriter := config.NewKafkaWriter(cfg.KafkaBrokers, "purchase-events")

	invoiceNumbers, err := snowflake.NewNode(1)
	if err != nil {
		log.Fatalf("Failed to create invoice number node: %v", err)
	}

	router := sharding.NewShardRouter(cfg.ShardCount)

	purchaseRepo := repository.NewPurchaseRepository(dbShards, router)
	cartRepo := repository.NewCartRepository(dbShards, router)
	invoiceRepo := repository.NewInvoiceRepository(dbShards, router)
	subscriptionRepo := repository.NewSubscriptionRepository(dbShards, router)
	userRepo := repository.NewUserRepository(dbShards, router)

	payClient := gateway.NewClient(cfg.PaymentAPIURL, cfg.PaymentSecretKey, cfg.PaymentWebhookSecret)
	ledger := service.NewRedisEventLedger(rdb)
	renderer := invoice.NewRenderer("Forge UI", "548 Market St, San Francisco, CA", "billing@forgeui.dev")
	mailer := invoice.NewMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.MailFrom)

	checkoutService := service.NewCheckoutService(purchaseRepo, payClient, kafkaWriter, cfg.AppBaseURL)
	webhookService := service.NewWebhookService(purchaseRepo, cartRepo, invoiceRepo, subscriptionRepo, ledger, invoiceNumbers, kafkaWriter)
	subscriptionService := service.NewSubscriptionService(subscriptionRepo, payClient, cfg.AppBaseURL)
	invoiceService := service.NewInvoiceService(purchaseRepo, invoiceRepo, renderer, mailer)
	userService := service.NewUserService(userRepo, []byte(cfg.JWTSecret))
	cartService := service.NewCartService(cartRepo)

	authHandler := api.NewAuthHandler(userService)
	checkoutHandler := api.NewCheckoutHandler(checkoutService)
	webhookHandler := api.NewWebhookHandler(payClient, webhookService)
	subscriptionHandler := api.NewSubscriptionHandler(subscriptionService)
	invoiceHandler := api.NewInvoiceHandler(invoiceService)
	accountHandler := api.NewAccountHandler(userService, cartService)
	contactHandler := api.NewContactHandler(mailer)

	e := echo.New()

	limiterConfig := middleware.RateLimiterConfig{
		Skipper: middleware.DefaultSkipper,
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(
			middleware.RateLimiterMemoryStoreConfig{
				Rate:      rate.Limit(10),
				Burst:     30,
				ExpiresIn: 3 * time.Minute,
			}),
		IdentifierExtractor: func(context echo.Context) (string, error) {
			return context.Request().RemoteAddr, nil
		},
		ErrorHandler: func(context echo.Context, err error) error {
			return context.JSON(429, map[string]string{"error": "rate limit exceeded"})
		},
		DenyHandler: func(context echo.Context, identifier string, err error) error {
			return context.JSON(429, map[string]string{"error": "rate limit exceeded"})
		},
	}

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.RateLimiterWithConfig(limiterConfig))

	// Public surface
	e.POST("/signup", authHandler.Signup)
	e.POST("/login", authHandler.Login)
	e.POST("/webhook", webhookHandler.Handle)
	e.POST("/webhooks/subscription", webhookHandler.Handle)
	e.POST("/contact", contactHandler.Submit)

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]interface{}{
			"status":  "ok",
			"service": "marketplace-service",
			"time":    time.Now().Format(time.RFC3339),
		})
	})

	// Authenticated surface
	authed := e.Group("")
	authed.Use(echojwt.WithConfig(echojwt.Config{
		SigningKey: []byte(cfg.JWTSecret),
		NewClaimsFunc: func(c echo.Context) jwt.Claims {
			return new(service.JwtCustomClaims)
		},
	}))

	authed.POST("/checkout", checkoutHandler.Checkout)
	authed.GET("/purchases/:id", checkoutHandler.GetPurchase)
	authed.GET("/invoice/:id/download", invoiceHandler.Download)
	authed.POST("/subscription", subscriptionHandler.Create)
	authed.POST("/subscription/cancel", subscriptionHandler.Cancel)
	authed.GET("/subscription/current", subscriptionHandler.Current)
	authed.GET("/cart", accountHandler.GetCart)
	authed.DELETE("/cart/:name", accountHandler.RemoveCartItem)
	authed.PUT("/settings", accountHandler.UpdateSettings)
	authed.DELETE("/account", accountHandler.DeleteAccount)

	e.Logger.Fatal(e.Start(":" + cfg.Port))
}
