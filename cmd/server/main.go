package main

import (
	"context" // context package is needed for Redis operations
	"log"     // log package is needed for logging

	"github.com/Arunmathur01/xcoinpay/internal/api"        // Custom package for API handlers
	"github.com/Arunmathur01/xcoinpay/internal/config"     // Custom package for configuration
	"github.com/Arunmathur01/xcoinpay/internal/kyc"        // KYC lifecycle service
	"github.com/Arunmathur01/xcoinpay/internal/mail"       // Outbound mail notifier
	"github.com/Arunmathur01/xcoinpay/internal/middleware" // Custom package for middleware

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logrus for structured logging
	"gorm.io/driver/mysql"         // MySQL driver for GORM
	"gorm.io/gorm"                 // GORM ORM library
)

// Main function to set up and run the server
func main() {
	cfg := config.LoadConfig() // Load configuration

	// Setup logger
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	// Setup Data Source Name (DSN) and connect to the database
	dsn := cfg.DBUser + ":" + cfg.DBPassword + "@tcp(" + cfg.DBHost + ":" + cfg.DBPort + ")/" + cfg.DBName + "?parseTime=true"
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		logrus.Fatalf("failed to connect to DB: %v", err) // Fatal error if DB connection fails
	}

	// Setup Redis client
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr, // Redis server address
		Password: cfg.RedisPass, // Redis password
		DB:       cfg.RedisDB,   // Redis database number
	})

	// Test Redis connection
	_, err = redisClient.Ping(context.Background()).Result()
	if err != nil {
		logrus.Fatalf("failed to connect to Redis: %v", err)
	}

	// Mailer is built exactly once; nil means notifications are disabled
	mailer := mail.NewMailer(cfg)

	// KYC lifecycle service with its injected dependencies
	kycService := kyc.NewService(db, redisClient, mailer, cfg.BaseURL)

	// Set Mode to Release if in production
	if cfg.IsProd {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup Gin
	r := gin.Default() // Gin router instance

	// Set trusted proxies for Gin
	if err := r.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		logrus.Fatalf("failed to set trusted proxies: %v", err)
	}

	r.Use(middleware.CORSMiddleware(cfg.CORSOrigins)) // Allow the frontend origins

	// Health route
	r.GET("/", func(c *gin.Context) {
		c.String(200, "KYC API up")
	})

	// Public auth routes
	r.POST("/api/register", api.RegisterHandler(db, kycService, cfg.JWTSecret)) // Registration endpoint
	r.POST("/api/login", api.LoginHandler(db, cfg.JWTSecret))                   // Login endpoint
	r.POST("/api/admin/login", api.AdminLoginHandler(cfg))                      // Fixed-credential admin login

	// Emailed one-click review links carry single-use tokens, no bearer auth
	r.GET("/api/kyc/approve", api.KYCActionLinkHandler(kycService))
	r.GET("/api/kyc/reject", api.KYCActionLinkHandler(kycService))

	// Authenticated user routes
	auth := r.Group("/api")
	auth.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret))
	auth.POST("/kyc", api.SubmitKYCHandler(kycService))                       // Submit KYC data
	auth.GET("/kyc/status", api.KYCStatusHandler(kycService))                 // Poll own review state
	auth.GET("/kyc/latest", api.LatestKYCHandler(kycService))                 // Fetch own latest record
	auth.POST("/connect-wallet", api.ConnectWalletHandler(db))                // Attach wallet to user
	auth.POST("/transactions", api.CreateTransactionHandler(db, redisClient)) // Record investment attempt
	auth.GET("/transactions", api.ListTransactionsHandler(db, redisClient))   // List own transactions
	auth.GET("/profile", api.ProfileHandler(db))                              // Fetch own profile

	// Owner/admin routes (bearer + owner gate)
	admin := r.Group("/api/admin")
	admin.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret), middleware.OwnerOnlyMiddleware(db, cfg.OwnerEmail))
	admin.GET("/kyc", api.ListKYCHandler(kycService))                         // List submissions
	admin.POST("/kyc/:kycId/approve", api.ReviewKYCHandler(kycService, true)) // Approve by record id
	admin.POST("/kyc/:kycId/reject", api.ReviewKYCHandler(kycService, false)) // Reject by record id

	log.Println("Server running on " + cfg.AppPort) // Log server start
	r.Run(":" + cfg.AppPort)                        // Start the server on port cfg.AppPort
}
