package main

import (
	"log"
	"os"

	"marketplace-service/internal/database"
	"marketplace-service/internal/handlers"
	"marketplace-service/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found in current directory, trying parent")
		if err := godotenv.Load("../.env"); err != nil {
			log.Println("No .env file found, using system environment variables")
		}
	}

	if mode := os.Getenv("GIN_MODE"); mode != "" {
		gin.SetMode(mode)
	}

	// Initialize Database
	database.Connect()
	database.Migrate()
	db := database.DB

	// Redis/Asynq Client
	redisAddr := os.Getenv("REDIS_URL")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}
	asynqClient := asynq.NewClient(asynq.RedisClientOpt{Addr: redisAddr})
	defer asynqClient.Close()

	// Init Services
	helperService := services.NewHelperService(db)
	referralService := services.NewReferralService(db)
	commissionService := services.NewCommissionService(db, helperService, referralService)
	subscriptionService := services.NewSubscriptionService(db, referralService)
	jazzcashService := services.NewJazzCashService(db, helperService)
	settlementService := services.NewSettlementService(
		db, jazzcashService, jazzcashService,
		subscriptionService, commissionService, helperService, asynqClient)
	userService := services.NewUserService(db, referralService)
	orderService := services.NewOrderService(db, helperService, asynqClient)
	withdrawalService := services.NewWithdrawalService(db)
	archiveService := services.NewTransactionArchiveService(db)

	// Handlers
	userHandler := handlers.NewUserHandler(userService, referralService, subscriptionService)
	paymentHandler := handlers.NewPaymentHandler(settlementService)
	orderHandler := handlers.NewOrderHandler(orderService)
	withdrawalHandler := handlers.NewWithdrawalHandler(withdrawalService)

	// Initialize Gin
	r := gin.Default()

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "Welcome to Marketplace service",
		})
	})

	// Accounts
	r.POST("/users/register", userHandler.Register)
	r.POST("/users/login", userHandler.Login)
	r.GET("/users/:userId", userHandler.Profile)
	r.GET("/users/:userId/referrals", userHandler.ReferralStats)
	r.GET("/users/:userId/subscription", userHandler.SubscriptionStatus)

	// Payments
	r.POST("/payments/initiate", paymentHandler.InitiatePayment)
	r.POST("/payments/callback", paymentHandler.Callback)
	r.GET("/payments/status/:txnRefNo", paymentHandler.CheckStatus)

	// Orders
	r.POST("/orders", orderHandler.CreateOrder)
	r.GET("/orders", orderHandler.ListOrders)
	r.GET("/orders/:orderId", orderHandler.GetOrder)
	r.PATCH("/orders/:orderId/status", orderHandler.UpdateStatus)
	r.POST("/orders/:orderId/wallet-credit", orderHandler.CreditWallet)

	// Withdrawals
	r.POST("/withdrawals", withdrawalHandler.RequestWithdrawal)
	r.GET("/withdrawals", withdrawalHandler.ListWithdrawals)
	r.PATCH("/withdrawals/:withdrawalId", withdrawalHandler.UpdateStatus)
	r.POST("/withdrawals/account", withdrawalHandler.SaveAccount)

	// Background schedulers
	settlementService.StartScheduler()
	subscriptionService.StartScheduler()
	archiveService.StartScheduler()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Starting HTTP server on port %s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
