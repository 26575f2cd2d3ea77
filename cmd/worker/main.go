package main

import (
	"log"
	"os"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"

	"marketplace-service/internal/consumers"
	"marketplace-service/internal/database"
	"marketplace-service/internal/services"
	"marketplace-service/internal/worker"
)

func main() {
	// Load env
	if err := godotenv.Load("../../.env"); err != nil {
		log.Println("No .env file found in ../../.env, trying .env")
		if err := godotenv.Load(".env"); err != nil {
			log.Println("No .env file found, using system env")
		}
	}

	// Connect DB
	database.Connect()
	db := database.DB

	// Redis
	redisAddr := os.Getenv("REDIS_URL")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}
	redisOpt := asynq.RedisClientOpt{Addr: redisAddr}

	asynqClient := asynq.NewClient(redisOpt)
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
	orderService := services.NewOrderService(db, helperService, asynqClient)

	// Processor
	processor := consumers.NewSettlementProcessor(db, settlementService, orderService)

	log.Println("Starting Asynq Worker...")
	worker.StartWorker(redisOpt, processor)
}
