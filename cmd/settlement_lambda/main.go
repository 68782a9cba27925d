package main

import (
	"log"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/chris/money-movement/pkg/logging"
	"github.com/chris/money-movement/pkg/rabbitmq"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// Load environment variables from .env file (useful for local testing).
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	logger, err := logging.New(logging.Config{Level: os.Getenv("LOG_LEVEL"), Format: logging.FormatJSON})
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}

	amqpURL := os.Getenv("RABBITMQ_URL")
	exchange := os.Getenv("CUE_EXCHANGE")
	if exchange == "" {
		exchange = "moneymovement.cues"
	}
	if amqpURL == "" {
		logger.Fatal("RABBITMQ_URL environment variable not set")
	}

	producer, err := rabbitmq.NewProducer(amqpURL, exchange, logger)
	if err != nil {
		logger.Fatal("failed to connect to rabbitmq", zap.Error(err))
	}
	defer producer.Close()

	lambda.Start(NewHandler(producer, logger).HandleRequest)
}
