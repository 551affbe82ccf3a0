package main

import (
	"log"
	"os"

	"log/slog"

	"github.com/joho/godotenv"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/DonaldKnut/marketdotcom/internal/config"
	apphttp "github.com/DonaldKnut/marketdotcom/internal/http"
	"github.com/DonaldKnut/marketdotcom/internal/mailer"
	"github.com/DonaldKnut/marketdotcom/internal/modules/payments"
)

func main() {
	// Load .env file (ignore error if not found - prod uses real env vars)
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	db, err := gorm.Open(mysql.Open(cfg.DBDSN), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	mail := mailer.NewSMTPMailer(cfg.SMTP)
	gateway := payments.NewPaystackGateway(cfg.Paystack.SecretKey, cfg.Paystack.BaseURL)

	r := apphttp.NewRouter(logger, db, cfg, mail, gateway)
	if err := r.Run(cfg.Addr); err != nil {
		log.Fatalf("server: %v", err)
	}
}
