package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/DonaldKnut/marketdotcom/internal/http/middleware"
	"github.com/DonaldKnut/marketdotcom/internal/modules/catalog"
	"github.com/DonaldKnut/marketdotcom/internal/modules/notifications"
	"github.com/DonaldKnut/marketdotcom/internal/modules/orders"
	"github.com/DonaldKnut/marketdotcom/internal/modules/payments"
	"github.com/DonaldKnut/marketdotcom/internal/modules/rewards"
	"github.com/DonaldKnut/marketdotcom/internal/modules/users"
	"github.com/DonaldKnut/marketdotcom/internal/modules/wallet"
)

func main() {
	_ = godotenv.Load()

	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		log.Fatal("DB_DSN environment variable is required")
	}

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	err = db.AutoMigrate(
		&users.User{},
		&middleware.Session{},
		&catalog.Category{},
		&catalog.Product{},
		&catalog.Variation{},
		&orders.Order{},
		&orders.OrderItem{},
		&orders.Delivery{},
		&payments.Payment{},
		&wallet.WalletTransaction{},
		&rewards.Reward{},
		&notifications.Notification{},
	)
	if err != nil {
		log.Fatalf("Failed to migrate tables: %v", err)
	}

	log.Println("Tables created successfully")
}
