package http

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/DonaldKnut/marketdotcom/internal/config"
	"github.com/DonaldKnut/marketdotcom/internal/http/handlers"
	"github.com/DonaldKnut/marketdotcom/internal/http/middleware"
	"github.com/DonaldKnut/marketdotcom/internal/mailer"
	"github.com/DonaldKnut/marketdotcom/internal/modules/catalog"
	"github.com/DonaldKnut/marketdotcom/internal/modules/email"
	"github.com/DonaldKnut/marketdotcom/internal/modules/notifications"
	"github.com/DonaldKnut/marketdotcom/internal/modules/orders"
	"github.com/DonaldKnut/marketdotcom/internal/modules/payments"
	"github.com/DonaldKnut/marketdotcom/internal/modules/users"
	"github.com/DonaldKnut/marketdotcom/internal/modules/wallet"
)

// NewRouter wires every service and handler explicitly; nothing reaches for
// package-level state. Tests build the same graph with their own db and a
// fake gateway.
func NewRouter(logger *slog.Logger, db *gorm.DB, cfg config.Config, mail mailer.Service, gateway payments.Gateway) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	sessionCfg := middleware.SessionCfg{
		DB:         db,
		CookieName: cfg.SessionCookie,
		Secure:     cfg.IsProduction(),
		TTL:        cfg.SessionTTL,
	}

	emails := email.NewSender(mail, cfg.SMTP.From, cfg.SMTP.FromName, logger)
	notifier := notifications.NewNotifier(db)

	userSvc := users.NewService(db, logger)
	catalogRepo := catalog.NewRepo(db)
	orderSvc := orders.NewService(db)
	orderRepo := orders.NewRepo(db)
	orderAdmin := orders.NewAdminService(db, notifier, emails, logger)
	paymentSvc := payments.NewService(db, gateway, notifier, emails, cfg.BaseURL, logger)
	walletSvc := wallet.NewService(db, notifier, logger)

	auth := handlers.NewAuthHandler(userSvc, emails, sessionCfg)
	products := handlers.NewProductHandler(catalogRepo)
	orderH := handlers.NewOrderHandler(orderSvc, orderAdmin, orderRepo)
	paymentH := handlers.NewPaymentHandler(paymentSvc)
	webhookH := handlers.NewWebhookHandler(logger, gateway, paymentSvc)
	walletH := handlers.NewWalletHandler(walletSvc)
	notificationH := handlers.NewNotificationHandler(notifier)

	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.Logger(logger),
		// ErrorHandler wraps Recovery so a recovered panic still gets a JSON response
		middleware.ErrorHandler(logger),
		middleware.Recovery(logger),
		middleware.SessionMiddleware(sessionCfg),
	)

	api := r.Group("/api")

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", auth.Register)
		authGroup.POST("/login", auth.Login)
		authGroup.POST("/logout", auth.Logout)
		authGroup.POST("/verify-email", auth.VerifyEmail)
		authGroup.GET("/me", middleware.RequireAuth(), auth.Me)
	}

	api.GET("/products", products.List)
	api.GET("/products/:id", products.Get)
	api.POST("/products", middleware.RequireAdmin(), products.Create)
	api.PUT("/products/:id", middleware.RequireAdmin(), products.Update)
	api.GET("/categories", products.ListCategories)
	api.POST("/categories", middleware.RequireAdmin(), products.CreateCategory)

	ordersGroup := api.Group("/orders", middleware.RequireAuth())
	{
		ordersGroup.GET("", orderH.List)
		ordersGroup.POST("", orderH.Create)
		ordersGroup.GET("/:id", orderH.Get)
		ordersGroup.PUT("", middleware.RequireAdmin(), orderH.UpdateStatus)
	}

	paymentsGroup := api.Group("/payments")
	{
		paymentsGroup.POST("/initialize", middleware.RequireAuth(), paymentH.Initialize)
		paymentsGroup.POST("/verify", middleware.RequireAuth(), paymentH.Verify)
		// webhook authenticates by signature, not session
		paymentsGroup.POST("/webhook", webhookH.Handle)
	}

	walletGroup := api.Group("/wallet", middleware.RequireAuth())
	{
		walletGroup.GET("", walletH.Overview)
		walletGroup.POST("/fund", walletH.Fund)
		walletGroup.POST("/redeem", walletH.Redeem)
	}

	notificationsGroup := api.Group("/notifications", middleware.RequireAuth())
	{
		notificationsGroup.GET("", notificationH.List)
		notificationsGroup.POST("/:id/read", notificationH.MarkRead)
	}

	return r
}
