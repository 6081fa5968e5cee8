package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rabbitmq/amqp091-go"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront-service/internal/config"
	"storefront-service/internal/controller"
	"storefront-service/internal/fraud"
	"storefront-service/internal/merge"
	"storefront-service/internal/middleware"
	"storefront-service/internal/rabbit"
	"storefront-service/internal/refund"
	"storefront-service/internal/repository"
	"storefront-service/internal/rewards"
	"storefront-service/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Config inválida: %v", err)
	}
	config.SetupLogger(cfg.LogLevel, cfg.GinMode == gin.ReleaseMode)
	gin.SetMode(cfg.GinMode)

	loc, err := cfg.Location()
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Conexión a MongoDB
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatal(err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		log.Fatalf("MongoDB no responde: %v", err)
	}
	db := client.Database(cfg.MongoDBName)
	if err := repository.EnsureIndexes(connectCtx, db); err != nil {
		log.Fatalf("Error creando índices: %v", err)
	}

	// Conexión a RabbitMQ
	conn, err := amqp091.Dial(cfg.RabbitURL)
	if err != nil {
		log.Fatalf("Error conectando a RabbitMQ: %v", err)
	}
	pubCh, err := conn.Channel()
	if err != nil {
		log.Fatalf("Error creando canal en RabbitMQ: %v", err)
	}
	if err := rabbit.SetupNotifications(pubCh, false); err != nil {
		log.Fatal(err)
	}
	consumeCh, err := conn.Channel()
	if err != nil {
		log.Fatalf("Error creando canal en RabbitMQ: %v", err)
	}
	if err := rabbit.SetupOrderQueue(consumeCh); err != nil {
		log.Fatal(err)
	}

	// Repositorios
	orders := repository.NewMongoOrderRepository(db)
	users := repository.NewMongoUserRepository(db)
	spins := repository.NewMongoSpinRepository(db)
	wallets := repository.NewMongoWalletRepository(db)
	carts := repository.NewMongoCartRepository(db)
	wishlists := repository.NewMongoWishlistRepository(db)

	// Servicios
	gate := fraud.NewService(users, spins, cfg.SpinDailyLimit, loc)
	rewardsService := rewards.NewService(gate, wallets, spins, rewards.NewWheel(rewards.DefaultWheel, nil), cfg.SpinDailyLimit)
	orderService := service.NewOrderService(orders, users, refund.NewGateway(cfg.RefundGatewayURL), rabbit.NewPublisher(pubCh), rewardsService)
	cartService := service.NewCartService(carts, wishlists)
	merger := merge.NewService(carts, wishlists)
	authService := service.NewAuthService(cfg.AuthURL)

	consumerDone, err := rabbit.Consume(ctx, consumeCh, rabbit.OrdersQueue, rabbit.NewPlaceOrderConsumer(orderService))
	if err != nil {
		log.Fatal(err)
	}

	// Handlers
	orderCtl := controller.NewOrderController(orderService)
	rewardsCtl := controller.NewRewardsController(rewardsService)
	cartCtl := controller.NewCartController(cartService, merger)

	// Router
	r, err := controller.NewEngine(cfg.TrustedProxies)
	if err != nil {
		log.Fatal(err)
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Cart y wishlist: usuario o invitado
	shop := r.Group("/", middleware.GuestID(), middleware.OptionalAuth(authService))
	shop.GET("/cart", cartCtl.GetCart)
	shop.POST("/cart/items", cartCtl.AddToCart)
	shop.DELETE("/cart/items/:productId", cartCtl.RemoveFromCart)
	shop.GET("/wishlist", cartCtl.GetWishlist)
	shop.POST("/wishlist/items", cartCtl.AddToWishlist)
	shop.DELETE("/wishlist/items/:productId", cartCtl.RemoveFromWishlist)

	// Rutas protegidas (requieren token)
	auth := r.Group("/")
	auth.Use(middleware.AuthMiddleware(authService))

	auth.POST("/guest/merge", cartCtl.MergeGuest)
	auth.GET("/orders/mine", orderCtl.GetMyOrders)
	auth.GET("/orders/:orderId", orderCtl.GetOrder)
	auth.POST("/orders/:orderId/cancel", orderCtl.Cancel)
	auth.POST("/orders/:orderId/return", orderCtl.Return)
	auth.GET("/rewards/wallet", rewardsCtl.Wallet)
	auth.POST("/rewards/spin", rewardsCtl.Spin)

	// Rutas admin
	admin := auth.Group("/admin")
	admin.Use(middleware.AdminOnly())
	admin.GET("/orders", orderCtl.GetAllOrders)
	admin.GET("/orders/status/:status", orderCtl.GetOrdersByStatus)
	admin.PATCH("/orders/:orderId/status", orderCtl.UpdateStatus)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.WithField("port", cfg.Port).Info("Storefront service ejecutándose")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	log.Info("Apagando servidor...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancelShutdown()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Error cerrando servidor HTTP")
	}
	select {
	case <-consumerDone:
	case <-shutdownCtx.Done():
		log.Warn("Consumer no terminó a tiempo")
	}
	if err := conn.Close(); err != nil && !errors.Is(err, amqp091.ErrClosed) {
		log.WithError(err).Error("Error cerrando RabbitMQ")
	}
	if err := client.Disconnect(shutdownCtx); err != nil {
		log.WithError(err).Error("Error desconectando MongoDB")
	}
}
