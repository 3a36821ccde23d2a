package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	cartcache "github.com/abarbosa/loja-virtual/internal/cart/cache"
	cartrepo "github.com/abarbosa/loja-virtual/internal/cart/repository"
	cartservice "github.com/abarbosa/loja-virtual/internal/cart/service"
	catalogrepo "github.com/abarbosa/loja-virtual/internal/catalog/repository"
	checkoutservice "github.com/abarbosa/loja-virtual/internal/checkout/service"
	"github.com/abarbosa/loja-virtual/internal/events"
	storehttp "github.com/abarbosa/loja-virtual/internal/http"
	orderrepo "github.com/abarbosa/loja-virtual/internal/order/repository"
	orderservice "github.com/abarbosa/loja-virtual/internal/order/service"
	"github.com/abarbosa/loja-virtual/internal/payment"
	paymentconsumer "github.com/abarbosa/loja-virtual/internal/payment/consumer"
	"github.com/abarbosa/loja-virtual/internal/shipping"
)

type Config struct {
	HTTPPort       string
	OperatorToken  string
	RequestTimeout time.Duration

	DBHost         string
	DBPort         int
	DBUser         string
	DBPassword     string
	DBName         string
	MigrationsPath string

	MongoURI    string
	MongoDBName string

	RedisAddr     string
	RedisPassword string

	KafkaBrokers string

	ShippingAPIURL     string
	ShippingTimeout    time.Duration
	PaymentAPIURL      string
	PaymentAccessToken string
	PaymentTimeout     time.Duration

	ReconcileInterval time.Duration
	ReconcileAfter    time.Duration
}

func loadConfig() *Config {
	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		log.Fatalf("invalid DB_PORT: %v", err)
	}

	return &Config{
		HTTPPort:       getEnv("HTTP_PORT", "8080"),
		OperatorToken:  getEnv("OPERATOR_TOKEN", ""),
		RequestTimeout: getDurationEnv("REQUEST_TIMEOUT", 30*time.Second),

		DBHost:         getEnv("DB_HOST", "localhost"),
		DBPort:         dbPort,
		DBUser:         getEnv("DB_USER", "postgres"),
		DBPassword:     getEnv("DB_PASSWORD", "postgres"),
		DBName:         getEnv("DB_NAME", "loja"),
		MigrationsPath: getEnv("MIGRATIONS_PATH", "./migrations"),

		MongoURI:    getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDBName: getEnv("MONGO_DB_NAME", "loja"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),

		KafkaBrokers: getEnv("KAFKA_BROKERS", "localhost:9092"),

		ShippingAPIURL:     getEnv("SHIPPING_API_URL", "http://localhost:9090"),
		ShippingTimeout:    getDurationEnv("SHIPPING_TIMEOUT", 8*time.Second),
		PaymentAPIURL:      getEnv("PAYMENT_API_URL", "http://localhost:9091"),
		PaymentAccessToken: getEnv("PAYMENT_ACCESS_TOKEN", ""),
		PaymentTimeout:     getDurationEnv("PAYMENT_TIMEOUT", 10*time.Second),

		ReconcileInterval: getDurationEnv("RECONCILE_INTERVAL", 15*time.Minute),
		ReconcileAfter:    getDurationEnv("RECONCILE_AFTER", 24*time.Hour),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Fatalf("invalid %s: %v", key, err)
	}
	return d
}

func main() {
	log.Println("loja-virtual starting...")
	cfg := loadConfig()
	if cfg.OperatorToken == "" {
		log.Fatal("OPERATOR_TOKEN must be set")
	}

	var wg sync.WaitGroup

	// Postgres holds the catalog and the orders.
	creds := &catalogrepo.Credentials{
		Host:              cfg.DBHost,
		Port:              cfg.DBPort,
		User:              cfg.DBUser,
		Password:          cfg.DBPassword,
		DBName:            cfg.DBName,
		MigrationsDirPath: cfg.MigrationsPath,
	}
	db, err := catalogrepo.Connect(creds)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	catalogRepo := catalogrepo.NewRepository(db)
	if err := catalogRepo.RunMigrations(creds); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database migrations completed")

	orderRepo := orderrepo.NewRepository(db)

	// MongoDB holds session carts.
	ctx := context.Background()
	mongoDB, err := cartrepo.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDBName)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	if err := cartrepo.EnsureIndexes(ctx, mongoDB); err != nil {
		log.Fatalf("Failed to create cart indexes: %v", err)
	}
	cartRepo := cartrepo.NewMongoRepository(mongoDB)
	log.Printf("Connected to MongoDB at %s", cfg.MongoURI)

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	defer redisClient.Close()

	bus := events.NewBus()
	defer bus.Close()

	cartSvc := cartservice.NewCartService(cartRepo, cartcache.NewRedisCache(redisClient), catalogRepo)
	orderSvc := orderservice.NewOrderService(orderRepo, bus)

	gateway := payment.NewHTTPGateway(cfg.PaymentAPIURL, cfg.PaymentAccessToken, cfg.PaymentTimeout)
	checkoutSvc := checkoutservice.NewCheckoutService(cartSvc, catalogRepo, orderRepo, gateway, bus, cfg.PaymentTimeout)

	rateProvider := shipping.NewHTTPRateProvider(cfg.ShippingAPIURL, cfg.ShippingTimeout)
	resolver := shipping.NewResolver(rateProvider)

	// Payment status events arrive out of band and confirm orders.
	consumer := paymentconsumer.NewConsumer(orderSvc, cfg.KafkaBrokers)
	workerCtx, workerCancel := context.WithCancel(context.Background())
	wg.Add(1)
	go func() {
		defer wg.Done()
		consumer.Run(workerCtx)
	}()

	// Abandoned unpaid orders give their stock back on a timer.
	wg.Add(1)
	go func() {
		defer wg.Done()
		orderSvc.RunReconciler(workerCtx, cfg.ReconcileInterval, cfg.ReconcileAfter)
	}()

	router := storehttp.NewRouter(
		storehttp.RouterConfig{
			RequestTimeout: cfg.RequestTimeout,
			OperatorToken:  cfg.OperatorToken,
		},
		storehttp.NewCartHandler(cartSvc, cfg.RequestTimeout),
		storehttp.NewShippingHandler(resolver, cartSvc, cfg.RequestTimeout),
		storehttp.NewCheckoutHandler(checkoutSvc, cfg.RequestTimeout),
		storehttp.NewAdminHandler(orderSvc, bus, cfg.ReconcileAfter, cfg.RequestTimeout),
	)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("HTTP server listening on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server forced to shutdown: %v", err)
	}

	workerCancel()
	doneChan := make(chan struct{})
	go func() {
		wg.Wait()
		close(doneChan)
	}()

	select {
	case <-doneChan:
		log.Println("workers stopped cleanly")
	case <-shutdownCtx.Done():
		log.Println("workers didn't stop in time")
	}

	consumer.Close()
	log.Println("server exited")
}
