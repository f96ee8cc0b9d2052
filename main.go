package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"bnbillains/cache"
	"bnbillains/config"
	"bnbillains/controllers"
	"bnbillains/queue"
	"bnbillains/repositories"
	"bnbillains/routes"
	"bnbillains/services"
)

const serviceName = "bnbillains"

func main() {
	// .env is optional
	envErr := godotenv.Load()

	cfg := config.Load()
	log := config.NewLogger(cfg)
	if envErr != nil {
		log.Debug(".env not found; using process environment")
	}

	shutdownTracing, err := config.InitTracing(context.Background(), cfg, log, serviceName)
	if err != nil {
		log.WithError(err).Fatal("tracing init failed")
	}

	if err := config.ConnectDatabase(cfg, log); err != nil {
		log.WithError(err).Fatal("database connect failed")
	}
	db := config.DB

	opts := services.ReservationOptions{Logger: log, LockLair: cfg.LockLairOnBooking}
	var occupancy services.OccupancyCache
	if rdb := config.NewRedisClient(cfg, log); rdb != nil {
		defer rdb.Close()
		occupancy = cache.NewOccupancyCache(rdb, cfg.OccupancyCacheTTL)
		opts.Cache = occupancy
	}
	if cfg.RabbitMQURL != "" {
		opts.Events = queue.NewPublisher(cfg.RabbitMQURL, cfg.ReservationsQueue)
		log.WithField("queue", cfg.ReservationsQueue).Info("reservation events enabled")
	}

	// Initialize services
	bookingService := services.NewReservationService(repositories.NewBookingStore(db), opts)
	villainService := services.NewVillainService(db, occupancy, log)
	lairService := services.NewLairService(db, occupancy, log)
	invoiceService := services.NewInvoiceService(db)

	// Initialize controllers
	controllers.DefaultPageSize = cfg.PageSize
	router := routes.SetupRouter(cfg, log, routes.Controllers{
		Villains:     controllers.NewVillainController(villainService, invoiceService, log),
		Lairs:        controllers.NewLairController(lairService, bookingService, services.NewImageStore(cfg.UploadDir), log),
		Amenities:    controllers.NewAmenityController(services.NewAmenityService(db), log),
		Reviews:      controllers.NewReviewController(services.NewReviewService(db), log),
		SecretRooms:  controllers.NewSecretRoomController(services.NewSecretRoomService(db), log),
		Reservations: controllers.NewReservationController(bookingService, services.NewReservationQueries(db), log),
		Invoices:     controllers.NewInvoiceController(invoiceService, log),
	})

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           otelhttp.NewHandler(router, serviceName),
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.WithField("addr", addr).Info("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("listen failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Info("shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Error("server forced to shutdown")
	}
	if err := shutdownTracing(ctx); err != nil {
		log.WithError(err).Warn("tracer shutdown failed")
	}
	log.Info("server stopped")
}
