package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/jomarip/beach-resort-booking/internal/booking"
	"github.com/jomarip/beach-resort-booking/internal/config"
	"github.com/jomarip/beach-resort-booking/internal/database"
	"github.com/jomarip/beach-resort-booking/internal/handler"
	"github.com/jomarip/beach-resort-booking/internal/middleware"
	"github.com/jomarip/beach-resort-booking/internal/queue"
	"github.com/jomarip/beach-resort-booking/internal/repository"
	"github.com/jomarip/beach-resort-booking/internal/router"
	"github.com/jomarip/beach-resort-booking/internal/sequence"
	qp "github.com/jomarip/beach-resort-booking/internal/service"
)

func main() {
	_ = godotenv.Load() // .env is optional; real env wins

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient() // nil when Redis is unavailable; limiter/cache degrade to no-ops

	// Repositories.
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	accommodations := repository.NewAccommodationRepo(db)
	bookings := repository.NewBookingRepo(db)
	rebookings := repository.NewRebookingRepo(db)
	payments := repository.NewPaymentRepo(db)
	refunds := repository.NewRefundRepo(db)
	sequences := repository.NewSequenceRepo(db)

	svc := booking.NewService(booking.Deps{
		Bookings:      bookings,
		Rebookings:    rebookings,
		Payments:      payments,
		Refunds:       refunds,
		Sources:       bookings,
		BookingNums:   sequence.NewGenerator(sequence.ScopeBooking, sequences),
		PaymentNums:   sequence.NewGenerator(sequence.ScopePayment, sequences),
		RebookingNums: sequence.NewGenerator(sequence.ScopeRebooking, sequences),
		RefundNums:    sequence.NewGenerator(sequence.ScopeRefund, sequences),
		Publisher:     qp.Publisher{},
		Artifacts:     booking.DiskArtifacts{Dir: cfg.UploadDir},
		InTx:          booking.SQLTxRunner(db),
	})

	h := router.Handlers{
		Auth:           handler.NewAuthHandler(cfg, users, tokens),
		Accommodations: handler.NewAccommodationHandler(accommodations),
		Availability:   handler.NewAvailabilityHandler(svc),
		Bookings:       handler.NewBookingHandler(svc, bookings, accommodations),
		Rebookings:     handler.NewRebookingHandler(svc, rebookings, bookings, accommodations),
		Payments:       handler.NewPaymentHandler(svc, payments, cfg.UploadDir),
		Refunds:        handler.NewRefundHandler(svc),
	}

	e := echo.New()
	e.Validator = handler.NewRequestValidator()

	rateLimit := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	cache := middleware.NewResponseCache(config.LoadCacheConfig(), rdb)

	router.RegisterPublic(e, h, rateLimit, cache)
	router.RegisterAuth(e, h, cfg.JWTSecret, rateLimit)
	router.RegisterStaff(e, h, cfg.JWTSecret)
	router.RegisterAdmin(e, h, cfg.JWTSecret)
	router.RegisterCustomer(e, h, cfg.JWTSecret)

	// Background consumer appending confirmed-booking and approved-rebooking
	// events to logs/booking.log.  Runs its own reconnect loop.
	go func() {
		if err := queue.StartEventConsumer(); err != nil {
			log.Printf("event consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
