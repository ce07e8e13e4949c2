package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gatherhub/ticketing/config"
	"github.com/gatherhub/ticketing/internal/consumer"
	"github.com/gatherhub/ticketing/internal/gateway/payhub"
	"github.com/gatherhub/ticketing/internal/handler"
	"github.com/gatherhub/ticketing/internal/middleware"
	"github.com/gatherhub/ticketing/internal/repository"
	"github.com/gatherhub/ticketing/internal/security"
	"github.com/gatherhub/ticketing/internal/service"
	"github.com/gatherhub/ticketing/pkg/database"
	"github.com/gatherhub/ticketing/pkg/rabbitmq"
	"github.com/labstack/echo/v4"
	echoMw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

func main() {
	log.SetFormatter(&log.JSONFormatter{})

	cfg := config.Load()

	db := database.NewPostgresDB(cfg.DSN())

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Fatalf("invalid redis url: %v", err)
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()

	// RabbitMQ consumer: mirror the catalog service's events
	mqConsumer, err := rabbitmq.NewConsumer(cfg.RabbitURL)
	if err != nil {
		log.Fatalf("failed to connect to RabbitMQ: %v", err)
	}
	defer mqConsumer.Close()

	msgs, err := mqConsumer.Consume()
	if err != nil {
		log.Fatalf("failed to start consuming: %v", err)
	}
	consumer.NewEventConsumer(db).Start(msgs)

	publisher, err := rabbitmq.NewPublisher(cfg.RabbitURL)
	if err != nil {
		log.Fatalf("failed to connect publisher to RabbitMQ: %v", err)
	}
	defer publisher.Close()

	// Repositories
	eventRepo := repository.NewEventRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	ticketRepo := repository.NewTicketRepository(db)

	// Payment gateway
	gw := payhub.New(payhub.Config{
		BaseURL:    cfg.GatewayBaseURL,
		MerchantID: cfg.GatewayMerchantID,
		APIKey:     cfg.GatewayAPIKey,
		Secret:     cfg.GatewaySecret,
	})

	// Services
	bookingSvc := service.NewBookingService(bookingRepo, eventRepo, ticketRepo, publisher, cfg.MaxUnitsPerBooking)
	paymentSvc := service.NewPaymentService(bookingRepo, eventRepo, ticketRepo, gw, publisher, cfg.Currency)
	ticketSvc := service.NewTicketService(ticketRepo, bookingRepo, publisher)

	// Echo
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = middleware.ErrorHandler
	e.Use(echoMw.RequestLoggerWithConfig(echoMw.RequestLoggerConfig{
		LogStatus: true,
		LogURI:    true,
		LogMethod: true,
		LogValuesFunc: func(c echo.Context, v echoMw.RequestLoggerValues) error {
			log.WithFields(log.Fields{
				"method": v.Method,
				"uri":    v.URI,
				"status": v.Status,
			}).Info("request")
			return nil
		},
	}))
	e.Use(echoMw.Recover())

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok", "service": "ticketing-core"})
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group("/api/v1", middleware.Auth(cfg.JWTSecret))
	scanLimiter := security.NewRateLimiter(redisClient, cfg.ScanRateLimit, cfg.ScanRateWindow)

	handler.NewBookingHandler(bookingSvc).RegisterRoutes(api)
	handler.NewPaymentHandler(paymentSvc, bookingSvc, cfg.Currency).RegisterRoutes(api, e)
	handler.NewTicketHandler(ticketSvc, bookingSvc).RegisterRoutes(api, scanLimiter.Middleware("scan"))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Infof("ticketing core starting on :%s", cfg.ServerPort)
		if err := e.Start(":" + cfg.ServerPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	// Abandoned checkouts must not squat on capacity.
	g.Go(func() error {
		ticker := time.NewTicker(cfg.SweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				if _, err := bookingSvc.ExpireStale(ctx, cfg.PendingPaymentTimeout); err != nil {
					log.WithError(err).Warn("pending-payment sweep failed")
				}
			}
		}
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}
