package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "associacao_pagamentos/docs"
	"associacao_pagamentos/internal/adapter/http/handlers"
	"associacao_pagamentos/internal/adapter/http/middleware"
	"associacao_pagamentos/internal/adapter/http/routes"
	repository2 "associacao_pagamentos/internal/adapter/persistence/repository"
	"associacao_pagamentos/internal/infrastructure/config"
	"associacao_pagamentos/internal/infrastructure/database"
	"associacao_pagamentos/internal/infrastructure/metrics"
	"associacao_pagamentos/internal/infrastructure/notification"
	"associacao_pagamentos/internal/infrastructure/payments"
	"associacao_pagamentos/internal/usecase"
	"associacao_pagamentos/internal/usecase/interfaces"

	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

// @title           Associação Pagamentos API
// @version         1.0
// @description     PIX payments for membership dues and consultations, backed by DynamoDB.

// @contact.name   API Support

// @host localhost:8080

// @BasePath  /

// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	if err := run(); err != nil {
		log.Fatalf("Failed to startup the application: %v", err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ddb, err := database.ConnectDynamoDB(ctx)
	if err != nil {
		return err
	}
	if cfg.CreateTables {
		if err := database.EnsureTables(ctx, ddb, database.TableNamesFromEnv()); err != nil {
			return err
		}
	}

	paymentRepo := repository2.NewPaymentDynamoRepository(ddb)
	appointmentRepo := repository2.NewAppointmentDynamoRepository(ddb)
	subscriptionRepo := repository2.NewSubscriptionDynamoRepository(ddb)
	var planRepo interfaces.IPlanRepository = repository2.NewPlanDynamoRepository(ddb)
	if cfg.RedisAddr != "" {
		rdb, err := repository2.ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			log.Printf("Plan cache disabled: %v", err)
		} else {
			defer rdb.Close()
			planRepo = repository2.NewCachedPlanRepository(planRepo, repository2.NewRedisPlanCache(rdb, cfg.PlanCacheTTL))
		}
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	paymentMetrics := metrics.NewPaymentMetrics(registry)

	var paymentGateway interfaces.IPixGateway
	gateway, err := payments.NewMercadoPagoGateway(newTokenCache(cfg), cfg.NotificationURL, cfg.GatewayMock)
	if err != nil {
		log.Printf("Mercado Pago gateway not configured: %v", err)
	} else {
		paymentGateway = gateway
	}

	var sender notification.Sender = notification.LogSender{}
	if len(cfg.KafkaBrokers) > 0 {
		producer, err := notification.ConnectKafka(cfg.KafkaBrokers, cfg.NotificationSendTimeout)
		if err != nil {
			return err
		}
		kafkaSender := notification.NewKafkaSender(producer, cfg.NotificationTopic)
		defer kafkaSender.Close()
		sender = kafkaSender
	}
	dispatcher := notification.NewDispatcher(sender, paymentMetrics, notification.Options{
		QueueSize:   cfg.NotificationQueueSize,
		Workers:     cfg.NotificationWorkers,
		SendTimeout: cfg.NotificationSendTimeout,
		AfterSend:   notification.MarkAppointmentNotified(appointmentRepo),
	})

	chargeUseCase := usecase.NewChargeUseCase(paymentRepo, planRepo, appointmentRepo, paymentGateway, paymentMetrics, cfg.ChargeConfig())
	webhookUseCase := usecase.NewWebhookUseCase(
		usecase.NewWebhookAuthenticator(cfg.WebhookSecret),
		paymentRepo,
		usecase.NewAppointmentConfirmer(appointmentRepo),
		usecase.NewSubscriptionActivator(subscriptionRepo, planRepo, cfg.DurationPolicy()),
		dispatcher,
		paymentMetrics,
	)
	sweeper := usecase.NewExpirationSweeper(paymentRepo, paymentMetrics, cfg.SweepInterval, cfg.SweepBatchSize)

	router := routes.NewRouter(routes.Dependencies{
		Payments: handlers.NewPaymentHandler(chargeUseCase, usecase.NewPaymentQueryUseCase(paymentRepo)),
		Plans:    handlers.NewPlanHandler(usecase.NewPlanUseCase(planRepo)),
		Webhooks: handlers.NewWebhookHandler(webhookUseCase),
		JWT:      middleware.NewHS256Validator(cfg.JWTSecret),
		Metrics:  promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}),
	})

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	// The dispatcher outlives the server so confirmations enqueued by
	// in-flight webhooks are still delivered.
	dispatchCtx, stopDispatch := context.WithCancel(context.Background())
	defer stopDispatch()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("[payment][server] listening addr=%s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		defer stopDispatch()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		log.Printf("[payment][server] shutting down")
		return server.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		sweeper.Run(gctx)
		return nil
	})
	g.Go(func() error {
		return dispatcher.Run(dispatchCtx)
	})

	return g.Wait()
}

func newTokenCache(cfg config.Config) *payments.TokenCache {
	switch {
	case cfg.UsesClientCredentials():
		source := payments.NewClientCredentialsTokenSource(
			&http.Client{Timeout: 10 * time.Second},
			cfg.MercadoPagoTokenURL,
			cfg.MercadoPagoClientID,
			cfg.MercadoPagoSecret,
		)
		return payments.NewTokenCache(source, nil, -1)
	case cfg.MercadoPagoAccessToken != "":
		return payments.NewTokenCache(payments.StaticTokenSource(cfg.MercadoPagoAccessToken), nil, -1)
	}
	return nil
}
