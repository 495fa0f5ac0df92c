/**
 * @description
 * This is the main entry point for the billing-service. It is responsible for
 * initializing all components of the service: configuration, the payment
 * provider clients, the invoicing and board clients, the event producer, the
 * core application service, and the HTTP server. It wires everything together
 * and starts the service.
 *
 * @dependencies
 * - log, net/http, os/signal: Standard Go libraries.
 * - github.com/joho/godotenv: Loads .env files during local development.
 * - internal/api, internal/app, internal/config, internal/domain: Internal packages.
 * - pkg/boardclient, pkg/cardclient, pkg/invoicingclient, pkg/wireclient, pkg/rabbitmq: External service clients.
 */

package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/boardpay/billing-service/internal/api"
	"github.com/boardpay/billing-service/internal/app"
	"github.com/boardpay/billing-service/internal/config"
	"github.com/boardpay/billing-service/internal/domain"
	"github.com/boardpay/billing-service/pkg/boardclient"
	"github.com/boardpay/billing-service/pkg/cardclient"
	"github.com/boardpay/billing-service/pkg/invoicingclient"
	"github.com/boardpay/billing-service/pkg/rabbitmq"
	"github.com/boardpay/billing-service/pkg/wireclient"
)

func main() {
	// Load .env in local development; in production everything comes from
	// the environment.
	if err := godotenv.Load(); err == nil {
		log.Println("level=info component=bootstrap msg=\"loaded .env file\"")
	}

	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"config load failed\" err=%v", err)
	}
	if cfg.InternalAPIKey == "" {
		log.Fatalf("level=fatal component=bootstrap msg=\"internal api key must be configured\" env=INTERNAL_API_KEY")
	}

	mode := domain.RuntimeMode(cfg.RuntimeMode)
	log.Printf("level=info component=bootstrap msg=\"starting billing-service\" port=%s mode=%s", cfg.ServerPort, mode)

	cardKeys := cfg.PaymentKeysTest
	if mode == domain.ModeLive {
		cardKeys = cfg.PaymentKeysLive
	}
	if len(cardKeys) == 0 {
		log.Printf("level=warn component=bootstrap msg=\"no card payment keys configured for mode\" mode=%s", mode)
	}

	// Resolve the card notification URL: dedicated URL when configured,
	// otherwise derived from the public base URL.
	notificationURL := cfg.CardNotificationURL
	if notificationURL == "" && cfg.PublicBaseURL != "" {
		notificationURL = strings.TrimRight(cfg.PublicBaseURL, "/") + "/webhooks/payments"
	}

	cardClient := cardclient.NewClient(cfg.CardAPIBaseURL, cfg.CardReturnURL, cfg.CardCancelURL, notificationURL)
	wireClient := wireclient.NewClient(cfg.WireAPIBaseURL, cfg.WireClientID, cfg.WireBeneficiaryIBAN, cfg.WireBeneficiaryName, cfg.WireCallbackURL)
	invoicingClient := invoicingclient.NewClient(cfg.InvoicingAPIBaseURL, cfg.InvoicingPublicKey, cfg.InvoicingSecretKey)
	boardClient := boardclient.NewClient(cfg.BoardAPIURL, cfg.BoardAPIToken)

	// Initialize the RabbitMQ producer to publish billing events. A missing
	// broker must not prevent the service from booting; events degrade to
	// warn logs via the fallback publisher.
	var events rabbitmq.Publisher
	producer, err := rabbitmq.NewEventProducer(cfg.RabbitMQURL, cfg.BillingEventExchange)
	if err != nil {
		log.Printf("level=warn component=bootstrap msg=\"rabbitmq producer unavailable; using fallback\" err=%v", err)
		events = &rabbitmq.EventProducerFallback{}
	} else {
		defer producer.Close()
		events = producer
		log.Println("level=info component=bootstrap msg=\"rabbitmq producer connected\"")
	}

	service := app.NewService(mode, cardKeys, cardClient, wireClient, invoicingClient, boardClient, events)
	handler := api.NewHandler(service)
	router := api.BillingRoutes(handler, cfg.InternalAPIKey)

	server := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: router,
	}

	// Start the server in a goroutine so shutdown signals can be handled.
	go func() {
		log.Printf("level=info component=bootstrap msg=\"http server listening\" addr=%s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("level=fatal component=bootstrap msg=\"http server failed\" err=%v", err)
		}
	}()

	// Wait for an interrupt and shut down gracefully.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Println("level=info component=bootstrap msg=\"shutting down\"")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("level=warn component=bootstrap msg=\"graceful shutdown failed\" err=%v", err)
	}
}
