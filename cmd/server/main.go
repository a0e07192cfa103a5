package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	adminhandler "ticket-office/backend/internal/admin/handler"
	adminrepo "ticket-office/backend/internal/admin/repository"
	adminservice "ticket-office/backend/internal/admin/service"
	"ticket-office/backend/internal/audit"
	auditrepo "ticket-office/backend/internal/audit/repository"
	"ticket-office/backend/internal/config"
	customerhandler "ticket-office/backend/internal/customer/handler"
	customerrepo "ticket-office/backend/internal/customer/repository"
	customerservice "ticket-office/backend/internal/customer/service"
	"ticket-office/backend/internal/db"
	"ticket-office/backend/internal/httpserver"
	"ticket-office/backend/internal/notification"
	offerhandler "ticket-office/backend/internal/offer/handler"
	offerrepo "ticket-office/backend/internal/offer/repository"
	paymenthandler "ticket-office/backend/internal/payment/handler"
	paymentrepo "ticket-office/backend/internal/payment/repository"
	paymentservice "ticket-office/backend/internal/payment/service"
	"ticket-office/backend/internal/payment/stripe"
	"ticket-office/backend/internal/security"
	tickethandler "ticket-office/backend/internal/ticket/handler"
	ticketrepo "ticket-office/backend/internal/ticket/repository"
	ticketservice "ticket-office/backend/internal/ticket/service"
	"ticket-office/backend/internal/twofactor"
	twofactorrepo "ticket-office/backend/internal/twofactor/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.Env == "production" {
		log.SetFormatter(&log.JSONFormatter{})
	}

	database, err := db.Open(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer database.Close()

	var notifier notification.Notifier
	if cfg.SMTPHost != "" {
		notifier = notification.NewSMTPNotifier(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom)
	} else {
		log.Warn("SMTP_HOST not set, emails are logged instead of sent")
		notifier = notification.LogNotifier{}
	}

	hasher := security.NewHasher(cfg.BcryptCost)
	tokens := security.NewTokenProvider([]byte(cfg.JWTSecret), cfg.JWTIssuer, cfg.SessionTTL())
	auditLog := audit.NewLogger(auditrepo.NewPostgresRepository(database))

	offers := offerrepo.NewPostgresRepository(database)
	customers := customerrepo.NewPostgresRepository(database)
	admins := adminrepo.NewPostgresRepository(database)
	transactions := paymentrepo.NewPostgresRepository(database)
	tickets := ticketrepo.NewPostgresRepository(database)

	twoFactor := twofactor.NewService(
		twofactorrepo.NewPostgresRepository(database), notifier, cfg.ChallengeTTL(), cfg.AppName)

	customerAuth := customerservice.NewAuthService(
		customers, twoFactor, hasher, tokens, notifier, auditLog,
		cfg.FrontendURL, cfg.AppName, cfg.SupportEmail)
	adminAuth := adminservice.NewAuthService(admins, twoFactor, hasher, tokens, auditLog)

	ticketSvc := ticketservice.NewService(
		tickets, transactions, offers, customers, notifier, auditLog, cfg.FrontendURL, cfg.AppName)
	paymentSvc := paymentservice.NewService(
		transactions, offers, customers,
		stripe.NewClient(cfg.StripeSecretKey, cfg.StripeBaseURL),
		ticketSvc, auditLog,
		cfg.StripeWebhookSecret, cfg.FrontendURL, 0)

	router := httpserver.NewRouter(tokens, httpserver.Handlers{
		Offers:    offerhandler.New(offers),
		Customers: customerhandler.New(customerAuth),
		Admins:    adminhandler.New(adminAuth),
		Payments:  paymenthandler.New(paymentSvc),
		Tickets:   tickethandler.New(ticketSvc),
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.WithField("addr", cfg.HTTPAddr).Info("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("serve: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Error("shutdown")
	}
}
