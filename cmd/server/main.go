package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"

	"groupcalendar/config"
	adapterauth "groupcalendar/internal/adapters/auth"
	"groupcalendar/internal/adapters/email"
	"groupcalendar/internal/adapters/geocode"
	delivery "groupcalendar/internal/delivery/http"
	"groupcalendar/internal/delivery/http/controllers"
	"groupcalendar/internal/delivery/http/middleware"
	"groupcalendar/internal/repository/postgres"
	"groupcalendar/internal/services"
)

const shutdownTimeout = 10 * time.Second

func main() {
	logger := config.NewLogger()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	db, err := sql.Open("postgres", cfg.DBUrl)
	if err != nil {
		logger.Error("failed to open database", "err", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Error("failed to reach database", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Storage
	eventRepo := postgres.NewEventRepository(db)
	profileRepo := postgres.NewProfileRepository(db)
	commentRepo := postgres.NewCommentRepository(db)

	// Change feed over LISTEN/NOTIFY; the event cache and comment streams
	// subscribe to it.
	feed := postgres.NewChangeFeed(cfg.DBUrl, logger)
	go func() {
		if err := feed.Run(ctx); err != nil {
			logger.Error("change feed stopped", "err", err)
		}
	}()

	// Adapters
	mailer, err := email.NewMailer(email.MailerConfig{
		Provider:    cfg.EmailProvider,
		FromAddress: cfg.EmailFromAddress,
		FromName:    cfg.EmailFromName,
		SES: email.SESConfig{
			Region:          cfg.SESRegion,
			AccessKeyID:     cfg.SESAccessKeyID,
			SecretAccessKey: cfg.SESSecretAccessKey,
		},
	})
	if err != nil {
		logger.Error("failed to create mailer", "err", err)
		os.Exit(1)
	}
	geocoder := geocode.NewNominatimGeocoder(
		&http.Client{Timeout: 10 * time.Second},
		cfg.GeocodeBaseURL,
		cfg.GeocodeCountryCodes,
	)
	hasher := adapterauth.NewBcryptHasher(bcrypt.DefaultCost)
	tokens := adapterauth.NewJWTManager(cfg.JWTSecret)

	// Services
	notifier := services.NewNotifier(mailer, email.NewTemplateRenderer())
	store := services.NewEventStore(eventRepo, feed, logger)
	go store.Run(ctx)
	editor := services.NewEditorManager(eventRepo, profileRepo, geocoder, notifier, logger)
	discussion := services.NewDiscussionFeed(commentRepo, feed, logger)
	authSvc := services.NewAuthService(profileRepo, hasher, tokens, cfg.JWTExpiry)

	mux := delivery.NewRouter(
		tokens,
		logger,
		controllers.NewAuthController(logger, authSvc),
		controllers.NewEventController(logger, store),
		controllers.NewEditorController(logger, editor),
		controllers.NewCommentController(logger, discussion),
		controllers.NewProfileController(logger, profileRepo),
	)
	handler := middleware.CORS(cfg.AllowedOrigins, middleware.LoggingMiddleware(logger, mux))

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: handler,
	}

	go func() {
		logger.Info("server listening", "port", cfg.Port, "env", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "err", err)
	}
	logger.Info("server stopped")
}
