package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"github.com/sirupsen/logrus"

	"studentintake/internal/config"
	"studentintake/internal/database"
	"studentintake/internal/flash"
	"studentintake/internal/handler"
	"studentintake/internal/render"
	"studentintake/internal/service"
)

var log *logrus.Logger

func init() {
	log = logrus.New()
	log.Formatter = &logrus.JSONFormatter{
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "timestamp",
			logrus.FieldKeyLevel: "severity",
			logrus.FieldKeyMsg:   "message",
		},
		TimestampFormat: time.RFC3339Nano,
	}
	log.Out = os.Stdout
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	log.SetLevel(cfg.LogLevel)
	if cfg.FlashKeyGenerated {
		log.Warn("FLASH_KEY not set, using a random key for this process")
	}

	// Initialize database
	db, err := database.InitDB(cfg, log)
	if err != nil {
		log.Fatalf("%+v", err)
	}
	log.WithField("driver", cfg.DBDriver).Info("database ready")

	renderer, err := render.New()
	if err != nil {
		log.Fatalf("%+v", err)
	}

	// Initialize services
	authService := service.NewAuthService(db, cfg.BcryptCost)
	sessionService := service.NewSessionService(db, cfg.SessionTTL)
	studentService := service.NewStudentService(db)

	// Setup router
	r := handler.NewRouter(handler.Dependencies{
		Auth:          authService,
		Sessions:      sessionService,
		Students:      studentService,
		Renderer:      renderer,
		Flashes:       flash.NewJar(cfg.FlashKey),
		SessionCookie: cfg.SessionCookie,
		Log:           log,
	})

	var h http.Handler = r
	h = handlers.CORS(handlers.AllowedOrigins(cfg.AllowedOrigins))(h)
	h = handlers.RecoveryHandler(handlers.RecoveryLogger(log), handlers.PrintRecoveryStack(true))(h)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Infof("Server running on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server failed: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Errorf("graceful shutdown failed: %v", err)
	}
	log.Info("server stopped")
}
