// main.go - Entry point for the environmental sensor backend

package main // Declares the package name

import ( // Import required packages
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"envsense-backend/auditlog" // Ingest request log
	"envsense-backend/config"   // Project config management
	"envsense-backend/database" // Database connection and setup
	"envsense-backend/handlers" // HTTP handlers for API endpoints
	"envsense-backend/logging"  // zerolog setup
	"envsense-backend/mqtt"     // Location update events
	"envsense-backend/store"    // Record store

	"github.com/gin-gonic/gin" // Gin web framework
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"
)

func main() { // Main function, program entry point
	// STEP 1: Load configuration and establish connections
	cfg := config.Load()
	logging.Init(cfg.LogLevel, cfg.LogFormat)
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Connect(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("DB connection error")
	}
	st := store.New(db)
	if err := database.EnsureAdmin(context.Background(), st.Users(), cfg); err != nil {
		log.Fatal().Err(err).Msg("admin bootstrap failed")
	}

	var events handlers.EventPublisher
	if cfg.MQTTBroker != "" {
		client, err := mqtt.Connect(cfg.MQTTBroker, cfg.MQTTTopicPrefix)
		if err != nil {
			log.Fatal().Err(err).Str("broker", cfg.MQTTBroker).Msg("MQTT connection error")
		}
		defer client.Close()
		events = client
	}

	audit := auditlog.New(cfg.AuditLogPath, 1024)
	defer audit.Close()

	// STEP 2: Build router, wrap with CORS
	router := handlers.NewRouter(handlers.New(cfg, st, audit, events))
	srv := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: cors.Handler(cors.Options{
			AllowedOrigins: cfg.CORSOrigins,
			AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Authorization", "Content-Type"},
			MaxAge:         300,
		})(router),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// STEP 3: Serve until interrupted, then drain
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info().Str("addr", srv.Addr).Str("mode", cfg.Mode).Msg("server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
