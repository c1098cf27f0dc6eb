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

	"terneo_bridge/internal/handlers"
	"terneo_bridge/internal/logger"
	"terneo_bridge/internal/repository"
	"terneo_bridge/internal/server"
	"terneo_bridge/internal/service"
	"terneo_bridge/internal/terneo"

	"github.com/spf13/viper"
)

const defaultDeviceTimeout = 3 * time.Second

func main() {
	// init logger
	log := logger.Get(logger.InfoLevel)

	// load config.yml
	if err := loadConfig(); err != nil {
		log.Fatalw("error reading config", "err", err)
	}

	// open DB
	db, err := openDB(log)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err)
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			log.Fatalw("failed to close sqlite", "err", cerr)
		}
	}()

	// context for background goroutines
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// wire dependencies
	repos := repository.NewRepository(db)
	hub := service.NewHub(log)
	client := terneo.NewClient(deviceTimeout(), log)
	discoveryCh := startDiscovery(ctx, log)

	sync := service.NewSynchronizer(client, repos, hub, discoveryCh, log, service.SyncOptions{
		PollInterval: viper.GetDuration("sync.poll_interval"),
		ConfirmDelay: viper.GetDuration("sync.confirm_delay"),
		AutoRegister: viper.GetBool("sync.auto_register"),
	})
	go func() {
		if err := sync.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Errorw("synchronizer stopped", "err", err)
		}
	}()

	services := service.NewService(sync, repos, hub)
	apiHandler := handlers.NewHandler(services, log)

	// start HTTP server
	srv := &server.Server{}
	runHTTPServer(srv, viper.GetString("port"), apiHandler, log)

	// graceful shutdown
	waitForShutdown(cancel, srv, log)
}

func loadConfig() error {
	viper.AddConfigPath("configs") // configs/config.yml
	viper.SetConfigName("config")
	return viper.ReadInConfig()
}

// openDB initializes the SQLite database using configuration.
func openDB(log *logger.Logger) (*sql.DB, error) {
	dbPath := viper.GetString("db.path")
	if dbPath == "" {
		log.Infow("db.path not set in config; using default file", "default", "bridge.db")
		dbPath = "bridge.db"
	}
	return repository.InitDB(dbPath)
}

func deviceTimeout() time.Duration {
	if d := viper.GetDuration("device.timeout"); d > 0 {
		return d
	}
	return defaultDeviceTimeout
}

// startDiscovery binds the UDP beacon listener unless disabled in config.
// Returns nil when discovery is off; the synchronizer runs fine without it.
func startDiscovery(ctx context.Context, log *logger.Logger) <-chan terneo.DiscoveryEvent {
	if !viper.GetBool("discovery.enabled") {
		log.Infow("discovery disabled by config")
		return nil
	}
	port := viper.GetInt("discovery.port")
	if port == 0 {
		port = terneo.DefaultDiscoveryPort
	}
	listener, err := terneo.NewListener(port, log)
	if err != nil {
		log.Fatalw("failed to bind discovery port", "port", port, "err", err)
	}
	go func() {
		if err := listener.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Errorw("discovery stopped", "err", err)
		}
	}()
	return listener.Events()
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		if port == "" {
			port = "8080"
		}
		if err := srv.Run(port, handler.InitRoutes()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(cancel context.CancelFunc, srv *server.Server, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	// stop background goroutines
	cancel()

	// allow in-flight requests to complete
	ctx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalw("server forced to shutdown", "err", err)
	}
}
