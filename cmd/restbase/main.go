package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/restbase/restbase/internal/config"
	"github.com/restbase/restbase/internal/database"
	"github.com/restbase/restbase/internal/logging"
	"github.com/restbase/restbase/internal/web"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// CLI flags
var (
	port         int
	bind         string
	allowSubnet  string
	dbPath       string
	queryTimeout time.Duration
	environment  string
	verbosity    int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "restbase",
		Short: "Restbase - generic REST interface over a SQLite database",
		Long:  `Restbase exposes CRUD and pagination over arbitrary tables of a SQLite database, plus dynamic table/column creation, with no schema-specific code.`,
		RunE:  run,
	}

	// Flags override environment configuration
	rootCmd.Flags().IntVarP(&port, "port", "p", 0, "HTTP server port (required, or set PORT env var)")
	rootCmd.Flags().StringVarP(&bind, "bind", "b", "", "IP address to bind to (e.g., 127.0.0.1, 0.0.0.0)")
	rootCmd.Flags().StringVarP(&allowSubnet, "allow-subnet", "a", "", "CIDR subnet allowed to connect (e.g., 192.168.1.0/24)")
	rootCmd.Flags().StringVarP(&dbPath, "db", "d", "", "SQLite database path (or set DB_PATH env var)")
	rootCmd.Flags().DurationVar(&queryTimeout, "query-timeout", 0, "Per-statement execution timeout (default 180s)")
	rootCmd.Flags().StringVarP(&environment, "env", "e", "", "Environment mode: production or development")
	rootCmd.Flags().CountVarP(&verbosity, "verbose", "v", "Increase verbosity (-v debug, -vv trace)")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("restbase %s (commit: %s, built: %s)\n", version, commit, date)
		},
	})

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	settings := config.Load()

	// Flag overrides
	if cmd.Flags().Changed("port") {
		settings.Port = port
	}
	if cmd.Flags().Changed("bind") {
		settings.Bind = bind
	}
	if cmd.Flags().Changed("allow-subnet") {
		settings.AllowSubnet = allowSubnet
	}
	if cmd.Flags().Changed("db") {
		settings.DBPath = dbPath
	}
	if cmd.Flags().Changed("query-timeout") {
		settings.QueryTimeout = queryTimeout
	}
	if cmd.Flags().Changed("env") {
		settings.Environment = environment
	}

	if settings.Port == 0 {
		return fmt.Errorf("--port flag or PORT environment variable is required")
	}
	if settings.Bind != "" {
		if ip := net.ParseIP(settings.Bind); ip == nil {
			return fmt.Errorf("invalid bind address: %s", settings.Bind)
		}
	}

	var allowedNet *net.IPNet
	if settings.AllowSubnet != "" {
		_, parsedNet, err := net.ParseCIDR(settings.AllowSubnet)
		if err != nil {
			return fmt.Errorf("invalid allow-subnet CIDR: %s", settings.AllowSubnet)
		}
		allowedNet = parsedNet
	}

	logging.Apply(verbosity, settings)

	// Warn if binding to all interfaces without an allow list
	if (settings.Bind == "" || settings.Bind == "0.0.0.0" || settings.Bind == "::") && settings.AllowSubnet == "" {
		log.Warn().Msg("Server is accessible from all interfaces without subnet restrictions. Consider using --bind or --allow-subnet for security.")
	}

	log.Info().
		Str("version", version).
		Int("port", settings.Port).
		Str("bind", settings.Bind).
		Str("database", settings.DBPath).
		Dur("query_timeout", settings.QueryTimeout).
		Str("environment", settings.Environment).
		Msg("Starting Restbase")

	// The connection opens lazily on the first request that needs it;
	// closeDB runs exactly once across signal and normal exit paths.
	manager := database.NewManager(settings.DBPath)
	var closeOnce sync.Once
	closeDB := func() {
		closeOnce.Do(func() {
			if err := manager.Close(); err != nil {
				log.Error().Err(err).Msg("Failed to close database")
			}
		})
	}
	defer closeDB()

	store := database.NewStore(manager, settings.QueryTimeout)

	// Periodic maintenance
	var scheduler *cron.Cron
	if settings.MaintenanceSchedule != "" {
		scheduler = cron.New()
		_, err := scheduler.AddFunc(settings.MaintenanceSchedule, func() {
			if err := store.Optimize(); err != nil {
				log.Warn().Err(err).Msg("Database optimize failed")
			}
			if err := store.CheckpointWAL(); err != nil {
				log.Warn().Err(err).Msg("WAL checkpoint failed")
			}
			log.Debug().Msg("Database maintenance completed")
		})
		if err != nil {
			return fmt.Errorf("invalid maintenance schedule %q: %w", settings.MaintenanceSchedule, err)
		}
		scheduler.Start()
		defer scheduler.Stop()
	}

	server := web.NewServer(store, settings, allowedNet)

	// Graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	if err := server.Start(ctx); err != nil {
		closeDB()
		log.Fatal().Err(err).Msg("Server error")
	}

	log.Info().Msg("Restbase stopped")
	return nil
}
