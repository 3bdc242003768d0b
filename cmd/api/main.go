package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"docvault/internal/config"
	"docvault/internal/database"
	"docvault/internal/logger"
)

var rootCmd = &cobra.Command{
	Use:           "docvault",
	Short:         "Multi-user document storage API.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
}

// @title DocVault API
// @version 1.0
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// runtime is what every command needs before doing its own work.
type runtime struct {
	cfg *config.AppConfig
	log *zap.Logger
	db  *sql.DB
}

func bootstrap(ctx context.Context) (*runtime, error) {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()

	log, err := logger.New(cfg.Env)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		_ = log.Sync()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return &runtime{cfg: cfg, log: log, db: db}, nil
}

func (r *runtime) close() {
	_ = r.db.Close()
	_ = r.log.Sync()
}
