package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"tradejournal/internal/config"
	"tradejournal/internal/db"
	"tradejournal/internal/logger"
	gormrepository "tradejournal/internal/repository/gorm"
	"tradejournal/internal/service"
	"tradejournal/internal/stats"
)

var (
	cfgPath string
	envOnly bool
)

var rootCmd = &cobra.Command{
	Use:   "journalctl",
	Short: "Operator tooling for the trade journal",
	Long: `journalctl runs maintenance tasks against the trade journal database.

Examples:
  journalctl rebuild user <user-id>
  journalctl rebuild all
  journalctl stats show <user-id>
  journalctl changes list <user-id> --since 2024-01-15
  journalctl changes relay`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", envOr("TJ_CONFIG", "config/config.yaml"), "path to config file")
	rootCmd.PersistentFlags().BoolVar(&envOnly, "env-only", os.Getenv("TJ_ENV_ONLY") == "true", "read configuration from TJ_* environment only")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// app is what every subcommand needs: config, logger and an open store.
type app struct {
	cfg      config.Config
	logger   *zap.Logger
	conn     *db.DB
	store    *gormrepository.Store
	settings *service.SystemSettingsService
}

func openApp() (*app, error) {
	cfg, err := config.Load(cfgPath, envOnly)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	log, err := logger.New(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	decimal.MarshalJSONWithoutQuotes = true

	conn, err := db.Open(cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.AutoMigrate(conn); err != nil {
		_ = db.Close(conn)
		return nil, fmt.Errorf("migrate: %w", err)
	}
	store := gormrepository.New(conn.Gorm)
	return &app{
		cfg:      cfg,
		logger:   log,
		conn:     conn,
		store:    store,
		settings: &service.SystemSettingsService{Repo: store},
	}, nil
}

func (a *app) Close() {
	_ = a.logger.Sync()
	_ = db.Close(a.conn)
}

func (a *app) processor() *stats.ChangeProcessor {
	return &stats.ChangeProcessor{
		Trades:   a.store,
		Stats:    a.store,
		Flags:    a.settings,
		Logger:   a.logger.Named("stats"),
		PageSize: a.cfg.Stats.PageSize,
	}
}

func (a *app) rebuilder() *stats.PeriodicRebuilder {
	return &stats.PeriodicRebuilder{
		Trades:   a.store,
		Stats:    a.store,
		Logger:   a.logger.Named("rebuild"),
		PageSize: a.cfg.Stats.ScanPageSize,
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
