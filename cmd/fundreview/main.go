package main

import (
	"fmt"
	"os"

	"FundReview/internal/checklist"
	"FundReview/internal/config"
	"FundReview/internal/logging"
	"FundReview/internal/recorder"
	"FundReview/internal/store"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:   "fundreview",
	Short: "Track fund reviews through the six-step review checklist",
	Long: `fundreview keeps a checklist of funds under review in a local SQLite database.

Each fund moves through Info Request, Analyst, My Review, Partner, Email and
Rejected. Activating a step stamps today's date. Only rejected funds can be deleted.

Examples:
  fundreview add --date 2024-03-01 Alpha Fund IV
  fundreview step 1 info
  fundreview move 1 up
  fundreview serve`,
	SilenceUsage: true,
}

func init() {
	def := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		def = v
	}
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", def, "path to config file")
}

// app is the per-invocation session: one store handle, released by close.
type app struct {
	cfg   *config.Config
	log   *zap.Logger
	store *store.Store
	rec   recorder.Recorder
	ctrl  *checklist.Controller
}

func openApp() (*app, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return nil, err
	}

	st, err := store.Open(cfg.Database.SQLitePath, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, fmt.Errorf("open store: %w", err)
	}

	var rec recorder.Recorder = recorder.NewNoopRecorder()
	if cfg.HistoryEnabled() {
		sr, err := recorder.NewSQLiteRecorder(st.DB(), logger)
		if err != nil {
			logger.Warn("init history recorder failed, using noop", zap.Error(err))
		} else {
			rec = sr
		}
	}

	policy, _ := cfg.Policy()
	return &app{
		cfg:   cfg,
		log:   logger,
		store: st,
		rec:   rec,
		ctrl:  checklist.NewController(st, rec, policy, logger),
	}, nil
}

func (a *app) close() {
	if err := a.rec.Close(); err != nil {
		a.log.Warn("close recorder", zap.Error(err))
	}
	if err := a.store.Close(); err != nil {
		a.log.Warn("close store", zap.Error(err))
	}
	_ = a.log.Sync()
}

// withApp opens the session for a command and closes it afterwards.
func withApp(run func(a *app, cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.close()
		return run(a, cmd, args)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
