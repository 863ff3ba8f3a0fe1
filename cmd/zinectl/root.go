package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/warp/zine-ledger/config"
	"github.com/warp/zine-ledger/factory"
	"github.com/warp/zine-ledger/ledger"
	"github.com/warp/zine-ledger/logger"
	"github.com/warp/zine-ledger/store/sqlite"
)

// session is the state shared by every subcommand for one invocation.
type session struct {
	cfg      *config.Config
	store    *sqlite.Store
	ledger   *ledger.Ledger
	fixtures *factory.FixtureFactory
}

var (
	flagConfig string
	flagEnv    string
	flagDB     string
	flagUser   string
	flagJSON   bool

	current *session
)

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file path")
	rootCmd.PersistentFlags().StringVar(&flagEnv, "env", "", ".env file path")
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "SQLite database path (overrides config)")
	rootCmd.PersistentFlags().StringVarP(&flagUser, "user", "u", os.Getenv("ZINE_LEDGER_USER"), "Acting user id")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "Print JSON instead of tables")
}

var rootCmd = &cobra.Command{
	Use:          "zinectl",
	Short:        "Inspect and load zine ledger data",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession()
		if err != nil {
			return err
		}
		current = s
		return nil
	},
}

// run executes the root command and releases the session afterwards.
// cobra skips post-run hooks when RunE fails, so the close lives here.
func run() error {
	err := rootCmd.Execute()
	if cerr := closeSession(); err == nil {
		err = cerr
	}
	return err
}

func closeSession() error {
	if current == nil {
		return nil
	}
	err := current.store.Close()
	current = nil
	logger.Flush(0)
	return err
}

func openSession() (*session, error) {
	cfg, err := config.Load(flagConfig, flagEnv)
	if err != nil {
		return nil, err
	}
	if flagDB != "" {
		cfg.Database.Path = flagDB
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	// Logs only in debug mode; stdout carries command output.
	if cfg.Debug {
		if err := logger.Initialize(logger.Config{Debug: true, SentryDSN: cfg.SentryDSN}); err != nil {
			return nil, err
		}
	}

	store, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		return nil, err
	}
	l := ledger.New(store, store, store)
	l.Transitions = ledger.TransitionPolicyFor(cfg.Ledger.StrictTransitions)
	l.Thresholds = ledger.StockThresholds{LowStockMax: cfg.Ledger.LowStockMax}

	return &session{cfg: cfg, store: store, ledger: l, fixtures: factory.NewFixtureFactory()}, nil
}

func requireUser() (ledger.UserID, error) {
	if flagUser == "" {
		return "", fmt.Errorf("no user: pass --user or set ZINE_LEDGER_USER")
	}
	return ledger.UserID(flagUser), nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
