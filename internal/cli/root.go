package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/dshills/respcache/internal/cache"
	"github.com/dshills/respcache/internal/config"
	"github.com/dshills/respcache/internal/logging"
)

const version = "0.1.0"

// Exit codes
const (
	ExitSuccess      = 0
	ExitMiss         = 1
	ExitUsageError   = 2
	ExitRuntimeError = 4
)

var rootCmd = &cobra.Command{
	Use:          "respcache",
	Short:        "Persistent content-addressed response cache",
	Long:         "respcache stores JSON responses on disk keyed by a digest of their inputs and expires them after a fixed time-to-live.",
	SilenceUsage: true,
}

// Run executes the root command and returns an exit code.
func Run() int {
	return execute(os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
}

func execute(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	exitCode = ExitSuccess
	rootCmd.SetArgs(args)
	rootCmd.SetIn(stdin)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	if err := rootCmd.Execute(); err != nil {
		// Cobra already prints the error
		if exitCode == ExitSuccess {
			return ExitUsageError
		}
		return exitCode
	}

	return exitCode
}

// exitCode is set by command handlers to control the process exit code.
var exitCode = ExitSuccess

// runtimeErr marks err as a failure of the operation itself rather than of
// its invocation.
func runtimeErr(err error) error {
	exitCode = ExitRuntimeError
	return err
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print respcache version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "respcache version %s\n", version)
	},
}

func init() {
	config.RegisterFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(keyCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig resolves the effective config for cmd, including its flags.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load("", cmd.Flags())
	if err != nil {
		return config.Config{}, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

func newLogger(cmd *cobra.Command, cfg config.Config) (zerolog.Logger, error) {
	lc := logging.DefaultConfig()
	lc.Level = cfg.Log.Level
	lc.Format = cfg.Log.Format
	lc.Output = cmd.ErrOrStderr()
	return logging.New(lc)
}

// openCache loads config and opens the cache it describes.
func openCache(cmd *cobra.Command) (*cache.Cache, config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, config.Config{}, err
	}
	logger, err := newLogger(cmd, cfg)
	if err != nil {
		return nil, config.Config{}, err
	}

	opts := []cache.Option{
		cache.WithTTL(cfg.Cache.TTL),
		cache.WithSweepWorkers(cfg.Cache.SweepWorkers),
		cache.WithTempGrace(cfg.Cache.TempGrace),
		cache.WithLogger(logger),
	}
	if !cfg.Cache.Enabled {
		opts = append(opts, cache.Disabled())
	}
	c, err := cache.New(cfg.Cache.Dir, opts...)
	if err != nil {
		return nil, config.Config{}, fmt.Errorf("opening cache: %w", err)
	}
	return c, cfg, nil
}
