package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/dshills/respcache/internal/output"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and maintain the response cache",
}

var cacheShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show cache statistics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, cfg, err := openCache(cmd)
		if err != nil {
			return err
		}
		w, err := output.GetWriter(cfg.Output.Format)
		if err != nil {
			return err
		}
		if !c.Enabled() {
			fmt.Fprintln(cmd.OutOrStdout(), "Cache is disabled.")
			return nil
		}
		stats, err := c.Stats()
		if err != nil {
			return runtimeErr(fmt.Errorf("reading cache stats: %w", err))
		}
		return w.WriteStats(cmd.OutOrStdout(), stats)
	},
}

var cacheSweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Remove expired and corrupt entries",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, cfg, err := openCache(cmd)
		if err != nil {
			return err
		}
		w, err := output.GetWriter(cfg.Output.Format)
		if err != nil {
			return err
		}
		n, err := c.Sweep()
		if err != nil {
			return runtimeErr(fmt.Errorf("sweeping cache: %w", err))
		}
		return w.WriteRemoval(cmd.OutOrStdout(), output.Removal{Op: "sweep", Dir: c.Dir(), Removed: n})
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every cached entry",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, cfg, err := openCache(cmd)
		if err != nil {
			return err
		}
		w, err := output.GetWriter(cfg.Output.Format)
		if err != nil {
			return err
		}
		n, err := c.Clear()
		if err != nil {
			return runtimeErr(fmt.Errorf("clearing cache: %w", err))
		}
		return w.WriteRemoval(cmd.OutOrStdout(), output.Removal{Op: "clear", Dir: c.Dir(), Removed: n})
	},
}

var cacheGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print the payload cached under key",
	Long:  "Print the payload cached under key. Exits with status 1 when the entry is absent, expired or corrupt.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, _, err := openCache(cmd)
		if err != nil {
			return err
		}
		data, ok := c.Get(args[0])
		if !ok {
			exitCode = ExitMiss
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

var cachePutCmd = &cobra.Command{
	Use:   "put <key> [file]",
	Short: "Store a JSON payload under key",
	Long:  "Store a JSON payload under key. The payload is read from file, or from stdin when file is omitted or \"-\".",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, _, err := openCache(cmd)
		if err != nil {
			return err
		}
		payload, err := readPayload(cmd.InOrStdin(), args[1:])
		if err != nil {
			return runtimeErr(err)
		}
		if err := c.Put(args[0], payload); err != nil {
			return runtimeErr(fmt.Errorf("storing cache entry: %w", err))
		}
		return nil
	},
}

var cacheRmCmd = &cobra.Command{
	Use:   "rm <key>",
	Short: "Delete the entry cached under key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, _, err := openCache(cmd)
		if err != nil {
			return err
		}
		if err := c.Delete(args[0]); err != nil {
			return runtimeErr(err)
		}
		return nil
	},
}

func readPayload(stdin io.Reader, args []string) (json.RawMessage, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("reading payload from stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return nil, fmt.Errorf("reading payload: %w", err)
	}
	return data, nil
}

func init() {
	cacheCmd.AddCommand(cacheShowCmd)
	cacheCmd.AddCommand(cacheSweepCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheGetCmd)
	cacheCmd.AddCommand(cachePutCmd)
	cacheCmd.AddCommand(cacheRmCmd)
}
