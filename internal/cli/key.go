package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/respcache/internal/cache"
)

var flagRequest bool

var keyCmd = &cobra.Command{
	Use:   "key <part>...",
	Short: "Print the cache key for a sequence of parts",
	Long: `Print the cache key derived from an ordered sequence of parts.

With --request the first part names the operation and the second is request
text, truncated to keys.max_text_chars before hashing. Remaining parts are
passed through unchanged.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !flagRequest {
			fmt.Fprintln(cmd.OutOrStdout(), cache.DeriveKey(args...))
			return nil
		}
		if len(args) < 2 {
			return fmt.Errorf("--request needs an operation and request text, got %d parts", len(args))
		}
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), cache.RequestKey(args[0], args[1], cfg.Keys.MaxTextChars, args[2:]...))
		return nil
	},
}

func init() {
	keyCmd.Flags().BoolVar(&flagRequest, "request", false, "Treat parts as <operation> <text> [params...]")
}
