package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/29xh24fm6r-ctrl/PulseMasterrepo-sub005/internal/database"
	"github.com/29xh24fm6r-ctrl/PulseMasterrepo-sub005/internal/models"
	"github.com/spf13/cobra"
	"github.com/ulule/limiter/v3"
)

// NewRatelimitCmd creates the ratelimit configuration command with list and set subcommands.
func NewRatelimitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ratelimit",
		Short: "Manage rate limit configuration",
		Long:  "List or update rate limits (e.g. 5-S, 100-M). Stored in database and picked up by the server within a minute.",
	}
	cmd.AddCommand(newRatelimitListCmd())
	cmd.AddCommand(newRatelimitSetCmd())
	return cmd
}

func newRatelimitListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored rate limits",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, closeDB, err := openDB()
			if err != nil {
				return err
			}
			defer closeDB()

			configs, err := database.NewRatelimitConfigRepository(db).List(context.Background())
			if err != nil {
				return fmt.Errorf("list ratelimit config: %w", err)
			}
			if len(configs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No rate limit configuration in database. Use 'ratelimit set' to add one.")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Rate limit configuration:")
			for _, c := range configs {
				fmt.Fprintf(cmd.OutOrStdout(), "  %-16s %s\n", c.ConfigKey, c.Rate)
			}
			return nil
		},
	}
}

// parseRate normalizes and validates a limiter rate string.
func parseRate(raw string) (string, error) {
	rate := strings.TrimSpace(raw)
	if rate == "" {
		return "", fmt.Errorf("--rate is required (e.g. 5-S, 100-M)")
	}
	if _, err := limiter.NewRateFromFormatted(rate); err != nil {
		return "", fmt.Errorf("invalid rate %q: %w", rate, err)
	}
	return rate, nil
}

func newRatelimitSetCmd() *cobra.Command {
	var rate, key string
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Set a rate limit",
		Long:  "Update a rate limit (e.g. 5-S, 100-M, 1000-H). Without --key the default applies to every route.",
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := parseRate(rate)
			if err != nil {
				return err
			}
			db, closeDB, err := openDB()
			if err != nil {
				return err
			}
			defer closeDB()

			c := &models.RatelimitConfig{ConfigKey: strings.TrimSpace(key), Rate: parsed}
			if err := database.NewRatelimitConfigRepository(db).Set(context.Background(), c); err != nil {
				return fmt.Errorf("set ratelimit config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Rate limit %q set to %s.\n", c.ConfigKey, parsed)
			return nil
		},
	}
	cmd.Flags().StringVar(&rate, "rate", "", "Rate (e.g. 5-S, 100-M, 1000-H) (required)")
	cmd.Flags().StringVar(&key, "key", database.DefaultRatelimitConfigKey, "Config key, e.g. quests_today")
	return cmd
}
