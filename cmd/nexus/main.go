package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/nexus/config"
	"github.com/shashiranjanraj/nexus/pkg/app"
	"github.com/shashiranjanraj/nexus/pkg/logger"
	"github.com/shashiranjanraj/nexus/pkg/metrics"
)

// nx is the application context of this invocation, built before any
// command that needs it runs.
var nx *app.App

var flags struct {
	apiURL   string
	logLevel string
	metrics  bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if nx != nil {
		if cerr := nx.Close(); cerr != nil {
			logger.Warn("nexus: close", "error", cerr)
		}
	}
	if flags.metrics {
		_ = metrics.WriteText(os.Stderr)
	}
	if err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "nexus",
	Short:         "Terminal storefront for the nexus shop",
	Long:          "Browse the catalog, manage your cart, place and track orders, and run the shop back office from the terminal.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Load(); err != nil {
			return err
		}
		level := config.LogLevel()
		if flags.logLevel != "" {
			level = flags.logLevel
		}
		logger.Configure(os.Stderr, level, config.IsProduction())

		if cmd.Annotations["offline"] == "true" {
			return nil
		}
		return boot(cmd.Context())
	},
}

func boot(ctx context.Context) error {
	var opts []app.Option
	if flags.apiURL != "" {
		opts = append(opts, app.WithBaseURL(flags.apiURL))
	}
	a, err := app.New(ctx, opts...)
	if err != nil {
		return err
	}
	nx = a
	nx.Boot(ctx)
	return nil
}

// offline marks commands that run without the application context.
func offline(cmd *cobra.Command) *cobra.Command {
	if cmd.Annotations == nil {
		cmd.Annotations = map[string]string{}
	}
	cmd.Annotations["offline"] = "true"
	return cmd
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.apiURL, "api", "", "backend base URL (overrides API_BASE_URL)")
	pf.StringVar(&flags.logLevel, "log-level", "", "debug, info, warn or error (overrides LOG_LEVEL)")
	pf.BoolVar(&flags.metrics, "metrics", false, "print client metrics to stderr on exit")

	// Account
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(profileCmd)

	// Catalog
	rootCmd.AddCommand(homeCmd)
	rootCmd.AddCommand(productsCmd)
	rootCmd.AddCommand(categoriesCmd)

	// Cart & orders
	rootCmd.AddCommand(cartCmd)
	rootCmd.AddCommand(checkoutCmd)
	rootCmd.AddCommand(ordersCmd)
	rootCmd.AddCommand(trackCmd)

	// Customer pages
	rootCmd.AddCommand(addressesCmd)
	rootCmd.AddCommand(savedCmd)
	rootCmd.AddCommand(reviewsCmd)

	// Back office
	rootCmd.AddCommand(adminCmd)

	rootCmd.AddCommand(offline(configCmd))
}
