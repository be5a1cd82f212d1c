package main

import (
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/nexus/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect the resolved configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		return configShowCmd.RunE(cmd, args)
	},
}

// nexus config show
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print every setting after defaults, files and environment are merged",
	RunE: func(cmd *cobra.Command, args []string) error {
		all := config.All()
		keys := make([]string, 0, len(all))
		for k := range all {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return table(cmd.OutOrStdout(), "KEY\tVALUE", func(tw *tabwriter.Writer) {
			for _, k := range keys {
				fmt.Fprintf(tw, "%s\t%s\n", k, masked(k, all[k]))
			}
		})
	},
}

// nexus config home
var configHomeCmd = &cobra.Command{
	Use:   "home",
	Short: "Print the state directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintln(cmd.OutOrStdout(), config.Home())
		return nil
	},
}

func masked(key, value string) string {
	if value == "" {
		return ""
	}
	for _, s := range []string{"KEY", "SECRET", "PASSWORD"} {
		if strings.Contains(key, s) {
			return "********"
		}
	}
	if key == "STATE_DSN" || key == "MONGO_URI" {
		if i := strings.Index(value, "@"); i > 0 {
			return "********" + value[i:]
		}
	}
	return value
}

func init() {
	configCmd.AddCommand(offline(configShowCmd))
	configCmd.AddCommand(offline(configHomeCmd))
}
