package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Long:  `Prints the configuration after defaults and environment overrides. Credential values are never printed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		out, err := cfg.YAML()
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		fmt.Fprint(w, string(out))

		names := make([]string, 0, len(cfg.Credentials))
		for k := range cfg.Credentials {
			names = append(names, k)
		}
		sort.Strings(names)
		fmt.Fprintf(w, "# credentials found: %v\n", names)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}
