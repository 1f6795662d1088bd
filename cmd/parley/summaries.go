package main

import (
	"fmt"

	"github.com/aretw0/parley/internal/cli"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/spf13/cobra"
)

var summariesCmd = &cobra.Command{
	Use:   "summaries",
	Short: "Manage stored news digests",
	Long:  `List and remove the digests kept in the configured artifact store.`,
}

var summariesLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List stored digests",
	RunE: func(cmd *cobra.Command, args []string) error {
		storage, err := openStorage(cmd)
		if err != nil {
			return err
		}
		defer storage.Close()

		keys, err := storage.Store.List(cmd.Context())
		if err != nil {
			return fmt.Errorf("error listing summaries: %w", err)
		}
		out := cmd.OutOrStdout()
		if len(keys) == 0 {
			fmt.Fprintln(out, "No summaries stored.")
			return nil
		}
		for _, k := range keys {
			a, err := storage.Store.Load(cmd.Context(), k)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "- %s\t%s\t%s\n", k, a.Ref.UpdatedAt.Format("2006-01-02 15:04"), a.Ref.Location)
		}
		return nil
	},
}

var summariesRmCmd = &cobra.Command{
	Use:   "rm [daily|weekly|monthly]...",
	Short: "Remove stored digests",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		storage, err := openStorage(cmd)
		if err != nil {
			return err
		}
		defer storage.Close()

		for _, arg := range args {
			freq, err := domain.ParseFrequency(arg)
			if err != nil {
				return err
			}
			if err := storage.Store.Delete(cmd.Context(), freq.Key()); err != nil {
				return fmt.Errorf("error removing %s: %w", freq, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s summary.\n", freq)
		}
		return nil
	},
}

func openStorage(cmd *cobra.Command) (*cli.Storage, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return cli.OpenStorage(cfg.Store)
}

func init() {
	rootCmd.AddCommand(summariesCmd)
	summariesCmd.AddCommand(summariesLsCmd)
	summariesCmd.AddCommand(summariesRmCmd)
}
