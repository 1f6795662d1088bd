package main

import (
	"github.com/aretw0/parley/internal/cli"
	"github.com/spf13/cobra"
)

var newsCmd = &cobra.Command{
	Use:   "news [daily|weekly|monthly]",
	Short: "Generate the AI news digest",
	Long: `Searches recent AI news for the window, asks the chat model for a markdown
digest and stores it. Requires TAVILY_API_KEY and a provider key.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		opts := cli.NewsOptions{Frequency: "daily"}
		if len(args) > 0 {
			opts.Frequency = args[0]
		}
		opts.Provider, _ = cmd.Flags().GetString("provider")
		opts.Model, _ = cmd.Flags().GetString("model")
		opts.Show, _ = cmd.Flags().GetBool("show")
		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()
		return cli.RunNews(ctx, cfg, opts, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(newsCmd)
	newsCmd.Flags().StringP("provider", "p", "", "Provider name (default: first configured)")
	newsCmd.Flags().StringP("model", "m", "", "Model name")
	newsCmd.Flags().Bool("show", false, "Print the stored digest without generating a new one")
}
