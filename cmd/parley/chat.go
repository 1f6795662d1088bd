package main

import (
	"github.com/aretw0/parley/internal/cli"
	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat in the terminal",
	Long: `Starts an interactive chat. Each line is one turn of the selected use case.
Type /help inside the chat for commands. Ctrl+C cancels the running turn.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		opts := cli.ChatOptions{In: cmd.InOrStdin(), Out: cmd.OutOrStdout()}
		opts.UseCase, _ = cmd.Flags().GetString("use-case")
		opts.Provider, _ = cmd.Flags().GetString("provider")
		opts.Model, _ = cmd.Flags().GetString("model")
		opts.History, _ = cmd.Flags().GetBool("history")
		opts.JSON, _ = cmd.Flags().GetBool("json")
		opts.Plain, _ = cmd.Flags().GetBool("plain")
		opts.Confirm, _ = cmd.Flags().GetBool("confirm-tools")
		return cli.RunChat(cmd.Context(), cfg, opts)
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)

	chatCmd.Flags().StringP("use-case", "u", "basic", "Use case id or display name")
	chatCmd.Flags().StringP("provider", "p", "", "Provider name (default: first configured)")
	chatCmd.Flags().StringP("model", "m", "", "Model name (default: provider's first model)")
	chatCmd.Flags().Bool("history", false, "Carry the conversation across turns")
	chatCmd.Flags().Bool("json", false, "Read and write JSON Lines")
	chatCmd.Flags().Bool("plain", false, "Disable markdown rendering and colors")
	chatCmd.Flags().Bool("confirm-tools", false, "Ask before every tool call")

	rootCmd.RunE = chatCmd.RunE
	rootCmd.Flags().AddFlagSet(chatCmd.Flags())
}
