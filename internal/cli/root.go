package cli

import (
	"github.com/guiyumin/transmote/internal/version"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:     "transmote",
	Short:   "Telegram remote control for Transmission daemons",
	Version: version.Version,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

func Execute() error {
	return rootCmd.Execute()
}
