package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/guiyumin/transmote/internal/updater"
)

var updateCheckOnly bool

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update transmote to the latest release",
	RunE: func(cmd *cobra.Command, args []string) error {
		if updateCheckOnly {
			latest, available, err := updater.CheckUpdate()
			if err != nil {
				return err
			}
			if !available {
				fmt.Println("Already up to date")
				return nil
			}
			color.New(color.FgGreen).Printf("New version available: %s\n", latest.Version())
			fmt.Println("Run 'transmote update' to install it")
			return nil
		}
		return updater.Update()
	},
}

func init() {
	updateCmd.Flags().BoolVar(&updateCheckOnly, "check", false, "check for a new version without installing")
	rootCmd.AddCommand(updateCmd)
}
