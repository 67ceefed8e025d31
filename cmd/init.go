package cmd

import (
	"github.com/spf13/cobra"

	"github.com/pixelfit/pixelfit/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize pixelfit configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to pick the backend and download folder and writes a .pixelfit.yml file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard(cfgFile)
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
