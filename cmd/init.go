package cmd

import (
	"log"

	"github.com/josephlewis42/lush/core/config"
	"github.com/spf13/cobra"
)

// initCmd intializes the shell configuration
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration and example script.",
	Args:  cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		dir, err := configDir()
		if err != nil {
			return err
		}

		return config.Initialize(dir, log.New(cmd.ErrOrStderr(), "", 0))
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
