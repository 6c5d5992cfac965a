package cmd

import (
	"fmt"

	"github.com/josephlewis42/lush/commands"
	"github.com/spf13/cobra"
)

var builtinsCmd = &cobra.Command{
	Use:   "builtins",
	Short: "Show the commands built into the shell.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, builtin := range commands.AllBuiltins {
			fmt.Fprintf(cmd.OutOrStdout(), "%-8s %s\n", builtin.Name, builtin.Short)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(builtinsCmd)
}
