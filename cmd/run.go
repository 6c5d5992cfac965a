package cmd

import (
	"errors"

	"github.com/spf13/cobra"
)

var evalSource string

var runCmd = &cobra.Command{
	Use:   "run [-e CODE | SCRIPT]",
	Short: "Run a Lua script.",
	Long: `Run a Lua script with the "lush" table available, the same as typing
"source SCRIPT" in the shell. With -e the code is given on the command line.`,
	Args: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("eval") {
			if len(args) != 0 {
				return errors.New("a script can't be given with -e")
			}
			return nil
		}
		return cobra.ExactArgs(1)(cmd, args)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		s, closeShell, err := newShell(cmd)
		if err != nil {
			return err
		}
		defer closeShell()

		if cmd.Flags().Changed("eval") {
			exitStatus = s.EvalScript(evalSource)
			return nil
		}

		exitStatus = s.RunScript(args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVarP(&evalSource, "eval", "e", "", "Lua code to run instead of a script")
}
