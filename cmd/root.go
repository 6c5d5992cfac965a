package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"path/filepath"

	"github.com/josephlewis42/lush/commands"
	"github.com/josephlewis42/lush/core/config"
	"github.com/josephlewis42/lush/core/logger"
	"github.com/josephlewis42/lush/core/session"
	"github.com/josephlewis42/lush/core/vos"
	"github.com/spf13/cobra"
)

// DefaultConfigDirName is the directory under the user's home that holds the
// configuration when --config isn't given.
const DefaultConfigDirName = ".lush"

var (
	cfgPath     string
	commandLine string
	debug       bool

	// exitStatus is reported to the OS after the command finishes.
	exitStatus int
)

func configDir() (string, error) {
	if cfgPath != "" {
		return cfgPath, nil
	}

	identity, err := vos.CurrentIdentity()
	if err != nil {
		return "", err
	}
	return filepath.Join(identity.HomeDir, DefaultConfigDirName), nil
}

func loadConfig() (*config.Configuration, error) {
	dir, err := configDir()
	if err != nil {
		return nil, err
	}

	configuration, err := config.Load(dir)
	if errors.Is(err, fs.ErrNotExist) {
		log.Println("Couldn't load config: did you run init?")
	}

	return configuration, err
}

// loadOrInitConfig loads the configuration, writing the defaults first if
// this is the first time the shell has run.
func loadOrInitConfig(cmd *cobra.Command) (*config.Configuration, error) {
	dir, err := configDir()
	if err != nil {
		return nil, err
	}

	configuration, err := config.Load(dir)
	if errors.Is(err, fs.ErrNotExist) {
		if err := config.Initialize(dir, log.New(cmd.ErrOrStderr(), "", 0)); err != nil {
			return nil, err
		}
		configuration, err = config.Load(dir)
	}
	return configuration, err
}

// newShell builds a shell wired to the command's streams and the user's
// configuration. The returned function releases it.
func newShell(cmd *cobra.Command) (*commands.Shell, func(), error) {
	cfg, err := loadOrInitConfig(cmd)
	if err != nil {
		return nil, nil, err
	}

	identity, err := vos.CurrentIdentity()
	if err != nil {
		return nil, nil, err
	}

	eventLog, err := cfg.OpenEventLog()
	if err != nil {
		return nil, nil, fmt.Errorf("couldn't open event log: %w", err)
	}

	s := commands.NewShell(commands.ShellOptions{
		Stdin:        cmd.InOrStdin(),
		Stdout:       cmd.OutOrStdout(),
		Stderr:       cmd.ErrOrStderr(),
		Identity:     identity,
		Session:      session.New(cfg.Debug || debug),
		Env:          vos.OSEnv{},
		History:      cfg.History(),
		Events:       logger.NewJsonLinesLogRecorder(eventLog),
		ScriptsDir:   cfg.ScriptsPath(),
		LineCapacity: cfg.LineCapacity,
		PromptColor:  cfg.PromptColor,
	})

	return s, func() {
		s.Close()
		eventLog.Close()
	}, nil
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "lush",
	Short: "The Lunar Shell",
	Long: `An interactive command interpreter with pipes, quoting, environment
variable expansion and Lua scripting.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		s, closeShell, err := newShell(cmd)
		if err != nil {
			return err
		}
		defer closeShell()

		if cmd.Flags().Changed("command") {
			exitStatus, err = s.RunLine(commandLine)
			return err
		}

		return s.RunInteractive()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
// It returns the status the process should exit with.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		return 1
	}
	return exitStatus
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "config directory (default ~/"+DefaultConfigDirName+")")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "report the outcome of every command")
	rootCmd.Flags().StringVarP(&commandLine, "command", "c", "", "run a single line and exit")
}
