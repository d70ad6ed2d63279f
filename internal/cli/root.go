// Package cli holds the wa-scheduler commands.
package cli

import (
	"errors"
	"fmt"
	"os"
	"wa-scheduler/internal/config"
	"wa-scheduler/internal/logging"

	"github.com/spf13/cobra"
)

// app is the state shared by every command.
type app struct {
	configFlag string
	envFile    string
	daemon     bool

	env *config.Env
	log *logging.Logger
}

func NewRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "wa-scheduler",
		Short:         "Send scheduled WhatsApp messages to contacts and groups",
		Long:          "wa-scheduler reads a YAML document of contacts, groups and daily messages and sends every message at its time through WhatsApp.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.log.Close()
		},
	}
	root.PersistentFlags().StringVarP(&a.configFlag, "config", "c", "", "configuration document (overrides CONFIG_FILE)")
	root.PersistentFlags().StringVar(&a.envFile, "env", ".env", "dotenv file to load")

	root.AddCommand(
		newRunCommand(a),
		newTestCommand(a),
		newScheduleCommand(a),
		newInitCommand(a),
		newLoginCommand(a),
		newGroupsCommand(a),
		newBrowserInstallCommand(a),
		newTokenCommand(a),
		newDaemonCommand(a),
	)
	return root
}

func (a *app) setup() error {
	a.env = config.LoadEnv(a.envFile)
	log, err := logging.New(a.env.LogLevel, a.env.LogFile, !a.daemon)
	if err != nil {
		return err
	}
	a.log = log
	return nil
}

func (a *app) configPath() string {
	if a.configFlag != "" {
		return a.configFlag
	}
	return a.env.ConfigFile
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		var cfgErr *config.ConfigError
		if errors.As(err, &cfgErr) {
			fmt.Fprintln(os.Stderr, "Fix the configuration document or create one with: wa-scheduler init")
		}
		return 1
	}
	return 0
}
