package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"wa-scheduler/internal/launcher"

	"github.com/spf13/cobra"
)

func newDaemonCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Manage the background run process",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "start",
			Short: "Start run in the background",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				l, err := a.launcher()
				if err != nil {
					return err
				}
				pid, err := l.Start()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Started wa-scheduler (pid %d), logging to %s\n", pid, l.LogFile)
				return nil
			},
		},
		&cobra.Command{
			Use:   "stop",
			Short: "Stop the background process",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				l, err := a.launcher()
				if err != nil {
					return err
				}
				state, err := l.Stop()
				if err != nil {
					return err
				}
				if state.PID > 0 && !state.Stale {
					fmt.Fprintf(cmd.OutOrStdout(), "Stopped wa-scheduler (pid %d)\n", state.PID)
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), "wa-scheduler is "+state.String())
				return nil
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Report whether the background process is running",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				l, err := a.launcher()
				if err != nil {
					return err
				}
				state, err := l.Status()
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "wa-scheduler is "+state.String())
				return nil
			},
		},
	)
	return cmd
}

// launcher re-executes this binary with the same config and env file.
func (a *app) launcher() (*launcher.Launcher, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, err
	}
	configPath, err := filepath.Abs(a.configPath())
	if err != nil {
		return nil, err
	}
	envFile, err := filepath.Abs(a.envFile)
	if err != nil {
		return nil, err
	}
	dir, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	return &launcher.Launcher{
		PIDFile: a.env.PIDFile,
		LogFile: a.env.LogFile,
		Command: []string{exe, "run", "--daemon", "--config", configPath, "--env", envFile},
		Dir:     dir,
	}, nil
}
