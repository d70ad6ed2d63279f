package cli

import (
	"fmt"
	"wa-scheduler/internal/browser"

	"github.com/spf13/cobra"
)

func newBrowserInstallCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "browser-install",
		Short: "Download the Chromium build used by the browser driver",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := browser.Install(); err != nil {
				return fmt.Errorf("install browsers: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Browser installed.")
			return nil
		},
	}
}
