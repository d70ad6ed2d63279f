package cli

import (
	"fmt"
	"sort"
	"wa-scheduler/internal/config"
	"wa-scheduler/internal/model"

	"github.com/spf13/cobra"
)

func newGroupsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "groups",
		Short: "List joined groups with the exact names to use in the configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := config.LoadSettings(a.configPath())
			if err != nil {
				return err
			}
			if settings.Driver == model.DriverBrowser {
				return fmt.Errorf("groups needs the %s driver", model.DriverWhatsmeow)
			}

			c, err := a.openWhatsApp(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer c.Close()
			if err := c.Connect(cmd.Context(), settings.Wait()); err != nil {
				return err
			}
			groups, err := c.JoinedGroups(cmd.Context())
			if err != nil {
				return err
			}
			sort.Slice(groups, func(i, j int) bool { return groups[i].Name < groups[j].Name })
			for _, g := range groups {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", g.Name, g.JID)
			}
			return nil
		},
	}
}
