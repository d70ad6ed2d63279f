package cli

import (
	"fmt"
	"time"
	"wa-scheduler/internal/utils"

	"github.com/spf13/cobra"
)

func newTokenCommand(a *app) *cobra.Command {
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "token [subject]",
		Short: "Mint a bearer token for the status API",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			subject := "admin"
			if len(args) == 1 {
				subject = args[0]
			}
			token, err := utils.IssueToken(subject, a.env.JWTSecret, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().DurationVar(&ttl, "ttl", 30*24*time.Hour, "token lifetime (0 for no expiry)")
	return cmd
}
