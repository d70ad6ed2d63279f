package cli

import (
	"fmt"
	"io"
	"time"
	"wa-scheduler/internal/config"
	"wa-scheduler/internal/model"

	"github.com/mdp/qrterminal/v3"
	"github.com/spf13/cobra"
)

const browserLoginTimeout = 3 * time.Minute

func newLoginCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Link this machine to a WhatsApp account by scanning a QR code",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := config.LoadSettings(a.configPath())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if settings.Driver == model.DriverBrowser {
				d := a.openBrowser()
				defer d.Close()
				fmt.Fprintln(out, "Scan the QR code shown in the browser window with WhatsApp > Linked devices.")
				if err := d.Login(cmd.Context(), browserLoginTimeout); err != nil {
					return err
				}
				fmt.Fprintln(out, "WhatsApp Web is logged in.")
				return nil
			}

			c, err := a.openWhatsApp(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer c.Close()
			if c.Paired() {
				fmt.Fprintf(out, "Already paired as %s\n", c.Account())
				return nil
			}
			err = c.Login(cmd.Context(), func(code string) {
				printQR(out, code)
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Paired as %s\n", c.Account())
			return nil
		},
	}
}

func printQR(out io.Writer, code string) {
	fmt.Fprintln(out, "Scan this code with WhatsApp > Linked devices:")
	qrterminal.GenerateHalfBlock(code, qrterminal.L, out)
}
