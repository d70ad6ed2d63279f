package cli

import (
	"fmt"
	"strings"
	"wa-scheduler/internal/config"
	"wa-scheduler/internal/database"
	"wa-scheduler/internal/model"
	"wa-scheduler/internal/repository"
	"wa-scheduler/internal/service"

	"github.com/spf13/cobra"
)

const defaultTestMessage = "Test message"

func newTestCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "test <phone> [message...]",
		Short: "Send one text message right away",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := a.log.Component("test")

			settings, err := config.LoadSettings(a.configPath())
			if err != nil {
				return err
			}
			text := defaultTestMessage
			if len(args) > 1 {
				text = strings.Join(args[1:], " ")
			}
			to := model.PhoneRecipient(args[0])
			if !strings.HasPrefix(to.Address, "+") {
				log.Warn().Str("phone", to.Address).Msg("phone number has no country code (+)")
			}

			sender, err := a.openSender(cmd.Context(), settings, nil)
			if err != nil {
				return err
			}
			defer sender.Close()

			dispatcher := service.NewDispatcher(sender, settings, a.log.Component("dispatcher"))
			if db, _, err := database.Open(a.env.DatabaseURL); err != nil {
				log.Warn().Err(err).Msg("delivery log unavailable")
			} else {
				defer db.Close()
				if err := database.RunMigrations(db, a.log.Component("database")); err != nil {
					log.Warn().Err(err).Msg("delivery log unavailable")
				} else {
					dispatcher.Deliveries = repository.NewDeliveryRepository(db)
				}
			}

			res := dispatcher.SendNow(cmd.Context(), to, model.Message{Type: model.MessageText, Content: text})
			if res.Err != nil {
				return res.Err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Test message sent to %s\n", to.Address)
			return nil
		},
	}
}
