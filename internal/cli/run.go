package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	"wa-scheduler/internal/config"
	"wa-scheduler/internal/database"
	"wa-scheduler/internal/handler"
	"wa-scheduler/internal/model"
	"wa-scheduler/internal/repository"
	"wa-scheduler/internal/scheduler"
	"wa-scheduler/internal/service"
	"wa-scheduler/internal/webhook"
	"wa-scheduler/internal/websocket"

	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

func newRunCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Register every message and send them at their time until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.run(ctx)
		},
	}
	cmd.Flags().BoolVar(&a.daemon, "daemon", false, "log to the log file only (set by the launcher)")
	cmd.Flags().MarkHidden("daemon")
	return cmd
}

func (a *app) run(ctx context.Context) error {
	log := a.log.Component("run")

	doc, err := config.Load(a.configPath())
	if err != nil {
		return err
	}
	for _, w := range config.Warnings(doc) {
		log.Warn().Msg(w)
	}
	settings := doc.Settings
	loc, err := settings.Location()
	if err != nil {
		return err
	}

	db, _, err := database.Open(a.env.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := database.RunMigrations(db, a.log.Component("database")); err != nil {
		return err
	}
	deliveries := repository.NewDeliveryRepository(db)

	hub := websocket.NewHub(a.log.Component("websocket"))
	go hub.Run(ctx)

	sender, err := a.openSender(ctx, settings, hub)
	if err != nil {
		return err
	}
	defer sender.Close()
	if sender.wa != nil {
		// A failed connect is retried by every send.
		if err := sender.wa.Connect(ctx, settings.Wait()); err != nil {
			log.Warn().Err(err).Msg("initial connection failed")
		}
	}

	dispatcher := service.NewDispatcher(sender, settings, a.log.Component("dispatcher"))
	dispatcher.Deliveries = deliveries
	dispatcher.Events = hub
	if settings.NotifyWebhook != "" {
		dispatcher.Notifier = webhook.NewNotifier(settings.NotifyWebhook, a.log.Component("webhook"))
	}

	sched := scheduler.New(
		func(ctx context.Context, to model.Recipient, msg model.Message) {
			dispatcher.Send(ctx, to, msg)
		},
		scheduler.WithLocation(loc),
		scheduler.WithInterval(settings.Interval()),
		scheduler.WithLogger(a.log.Component("scheduler")),
	)
	for _, entry := range doc.Entries() {
		if _, err := sched.Register(entry.Recipient, entry.Message); err != nil {
			return err
		}
	}
	log.Info().
		Str("config", a.configPath()).
		Str("driver", settings.Driver).
		Int("triggers", sched.Len()).
		Str("timezone", loc.String()).
		Msg("scheduler started")

	srv := a.startAPI(settings, sender, sched, deliveries, dispatcher, hub)

	err = sched.Run(ctx)

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("status API shutdown failed")
		}
	}
	log.Info().Msg("shutting down")
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// startAPI serves the status API when HTTP_ADDR is set. Failing to start it
// is logged and the scheduler keeps running.
func (a *app) startAPI(settings model.Settings, sender *senderHandle, sched *scheduler.Scheduler, deliveries *repository.DeliveryRepository, dispatcher *service.Dispatcher, hub *websocket.Hub) *http.Server {
	if a.env.HTTPAddr == "" {
		return nil
	}
	log := a.log.Component("api")

	var conn handler.ConnectionState
	if c := sender.connection(); c != nil {
		conn = c
	}
	router, err := handler.NewRouter(handler.RouterConfig{
		JWTSecret:      a.env.JWTSecret,
		AllowedOrigins: a.env.AllowedOrigins,
		Status:         handler.NewStatusHandler(settings.Driver, conn, sched),
		Deliveries:     handler.NewDeliveryHandler(deliveries),
		Send:           handler.NewSendHandler(dispatcher, a.env.ImageDir),
		Hub:            hub,
	})
	if err != nil {
		log.Error().Err(err).Msg("status API disabled")
		return nil
	}

	srv := &http.Server{
		Addr:              a.env.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("status API listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("status API stopped")
		}
	}()
	return srv
}
