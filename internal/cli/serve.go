package cli

import (
	"context"
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/voxlane/frontdesk/internal/call"
	"github.com/voxlane/frontdesk/internal/config"
	"github.com/voxlane/frontdesk/internal/gateway"
	"github.com/voxlane/frontdesk/internal/language"
	"github.com/voxlane/frontdesk/internal/ledger"
	"github.com/voxlane/frontdesk/internal/llm"
	"github.com/voxlane/frontdesk/internal/logging"
	"github.com/voxlane/frontdesk/internal/pipeline"
	"github.com/voxlane/frontdesk/internal/store"
	"github.com/voxlane/frontdesk/internal/telephony"
)

func newServeCmd() *cobra.Command {
	var (
		port      int
		publicURL string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the webhook server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(paths.Config)
			if err != nil {
				return err
			}

			if port != 0 {
				cfg.Gateway.Port = port
			}
			if publicURL != "" {
				cfg.Gateway.PublicURL = publicURL
			}
			if logLevel == "" {
				log = logging.New(nil, cfg.Logging.Level)
			}

			issues := config.Validate(&cfg)
			for _, issue := range issues {
				log.Warn().Str("path", issue.Path).Msg(issue.Message)
			}
			if config.Fatal(issues) {
				return fmt.Errorf("config validation failed with %d issue(s)", len(issues))
			}

			if err := paths.EnsureDirs(); err != nil {
				return fmt.Errorf("creating data directories: %w", err)
			}

			dbPath := cfg.Store.Path
			if dbPath == "" {
				dbPath = filepath.Join(paths.Data, "frontdesk.db")
			}
			db, err := store.Open(dbPath, log)
			if err != nil {
				return fmt.Errorf("opening database: %w", err)
			}
			defer db.Close()

			memory := store.NewCallerMemoryStore(db)
			bookings := store.NewBookingStore(db)
			messages := store.NewMessageStore(db)
			callLog := store.NewCallLogStore(db, cfg.Call.LogRetention)
			smsSessions := store.NewSMSSessionStore(db)

			slots := ledger.New(bookings)
			saved, err := bookings.LoadSlots()
			if err != nil {
				return fmt.Errorf("loading reserved slots: %w", err)
			}
			for tenantID, reservations := range saved {
				slots.Hydrate(tenantID, reservations)
			}

			client := llm.NewOpenAIClient(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, cfg.OpenAI.ChatModel)
			speech := telephony.NewOpenAISpeech(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL,
				cfg.OpenAI.TTSModel, cfg.OpenAI.TTSVoice, cfg.OpenAI.STTModel)
			twilio := telephony.NewTwilioClient(cfg.Twilio.AccountSID, cfg.Twilio.AuthToken, cfg.Twilio.FromNumber, log)

			// A typed nil Notifier would never compare equal to nil inside the
			// pipeline, so only assign when SMS sending actually works.
			var notify pipeline.Notifier
			if twilio.Enabled() {
				notify = twilio
			} else {
				log.Warn().Msg("Twilio credentials missing — SMS confirmations disabled")
			}

			generator := pipeline.New(client, slots, bookings, notify, &cfg, log)
			selector := language.NewSelector(client, cfg.OpenAI.ChatModel, log)

			srv := gateway.New(&cfg, log, gateway.Deps{
				Registry:    call.NewRegistry(),
				Promises:    call.NewPromises(),
				Slots:       slots,
				Generator:   generator,
				Selector:    selector,
				Memory:      memory,
				Bookings:    bookings,
				Messages:    messages,
				CallLog:     callLog,
				SMSSessions: smsSessions,
				Twilio:      twilio,
				Transcriber: speech,
				Synthesizer: speech,
			})

			log.Info().
				Int("tenants", len(cfg.Tenants)).
				Str("db", dbPath).
				Msg("frontdesk starting")

			// Block until SIGINT/SIGTERM
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return srv.Start(ctx)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "override gateway port")
	cmd.Flags().StringVar(&publicURL, "public-url", "", "override the externally reachable base URL for callbacks")

	return cmd
}
