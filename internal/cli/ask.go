package cli

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/voxlane/frontdesk/internal/config"
	"github.com/voxlane/frontdesk/internal/domain"
	"github.com/voxlane/frontdesk/internal/ledger"
	"github.com/voxlane/frontdesk/internal/llm"
	"github.com/voxlane/frontdesk/internal/pipeline"
	"github.com/voxlane/frontdesk/internal/store"
)

// newAskCmd sends one utterance through the reply pipeline and prints the
// receptionist's answer. Bookings land in a throwaway in-memory store, so
// the command is safe for trying prompts against a tenant's config.
func newAskCmd() *cobra.Command {
	var tenantID string

	cmd := &cobra.Command{
		Use:   "ask [message]",
		Short: "Ask the receptionist a question and print the reply (dry run)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			message := strings.Join(args, " ")

			cfg, err := config.Load(paths.Config)
			if err != nil {
				return err
			}
			if cfg.OpenAI.APIKey == "" {
				return fmt.Errorf("no OpenAI API key configured")
			}

			tenant := cfg.Tenant(tenantID)
			if tenant == nil {
				if len(cfg.Tenants) == 0 {
					return fmt.Errorf("no tenants configured")
				}
				if tenantID != "" {
					return fmt.Errorf("unknown tenant %q", tenantID)
				}
				tenant = &cfg.Tenants[0]
			}

			db, err := store.Open(":memory:", log)
			if err != nil {
				return err
			}
			defer db.Close()
			bookings := store.NewBookingStore(db)

			client := llm.NewOpenAIClient(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, cfg.OpenAI.ChatModel)
			gen := pipeline.New(client, ledger.New(bookings), bookings, nil, &cfg, log)

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			reply, err := gen.Respond(ctx, pipeline.Request{
				Tenant: tenant,
				Turns: []domain.Turn{
					{Role: domain.RoleCaller, Content: message, Timestamp: time.Now()},
				},
				Language:    "English",
				CallerPhone: "+10000000000",
				Source:      "sms",
			})
			if err != nil {
				return err
			}

			fmt.Println(reply.Text)
			if reply.ForwardTo != "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "\n[would transfer to %s]\n", reply.ForwardTo)
			}
			if reply.Booked != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "\n[would book %s at %s for %s]\n",
					reply.Booked.Date, reply.Booked.Time, reply.Booked.Name)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&tenantID, "tenant", "", "tenant to answer for (default: first configured)")

	return cmd
}
