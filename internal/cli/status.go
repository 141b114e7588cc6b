package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/voxlane/frontdesk/internal/config"
	"github.com/voxlane/frontdesk/internal/version"
)

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show frontdesk status and configuration summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Printf("Frontdesk %s (commit %s)\n\n", version.Version, version.Commit)

			// Show paths
			fmt.Printf("Config:  %s\n", paths.Config)
			fmt.Printf("Data:    %s\n", paths.Data)
			fmt.Printf("Logs:    %s\n", paths.Logs)
			fmt.Println()

			cfg, err := config.Load(paths.Config)
			if err != nil {
				fmt.Printf("Config:  error loading: %v\n", err)
				return nil
			}

			fmt.Printf("Gateway: port=%d bind=%s publicUrl=%s\n",
				cfg.Gateway.Port, cfg.Gateway.Bind, orDash(cfg.Gateway.PublicURL))

			if cfg.OpenAI.APIKey != "" {
				fmt.Printf("OpenAI:  chat=%s tts=%s/%s stt=%s\n",
					cfg.OpenAI.ChatModel, cfg.OpenAI.TTSModel, cfg.OpenAI.TTSVoice, cfg.OpenAI.STTModel)
			} else {
				fmt.Println("OpenAI:  (no API key)")
			}

			if cfg.Twilio.AccountSID != "" && cfg.Twilio.AuthToken != "" {
				fmt.Printf("Twilio:  from=%s\n", orDash(cfg.Twilio.FromNumber))
			} else {
				fmt.Println("Twilio:  (not configured — SMS and recording download disabled)")
			}

			if len(cfg.Tenants) > 0 {
				for _, t := range cfg.Tenants {
					fmt.Printf("Tenant:  id=%s name=%q number=%s staff=%d\n",
						t.ID, t.Name, t.Number, len(t.Staff))
				}
			} else {
				fmt.Println("Tenant:  (none configured)")
			}

			fmt.Printf("Call:    pollAttempts=%d pollPause=%ds slot=%dmin\n",
				cfg.Call.MaxPollAttempts, cfg.Call.PollPauseSec, cfg.Call.SlotMinutes)

			issues := config.Validate(&cfg)
			if len(issues) > 0 {
				fmt.Printf("\nValidation issues (%d):\n", len(issues))
				for _, issue := range issues {
					fmt.Printf("  - %s: %s\n", issue.Path, issue.Message)
				}
			}

			return nil
		},
	}

	return cmd
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
