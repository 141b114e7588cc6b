package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/voxlane/frontdesk/internal/config"
)

func newTenantCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tenant",
		Short: "Inspect configured tenants",
	}

	cmd.AddCommand(newTenantListCmd())
	cmd.AddCommand(newTenantInfoCmd())
	return cmd
}

func newTenantListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List configured tenants",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(paths.Config)
			if err != nil {
				return err
			}

			if len(cfg.Tenants) == 0 {
				fmt.Println("No tenants configured.")
				return nil
			}
			for _, t := range cfg.Tenants {
				fmt.Printf("  %-12s %-24s %s\n", t.ID, t.Name, t.Number)
			}
			return nil
		},
	}
}

func newTenantInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <id>",
		Short: "Show one tenant's configuration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(paths.Config)
			if err != nil {
				return err
			}

			t := cfg.Tenant(args[0])
			if t == nil {
				return fmt.Errorf("unknown tenant %q", args[0])
			}

			fmt.Printf("ID:       %s\n", t.ID)
			fmt.Printf("Name:     %s\n", t.Name)
			fmt.Printf("Number:   %s\n", t.Number)
			if t.Hours != "" {
				fmt.Printf("Hours:    %s\n", t.Hours)
			}
			if t.Address != "" {
				fmt.Printf("Address:  %s\n", t.Address)
			}
			if t.Email != "" {
				fmt.Printf("Email:    %s\n", t.Email)
			}
			if len(t.Services) > 0 {
				fmt.Printf("Services: %s\n", strings.Join(t.Services, ", "))
			}
			if t.FallbackNumber != "" {
				fmt.Printf("Fallback: %s\n", t.FallbackNumber)
			}
			for _, s := range t.Staff {
				role := s.Role
				if role == "" {
					role = "-"
				}
				fmt.Printf("Staff:    %s (%s) %s\n", s.Name, role, s.Number)
			}
			return nil
		},
	}
}
