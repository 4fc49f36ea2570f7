package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/odyssey-erp/interco/internal/app"
	"github.com/odyssey-erp/interco/internal/auth"
	"github.com/odyssey-erp/interco/internal/platform/db"
)

func init() {
	rootCmd.AddCommand(keysCmd)
	keysCmd.AddCommand(keysIssueCmd, keysRevokeCmd)
	keysIssueCmd.Flags().Int64("tenant", 0, "Tenant the key is scoped to")
	keysIssueCmd.Flags().String("label", "", "Human readable label")
	_ = keysIssueCmd.MarkFlagRequired("tenant")
}

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage tenant API keys",
}

var keysIssueCmd = &cobra.Command{
	Use:   "issue",
	Short: "Issue a new API key; the token is shown once",
	RunE: func(cmd *cobra.Command, args []string) error {
		tenantID, _ := cmd.Flags().GetInt64("tenant")
		label, _ := cmd.Flags().GetString("label")
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		pool, err := db.New(cmd.Context(), cfg.PGDSN, 2)
		if err != nil {
			return err
		}
		defer pool.Close()
		svc := auth.NewService(auth.NewRepository(pool), app.NewLogger(cfg))
		issued, err := svc.Issue(cmd.Context(), tenantID, label)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "prefix=%s tenant=%d\ntoken=%s\n", issued.Key.Prefix, issued.Key.TenantID, issued.Token)
		return nil
	},
}

var keysRevokeCmd = &cobra.Command{
	Use:   "revoke PREFIX",
	Short: "Revoke an API key by prefix",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		pool, err := db.New(cmd.Context(), cfg.PGDSN, 2)
		if err != nil {
			return err
		}
		defer pool.Close()
		svc := auth.NewService(auth.NewRepository(pool), app.NewLogger(cfg))
		if err := svc.Revoke(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "revoked %s\n", args[0])
		return nil
	},
}
