package cmd

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/role"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Create, inspect, renew and revoke sessions",
}

var (
	createUser   string
	createRole   string
	createClaims []string
)

var sessionCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a session and print its token",
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := uuid.Parse(createUser)
		if err != nil {
			return fmt.Errorf("--user must be a UUID: %w", err)
		}
		r, err := role.ParseName(createRole)
		if err != nil {
			return err
		}
		extra, err := parseClaims(createClaims)
		if err != nil {
			return err
		}

		engine, cleanup, err := openEngine(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()

		res, err := engine.Login(cmd.Context(), goSession.LoginRequest{UserID: id, Role: r, Extra: extra})
		if err != nil {
			return err
		}
		return printJSON(cmd, map[string]any{
			"token":      res.Token,
			"expires_at": res.ExpiresAt.Format(time.RFC3339),
			"principal":  res.Principal.String(),
		})
	},
}

var sessionInspectCmd = &cobra.Command{
	Use:   "inspect <token>",
	Short: "Show the principal and claims behind a token",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, cleanup, err := openEngine(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()

		info, err := engine.Inspect(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printJSON(cmd, map[string]any{
			"user_id":    info.Principal.ID.String(),
			"role":       info.Principal.Role.String(),
			"claims":     info.Claims,
			"created_at": info.CreatedAt.Format(time.RFC3339),
			"expires_at": info.ExpiresAt.Format(time.RFC3339),
		})
	},
}

var sessionRenewCmd = &cobra.Command{
	Use:   "renew <token>",
	Short: "Restart a session's TTL",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, cleanup, err := openEngine(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()

		expiresAt, err := engine.Touch(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), expiresAt.Format(time.RFC3339))
		return nil
	},
}

var sessionRevokeCmd = &cobra.Command{
	Use:   "revoke <token>",
	Short: "Delete a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, cleanup, err := openEngine(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()

		return engine.Logout(cmd.Context(), args[0])
	},
}

func init() {
	sessionCreateCmd.Flags().StringVar(&createUser, "user", "", "user UUID")
	sessionCreateCmd.Flags().StringVar(&createRole, "role", "user", "role name: guest, user or admin")
	sessionCreateCmd.Flags().StringArrayVar(&createClaims, "claim", nil, "extra claim as key=value (repeatable)")
	_ = sessionCreateCmd.MarkFlagRequired("user")

	sessionCmd.AddCommand(sessionCreateCmd, sessionInspectCmd, sessionRenewCmd, sessionRevokeCmd)
}

func parseClaims(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid claim %q, want key=value", p)
		}
		out[k] = v
	}
	return out, nil
}

func printJSON(cmd *cobra.Command, v map[string]any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
