package main

import (
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/yanqian/complaint-intake/internal/domain/auth"
	"github.com/yanqian/complaint-intake/internal/infra/config"
)

type tokenOutput struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func newTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for an API client",
		Long:  "token signs a bearer token with auth.jwtSecret from the service configuration (CONFIG_PATH or configs/config.yaml plus environment).",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			subject, _ := cmd.Flags().GetString("subject")
			ttl, _ := cmd.Flags().GetDuration("ttl")
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if ttl <= 0 {
				ttl = cfg.Auth.TokenTTL
			}
			svc := auth.NewService(auth.Config{
				Secret:   cfg.Auth.JWTSecret,
				Issuer:   cfg.Auth.Issuer,
				TokenTTL: ttl,
			}, slog.New(slog.DiscardHandler))
			token, expires, err := svc.IssueToken(cmd.Context(), subject)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), tokenOutput{Token: token, ExpiresAt: expires})
		},
	}
	cmd.Flags().String("subject", "", "Client name recorded in the token subject")
	cmd.Flags().Duration("ttl", 0, "Token lifetime (defaults to auth.tokenTtl)")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}
