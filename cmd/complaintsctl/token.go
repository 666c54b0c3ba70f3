package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/spec-kit/complaint-service/internal/auth"
	"github.com/spec-kit/complaint-service/internal/config"
	"github.com/spec-kit/complaint-service/internal/domain"
)

var (
	tokenSubject string
	tokenTTL     time.Duration
)

var tokenCmd = &cobra.Command{
	Use:     "token",
	Short:   "Mint an operator token signed with AUTH_JWT_SECRET",
	GroupID: "ops",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if cfg.Auth.JWTSecret == "" {
			return errors.New("AUTH_JWT_SECRET is not set")
		}
		ttl := tokenTTL
		if ttl <= 0 {
			ttl = cfg.Auth.TokenTTL()
		}
		token, err := auth.NewTokenManager(cfg.Auth.JWTSecret, ttl).GenerateToken(tokenSubject, domain.SubjectTypeOperator)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token.Value)
		return nil
	},
}

var hashPasswordCmd = &cobra.Command{
	Use:     "hash-password <password>",
	Short:   "Print a bcrypt hash suitable for OPERATOR_PASSWORD_HASH",
	GroupID: "ops",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		hash, err := auth.HashPassword(args[0], auth.DefaultBcryptCost)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), hash)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenSubject, "subject", "operator", "token subject")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 0, "token lifetime (defaults to AUTH_ACCESS_TOKEN_TTL_MINUTES)")
}
