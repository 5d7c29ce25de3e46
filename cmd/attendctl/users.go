package main

import (
	"errors"
	"time"

	"github.com/spf13/cobra"

	"schoolattend/internal/auth"
	"schoolattend/internal/directory"
)

var newUser directory.NewUser

var addUserCmd = &cobra.Command{
	Use:   "adduser",
	Short: "Add a student, teacher or admin to the directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		backend, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer backend.Close()

		u, err := directory.NewService(backend, log).Create(ctx, newUser)
		if err != nil {
			return err
		}
		return printJSON(cmd, u)
	},
}

var tokenTTL time.Duration

var tokenCmd = &cobra.Command{
	Use:   "token USER_ID",
	Short: "Issue an access token for a directory user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		backend, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer backend.Close()

		u, err := backend.GetUser(ctx, args[0])
		if err != nil {
			return err
		}
		if u.Role == "" {
			return errors.New("user has no role")
		}
		ttl := tokenTTL
		if ttl <= 0 {
			ttl = cfg.AccessTTL
		}
		tok, err := auth.Issue(auth.SessionFor(u), cfg.JWTIssuer, cfg.JWTSigningKey, ttl)
		if err != nil {
			return err
		}
		return printJSON(cmd, tok)
	},
}

func init() {
	f := addUserCmd.Flags()
	f.StringVar(&newUser.Name, "name", "", "full name as it appears on attendance reports")
	f.StringVar(&newUser.Role, "role", "student", "student, teacher or admin")
	f.StringVar(&newUser.Class, "class", "", "class, required for students")
	f.StringVar(&newUser.Email, "email", "", "sign-in email")
	f.StringVar(&newUser.Password, "password", "", "sign-in password")
	_ = addUserCmd.MarkFlagRequired("name")

	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 0, "token lifetime (default: $ACCESS_TTL)")
}
