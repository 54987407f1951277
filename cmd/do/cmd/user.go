package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/brickfund/platform/internal/app"
	"github.com/brickfund/platform/internal/config"
	"github.com/brickfund/platform/internal/db"
	"github.com/brickfund/platform/internal/model"
	"github.com/brickfund/platform/internal/service"
	"github.com/spf13/cobra"
)

// AppOpener wires an App for one command run. release frees what open
// acquired.
type AppOpener func(ctx context.Context) (a *app.App, release func(), err error)

func UserCmd() *cobra.Command {
	return NewUserCmd(openConfiguredApp)
}

// NewUserCmd builds the user commands over the given opener.
func NewUserCmd(open AppOpener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage user accounts",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "promote <email>",
		Short: "Give a user the admin role",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(open, func(cmd *cobra.Command, a *app.App, email string) error {
			user, err := a.UserRepository.ByEmail(cmd.Context(), email)
			if err != nil {
				return fmt.Errorf("%s: %w", email, err)
			}
			err = a.UserRepository.UpdateRole(cmd.Context(), user.ID, model.RoleAdmin)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now an admin\n", email)
			return nil
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "verify <email>",
		Short: "Mark a user's email as verified",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(open, func(cmd *cobra.Command, a *app.App, email string) error {
			user, err := a.UserRepository.ByEmail(cmd.Context(), email)
			if err != nil {
				return fmt.Errorf("%s: %w", email, err)
			}
			if user.IsEmailVerified() {
				fmt.Fprintf(cmd.OutOrStdout(), "%s was already verified\n", email)
				return nil
			}
			err = a.UserRepository.MarkEmailVerified(cmd.Context(), user.ID, time.Now().UTC())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s verified\n", email)
			return nil
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "handoff <email>",
		Short: "Print the identity hand-off link for a user",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(open, func(cmd *cobra.Command, a *app.App, email string) error {
			user, err := a.UserRepository.ByEmail(cmd.Context(), email)
			if err != nil {
				return fmt.Errorf("%s: %w", email, err)
			}
			handoff, err := a.VerificationService.HandoffLink(cmd.Context(), user.ID)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), handoff.VerificationURL)
			fmt.Fprintln(cmd.OutOrStdout(), handoff.QRURL)
			return nil
		}),
	})

	return cmd
}

func withApp(open AppOpener, run func(cmd *cobra.Command, a *app.App, email string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, release, err := open(cmd.Context())
		if err != nil {
			return err
		}
		defer release()

		return run(cmd, a, strings.ToLower(strings.TrimSpace(args[0])))
	}
}

// openConfiguredApp opens the configured database and wires the services
// without object storage or outgoing mail.
func openConfiguredApp(ctx context.Context) (*app.App, func(), error) {
	cfg := config.Load()

	database, err := db.Init(ctx, cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return nil, nil, err
	}

	err = db.RunMigrations(ctx, database.DB, cfg.DBDriver)
	if err != nil {
		_ = db.Close(database)
		return nil, nil, err
	}

	a := app.Assemble(cfg, database, nil, service.NewMailer("", cfg.EmailFrom, true))
	return a, func() { _ = a.Close() }, nil
}
