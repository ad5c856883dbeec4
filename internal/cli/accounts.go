package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newAccountsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "Maintain node accounts and their sessions",
	}
	cmd.AddCommand(newLockIdleCmd(a), newRevokeCmd(a))
	return cmd
}

func newLockIdleCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "lock-idle",
		Short: "Lock every node account without a live session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := a.openCLIRuntime(cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), requestTimeout)
			defer cancel()

			locked, err := rt.engine.LockIdleAccounts(ctx)
			if _, werr := fmt.Fprintf(cmd.OutOrStdout(), "locked: %d\n", locked); werr != nil {
				return werr
			}
			return err
		},
	}
}

func newRevokeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "revoke ADDRESS",
		Short: "End every session of an account and lock it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := a.openCLIRuntime(cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), requestTimeout)
			defer cancel()

			removed, err := rt.engine.RevokeAddress(ctx, args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "sessions removed: %d\n", removed)
			return err
		},
	}
}

// openCLIRuntime builds a runtime that logs as text to stderr, audit events included.
func (a *app) openCLIRuntime(cmd *cobra.Command) (*runtime, error) {
	s, err := a.load(cmd)
	if err != nil {
		return nil, err
	}
	s.LogFormat = "text"
	s.AuditSink = "slog"
	logger := newLogger(s, cmd.ErrOrStderr())
	return openRuntime(cmd.Context(), s, logger, cmd.ErrOrStderr(), false)
}
