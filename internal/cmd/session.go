package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MrEthical07/payguard"
	"github.com/MrEthical07/payguard/session"
)

func newSessionCommand(opts *rootOptions) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "session",
		Short: "Inspect or clear the persisted session",
		Long: `Inspect or clear the persisted session of the configured backend.
--file switches to the file backend at the given path.`,
	}
	cmd.PersistentFlags().StringVar(&file, "file", "", "session file (selects the file backend)")

	build := func() (*payguard.Engine, error) {
		cfg := opts.cfg
		if file != "" {
			cfg.Session.Backend = payguard.BackendFile
			cfg.Session.FilePath = file
		}
		return payguard.New().
			WithConfig(cfg).
			WithLogger(opts.logger).
			Build()
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Restore the persisted session and print it",
		Long: `Restore the persisted session and print it. Records that fail to decode,
or whose token has expired, are discarded by the restore.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			engine, err := build()
			if err != nil {
				return err
			}
			defer engine.Close()

			outcome := engine.Restore(cmd.Context())
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "restore: %s\n", outcome)
			if outcome == session.RestoreUnavailable {
				return errors.New("session storage unavailable")
			}

			sess := engine.Session()
			if !sess.Authenticated() {
				fmt.Fprintln(out, "session: anonymous")
				return nil
			}
			fmt.Fprintf(out, "user:    %s (%s)\n", sess.User.ID, sess.User.Email)
			fmt.Fprintf(out, "role:    %s\n", sess.User.Role)
			if sess.TenantScope != "" {
				fmt.Fprintf(out, "scope:   %s\n", sess.TenantScope)
			}
			fmt.Fprintf(out, "token:   %s\n", maskToken(sess.Token))
			return nil
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete the persisted session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			engine, err := build()
			if err != nil {
				return err
			}
			defer engine.Close()

			if err := engine.Store().Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "session cleared")
			return nil
		},
	}

	cmd.AddCommand(show, clearCmd)
	return cmd
}

func maskToken(token string) string {
	if len(token) <= 8 {
		return "****"
	}
	return token[:4] + "…" + token[len(token)-4:]
}
