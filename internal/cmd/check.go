package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MrEthical07/payguard/guard"
	"github.com/MrEthical07/payguard/permission"
	"github.com/MrEthical07/payguard/session"
)

func newCheckCommand(opts *rootOptions) *cobra.Command {
	var (
		roleName string
		path     string
	)

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Evaluate a navigation against the route guard",
		Long: `Evaluate a navigation for a role and print the decision, the rule that
produced it and the redirect location. Omit --role to evaluate as an
anonymous visitor.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			g, err := guard.New(opts.cfg.Routes)
			if err != nil {
				return err
			}

			sess, err := syntheticSession(roleName)
			if err != nil {
				return err
			}

			res := g.Explain(sess, path)
			opts.logger.WithField("role", roleName).WithField("path", res.Path).Debug("navigation evaluated")

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "decision: %s\n", res.Decision)
			fmt.Fprintf(out, "rule:     %s\n", res.Rule)
			fmt.Fprintf(out, "path:     %s\n", res.Path)
			if res.Decision.IsRedirect() {
				fmt.Fprintf(out, "location: %s\n", res.Location)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&roleName, "role", "", "role to evaluate as (ADMIN, PARTNER_BANK, MERCHANT, SUB_MERCHANT)")
	cmd.Flags().StringVar(&path, "path", "", "requested path, optionally with a query")
	_ = cmd.MarkFlagRequired("path")
	return cmd
}

// syntheticSession returns the anonymous session for an empty role name and
// an authenticated placeholder session otherwise.
func syntheticSession(roleName string) (session.Session, error) {
	if roleName == "" {
		return session.Session{}, nil
	}
	role, err := permission.ParseRole(roleName)
	if err != nil {
		return session.Session{}, fmt.Errorf("%w: %q", err, roleName)
	}
	return session.Session{
		User:  session.User{ID: "cli", Role: role},
		Token: "cli",
	}, nil
}
