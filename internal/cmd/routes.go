package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newRoutesCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "routes",
		Short: "Print the effective route table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r := opts.cfg.Routes
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(w, "auth prefix\t%s\n", r.AuthPrefix)
			fmt.Fprintf(w, "login\t%s\n", r.LoginPath)
			fmt.Fprintf(w, "home\t%s\n", r.HomePath)
			fmt.Fprintf(w, "unauthorized\t%s\n", r.UnauthorizedPath)
			fmt.Fprintf(w, "next param\t%s\n", r.NextParam)
			fmt.Fprintln(w)
			fmt.Fprintln(w, "PREFIX\tROLES")
			for _, res := range r.Restrictions {
				names := make([]string, 0, len(res.Roles))
				for _, role := range res.Roles {
					names = append(names, role.String())
				}
				roles := strings.Join(names, ",")
				if roles == "" {
					roles = "(admin only)"
				}
				fmt.Fprintf(w, "%s\t%s\n", res.Prefix, roles)
			}
			return w.Flush()
		},
	}
}
