package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/MrEthical07/payguard/permission"
)

func newPermissionsCommand(_ *rootOptions) *cobra.Command {
	var roleName string

	cmd := &cobra.Command{
		Use:   "permissions",
		Short: "Print the role to permission table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			table := permission.DefaultTable()

			roles := permission.Roles()
			if roleName != "" {
				role, err := permission.ParseRole(roleName)
				if err != nil {
					return fmt.Errorf("%w: %q", err, roleName)
				}
				roles = []permission.Role{role}
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ROLE\tCOUNT\tPERMISSIONS")
			for _, role := range roles {
				set := table.PermissionsFor(role)
				fmt.Fprintf(w, "%s\t%d\t%s\n", role, set.Len(), strings.Join(set.Strings(), ","))
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&roleName, "role", "", "limit output to one role")
	return cmd
}
