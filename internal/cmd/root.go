// Package cmd implements the payguard command line: offline inspection of the
// permission table and route guard, and maintenance of a persisted session.
package cmd

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/MrEthical07/payguard"
)

type rootOptions struct {
	configFile string
	logLevel   string

	cfg    payguard.Config
	logger *logrus.Logger
}

// NewRootCommand returns the payguard command tree.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "payguard",
		Short: "Inspect dashboard access rules and the persisted session",
		Long: `payguard answers access questions against the same permission table
and route guard the dashboard runs, and manages the persisted session record.

Examples:
  # Where does a merchant land when opening /users?
  payguard check --role MERCHANT --path /users

  # What can a partner bank do?
  payguard permissions --role PARTNER_BANK

  # Show the session stored in a file
  payguard session show --file ./session.json
`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.load(cmd)
		},
	}

	root.PersistentFlags().StringVar(&opts.configFile, "config", "", "YAML configuration file (defaults apply when empty)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override the configured log level")

	root.AddCommand(
		newCheckCommand(opts),
		newPermissionsCommand(opts),
		newRoutesCommand(opts),
		newSessionCommand(opts),
	)
	return root
}

func (o *rootOptions) load(cmd *cobra.Command) error {
	cfg := payguard.DefaultConfig()
	if o.configFile != "" {
		loaded, err := payguard.LoadConfig(o.configFile)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}

	logger, err := payguard.NewLogger(cfg.Log, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	o.cfg = cfg
	o.logger = logger
	logger.WithField("config", o.configFile).Debug("configuration loaded")
	return nil
}
