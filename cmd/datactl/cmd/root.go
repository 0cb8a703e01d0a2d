// Package cmd holds the datactl commands: inspect the data configuration and check that the
// configured provider answers.
package cmd

import (
	"github.com/reuben-baek/go-data/data/gormdata"
	"github.com/reuben-baek/go-data/data/memory"
	"github.com/reuben-baek/go-data/data/mongodata"
	"github.com/reuben-baek/go-data/provider"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configFile string
	logLevel   string
}

func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:          "datactl",
		Short:        "Inspect and check data providers",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := logrus.ParseLevel(opts.logLevel)
			if err != nil {
				return err
			}
			logrus.SetLevel(level)
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "config file (DATA_* environment variables override it)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "log level (debug|info|warn|error)")

	cmd.AddCommand(newConfigCmd(opts))
	cmd.AddCommand(newProvidersCmd())
	cmd.AddCommand(newCheckCmd(opts))
	return cmd
}

// newRegistry knows every backend of this module.
func newRegistry() *provider.Registry {
	registry := provider.NewRegistry()
	memory.Register(registry)
	gormdata.Register(registry)
	mongodata.Register(registry)
	return registry
}
