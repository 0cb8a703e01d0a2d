package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/reuben-baek/go-data/config"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newCheckCmd(opts *rootOptions) *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Open the configured provider and ping it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			options, err := config.Load(opts.configFile)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			opened, err := newRegistry().Open(ctx, options)
			if err != nil {
				return err
			}
			defer func() {
				if err := opened.Close(context.Background()); err != nil {
					logrus.Warnf("check: close [%s]: %v", opened.Name(), err)
				}
			}()
			if err := opened.Ping(ctx); err != nil {
				return fmt.Errorf("ping [%s]: %w", opened.Name(), err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", opened.Name())
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "time allowed to connect and ping")
	return cmd
}
