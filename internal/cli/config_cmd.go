package cli

import (
	"fmt"
	"os"

	"github.com/lydakis/monitctl/internal/config"
	"github.com/lydakis/monitctl/internal/daemon"
	"github.com/spf13/cobra"
)

func newConfigCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Create or check the monitctl config file",
	}
	cmd.AddCommand(newConfigInitCommand(opts), newConfigCheckCommand(opts))
	return cmd
}

func newConfigInitCommand(opts *rootOptions) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter config for a daemon on localhost:2812",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := opts.configPath
			save := func() error { return config.SaveTo(path, config.Starter()) }
			if path == "" {
				path = config.ExampleConfigPath()
				save = func() error { return config.Save(config.Starter()) }
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if err := save(); err != nil {
				return &runtimeError{err: err}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing config file")
	return cmd
}

func newConfigCheckCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate the config and show how the daemon will be reached",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if target := targetFor(cfg.HTTPD); target != nil {
				fmt.Fprintf(out, "interface: %s\n", target)
			} else {
				fmt.Fprintln(out, "interface: disabled")
			}
			fmt.Fprintf(out, "timeout:   %s\n", cfg.Timeout())
			fmt.Fprintf(out, "auth:      %d credential(s)\n", len(cfg.HTTPD.Allow))

			probe := daemon.NewProbe(cfg.PidFileOrDefault())
			state := "not running"
			if pid, err := probe.PID(); err == nil && probe.Running() {
				state = fmt.Sprintf("running (pid %d)", pid)
			}
			fmt.Fprintf(out, "pidfile:   %s (%s)\n", probe.PidFile, state)
			return nil
		},
	}
}
