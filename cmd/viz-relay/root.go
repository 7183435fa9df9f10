package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felicia-viz/viz-relay/internal/config"
	"github.com/felicia-viz/viz-relay/internal/version"
)

type rootOptions struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "viz-relay",
		Short: "WebSocket relay for the Felicia visualization dashboard",
		Long: `viz-relay keeps the table of topics announced by Felicia producers and
pushes topic lists and payloads to every connected dashboard browser.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to config file (defaults apply when empty)")

	root.AddCommand(
		newServeCmd(opts),
		newCheckConfigCmd(opts),
		newVersionCmd(),
	)
	return root
}

// loadConfig returns the validated config at path, or the defaults when path
// is empty.
func loadConfig(path string) (*config.RelayConfig, error) {
	if path == "" {
		cfg := config.Default()
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("validate config: %w", err)
		}
		return cfg, nil
	}
	return config.LoadAndValidate(path)
}

func newCheckConfigCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check-config",
		Short: "Load and validate the config file, then print the result",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts.configPath)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "config ok\n")
			fmt.Fprintf(out, "  listen:     %s:%d\n", cfg.Server.Host, cfg.Server.Port)
			fmt.Fprintf(out, "  heartbeat:  %s\n", cfg.Connections.HeartbeatInterval)
			fmt.Fprintf(out, "  bridge:     %s\n", cfg.Bridge.Driver)
			fmt.Fprintf(out, "  journal:    %t\n", cfg.Database.Enabled())
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}
