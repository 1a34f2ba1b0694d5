package cli

import (
	"fmt"

	"github.com/lydakis/monitctl/internal/mcpserve"
	"github.com/lydakis/monitctl/internal/monit"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var reportTypes = []string{"up", "down", "initializing", "unmonitored", "total"}

func newQueryCommand(opts *rootOptions, endpoint string) *cobra.Command {
	var group string

	short := "Print full status of services"
	if endpoint == monit.EndpointSummary {
		short = "Print a short status summary"
	}

	cmd := &cobra.Command{
		Use:   endpoint + " [SERVICE]",
		Short: short,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := opts.newClient()
			if err != nil {
				return err
			}

			var service *string
			if len(args) == 1 {
				service = &args[0]
			}
			grp := changedString(cmd.Flags(), "group", group)

			var ok bool
			if endpoint == monit.EndpointSummary {
				ok = client.Summary(cmd.Context(), grp, service)
			} else {
				ok = client.Status(cmd.Context(), grp, service)
			}
			if !ok {
				return errFailed
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&group, "group", "g", "", "Only show services in this group")
	return cmd
}

// changedString returns &value only when the flag was given, so an unset
// flag is omitted from the request rather than sent empty.
func changedString(fs *pflag.FlagSet, name, value string) *string {
	if !fs.Changed(name) {
		return nil
	}
	return &value
}

func newReportCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:       "report [up|down|initializing|unmonitored|total]",
		Short:     "Print a count of services by state",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: reportTypes,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := opts.newClient()
			if err != nil {
				return err
			}

			var reportType *string
			if len(args) == 1 {
				reportType = &args[0]
			}
			if !client.Report(cmd.Context(), reportType) {
				return errFailed
			}
			return nil
		},
	}
}

func newMCPCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve status, summary and report as MCP tools over stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, log, err := opts.newClient()
			if err != nil {
				return err
			}
			log.WithField("version", buildVersion).Info("starting MCP server on stdio")

			s := mcpserve.New(client, buildVersion)
			if err := mcpserve.Serve(cmd.Context(), s, cmd.InOrStdin(), cmd.OutOrStdout()); err != nil {
				return &runtimeError{err: fmt.Errorf("serving MCP: %w", err)}
			}
			return nil
		},
	}
}
