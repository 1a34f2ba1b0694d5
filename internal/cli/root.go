package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/lydakis/monitctl/internal/auth"
	"github.com/lydakis/monitctl/internal/config"
	"github.com/lydakis/monitctl/internal/daemon"
	"github.com/lydakis/monitctl/internal/monit"
	"github.com/lydakis/monitctl/internal/transport"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// Exit codes.
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitUsage   = 2
)

// errFailed marks a command that already reported its own diagnostic.
var errFailed = errors.New("command failed")

// runtimeError is a failure while doing the work, as opposed to a problem
// with flags, arguments or configuration.
type runtimeError struct {
	err error
}

func (e *runtimeError) Error() string { return e.err.Error() }
func (e *runtimeError) Unwrap() error { return e.err }

type rootOptions struct {
	configPath string
	logLevel   string
	noColor    bool
}

// Run is the main CLI entry point. Returns an exit code.
func Run(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := newRootCommand()
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, errFailed):
		return ExitFailure
	default:
		fmt.Fprintf(rootStderr, "monitctl: %v\n", err)
		var rerr *runtimeError
		if errors.As(err, &rerr) {
			return ExitFailure
		}
		return ExitUsage
	}
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "monitctl",
		Short:         "Query a running monit daemon",
		Long:          "monitctl asks a running monit daemon for service status, summary or report text over its HTTP interface.",
		Version:       buildVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(rootStdout)
	root.SetErr(rootStderr)
	root.SetIn(rootStdin)

	pf := root.PersistentFlags()
	pf.StringVarP(&opts.configPath, "config", "c", "", fmt.Sprintf("config file (default %s)", config.ExampleConfigPath()))
	pf.StringVarP(&opts.logLevel, "log-level", "l", "warn",
		"Set the logging level (\"trace\"|\"debug\"|\"info\"|\"warn\"|\"error\")")
	pf.BoolVar(&opts.noColor, "no-color", false, "Ask the daemon for uncolored output")

	root.AddCommand(
		newQueryCommand(opts, monit.EndpointStatus),
		newQueryCommand(opts, monit.EndpointSummary),
		newReportCommand(opts),
		newMCPCommand(opts),
		newConfigCommand(opts),
	)
	return root
}

func (o *rootOptions) loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if o.configPath != "" {
		cfg, err = config.LoadFrom(o.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if verr := config.Validate(cfg); verr != nil {
		return nil, fmt.Errorf("invalid config: %w", verr)
	}
	if o.noColor {
		cfg.NoColor = true
	}
	return cfg, nil
}

func (o *rootOptions) logger() (*logrus.Logger, error) {
	return newLogger(o.logLevel, rootStderr)
}

// newClient wires config, auth, liveness and logging into a monit client.
func (o *rootOptions) newClient() (*monit.Client, *logrus.Logger, error) {
	log, err := o.logger()
	if err != nil {
		return nil, nil, err
	}
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, nil, err
	}

	header, err := auth.Header(cfg.HTTPD.Allow)
	if err != nil {
		log.WithError(err).Warn("continuing without credentials")
		header = ""
	}

	probe := daemon.NewProbe(cfg.PidFileOrDefault())
	client := monit.New(monit.Config{
		Target:     targetFor(cfg.HTTPD),
		Timeout:    cfg.Timeout(),
		NoColor:    cfg.NoColor,
		AuthHeader: header,
	},
		monit.WithLiveness(probe.Running),
		monit.WithOutput(rootStdout),
		monit.WithLogger(log),
	)
	return client, log, nil
}

// targetFor selects the network interface when configured, else the local
// socket, else nil (interface disabled).
func targetFor(h config.HTTPDConfig) *transport.Target {
	var t transport.Target
	switch {
	case h.IsNet():
		t = transport.NetTarget(h.Address, h.Port, transport.TLSOptions{
			Enabled:         h.SSL.Enabled,
			ClientPEM:       h.SSL.ClientPEM,
			AllowSelfSigned: h.SSL.AllowSelfSigned,
		})
	case h.IsUnix():
		t = transport.UnixTarget(h.UnixSocket)
	default:
		return nil
	}
	return &t
}
