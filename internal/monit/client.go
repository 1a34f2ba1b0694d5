// Package monit queries the monitoring daemon's HTTP interface for status,
// summary and report text.
//
// One call performs one exchange on a fresh connection:
//
//	interface check -> liveness -> connect -> GET -> header -> body -> close
//
// The connection is closed on every path. Body lines are written to the
// output as they arrive.
package monit

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"time"

	"github.com/lydakis/monitctl/internal/transport"
	"github.com/sirupsen/logrus"
)

// Config is the read-only input for a Client.
type Config struct {
	// Target is nil when the daemon's HTTP interface is not enabled.
	Target  *transport.Target
	Timeout time.Duration
	NoColor bool
	// AuthHeader is a complete header line without CRLF, or "".
	AuthHeader string
}

// DialFunc opens the connection for one exchange.
type DialFunc func(ctx context.Context, target transport.Target, timeout time.Duration) (net.Conn, error)

// Client talks to the daemon. It holds no per-call state and may be reused
// for sequential calls.
type Client struct {
	cfg      Config
	alive    func() bool
	dial     DialFunc
	hasColor func() bool
	out      io.Writer
	log      logrus.FieldLogger
}

// Option configures a Client.
type Option func(*Client)

// WithLiveness sets the daemon presence check run before connecting.
func WithLiveness(alive func() bool) Option {
	return func(c *Client) { c.alive = alive }
}

// WithDialer replaces transport.Dial.
func WithDialer(dial DialFunc) Option {
	return func(c *Client) { c.dial = dial }
}

// WithColor replaces the environment based color decision.
func WithColor(hasColor func() bool) Option {
	return func(c *Client) { c.hasColor = hasColor }
}

// WithOutput sets where Status, Summary and Report write body lines.
func WithOutput(w io.Writer) Option {
	return func(c *Client) { c.out = w }
}

// WithLogger sets the logger that receives failure diagnostics.
func WithLogger(log logrus.FieldLogger) Option {
	return func(c *Client) { c.log = log }
}

// New creates a Client. Without WithLiveness the daemon is assumed present.
func New(cfg Config, opts ...Option) *Client {
	c := &Client{
		cfg:   cfg,
		alive: func() bool { return true },
		dial:  transport.Dial,
		out:   os.Stdout,
		log:   logrus.StandardLogger(),
	}
	c.hasColor = EnvColor(cfg.NoColor)
	for _, opt := range opts {
		opt(c)
	}
	if c.cfg.Timeout <= 0 {
		c.cfg.Timeout = 5 * time.Second
	}
	return c
}

// Status prints the status of all services, or of the given group/service.
func (c *Client) Status(ctx context.Context, group, service *string) bool {
	return c.run(ctx, StatusRequest(group, service))
}

// Summary prints the one-line-per-service summary.
func (c *Client) Summary(ctx context.Context, group, service *string) bool {
	return c.run(ctx, SummaryRequest(group, service))
}

// Report prints the service count report, optionally for one state type.
func (c *Client) Report(ctx context.Context, reportType *string) bool {
	return c.run(ctx, ReportRequest(reportType))
}

func (c *Client) run(ctx context.Context, req *Request) bool {
	if err := c.Fetch(ctx, req, c.out); err != nil {
		c.log.WithField("endpoint", req.Endpoint()).Error(Diagnostic(err))
		return false
	}
	return true
}

// Diagnostic renders err as the single user-facing failure line.
func Diagnostic(err error) string {
	if IsDaemonUnreachable(err) {
		return "Status not available -- " + err.Error()
	}
	return err.Error()
}

// Fetch performs one complete exchange for req and writes the response
// body to w. The error is ErrInterfaceDisabled, ErrDaemonNotRunning, a
// *transport.ConnectionError, a *ProtocolError, or an output write error.
func (c *Client) Fetch(ctx context.Context, req *Request, w io.Writer) error {
	if c.cfg.Target == nil {
		return ErrInterfaceDisabled
	}
	if !c.alive() {
		return ErrDaemonNotRunning
	}

	target := *c.cfg.Target
	c.log.WithField("target", target.String()).Debug("connecting to daemon")
	conn, err := c.dial(ctx, target, c.cfg.Timeout)
	if err != nil {
		return err
	}
	defer conn.Close()

	return c.exchange(conn, req.Path(), w)
}

func (c *Client) exchange(conn net.Conn, path string, w io.Writer) error {
	refresh := func() {
		_ = conn.SetDeadline(time.Now().Add(c.cfg.Timeout))
	}

	refresh()
	if err := writeRequest(conn, path, c.hasColor(), c.cfg.AuthHeader); err != nil {
		return &ProtocolError{Message: "error sending request", Err: err}
	}

	resp, err := readHeader(bufio.NewReader(conn))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := streamBody(resp.Body, w, refresh); err != nil {
		return fmt.Errorf("streaming %s: %w", path, err)
	}
	return nil
}
