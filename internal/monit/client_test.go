package monit

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lydakis/monitctl/internal/transport"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

// countingConn counts Close calls on the client side of a pipe.
type countingConn struct {
	net.Conn
	closes atomic.Int32
}

func (c *countingConn) Close() error {
	c.closes.Add(1)
	return c.Conn.Close()
}

// fakeDaemon answers every dial with a canned response over net.Pipe and
// records the request it received.
type fakeDaemon struct {
	response string

	mu       sync.Mutex
	requests []string
	conns    []*countingConn
	dials    int
	wg       sync.WaitGroup
}

func (d *fakeDaemon) dial(ctx context.Context, target transport.Target, timeout time.Duration) (net.Conn, error) {
	serverConn, clientConn := net.Pipe()
	cc := &countingConn{Conn: clientConn}

	d.mu.Lock()
	d.dials++
	d.conns = append(d.conns, cc)
	d.mu.Unlock()

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer serverConn.Close()

		var req strings.Builder
		br := bufio.NewReader(serverConn)
		for {
			line, err := br.ReadString('\n')
			req.WriteString(line)
			if err != nil || line == "\r\n" {
				break
			}
		}
		d.mu.Lock()
		d.requests = append(d.requests, req.String())
		d.mu.Unlock()

		_, _ = serverConn.Write([]byte(d.response))
	}()
	return cc, nil
}

func (d *fakeDaemon) wait() {
	d.wg.Wait()
}

func netTarget() *transport.Target {
	t := transport.NetTarget("localhost", 2812, transport.TLSOptions{})
	return &t
}

func newTestClient(cfg Config, d *fakeDaemon, out *bytes.Buffer, opts ...Option) (*Client, *test.Hook) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	base := []Option{
		WithDialer(d.dial),
		WithColor(func() bool { return false }),
		WithOutput(out),
		WithLogger(logger),
	}
	return New(cfg, append(base, opts...)...), hook
}

func errorEntries(hook *test.Hook) []*logrus.Entry {
	var out []*logrus.Entry
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.ErrorLevel {
			out = append(out, e)
		}
	}
	return out
}

func TestStatusSendsRequestAndStreamsBody(t *testing.T) {
	d := &fakeDaemon{response: "HTTP/1.0 200 OK\r\nContent-Type: text/plain\r\n\r\n" +
		"line one\nline two\nline three\n"}
	var out bytes.Buffer
	c, hook := newTestClient(Config{Target: netTarget(), Timeout: time.Second}, d, &out)

	if ok := c.Status(context.Background(), nil, strPtr("nginx")); !ok {
		t.Fatalf("Status() = false, want true; log: %v", hook.AllEntries())
	}
	d.wait()

	wantReq := "GET /_status?service=nginx&format=text&color=no HTTP/1.0\r\n\r\n"
	if len(d.requests) != 1 || d.requests[0] != wantReq {
		t.Fatalf("requests = %q, want [%q]", d.requests, wantReq)
	}
	if got, want := out.String(), "line one\nline two\nline three\n"; got != want {
		t.Fatalf("output = %q, want %q", got, want)
	}
	if n := len(errorEntries(hook)); n != 0 {
		t.Fatalf("error log entries = %d, want 0", n)
	}
	if n := d.conns[0].closes.Load(); n != 1 {
		t.Fatalf("connection closed %d times, want 1", n)
	}
}

func TestSummaryAndReportRequests(t *testing.T) {
	d := &fakeDaemon{response: "HTTP/1.0 200 OK\r\n\r\n"}
	var out bytes.Buffer
	c, _ := newTestClient(Config{
		Target:     netTarget(),
		AuthHeader: "Authorization: Basic YWRtaW46bW9uaXQ=",
	}, d, &out, WithColor(func() bool { return true }))

	if !c.Summary(context.Background(), strPtr("web servers"), strPtr("nginx")) {
		t.Fatal("Summary() = false, want true")
	}
	if !c.Report(context.Background(), strPtr("down")) {
		t.Fatal("Report() = false, want true")
	}
	d.wait()

	want := []string{
		"GET /_summary?service=nginx&group=web%20servers&format=text&color=yes HTTP/1.0\r\n" +
			"Authorization: Basic YWRtaW46bW9uaXQ=\r\n\r\n",
		"GET /_report?type=down&format=text&color=yes HTTP/1.0\r\n" +
			"Authorization: Basic YWRtaW46bW9uaXQ=\r\n\r\n",
	}
	if len(d.requests) != len(want) {
		t.Fatalf("requests = %q, want %q", d.requests, want)
	}
	for i := range want {
		if d.requests[i] != want[i] {
			t.Fatalf("request[%d] = %q, want %q", i, d.requests[i], want[i])
		}
	}
}

func TestStatusFailureStatusLogsOnceAndPrintsNothing(t *testing.T) {
	d := &fakeDaemon{response: monitUnauthorizedPage}
	var out bytes.Buffer
	c, hook := newTestClient(Config{Target: netTarget()}, d, &out)

	if ok := c.Status(context.Background(), nil, nil); ok {
		t.Fatal("Status() = true, want false")
	}
	d.wait()

	if out.Len() != 0 {
		t.Fatalf("output = %q, want empty", out.String())
	}
	entries := errorEntries(hook)
	if len(entries) != 1 {
		t.Fatalf("error log entries = %d, want 1", len(entries))
	}
	if !strings.Contains(entries[0].Message, "401 Unauthorized") {
		t.Fatalf("diagnostic = %q, want 401 message", entries[0].Message)
	}
	if entries[0].Data["endpoint"] != EndpointStatus {
		t.Fatalf("endpoint field = %v, want %q", entries[0].Data["endpoint"], EndpointStatus)
	}
}

func TestMalformedHeaderClosesConnectionOnce(t *testing.T) {
	d := &fakeDaemon{response: "this is not http\r\n\r\n"}
	var out bytes.Buffer
	c, hook := newTestClient(Config{Target: netTarget()}, d, &out)

	if ok := c.Report(context.Background(), nil); ok {
		t.Fatal("Report() = true, want false")
	}
	d.wait()

	if len(d.conns) != 1 {
		t.Fatalf("dials = %d, want 1", len(d.conns))
	}
	if n := d.conns[0].closes.Load(); n != 1 {
		t.Fatalf("connection closed %d times, want 1", n)
	}
	if n := len(errorEntries(hook)); n != 1 {
		t.Fatalf("error log entries = %d, want 1", n)
	}
	if out.Len() != 0 {
		t.Fatalf("output = %q, want empty", out.String())
	}
}

func TestFetchReturnsProtocolError(t *testing.T) {
	d := &fakeDaemon{response: "HTTP/1.0 500 Internal Server Error\r\n\r\n"}
	c, _ := newTestClient(Config{Target: netTarget()}, d, &bytes.Buffer{})

	var out bytes.Buffer
	err := c.Fetch(context.Background(), StatusRequest(nil, nil), &out)
	d.wait()

	var perr *ProtocolError
	if !errors.As(err, &perr) || perr.StatusCode != 500 {
		t.Fatalf("Fetch() error = %v, want 500 *ProtocolError", err)
	}
}

func TestInterfaceDisabledSkipsLiveness(t *testing.T) {
	d := &fakeDaemon{}
	livenessCalls := 0
	var out bytes.Buffer
	c, hook := newTestClient(Config{}, d, &out, WithLiveness(func() bool {
		livenessCalls++
		return true
	}))

	if ok := c.Status(context.Background(), nil, nil); ok {
		t.Fatal("Status() = true, want false")
	}
	if livenessCalls != 0 {
		t.Fatalf("liveness called %d times, want 0", livenessCalls)
	}
	if d.dials != 0 {
		t.Fatalf("dials = %d, want 0", d.dials)
	}
	entries := errorEntries(hook)
	if len(entries) != 1 || !strings.Contains(entries[0].Message, "interface is not enabled") {
		t.Fatalf("error entries = %v, want one interface-disabled diagnostic", entries)
	}

	err := c.Fetch(context.Background(), StatusRequest(nil, nil), &out)
	if !errors.Is(err, ErrInterfaceDisabled) || !IsDaemonUnreachable(err) {
		t.Fatalf("Fetch() error = %v, want ErrInterfaceDisabled", err)
	}
}

func TestDaemonNotRunningNeverDials(t *testing.T) {
	d := &fakeDaemon{}
	var out bytes.Buffer
	c, hook := newTestClient(Config{Target: netTarget()}, d, &out, WithLiveness(func() bool { return false }))

	if ok := c.Summary(context.Background(), nil, nil); ok {
		t.Fatal("Summary() = true, want false")
	}
	if d.dials != 0 {
		t.Fatalf("dials = %d, want 0", d.dials)
	}
	entries := errorEntries(hook)
	if len(entries) != 1 || entries[0].Message != "Status not available -- the monit daemon is not running" {
		t.Fatalf("error entries = %v, want daemon-not-running diagnostic", entries)
	}
}

func TestConnectionErrorIsReported(t *testing.T) {
	dialErr := &transport.ConnectionError{Target: "tcp://localhost:2812", Err: errors.New("connection refused")}
	var out bytes.Buffer
	logger, hook := test.NewNullLogger()
	c := New(Config{Target: netTarget()},
		WithDialer(func(ctx context.Context, target transport.Target, timeout time.Duration) (net.Conn, error) {
			return nil, dialErr
		}),
		WithOutput(&out),
		WithLogger(logger),
	)

	if ok := c.Status(context.Background(), nil, nil); ok {
		t.Fatal("Status() = true, want false")
	}
	entries := errorEntries(hook)
	if len(entries) != 1 || !strings.Contains(entries[0].Message, "connection refused") {
		t.Fatalf("error entries = %v, want connection diagnostic", entries)
	}

	err := c.Fetch(context.Background(), StatusRequest(nil, nil), &out)
	var cerr *transport.ConnectionError
	if !errors.As(err, &cerr) {
		t.Fatalf("Fetch() error = %v, want *transport.ConnectionError", err)
	}
}

func TestClientOverUnixSocket(t *testing.T) {
	socketPath := t.TempDir() + "/monit.sock"
	ln, err := net.Listen("unix", socketPath)
	if err != nil {
		t.Fatalf("listen unix: %v", err)
	}
	defer ln.Close()

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		br := bufio.NewReader(conn)
		for {
			line, err := br.ReadString('\n')
			if err != nil || line == "\r\n" {
				break
			}
		}
		_, _ = conn.Write([]byte("HTTP/1.0 200 OK\r\n\r\nThe Monit daemon 5.34.0 uptime: 1h 0m\n"))
	}()

	target := transport.UnixTarget(socketPath)
	var out bytes.Buffer
	logger, _ := test.NewNullLogger()
	c := New(Config{Target: &target, Timeout: time.Second},
		WithOutput(&out),
		WithLogger(logger),
		WithColor(func() bool { return false }),
	)

	if !c.Status(context.Background(), nil, nil) {
		t.Fatal("Status() = false, want true")
	}
	if !strings.HasPrefix(out.String(), "The Monit daemon") {
		t.Fatalf("output = %q", out.String())
	}
}
