// Package transport opens the single connection used for one request to the
// daemon's HTTP interface: TCP over IPv4 (optionally TLS) or a local socket.
package transport

import (
	"fmt"
	"net"
	"strconv"
)

// DefaultHost is dialed when a network target has no address.
const DefaultHost = "localhost"

// Kind selects the Target variant.
type Kind int

const (
	KindNet Kind = iota + 1
	KindUnix
)

// TLSOptions configure the TLS layer of a network target.
type TLSOptions struct {
	Enabled bool
	// ClientPEM is a PEM file holding the client certificate and its key.
	ClientPEM string
	// AllowSelfSigned accepts a server whose certificate is signed by itself.
	AllowSelfSigned bool
}

// Target is where the daemon listens. Exactly one variant is populated;
// use NetTarget or UnixTarget to build one.
type Target struct {
	kind Kind

	Host string
	Port int
	TLS  TLSOptions

	Path string
}

// NetTarget returns a TCP target. An empty host means DefaultHost.
func NetTarget(host string, port int, tlsOpts TLSOptions) Target {
	return Target{kind: KindNet, Host: host, Port: port, TLS: tlsOpts}
}

// UnixTarget returns a local socket target.
func UnixTarget(path string) Target {
	return Target{kind: KindUnix, Path: path}
}

// Kind returns the populated variant.
func (t Target) Kind() Kind {
	return t.kind
}

// Addr returns host:port for network targets and the socket path otherwise.
func (t Target) Addr() string {
	if t.kind == KindUnix {
		return t.Path
	}
	host := t.Host
	if host == "" {
		host = DefaultHost
	}
	return net.JoinHostPort(host, strconv.Itoa(t.Port))
}

func (t Target) String() string {
	switch t.kind {
	case KindNet:
		scheme := "tcp"
		if t.TLS.Enabled {
			scheme = "tls"
		}
		return fmt.Sprintf("%s://%s", scheme, t.Addr())
	case KindUnix:
		return "unix://" + t.Path
	default:
		return "<none>"
	}
}
