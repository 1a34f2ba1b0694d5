package config

import (
	"strings"
	"time"
)

// DefaultNetworkTimeout bounds connect, handshake and reads when
// network_timeout is unset.
const DefaultNetworkTimeout = 5 * time.Second

// Config is the top-level monitctl configuration.
type Config struct {
	PidFile        string      `toml:"pidfile,omitempty"`
	NoColor        bool        `toml:"no_color,omitempty"`
	NetworkTimeout string      `toml:"network_timeout,omitempty"`
	HTTPD          HTTPDConfig `toml:"httpd"`
}

// HTTPDConfig describes how to reach the daemon's HTTP interface.
type HTTPDConfig struct {
	// Network endpoint
	Address string    `toml:"address,omitempty"`
	Port    int       `toml:"port,omitempty"`
	SSL     SSLConfig `toml:"ssl"`

	// Local socket endpoint
	UnixSocket string `toml:"unix_socket,omitempty"`

	Allow []Credential `toml:"allow,omitempty"`
}

// SSLConfig holds TLS options for the network endpoint.
type SSLConfig struct {
	Enabled         bool   `toml:"enabled,omitempty"`
	ClientPEM       string `toml:"client_pem,omitempty"`
	AllowSelfSigned bool   `toml:"allow_self_signed,omitempty"`
}

// Credential is a username/password pair the client may present.
type Credential struct {
	Username string `toml:"username"`
	Password string `toml:"password,omitempty"`
	// Keyring looks the password up in the OS keyring instead.
	Keyring bool `toml:"keyring,omitempty"`
}

// IsNet returns true if the daemon listens on a TCP port.
func (h HTTPDConfig) IsNet() bool {
	return h.Port > 0
}

// IsUnix returns true if the daemon listens on a local socket.
func (h HTTPDConfig) IsUnix() bool {
	return strings.TrimSpace(h.UnixSocket) != ""
}

// Enabled reports whether any HTTP interface is configured.
func (h HTTPDConfig) Enabled() bool {
	return h.IsNet() || h.IsUnix()
}

// Timeout returns the parsed network timeout, or DefaultNetworkTimeout
// when unset or invalid. Validate reports invalid values.
func (c *Config) Timeout() time.Duration {
	if c == nil || c.NetworkTimeout == "" {
		return DefaultNetworkTimeout
	}
	d, err := time.ParseDuration(c.NetworkTimeout)
	if err != nil || d <= 0 {
		return DefaultNetworkTimeout
	}
	return d
}
