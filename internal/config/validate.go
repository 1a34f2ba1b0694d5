package config

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"time"
)

// Validate checks configuration invariants and returns actionable errors.
func Validate(cfg *Config) error {
	if cfg == nil {
		return nil
	}

	var errs []error
	if cfg.NetworkTimeout != "" {
		d, err := time.ParseDuration(cfg.NetworkTimeout)
		if err != nil {
			errs = append(errs, fmt.Errorf("network_timeout: invalid duration %q: %w", cfg.NetworkTimeout, err))
		} else if d <= 0 {
			errs = append(errs, fmt.Errorf("network_timeout: must be > 0, got %q", cfg.NetworkTimeout))
		}
	}
	errs = append(errs, validateHTTPD(cfg.HTTPD)...)

	return errors.Join(errs...)
}

func validateHTTPD(h HTTPDConfig) []error {
	var errs []error

	if h.Port < 0 || h.Port > 65535 {
		errs = append(errs, fmt.Errorf("httpd.port: must be between 1 and 65535, got %d", h.Port))
	}

	if addr := strings.TrimSpace(h.Address); addr != "" {
		if ip := net.ParseIP(addr); ip != nil && ip.To4() == nil {
			errs = append(errs, fmt.Errorf("httpd.address: IPv6 address %q is not supported", addr))
		}
		if !h.IsNet() {
			errs = append(errs, fmt.Errorf("httpd.address: set without httpd.port"))
		}
	}

	if h.SSL.Enabled && !h.IsNet() {
		errs = append(errs, fmt.Errorf("httpd.ssl: TLS requires the network interface, set httpd.port"))
	}
	if !h.SSL.Enabled && (h.SSL.ClientPEM != "" || h.SSL.AllowSelfSigned) {
		errs = append(errs, fmt.Errorf("httpd.ssl: client_pem and allow_self_signed require enabled = true"))
	}

	for i, cred := range h.Allow {
		if strings.TrimSpace(cred.Username) == "" {
			errs = append(errs, fmt.Errorf("httpd.allow[%d]: missing username", i))
		}
		if cred.Keyring && cred.Password != "" {
			errs = append(errs, fmt.Errorf("httpd.allow[%d]: set either password or keyring, not both", i))
		}
	}

	return errs
}
