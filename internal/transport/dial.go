package transport

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"time"
)

// ConnectionError reports a failure to connect or to complete the TLS
// handshake.
type ConnectionError struct {
	Target string
	Err    error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("cannot connect to the monit daemon at %s: %v", e.Target, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

var loadClientCertFn = func(path string) (tls.Certificate, error) {
	return tls.LoadX509KeyPair(path, path)
}

// Dial connects to target. The timeout bounds connection establishment and,
// for TLS targets, the handshake. Nothing is retried.
func Dial(ctx context.Context, target Target, timeout time.Duration) (net.Conn, error) {
	conn, err := dial(ctx, target, timeout)
	if err != nil {
		return nil, &ConnectionError{Target: target.String(), Err: err}
	}
	return conn, nil
}

func dial(ctx context.Context, target Target, timeout time.Duration) (net.Conn, error) {
	d := &net.Dialer{Timeout: timeout}

	switch target.Kind() {
	case KindUnix:
		return d.DialContext(ctx, "unix", target.Path)
	case KindNet:
		if !target.TLS.Enabled {
			return d.DialContext(ctx, "tcp4", target.Addr())
		}
		cfg, err := clientTLSConfig(target)
		if err != nil {
			return nil, err
		}
		td := &tls.Dialer{NetDialer: d, Config: cfg}
		return td.DialContext(ctx, "tcp4", target.Addr())
	default:
		return nil, errors.New("no connection target configured")
	}
}

func clientTLSConfig(target Target) (*tls.Config, error) {
	host := target.Host
	if host == "" {
		host = DefaultHost
	}
	cfg := &tls.Config{
		MinVersion: tls.VersionTLS12,
		ServerName: host,
	}

	if target.TLS.ClientPEM != "" {
		cert, err := loadClientCertFn(target.TLS.ClientPEM)
		if err != nil {
			return nil, fmt.Errorf("loading client certificate %s: %w", target.TLS.ClientPEM, err)
		}
		cfg.Certificates = []tls.Certificate{cert}
	}

	if target.TLS.AllowSelfSigned {
		// Standard verification is redone in VerifyConnection so that only the
		// self-signed case is relaxed.
		cfg.InsecureSkipVerify = true
		cfg.VerifyConnection = func(cs tls.ConnectionState) error {
			return verifyAllowingSelfSigned(cs, host)
		}
	}
	return cfg, nil
}

func verifyAllowingSelfSigned(cs tls.ConnectionState, host string) error {
	if len(cs.PeerCertificates) == 0 {
		return errors.New("server presented no certificate")
	}
	leaf := cs.PeerCertificates[0]

	intermediates := x509.NewCertPool()
	for _, cert := range cs.PeerCertificates[1:] {
		intermediates.AddCert(cert)
	}
	_, err := leaf.Verify(x509.VerifyOptions{
		DNSName:       host,
		Intermediates: intermediates,
	})
	if err == nil {
		return nil
	}
	if isSelfSigned(leaf) {
		return nil
	}
	return err
}

func isSelfSigned(cert *x509.Certificate) bool {
	if len(cert.RawIssuer) == 0 || string(cert.RawIssuer) != string(cert.RawSubject) {
		return false
	}
	return cert.CheckSignature(cert.SignatureAlgorithm, cert.RawTBSCertificate, cert.Signature) == nil
}
