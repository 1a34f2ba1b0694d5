package monit

import "errors"

// Daemon unreachable errors. Both are reported before any connection is
// attempted.
var (
	ErrInterfaceDisabled = errors.New("monit http interface is not enabled, please add the 'set httpd' statement")
	ErrDaemonNotRunning  = errors.New("the monit daemon is not running")
)

// IsDaemonUnreachable reports whether err means the daemon could not be
// asked at all: its HTTP interface is disabled or it is not running.
func IsDaemonUnreachable(err error) bool {
	return errors.Is(err, ErrInterfaceDisabled) || errors.Is(err, ErrDaemonNotRunning)
}
