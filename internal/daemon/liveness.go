package daemon

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

var getpgidFn = unix.Getpgid

// Probe checks whether the monitoring daemon is running by way of its pid
// file. It never talks to the daemon's HTTP interface.
type Probe struct {
	PidFile string
}

// NewProbe returns a Probe for the given pid file.
func NewProbe(pidFile string) *Probe {
	return &Probe{PidFile: pidFile}
}

// PID reads the daemon pid from the pid file.
func (p *Probe) PID() (int, error) {
	data, err := os.ReadFile(p.PidFile)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("parsing pid file %s: %w", p.PidFile, err)
	}
	if pid <= 0 {
		return 0, fmt.Errorf("pid file %s: invalid pid %d", p.PidFile, pid)
	}
	return pid, nil
}

// Running reports whether the process named by the pid file exists.
// A process owned by another user (EPERM) still counts as running.
func (p *Probe) Running() bool {
	pid, err := p.PID()
	if err != nil {
		return false
	}
	if _, err := getpgidFn(pid); err != nil {
		return errors.Is(err, unix.EPERM)
	}
	return true
}
