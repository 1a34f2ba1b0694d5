package daemon

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"golang.org/x/sys/unix"
)

func writePidFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "monit.pid")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("writing pid file: %v", err)
	}
	return path
}

func TestProbeRunningForCurrentProcess(t *testing.T) {
	path := writePidFile(t, strconv.Itoa(os.Getpid())+"\n")

	if !NewProbe(path).Running() {
		t.Fatal("Running() = false, want true for current process")
	}
}

func TestProbeMissingPidFile(t *testing.T) {
	p := NewProbe(filepath.Join(t.TempDir(), "missing.pid"))
	if p.Running() {
		t.Fatal("Running() = true, want false for missing pid file")
	}
}

func TestProbeGarbledPidFile(t *testing.T) {
	for _, content := range []string{"", "abc", "-4", "0"} {
		p := NewProbe(writePidFile(t, content))
		if p.Running() {
			t.Fatalf("Running() = true for pid file %q, want false", content)
		}
		if _, err := p.PID(); err == nil {
			t.Fatalf("PID() error = nil for pid file %q", content)
		}
	}
}

func TestProbeTreatsEPERMAsRunning(t *testing.T) {
	restore := getpgidFn
	defer func() { getpgidFn = restore }()

	path := writePidFile(t, "4242")

	getpgidFn = func(pid int) (int, error) { return 0, unix.EPERM }
	if !NewProbe(path).Running() {
		t.Fatal("Running() = false on EPERM, want true")
	}

	getpgidFn = func(pid int) (int, error) { return 0, unix.ESRCH }
	if NewProbe(path).Running() {
		t.Fatal("Running() = true on ESRCH, want false")
	}
}
