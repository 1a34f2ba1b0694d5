package paths

import (
	"os"
	"path/filepath"
)

const appName = "monitctl"

func homeDir() string {
	if h := os.Getenv("HOME"); h != "" {
		return h
	}
	h, _ := os.UserHomeDir()
	return h
}

func xdgDir(envVar, fallbackSuffix string) string {
	if v := os.Getenv(envVar); v != "" {
		return filepath.Join(v, appName)
	}
	return filepath.Join(homeDir(), fallbackSuffix, appName)
}

// ConfigDir returns the monitctl config directory ($XDG_CONFIG_HOME/monitctl).
func ConfigDir() string {
	return xdgDir("XDG_CONFIG_HOME", ".config")
}

// ConfigFile returns the path to config.toml.
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// DefaultPidFile returns the pid file a monit daemon writes when none is
// configured: /run/monit.pid for root, ~/.monit.pid otherwise.
func DefaultPidFile() string {
	if os.Geteuid() == 0 {
		return filepath.Join(string(filepath.Separator), "run", "monit.pid")
	}
	return filepath.Join(homeDir(), ".monit.pid")
}
