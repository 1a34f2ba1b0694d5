package config

import (
	"fmt"
	"os"
	"regexp"

	"github.com/BurntSushi/toml"
	"github.com/lydakis/monitctl/internal/paths"
)

var envVarRe = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Load reads the config file and returns the parsed Config.
// If the config file does not exist, it falls back to the monit control
// file, and then to an empty Config (no error).
func Load() (*Config, error) {
	return load(paths.ConfigFile(), true)
}

// LoadFrom reads and parses a config file at the given path. Unlike Load,
// a missing file is an error.
func LoadFrom(path string) (*Config, error) {
	return load(path, false)
}

func load(path string, fallback bool) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if fallback && os.IsNotExist(err) {
			return loadControlFileFallback()
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	expandConfigEnvVars(&cfg)
	return &cfg, nil
}

// ExampleConfigPath returns the default config file path (for help messages).
func ExampleConfigPath() string {
	return paths.ConfigFile()
}

// PidFileOrDefault returns the configured daemon pid file or the platform default.
func (c *Config) PidFileOrDefault() string {
	if c != nil && c.PidFile != "" {
		return c.PidFile
	}
	return paths.DefaultPidFile()
}

func expandConfigEnvVars(cfg *Config) {
	if cfg == nil {
		return
	}

	cfg.PidFile = expandEnvVars(cfg.PidFile)
	cfg.HTTPD.Address = expandEnvVars(cfg.HTTPD.Address)
	cfg.HTTPD.UnixSocket = expandEnvVars(cfg.HTTPD.UnixSocket)
	cfg.HTTPD.SSL.ClientPEM = expandEnvVars(cfg.HTTPD.SSL.ClientPEM)
	for i := range cfg.HTTPD.Allow {
		cfg.HTTPD.Allow[i].Username = expandEnvVars(cfg.HTTPD.Allow[i].Username)
		cfg.HTTPD.Allow[i].Password = expandEnvVars(cfg.HTTPD.Allow[i].Password)
	}
}

// expandEnvVars replaces ${VAR_NAME} with the value of the environment variable.
func expandEnvVars(s string) string {
	return envVarRe.ReplaceAllStringFunc(s, func(match string) string {
		name := envVarRe.FindStringSubmatch(match)[1]
		if val, ok := os.LookupEnv(name); ok {
			return val
		}
		return match // leave unresolved vars as-is
	})
}
