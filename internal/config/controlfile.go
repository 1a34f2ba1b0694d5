package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

var controlFilePathsFn = controlFilePaths

// controlFilePaths lists monit control files in the order the daemon
// itself searches them.
func controlFilePaths() []string {
	var out []string
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		out = append(out, filepath.Join(home, ".monitrc"))
	}
	return append(out,
		"/etc/monitrc",
		"/usr/local/etc/monitrc",
		"monitrc",
	)
}

func loadControlFileFallback() (*Config, error) {
	for _, path := range controlFilePathsFn() {
		cfg, err := LoadControlFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return cfg, nil
	}
	return &Config{}, nil
}

// LoadControlFile extracts the client-relevant subset of a monit control
// file: the pid file and the "set httpd" statement. Everything else in the
// file is ignored.
func LoadControlFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parseControlFile(string(data))
}

func parseControlFile(src string) (*Config, error) {
	cfg := &Config{}
	toks := tokenizeControlFile(src)

	for i := 0; i < len(toks); i++ {
		if !strings.EqualFold(toks[i], "set") || i+1 >= len(toks) {
			continue
		}
		switch strings.ToLower(toks[i+1]) {
		case "pidfile":
			if i+2 < len(toks) {
				cfg.PidFile = toks[i+2]
			}
			i += 2
		case "httpd":
			end := i + 2
			for end < len(toks) && !isTopLevelKeyword(toks[end]) {
				end++
			}
			if err := parseHTTPD(&cfg.HTTPD, toks[i+2:end]); err != nil {
				return nil, err
			}
			i = end - 1
		}
	}
	return cfg, nil
}

func parseHTTPD(h *HTTPDConfig, toks []string) error {
	inSSL := false
	for i := 0; i < len(toks); i++ {
		tok := strings.ToLower(toks[i])
		inline, hasInline := "", false
		if key, val, ok := strings.Cut(toks[i], ":"); ok && inSSL {
			tok, inline, hasInline = strings.ToLower(key), val, true
		}
		next := func() string {
			if hasInline {
				return inline
			}
			if i+1 < len(toks) {
				i++
				return toks[i]
			}
			return ""
		}

		switch {
		case tok == "{":
			continue
		case tok == "}":
			inSSL = false
		case tok == "port":
			raw := next()
			port, err := strconv.Atoi(raw)
			if err != nil {
				return fmt.Errorf("set httpd: invalid port %q", raw)
			}
			h.Port = port
		case tok == "address":
			h.Address = next()
		case tok == "unixsocket":
			h.UnixSocket = next()
		case tok == "ssl":
			if i+1 < len(toks) && strings.EqualFold(toks[i+1], "disable") {
				h.SSL.Enabled = false
				i++
				continue
			}
			h.SSL.Enabled = true
			inSSL = i+1 < len(toks) && toks[i+1] == "{"
		case inSSL && tok == "clientpemfile":
			h.SSL.ClientPEM = next()
		case inSSL && tok == "selfsigned":
			h.SSL.AllowSelfSigned = strings.EqualFold(next(), "allow")
		case tok == "allow":
			if cred, ok := parseAllowCredential(next()); ok {
				h.Allow = append(h.Allow, cred)
			}
		}
	}
	return nil
}

// parseAllowCredential accepts "user:password" allow entries; host, network
// and @group entries are not credentials.
func parseAllowCredential(tok string) (Credential, bool) {
	if strings.HasPrefix(tok, "@") {
		return Credential{}, false
	}
	user, pass, ok := strings.Cut(tok, ":")
	if !ok || user == "" {
		return Credential{}, false
	}
	return Credential{Username: user, Password: pass}, true
}

func isTopLevelKeyword(tok string) bool {
	switch strings.ToLower(tok) {
	case "set", "check", "include":
		return true
	default:
		return false
	}
}

// tokenizeControlFile splits on whitespace and commas, honors single and
// double quotes, drops # comments and emits braces as separate tokens.
// Trailing colons on option keys ("pemfile:") are stripped, unless a quoted
// value follows the colon directly, in which case key and value form one
// "key:value" token.
func tokenizeControlFile(src string) []string {
	var (
		toks  []string
		cur   strings.Builder
		quote rune
	)
	flush := func() {
		if cur.Len() == 0 {
			return
		}
		tok := cur.String()
		cur.Reset()
		if len(tok) > 1 && strings.HasSuffix(tok, ":") && strings.Count(tok, ":") == 1 {
			tok = strings.TrimSuffix(tok, ":")
		}
		toks = append(toks, tok)
	}

	inComment := false
	for _, r := range src {
		switch {
		case inComment:
			if r == '\n' {
				inComment = false
			}
		case quote != 0:
			if r == quote {
				quote = 0
				toks = append(toks, cur.String())
				cur.Reset()
				continue
			}
			cur.WriteRune(r)
		case r == '"' || r == '\'':
			// user:"pass word" stays one token.
			if cur.Len() < 2 || !strings.HasSuffix(cur.String(), ":") {
				flush()
			}
			quote = r
		case r == '#':
			flush()
			inComment = true
		case r == '{' || r == '}':
			flush()
			toks = append(toks, string(r))
		case r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r':
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return toks
}
