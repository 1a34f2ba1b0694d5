package monit

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// colorTermPrefixes are TERM values known to render ANSI color.
var colorTermPrefixes = []string{"screen", "xterm", "vt100", "ansi", "linux"}

// HasColor decides whether the daemon should colorize its text output.
func HasColor(noColor bool, getenv func(string) string) bool {
	if noColor {
		return false
	}
	if getenv("COLORTERM") != "" {
		return true
	}
	term := getenv("TERM")
	if term == "" {
		return false
	}
	for _, prefix := range colorTermPrefixes {
		if strings.HasPrefix(term, prefix) {
			return true
		}
	}
	return strings.Contains(term, "color")
}

// EnvColor is HasColor against the process environment.
func EnvColor(noColor bool) func() bool {
	return func() bool {
		return HasColor(noColor, os.Getenv)
	}
}

// requestTarget appends the text-format and color parameters to path.
func requestTarget(path string, color bool) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	colorArg := "no"
	if color {
		colorArg = "yes"
	}
	return path + sep + "format=text&color=" + colorArg
}

// writeRequest writes one HTTP/1.0 GET request. authHeader is a complete
// header line without CRLF, or "" for none.
func writeRequest(w io.Writer, path string, color bool, authHeader string) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "GET %s HTTP/1.0\r\n", requestTarget(path, color))
	if authHeader != "" {
		fmt.Fprintf(bw, "%s\r\n", authHeader)
	}
	bw.WriteString("\r\n")
	return bw.Flush()
}
