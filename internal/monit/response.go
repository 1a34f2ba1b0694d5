package monit

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
)

// MaxLineLength is the size of the body line buffer. Longer lines are
// emitted in MaxLineLength chunks rather than treated as an error.
const MaxLineLength = 1024

// maxErrorBody bounds how much of an error page is read for the diagnostic.
const maxErrorBody = 4096

// ProtocolError reports a malformed response or a non-success status.
type ProtocolError struct {
	StatusCode int // 0 when the status line could not be parsed
	Message    string
	Err        error
}

func (e *ProtocolError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}

var (
	htmlTagRe    = regexp.MustCompile(`<[^>]*>`)
	htmlHeadRe   = regexp.MustCompile(`(?is)<head>.*?</head>`)
	htmlFooterRe = regexp.MustCompile(`(?is)<hr>.*$`)
	spaceRunRe   = regexp.MustCompile(`\s+`)
)

// readHeader parses the status line and headers. Any status outside 2xx is
// a failure; the daemon's error page text is folded into the message.
func readHeader(br *bufio.Reader) (*http.Response, error) {
	resp, err := http.ReadResponse(br, &http.Request{Method: http.MethodGet})
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &ProtocolError{Message: "error receiving data", Err: io.ErrUnexpectedEOF}
		}
		return nil, &ProtocolError{Message: "cannot parse response", Err: err}
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		defer resp.Body.Close()
		msg := resp.Status
		if detail := errorPageText(io.LimitReader(resp.Body, maxErrorBody)); detail != "" {
			msg += " -- " + detail
		}
		return nil, &ProtocolError{StatusCode: resp.StatusCode, Message: msg}
	}
	return resp, nil
}

// errorPageText extracts the readable part of the daemon's HTML error page.
func errorPageText(r io.Reader) string {
	raw, err := io.ReadAll(r)
	if err != nil || len(raw) == 0 {
		return ""
	}
	text := htmlHeadRe.ReplaceAllString(string(raw), "")
	text = htmlFooterRe.ReplaceAllString(text, "")
	text = htmlTagRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(spaceRunRe.ReplaceAllString(text, " "))
}

// streamBody copies body to w one line at a time, never holding more than
// MaxLineLength bytes. The stream ends when the peer closes the connection;
// a read error ends it the same way. Only a failed write is an error.
func streamBody(body io.Reader, w io.Writer, beforeRead func()) error {
	br := bufio.NewReaderSize(body, MaxLineLength)
	for {
		if beforeRead != nil {
			beforeRead()
		}
		line, err := br.ReadSlice('\n')
		if len(line) > 0 {
			if _, werr := w.Write(line); werr != nil {
				return fmt.Errorf("writing output: %w", werr)
			}
		}
		if err != nil && !errors.Is(err, bufio.ErrBufferFull) {
			return nil
		}
	}
}
