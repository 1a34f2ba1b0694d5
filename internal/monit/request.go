package monit

import (
	"net/url"
	"strings"
)

// Endpoints served by the daemon's HTTP interface.
const (
	EndpointStatus  = "status"
	EndpointSummary = "summary"
	EndpointReport  = "report"
)

// Request is a daemon request path plus its query parameters.
// Parameter names are unique; setting a name again replaces its value but
// keeps its original position.
type Request struct {
	endpoint string
	names    []string
	values   map[string]string
}

// NewRequest returns a request for /_<endpoint>.
func NewRequest(endpoint string) *Request {
	return &Request{endpoint: endpoint, values: make(map[string]string)}
}

// Endpoint returns the endpoint name the request was built for.
func (r *Request) Endpoint() string {
	return r.endpoint
}

// Set adds or replaces a query parameter. A nil value leaves the request
// untouched, so an absent argument is never encoded.
func (r *Request) Set(name string, value *string) *Request {
	if value == nil {
		return r
	}
	if _, ok := r.values[name]; !ok {
		r.names = append(r.names, name)
	}
	r.values[name] = *value
	return r
}

// Path serializes the request as /_<endpoint>[?name=value[&name=value...]].
func (r *Request) Path() string {
	var b strings.Builder
	b.WriteString("/_")
	b.WriteString(r.endpoint)
	for i, name := range r.names {
		if i == 0 {
			b.WriteByte('?')
		} else {
			b.WriteByte('&')
		}
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(escapeValue(r.values[name]))
	}
	return b.String()
}

// StatusRequest builds the /_status request.
func StatusRequest(group, service *string) *Request {
	return NewRequest(EndpointStatus).Set("service", service).Set("group", group)
}

// SummaryRequest builds the /_summary request.
func SummaryRequest(group, service *string) *Request {
	return NewRequest(EndpointSummary).Set("service", service).Set("group", group)
}

// ReportRequest builds the /_report request.
func ReportRequest(reportType *string) *Request {
	return NewRequest(EndpointReport).Set("type", reportType)
}

// escapeValue percent-encodes a query value, spaces as %20.
func escapeValue(v string) string {
	return strings.ReplaceAll(url.QueryEscape(v), "+", "%20")
}
