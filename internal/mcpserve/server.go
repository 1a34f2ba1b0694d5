// Package mcpserve exposes the daemon's status, summary and report text as
// MCP tools over stdio.
package mcpserve

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/lydakis/monitctl/internal/monit"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Tool names.
const (
	ToolStatus  = "monit_status"
	ToolSummary = "monit_summary"
	ToolReport  = "monit_report"
)

// Fetcher performs one daemon exchange. *monit.Client satisfies it.
type Fetcher interface {
	Fetch(ctx context.Context, req *monit.Request, w io.Writer) error
}

type handlers struct {
	fetch Fetcher
}

// New builds an MCP server whose tools query the daemon through f.
func New(f Fetcher, version string) *server.MCPServer {
	s := server.NewMCPServer("monitctl", version, server.WithToolCapabilities(false))
	h := &handlers{fetch: f}

	s.AddTool(mcp.NewTool(ToolStatus,
		mcp.WithDescription("Detailed status of all monitored services, or of one service or group."),
		mcp.WithString("service", mcp.Description("Service name to show")),
		mcp.WithString("group", mcp.Description("Service group to show")),
	), h.status)

	s.AddTool(mcp.NewTool(ToolSummary,
		mcp.WithDescription("One-line-per-service summary of monitored services."),
		mcp.WithString("service", mcp.Description("Service name to show")),
		mcp.WithString("group", mcp.Description("Service group to show")),
	), h.summary)

	s.AddTool(mcp.NewTool(ToolReport,
		mcp.WithDescription("Count of services by state."),
		mcp.WithString("type",
			mcp.Description("Only report this count"),
			mcp.Enum("up", "down", "initializing", "unmonitored", "total"),
		),
	), h.report)

	return s
}

// Serve runs the MCP server over the given stdio streams until ctx is done
// or stdin closes.
func Serve(ctx context.Context, s *server.MCPServer, stdin io.Reader, stdout io.Writer) error {
	if err := server.NewStdioServer(s).Listen(ctx, stdin, stdout); err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}

func (h *handlers) status(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	return h.run(ctx, monit.StatusRequest(optionalString(args, "group"), optionalString(args, "service")))
}

func (h *handlers) summary(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	return h.run(ctx, monit.SummaryRequest(optionalString(args, "group"), optionalString(args, "service")))
}

func (h *handlers) report(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return h.run(ctx, monit.ReportRequest(optionalString(req.GetArguments(), "type")))
}

func (h *handlers) run(ctx context.Context, req *monit.Request) (*mcp.CallToolResult, error) {
	var buf bytes.Buffer
	if err := h.fetch.Fetch(ctx, req, &buf); err != nil {
		return mcp.NewToolResultError(monit.Diagnostic(err)), nil
	}
	return mcp.NewToolResultText(buf.String()), nil
}

// optionalString returns nil for an absent or non-string argument.
func optionalString(args map[string]any, name string) *string {
	v, ok := args[name]
	if !ok {
		return nil
	}
	s, ok := v.(string)
	if !ok {
		return nil
	}
	return &s
}
