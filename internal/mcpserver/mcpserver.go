// Package mcpserver exposes the provisioning engine over the Model
// Context Protocol so agent tooling can inspect database plans and
// status without the HTTP gateway.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/flemzord/dbset/internal/provision"
)

// Server wraps an MCP stdio server bound to a provisioning engine.
type Server struct {
	engine *provision.Engine
	mcp    *server.MCPServer
}

// New builds the MCP server and registers the plan and status tools.
func New(engine *provision.Engine, version string) *Server {
	s := &Server{
		engine: engine,
		mcp:    server.NewMCPServer("dbset", version),
	}

	planTool := mcp.NewTool("plan",
		mcp.WithDescription("Compute the dependency-ordered database creation plan: creation order, teardown order and mirror routing."),
	)
	s.mcp.AddTool(planTool, s.handlePlan)

	statusTool := mcp.NewTool("status",
		mcp.WithDescription("Report the lifecycle state of every configured database alias."),
	)
	s.mcp.AddTool(statusTool, s.handleStatus)

	return s
}

// ServeStdio blocks serving MCP requests on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

func (s *Server) handlePlan(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pl, err := s.engine.Plan()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	out, err := json.MarshalIndent(map[string]any{
		"order":    pl.Order,
		"teardown": pl.TeardownOrder(),
		"mirrors":  pl.Mirrors,
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal plan: %w", err)
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) handleStatus(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(s.engine.Status(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal status: %w", err)
	}
	return mcp.NewToolResultText(string(out)), nil
}
