package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/turbekoff/calcpad/pkg/calculator"
	"github.com/turbekoff/calcpad/pkg/expr"
	"github.com/turbekoff/calcpad/pkg/format"
)

// Tool names
const (
	ToolPrefix   = "calc."
	ToolEvaluate = ToolPrefix + "evaluate"
	ToolPress    = ToolPrefix + "press"
)

// ToolServer exposes the calculator over MCP. Tool calls may arrive
// concurrently, so the shared session is guarded by mu.
type ToolServer struct {
	mu     sync.Mutex
	calc   *calculator.Calculator
	mcp    *server.MCPServer
	logger *log.Logger
}

func NewToolServer(config *MCPConfig, logger *log.Logger) *ToolServer {
	s := &ToolServer{
		calc:   calculator.New(),
		mcp:    server.NewMCPServer(config.Name, config.Version),
		logger: logger,
	}

	s.mcp.AddTool(evaluateTool(), s.handleEvaluate)
	s.mcp.AddTool(pressTool(), s.handlePress)
	return s
}

// Serve blocks until stdin is closed.
func (s *ToolServer) Serve() error {
	s.logger.Printf("serving MCP tools %s, %s on stdio", ToolEvaluate, ToolPress)
	if err := server.ServeStdio(s.mcp); err != nil {
		return fmt.Errorf("failed to serve MCP server: %w", err)
	}
	return nil
}

func evaluateTool() mcp.Tool {
	return mcp.NewTool(ToolEvaluate,
		mcp.WithDescription("Evaluate an arithmetic expression with + - x / ^, parentheses and sin cos tan sqrt log10 ln abs round"),
		mcp.WithString("expression", mcp.Required(), mcp.Description("Expression to evaluate, e.g. 2 x (3 + 4)^2")),
	)
}

func pressTool() mcp.Tool {
	return mcp.NewTool(ToolPress,
		mcp.WithDescription("Press calculator keys on a shared session and return its display. Nothing is pressed if any key is unknown"),
		mcp.WithString("keys", mcp.Required(), mcp.Description(
			"Space separated keys: digits, '.', + - x /, NEG, DEL, (), ANS, AC, =, sin cos tan sqrt log ln sq ^ pi e",
		)),
	)
}

func (s *ToolServer) handleEvaluate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	expression := mcp.ParseString(req, "expression", "")
	if strings.TrimSpace(expression) == "" {
		return mcp.NewToolResultError("expression parameter is required"), nil
	}

	v, err := expr.Evaluate(expression)
	if err != nil {
		var evalErr *expr.Error
		if errors.As(err, &evalErr) {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to evaluate: %v", evalErr.Cause)), nil
		}
		return nil, err
	}

	return mcp.NewToolResultText(format.Format(v, format.Final)), nil
}

func (s *ToolServer) handlePress(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	keys := mcp.ParseString(req, "keys", "")
	if strings.TrimSpace(keys) == "" {
		return mcp.NewToolResultError("keys parameter is required"), nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.calc.PressAll(keys); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to press keys: %v", err)), nil
	}
	if err := s.calc.Err(); err != nil && s.calc.JustCalculated() {
		s.logger.Printf("calculation failed, error: %v", err)
	}

	return mcp.NewToolResultText(s.calc.Display() + "\n" + s.calc.Status()), nil
}
