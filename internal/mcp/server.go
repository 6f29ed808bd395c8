package mcp

import (
	"context"
	"sync"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/1broseidon/deskplace/internal/activation"
	"github.com/1broseidon/deskplace/internal/platform"
)

const (
	ServerName    = "deskplace"
	ServerVersion = "0.1.0"
)

// Server is the MCP server exposing window placement as tools.
type Server struct {
	mcpServer *mcpsdk.Server
	backend   platform.Backend
	source    activation.RuleSource
	log       *zap.SugaredLogger
	opts      activation.Options

	// mu serializes tool calls so a listing never observes half a run.
	mu sync.Mutex
}

// NewServer creates a server. source supplies the rules for apply_rules.
func NewServer(backend platform.Backend, source activation.RuleSource, log *zap.SugaredLogger, opts activation.Options) *Server {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	s := &Server{
		backend: backend,
		source:  source,
		log:     log,
		opts:    opts,
	}

	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		},
		nil,
	)

	s.registerTools()
	return s
}

// Run starts the MCP server on stdio transport, blocking until done.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_monitors",
		Description: "List monitors in screen order (left to right, then top to bottom). The screen number is what rules use; raw_index is the X11 RandR enumeration position.",
	}, s.handleListMonitors)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_windows",
		Description: "List open application windows with the class rules match against, title, workspace and current screen. Optionally filter by class.",
	}, s.handleListWindows)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "apply_rules",
		Description: "Load the configured rules file and run the full placement sequence once. Returns a per-rule outcome. Rules that fail are reported, never fatal.",
	}, s.handleApplyRules)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "apply_rule",
		Description: "Apply a single placement rule: move every window of a class to a screen and workspace, then apply optional actions (sticky, fullscreen, or one resize preset on the first match).",
	}, s.handleApplyRule)
}
