// Package mcpserver exposes a toolexecutor.Registry over the MCP stdio
// transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	stdlog "log"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"

	"github.com/connect-raj/prompt-optimiser/internal/tracing"
	"github.com/connect-raj/prompt-optimiser/pkg/toolexecutor"
)

// Options configures the MCP server.
type Options struct {
	Name    string
	Version string
	Logger  zerolog.Logger
	// Status receives the human readable startup line. Nil disables it.
	Status io.Writer
}

// Server binds a tool registry to one MCP session.
type Server struct {
	registry *toolexecutor.Registry
	opts     Options
	mcp      *server.MCPServer
	logger   zerolog.Logger
}

// New builds an MCP server publishing every tool in registry. The registry
// must be fully populated; tools added later are not published.
func New(registry *toolexecutor.Registry, opts Options) (*Server, error) {
	if registry == nil {
		return nil, errors.New("tool registry is required")
	}
	if opts.Name == "" {
		return nil, errors.New("server name is required")
	}
	if opts.Version == "" {
		return nil, errors.New("server version is required")
	}

	s := &Server{
		registry: registry,
		opts:     opts,
		logger:   opts.Logger.With().Str("component", "mcpserver").Logger(),
	}

	s.mcp = server.NewMCPServer(
		opts.Name,
		opts.Version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
		server.WithHooks(s.hooks()),
	)

	for _, def := range registry.List() {
		tool, err := s.describe(def)
		if err != nil {
			return nil, err
		}
		s.mcp.AddTool(tool, s.handle)
	}

	return s, nil
}

// MCPServer returns the underlying protocol server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

// Serve attaches to stdin/stdout and blocks until the host closes the stream
// or ctx is cancelled. Both are a clean shutdown. Any other transport failure
// is returned as *TransportError. The status line is written once the
// session is attached, never for a transport that failed to start.
func (s *Server) Serve(ctx context.Context, stdin io.Reader, stdout io.Writer) error {
	if stdin == nil || stdout == nil {
		return &TransportError{Op: "attach", Err: errors.New("stdin and stdout are required")}
	}

	stdio := server.NewStdioServer(s.mcp)
	stdio.SetErrorLogger(stdlog.New(s.logger.With().Str("source", "stdio").Logger(), "", 0))

	err := stdio.Listen(ctx, stdin, stdout)
	switch {
	case err == nil, errors.Is(err, io.EOF):
		s.logger.Info().Msg("Host closed the transport")
		return nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		s.logger.Info().Err(err).Msg("Server stopped")
		return nil
	default:
		return &TransportError{Op: "listen", Err: err}
	}
}

// describe converts a registry definition into its wire descriptor.
func (s *Server) describe(def toolexecutor.ToolDefinition) (mcp.Tool, error) {
	schema, ok := s.registry.InputSchema(def.Name)
	if !ok {
		return mcp.Tool{}, fmt.Errorf("no input schema for tool %s", def.Name)
	}
	raw, err := json.Marshal(schema)
	if err != nil {
		return mcp.Tool{}, fmt.Errorf("failed to encode input schema for tool %s: %w", def.Name, err)
	}

	tool := mcp.NewToolWithRawSchema(def.Name, def.Description, raw)
	tool.Annotations.Title = def.Title
	tool.Annotations.ReadOnlyHint = boolPtr(true)
	tool.Annotations.DestructiveHint = boolPtr(false)
	tool.Annotations.IdempotentHint = boolPtr(true)
	tool.Annotations.OpenWorldHint = boolPtr(false)
	return tool, nil
}

// handle dispatches one tools/call through the registry. Request-level
// failures come back as isError results so the session keeps serving. The
// trace ID is left to the dispatch span.
func (s *Server) handle(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := tracing.GetSessionID(ctx)
	if session := server.ClientSessionFromContext(ctx); session != nil {
		sessionID = session.SessionID()
	}
	if sessionID == "" {
		sessionID = tracing.NewSessionID()
	}
	ctx = tracing.WithSessionID(ctx, sessionID)

	name := request.Params.Name

	args, err := callArguments(name, request.Params.Arguments)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := s.registry.Dispatch(ctx, name, args)
	if err != nil {
		return errorResult(err), nil
	}

	return toCallToolResult(result), nil
}

// callArguments accepts an absent argument object or a JSON object. Anything
// else is rejected before dispatch.
func callArguments(tool string, raw any) (map[string]interface{}, error) {
	switch args := raw.(type) {
	case nil:
		return nil, nil
	case map[string]interface{}:
		return args, nil
	default:
		return nil, &toolexecutor.ValidationError{
			Tool:   tool,
			Field:  toolexecutor.RootField,
			Reason: fmt.Sprintf("arguments must be an object, got %T", raw),
		}
	}
}

func toCallToolResult(result toolexecutor.ToolResult) *mcp.CallToolResult {
	content := make([]mcp.Content, 0, len(result.Content))
	for _, block := range result.Content {
		content = append(content, mcp.NewTextContent(block.Text))
	}
	return &mcp.CallToolResult{Content: content}
}

func errorResult(err error) *mcp.CallToolResult {
	return mcp.NewToolResultError(err.Error())
}

func (s *Server) hooks() *server.Hooks {
	hooks := &server.Hooks{}

	hooks.AddOnRegisterSession(func(ctx context.Context, session server.ClientSession) {
		s.logger.Info().
			Str("name", s.opts.Name).
			Str("version", s.opts.Version).
			Str("session_id", session.SessionID()).
			Int("tools", s.registry.Count()).
			Msg("MCP server listening on stdio")
		if s.opts.Status != nil {
			fmt.Fprintf(s.opts.Status, "%s MCP Server running on stdio\n", s.opts.Name)
		}
	})

	hooks.AddAfterInitialize(func(ctx context.Context, id any, message *mcp.InitializeRequest, result *mcp.InitializeResult) {
		s.logger.Info().
			Str("client", message.Params.ClientInfo.Name).
			Str("client_version", message.Params.ClientInfo.Version).
			Str("protocol_version", result.ProtocolVersion).
			Msg("Host initialized session")
	})

	// Calls for names the protocol server does not know never reach handle;
	// run them through the registry so they are logged and counted like any
	// other unknown tool.
	hooks.AddOnError(func(ctx context.Context, id any, method mcp.MCPMethod, message any, err error) {
		if method != mcp.MethodToolsCall || !errors.Is(err, server.ErrToolNotFound) {
			return
		}
		if request, ok := message.(*mcp.CallToolRequest); ok {
			_, _ = s.registry.Dispatch(ctx, request.Params.Name, nil)
		}
	})

	return hooks
}

func boolPtr(b bool) *bool {
	return &b
}
