package mcpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/connect-raj/prompt-optimiser/pkg/coretools"
	"github.com/connect-raj/prompt-optimiser/pkg/prompts"
	"github.com/connect-raj/prompt-optimiser/pkg/toolexecutor"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	reg := toolexecutor.NewRegistry()
	require.NoError(t, coretools.RegisterCoreTools(reg, coretools.Options{}))

	s, err := New(reg, Options{Name: "Prompt Optimiser", Version: "1.0.0", Logger: zerolog.Nop()})
	require.NoError(t, err)
	return s
}

// roundTrip sends one JSON-RPC message and returns the response decoded into
// generic JSON values.
func roundTrip(t *testing.T, s *Server, message string) map[string]interface{} {
	t.Helper()

	response := s.MCPServer().HandleMessage(context.Background(), json.RawMessage(message))
	require.NotNil(t, response)

	data, err := json.Marshal(response)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	return decoded
}

func callTool(t *testing.T, s *Server, name string, args string) map[string]interface{} {
	t.Helper()

	message := `{"jsonrpc":"2.0","id":7,"method":"tools/call","params":{"name":"` + name + `"`
	if args != "" {
		message += `,"arguments":` + args
	}
	message += `}}`
	return roundTrip(t, s, message)
}

func resultText(t *testing.T, response map[string]interface{}) (string, bool) {
	t.Helper()

	result, ok := response["result"].(map[string]interface{})
	require.True(t, ok, "expected result, got %v", response)

	content, ok := result["content"].([]interface{})
	require.True(t, ok)
	require.Len(t, content, 1)

	block := content[0].(map[string]interface{})
	assert.Equal(t, "text", block["type"])

	isError, _ := result["isError"].(bool)
	return block["text"].(string), isError
}

func TestNew(t *testing.T) {
	reg := toolexecutor.NewRegistry()

	tests := []struct {
		name     string
		registry *toolexecutor.Registry
		opts     Options
	}{
		{name: "nil registry", registry: nil, opts: Options{Name: "n", Version: "1.0.0"}},
		{name: "missing name", registry: reg, opts: Options{Version: "1.0.0"}},
		{name: "missing version", registry: reg, opts: Options{Name: "n"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.registry, tt.opts)
			assert.Error(t, err)
		})
	}
}

func TestInitialize(t *testing.T) {
	s := newTestServer(t)

	response := roundTrip(t, s, `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2024-11-05","capabilities":{},"clientInfo":{"name":"test-host","version":"0.1.0"}}}`)

	result := response["result"].(map[string]interface{})
	serverInfo := result["serverInfo"].(map[string]interface{})
	assert.Equal(t, "Prompt Optimiser", serverInfo["name"])
	assert.Equal(t, "1.0.0", serverInfo["version"])

	capabilities := result["capabilities"].(map[string]interface{})
	assert.Contains(t, capabilities, "tools")
}

func TestToolsList(t *testing.T) {
	s := newTestServer(t)

	response := roundTrip(t, s, `{"jsonrpc":"2.0","id":2,"method":"tools/list"}`)
	result := response["result"].(map[string]interface{})
	tools := result["tools"].([]interface{})
	require.Len(t, tools, 3)

	byName := make(map[string]map[string]interface{}, len(tools))
	for _, raw := range tools {
		tool := raw.(map[string]interface{})
		byName[tool["name"].(string)] = tool
	}

	interactive, ok := byName[coretools.ToolOptimizeInteractive]
	require.True(t, ok)
	annotations := interactive["annotations"].(map[string]interface{})
	assert.Equal(t, "Optimize Prompt (Interactive)", annotations["title"])
	assert.Equal(t, true, annotations["readOnlyHint"])

	schema := interactive["inputSchema"].(map[string]interface{})
	assert.Equal(t, "object", schema["type"])
	assert.Equal(t, []interface{}{"originalPrompt"}, schema["required"])

	ping := byName[coretools.ToolPing]
	pingSchema := ping["inputSchema"].(map[string]interface{})
	assert.NotContains(t, pingSchema, "required")

	optimize := byName[coretools.ToolOptimize]
	optimizeSchema := optimize["inputSchema"].(map[string]interface{})
	props := optimizeSchema["properties"].(map[string]interface{})
	assert.Contains(t, props, "context")
	assert.Equal(t, []interface{}{"originalPrompt"}, optimizeSchema["required"])
}

func TestToolsCall(t *testing.T) {
	s := newTestServer(t)

	t.Run("ping", func(t *testing.T) {
		for i := 0; i < 2; i++ {
			text, isError := resultText(t, callTool(t, s, "ping", `{}`))
			assert.False(t, isError)
			assert.Equal(t, prompts.PingMessage, text)
		}
	})

	t.Run("ping without arguments", func(t *testing.T) {
		text, isError := resultText(t, callTool(t, s, "ping", ""))
		assert.False(t, isError)
		assert.Equal(t, prompts.PingMessage, text)
	})

	t.Run("optimize prompt interactive", func(t *testing.T) {
		text, isError := resultText(t, callTool(t, s, "optimize-prompt-interactive", `{"originalPrompt":"Build a login page"}`))
		assert.False(t, isError)
		assert.Equal(t, prompts.RenderInteractiveOptimization("Build a login page"), text)
	})

	t.Run("optimize prompt with context", func(t *testing.T) {
		text, isError := resultText(t, callTool(t, s, "optimize-prompt", `{"originalPrompt":"Add caching","context":"read heavy API"}`))
		assert.False(t, isError)
		assert.Equal(t, prompts.RenderOptimization("Add caching", "read heavy API"), text)
	})

	t.Run("missing required argument", func(t *testing.T) {
		text, isError := resultText(t, callTool(t, s, "optimize-prompt-interactive", `{}`))
		assert.True(t, isError)
		assert.Contains(t, text, "originalPrompt")
	})

	t.Run("wrong argument type", func(t *testing.T) {
		text, isError := resultText(t, callTool(t, s, "optimize-prompt-interactive", `{"originalPrompt":12}`))
		assert.True(t, isError)
		assert.Contains(t, text, "originalPrompt")
	})

	t.Run("arguments not an object", func(t *testing.T) {
		text, isError := resultText(t, callTool(t, s, "optimize-prompt-interactive", `["Build a login page"]`))
		assert.True(t, isError)
		assert.Contains(t, text, toolexecutor.RootField)
	})

	t.Run("unknown tool keeps serving", func(t *testing.T) {
		response := callTool(t, s, "nonexistent-tool", `{}`)
		assert.Contains(t, response, "error")
		assert.NotContains(t, response, "result")

		text, isError := resultText(t, callTool(t, s, "ping", `{}`))
		assert.False(t, isError)
		assert.Equal(t, prompts.PingMessage, text)
	})
}

func TestCallArguments(t *testing.T) {
	args, err := callArguments("ping", nil)
	require.NoError(t, err)
	assert.Nil(t, args)

	args, err = callArguments("ping", map[string]interface{}{"a": "b"})
	require.NoError(t, err)
	assert.Equal(t, "b", args["a"])

	_, err = callArguments("ping", "text")
	var validationErr *toolexecutor.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, toolexecutor.RootField, validationErr.Field)
}

type failingReader struct {
	err error
}

func (r failingReader) Read(p []byte) (int, error) {
	return 0, r.err
}

type fakeSession struct {
	id string
}

func (f *fakeSession) Initialize() {}

func (f *fakeSession) Initialized() bool { return true }

func (f *fakeSession) SessionID() string { return f.id }

func (f *fakeSession) NotificationChannel() chan<- mcp.JSONRPCNotification {
	return make(chan mcp.JSONRPCNotification, 1)
}

func TestServe(t *testing.T) {
	t.Run("host closes stdin", func(t *testing.T) {
		s := newTestServer(t)

		var status bytes.Buffer
		s.opts.Status = &status

		err := s.Serve(context.Background(), strings.NewReader(""), &bytes.Buffer{})
		assert.NoError(t, err)
		assert.Equal(t, "Prompt Optimiser MCP Server running on stdio\n", status.String())
	})

	t.Run("answers requests until EOF", func(t *testing.T) {
		s := newTestServer(t)

		var stdout bytes.Buffer
		stdin := strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"ping"}` + "\n")

		require.NoError(t, s.Serve(context.Background(), stdin, &stdout))
		assert.Contains(t, stdout.String(), `"id":1`)
	})

	t.Run("cancelled context", func(t *testing.T) {
		s := newTestServer(t)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		assert.NoError(t, s.Serve(ctx, strings.NewReader(""), &bytes.Buffer{}))
	})

	t.Run("missing streams", func(t *testing.T) {
		s := newTestServer(t)

		var status, logs bytes.Buffer
		s.opts.Status = &status
		s.logger = zerolog.New(&logs)

		err := s.Serve(context.Background(), nil, &bytes.Buffer{})
		var transportErr *TransportError
		require.ErrorAs(t, err, &transportErr)
		assert.Equal(t, "attach", transportErr.Op)
		assert.Empty(t, status.String())
		assert.NotContains(t, logs.String(), "listening")
	})

	t.Run("session cannot attach", func(t *testing.T) {
		s := newTestServer(t)
		require.NoError(t, s.MCPServer().RegisterSession(context.Background(), &fakeSession{id: "stdio"}))

		var status, logs bytes.Buffer
		s.opts.Status = &status
		s.logger = zerolog.New(&logs)

		err := s.Serve(context.Background(), strings.NewReader(""), &bytes.Buffer{})
		var transportErr *TransportError
		require.ErrorAs(t, err, &transportErr)
		assert.Equal(t, "listen", transportErr.Op)
		assert.Empty(t, status.String())
		assert.NotContains(t, logs.String(), "listening")
	})

	t.Run("status line written once per session", func(t *testing.T) {
		s := newTestServer(t)

		var status bytes.Buffer
		s.opts.Status = &status
		stdin := strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"ping"}` + "\n" + `{"jsonrpc":"2.0","id":2,"method":"ping"}` + "\n")

		require.NoError(t, s.Serve(context.Background(), stdin, &bytes.Buffer{}))
		assert.Equal(t, 1, strings.Count(status.String(), "MCP Server running on stdio"))
	})

	t.Run("broken stdin", func(t *testing.T) {
		s := newTestServer(t)
		readErr := errors.New("pipe broken")

		err := s.Serve(context.Background(), failingReader{err: readErr}, &bytes.Buffer{})
		var transportErr *TransportError
		require.ErrorAs(t, err, &transportErr)
		assert.Equal(t, "listen", transportErr.Op)
		assert.ErrorIs(t, err, readErr)
	})
}

func TestTransportError(t *testing.T) {
	inner := errors.New("closed pipe")
	err := &TransportError{Op: "listen", Err: inner}

	assert.Equal(t, "transport listen failed: closed pipe", err.Error())
	assert.ErrorIs(t, err, inner)
}

// captureDispatchLogs points the global logger at a buffer and installs a
// recording tracer provider for the duration of the test.
func captureDispatchLogs(t *testing.T) (*bytes.Buffer, *tracetest.SpanRecorder) {
	t.Helper()

	prevLogger := log.Logger
	prevProvider := otel.GetTracerProvider()

	var logs bytes.Buffer
	log.Logger = zerolog.New(&logs).Level(zerolog.DebugLevel)

	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	otel.SetTracerProvider(tp)

	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		otel.SetTracerProvider(prevProvider)
		log.Logger = prevLogger
	})

	return &logs, recorder
}

func dispatchLogEntries(t *testing.T, logs *bytes.Buffer) []map[string]interface{} {
	t.Helper()

	var entries []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(logs.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		if _, ok := entry["tool"]; ok {
			entries = append(entries, entry)
		}
	}
	return entries
}

func TestToolsCallTracing(t *testing.T) {
	t.Run("logged trace id is the span trace id", func(t *testing.T) {
		logs, recorder := captureDispatchLogs(t)
		s := newTestServer(t)

		_, isError := resultText(t, callTool(t, s, coretools.ToolPing, `{}`))
		require.False(t, isError)

		ended := recorder.Ended()
		require.Len(t, ended, 1)
		assert.Equal(t, "tool.dispatch", ended[0].Name())

		entries := dispatchLogEntries(t, logs)
		require.Len(t, entries, 1)
		assert.Equal(t, coretools.ToolPing, entries[0]["tool"])
		assert.Equal(t, ended[0].SpanContext().TraceID().String(), entries[0]["trace_id"])
	})

	t.Run("failed call carries span trace id", func(t *testing.T) {
		logs, recorder := captureDispatchLogs(t)
		s := newTestServer(t)

		_, isError := resultText(t, callTool(t, s, coretools.ToolOptimizeInteractive, `{}`))
		require.True(t, isError)

		ended := recorder.Ended()
		require.Len(t, ended, 1)

		entries := dispatchLogEntries(t, logs)
		require.Len(t, entries, 1)
		assert.Equal(t, "validation", entries[0]["error_type"])
		assert.Equal(t, ended[0].SpanContext().TraceID().String(), entries[0]["trace_id"])
	})

	t.Run("calls outside a transport session get a session id", func(t *testing.T) {
		logs, _ := captureDispatchLogs(t)
		s := newTestServer(t)

		callTool(t, s, coretools.ToolPing, `{}`)
		callTool(t, s, coretools.ToolPing, `{}`)

		entries := dispatchLogEntries(t, logs)
		require.Len(t, entries, 2)
		first, _ := entries[0]["session_id"].(string)
		second, _ := entries[1]["session_id"].(string)
		assert.NotEmpty(t, first)
		assert.NotEmpty(t, second)
		assert.NotEqual(t, first, second)
	})
}
