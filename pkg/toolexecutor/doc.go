// Package toolexecutor registers and dispatches structured tools.
//
// Invariants:
// - Tool names are unique; registering a name twice fails with DuplicateToolError.
// - Arguments are schema-validated before the handler runs; a failing request
//   never reaches the handler.
// - The registry is populated at startup and only read afterwards.
//
// Usage:
//
//	reg := toolexecutor.NewRegistry()
//	_ = reg.Register(toolexecutor.ToolDefinition{
//		Name:        "echo",
//		Description: "Echo input",
//		Parameters:  []toolexecutor.ToolParameter{{Name: "text", Type: "string", Description: "text", Required: true}},
//		Handler: func(ctx context.Context, args toolexecutor.Arguments) (toolexecutor.ToolResult, error) {
//			return toolexecutor.TextResult(args.String("text")), nil
//		},
//	})
//	result, err := reg.Dispatch(ctx, "echo", map[string]interface{}{"text": "hi"})
package toolexecutor
