// Package prompts renders the instruction templates returned by the optimiser tools.
//
// Every renderer is a pure function of its input: the same arguments always
// produce byte-identical output. Caller text is substituted verbatim, without
// escaping or trimming.
package prompts

import (
	"embed"
	"strings"
	"text/template"
)

// PingMessage is the fixed connectivity confirmation returned by the ping tool.
const PingMessage = "PONG! Prompt Optimiser MCP Server is connected and running."

//go:embed templates/*.tmpl
var templateFS embed.FS

var templates = template.Must(template.New("prompts").ParseFS(templateFS, "templates/*.tmpl"))

type optimizationData struct {
	OriginalPrompt string
	Context        string
}

// RenderPing returns the connectivity confirmation message.
func RenderPing() string {
	return PingMessage
}

// RenderInteractiveOptimization renders the multi-section optimization
// framework for originalPrompt. The prompt appears twice: in the opening
// request line and in the task statement.
func RenderInteractiveOptimization(originalPrompt string) string {
	return render("interactive.tmpl", optimizationData{OriginalPrompt: originalPrompt})
}

// RenderOptimization renders the single-paragraph optimization instruction.
// The context sentence is only emitted when context is non-empty.
func RenderOptimization(originalPrompt, context string) string {
	return render("optimize.tmpl", optimizationData{OriginalPrompt: originalPrompt, Context: context})
}

func render(name string, data optimizationData) string {
	var sb strings.Builder
	// Both templates only reference string fields, so execution cannot fail
	// once they have parsed.
	if err := templates.ExecuteTemplate(&sb, name, data); err != nil {
		panic("prompts: render " + name + ": " + err.Error())
	}
	return sb.String()
}
