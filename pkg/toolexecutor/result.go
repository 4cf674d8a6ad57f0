package toolexecutor

import "strings"

// ContentTypeText is the only content block kind produced by this server.
const ContentTypeText = "text"

// ContentBlock is one entry of a tool result.
type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// ToolResult is the envelope returned by a tool handler.
type ToolResult struct {
	Content []ContentBlock `json:"content"`
}

// TextResult wraps text in a single-block result.
func TextResult(text string) ToolResult {
	return ToolResult{
		Content: []ContentBlock{{Type: ContentTypeText, Text: text}},
	}
}

// Text joins the text of every block.
func (r ToolResult) Text() string {
	if len(r.Content) == 1 {
		return r.Content[0].Text
	}
	var sb strings.Builder
	for _, block := range r.Content {
		sb.WriteString(block.Text)
	}
	return sb.String()
}

// Arguments holds validated tool arguments.
type Arguments map[string]interface{}

// String returns a string argument, or "" when absent.
func (a Arguments) String(name string) string {
	s, _ := a[name].(string)
	return s
}

// OptionalString returns a string argument and whether it was supplied.
func (a Arguments) OptionalString(name string) (string, bool) {
	s, ok := a[name].(string)
	return s, ok
}
