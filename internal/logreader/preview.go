package logreader

import (
	"fmt"
	"strings"
)

// Preview rules are evaluated in order; the first rule that matches the
// event kind and yields a non-empty string wins. Order matters because a
// kind can match several patterns (the debug cases are the most specific).
type previewRule struct {
	match   func(kind string) bool
	extract func(kind string, data map[string]any) string
}

var previewRules = []previewRule{
	{
		match: func(kind string) bool {
			return strings.Contains(kind, ":debug") && strings.HasPrefix(kind, "llm:request")
		},
		extract: llmRequestPreview,
	},
	{
		match: func(kind string) bool {
			return strings.Contains(kind, ":debug") && strings.HasPrefix(kind, "llm:response")
		},
		extract: llmResponsePreview,
	},
	{
		match:   func(kind string) bool { return strings.HasPrefix(kind, "llm:") },
		extract: llmProviderPreview,
	},
	{
		match:   func(kind string) bool { return strings.HasPrefix(kind, "tool:") },
		extract: toolPreview,
	},
	{
		match:   func(kind string) bool { return strings.HasPrefix(kind, "prompt:") },
		extract: promptPreview,
	},
	{
		match:   func(kind string) bool { return strings.HasPrefix(kind, "content_block:") },
		extract: contentBlockPreview,
	},
}

// computePreview derives a short human-readable summary from an event's
// kind and data payload. Pure projection; returns "" when nothing applies.
func computePreview(kind string, data map[string]any) string {
	if len(data) == 0 {
		return ""
	}
	for _, rule := range previewRules {
		if !rule.match(kind) {
			continue
		}
		if preview := rule.extract(kind, data); preview != "" {
			return preview
		}
	}
	return ""
}

// llm:request debug events carry the request under a nested data.data key.
func llmRequestPreview(_ string, data map[string]any) string {
	nested, _ := data["data"].(map[string]any)
	request, _ := nested["request"].(map[string]any)
	model, _ := request["model"].(string)
	messages, _ := request["messages"].([]any)
	if model != "" && len(messages) > 0 {
		return fmt.Sprintf("%s | %d messages", model, len(messages))
	}
	return ""
}

func llmResponsePreview(_ string, data map[string]any) string {
	nested, _ := data["data"].(map[string]any)
	response, _ := nested["response"].(map[string]any)
	usage, _ := response["usage"].(map[string]any)
	tokens := numField(usage, "total_tokens")
	if tokens == 0 {
		tokens = numField(usage, "input_tokens")
	}
	if tokens != 0 {
		return fmt.Sprintf("%d tokens", tokens)
	}
	return ""
}

// Non-debug llm events may hold the provider directly or one level down.
func llmProviderPreview(_ string, data map[string]any) string {
	nested := data
	if inner, ok := data["data"].(map[string]any); ok {
		nested = inner
	}
	if provider, ok := nested["provider"].(string); ok && provider != "" {
		return "Provider: " + provider
	}
	return ""
}

func toolPreview(_ string, data map[string]any) string {
	name, _ := data["tool_name"].(string)
	if name == "" {
		name, _ = data["name"].(string)
	}
	if name != "" {
		return "Tool: " + name
	}
	return ""
}

func promptPreview(_ string, data map[string]any) string {
	prompt, _ := data["prompt"].(string)
	if prompt == "" {
		return ""
	}
	runes := []rune(prompt)
	if len(runes) < 60 {
		return prompt
	}
	return string(runes[:57]) + "..."
}

func contentBlockPreview(_ string, data map[string]any) string {
	blockType, hasType := data["block_type"]
	blockIndex, hasIndex := data["block_index"]
	if !hasType || !hasIndex || blockType == nil || blockIndex == nil {
		return ""
	}
	return fmt.Sprintf("Block %s: %s", formatScalar(blockIndex), formatScalar(blockType))
}

// numField reads a JSON number out of a decoded map.
func numField(m map[string]any, key string) int64 {
	if f, ok := m[key].(float64); ok {
		return int64(f)
	}
	return 0
}

// formatScalar renders a decoded JSON value without the float artifacts
// %v would give for whole numbers.
func formatScalar(v any) string {
	if f, ok := v.(float64); ok && f == float64(int64(f)) {
		return fmt.Sprintf("%d", int64(f))
	}
	return fmt.Sprintf("%v", v)
}
