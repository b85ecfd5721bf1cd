package engine

import (
	"context"
	"errors"
	"strings"
)

// ErrLLMDisabled is returned when no LLM client is configured.
var ErrLLMDisabled = errors.New("llm: client not configured")

// stripFences removes markdown code fences from LLM output.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// StripFences is the exported form of stripFences for sub-packages parsing LLM JSON.
func StripFences(s string) string {
	return stripFences(s)
}

// CallLLMWithSystem sends a system instruction and user content as separate messages.
// The returned text has markdown code fences removed.
func CallLLMWithSystem(ctx context.Context, system, user string) (string, error) {
	if cfg.LLMClient == nil {
		return "", ErrLLMDisabled
	}
	metrics.LLMCalls.Add(1)
	resp, err := cfg.LLMClient.Complete(ctx, system, user)
	if err != nil {
		metrics.LLMErrors.Add(1)
		return "", err
	}
	return stripFences(resp), nil
}
