package course

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/anatolykoptev/go_course/internal/engine"
)

// ResponseFormatStructured asks the generator for a single JSON object.
const ResponseFormatStructured = "structured"

// GenerationRequest is one call to the text-generation service.
type GenerationRequest struct {
	Instructions   string
	Content        string
	ResponseFormat string
}

// Generator turns a request into the raw response body.
type Generator interface {
	Generate(ctx context.Context, req GenerationRequest) (string, error)
}

// Draft is the structured course returned by the generator.
type Draft struct {
	Title         string   `json:"title"`
	Slug          string   `json:"slug"`
	Description   string   `json:"description"`
	Tags          []string `json:"tags"`
	CourseContent string   `json:"course_content"`
}

// draftWire detects missing fields: a nil pointer means the key was absent or null.
type draftWire struct {
	Title         *string   `json:"title"`
	Slug          *string   `json:"slug"`
	Description   *string   `json:"description"`
	Tags          *[]string `json:"tags"`
	CourseContent *string   `json:"course_content"`
}

// ParseDraft decodes a generator response. Every Draft field must be present.
func ParseDraft(raw string) (Draft, error) {
	var w draftWire
	if err := json.Unmarshal([]byte(engine.StripFences(raw)), &w); err != nil {
		return Draft{}, fmt.Errorf("decode draft: %w (raw: %s)", err, engine.TruncateRunes(raw, 200, "..."))
	}
	var missing []string
	if w.Title == nil {
		missing = append(missing, "title")
	}
	if w.Slug == nil {
		missing = append(missing, "slug")
	}
	if w.Description == nil {
		missing = append(missing, "description")
	}
	if w.Tags == nil {
		missing = append(missing, "tags")
	}
	if w.CourseContent == nil {
		missing = append(missing, "course_content")
	}
	if len(missing) > 0 {
		return Draft{}, fmt.Errorf("draft missing fields: %s", strings.Join(missing, ", "))
	}
	return Draft{
		Title:         *w.Title,
		Slug:          *w.Slug,
		Description:   *w.Description,
		Tags:          *w.Tags,
		CourseContent: *w.CourseContent,
	}, nil
}

// GenerateDraft sends text to g with the given instructions and parses the result.
func GenerateDraft(ctx context.Context, g Generator, instructions, text string) (Draft, error) {
	if strings.TrimSpace(text) == "" {
		return Draft{}, invalidInput(MsgNoContent)
	}
	raw, err := g.Generate(ctx, GenerationRequest{
		Instructions:   instructions,
		Content:        text,
		ResponseFormat: ResponseFormatStructured,
	})
	if err != nil {
		return Draft{}, upstream(MsgGenerationUnavailable, err)
	}
	draft, err := ParseDraft(raw)
	if err != nil {
		return Draft{}, upstream(MsgGenerationUnparsable, err)
	}
	return draft, nil
}

// structuredDirective is appended to the instructions for ResponseFormatStructured.
const structuredDirective = "\n\nRespond with a single JSON object only. No markdown, no commentary."

// LLMGenerator sends requests through the engine's configured LLM client.
type LLMGenerator struct{}

// Generate implements Generator.
func (LLMGenerator) Generate(ctx context.Context, req GenerationRequest) (string, error) {
	system := req.Instructions
	if req.ResponseFormat == ResponseFormatStructured {
		system += structuredDirective
	}
	out, err := engine.CallLLMWithSystem(ctx, system, req.Content)
	if err != nil {
		if errors.Is(err, engine.ErrLLMDisabled) {
			return "", err
		}
		return "", fmt.Errorf("course generation LLM: %w", err)
	}
	return out, nil
}
