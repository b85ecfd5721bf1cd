package courseserver

import (
	"context"
	"errors"

	"github.com/anatolykoptev/go_course/internal/engine"
	"github.com/anatolykoptev/go_course/internal/engine/course"
	"github.com/anatolykoptev/go_course/internal/engine/sources"
	"github.com/anatolykoptev/go_course/internal/toolutil"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Converter runs the YouTube → course pipeline.
type Converter interface {
	Convert(ctx context.Context, in engine.CourseConvertInput) (*course.Document, error)
}

// RegisterTools registers the course tools on the given MCP server:
// youtube_to_course, youtube_search, translate_text, detect_language.
func RegisterTools(server *mcp.Server, conv Converter) {
	registerYouTubeToCourse(server, conv)
	registerYouTubeSearch(server)
	registerTranslate(server)
	registerDetectLanguage(server)
}

func registerYouTubeToCourse(server *mcp.Server, conv Converter) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "youtube_to_course",
		Description: "Turn a YouTube video (or a pasted transcript) into a structured course: title, slug, description, 5 tags and markdown course content with introduction, learning objectives, numbered sections, video section, practice activity, summary and presenter acknowledgement. Provide youtubeUrl or transcript; title and presenter override the generated values.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input engine.CourseConvertInput) (*mcp.CallToolResult, *course.Document, error) {
		doc, err := conv.Convert(ctx, input)
		if err != nil {
			return nil, nil, toolutil.PublicError(err)
		}
		return nil, doc, nil
	})
}

func registerYouTubeSearch(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "youtube_search",
		Description: "Search YouTube videos. Returns id, title, URL, channel and description for up to maxResults videos (default 10, max 50). Use the URL with youtube_to_course.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input engine.YouTubeSearchInput) (*mcp.CallToolResult, engine.YouTubeSearchOutput, error) {
		if input.Query == "" {
			return nil, engine.YouTubeSearchOutput{}, errors.New("q is required")
		}
		input.Language = toolutil.NormLang(input.Language)
		out, err := sources.SearchYouTube(ctx, input)
		if err != nil {
			return nil, engine.YouTubeSearchOutput{}, err
		}
		return nil, out, nil
	})
}

func registerTranslate(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "translate_text",
		Description: "Translate text into a target language with Google Translate. Source language is auto-detected when omitted.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input engine.TranslateInput) (*mcp.CallToolResult, *engine.TranslateOutput, error) {
		out, err := sources.Translate(ctx, input)
		if err != nil {
			return nil, nil, err
		}
		return nil, out, nil
	})
}

func registerDetectLanguage(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "detect_language",
		Description: "Detect the language of a text with Google Translate. Returns the language code and confidence.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input engine.DetectInput) (*mcp.CallToolResult, *engine.DetectOutput, error) {
		out, err := sources.DetectLanguage(ctx, input)
		if err != nil {
			return nil, nil, err
		}
		return nil, out, nil
	})
}
