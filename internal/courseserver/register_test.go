package courseserver

import (
	"context"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anatolykoptev/go_course/internal/engine"
	"github.com/anatolykoptev/go_course/internal/engine/course"
)

type fakeConverter struct {
	got engine.CourseConvertInput
}

func (f *fakeConverter) Convert(_ context.Context, in engine.CourseConvertInput) (*course.Document, error) {
	f.got = in
	if in.Transcript == "" {
		_, err := course.ParseVideoReference(in.YouTubeURL)
		return nil, err
	}
	return &course.Document{Title: "T", Slug: "t", Description: "D", Tags: []string{"a"}, CourseContent: "md"}, nil
}

func connect(t *testing.T, conv Converter) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()
	server := mcp.NewServer(&mcp.Implementation{Name: "go-course-test", Version: "test"}, nil)
	RegisterTools(server, conv)

	serverT, clientT := mcp.NewInMemoryTransports()
	_, err := server.Connect(ctx, serverT, nil)
	require.NoError(t, err)

	client := mcp.NewClient(&mcp.Implementation{Name: "client", Version: "test"}, nil)
	session, err := client.Connect(ctx, clientT, nil)
	require.NoError(t, err)
	t.Cleanup(func() { session.Close() })
	return session
}

func TestToolsListed(t *testing.T) {
	session := connect(t, &fakeConverter{})
	res, err := session.ListTools(context.Background(), nil)
	require.NoError(t, err)

	var names []string
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{"youtube_to_course", "youtube_search", "translate_text", "detect_language"}, names)
}

func TestYouTubeToCourseTool(t *testing.T) {
	conv := &fakeConverter{}
	session := connect(t, conv)

	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "youtube_to_course",
		Arguments: map[string]any{"transcript": "hello", "presenter": "Jane"},
	})
	require.NoError(t, err)
	require.False(t, res.IsError)
	assert.Equal(t, "Jane", conv.got.Presenter)

	structured, ok := res.StructuredContent.(map[string]any)
	require.True(t, ok, "structured content: %T", res.StructuredContent)
	assert.Equal(t, "T", structured["title"])
}

func TestYouTubeToCourseToolError(t *testing.T) {
	session := connect(t, &fakeConverter{})

	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "youtube_to_course",
		Arguments: map[string]any{"youtubeUrl": "https://vimeo.com/1"},
	})
	require.NoError(t, err)
	require.True(t, res.IsError)
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	assert.Equal(t, course.MsgInvalidReference, text.Text)
}
