package course

import "strings"

// Document is the final course returned to callers.
type Document struct {
	Title         string   `json:"title"`
	Slug          string   `json:"slug"`
	Description   string   `json:"description"`
	Tags          []string `json:"tags"`
	CourseContent string   `json:"course_content"`
	Presenter     string   `json:"presenter,omitempty"`
}

// Assemble applies caller overrides to a draft. It has no side effects and
// does not share the draft's tag slice with the result.
func Assemble(d Draft, title, presenter string) Document {
	tags := make([]string, len(d.Tags))
	copy(tags, d.Tags)
	doc := Document{
		Title:         d.Title,
		Slug:          d.Slug,
		Description:   d.Description,
		Tags:          tags,
		CourseContent: d.CourseContent,
	}
	if strings.TrimSpace(title) != "" {
		doc.Title = title
	}
	if strings.TrimSpace(presenter) != "" {
		doc.Presenter = presenter
		doc.Description += "\n\nPresented by: " + presenter
	}
	return doc
}
