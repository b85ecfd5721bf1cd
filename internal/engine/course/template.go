package course

import (
	"fmt"
	"sort"
	"strings"
	"text/template"
)

// Template names.
const (
	TemplateRich    = "rich"
	TemplateCompact = "compact"

	DefaultTemplate = TemplateRich
)

// Template is a named, versioned set of course-generation instructions.
// Objectives and MaxSections are interpolated into the body on Render.
type Template struct {
	Name        string
	Version     int
	Objectives  int
	MaxSections int

	body *template.Template
}

// Render returns the instruction text.
func (t *Template) Render() (string, error) {
	var sb strings.Builder
	if err := t.body.Execute(&sb, t); err != nil {
		return "", fmt.Errorf("render template %s v%d: %w", t.Name, t.Version, err)
	}
	return strings.TrimSpace(sb.String()), nil
}

// String identifies the template in logs.
func (t *Template) String() string { return fmt.Sprintf("%s/v%d", t.Name, t.Version) }

// NewTemplate parses body as a text/template. Objectives and MaxSections
// must be positive.
func NewTemplate(name string, version, objectives, maxSections int, body string) (*Template, error) {
	if objectives <= 0 || maxSections <= 0 {
		return nil, fmt.Errorf("template %s: objectives and sections must be positive", name)
	}
	tmpl, err := template.New(name).Option("missingkey=error").Parse(body)
	if err != nil {
		return nil, fmt.Errorf("parse template %s: %w", name, err)
	}
	return &Template{Name: name, Version: version, Objectives: objectives, MaxSections: maxSections, body: tmpl}, nil
}

var templates = map[string]*Template{
	TemplateRich:    mustTemplate(TemplateRich, 1, 3, 10, richBody),
	TemplateCompact: mustTemplate(TemplateCompact, 1, 3, 5, compactBody),
}

func mustTemplate(name string, version, objectives, maxSections int, body string) *Template {
	t, err := NewTemplate(name, version, objectives, maxSections, body)
	if err != nil {
		panic(err)
	}
	return t
}

// LookupTemplate returns the registered template by name. An empty name
// selects DefaultTemplate.
func LookupTemplate(name string) (*Template, error) {
	if name == "" {
		name = DefaultTemplate
	}
	t, ok := templates[name]
	if !ok {
		return nil, fmt.Errorf("unknown course template %q (available: %s)", name, strings.Join(TemplateNames(), ", "))
	}
	return t, nil
}

// TemplateNames lists registered template names in sorted order.
func TemplateNames() []string {
	names := make([]string, 0, len(templates))
	for name := range templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

const richBody = `
You are an expert course content creator.

Given the following text (from a YouTube transcript and related data), create a structured course with this exact layout:

1. Introduction paragraph (1 short engaging paragraph).
2. Learning objectives: exactly {{.Objectives}} bullet points, each starting with a strong action verb.
3. Main content: up to {{.MaxSections}} numbered sub-headings (1-{{.MaxSections}}).
   - Each numbered heading has a title and 1-3 short paragraphs of explanatory text.
4. Video section: a small section titled "Video" that briefly explains how the original video supports the learning.
5. Practice activity: a section titled "Practice Activity" with a concrete activity or exercise for learners.
6. Course summary: a short section recapping the key takeaways.
7. Presenter acknowledgement: a short acknowledgement for the presenter (leave placeholders if no name is provided).

Return JSON ONLY in the following format:

{
  "title": "string",
  "slug": "string",
  "description": "string",
  "tags": ["string", "string", "string", "string", "string"],
  "course_content": "string (markdown with the structure described above)"
}

Important:
- "course_content" must be valid markdown.
- Use headings and subheadings (##, ###, etc.) where appropriate.
- Follow the structure strictly and in the same order.
`

const compactBody = `
You are an expert course content creator. Given the following text (from a YouTube transcript and related data),
create a structured course with title, description, slug, 5 tags, and course_content in markdown format
({{.MaxSections}} sections, opening with {{.Objectives}} learning objectives).

Output strictly as JSON:
{
  "title": "string",
  "slug": "string",
  "description": "string",
  "tags": ["string", "string", "string", "string", "string"],
  "course_content": "string (markdown, {{.MaxSections}} sections)"
}
`
