package engine

// --- Captions ---

// CaptionFragment is one timed caption line as returned by a captioning source.
type CaptionFragment struct {
	Text     string  `json:"text"`
	Start    float64 `json:"start"`    // seconds from video start
	Duration float64 `json:"duration"` // seconds
}

// --- Course conversion ---

type CourseConvertInput struct {
	YouTubeURL string `json:"youtubeUrl,omitempty" jsonschema:"YouTube video URL (youtube.com/watch?v=... or youtu.be/...). Required when transcript is empty"`
	Transcript string `json:"transcript,omitempty" jsonschema:"Transcript text. When non-empty the video is not fetched"`
	Title      string `json:"title,omitempty" jsonschema:"Course title override"`
	Presenter  string `json:"presenter,omitempty" jsonschema:"Presenter name credited in the description"`
}

// --- YouTube search ---

type YouTubeSearchInput struct {
	Query      string `json:"q" jsonschema:"Search query"`
	MaxResults int    `json:"maxResults,omitempty" jsonschema:"Max results (default 10, max 50)"`
	Language   string `json:"language,omitempty" jsonschema:"Relevance language code (optional)"`
}

type YouTubeVideo struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	Channel     string `json:"channel,omitempty"`
	Description string `json:"description,omitempty"`
	PublishedAt string `json:"published_at,omitempty"`
	Thumbnail   string `json:"thumbnail,omitempty"`
}

type YouTubeSearchOutput struct {
	Query  string         `json:"query"`
	Videos []YouTubeVideo `json:"videos"`
}

// --- Translation ---

type TranslateInput struct {
	Text   string `json:"text" jsonschema:"Text to translate"`
	Target string `json:"target" jsonschema:"Target language code, e.g. en, de, ru"`
	Source string `json:"source,omitempty" jsonschema:"Source language code (auto-detected when empty)"`
}

type TranslateOutput struct {
	TranslatedText         string `json:"translatedText"`
	DetectedSourceLanguage string `json:"detectedSourceLanguage,omitempty"`
	Target                 string `json:"target"`
}

type DetectInput struct {
	Text string `json:"text" jsonschema:"Text whose language should be detected"`
}

type DetectOutput struct {
	Language   string  `json:"language"`
	Confidence float64 `json:"confidence"`
}
