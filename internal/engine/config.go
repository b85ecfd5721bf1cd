package engine

import (
	"net/http"
	"time"

	"github.com/anatolykoptev/go-kit/llm"
)

// Config holds all engine configuration, injected from main.
type Config struct {
	LLMAPIKey          string
	LLMAPIKeyFallbacks []string
	LLMAPIBase         string
	LLMModel           string
	LLMTemperature     float64
	LLMMaxTokens       int

	YouTubeAPIKey         string
	YouTubeAPIKeyFallback string
	YouTubeReferer        string // sent to the Data API; keys are often referer-restricted
	TranslateAPIKey       string

	CourseTemplate  string        // name of the course instruction template
	AcquireTimeout  time.Duration // transcript fetch deadline
	GenerateTimeout time.Duration // LLM course generation deadline

	CacheTTL             time.Duration
	CacheMaxEntries      int
	CacheCleanupInterval time.Duration

	HTTPClient    *http.Client
	BrowserClient *BrowserClient // Chrome TLS fingerprint; nil = plain HTTPClient for scraping
	LLMClient     *llm.Client    // nil = LLM-backed tools disabled
}

var cfg Config

// Cfg exposes the engine configuration for sub-packages (course, sources).
// Always points to the current cfg value.
var Cfg = &cfg

// Init initializes the engine with the given configuration.
func Init(c Config) {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: 15 * time.Second}
	}
	cfg = c
	Cfg = &cfg
}
