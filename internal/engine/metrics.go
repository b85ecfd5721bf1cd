package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"
)

// Metrics tracks operational counters across the engine.
var metrics struct {
	LLMCalls                  atomic.Int64
	LLMErrors                 atomic.Int64
	CourseConversions         atomic.Int64
	CourseFailures            atomic.Int64
	YouTubeTranscriptRequests atomic.Int64
	YouTubeTranscriptFailures atomic.Int64
	YouTubeSearchRequests     atomic.Int64
	TranslateRequests         atomic.Int64
	DetectRequests            atomic.Int64
}

// GetMetrics returns a snapshot of all metrics including cache stats.
func GetMetrics() map[string]int64 {
	hits, misses := CacheStats()
	return map[string]int64{
		"llm_calls":                   metrics.LLMCalls.Load(),
		"llm_errors":                  metrics.LLMErrors.Load(),
		"course_conversions":          metrics.CourseConversions.Load(),
		"course_failures":             metrics.CourseFailures.Load(),
		"youtube_transcript_requests": metrics.YouTubeTranscriptRequests.Load(),
		"youtube_transcript_failures": metrics.YouTubeTranscriptFailures.Load(),
		"youtube_search_requests":     metrics.YouTubeSearchRequests.Load(),
		"translate_requests":          metrics.TranslateRequests.Load(),
		"detect_requests":             metrics.DetectRequests.Load(),
		"cache_hits":                  hits,
		"cache_misses":                misses,
	}
}

// FormatMetrics returns metrics as a simple text format for HTTP endpoint.
func FormatMetrics() string {
	m := GetMetrics()
	var sb strings.Builder
	keys := []string{
		"llm_calls", "llm_errors",
		"course_conversions", "course_failures",
		"youtube_transcript_requests", "youtube_transcript_failures",
		"youtube_search_requests",
		"translate_requests", "detect_requests",
		"cache_hits", "cache_misses",
	}
	for _, k := range keys {
		fmt.Fprintf(&sb, "%s %d\n", k, m[k])
	}
	return sb.String()
}

// Incrementors for course/ and sources/ sub-packages.
func IncrCourseConversion()        { metrics.CourseConversions.Add(1) }
func IncrCourseFailure()           { metrics.CourseFailures.Add(1) }
func IncrYouTubeTranscript()       { metrics.YouTubeTranscriptRequests.Add(1) }
func IncrYouTubeTranscriptFailed() { metrics.YouTubeTranscriptFailures.Add(1) }
func IncrYouTubeSearch()           { metrics.YouTubeSearchRequests.Add(1) }
func IncrTranslate()               { metrics.TranslateRequests.Add(1) }
func IncrDetect()                  { metrics.DetectRequests.Add(1) }

// TrackOperation logs a warning if an operation takes longer than threshold.
func TrackOperation(ctx context.Context, name string, threshold time.Duration, fn func(context.Context) error) error {
	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)
	if elapsed > threshold {
		slog.Warn("slow operation", slog.String("op", name), slog.Duration("elapsed", elapsed))
	}
	return err
}
