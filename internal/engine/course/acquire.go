package course

import (
	"context"
	"log/slog"
	"strings"

	"github.com/anatolykoptev/go_course/internal/engine"
)

// Captioner fetches timed caption fragments for a video identifier.
type Captioner interface {
	FetchCaptions(ctx context.Context, videoID string) ([]engine.CaptionFragment, error)
}

// AcquisitionStatus tags the outcome of a transcript fetch.
type AcquisitionStatus int

const (
	AcquiredText AcquisitionStatus = iota
	AcquiredEmpty
	AcquireFailed
)

func (s AcquisitionStatus) String() string {
	switch s {
	case AcquiredText:
		return "text"
	case AcquiredEmpty:
		return "empty"
	default:
		return "failed"
	}
}

// Acquisition is the best-effort result of fetching a transcript.
// Text is set only for AcquiredText; Reason only for AcquireFailed.
type Acquisition struct {
	Status AcquisitionStatus
	Text   string
	Reason error
}

// Available reports whether usable transcript text was acquired.
func (a Acquisition) Available() bool { return a.Status == AcquiredText }

// JoinFragments concatenates fragment texts with single spaces in the given order.
func JoinFragments(frags []engine.CaptionFragment) string {
	parts := make([]string, len(frags))
	for i, f := range frags {
		parts[i] = f.Text
	}
	return strings.Join(parts, " ")
}

// Acquire makes one caption request. Failures never escalate: they are
// logged and folded into the returned Acquisition.
func Acquire(ctx context.Context, c Captioner, videoID string) Acquisition {
	frags, err := c.FetchCaptions(ctx, videoID)
	if err != nil {
		engine.IncrYouTubeTranscriptFailed()
		slog.Warn("transcript fetch failed", slog.String("video_id", videoID), slog.Any("error", err))
		return Acquisition{Status: AcquireFailed, Reason: err}
	}
	text := JoinFragments(frags)
	if strings.TrimSpace(text) == "" {
		slog.Warn("transcript returned no text", slog.String("video_id", videoID), slog.Int("fragments", len(frags)))
		return Acquisition{Status: AcquiredEmpty}
	}
	return Acquisition{Status: AcquiredText, Text: text}
}
