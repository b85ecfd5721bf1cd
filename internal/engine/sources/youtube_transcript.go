package sources

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/anatolykoptev/go_course/internal/engine"
)

// YouTube caption fetching. One attempt per call, no retries:
//   page:   scrape the watch page ytInitialPlayerResponse → caption XML (default)
//   player: ANDROID Innertube /player → captionTracks → caption XML

// Caption source names accepted by YouTubeCaptioner.Source.
const (
	CaptionSourcePage   = "page"
	CaptionSourcePlayer = "player"
)

// ErrNoCaptions reports a video without usable caption tracks.
var ErrNoCaptions = errors.New("youtube: no captions available")

// YouTubeCaptioner fetches timed caption fragments for a video ID.
type YouTubeCaptioner struct {
	HTTPClient *http.Client
	UserAgent  string   // browser identification; empty picks a random browser UA per request
	Langs      []string // preferred caption languages, most preferred first
	Source     string   // CaptionSourcePage (default) or CaptionSourcePlayer

	// Overridable endpoints, used by tests.
	WatchBaseURL string
	PlayerURL    string
}

// NewYouTubeCaptioner returns a captioner wired to engine.Cfg.HTTPClient.
func NewYouTubeCaptioner(source string, langs []string) *YouTubeCaptioner {
	return &YouTubeCaptioner{
		HTTPClient: engine.Cfg.HTTPClient,
		Langs:      langs,
		Source:     source,
	}
}

// FetchCaptions returns caption fragments in the order YouTube serves them.
func (c *YouTubeCaptioner) FetchCaptions(ctx context.Context, videoID string) ([]engine.CaptionFragment, error) {
	engine.IncrYouTubeTranscript()
	if c.Source == CaptionSourcePlayer {
		return c.fetchViaPlayer(ctx, videoID)
	}
	return c.fetchViaPageScrape(ctx, videoID)
}

func (c *YouTubeCaptioner) client() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

func (c *YouTubeCaptioner) userAgent() string {
	if c.UserAgent != "" {
		return c.UserAgent
	}
	return engine.RandomUserAgent()
}

func (c *YouTubeCaptioner) langs() []string {
	if len(c.Langs) > 0 {
		return c.Langs
	}
	return []string{"en"}
}

// needsPoToken reports whether a caption track URL requires a PoToken (browser-only).
// Tracks with &exp=xpe cannot be fetched server-side.
func needsPoToken(baseURL string) bool {
	return strings.Contains(baseURL, "&exp=xpe")
}

// pickBestTrack selects the best usable caption track for the given language preferences.
// Skips tracks that require PoToken; those only work in a browser.
func pickBestTrack(tracks []captionTrack, langs []string) (captionTrack, bool) {
	usable := make([]captionTrack, 0, len(tracks))
	for _, t := range tracks {
		if !needsPoToken(t.BaseURL) {
			usable = append(usable, t)
		}
	}
	if len(usable) == 0 {
		return captionTrack{}, false
	}
	// 1. Manual track in preferred language
	for _, lang := range langs {
		for _, t := range usable {
			if t.LanguageCode == lang && t.Kind != "asr" {
				return t, true
			}
		}
	}
	// 2. Auto-generated track in preferred language
	for _, lang := range langs {
		for _, t := range usable {
			if t.LanguageCode == lang {
				return t, true
			}
		}
	}
	// 3. Any English track
	for _, t := range usable {
		if strings.HasPrefix(t.LanguageCode, "en") {
			return t, true
		}
	}
	return usable[0], true
}

// fetchTimedText fetches and parses a YouTube timedtext XML caption URL.
func (c *YouTubeCaptioner) fetchTimedText(ctx context.Context, baseURL string) ([]engine.CaptionFragment, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent())
	resp, err := c.client().Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch timedtext: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch timedtext: HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 2*1024*1024))
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}

	var tt ytTimedText
	if err := xml.Unmarshal(body, &tt); err != nil {
		return nil, fmt.Errorf("parse timedtext XML: %w", err)
	}
	return tt.fragments(), nil
}

// ytInitialPlayerResponseMarker marks the start of the player response JSON in watch page HTML.
const ytInitialPlayerResponseMarker = "ytInitialPlayerResponse = "

// fetchViaPageScrape scrapes the YouTube watch page HTML and extracts
// the caption track XML URL from ytInitialPlayerResponse.
func (c *YouTubeCaptioner) fetchViaPageScrape(ctx context.Context, videoID string) ([]engine.CaptionFragment, error) {
	base := c.WatchBaseURL
	if base == "" {
		base = ytWatchBaseURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+videoID, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent())
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	resp, err := c.client().Do(req)
	if err != nil {
		return nil, fmt.Errorf("watch page: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("watch page: HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 6*1024*1024))
	if err != nil {
		return nil, fmt.Errorf("read watch page: %w", err)
	}

	idx := bytes.Index(body, []byte(ytInitialPlayerResponseMarker))
	if idx < 0 {
		return nil, errors.New("ytInitialPlayerResponse not found in watch page")
	}
	jsonData := extractJSON(body[idx+len(ytInitialPlayerResponseMarker):])
	if jsonData == nil {
		return nil, errors.New("failed to extract ytInitialPlayerResponse JSON")
	}

	var playerResp innertubePlayerResp
	if err := json.Unmarshal(jsonData, &playerResp); err != nil {
		return nil, fmt.Errorf("decode ytInitialPlayerResponse: %w", err)
	}
	return c.fetchFromPlayerResponse(ctx, playerResp)
}

// fetchViaPlayer uses the ANDROID Innertube /player endpoint.
// Works from non-blocked (residential/cloud) IP addresses.
func (c *YouTubeCaptioner) fetchViaPlayer(ctx context.Context, videoID string) ([]engine.CaptionFragment, error) {
	reqBody, err := json.Marshal(innertubeReq{
		VideoID: videoID,
		Context: innertubeCtx{
			Client: innertubeClient{
				ClientName:        "ANDROID",
				ClientVersion:     ytAndroidVersion,
				AndroidSdkVersion: 30,
				Hl:                "en",
				Gl:                "US",
			},
		},
		RacyCheckOk:    true,
		ContentCheckOk: true,
	})
	if err != nil {
		return nil, err
	}

	endpoint := c.PlayerURL
	if endpoint == "" {
		endpoint = ytInnertubeURL
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint+"?prettyPrint=false", bytes.NewReader(reqBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", ytAndroidUA)
	req.Header.Set("X-Youtube-Client-Name", "3")
	req.Header.Set("X-Youtube-Client-Version", ytAndroidVersion)
	resp, err := c.client().Do(req)
	if err != nil {
		return nil, fmt.Errorf("android innertube: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("android innertube: HTTP %d", resp.StatusCode)
	}

	var playerResp innertubePlayerResp
	if err := json.NewDecoder(resp.Body).Decode(&playerResp); err != nil {
		return nil, fmt.Errorf("decode player: %w", err)
	}
	return c.fetchFromPlayerResponse(ctx, playerResp)
}

func (c *YouTubeCaptioner) fetchFromPlayerResponse(ctx context.Context, playerResp innertubePlayerResp) ([]engine.CaptionFragment, error) {
	if playerResp.Captions == nil {
		if playerResp.PlayabilityStatus != nil && playerResp.PlayabilityStatus.Reason != "" {
			return nil, fmt.Errorf("%w: %s", ErrNoCaptions, playerResp.PlayabilityStatus.Reason)
		}
		return nil, ErrNoCaptions
	}
	tracks := playerResp.Captions.PlayerCaptionsTracklistRenderer.CaptionTracks
	if len(tracks) == 0 {
		return nil, ErrNoCaptions
	}
	track, ok := pickBestTrack(tracks, c.langs())
	if !ok {
		return nil, fmt.Errorf("%w: all caption tracks require PoToken", ErrNoCaptions)
	}
	return c.fetchTimedText(ctx, track.BaseURL)
}
