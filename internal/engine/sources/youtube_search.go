package sources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/anatolykoptev/go_course/internal/engine"
)

// YouTube search: Data API v3 with scraping fallback.

var (
	ytDataAPIBase   = "https://www.googleapis.com/youtube/v3"
	ytResultsURL    = "https://www.youtube.com/results"
	errQuotaExceded = errors.New("youtube data API: quota exceeded")

	ErrQueryRequired = errors.New(`query parameter "q" is required`)
)

const (
	ytInitialDataMarker = "var ytInitialData = "
	ytSearchFilter      = "EgIQAQ%3D%3D" // videos-only filter param

	ytDefaultResults = 10
	ytMaxResults     = 50
)

// --- YouTube Data API v3 types ---

type ytDataSearchResp struct {
	Items []ytDataItem `json:"items"`
}

type ytDataItem struct {
	ID      ytDataItemID      `json:"id"`
	Snippet ytDataItemSnippet `json:"snippet"`
}

type ytDataItemID struct {
	VideoID string `json:"videoId"`
}

type ytDataItemSnippet struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	ChannelTitle string `json:"channelTitle"`
	PublishedAt  string `json:"publishedAt"`
	Thumbnails   struct {
		Medium struct {
			URL string `json:"url"`
		} `json:"medium"`
	} `json:"thumbnails"`
}

// --- ytInitialData scraping types ---

type ytSearchResult struct {
	VideoRenderer *struct {
		VideoID string `json:"videoId"`
		Title   struct {
			Runs []struct{ Text string } `json:"runs"`
		} `json:"title"`
		OwnerText struct {
			Runs []struct{ Text string } `json:"runs"`
		} `json:"ownerText"`
		DescriptionSnippet *struct {
			Runs []struct{ Text string } `json:"runs"`
		} `json:"descriptionSnippet"`
	} `json:"videoRenderer"`
}

// NormalizeMaxResults applies the default (10) and the API ceiling (50).
func NormalizeMaxResults(n int) int {
	if n <= 0 {
		return ytDefaultResults
	}
	if n > ytMaxResults {
		return ytMaxResults
	}
	return n
}

// SearchYouTube searches YouTube videos.
// Uses YouTube Data API v3 when a key is configured; otherwise scrapes ytInitialData.
// Results are cached for engine.Cfg.CacheTTL.
func SearchYouTube(ctx context.Context, input engine.YouTubeSearchInput) (engine.YouTubeSearchOutput, error) {
	query := strings.TrimSpace(input.Query)
	if query == "" {
		return engine.YouTubeSearchOutput{}, ErrQueryRequired
	}
	limit := NormalizeMaxResults(input.MaxResults)

	cacheKey := engine.CacheKey("youtube_search", query, input.Language, strconv.Itoa(limit))
	if out, ok := engine.CacheLoadJSON[engine.YouTubeSearchOutput](ctx, cacheKey); ok {
		return out, nil
	}

	engine.IncrYouTubeSearch()
	var (
		videos []engine.YouTubeVideo
		err    error
	)
	if engine.Cfg.YouTubeAPIKey != "" {
		videos, err = searchYouTubeDataAPI(ctx, query, input.Language, limit)
	} else {
		videos, err = searchYouTubeInitialData(ctx, query, limit)
	}
	if err != nil {
		return engine.YouTubeSearchOutput{}, err
	}
	if videos == nil {
		videos = []engine.YouTubeVideo{}
	}

	out := engine.YouTubeSearchOutput{Query: query, Videos: videos}
	engine.CacheStoreJSON(ctx, cacheKey, out)
	return out, nil
}

// searchYouTubeDataAPI searches via YouTube Data API v3.
// Falls back to the secondary key on quota errors (403).
func searchYouTubeDataAPI(ctx context.Context, query, language string, limit int) ([]engine.YouTubeVideo, error) {
	keys := []string{engine.Cfg.YouTubeAPIKey}
	if engine.Cfg.YouTubeAPIKeyFallback != "" {
		keys = append(keys, engine.Cfg.YouTubeAPIKeyFallback)
	}
	var lastErr error
	for _, key := range keys {
		videos, err := doYouTubeDataSearch(ctx, query, language, limit, key)
		if err == nil {
			return videos, nil
		}
		lastErr = err
		if !errors.Is(err, errQuotaExceded) {
			break
		}
		slog.Debug("youtube data API key exhausted, trying fallback", slog.Any("err", err))
	}
	return nil, lastErr
}

func doYouTubeDataSearch(ctx context.Context, query, language string, limit int, apiKey string) ([]engine.YouTubeVideo, error) {
	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("q", query)
	params.Set("type", "video")
	params.Set("maxResults", strconv.Itoa(limit))
	params.Set("key", apiKey)
	if language != "" && language != "all" {
		params.Set("relevanceLanguage", language)
	}

	if err := googleAPILimiter.Wait(ctx); err != nil {
		return nil, err
	}

	apiURL := ytDataAPIBase + "/search?" + params.Encode()
	resp, err := engine.RetryHTTP(ctx, engine.DefaultRetryConfig, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", engine.UserAgentBot)
		if engine.Cfg.YouTubeReferer != "" {
			req.Header.Set("Referer", engine.Cfg.YouTubeReferer)
		}
		return engine.Cfg.HTTPClient.Do(req)
	})
	if err != nil {
		return nil, fmt.Errorf("youtube data API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusForbidden {
		return nil, errQuotaExceded
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("youtube data API %d: %s", resp.StatusCode, string(body))
	}

	var result ytDataSearchResp
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode youtube data API: %w", err)
	}

	videos := make([]engine.YouTubeVideo, 0, len(result.Items))
	for _, item := range result.Items {
		if item.ID.VideoID == "" {
			continue
		}
		videos = append(videos, engine.YouTubeVideo{
			ID:          item.ID.VideoID,
			Title:       engine.CleanHTML(item.Snippet.Title),
			URL:         ytWatchBaseURL + item.ID.VideoID,
			Channel:     item.Snippet.ChannelTitle,
			Description: engine.TruncateRunes(item.Snippet.Description, 200, "..."),
			PublishedAt: item.Snippet.PublishedAt,
			Thumbnail:   item.Snippet.Thumbnails.Medium.URL,
		})
	}
	return videos, nil
}

// searchYouTubeInitialData scrapes YouTube search results by parsing ytInitialData.
// The stealth browser client is preferred when configured; YouTube serves
// consent walls to plain Go TLS fingerprints more often.
func searchYouTubeInitialData(ctx context.Context, query string, limit int) ([]engine.YouTubeVideo, error) {
	searchURL := ytResultsURL + "?search_query=" + url.QueryEscape(query) + "&sp=" + ytSearchFilter

	body, err := fetchResultsPage(ctx, searchURL)
	if err != nil {
		return nil, err
	}

	idx := strings.Index(string(body), ytInitialDataMarker)
	if idx < 0 {
		return nil, errors.New("ytInitialData not found in YouTube search response")
	}
	jsonData := extractJSON(body[idx+len(ytInitialDataMarker):])
	if jsonData == nil {
		return nil, errors.New("failed to extract ytInitialData JSON")
	}
	return extractVideosFromInitialData(jsonData, limit), nil
}

func fetchResultsPage(ctx context.Context, searchURL string) ([]byte, error) {
	if bc := engine.Cfg.BrowserClient; bc != nil {
		headers := engine.ChromeHeaders()
		headers["accept-language"] = "en-US,en;q=0.9"
		data, _, status, err := bc.Do(http.MethodGet, searchURL, headers, nil)
		if err != nil {
			return nil, fmt.Errorf("youtube search page: %w", err)
		}
		if status != http.StatusOK {
			return nil, fmt.Errorf("youtube search page: HTTP %d", status)
		}
		return data, nil
	}

	resp, err := engine.RetryHTTP(ctx, engine.DefaultRetryConfig, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", engine.RandomUserAgent())
		req.Header.Set("Accept-Language", "en-US,en;q=0.9")
		req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
		return engine.Cfg.HTTPClient.Do(req)
	})
	if err != nil {
		return nil, fmt.Errorf("youtube search page: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("youtube search page: HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4*1024*1024))
	if err != nil {
		return nil, fmt.Errorf("read youtube search response: %w", err)
	}
	return body, nil
}

// extractJSON extracts a complete JSON object starting at b[0] == '{' by tracking brace depth.
func extractJSON(b []byte) []byte {
	if len(b) == 0 || b[0] != '{' {
		return nil
	}
	depth := 0
	inStr := false
	escaped := false
	for i, c := range b {
		if inStr {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inStr = false
			}
			continue
		}
		switch c {
		case '"':
			inStr = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return b[:i+1]
			}
		}
	}
	return nil
}

// extractVideosFromInitialData recursively walks ytInitialData JSON for videoRenderer entries.
func extractVideosFromInitialData(data []byte, limit int) []engine.YouTubeVideo {
	var results []engine.YouTubeVideo
	var walk func(v json.RawMessage)
	walk = func(v json.RawMessage) {
		if len(results) >= limit {
			return
		}
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(v, &obj); err == nil {
			if raw, ok := obj["videoRenderer"]; ok {
				var vr ytSearchResult
				if err := json.Unmarshal(raw, &vr.VideoRenderer); err == nil &&
					vr.VideoRenderer != nil && vr.VideoRenderer.VideoID != "" {
					results = append(results, videoFromRenderer(vr))
					return
				}
			}
			keys := make([]string, 0, len(obj))
			for k := range obj {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				if len(results) >= limit {
					return
				}
				walk(obj[k])
			}
			return
		}
		var arr []json.RawMessage
		if err := json.Unmarshal(v, &arr); err == nil {
			for _, item := range arr {
				if len(results) >= limit {
					return
				}
				walk(item)
			}
		}
	}
	walk(data)
	return results
}

func videoFromRenderer(vr ytSearchResult) engine.YouTubeVideo {
	r := vr.VideoRenderer
	title := ""
	if len(r.Title.Runs) > 0 {
		title = r.Title.Runs[0].Text
	}
	channel := ""
	if len(r.OwnerText.Runs) > 0 {
		channel = r.OwnerText.Runs[0].Text
	}
	var snippetParts []string
	if r.DescriptionSnippet != nil {
		for _, run := range r.DescriptionSnippet.Runs {
			snippetParts = append(snippetParts, run.Text)
		}
	}
	return engine.YouTubeVideo{
		ID:          r.VideoID,
		Title:       title,
		URL:         ytWatchBaseURL + r.VideoID,
		Channel:     channel,
		Description: engine.TruncateRunes(strings.Join(snippetParts, ""), 200, "..."),
	}
}
