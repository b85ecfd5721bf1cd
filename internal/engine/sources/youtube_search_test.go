package sources

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/anatolykoptev/go_course/internal/engine"
)

func withDataAPI(t *testing.T, h http.HandlerFunc, key, fallback string) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	prev := ytDataAPIBase
	ytDataAPIBase = srv.URL
	t.Cleanup(func() { ytDataAPIBase = prev })
	engine.Init(engine.Config{
		YouTubeAPIKey:         key,
		YouTubeAPIKeyFallback: fallback,
		HTTPClient:            srv.Client(),
	})
}

func writeSearchItems(w http.ResponseWriter, ids ...string) {
	var resp ytDataSearchResp
	for _, id := range ids {
		item := ytDataItem{ID: ytDataItemID{VideoID: id}}
		item.Snippet.Title = "Video &amp; " + id
		item.Snippet.ChannelTitle = "Channel"
		resp.Items = append(resp.Items, item)
	}
	_ = json.NewEncoder(w).Encode(resp)
}

func TestNormalizeMaxResults(t *testing.T) {
	tests := []struct{ in, want int }{
		{0, 10}, {-3, 10}, {5, 5}, {50, 50}, {51, 50}, {500, 50},
	}
	for _, tt := range tests {
		if got := NormalizeMaxResults(tt.in); got != tt.want {
			t.Errorf("NormalizeMaxResults(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestSearchYouTubeRequiresQuery(t *testing.T) {
	if _, err := SearchYouTube(context.Background(), engine.YouTubeSearchInput{Query: "  "}); err == nil {
		t.Error("expected error for blank query")
	}
}

func TestSearchYouTubeDataAPI(t *testing.T) {
	var gotQuery, gotMax string
	withDataAPI(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		gotMax = r.URL.Query().Get("maxResults")
		writeSearchItems(w, "aaa", "", "bbb")
	}, "key-1", "")

	out, err := SearchYouTube(context.Background(), engine.YouTubeSearchInput{Query: "golang", MaxResults: 99})
	if err != nil {
		t.Fatalf("SearchYouTube error: %v", err)
	}
	if gotQuery != "golang" || gotMax != "50" {
		t.Errorf("upstream params q=%q maxResults=%q", gotQuery, gotMax)
	}
	if len(out.Videos) != 2 {
		t.Fatalf("expected 2 videos (empty id skipped), got %d", len(out.Videos))
	}
	v := out.Videos[0]
	if v.ID != "aaa" || v.URL != "https://www.youtube.com/watch?v=aaa" {
		t.Errorf("unexpected video: %+v", v)
	}
	if v.Title != "Video & aaa" {
		t.Errorf("title not unescaped: %q", v.Title)
	}
}

func TestSearchYouTubeFallbackKey(t *testing.T) {
	var keys []string
	withDataAPI(t, func(w http.ResponseWriter, r *http.Request) {
		key := r.URL.Query().Get("key")
		keys = append(keys, key)
		if key == "primary" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		writeSearchItems(w, "ccc")
	}, "primary", "secondary")

	out, err := SearchYouTube(context.Background(), engine.YouTubeSearchInput{Query: "fallback"})
	if err != nil {
		t.Fatalf("SearchYouTube error: %v", err)
	}
	if len(keys) != 2 || keys[1] != "secondary" {
		t.Errorf("keys tried = %v", keys)
	}
	if len(out.Videos) != 1 || out.Videos[0].ID != "ccc" {
		t.Errorf("unexpected videos: %+v", out.Videos)
	}
}

func TestExtractVideosFromInitialData(t *testing.T) {
	data := []byte(`{"contents":{"sectionListRenderer":{"contents":[{"itemSectionRenderer":{"contents":[
		{"videoRenderer":{"videoId":"v1","title":{"runs":[{"text":"First"}]},"ownerText":{"runs":[{"text":"Chan"}]},"descriptionSnippet":{"runs":[{"text":"Desc "},{"text":"more"}]}}},
		{"adRenderer":{}},
		{"videoRenderer":{"videoId":"v2","title":{"runs":[{"text":"Second"}]}}}
	]}}]}}}`)

	videos := extractVideosFromInitialData(data, 5)
	if len(videos) != 2 {
		t.Fatalf("expected 2 videos, got %d", len(videos))
	}
	if videos[0].ID != "v1" || videos[0].Title != "First" || videos[0].Channel != "Chan" || videos[0].Description != "Desc more" {
		t.Errorf("unexpected first video: %+v", videos[0])
	}

	if got := extractVideosFromInitialData(data, 1); len(got) != 1 {
		t.Errorf("limit not applied: %d", len(got))
	}
}

func TestSearchYouTubeScrapesResultsPage(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("search_query")
		_, _ = w.Write([]byte(`<script>var ytInitialData = {"contents":[{"videoRenderer":{"videoId":"s1","title":{"runs":[{"text":"Scraped {braces}"}]}}}]};</script>`))
	}))
	t.Cleanup(srv.Close)
	prev := ytResultsURL
	ytResultsURL = srv.URL
	t.Cleanup(func() { ytResultsURL = prev })
	engine.Init(engine.Config{HTTPClient: srv.Client()})

	out, err := SearchYouTube(context.Background(), engine.YouTubeSearchInput{Query: "go tutorial"})
	if err != nil {
		t.Fatalf("SearchYouTube: %v", err)
	}
	if gotQuery != "go tutorial" {
		t.Errorf("search_query = %q", gotQuery)
	}
	if len(out.Videos) != 1 || out.Videos[0].Title != "Scraped {braces}" {
		t.Errorf("unexpected videos: %+v", out.Videos)
	}
}

func TestSearchYouTubeScrapeMissingData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html>consent</html>`))
	}))
	t.Cleanup(srv.Close)
	prev := ytResultsURL
	ytResultsURL = srv.URL
	t.Cleanup(func() { ytResultsURL = prev })
	engine.Init(engine.Config{HTTPClient: srv.Client()})

	if _, err := SearchYouTube(context.Background(), engine.YouTubeSearchInput{Query: "x"}); err == nil {
		t.Error("expected error when ytInitialData is absent")
	}
}

func TestExtractVideosFromInitialDataStableOrder(t *testing.T) {
	data := []byte(`{"zeta":{"videoRenderer":{"videoId":"z"}},"alpha":{"videoRenderer":{"videoId":"a"}},"mid":{"videoRenderer":{"videoId":"m"}}}`)
	for i := 0; i < 20; i++ {
		videos := extractVideosFromInitialData(data, 2)
		if len(videos) != 2 || videos[0].ID != "a" || videos[1].ID != "m" {
			t.Fatalf("run %d: unexpected order %+v", i, videos)
		}
	}
}
