package sources

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/anatolykoptev/go_course/internal/engine"
)

func withTranslateAPI(t *testing.T, key string, h http.HandlerFunc) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	prev := translateAPIBase
	translateAPIBase = srv.URL
	t.Cleanup(func() { translateAPIBase = prev })
	engine.Init(engine.Config{TranslateAPIKey: key, HTTPClient: srv.Client()})
}

func TestTranslate(t *testing.T) {
	withTranslateAPI(t, "tkey", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("key") != "tkey" || q.Get("target") != "fr" || q.Get("q") != "Hello world" {
			t.Errorf("unexpected params: %v", q)
		}
		if q.Has("source") {
			t.Error("source should be omitted when empty")
		}
		fmt.Fprint(w, `{"data":{"translations":[{"translatedText":"Bonjour le monde","detectedSourceLanguage":"en"}]}}`)
	})

	out, err := Translate(context.Background(), engine.TranslateInput{Text: "Hello world", Target: "fr"})
	if err != nil {
		t.Fatalf("Translate error: %v", err)
	}
	if out.TranslatedText != "Bonjour le monde" || out.DetectedSourceLanguage != "en" || out.Target != "fr" {
		t.Errorf("unexpected output: %+v", out)
	}
}

func TestTranslateValidation(t *testing.T) {
	engine.Init(engine.Config{TranslateAPIKey: "k"})
	ctx := context.Background()
	if _, err := Translate(ctx, engine.TranslateInput{Target: "fr"}); err == nil {
		t.Error("expected error for missing text")
	}
	if _, err := Translate(ctx, engine.TranslateInput{Text: "hi"}); err == nil {
		t.Error("expected error for missing target")
	}
}

func TestTranslateMissingKey(t *testing.T) {
	engine.Init(engine.Config{})
	_, err := Translate(context.Background(), engine.TranslateInput{Text: "hi", Target: "de"})
	if !errors.Is(err, ErrTranslateKeyMissing) {
		t.Errorf("expected ErrTranslateKeyMissing, got %v", err)
	}
}

func TestTranslateUpstreamError(t *testing.T) {
	withTranslateAPI(t, "tkey", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":{"message":"Invalid Value"}}`)
	})
	if _, err := Translate(context.Background(), engine.TranslateInput{Text: "x", Target: "zz"}); err == nil {
		t.Error("expected error on 400")
	}
}

func TestDetectLanguage(t *testing.T) {
	withTranslateAPI(t, "tkey", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/detect" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		fmt.Fprint(w, `{"data":{"detections":[[{"language":"de","confidence":0.98,"isReliable":false}]]}}`)
	})

	out, err := DetectLanguage(context.Background(), engine.DetectInput{Text: "Guten Tag"})
	if err != nil {
		t.Fatalf("DetectLanguage error: %v", err)
	}
	if out.Language != "de" || out.Confidence != 0.98 {
		t.Errorf("unexpected output: %+v", out)
	}
}

func TestHTMLToText(t *testing.T) {
	if got := htmlToText("plain"); got != "plain" {
		t.Errorf("htmlToText(plain) = %q", got)
	}
	if got := htmlToText("it&#39;s"); got != "it's" {
		t.Errorf("htmlToText entity = %q", got)
	}
}
