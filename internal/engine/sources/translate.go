package sources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"golang.org/x/time/rate"

	"github.com/anatolykoptev/go_course/internal/engine"
)

// Google Cloud Translation v2 (basic) proxy: translate and detect.

var translateAPIBase = "https://translation.googleapis.com/language/translate/v2"

// googleAPILimiter paces outbound calls to Google APIs so one busy client
// cannot burn the shared key quota.
var googleAPILimiter = rate.NewLimiter(rate.Limit(10), 20)

var (
	// ErrTranslateKeyMissing is returned when GOOGLE_TRANSLATE_API_KEY is not configured.
	ErrTranslateKeyMissing = errors.New("google translate API key not configured")

	ErrTextRequired   = errors.New(`field "text" is required`)
	ErrTargetRequired = errors.New(`field "target" (target language code) is required`)
)

type translateResp struct {
	Data struct {
		Translations []struct {
			TranslatedText         string `json:"translatedText"`
			DetectedSourceLanguage string `json:"detectedSourceLanguage"`
		} `json:"translations"`
	} `json:"data"`
}

type detectResp struct {
	Data struct {
		Detections [][]struct {
			Language   string  `json:"language"`
			Confidence float64 `json:"confidence"`
		} `json:"detections"`
	} `json:"data"`
}

// Translate translates text into the target language.
func Translate(ctx context.Context, input engine.TranslateInput) (*engine.TranslateOutput, error) {
	if strings.TrimSpace(input.Text) == "" {
		return nil, ErrTextRequired
	}
	if strings.TrimSpace(input.Target) == "" {
		return nil, ErrTargetRequired
	}

	cacheKey := engine.CacheKey("translate", input.Text, input.Target, input.Source)
	if out, ok := engine.CacheLoadJSON[engine.TranslateOutput](ctx, cacheKey); ok {
		return &out, nil
	}

	engine.IncrTranslate()
	params := url.Values{}
	params.Set("q", input.Text)
	params.Set("target", input.Target)
	if input.Source != "" {
		params.Set("source", input.Source)
	}

	var resp translateResp
	if err := postTranslateAPI(ctx, translateAPIBase, params, &resp); err != nil {
		return nil, fmt.Errorf("translate: %w", err)
	}
	if len(resp.Data.Translations) == 0 {
		return nil, errors.New("translate: empty response")
	}
	tr := resp.Data.Translations[0]

	out := engine.TranslateOutput{
		TranslatedText:         htmlToText(tr.TranslatedText),
		DetectedSourceLanguage: tr.DetectedSourceLanguage,
		Target:                 input.Target,
	}
	engine.CacheStoreJSON(ctx, cacheKey, out)
	return &out, nil
}

// DetectLanguage detects the language of text.
func DetectLanguage(ctx context.Context, input engine.DetectInput) (*engine.DetectOutput, error) {
	if strings.TrimSpace(input.Text) == "" {
		return nil, ErrTextRequired
	}

	engine.IncrDetect()
	params := url.Values{}
	params.Set("q", input.Text)

	var resp detectResp
	if err := postTranslateAPI(ctx, translateAPIBase+"/detect", params, &resp); err != nil {
		return nil, fmt.Errorf("detect: %w", err)
	}
	if len(resp.Data.Detections) == 0 || len(resp.Data.Detections[0]) == 0 {
		return nil, errors.New("detect: empty response")
	}
	d := resp.Data.Detections[0][0]
	return &engine.DetectOutput{Language: d.Language, Confidence: d.Confidence}, nil
}

func postTranslateAPI(ctx context.Context, endpoint string, params url.Values, out any) error {
	key := engine.Cfg.TranslateAPIKey
	if key == "" {
		return ErrTranslateKeyMissing
	}
	params.Set("key", key)

	if err := googleAPILimiter.Wait(ctx); err != nil {
		return err
	}

	target := endpoint + "?" + params.Encode()
	resp, err := engine.RetryHTTP(ctx, engine.DefaultRetryConfig, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", engine.UserAgentBot)
		return engine.Cfg.HTTPClient.Do(req)
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, engine.TruncateRunes(string(body), 200, "..."))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// htmlToText converts the API's HTML-formatted output (entities, <b>, <br>) to plain markdown text.
func htmlToText(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return s
	}
	md, err := htmltomarkdown.ConvertString(s)
	if err != nil || md == "" {
		return engine.CleanHTML(s)
	}
	return strings.TrimSpace(md)
}
