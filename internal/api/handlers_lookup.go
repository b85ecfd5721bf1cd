package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/anatolykoptev/go_course/internal/engine"
	"github.com/anatolykoptev/go_course/internal/engine/sources"
	"github.com/anatolykoptev/go_course/internal/toolutil"
)

func (s *server) youtubeSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	in := engine.YouTubeSearchInput{
		Query:    q.Get("q"),
		Language: toolutil.NormLang(q.Get("language")),
	}
	if raw := q.Get("maxResults"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			sendError(w, http.StatusBadRequest, `Query parameter "maxResults" must be a number`)
			return
		}
		in.MaxResults = n
	}

	out, err := s.deps.SearchYouTube(r.Context(), in)
	if err != nil {
		if errors.Is(err, sources.ErrQueryRequired) {
			sendError(w, http.StatusBadRequest, `Query parameter "q" is required`)
			return
		}
		slog.Error("youtube search failed", slog.String("query", in.Query), slog.Any("error", err))
		sendError(w, http.StatusInternalServerError, "Failed to fetch YouTube results")
		return
	}
	sendSuccess(w, http.StatusOK, "YouTube search results", out.Videos)
}

func writeTranslateError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, sources.ErrTextRequired):
		sendError(w, http.StatusBadRequest, `Field "text" is required`)
	case errors.Is(err, sources.ErrTargetRequired):
		sendError(w, http.StatusBadRequest, `Field "target" (target language code) is required`)
	case errors.Is(err, sources.ErrTranslateKeyMissing):
		sendError(w, http.StatusInternalServerError, "Google Translate API key not configured")
	default:
		slog.Error(fallback, slog.Any("error", err))
		sendError(w, http.StatusInternalServerError, fallback)
	}
}

func (s *server) translate(w http.ResponseWriter, r *http.Request) {
	var in engine.TranslateInput
	if err := decodeBody(w, r, &in); err != nil {
		sendError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	out, err := s.deps.Translate(r.Context(), in)
	if err != nil {
		writeTranslateError(w, err, "Failed to translate text")
		return
	}
	sendSuccess(w, http.StatusOK, "Translation successful", out)
}

func (s *server) detect(w http.ResponseWriter, r *http.Request) {
	var in engine.DetectInput
	if err := decodeBody(w, r, &in); err != nil {
		sendError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	out, err := s.deps.DetectLanguage(r.Context(), in)
	if err != nil {
		writeTranslateError(w, err, "Failed to detect language")
		return
	}
	sendSuccess(w, http.StatusOK, "Language detection successful", out)
}
