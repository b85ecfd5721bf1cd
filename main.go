// go_course: YouTube to course conversion service.
//
// Serves the REST API under /api/v1 and the MCP tools youtube_to_course,
// youtube_search, translate_text and detect_language.
package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/anatolykoptev/go-kit/env"
	"github.com/anatolykoptev/go-kit/llm"
	"github.com/anatolykoptev/go-mcpserver"
	stealth "github.com/anatolykoptev/go-stealth"
	"github.com/anatolykoptev/go-stealth/proxypool"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/anatolykoptev/go_course/internal/api"
	"github.com/anatolykoptev/go_course/internal/courseserver"
	"github.com/anatolykoptev/go_course/internal/engine"
	"github.com/anatolykoptev/go_course/internal/engine/course"
	"github.com/anatolykoptev/go_course/internal/engine/library"
	"github.com/anatolykoptev/go_course/internal/engine/sources"
)

var (
	version = "dev"
	mcpPort = env.Str("MCP_PORT", "8892")
	apiPort = env.Str("API_PORT", "5000")
)

func main() {
	initEngine()
	defer engine.CloseCache()

	captioner := sources.NewYouTubeCaptioner(
		env.Str("CAPTION_SOURCE", sources.CaptionSourcePage),
		env.List("CAPTION_LANGS", "en"),
	)
	pipeline, err := course.NewPipeline(captioner, course.LLMGenerator{})
	if err != nil {
		slog.Error("course pipeline init failed", slog.Any("error", err))
		return
	}
	slog.Info("course pipeline ready", slog.String("template", pipeline.Template.String()))

	lib, closeLib := initLibrary()
	defer closeLib()

	apiSrv := &http.Server{
		Addr: ":" + apiPort,
		Handler: api.NewRouter(api.Config{
			AllowedOrigins: env.List("ALLOWED_ORIGINS", ""),
			RateLimit:      env.Int("RATE_LIMIT_MAX_REQUESTS", api.DefaultRateLimit),
			RateWindow:     env.Duration("RATE_LIMIT_WINDOW", api.DefaultRateWindow),
		}, api.Deps{Converter: pipeline, Library: lib}),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      120 * time.Second,
	}
	go func() {
		slog.Info("REST API listening", slog.String("port", apiPort))
		if err := apiSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("REST API failed", slog.Any("error", err))
		}
	}()

	slog.Info("starting go_course", slog.String("port", mcpPort))

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "go_course",
		Version: version,
	}, nil)

	courseserver.RegisterTools(server, pipeline)
	slog.Info("tools registered", slog.Int("count", 4))

	if err := mcpserver.Run(server, mcpserver.Config{
		Name:         "go_course",
		Version:      version,
		Port:         mcpPort,
		WriteTimeout: 300 * time.Second,
		Metrics:      engine.FormatMetrics,
	}); err != nil {
		slog.Error("server failed", slog.Any("error", err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := apiSrv.Shutdown(ctx); err != nil {
		slog.Warn("REST API shutdown", slog.Any("error", err))
	}
}

func initEngine() {
	c := engine.Config{
		LLMAPIKey:             env.Str("LLM_API_KEY", ""),
		LLMAPIKeyFallbacks:    env.List("LLM_API_KEY_FALLBACKS", ""),
		LLMAPIBase:            env.Str("LLM_API_BASE", "https://api.openai.com/v1"),
		LLMModel:              env.Str("LLM_MODEL", "gpt-4o"),
		LLMTemperature:        env.Float("LLM_TEMPERATURE", 0.7),
		LLMMaxTokens:          env.Int("LLM_MAX_TOKENS", 8192),
		YouTubeAPIKey:         env.Str("YT_API_KEY", ""),
		YouTubeAPIKeyFallback: env.Str("YT_API_KEY_FALLBACK", ""),
		YouTubeReferer:        env.Str("YT_REFERER", ""),
		TranslateAPIKey:       env.Str("GOOGLE_TRANSLATE_API_KEY", ""),
		CourseTemplate:        env.Str("COURSE_TEMPLATE", "rich"),
		AcquireTimeout:        env.Duration("ACQUIRE_TIMEOUT", course.DefaultAcquireTimeout),
		GenerateTimeout:       env.Duration("GENERATE_TIMEOUT", course.DefaultGenerateTimeout),
		CacheTTL:              env.Duration("CACHE_TTL", 15*time.Minute),
		CacheMaxEntries:       env.Int("CACHE_MAX_ENTRIES", 1000),
		CacheCleanupInterval:  env.Duration("CACHE_CLEANUP_INTERVAL", 300*time.Second),
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     60 * time.Second,
			},
		},
	}

	opts := []stealth.ClientOption{stealth.WithTimeout(15)}
	if apiKey := env.Str("WEBSHARE_API_KEY", ""); apiKey != "" {
		pool, err := proxypool.NewWebshare(apiKey)
		if err != nil {
			slog.Warn("proxy pool init failed, running without proxy", slog.Any("error", err))
		} else {
			opts = append(opts, stealth.WithProxyPool(pool))
			slog.Info("proxy pool initialized", slog.Int("proxies", pool.Len()))
		}
	}
	bc, err := stealth.NewClient(opts...)
	if err != nil {
		slog.Warn("stealth client init failed, scraping with plain HTTP", slog.Any("error", err))
	} else {
		c.BrowserClient = bc
		slog.Info("stealth browser client initialized")
	}

	if c.LLMAPIKey != "" {
		c.LLMClient = llm.NewClient(c.LLMAPIBase, c.LLMAPIKey, c.LLMModel,
			llm.WithFallbackKeys(c.LLMAPIKeyFallbacks),
			llm.WithMaxTokens(c.LLMMaxTokens),
			llm.WithTemperature(c.LLMTemperature),
			llm.WithHTTPClient(&http.Client{Timeout: c.GenerateTimeout}),
		)
	} else {
		slog.Warn("LLM_API_KEY not set, course generation disabled")
	}

	engine.Init(c)
	engine.InitCache(env.Str("REDIS_URL", ""), c.CacheTTL, c.CacheMaxEntries, c.CacheCleanupInterval)
}

// initLibrary opens the user/prompt store. A nil library disables the
// account and prompt routes.
func initLibrary() (*library.Library, func()) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	store, err := library.Open(ctx, env.Str("DATABASE_URL", ""), env.Str("SQLITE_PATH", "data/go_course.db"))
	if err != nil {
		slog.Warn("library store init failed, accounts disabled", slog.Any("error", err))
		return nil, func() {}
	}

	secret := env.Str("JWT_SECRET", "")
	if secret == "" {
		secret = randomSecret()
		slog.Warn("JWT_SECRET not set, using an ephemeral secret; tokens will not survive restarts")
	}
	tokens, err := library.NewTokenIssuer(secret, env.Duration("JWT_TTL", library.DefaultTokenTTL))
	if err != nil {
		slog.Warn("token issuer init failed, accounts disabled", slog.Any("error", err))
		store.Close()
		return nil, func() {}
	}
	slog.Info("library store initialized")
	return library.New(store, tokens, library.DefaultHashCost), func() { store.Close() }
}

func randomSecret() string {
	b := make([]byte, 32)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
