package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"goldesk/internal/config"
	"goldesk/internal/httpx"
	"goldesk/internal/locale"
	"goldesk/internal/news"
	"goldesk/internal/pricing"
	"goldesk/internal/ratelimit"
	"goldesk/internal/rates"
	"goldesk/internal/router"
	"goldesk/internal/spot"
	"goldesk/internal/spot/alphavantage"
	"goldesk/internal/spot/yahoo"
	"goldesk/internal/textgen"
)

func main() {
	config.LoadDotenv()
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	log := zerolog.New(os.Stderr).With().Timestamp().Str("service", "goldesk").Logger()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	if cfg.Rates.APIKey == "" {
		log.Warn().Msg("EXCHANGE_RATE_API_KEY not set; exchange rate will always degrade to default")
	}
	if cfg.Spot.FallbackAPIKey == "" {
		log.Warn().Msg("ALPHA_VANTAGE_API_KEY not set; spot fallback source disabled")
	}

	httpClient := httpx.New(time.Duration(cfg.Server.RequestTimeoutSec) * time.Second)

	ratesProvider := &rates.Provider{
		Client: rates.NewClient(cfg.Rates.APIKey, cfg.Rates.Currency,
			rates.WithBaseURL(cfg.Rates.Endpoint),
			rates.WithHTTPClient(httpClient.HTTP)),
		Default: cfg.Rates.DefaultRate,
		Log:     log,
	}

	primary := yahoo.New(yahoo.Config{
		BaseURL: cfg.Spot.PrimaryEndpoint,
		Ticker:  cfg.Spot.Ticker,
	}, httpClient)
	chain := &spot.Chain{
		Primary: primary,
		Default: cfg.Spot.DefaultUSDPerOunce,
		Log:     log,
	}
	if cfg.Spot.FallbackAPIKey != "" {
		chain.Fallback = alphavantage.New(alphavantage.Config{
			BaseURL: cfg.Spot.FallbackEndpoint,
			APIKey:  cfg.Spot.FallbackAPIKey,
			Gate:    &ratelimit.MinInterval{Interval: time.Duration(cfg.Spot.MinFallbackIntervalSec) * time.Second},
		}, httpClient)
	}

	svc := &pricing.Service{
		Rates: ratesProvider,
		Spot:  chain,
		Cache: &pricing.Cache{TTL: time.Duration(cfg.Pricing.CacheTTLSec) * time.Second},
		Norm: pricing.Normalizer{
			OunceToGram:  cfg.Pricing.OunceToGram,
			PurityFactor: cfg.Pricing.PurityFactor,
		},
		Log: log,
	}

	newsClient := news.New(news.Config{
		Endpoint: cfg.News.Endpoint,
		APIKey:   cfg.News.APIKey,
		MaxItems: cfg.News.MaxItems,
		Gate:     ratelimit.NewTokenBucket(1, 2),
	}, httpClient, log)

	var gen textgen.Generator
	if cfg.TextGen.APIKey != "" {
		gen = textgen.NewHFClient(cfg.TextGen.APIKey, cfg.TextGen.Model,
			textgen.WithBaseURL(cfg.TextGen.Endpoint),
			textgen.WithHTTPClient(httpClient.HTTP))
	} else {
		log.Warn().Msg("HF_API_TOKEN not set; free-text queries fall back to static guidance")
	}

	app := &app{
		pricing: svc,
		router: &router.Router{
			Pricing: svc,
			News:    newsClient,
			Gen:     gen,
			Topic:   cfg.News.Topic,
			Log:     log,
		},
		news:          newsClient,
		topic:         cfg.News.Topic,
		defaultLocale: locale.Parse(cfg.Locale),
		log:           log,
	}

	mux := chi.NewRouter()
	mux.Use(withRequestID(log), withRecover, withJSONHeaders, withBodyLimit)
	mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	mux.Route("/api", func(api chi.Router) {
		api.Get("/price", app.handlePrice)
		api.Get("/change", app.handleChange)
		api.Get("/news", app.handleNews)
		api.Get("/trend", app.handleTrend)
		api.Get("/average", app.handleAverage)
		api.Get("/purchase", app.handlePurchase)
		api.Get("/portfolio", app.handlePortfolio)
		api.Post("/ask", app.handleAsk)
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server")
		}
	}()

	// graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}
