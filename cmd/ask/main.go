// Command ask answers one query from the terminal: the current price by
// default, or whatever free-text question is passed with -q.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

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
	var query string
	var loc string
	var overridePrice float64
	var timeout int
	var configPath string

	flag.StringVar(&query, "q", "", "free-text query; empty prints the current price")
	flag.StringVar(&loc, "locale", os.Getenv("GOLDESK_LOCALE"), "answer locale (ar|en)")
	flag.Float64Var(&overridePrice, "override", 0, "manual price per gram; bypasses all providers")
	flag.IntVar(&timeout, "timeout", 15, "request timeout seconds")
	flag.StringVar(&configPath, "config", os.Getenv("CONFIG_FILE"), "path to config.json (optional)")
	flag.Parse()

	config.LoadDotenv()
	log := zerolog.New(os.Stderr).With().Timestamp().Logger().Level(zerolog.WarnLevel)
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	if loc != "" {
		cfg.Locale = loc
	}
	if timeout > 0 {
		cfg.Server.RequestTimeoutSec = timeout
	}

	httpClient := httpx.New(time.Duration(cfg.Server.RequestTimeoutSec) * time.Second)

	chain := &spot.Chain{
		Primary: yahoo.New(yahoo.Config{BaseURL: cfg.Spot.PrimaryEndpoint, Ticker: cfg.Spot.Ticker}, httpClient),
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
		Rates: &rates.Provider{
			Client: rates.NewClient(cfg.Rates.APIKey, cfg.Rates.Currency,
				rates.WithBaseURL(cfg.Rates.Endpoint),
				rates.WithHTTPClient(httpClient.HTTP)),
			Default: cfg.Rates.DefaultRate,
			Log:     log,
		},
		Spot:  chain,
		Cache: &pricing.Cache{TTL: time.Duration(cfg.Pricing.CacheTTLSec) * time.Second},
		Norm:  pricing.Normalizer{OunceToGram: cfg.Pricing.OunceToGram, PurityFactor: cfg.Pricing.PurityFactor},
		Log:   log,
	}

	var gen textgen.Generator
	if cfg.TextGen.APIKey != "" {
		gen = textgen.NewHFClient(cfg.TextGen.APIKey, cfg.TextGen.Model,
			textgen.WithBaseURL(cfg.TextGen.Endpoint),
			textgen.WithHTTPClient(httpClient.HTTP))
	}

	r := &router.Router{
		Pricing: svc,
		News: news.New(news.Config{
			Endpoint: cfg.News.Endpoint,
			APIKey:   cfg.News.APIKey,
			MaxItems: cfg.News.MaxItems,
		}, httpClient, log),
		Gen:   gen,
		Topic: cfg.News.Topic,
		Log:   log,
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.RequestTimeoutSec)*time.Second)
	defer cancel()

	lc := locale.Parse(cfg.Locale)
	if query == "" {
		p, err := svc.Effective(ctx, overridePrice)
		if err != nil {
			fmt.Println(locale.Format(lc, locale.MsgPriceFailed))
			os.Exit(1)
		}
		id := locale.MsgPriceNow
		if p.Manual {
			id = locale.MsgPriceManual
		}
		fmt.Println(locale.Format(lc, id, p.LocalPerGram))
		return
	}
	fmt.Println(r.Answer(ctx, lc, query, overridePrice))
}
