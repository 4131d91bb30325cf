package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

type Server struct {
	Port              string `json:"port"`
	RequestTimeoutSec int    `json:"request_timeout_sec"`
}

// Rates configures the USD to local currency conversion source.
type Rates struct {
	APIKey      string  `json:"api_key"`
	Endpoint    string  `json:"endpoint"`
	Currency    string  `json:"currency"`
	DefaultRate float64 `json:"default_rate"`
}

// Spot configures the spot price chain: primary market data source,
// secondary realtime quote source, and the last-resort constant.
type Spot struct {
	Ticker             string  `json:"ticker"`
	PrimaryEndpoint    string  `json:"primary_endpoint"`
	FallbackAPIKey     string  `json:"fallback_api_key"`
	FallbackEndpoint   string  `json:"fallback_endpoint"`
	DefaultUSDPerOunce float64 `json:"default_usd_per_ounce"`
	// MinFallbackIntervalSec throttles the secondary source, whose free
	// tier enforces a hard per-minute quota.
	MinFallbackIntervalSec int `json:"min_fallback_interval_sec"`
}

type News struct {
	APIKey   string `json:"api_key"`
	Endpoint string `json:"endpoint"`
	Topic    string `json:"topic"`
	MaxItems int    `json:"max_items"`
}

type TextGen struct {
	APIKey   string `json:"api_key"`
	Endpoint string `json:"endpoint"`
	Model    string `json:"model"`
}

type Pricing struct {
	CacheTTLSec  int     `json:"cache_ttl_sec"`
	OunceToGram  float64 `json:"ounce_to_gram"`
	PurityFactor float64 `json:"purity_factor"`
}

type Config struct {
	Server  Server  `json:"server"`
	Locale  string  `json:"locale"`
	Rates   Rates   `json:"rates"`
	Spot    Spot    `json:"spot"`
	News    News    `json:"news"`
	TextGen TextGen `json:"textgen"`
	Pricing Pricing `json:"pricing"`
}

func Default() Config {
	return Config{
		Server: Server{Port: "8080", RequestTimeoutSec: 10},
		Locale: "ar",
		Rates: Rates{
			Endpoint:    "https://v6.exchangerate-api.com/v6",
			Currency:    "EGP",
			DefaultRate: 47.5,
		},
		Spot: Spot{
			Ticker:                 "GC=F",
			PrimaryEndpoint:        "https://query1.finance.yahoo.com/v8/finance/chart",
			FallbackEndpoint:       "https://www.alphavantage.co/query",
			DefaultUSDPerOunce:     2000.0,
			MinFallbackIntervalSec: 15,
		},
		News: News{
			Endpoint: "https://newsapi.org/v2/everything",
			Topic:    "gold egypt",
			MaxItems: 3,
		},
		TextGen: TextGen{
			Endpoint: "https://api-inference.huggingface.co/models",
			Model:    "google/flan-t5-large",
		},
		Pricing: Pricing{
			CacheTTLSec:  300,
			OunceToGram:  31.1035,
			PurityFactor: 0.875,
		},
	}
}

// Load reads JSON config from path. If path is empty or file does not exist,
// it returns defaults. Environment variables override select fields so
// credentials can stay out of the config file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		if _, err := os.Stat("config.json"); err == nil {
			path = "config.json"
		}
	}
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err == nil {
			if err := json.Unmarshal(b, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config: %w", err)
			}
		}
	}
	applyEnv(&cfg)
	return cfg, nil
}

// LoadDotenv loads a .env file into the process environment if one exists.
// Missing files are not an error; the keys may come from the real environment.
func LoadDotenv() {
	_ = godotenv.Load()
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.Port = v
	}
	if v := os.Getenv("REQUEST_TIMEOUT_SEC"); v != "" {
		var x int
		fmt.Sscanf(v, "%d", &x)
		if x > 0 {
			cfg.Server.RequestTimeoutSec = x
		}
	}
	if v := os.Getenv("GOLDESK_LOCALE"); v != "" {
		cfg.Locale = v
	}
	if v := os.Getenv("EXCHANGE_RATE_API_KEY"); v != "" {
		cfg.Rates.APIKey = v
	}
	if v := os.Getenv("EXCHANGE_RATE_CURRENCY"); v != "" {
		cfg.Rates.Currency = v
	}
	if v := os.Getenv("ALPHA_VANTAGE_API_KEY"); v != "" {
		cfg.Spot.FallbackAPIKey = v
	}
	if v := os.Getenv("SPOT_TICKER"); v != "" {
		cfg.Spot.Ticker = v
	}
	if v := os.Getenv("NEWS_API_KEY"); v != "" {
		cfg.News.APIKey = v
	}
	if v := os.Getenv("NEWS_TOPIC"); v != "" {
		cfg.News.Topic = v
	}
	if v := os.Getenv("HF_API_TOKEN"); v != "" {
		cfg.TextGen.APIKey = v
	}
	if v := os.Getenv("HF_MODEL"); v != "" {
		cfg.TextGen.Model = v
	}
	if v := os.Getenv("PRICE_CACHE_TTL_SEC"); v != "" {
		var x int
		fmt.Sscanf(v, "%d", &x)
		if x >= 0 {
			cfg.Pricing.CacheTTLSec = x
		}
	}
}
