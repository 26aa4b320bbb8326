package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// defaultFeeds are the security news sources pulled when FEED_URLS is
// not set.
var defaultFeeds = []string{
	"https://krebsonsecurity.com/feed/",
	"https://www.bleepingcomputer.com/feed/",
	"https://feeds.feedburner.com/TheHackersNews",
}

type Config struct {
	Env                 string
	ListenAddr          string
	DatabaseURL         string
	APIBaseURL          string
	RiskConfigPath      string
	FeedURLs            []string
	FeedRefreshInterval time.Duration
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func Load() (Config, error) {
	// Local development convenience; missing .env is not an error.
	_ = godotenv.Load()

	cfg := Config{
		Env:                 getenv("APP_ENV", "development"),
		ListenAddr:          getenv("LISTEN_ADDR", ":8080"),
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		APIBaseURL:          getenv("API_BASE_URL", "http://localhost:8080"),
		RiskConfigPath:      getenv("RISK_CONFIG_PATH", ""),
		FeedURLs:            defaultFeeds,
		FeedRefreshInterval: getenvDuration("FEED_REFRESH_INTERVAL", 15*time.Minute),
	}
	if v := os.Getenv("FEED_URLS"); v != "" {
		var urls []string
		for _, u := range strings.Split(v, ",") {
			if u = strings.TrimSpace(u); u != "" {
				urls = append(urls, u)
			}
		}
		if len(urls) > 0 {
			cfg.FeedURLs = urls
		}
	}
	if cfg.DatabaseURL == "" {
		// Not fatal for early local runs; warn via error value so callers can decide.
		return cfg, fmt.Errorf("DATABASE_URL not set")
	}
	return cfg, nil
}
