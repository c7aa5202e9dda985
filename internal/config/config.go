package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config is resolved once at startup and passed into constructors. No
// process-wide singletons: the Source Adapter gets its credentials here.
type Config struct {
	Env           string
	APIPort       string
	MongoURI      string
	MongoDatabase string
	JWTSecret     string

	SheetsCredentialsFile string
	SpreadsheetID         string

	// BusinessTZ is the single fixed timezone for all requested/assigned/
	// completed timestamps, independent of server locale.
	BusinessTZ *time.Location

	FetchInterval time.Duration
	LookbackDays  int
	HorizonDays   int
}

func Load() (*Config, error) {
	cfg := &Config{
		Env:                   getEnv("ENV", "production"),
		APIPort:               getEnv("API_PORT", "8080"),
		MongoURI:              os.Getenv("MONGO_URI"),
		MongoDatabase:         os.Getenv("MONGO_DATABASE"),
		JWTSecret:             os.Getenv("JWT_SECRET"),
		SheetsCredentialsFile: os.Getenv("SHEETS_CREDENTIALS_FILE"),
		SpreadsheetID:         os.Getenv("SPREADSHEET_ID"),
		LookbackDays:          getEnvInt("FETCH_LOOKBACK_DAYS", 3),
		HorizonDays:           getEnvInt("FETCH_HORIZON_DAYS", 7),
	}

	if cfg.MongoURI == "" {
		return nil, fmt.Errorf("MONGO_URI is required")
	}
	if cfg.MongoDatabase == "" {
		return nil, fmt.Errorf("MONGO_DATABASE is required")
	}

	tzName := getEnv("BUSINESS_TZ", "America/New_York")
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		return nil, fmt.Errorf("invalid BUSINESS_TZ %q: %w", tzName, err)
	}
	cfg.BusinessTZ = loc

	minutes := getEnvInt("FETCH_INTERVAL_MINUTES", 240)
	cfg.FetchInterval = time.Duration(minutes) * time.Minute

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
