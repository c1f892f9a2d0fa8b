package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"arbitrage/internal/models"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ServerConfig holds HTTP/WS listener settings.
type ServerConfig struct {
	Port int
	Host string
}

// LoggingConfig controls the zap logger built at startup.
type LoggingConfig struct {
	Level  string
	Format string
}

// Config is the full process configuration: the scanner's static
// venue/symbol/threshold settings plus ambient server/logging settings.
type Config struct {
	Scanner models.Config
	Server  ServerConfig
	Logging LoggingConfig
}

// Load reads the process configuration from environment variables.
// Venues and Symbols are comma-separated lists; TakerFeePct and
// DesiredTradeVolumeBase are JSON objects keyed by venue/symbol, since
// their keys are dynamic and can't be expressed as flat env vars.
func Load() (*Config, error) {
	venues := getEnvAsList("VENUES", []string{"binance", "okx", "bybit"})
	symbols := getEnvAsList("SYMBOLS", []string{"BTC/USDT", "ETH/USDT"})

	takerFeePct, err := getEnvAsFloatMap("TAKER_FEE_PCT", map[string]float64{})
	if err != nil {
		return nil, fmt.Errorf("parsing TAKER_FEE_PCT: %w", err)
	}
	desiredVolume, err := getEnvAsFloatMap("DESIRED_TRADE_VOLUME_BASE", map[string]float64{})
	if err != nil {
		return nil, fmt.Errorf("parsing DESIRED_TRADE_VOLUME_BASE: %w", err)
	}

	cfg := &Config{
		Scanner: models.Config{
			Venues:                 venues,
			Symbols:                symbols,
			OrderBookDepth:         getEnvAsInt("ORDER_BOOK_DEPTH", 20),
			MinProfitPct:           getEnvAsFloat("MIN_PROFIT_PCT", 0.1),
			ScannerInterval:        getEnvAsInt("SCANNER_INTERVAL_SECONDS", 1),
			TakerFeePct:            takerFeePct,
			DesiredTradeVolumeBase: desiredVolume,
		},
		Server: ServerConfig{
			Port: getEnvAsInt("SERVER_PORT", 8080),
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if len(cfg.Scanner.Venues) == 0 {
		return nil, fmt.Errorf("VENUES must list at least one venue")
	}
	if len(cfg.Scanner.Symbols) == 0 {
		return nil, fmt.Errorf("SYMBOLS must list at least one symbol")
	}
	if cfg.Scanner.OrderBookDepth <= 0 {
		return nil, fmt.Errorf("ORDER_BOOK_DEPTH must be positive")
	}
	if cfg.Scanner.ScannerInterval <= 0 {
		return nil, fmt.Errorf("SCANNER_INTERVAL_SECONDS must be positive")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnvAsFloatMap(key string, defaultValue map[string]float64) (map[string]float64, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}
	var m map[string]float64
	if err := json.Unmarshal([]byte(valueStr), &m); err != nil {
		return nil, err
	}
	return m, nil
}
