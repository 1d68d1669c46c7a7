package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment
// variables. It is constructed once at process start and passed by value
// into each component; nothing mutates it afterwards.
type Config struct {
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	RedisAddr    string
	RedisDB      int
	RedisChannel string

	DataDir      string
	ListingsCSV  string
	MergedCSV    string
	BaseOfferURL string

	MaxDistanceKm  float64
	RequestDelayMs int
	MaxRetries     int
	PageLoadWaitMs int
	ScrollWaitMs   int

	ChromeBin         string
	RemoteDebuggerURL string
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "scraper"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "scraper123"),
		PostgresDB:       getEnv("POSTGRES_DB", "rental_db"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		RedisAddr:    getEnv("REDIS_ADDR", ""),
		RedisDB:      getEnvInt("REDIS_DB", 0),
		RedisChannel: getEnv("REDIS_CHANNEL", "scrape-runs"),

		DataDir:      getEnv("CIAN_DATA_DIR", "./cian_data"),
		ListingsCSV:  getEnv("LISTINGS_CSV", "listings"),
		MergedCSV:    getEnv("MERGED_CSV", "merged_listings"),
		BaseOfferURL: getEnv("BASE_OFFER_URL", "https://www.cian.ru/rent/flat/"),

		MaxDistanceKm:  getEnvFloat("MAX_DISTANCE_KM", 3.0),
		RequestDelayMs: getEnvInt("REQUEST_DELAY_MS", 3000),
		MaxRetries:     getEnvInt("MAX_RETRIES", 3),
		PageLoadWaitMs: getEnvInt("PAGE_LOAD_WAIT_MS", 5000),
		ScrollWaitMs:   getEnvInt("SCROLL_WAIT_MS", 2000),

		ChromeBin:         getEnv("CHROME_BIN", ""),
		RemoteDebuggerURL: getEnv("REMOTE_DEBUGGER_URL", ""),
	}
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		f, err := strconv.ParseFloat(val, 64)
		if err == nil {
			return f
		}
	}
	return fallback
}
