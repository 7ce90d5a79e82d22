package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"

	"suumo-scraper/models"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string
	SkipDB           bool

	MaxConcurrency int
	RateLimitMs    int
	MaxRetries     int
	HTTPTimeoutSec int

	OutputDir      string
	CategoriesFile string
	Timezone       string

	// AddressContains optionally restricts surviving records to addresses
	// containing this substring (e.g. a neighborhood name). Empty disables
	// the filter.
	AddressContains string
}

// CategoryConfig is one (category, seed URL, page budget) crawl target.
type CategoryConfig struct {
	Category    string `yaml:"category"`
	SubCategory string `yaml:"sub_category"`
	SeedURL     string `yaml:"seed_url"`
	MaxPages    int    `yaml:"max_pages"`
}

type categoriesFile struct {
	Categories []CategoryConfig `yaml:"categories"`
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
		PostgresDB:       getEnv("POSTGRES_DB", "suumo_db"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		SkipDB:           getEnv("SKIP_DB", "") == "1",

		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 3),
		RateLimitMs:    getEnvInt("RATE_LIMIT_MS", 1000),
		MaxRetries:     getEnvInt("MAX_RETRIES", 3),
		HTTPTimeoutSec: getEnvInt("HTTP_TIMEOUT_SEC", 30),

		OutputDir:      getEnv("OUTPUT_DIR", "data/processed"),
		CategoriesFile: getEnv("CATEGORIES_FILE", ""),
		Timezone:       getEnv("TIMEZONE", "Asia/Tokyo"),

		AddressContains: getEnv("ADDRESS_CONTAINS", ""),
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

// Categories returns the crawl targets: the YAML file named by
// CATEGORIES_FILE when set, otherwise the compiled-in defaults.
func (c *Config) Categories() ([]CategoryConfig, error) {
	if c.CategoriesFile == "" {
		return DefaultCategories(), nil
	}
	raw, err := os.ReadFile(c.CategoriesFile)
	if err != nil {
		return nil, fmt.Errorf("config: read categories file %q: %w", c.CategoriesFile, err)
	}
	var f categoriesFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("config: parse categories file %q: %w", c.CategoriesFile, err)
	}
	if len(f.Categories) == 0 {
		return nil, fmt.Errorf("config: categories file %q lists no categories", c.CategoriesFile)
	}
	for i := range f.Categories {
		if f.Categories[i].MaxPages <= 0 {
			f.Categories[i].MaxPages = 10
		}
		if f.Categories[i].Category == "" || f.Categories[i].SeedURL == "" {
			return nil, fmt.Errorf("config: categories[%d] needs category and seed_url", i)
		}
	}
	return f.Categories, nil
}

// DefaultCategories lists the SUUMO listing sections around Okusawa station.
func DefaultCategories() []CategoryConfig {
	return []CategoryConfig{
		{
			Category:    models.CategoryRent,
			SubCategory: "賃貸",
			SeedURL:     "https://suumo.jp/chintai/tokyo/ek_06660/",
			MaxPages:    10,
		},
		{
			Category:    models.CategoryHouseNew,
			SubCategory: "戸建て(新築)",
			SeedURL:     "https://suumo.jp/ikkodate/tokyo/ek_06660/",
			MaxPages:    10,
		},
		{
			Category:    models.CategoryHouseUsed,
			SubCategory: "戸建て(中古)",
			SeedURL:     "https://suumo.jp/chukoikkodate/tokyo/ek_06660/",
			MaxPages:    10,
		},
		{
			Category:    models.CategoryLand,
			SubCategory: "土地",
			SeedURL:     "https://suumo.jp/tochi/tokyo/ek_06660/",
			MaxPages:    10,
		},
	}
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
