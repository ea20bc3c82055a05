// Package config loads runtime configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"kittenfeed/internal/domain"
)

// Supported state stores.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
	StoreMongo    = "mongo"
)

// Config is read once at start and treated as immutable.
type Config struct {
	Addr   string
	WebDir string

	Store       string
	DatabaseURL string
	RedisURL    string
	MongoURL    string
	MongoDB     string

	LogLevel          string
	CORSAllowedOrigin string
	RateLimitPerMin   int
	Location          *time.Location

	ReminderPollInterval time.Duration
	ReminderAfter        time.Duration
	TelegramBotToken     string

	AdviceBaseURL   string
	AdviceAPIKey    string
	AdviceModel     string
	AdviceCacheTTL  time.Duration
	AdviceRateLimit int

	Profile domain.Profile
}

// LoadDotEnv loads .env into the environment when the file exists. Variables
// already set win.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// Load reads the configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Addr:                 getEnvString("ADDR", ":8080"),
		WebDir:               getEnvString("WEB_DIR", "web/dist"),
		Store:                strings.ToLower(getEnvString("STORE", StoreMemory)),
		DatabaseURL:          os.Getenv("DATABASE_URL"),
		RedisURL:             os.Getenv("REDIS_URL"),
		MongoURL:             os.Getenv("MONGO_URL"),
		MongoDB:              getEnvString("MONGO_DB", "kittenfeed"),
		LogLevel:             getEnvString("LOG_LEVEL", "info"),
		CORSAllowedOrigin:    getEnvString("CORS_ALLOWED_ORIGIN", "*"),
		RateLimitPerMin:      getEnvInt("RATE_LIMIT_PER_MINUTE", 120),
		ReminderPollInterval: getEnvDuration("REMINDER_POLL_INTERVAL", 5*time.Minute),
		ReminderAfter:        getEnvDuration("REMINDER_AFTER", 4*time.Hour),
		TelegramBotToken:     os.Getenv("TELEGRAM_BOT_TOKEN"),
		AdviceBaseURL:        os.Getenv("ADVICE_BASE_URL"),
		AdviceAPIKey:         os.Getenv("ADVICE_API_KEY"),
		AdviceModel:          getEnvString("ADVICE_MODEL", "gpt-4o-mini"),
		AdviceCacheTTL:       getEnvDuration("ADVICE_CACHE_TTL", 30*time.Minute),
		AdviceRateLimit:      getEnvInt("ADVICE_RATE_LIMIT_PER_MINUTE", 10),
		Profile:              domain.DefaultProfile(),
	}

	tz := getEnvString("TIMEZONE", "Local")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("TIMEZONE: %w", err)
	}
	cfg.Location = loc

	if p := os.Getenv("KITTEN_PROFILE"); p != "" {
		profile, err := LoadProfile(p, cfg.Profile)
		if err != nil {
			return nil, err
		}
		cfg.Profile = profile
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var missing []string
	switch c.Store {
	case StoreMemory:
	case StorePostgres:
		if c.DatabaseURL == "" {
			missing = append(missing, "DATABASE_URL")
		}
	case StoreRedis:
		if c.RedisURL == "" {
			missing = append(missing, "REDIS_URL")
		}
	case StoreMongo:
		if c.MongoURL == "" {
			missing = append(missing, "MONGO_URL")
		}
	default:
		return fmt.Errorf("STORE must be one of memory, postgres, redis, mongo; got %q", c.Store)
	}
	if len(missing) > 0 {
		return fmt.Errorf("required environment variables are not set: %v", missing)
	}
	if c.RateLimitPerMin <= 0 {
		return errors.New("RATE_LIMIT_PER_MINUTE must be > 0")
	}
	return nil
}

// profileFile is the YAML shape of a kitten profile.
type profileFile struct {
	Name              string  `yaml:"name"`
	FamilyID          string  `yaml:"family_id"`
	BirthDate         string  `yaml:"birth_date"`
	InitialWeight     float64 `yaml:"initial_weight"`
	InitialWeightDate string  `yaml:"initial_weight_date"`
}

// LoadProfile reads a YAML profile from path. Fields it leaves out keep the
// values in base.
func LoadProfile(path string, base domain.Profile) (domain.Profile, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return base, fmt.Errorf("read profile: %w", err)
	}
	var f profileFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return base, fmt.Errorf("parse profile: %w", err)
	}

	p := base
	if f.Name != "" {
		p.Name = f.Name
	}
	if f.FamilyID != "" {
		p.FamilyID = f.FamilyID
	}
	if f.BirthDate != "" {
		t, err := time.ParseInLocation("2006-01-02", f.BirthDate, time.UTC)
		if err != nil {
			return base, fmt.Errorf("profile birth_date: %w", err)
		}
		p.BirthDate = t
	}
	if f.InitialWeight < 0 {
		return base, fmt.Errorf("profile initial_weight: %w", domain.ErrInvalidWeight)
	}
	if f.InitialWeight > 0 {
		p.InitialWeight = f.InitialWeight
	}
	if f.InitialWeightDate != "" {
		t, err := time.ParseInLocation("2006-01-02", f.InitialWeightDate, time.UTC)
		if err != nil {
			return base, fmt.Errorf("profile initial_weight_date: %w", err)
		}
		p.InitialWeightDate = t
	}
	return p, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
