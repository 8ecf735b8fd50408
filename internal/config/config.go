package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

type Config struct {
	Port string

	DBDriver   string // "sqlite" or "postgres"
	DBPath     string
	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string

	SessionTTL    time.Duration
	SessionCookie string
	FlashKey      []byte
	// FlashKeyGenerated is set when FLASH_KEY was unset and a random key
	// was used; flash cookies then do not survive a restart.
	FlashKeyGenerated bool
	BcryptCost        int

	AllowedOrigins []string
	LogLevel       logrus.Level
}

// Load reads an optional .env file and then the process environment.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "loading %s", f)
		}
	}

	cfg := &Config{
		Port:          getEnv("PORT", "8080"),
		DBDriver:      strings.ToLower(getEnv("DB_DRIVER", "sqlite")),
		DBPath:        getEnv("DB_PATH", "users.db"),
		DBHost:        getEnv("DB_HOST", "localhost"),
		DBUser:        os.Getenv("DB_USER"),
		DBPassword:    os.Getenv("DB_PASSWORD"),
		DBName:        os.Getenv("DB_NAME"),
		DBPort:        getEnv("DB_PORT", "5432"),
		SessionCookie: getEnv("SESSION_COOKIE", "session_id"),
		FlashKey:      []byte(os.Getenv("FLASH_KEY")),
	}

	if len(cfg.FlashKey) == 0 {
		cfg.FlashKey = securecookie.GenerateRandomKey(32)
		if cfg.FlashKey == nil {
			return nil, errors.New("generating FLASH_KEY")
		}
		cfg.FlashKeyGenerated = true
	}

	switch cfg.DBDriver {
	case "sqlite", "postgres":
	default:
		return nil, errors.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}

	ttl, err := time.ParseDuration(getEnv("SESSION_TTL", "24h"))
	if err != nil {
		return nil, errors.Wrap(err, "parsing SESSION_TTL")
	}
	if ttl <= 0 {
		return nil, errors.New("SESSION_TTL must be positive")
	}
	cfg.SessionTTL = ttl

	cost, err := strconv.Atoi(getEnv("BCRYPT_COST", strconv.Itoa(bcrypt.DefaultCost)))
	if err != nil {
		return nil, errors.Wrap(err, "parsing BCRYPT_COST")
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, errors.Errorf("BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	cfg.BcryptCost = cost

	level, err := logrus.ParseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return nil, errors.Wrap(err, "parsing LOG_LEVEL")
	}
	cfg.LogLevel = level

	for _, origin := range strings.Split(getEnv("ALLOWED_ORIGINS", "http://localhost:3000"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, origin)
		}
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}
