package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

type ProviderMode string

const (
	ModeRest     ProviderMode = "rest"
	ModeEmbedded ProviderMode = "embedded"
)

type AppConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type ProviderConfig struct {
	Mode        ProviderMode
	BaseURL     string
	APIKey      string
	CallTimeout time.Duration

	// embedded mode only
	TokenSecret string
	TokenIssuer string
	TokenTTL    time.Duration
}

type DbConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	MaxConnLifetime time.Duration
}

type BusConfig struct {
	URL        string
	ClientName string
}

type Config struct {
	AppConfig      *AppConfig
	ProviderConfig *ProviderConfig
	DbConfig       *DbConfig
	BusConfig      *BusConfig
}

func LoadConfig(logger *zap.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Warn("no .env file loaded", zap.Error(err))
	}

	/** app config */
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "3000"
	}

	readTimeout, err := durationEnv("APP_READ_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}
	writeTimeout, err := durationEnv("APP_WRITE_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	idleTimeout, err := durationEnv("APP_IDLE_TIMEOUT", time.Minute)
	if err != nil {
		return nil, err
	}

	appConfig := &AppConfig{
		Port:         port,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}

	/** provider config */
	mode := ProviderMode(os.Getenv("IDP_MODE"))
	if mode == "" {
		mode = ModeRest
	}

	callTimeout, err := durationEnv("IDP_CALL_TIMEOUT", 3*time.Second)
	if err != nil {
		return nil, err
	}

	providerConfig := &ProviderConfig{
		Mode:        mode,
		CallTimeout: callTimeout,
	}

	var dbConfig *DbConfig

	switch mode {
	case ModeRest:
		providerConfig.BaseURL = os.Getenv("IDP_BASE_URL")
		providerConfig.APIKey = os.Getenv("IDP_API_KEY")
		if providerConfig.BaseURL == "" {
			return nil, fmt.Errorf("IDP_BASE_URL is not set")
		}
		if providerConfig.APIKey == "" {
			return nil, fmt.Errorf("IDP_API_KEY is not set")
		}
	case ModeEmbedded:
		providerConfig.TokenSecret = os.Getenv("IDP_TOKEN_SECRET")
		if providerConfig.TokenSecret == "" {
			return nil, fmt.Errorf("IDP_TOKEN_SECRET is not set")
		}
		providerConfig.TokenIssuer = os.Getenv("IDP_TOKEN_ISSUER")
		if providerConfig.TokenIssuer == "" {
			providerConfig.TokenIssuer = "opuscm-users"
		}
		providerConfig.TokenTTL, err = durationEnv("IDP_TOKEN_TTL", time.Hour)
		if err != nil {
			return nil, err
		}

		dsn := os.Getenv("POSTGRES_DSN")
		if dsn == "" {
			return nil, fmt.Errorf("POSTGRES_DSN is not set")
		}
		maxOpenConns, err := intEnv("DB_MAX_OPEN_CONNS", 10)
		if err != nil {
			return nil, err
		}
		maxIdleConns, err := intEnv("DB_MAX_IDLE_CONNS", 5)
		if err != nil {
			return nil, err
		}
		maxConnLifetime, err := durationEnv("DB_CONN_MAX_LIFETIME", 30*time.Minute)
		if err != nil {
			return nil, err
		}
		dbConfig = &DbConfig{
			DSN:             dsn,
			MaxOpenConns:    maxOpenConns,
			MaxIdleConns:    maxIdleConns,
			MaxConnLifetime: maxConnLifetime,
		}
	default:
		return nil, fmt.Errorf("unknown IDP_MODE %q", mode)
	}

	/** bus config */
	busConfig := &BusConfig{
		URL:        os.Getenv("BUS_URL"),
		ClientName: "users",
	}

	return &Config{
		AppConfig:      appConfig,
		ProviderConfig: providerConfig,
		DbConfig:       dbConfig,
		BusConfig:      busConfig,
	}, nil
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func intEnv(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}
