package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v9"
	"github.com/docker/go-units"
	"github.com/joho/godotenv"
)

const (
	PublisherLocal = "local"
	PublisherS3    = "s3"
)

type Config struct {
	Port string `env:"PORT" envDefault:"8080"`
	// MaxUploadSize limits the request body, e.g. "20MB". Empty means unbounded.
	MaxUploadSize string `env:"MAX_UPLOAD_SIZE"`
	// Publisher selects where generated posters are stored: "local" or "s3".
	Publisher string `env:"PUBLISHER" envDefault:"local"`

	Log    LogConfig    `envPrefix:"LOG_"`
	Poster PosterConfig `envPrefix:"POSTER_"`
	Local  LocalConfig  `envPrefix:"LOCAL_"`
	S3     S3Config     `envPrefix:"S3_"`

	maxUploadBytes int64
}

type LogConfig struct {
	Level  string `env:"LEVEL" envDefault:"info"`
	Format string `env:"FORMAT" envDefault:"console"`
}

type PosterConfig struct {
	TemplatePath     string `env:"TEMPLATE_PATH" envDefault:"public/poster_template.png"`
	FontPath         string `env:"FONT_PATH"`
	LabelMode        string `env:"LABEL_MODE" envDefault:"optional"`
	LabelPlaceholder string `env:"LABEL_PLACEHOLDER" envDefault:"Your Name"`
	RequireImageType bool   `env:"REQUIRE_IMAGE_TYPE" envDefault:"true"`
}

type LocalConfig struct {
	Dir       string `env:"DIR" envDefault:"public/uploads"`
	URLPrefix string `env:"URL_PREFIX" envDefault:"/uploads"`
}

type S3Config struct {
	Endpoint        string        `env:"ENDPOINT"`
	Region          string        `env:"REGION" envDefault:"us-east-1"`
	Bucket          string        `env:"BUCKET" envDefault:"posters"`
	AccessKeyID     string        `env:"ACCESS_KEY_ID"`
	SecretAccessKey string        `env:"SECRET_ACCESS_KEY"`
	PublicBaseURL   string        `env:"PUBLIC_BASE_URL"`
	UsePathStyle    bool          `env:"USE_PATH_STYLE" envDefault:"true"`
	PresignTTL      time.Duration `env:"PRESIGN_TTL" envDefault:"0s"`
	// SessionCookies names the request cookies forwarded to the storage service.
	SessionCookies []string `env:"SESSION_COOKIES" envSeparator:","`
}

// Load loads .env (if present) and parses environment variables into Config.
func Load() (Config, error) {
	// Load .env if available; ignore error if file does not exist
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// MaxUploadBytes returns the parsed body limit, or 0 when uploads are unbounded.
func (c *Config) MaxUploadBytes() int64 {
	return c.maxUploadBytes
}

func (c *Config) validate() error {
	if c.MaxUploadSize != "" {
		size, err := units.FromHumanSize(c.MaxUploadSize)
		if err != nil {
			return fmt.Errorf("invalid MAX_UPLOAD_SIZE: %w", err)
		}
		if size <= 0 {
			return fmt.Errorf("MAX_UPLOAD_SIZE must be positive")
		}
		c.maxUploadBytes = size
	}

	switch c.Poster.LabelMode {
	case "off", "optional", "always":
	default:
		return fmt.Errorf("invalid POSTER_LABEL_MODE %q", c.Poster.LabelMode)
	}

	switch c.Publisher {
	case PublisherLocal:
		if c.Local.Dir == "" {
			return fmt.Errorf("LOCAL_DIR required")
		}
	case PublisherS3:
		if c.S3.Bucket == "" {
			return fmt.Errorf("S3_BUCKET required")
		}
	default:
		return fmt.Errorf("invalid PUBLISHER %q", c.Publisher)
	}
	return nil
}
