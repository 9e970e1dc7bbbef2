package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config defines runtime settings loaded from YAML with environment overrides.
type Config struct {
	Host   string `yaml:"host"`
	Port   string `yaml:"port"`
	DBPath string `yaml:"dbPath"`

	TikTok  TikTokConfig  `yaml:"tiktok"`
	Storage StorageConfig `yaml:"storage"`
}

// TikTokConfig holds the third-party OAuth application credentials.
// Missing credentials are not fatal: the platform degrades to mock mode so
// the rest of the stack stays developable without a registered app.
type TikTokConfig struct {
	ClientID     string `yaml:"clientId"`
	ClientSecret string `yaml:"clientSecret"`
	RedirectURL  string `yaml:"redirectUrl"`
}

// StorageConfig holds S3-compatible object storage settings (S3, R2, MinIO).
type StorageConfig struct {
	Endpoint        string `yaml:"endpoint"`
	Region          string `yaml:"region"`
	Bucket          string `yaml:"bucket"`
	AccessKeyID     string `yaml:"accessKeyId"`
	SecretAccessKey string `yaml:"secretAccessKey"`
	// PublicBaseURL is the CDN/public prefix objects are served from.
	PublicBaseURL string `yaml:"publicBaseUrl"`
}

// Load reads config from a YAML file path, then applies environment
// overrides and defaults. A missing file is tolerated: everything can be
// supplied via environment in container deployments.
func Load(path string) (Config, error) {
	var c Config
	if raw, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(raw, &c); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return Config{}, err
	}

	applyEnv(&c)

	// Keep defaults centralized so callers can rely on normalized values.
	if c.Host == "" {
		c.Host = "127.0.0.1"
	}
	if c.Port == "" {
		c.Port = "8080"
	}
	if c.DBPath == "" {
		c.DBPath = "cliprally.db"
	}
	if c.Storage.Region == "" {
		c.Storage.Region = "auto"
	}
	if c.Storage.Bucket == "" {
		c.Storage.Bucket = "cliprally-media"
	}
	if c.Storage.PublicBaseURL == "" {
		c.Storage.PublicBaseURL = fmt.Sprintf("https://%s.s3.amazonaws.com", c.Storage.Bucket)
	}
	c.Storage.PublicBaseURL = strings.TrimRight(c.Storage.PublicBaseURL, "/")
	return c, nil
}

func applyEnv(c *Config) {
	setIfPresent(&c.Host, "HOST")
	setIfPresent(&c.Port, "PORT")
	setIfPresent(&c.DBPath, "CLIPRALLY_DB_PATH")
	setIfPresent(&c.TikTok.ClientID, "TIKTOK_CLIENT_ID")
	setIfPresent(&c.TikTok.ClientSecret, "TIKTOK_CLIENT_SECRET")
	setIfPresent(&c.TikTok.RedirectURL, "TIKTOK_REDIRECT_URL")
	setIfPresent(&c.Storage.Endpoint, "STORAGE_ENDPOINT")
	setIfPresent(&c.Storage.Region, "STORAGE_REGION")
	setIfPresent(&c.Storage.Bucket, "STORAGE_BUCKET")
	setIfPresent(&c.Storage.AccessKeyID, "STORAGE_ACCESS_KEY_ID")
	setIfPresent(&c.Storage.SecretAccessKey, "STORAGE_SECRET_ACCESS_KEY")
	setIfPresent(&c.Storage.PublicBaseURL, "STORAGE_PUBLIC_BASE_URL")
}

func setIfPresent(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

// TikTokConfigured reports whether real OAuth credentials are present.
// When false the auth and metadata clients run in mock mode.
func (c Config) TikTokConfigured() bool {
	return c.TikTok.ClientID != "" && c.TikTok.ClientSecret != ""
}

// StorageConfigured reports whether object storage credentials are present.
func (c Config) StorageConfigured() bool {
	return c.Storage.AccessKeyID != "" && c.Storage.SecretAccessKey != ""
}
