package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"

	"resumepager/internal/pagination"
)

// Config aggregates application settings that may be sourced from files or environment variables.
type Config struct {
	API        APIConfig        `mapstructure:"api"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	MinIO      MinIOConfig      `mapstructure:"minio"`
	Browser    BrowserConfig    `mapstructure:"browser"`
	Pagination PaginationConfig `mapstructure:"pagination"`
	Preview    PreviewConfig    `mapstructure:"preview"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Clamd      ClamdConfig      `mapstructure:"clamd"`
}

// APIConfig contains HTTP server settings.
type APIConfig struct {
	Port           int      `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// DatabaseConfig contains connection options for PostgreSQL.
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	SSLMode  string `mapstructure:"sslmode"`
}

// RedisConfig 包含 Redis 连接配置。
type RedisConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// Addr 返回 host:port 形式的地址。
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// MinIOConfig contains connection options for MinIO/S3-compatible storage.
type MinIOConfig struct {
	Endpoint         string        `mapstructure:"endpoint"`
	PublicEndpoint   string        `mapstructure:"public_endpoint"`
	AccessKeyID      string        `mapstructure:"access_key_id"`
	SecretAccessKey  string        `mapstructure:"secret_access_key"`
	UseSSL           bool          `mapstructure:"use_ssl"`
	Bucket           string        `mapstructure:"bucket"`
	Region           string        `mapstructure:"region"`
	BucketLookup     string        `mapstructure:"bucket_lookup"`
	AutoCreateBucket bool          `mapstructure:"auto_create_bucket"`
	PresignTTL       time.Duration `mapstructure:"presign_ttl"`
}

// BrowserConfig 描述用于测量与截图的无头浏览器。
type BrowserConfig struct {
	Driver      string        `mapstructure:"driver"`
	Bin         string        `mapstructure:"bin"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Width       int           `mapstructure:"width"`
	Height      int           `mapstructure:"height"`
	DeviceScale float64       `mapstructure:"device_scale"`
}

// PaginationConfig mirrors pagination.Options.
type PaginationConfig struct {
	PageHeight      float64 `mapstructure:"page_height"`
	PageWidth       float64 `mapstructure:"page_width"`
	BottomMargin    float64 `mapstructure:"bottom_margin"`
	ContinuationTop float64 `mapstructure:"continuation_top"`
	MinSplitHeight  float64 `mapstructure:"min_split_height"`
}

// Options converts the section into packer options.
func (p PaginationConfig) Options() pagination.Options {
	return pagination.Options{
		PageHeight:      p.PageHeight,
		PageWidth:       p.PageWidth,
		BottomMargin:    p.BottomMargin,
		ContinuationTop: p.ContinuationTop,
		MinSplitHeight:  p.MinSplitHeight,
	}
}

// PreviewConfig 控制实时预览的防抖。
type PreviewConfig struct {
	Debounce time.Duration `mapstructure:"debounce"`
}

// AuthConfig 包含编辑令牌的签名配置。
type AuthConfig struct {
	Secret   string        `mapstructure:"secret"`
	TokenTTL time.Duration `mapstructure:"token_ttl"`
}

// ClamdConfig 描述 clamd 连接；Address 为空时跳过头像扫描。
type ClamdConfig struct {
	Address string `mapstructure:"address"`
}

// DSN builds a lib/pq compatible connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host,
		d.Port,
		d.User,
		d.Password,
		d.Name,
		d.SSLMode,
	)
}

// Load reads configuration solely from environment variables (with optional defaults).
func Load() (*Config, error) {
	cfg, err := read()
	if err != nil {
		return nil, err
	}
	if err := validate(*cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadEngine 只校验浏览器与分页配置，供不连接数据库和存储的命令行使用。
func LoadEngine() (*Config, error) {
	cfg, err := read()
	if err != nil {
		return nil, err
	}
	if err := validateEngine(*cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func read() (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if err := bindEnv(v); err != nil {
		return nil, fmt.Errorf("bind env: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

// MustLoad wraps Load and panics on failure.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

func setDefaults(v *viper.Viper) {
	opts := pagination.DefaultOptions()

	v.SetDefault("api.port", 8080)
	v.SetDefault("api.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "resumepager")
	v.SetDefault("database.user", "resumepager")
	v.SetDefault("database.password", "resumepager")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("minio.endpoint", "localhost:9000")
	v.SetDefault("minio.public_endpoint", "http://localhost:9000")
	v.SetDefault("minio.use_ssl", false)
	v.SetDefault("minio.bucket", "resumes")
	v.SetDefault("minio.bucket_lookup", "auto")
	v.SetDefault("minio.auto_create_bucket", true)
	v.SetDefault("minio.presign_ttl", 15*time.Minute)
	v.SetDefault("browser.driver", "rod")
	v.SetDefault("browser.timeout", 30*time.Second)
	v.SetDefault("browser.width", int(opts.PageWidth))
	v.SetDefault("browser.height", int(opts.PageHeight))
	v.SetDefault("browser.device_scale", 2.0)
	v.SetDefault("pagination.page_height", opts.PageHeight)
	v.SetDefault("pagination.page_width", opts.PageWidth)
	v.SetDefault("pagination.bottom_margin", opts.BottomMargin)
	v.SetDefault("pagination.continuation_top", opts.ContinuationTop)
	v.SetDefault("pagination.min_split_height", opts.MinSplitHeight)
	v.SetDefault("preview.debounce", 300*time.Millisecond)
	v.SetDefault("auth.token_ttl", 30*24*time.Hour)
}

func bindEnv(v *viper.Viper) error {
	mappings := map[string]string{
		"api.port":                    "API_PORT",
		"api.allowed_origins":         "API_ALLOWED_ORIGINS",
		"database.host":               "DATABASE_HOST",
		"database.port":               "DATABASE_PORT",
		"database.name":               "POSTGRES_DB",
		"database.user":               "POSTGRES_USER",
		"database.password":           "POSTGRES_PASSWORD",
		"database.sslmode":            "DATABASE_SSLMODE",
		"redis.host":                  "REDIS_HOST",
		"redis.port":                  "REDIS_PORT",
		"minio.endpoint":              "MINIO_ENDPOINT",
		"minio.public_endpoint":       "MINIO_PUBLIC_ENDPOINT",
		"minio.access_key_id":         "MINIO_ACCESS_KEY_ID",
		"minio.secret_access_key":     "MINIO_SECRET_ACCESS_KEY",
		"minio.use_ssl":               "MINIO_USE_SSL",
		"minio.bucket":                "MINIO_BUCKET",
		"minio.region":                "MINIO_REGION",
		"minio.bucket_lookup":         "MINIO_BUCKET_LOOKUP",
		"minio.auto_create_bucket":    "MINIO_AUTO_CREATE_BUCKET",
		"minio.presign_ttl":           "MINIO_PRESIGN_TTL",
		"browser.driver":              "BROWSER_DRIVER",
		"browser.bin":                 "BROWSER_BIN",
		"browser.timeout":             "BROWSER_TIMEOUT",
		"browser.width":               "BROWSER_WIDTH",
		"browser.height":              "BROWSER_HEIGHT",
		"browser.device_scale":        "BROWSER_DEVICE_SCALE",
		"pagination.page_height":      "PAGINATION_PAGE_HEIGHT",
		"pagination.page_width":       "PAGINATION_PAGE_WIDTH",
		"pagination.bottom_margin":    "PAGINATION_BOTTOM_MARGIN",
		"pagination.continuation_top": "PAGINATION_CONTINUATION_TOP",
		"pagination.min_split_height": "PAGINATION_MIN_SPLIT_HEIGHT",
		"preview.debounce":            "PREVIEW_DEBOUNCE",
		"auth.secret":                 "AUTH_SECRET",
		"auth.token_ttl":              "AUTH_TOKEN_TTL",
		"clamd.address":               "CLAMD_ADDRESS",
	}

	for key, env := range mappings {
		if err := v.BindEnv(key, env); err != nil {
			return fmt.Errorf("bind %s to %s: %w", key, env, err)
		}
	}

	return nil
}

func validate(cfg Config) error {
	if cfg.API.Port <= 0 {
		return errors.New("api port must be positive")
	}
	if cfg.Database.Host == "" {
		return errors.New("database host is required")
	}
	if cfg.Database.Port <= 0 {
		return errors.New("database port must be positive")
	}
	if cfg.Database.Name == "" {
		return errors.New("database name is required")
	}
	if cfg.Database.User == "" {
		return errors.New("database user is required")
	}
	if cfg.Database.Password == "" {
		return errors.New("database password is required")
	}
	if cfg.Database.SSLMode == "" {
		return errors.New("database sslmode is required")
	}
	if cfg.Redis.Host == "" {
		return errors.New("redis host is required")
	}
	if cfg.Redis.Port <= 0 {
		return errors.New("redis port must be positive")
	}
	if cfg.MinIO.Endpoint == "" {
		return errors.New("minio endpoint is required")
	}
	if cfg.MinIO.AccessKeyID == "" {
		return errors.New("minio access key id is required")
	}
	if cfg.MinIO.SecretAccessKey == "" {
		return errors.New("minio secret access key is required")
	}
	if cfg.MinIO.Bucket == "" {
		return errors.New("minio bucket is required")
	}
	if err := validateEngine(cfg); err != nil {
		return err
	}
	if cfg.Preview.Debounce < 0 {
		return errors.New("preview debounce must not be negative")
	}
	if len(cfg.Auth.Secret) < 32 {
		return errors.New("auth secret must be at least 32 bytes")
	}
	return nil
}

func validateEngine(cfg Config) error {
	switch cfg.Browser.Driver {
	case "rod", "chromedp":
	default:
		return fmt.Errorf("unknown browser driver %q", cfg.Browser.Driver)
	}
	if cfg.Browser.Timeout <= 0 {
		return errors.New("browser timeout must be positive")
	}
	if cfg.Browser.DeviceScale <= 0 {
		return errors.New("browser device scale must be positive")
	}
	if err := cfg.Pagination.Options().Validate(); err != nil {
		return fmt.Errorf("pagination: %w", err)
	}
	return nil
}
