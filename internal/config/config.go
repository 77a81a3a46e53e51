package config

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

const (
	RendererPlaywright = "playwright"
	RendererHTTP       = "http"

	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"
	StoreDynamoDB = "dynamodb"
)

type Config struct {
	ArchiveURL     string        `env:"ARCHIVE_URL, default=https://www.gob.mx/bienestar/archivo/prensa?idiom=es"`
	Renderer       string        `env:"RENDERER, default=playwright"`
	RenderTimeout  time.Duration `env:"RENDER_TIMEOUT, default=90s"`
	Headless       bool          `env:"BROWSER_HEADLESS, default=true"`
	NoSandbox      bool          `env:"BROWSER_NO_SANDBOX, default=true"`
	DisableGPU     bool          `env:"BROWSER_DISABLE_GPU, default=true"`
	SourceTimezone string        `env:"SOURCE_TIMEZONE, default=America/Mexico_City"`

	StoreDriver    string `env:"STORE_DRIVER, default=postgres"`
	DBHost         string `env:"DB_HOST, default=localhost"`
	DBPort         string `env:"DB_PORT, default=5432"`
	DBUser         string `env:"DB_USERNAME, default=postgres"`
	DBPassword     string `env:"DB_PASSWORD, default=postgres"`
	DBName         string `env:"DB_DATABASE, default=prensa"`
	DBSSLMode      string `env:"DB_SSLMODE, default=disable"`
	SQLitePath     string `env:"SQLITE_PATH, default=prensa.db"`
	TableName      string `env:"TABLE_NAME"`
	DedupCacheSize int    `env:"DEDUP_CACHE_SIZE, default=1024"`

	WebhookURL       string   `env:"WEBHOOK_URL"`
	TelegramToken    string   `env:"TELEGRAM_BOT_TOKEN"`
	TelegramChat     string   `env:"TELEGRAM_CHAT_ID"`
	TelegramThreadID int64    `env:"TELEGRAM_CHAT_THREAD_ID"`
	SMTPHost         string   `env:"SMTP_HOST"`
	SMTPPort         int      `env:"SMTP_PORT, default=587"`
	SMTPUsername     string   `env:"SMTP_USERNAME"`
	SMTPPassword     string   `env:"SMTP_PASSWORD"`
	EmailSender      string   `env:"EMAIL_SENDER"`
	EmailRecipients  []string `env:"EMAIL_RECIPIENTS"`

	NotifyInterval    time.Duration `env:"NOTIFY_INTERVAL, default=1500ms"`
	NotifyConcurrency int           `env:"NOTIFY_CONCURRENCY, default=2"`

	HTTPPort  string `env:"HTTP_PORT, default=3000"`
	CronSpec  string `env:"SCRAPE_CRON, default=0 10 * * *"`
	PurgeCron string `env:"PURGE_CRON, default=30 3 * * *"`
	LogLevel  string `env:"LOG_LEVEL, default=info"`
}

// Load reads an optional .env file and then the process environment.
func Load(ctx context.Context) (Config, error) {
	_ = godotenv.Load()
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return cfg, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, cfg.validate()
}

func (c Config) validate() error {
	switch c.Renderer {
	case RendererPlaywright, RendererHTTP:
	default:
		return fmt.Errorf("unknown RENDERER %q", c.Renderer)
	}

	switch c.StoreDriver {
	case StorePostgres:
		if c.DBHost == "" || c.DBUser == "" || c.DBName == "" {
			return errors.New("missing database configuration")
		}
	case StoreSQLite:
		if c.SQLitePath == "" {
			return errors.New("missing SQLITE_PATH")
		}
	case StoreDynamoDB:
		if c.TableName == "" {
			return errors.New("missing TABLE_NAME")
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}

	if (c.TelegramToken == "") != (c.TelegramChat == "") {
		return errors.New("TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_ID must be set together")
	}
	if c.SMTPHost != "" && (c.EmailSender == "" || len(c.EmailRecipients) == 0) {
		return errors.New("SMTP_HOST requires EMAIL_SENDER and EMAIL_RECIPIENTS")
	}
	if !c.WebhookEnabled() && !c.TelegramEnabled() && !c.EmailEnabled() {
		return errors.New("no notifier configured: set WEBHOOK_URL, TELEGRAM_BOT_TOKEN or SMTP_HOST")
	}
	if c.DedupCacheSize <= 0 {
		return errors.New("DEDUP_CACHE_SIZE must be positive")
	}
	return nil
}

func (c Config) WebhookEnabled() bool {
	return c.WebhookURL != ""
}

func (c Config) TelegramEnabled() bool {
	return c.TelegramToken != "" && c.TelegramChat != ""
}

func (c Config) EmailEnabled() bool {
	return c.SMTPHost != ""
}

func (c Config) PostgresDSN() string {
	dsn := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     net.JoinHostPort(c.DBHost, c.DBPort),
		Path:     "/" + c.DBName,
		RawQuery: url.Values{"sslmode": {c.DBSSLMode}}.Encode(),
	}
	return dsn.String()
}

// Location resolves SOURCE_TIMEZONE, falling back to UTC.
func (c Config) Location() (*time.Location, error) {
	name := strings.TrimSpace(c.SourceTimezone)
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC, fmt.Errorf("invalid SOURCE_TIMEZONE: %w", err)
	}
	return loc, nil
}
