package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"prensa-go/internal/config"
	"prensa-go/internal/db"
	"prensa-go/internal/extractor"
	"prensa-go/internal/httpapi"
	"prensa-go/internal/metrics"
	"prensa-go/internal/normalizer"
	"prensa-go/internal/notifier/email"
	"prensa-go/internal/notifier/telegram"
	"prensa-go/internal/notifier/webhook"
	"prensa-go/internal/renderer"
	"prensa-go/internal/repositories"
	"prensa-go/internal/repositories/cached"
	"prensa-go/internal/repositories/dynamo"
	"prensa-go/internal/repositories/postgres"
	"prensa-go/internal/repositories/sqlite"
	"prensa-go/internal/scheduler"
	"prensa-go/internal/services/pipeline"
)

type Builder struct {
	cfg          *config.Config
	basePath     string
	ensureSchema bool

	pool      *pgxpool.Pool
	repo      repositories.EntryRepository
	notifiers []pipeline.Notifier
	renderer  renderer.Renderer
	client    *http.Client
	registry  *prometheus.Registry

	scheduler *scheduler.Scheduler
	server    *http.Server
}

type BuilderOption func(*Builder)

func NewBuilder(cfg *config.Config, options ...BuilderOption) *Builder {
	builder := &Builder{
		cfg:          cfg,
		ensureSchema: true,
	}
	for _, option := range options {
		option(builder)
	}
	return builder
}

func WithBasePath(basePath string) BuilderOption {
	return func(b *Builder) {
		b.basePath = basePath
	}
}

func WithEnsureSchema(enabled bool) BuilderOption {
	return func(b *Builder) {
		b.ensureSchema = enabled
	}
}

func WithDBPool(pool *pgxpool.Pool) BuilderOption {
	return func(b *Builder) {
		b.pool = pool
	}
}

func WithRepository(repo repositories.EntryRepository) BuilderOption {
	return func(b *Builder) {
		b.repo = repo
	}
}

func WithNotifiers(notifiers []pipeline.Notifier) BuilderOption {
	return func(b *Builder) {
		b.notifiers = notifiers
	}
}

func WithRenderer(r renderer.Renderer) BuilderOption {
	return func(b *Builder) {
		b.renderer = r
	}
}

func WithHTTPClient(client *http.Client) BuilderOption {
	return func(b *Builder) {
		b.client = client
	}
}

func WithRegistry(registry *prometheus.Registry) BuilderOption {
	return func(b *Builder) {
		b.registry = registry
	}
}

func WithScheduler(scheduler *scheduler.Scheduler) BuilderOption {
	return func(b *Builder) {
		b.scheduler = scheduler
	}
}

func WithHTTPServer(server *http.Server) BuilderOption {
	return func(b *Builder) {
		b.server = server
	}
}

func (b *Builder) Build(ctx context.Context) (*App, error) {
	if b.cfg == nil {
		return nil, errors.New("config is required")
	}

	app := &App{Config: b.cfg}
	if err := b.build(ctx, app); err != nil {
		_ = app.Close()
		return nil, err
	}
	return app, nil
}

func (b *Builder) build(ctx context.Context, app *App) error {
	if b.client == nil {
		b.client = &http.Client{Timeout: 15 * time.Second}
	}

	if b.registry == nil {
		b.registry = prometheus.NewRegistry()
		b.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	app.Registry = b.registry
	app.Metrics = metrics.New(b.registry)

	if b.repo == nil {
		if err := b.buildRepository(ctx, app); err != nil {
			return err
		}
	}
	if purger, ok := b.repo.(repositories.Purger); ok {
		app.Purger = purger
	}
	repo, err := cached.NewEntryRepository(b.repo, b.cfg.DedupCacheSize)
	if err != nil {
		return fmt.Errorf("dedup cache: %w", err)
	}
	app.Repo = repo

	if b.notifiers == nil {
		notifiers, err := b.buildNotifiers()
		if err != nil {
			return err
		}
		b.notifiers = notifiers
	}
	app.Notifiers = b.notifiers

	if b.renderer == nil {
		b.renderer = b.buildRenderer()
	}
	app.Renderer = b.renderer

	loc, err := b.cfg.Location()
	if err != nil {
		return err
	}

	app.Pipeline = pipeline.NewService(app.Renderer, app.Repo, normalizer.New(loc), app.Notifiers, pipeline.Options{
		ArchiveURL:        b.cfg.ArchiveURL,
		RenderTimeout:     b.cfg.RenderTimeout,
		NotifyConcurrency: b.cfg.NotifyConcurrency,
		Metrics:           app.Metrics,
	})

	if b.scheduler == nil {
		options := []scheduler.Option{scheduler.WithMetrics(app.Metrics)}
		if app.Purger != nil {
			options = append(options, scheduler.WithPurge(b.cfg.PurgeCron, app.Purger))
		}
		b.scheduler = scheduler.New(b.cfg.CronSpec, app.Pipeline, options...)
	}
	app.Scheduler = b.scheduler

	if b.server == nil {
		handler := httpapi.NewHandler(app.Pipeline, app.Registry)
		b.server = &http.Server{
			Addr:              ":" + b.cfg.HTTPPort,
			Handler:           handler.Router(),
			ReadHeaderTimeout: 5 * time.Second,
		}
	}
	app.Server = b.server

	return nil
}

func (b *Builder) buildRepository(ctx context.Context, app *App) error {
	switch b.cfg.StoreDriver {
	case config.StorePostgres:
		if b.pool == nil {
			pool, err := db.NewPool(ctx, b.cfg.PostgresDSN())
			if err != nil {
				return err
			}
			b.pool = pool
			app.closers = append(app.closers, func() error {
				pool.Close()
				return nil
			})
		}
		if b.ensureSchema {
			basePath, err := b.resolveBasePath()
			if err != nil {
				return err
			}
			if err := db.EnsureSchema(ctx, b.pool, basePath); err != nil {
				return err
			}
		}
		b.repo = postgres.NewEntryRepository(b.pool)

	case config.StoreSQLite:
		dbx, err := sqlite.Open(b.cfg.SQLitePath)
		if err != nil {
			return err
		}
		app.closers = append(app.closers, dbx.Close)
		b.repo = sqlite.NewEntryRepository(dbx)

	case config.StoreDynamoDB:
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return fmt.Errorf("load aws config: %w", err)
		}
		b.repo = dynamo.NewEntryRepository(dynamodb.NewFromConfig(awsCfg), b.cfg.TableName)

	default:
		return fmt.Errorf("unknown store driver %q", b.cfg.StoreDriver)
	}
	return nil
}

func (b *Builder) buildNotifiers() ([]pipeline.Notifier, error) {
	var notifiers []pipeline.Notifier
	if b.cfg.WebhookEnabled() {
		notifiers = append(notifiers, webhook.New(b.cfg.WebhookURL, b.client, b.cfg.NotifyInterval))
	}
	if b.cfg.TelegramEnabled() {
		notifiers = append(notifiers, telegram.NewSender(b.cfg.TelegramToken, b.cfg.TelegramChat, b.cfg.TelegramThreadID,
			telegram.WithHTTPClient(b.client),
			telegram.WithMinInterval(b.cfg.NotifyInterval),
		))
	}
	if b.cfg.EmailEnabled() {
		client, err := email.NewSMTPClient(b.cfg.SMTPHost, b.cfg.SMTPPort, b.cfg.SMTPUsername, b.cfg.SMTPPassword)
		if err != nil {
			return nil, fmt.Errorf("smtp client: %w", err)
		}
		notifiers = append(notifiers, email.New(client, b.cfg.EmailSender, b.cfg.EmailRecipients))
	}
	if len(notifiers) == 0 {
		return nil, errors.New("no notifier configured")
	}
	return notifiers, nil
}

func (b *Builder) buildRenderer() renderer.Renderer {
	if b.cfg.Renderer == config.RendererHTTP {
		return renderer.NewHTTP(b.client)
	}
	return renderer.NewPlaywright(renderer.Options{
		Headless:        b.cfg.Headless,
		SandboxDisabled: b.cfg.NoSandbox,
		GPUDisabled:     b.cfg.DisableGPU,
		WaitSelector:    extractor.ContainerSelector,
	})
}

func (b *Builder) resolveBasePath() (string, error) {
	basePath := b.basePath
	if basePath == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", err
		}
		basePath = wd
	}
	return filepath.Abs(basePath)
}
