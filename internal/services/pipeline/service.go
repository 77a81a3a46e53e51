package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"prensa-go/internal/extractor"
	"prensa-go/internal/logger"
	"prensa-go/internal/metrics"
	"prensa-go/internal/model"
	"prensa-go/internal/normalizer"
	"prensa-go/internal/renderer"
	"prensa-go/internal/repositories"
)

type Options struct {
	ArchiveURL    string
	RenderTimeout time.Duration
	// NotifyConcurrency bounds how many notifiers receive one entry at once.
	NotifyConcurrency int
	Metrics           *metrics.Metrics
}

type Service struct {
	renderer   renderer.Renderer
	repo       repositories.EntryRepository
	normalizer *normalizer.Normalizer
	notifiers  []Notifier
	opts       Options

	mu      sync.Mutex
	running bool
}

func NewService(r renderer.Renderer, repo repositories.EntryRepository, n *normalizer.Normalizer, notifiers []Notifier, opts Options) *Service {
	if opts.NotifyConcurrency <= 0 {
		opts.NotifyConcurrency = 1
	}
	return &Service{renderer: r, repo: repo, normalizer: n, notifiers: notifiers, opts: opts}
}

// Run performs one render, extract, dedup and notify pass and returns how
// many entries were newly stored. A run already in progress makes it
// return 0 immediately.
func (s *Service) Run(ctx context.Context) int {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		slog.WarnContext(ctx, "run already in progress; skipping")
		return 0
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	ctx = logger.Ctx(ctx, slog.String("run_id", uuid.NewString()))
	slog.InfoContext(ctx, "run started", "url", s.opts.ArchiveURL)

	entries, err := s.collect(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "run aborted", "error", err)
		s.opts.Metrics.Run("render_error")
		return 0
	}

	stats := s.deliver(ctx, entries)
	s.opts.Metrics.Run("ok")
	s.opts.Metrics.Entries("inserted", stats.inserted)
	s.opts.Metrics.Entries("duplicate", stats.duplicates)
	s.opts.Metrics.Entries("store_error", stats.storeErrors)

	slog.InfoContext(ctx, "run finished",
		"entries", len(entries), "inserted", stats.inserted, "duplicates", stats.duplicates,
		"store_errors", stats.storeErrors, "notify_failures", stats.notifyFailures,
	)
	return stats.inserted
}

// collect renders the archive and returns its valid entries, oldest first.
func (s *Service) collect(ctx context.Context) ([]model.Entry, error) {
	raw, err := s.render(ctx)
	if err != nil {
		return nil, err
	}

	entries := make([]model.Entry, 0, len(raw))
	for _, r := range raw {
		entry, err := s.normalizer.Normalize(r)
		if err != nil {
			slog.WarnContext(ctx, "dropping entry", "title", r.Title, "error", err)
			s.opts.Metrics.Entries("invalid", 1)
			continue
		}
		entries = append(entries, entry)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].PublishedAt.Before(entries[j].PublishedAt)
	})
	return entries, nil
}

func (s *Service) render(ctx context.Context) ([]model.RawEntry, error) {
	renderCtx := ctx
	if s.opts.RenderTimeout > 0 {
		var cancel context.CancelFunc
		renderCtx, cancel = context.WithTimeout(ctx, s.opts.RenderTimeout)
		defer cancel()
	}

	session, err := s.renderer.Open(renderCtx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := session.Close(); err != nil {
			slog.WarnContext(ctx, "failed to release renderer", "error", err)
		}
	}()

	doc, err := session.Load(renderCtx, s.opts.ArchiveURL)
	if err != nil {
		return nil, err
	}

	raw, err := extractor.Extract(ctx, doc)
	if errors.Is(err, extractor.ErrContainerNotFound) {
		return nil, &renderer.Error{Op: "extract", URL: s.opts.ArchiveURL, Err: err}
	}
	return raw, err
}

type runStats struct {
	inserted       int
	duplicates     int
	storeErrors    int
	notifyFailures int
}

func (s *Service) deliver(ctx context.Context, entries []model.Entry) runStats {
	var stats runStats
	for _, entry := range entries {
		result, err := s.repo.InsertIfAbsent(ctx, model.NewDedupRecord(entry))
		if err != nil {
			slog.ErrorContext(ctx, "store insert failed", "title", entry.Title, "error", err)
			stats.storeErrors++
			continue
		}
		if result == repositories.AlreadyExists {
			slog.DebugContext(ctx, "already delivered", "title", entry.Title)
			stats.duplicates++
			continue
		}

		stats.inserted++
		slog.InfoContext(ctx, "new entry", "title", entry.Title, "published_at", entry.PublishedAt)
		stats.notifyFailures += s.notify(ctx, entry)
	}
	return stats
}

// notify fans an entry out to every notifier and waits for all of them, so
// each channel receives entries in the order they are delivered here.
func (s *Service) notify(ctx context.Context, entry model.Entry) int {
	var (
		mu       sync.Mutex
		failures int
	)

	group := errgroup.Group{}
	group.SetLimit(s.opts.NotifyConcurrency)
	for _, n := range s.notifiers {
		n := n
		group.Go(func() error {
			nctx := logger.Ctx(ctx, slog.String("notifier", n.Name()))
			if err := n.Notify(nctx, entry); err != nil {
				slog.WarnContext(nctx, "notification failed", "title", entry.Title, "error", err)
				s.opts.Metrics.NotifierFailure(n.Name())
				mu.Lock()
				failures++
				mu.Unlock()
			}
			return nil
		})
	}
	_ = group.Wait()
	return failures
}
