package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prensa-go/internal/metrics"
	"prensa-go/internal/model"
	"prensa-go/internal/normalizer"
	"prensa-go/internal/renderer"
	"prensa-go/internal/repositories"
)

const archiveURL = "https://www.gob.mx/bienestar/archivo/prensa?idiom=es"

type article struct {
	title    string
	href     string
	datetime string
}

func page(articles ...article) string {
	var b strings.Builder
	b.WriteString(`<html><body><div id="prensa">`)
	for _, a := range articles {
		fmt.Fprintf(&b, `<article><p><time datetime="%s"></time></p><h2>%s</h2><a href="%s">Continuar leyendo</a></article>`,
			a.datetime, a.title, a.href)
	}
	b.WriteString(`</div></body></html>`)
	return b.String()
}

type fakeRenderer struct {
	html    string
	openErr error
	// block makes Load wait for the context to expire.
	block bool
	// loading, when set, is closed once Load has been entered.
	loading chan struct{}
	release chan struct{}

	mu     sync.Mutex
	opened int
	closed int
}

func (f *fakeRenderer) Open(ctx context.Context) (renderer.Session, error) {
	if f.openErr != nil {
		return nil, f.openErr
	}
	f.mu.Lock()
	f.opened++
	f.mu.Unlock()
	return &fakeSession{r: f}, nil
}

type fakeSession struct {
	r *fakeRenderer
}

func (s *fakeSession) Load(ctx context.Context, url string) (*goquery.Document, error) {
	if s.r.loading != nil {
		close(s.r.loading)
		<-s.r.release
	}
	if s.r.block {
		<-ctx.Done()
		return nil, &renderer.Error{Op: "navigate", URL: url, Err: ctx.Err()}
	}
	return goquery.NewDocumentFromReader(strings.NewReader(s.r.html))
}

func (s *fakeSession) Close() error {
	s.r.mu.Lock()
	s.r.closed++
	s.r.mu.Unlock()
	return errors.New("browser already gone")
}

type fakeRepo struct {
	mu      sync.Mutex
	records map[string]model.DedupRecord
	writes  []string
	failOn  string
}

func newFakeRepo(existing ...string) *fakeRepo {
	repo := &fakeRepo{records: map[string]model.DedupRecord{}}
	for _, title := range existing {
		repo.records[title] = model.DedupRecord{Title: title}
	}
	return repo
}

func (f *fakeRepo) InsertIfAbsent(ctx context.Context, record model.DedupRecord) (repositories.InsertResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if record.Title == f.failOn {
		return 0, errors.New("store unavailable")
	}
	if _, ok := f.records[record.Title]; ok {
		return repositories.AlreadyExists, nil
	}
	f.records[record.Title] = record
	f.writes = append(f.writes, record.Title)
	return repositories.Inserted, nil
}

type recordingNotifier struct {
	name string
	err  error

	mu       sync.Mutex
	received []model.Entry
}

func (n *recordingNotifier) Name() string {
	return n.name
}

func (n *recordingNotifier) Notify(ctx context.Context, entry model.Entry) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.received = append(n.received, entry)
	return n.err
}

func (n *recordingNotifier) titles() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	titles := make([]string, 0, len(n.received))
	for _, e := range n.received {
		titles = append(titles, e.Title)
	}
	return titles
}

func newService(r renderer.Renderer, repo repositories.EntryRepository, notifiers ...Notifier) *Service {
	return NewService(r, repo, normalizer.New(time.UTC), notifiers, Options{
		ArchiveURL:        archiveURL,
		RenderTimeout:     time.Second,
		NotifyConcurrency: 2,
	})
}

var threeArticles = page(
	article{title: "Tercero", href: "/prensa/3", datetime: "2024-05-12 10:00:00"},
	article{title: "Primero", href: "/prensa/1", datetime: "2024-05-10 10:00:00"},
	article{title: "Segundo", href: "/prensa/2", datetime: "2024-05-11 10:00:00"},
)

func TestRun_DeliversOldestFirst(t *testing.T) {
	r := &fakeRenderer{html: threeArticles}
	repo := newFakeRepo()
	chat := &recordingNotifier{name: "webhook"}
	mail := &recordingNotifier{name: "email"}

	count := newService(r, repo, chat, mail).Run(context.Background())

	assert.Equal(t, 3, count)
	assert.Equal(t, []string{"Primero", "Segundo", "Tercero"}, repo.writes)
	assert.Equal(t, []string{"Primero", "Segundo", "Tercero"}, chat.titles())
	assert.Equal(t, []string{"Primero", "Segundo", "Tercero"}, mail.titles())
	assert.Equal(t, 1, r.closed)

	first := chat.received[0]
	assert.Equal(t, "10 de mayo de 2024", first.DisplayDate)
	assert.Equal(t, first.PublishedAt.Add(model.Retention), first.ExpiresAt)
}

func TestRun_SkipsExistingTitle(t *testing.T) {
	r := &fakeRenderer{html: page(
		article{title: "Conocido", href: "/prensa/a", datetime: "2024-05-10"},
		article{title: "Nuevo", href: "/prensa/b", datetime: "2024-05-11"},
	)}
	repo := newFakeRepo("Conocido")
	chat := &recordingNotifier{name: "webhook"}

	count := newService(r, repo, chat).Run(context.Background())

	assert.Equal(t, 1, count)
	assert.Equal(t, []string{"Nuevo"}, chat.titles())
}

func TestRun_SecondRunDeliversNothing(t *testing.T) {
	r := &fakeRenderer{html: threeArticles}
	repo := newFakeRepo()
	chat := &recordingNotifier{name: "webhook"}
	svc := newService(r, repo, chat)

	assert.Equal(t, 3, svc.Run(context.Background()))
	assert.Equal(t, 0, svc.Run(context.Background()))

	assert.Len(t, chat.titles(), 3)
	assert.Len(t, repo.writes, 3)
	assert.Equal(t, 2, r.closed)
}

func TestRun_SkipsInvalidArticles(t *testing.T) {
	r := &fakeRenderer{html: page(
		article{title: "", href: "/prensa/vacio", datetime: "2024-05-10"},
		article{title: "Fecha rota", href: "/prensa/fecha", datetime: "mañana"},
		article{title: "Sin enlace", href: "", datetime: "2024-05-10"},
		article{title: "Valido", href: "/prensa/ok", datetime: "2024-05-11"},
	)}
	repo := newFakeRepo()
	chat := &recordingNotifier{name: "webhook"}

	var count int
	require.NotPanics(t, func() {
		count = newService(r, repo, chat).Run(context.Background())
	})

	assert.Equal(t, 1, count)
	assert.Equal(t, []string{"Valido"}, chat.titles())
}

func TestRun_RendererTimeout(t *testing.T) {
	r := &fakeRenderer{html: threeArticles, block: true}
	repo := newFakeRepo()
	chat := &recordingNotifier{name: "webhook"}

	svc := NewService(r, repo, normalizer.New(time.UTC), []Notifier{chat}, Options{
		ArchiveURL:    archiveURL,
		RenderTimeout: 20 * time.Millisecond,
	})
	count := svc.Run(context.Background())

	assert.Equal(t, 0, count)
	assert.Equal(t, 1, r.closed)
	assert.Empty(t, repo.writes)
	assert.Empty(t, chat.titles())
}

func TestRun_RendererUnavailable(t *testing.T) {
	r := &fakeRenderer{openErr: &renderer.Error{Op: "launch", Err: errors.New("no chromium")}}
	repo := newFakeRepo()
	chat := &recordingNotifier{name: "webhook"}

	assert.Equal(t, 0, newService(r, repo, chat).Run(context.Background()))
	assert.Equal(t, 0, r.closed)
	assert.Empty(t, repo.writes)
}

func TestRun_MissingContainer(t *testing.T) {
	r := &fakeRenderer{html: `<html><body><div id="otro"></div></body></html>`}
	repo := newFakeRepo()
	chat := &recordingNotifier{name: "webhook"}

	assert.Equal(t, 0, newService(r, repo, chat).Run(context.Background()))
	assert.Equal(t, 1, r.closed)
	assert.Empty(t, repo.writes)
	assert.Empty(t, chat.titles())
}

func TestRun_NotifierFailureKeepsInsert(t *testing.T) {
	r := &fakeRenderer{html: threeArticles}
	repo := newFakeRepo()
	broken := &recordingNotifier{name: "email", err: errors.New("smtp down")}
	chat := &recordingNotifier{name: "webhook"}

	reg := prometheus.NewRegistry()
	svc := NewService(r, repo, normalizer.New(time.UTC), []Notifier{broken, chat}, Options{
		ArchiveURL: archiveURL,
		Metrics:    metrics.New(reg),
	})

	assert.Equal(t, 3, svc.Run(context.Background()))
	assert.Len(t, repo.writes, 3)
	assert.Len(t, broken.titles(), 3)
	assert.Equal(t, []string{"Primero", "Segundo", "Tercero"}, chat.titles())

	// The failed channel is not retried on the next run.
	assert.Equal(t, 0, svc.Run(context.Background()))
	assert.Len(t, broken.titles(), 3)

	count, err := testutil.GatherAndCount(reg, "prensa_notifier_failures_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestRun_StoreErrorSkipsEntry(t *testing.T) {
	r := &fakeRenderer{html: threeArticles}
	repo := newFakeRepo()
	repo.failOn = "Segundo"
	chat := &recordingNotifier{name: "webhook"}

	assert.Equal(t, 2, newService(r, repo, chat).Run(context.Background()))
	assert.Equal(t, []string{"Primero", "Tercero"}, chat.titles())
}

func TestRun_RejectsOverlappingRuns(t *testing.T) {
	r := &fakeRenderer{
		html:    threeArticles,
		loading: make(chan struct{}),
		release: make(chan struct{}),
	}
	svc := newService(r, newFakeRepo(), &recordingNotifier{name: "webhook"})

	done := make(chan int)
	go func() {
		done <- svc.Run(context.Background())
	}()

	<-r.loading
	assert.Equal(t, 0, svc.Run(context.Background()))
	close(r.release)

	assert.Equal(t, 3, <-done)
}
