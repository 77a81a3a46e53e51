package renderer

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/playwright-community/playwright-go"
)

const defaultNavigationTimeout = 60 * time.Second

type Options struct {
	Headless        bool
	SandboxDisabled bool
	GPUDisabled     bool
	// WaitSelector is waited for after navigation so scripted listings
	// are in the DOM before the snapshot.
	WaitSelector string
}

// Playwright renders pages with a headless Chromium.
type Playwright struct {
	opts Options
}

func NewPlaywright(opts Options) *Playwright {
	return &Playwright{opts: opts}
}

func (p *Playwright) launchArgs() []string {
	args := []string{"--disable-dev-shm-usage"}
	if p.opts.SandboxDisabled {
		args = append(args, "--no-sandbox")
	}
	if p.opts.GPUDisabled {
		args = append(args, "--disable-gpu")
	}
	return args
}

// launchOptions bounds browser start-up by the remaining context deadline.
func (p *Playwright) launchOptions(ctx context.Context) playwright.BrowserTypeLaunchOptions {
	return playwright.BrowserTypeLaunchOptions{
		Headless:        playwright.Bool(p.opts.Headless),
		ChromiumSandbox: playwright.Bool(!p.opts.SandboxDisabled),
		Args:            p.launchArgs(),
		Timeout:         playwright.Float(timeoutMillis(ctx)),
	}
}

func (p *Playwright) Open(ctx context.Context) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, &Error{Op: "start", Err: err}
	}

	slog.InfoContext(ctx, "starting browser", "headless", p.opts.Headless)
	pw, err := playwright.Run()
	if err != nil {
		return nil, &Error{Op: "start", Err: err}
	}

	browser, err := pw.Chromium.Launch(p.launchOptions(ctx))
	if err != nil {
		_ = pw.Stop()
		return nil, &Error{Op: "launch", Err: err}
	}

	return &playwrightSession{pw: pw, browser: browser, waitSelector: p.opts.WaitSelector}, nil
}

type playwrightSession struct {
	pw           *playwright.Playwright
	browser      playwright.Browser
	waitSelector string
}

func (s *playwrightSession) Load(ctx context.Context, pageURL string) (*goquery.Document, error) {
	timeout := timeoutMillis(ctx)

	page, err := s.browser.NewPage()
	if err != nil {
		return nil, &Error{Op: "new page", URL: pageURL, Err: err}
	}
	defer page.Close()

	slog.InfoContext(ctx, "visiting", "url", pageURL)
	if _, err := page.Goto(pageURL, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(timeout),
	}); err != nil {
		return nil, &Error{Op: "navigate", URL: pageURL, Err: err}
	}

	if s.waitSelector != "" {
		if err := page.Locator(s.waitSelector).First().WaitFor(playwright.LocatorWaitForOptions{
			State:   playwright.WaitForSelectorStateAttached,
			Timeout: playwright.Float(timeoutMillis(ctx)),
		}); err != nil {
			return nil, &Error{Op: "wait " + s.waitSelector, URL: pageURL, Err: err}
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, &Error{Op: "navigate", URL: pageURL, Err: err}
	}

	html, err := page.Content()
	if err != nil {
		return nil, &Error{Op: "content", URL: pageURL, Err: err}
	}

	doc, err := parseDocument(html, page.URL())
	if err != nil {
		return nil, &Error{Op: "parse", URL: pageURL, Err: err}
	}
	return doc, nil
}

func (s *playwrightSession) Close() error {
	return errors.Join(s.browser.Close(), s.pw.Stop())
}

// timeoutMillis converts what is left of the context deadline into the
// millisecond timeout playwright expects.
func timeoutMillis(ctx context.Context) float64 {
	deadline, ok := ctx.Deadline()
	if !ok {
		return float64(defaultNavigationTimeout.Milliseconds())
	}
	remaining := time.Until(deadline)
	if remaining < time.Millisecond {
		remaining = time.Millisecond
	}
	return float64(remaining.Milliseconds())
}
