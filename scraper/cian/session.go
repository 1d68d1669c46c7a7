package cian

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/chromedp/chromedp"

	"cian-scraper/config"
	"cian-scraper/utils"
)

// Session is a long-lived browser tab implementing Page. One session is
// acquired for the whole scrape run; each Navigate (and each Scroll/Click)
// re-snapshots the rendered DOM so the extractors work on a static document.
type Session struct {
	cfg    *config.Config
	logger *utils.Logger

	allocCancel  context.CancelFunc
	browserCtx   context.Context
	browserClose context.CancelFunc

	snapshot *StaticPage

	pageLoadWait time.Duration
	scrollWait   time.Duration
}

// NewSession launches the browser (or attaches to a remote debugger when
// configured) and verifies it is responsive. A session that cannot be
// established is the one failure the scrape run does not survive.
func NewSession(cfg *config.Config, logger *utils.Logger) (*Session, error) {
	s := &Session{
		cfg:          cfg,
		logger:       logger,
		pageLoadWait: time.Duration(cfg.PageLoadWaitMs) * time.Millisecond,
		scrollWait:   time.Duration(cfg.ScrollWaitMs) * time.Millisecond,
	}

	var allocCtx context.Context
	if cfg.RemoteDebuggerURL != "" {
		logger.Info("[cian] Attaching to remote debugger: %s", cfg.RemoteDebuggerURL)
		allocCtx, s.allocCancel = chromedp.NewRemoteAllocator(context.Background(), cfg.RemoteDebuggerURL)
	} else {
		chromeBin := findChromeBinary(cfg.ChromeBin)
		logger.Info("[cian] Using browser binary: %s", chromeBin)

		opts := append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.Flag("disable-setuid-sandbox", true),
			chromedp.Flag("disable-blink-features", "AutomationControlled"),
			chromedp.UserAgent("Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 "+
				"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"),
		)
		if chromeBin != "" {
			opts = append(opts, chromedp.ExecPath(chromeBin))
		}
		allocCtx, s.allocCancel = chromedp.NewExecAllocator(context.Background(), opts...)
	}

	// Suppress chromedp log noise
	s.browserCtx, s.browserClose = chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(string, ...interface{}) {}))

	startCtx, cancel := context.WithTimeout(s.browserCtx, 60*time.Second)
	defer cancel()
	if err := chromedp.Run(startCtx); err != nil {
		s.Close()
		return nil, fmt.Errorf("browser session: start: %w", err)
	}
	return s, nil
}

// Navigate loads the offer page, waits for it to settle and snapshots the
// rendered DOM.
func (s *Session) Navigate(url string) error {
	ctx, cancel := context.WithTimeout(s.browserCtx, 90*time.Second)
	defer cancel()

	err := chromedp.Run(ctx,
		chromedp.Navigate(url),
		chromedp.Sleep(s.pageLoadWait),
	)
	if err != nil {
		return fmt.Errorf("browser session: navigate %s: %w", url, err)
	}
	return s.refresh(ctx)
}

// Find looks elements up in the last DOM snapshot.
func (s *Session) Find(selector string) []Element {
	if s.snapshot == nil {
		return nil
	}
	return s.snapshot.Find(selector)
}

// Click dispatches a click on the first element matching the selector and
// re-snapshots the DOM afterwards. A missing element is an error so callers
// can tell "no popup trigger" from a stale snapshot.
func (s *Session) Click(selector string) error {
	ctx, cancel := context.WithTimeout(s.browserCtx, 30*time.Second)
	defer cancel()

	var clicked bool
	script := fmt.Sprintf(`(function() {
		const el = document.querySelector(%q);
		if (!el) { return false; }
		el.click();
		return true;
	})()`, selector)

	err := chromedp.Run(ctx,
		chromedp.Evaluate(script, &clicked),
		chromedp.Sleep(s.scrollWait),
	)
	if err != nil {
		return fmt.Errorf("browser session: click %q: %w", selector, err)
	}
	if !clicked {
		return fmt.Errorf("browser session: click %q: no such element", selector)
	}
	return s.refresh(ctx)
}

// ScrollTo scrolls to a fraction of the page height and re-snapshots the DOM
// once the lazy-loaded content had a chance to render.
func (s *Session) ScrollTo(fraction float64) error {
	ctx, cancel := context.WithTimeout(s.browserCtx, 30*time.Second)
	defer cancel()

	script := fmt.Sprintf(`window.scrollTo(0, document.body.scrollHeight * %f)`, fraction)
	err := chromedp.Run(ctx,
		chromedp.Evaluate(script, nil),
		chromedp.Sleep(s.scrollWait),
	)
	if err != nil {
		return fmt.Errorf("browser session: scroll: %w", err)
	}
	return s.refresh(ctx)
}

// Screenshot captures the current viewport to a PNG file.
func (s *Session) Screenshot(path string) error {
	ctx, cancel := context.WithTimeout(s.browserCtx, 30*time.Second)
	defer cancel()

	var buf []byte
	if err := chromedp.Run(ctx, chromedp.CaptureScreenshot(&buf)); err != nil {
		return fmt.Errorf("browser session: screenshot: %w", err)
	}
	if err := os.WriteFile(path, buf, 0644); err != nil {
		return fmt.Errorf("browser session: screenshot: %w", err)
	}
	return nil
}

func (s *Session) refresh(ctx context.Context) error {
	var html string
	if err := chromedp.Run(ctx, chromedp.OuterHTML("html", &html)); err != nil {
		return fmt.Errorf("browser session: snapshot: %w", err)
	}
	page, err := NewStaticPage(html)
	if err != nil {
		return fmt.Errorf("browser session: parse snapshot: %w", err)
	}
	s.snapshot = page
	return nil
}

// Close tears the tab and the browser down. Safe to call more than once.
func (s *Session) Close() {
	if s.browserClose != nil {
		s.browserClose()
		s.browserClose = nil
	}
	if s.allocCancel != nil {
		s.allocCancel()
		s.allocCancel = nil
	}
}

// findChromeBinary locates a Chrome/Chromium binary, preferring the
// configured path.
func findChromeBinary(configured string) string {
	if configured != "" {
		return configured
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
