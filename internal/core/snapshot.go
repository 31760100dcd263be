package core

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"github.com/example/marksync/internal/core/db"
)

// SnapshotOptions controls how a live page is fetched and captured.
//
// This uses a real Chrome/Chromium browser (via the DevTools protocol) so that
// JS-heavy pages have a chance to fully render before the final HTML is
// snapshotted. It is the fallback reading path for bookmarks whose remote
// content extraction failed.
type SnapshotOptions struct {
	// ChromePath optionally overrides the Chrome/Chromium executable path.
	// If empty, chromedp will try to find a browser on PATH / default locations.
	ChromePath string
	// Headless controls whether Chrome runs without a visible window.
	Headless bool
	// Timeout is the per-page deadline for navigation + rendering + capture.
	// If <= 0, a sensible default is used.
	Timeout time.Duration
	// WaitSelector optionally waits for a CSS selector to become visible
	// before capturing. Useful for SPAs that render late.
	WaitSelector string
}

// SnapshotResult is the captured output of rendering a single page.
type SnapshotResult struct {
	// FinalURL is the browser's final URL after redirects.
	FinalURL string
	// Title is the document title if available (may be empty).
	Title string
	// HTML is the final rendered document HTML (outerHTML of <html>).
	HTML string
}

// CapturePage loads a URL in Chrome and returns the final rendered HTML.
//
// It navigates, waits for network idle and <body> (plus opts.WaitSelector if
// set), then captures final URL, document.title, and <html> outerHTML. Pages
// behind paywalls, CAPTCHAs, or login walls fail with an error; for pages
// that set a blank title, the <title> element is parsed out of the HTML.
func CapturePage(ctx context.Context, url string, opts SnapshotOptions) (SnapshotResult, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultSnapshotTimeout
	}

	allocatorOpts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	allocatorOpts = append(allocatorOpts,
		chromedp.NoDefaultBrowserCheck,
		chromedp.NoFirstRun,
	)
	if opts.ChromePath != "" {
		allocatorOpts = append(allocatorOpts, chromedp.ExecPath(opts.ChromePath))
	}
	if opts.Headless {
		allocatorOpts = append(allocatorOpts, chromedp.Headless)
	} else {
		allocatorOpts = append(allocatorOpts, chromedp.Flag("headless", false))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocatorOpts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	runCtx, cancelRun := context.WithTimeout(browserCtx, opts.Timeout)
	defer cancelRun()

	var html string
	var title string
	var finalURL string

	// Wait for network idle so late resources are in before capture.
	waitForNetworkIdle := func(ctx context.Context) error {
		if err := page.SetLifecycleEventsEnabled(true).Do(ctx); err != nil {
			return err
		}

		ch := make(chan struct{})
		chromedp.ListenTarget(ctx, func(ev interface{}) {
			if e, ok := ev.(*page.EventLifecycleEvent); ok {
				if e.Name == "networkIdle" {
					select {
					case ch <- struct{}{}:
					default:
					}
				}
			}
		})

		if err := chromedp.Navigate(url).Do(ctx); err != nil {
			return err
		}

		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}

		return nil
	}

	actions := []chromedp.Action{
		chromedp.ActionFunc(waitForNetworkIdle),
		chromedp.WaitReady("body", chromedp.ByQuery),
	}
	if strings.TrimSpace(opts.WaitSelector) != "" {
		actions = append(actions, chromedp.WaitVisible(opts.WaitSelector, chromedp.ByQuery))
	}
	actions = append(actions,
		chromedp.Sleep(snapshotSettleDelay),
		chromedp.Location(&finalURL),
		chromedp.Title(&title),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)

	if err := chromedp.Run(runCtx, actions...); err != nil {
		return SnapshotResult{}, err
	}

	if strings.TrimSpace(title) == "" && strings.TrimSpace(html) != "" {
		if doc, err := goquery.NewDocumentFromReader(strings.NewReader(html)); err == nil {
			title = strings.TrimSpace(doc.Find("title").First().Text())
		}
	}

	return SnapshotResult{
		FinalURL: finalURL,
		Title:    title,
		HTML:     html,
	}, nil
}

// SnapshotBookmark captures the live page for a bookmark and stores the
// rendered HTML as its article content, run through the same offline
// preparation as downloaded articles.
func SnapshotBookmark(ctx context.Context, store *db.DB, bookmarkID string, opts SnapshotOptions) error {
	b, err := store.GetBookmark(bookmarkID)
	if err != nil {
		return err
	}

	res, err := CapturePage(ctx, b.URL, opts)
	if err != nil {
		return fmt.Errorf("failed to capture %s: %w", b.URL, err)
	}

	contentOpts := DefaultContentOptions()
	prepared, err := PrepareArticle(ctx, res.HTML, res.FinalURL, contentOpts)
	if err != nil {
		log.Printf("Failed to prepare snapshot for %s: %v (storing as captured)", bookmarkID, err)
		prepared = res.HTML
	}

	if err := store.SaveArticleContent(bookmarkID, prepared); err != nil {
		return err
	}
	log.Printf("Snapshotted bookmark %s (%s)", bookmarkID, res.FinalURL)
	return nil
}
