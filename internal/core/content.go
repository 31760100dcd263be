package core

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/example/marksync/internal/core/db"
)

// ContentOptions controls article content download and post-processing.
type ContentOptions struct {
	// InlineImages converts article images to data URIs so the stored HTML
	// is fully readable offline.
	InlineImages bool
	// ResourceTimeout is the per-image fetch timeout.
	ResourceTimeout time.Duration
	// MaxImageSize skips images larger than this many bytes. 0 means no limit.
	MaxImageSize int64
}

// DefaultContentOptions returns sensible defaults for offline reading.
func DefaultContentOptions() ContentOptions {
	return ContentOptions{
		InlineImages:    true,
		ResourceTimeout: DefaultResourceTimeout,
		MaxImageSize:    MaxInlineImageSize,
	}
}

// Downloader fetches extracted article content from the remote service and
// stores a self-contained version on the local bookmark row. It consumes the
// "content download needed" signal fired by the readiness poller.
type Downloader struct {
	store  *db.DB
	remote Remote
	opts   ContentOptions
	logger *log.Logger
}

func NewDownloader(store *db.DB, rc Remote, opts ContentOptions, logger *log.Logger) *Downloader {
	if logger == nil {
		logger = log.New(os.Stderr, "[content] ", log.LstdFlags)
	}
	return &Downloader{store: store, remote: rc, opts: opts, logger: logger}
}

// Download fetches the article for a bookmark, prepares it for offline
// reading, and saves it locally.
func (d *Downloader) Download(ctx context.Context, bookmarkID string) error {
	b, err := d.store.GetBookmark(bookmarkID)
	if err != nil {
		return err
	}

	html, err := d.remote.GetArticle(ctx, bookmarkID)
	if err != nil {
		return fmt.Errorf("failed to fetch article for %s: %w", bookmarkID, err)
	}

	prepared, err := PrepareArticle(ctx, html, b.URL, d.opts)
	if err != nil {
		d.logger.Printf("Failed to prepare article for %s: %v (storing as fetched)", bookmarkID, err)
		prepared = html
	}

	if err := d.store.SaveArticleContent(bookmarkID, prepared); err != nil {
		return err
	}
	d.logger.Printf("Stored article content for %s (%d bytes)", bookmarkID, len(prepared))
	return nil
}

// PrepareArticle makes extracted article HTML safe and self-contained:
// scripts and event handlers are stripped, relative image URLs are resolved
// against the bookmark URL, and images are optionally inlined as data URIs.
func PrepareArticle(ctx context.Context, html, baseURLStr string, opts ContentOptions) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse article HTML: %w", err)
	}

	baseURL, err := url.Parse(baseURLStr)
	if err != nil {
		return "", fmt.Errorf("invalid bookmark URL: %w", err)
	}

	doc.Find("script, iframe, object, embed").Remove()
	doc.Find("*").Each(func(i int, s *goquery.Selection) {
		var handlers []string
		for _, attr := range s.Nodes[0].Attr {
			if strings.HasPrefix(strings.ToLower(attr.Key), "on") {
				handlers = append(handlers, attr.Key)
			}
		}
		for _, key := range handlers {
			s.RemoveAttr(key)
		}
	})

	client := &http.Client{Timeout: opts.ResourceTimeout}
	doc.Find("img[src]").Each(func(i int, s *goquery.Selection) {
		src, exists := s.Attr("src")
		if !exists || src == "" || strings.HasPrefix(src, "data:") {
			return
		}

		imgURL := resolveURL(baseURL, src)
		if imgURL == "" {
			return
		}

		if !opts.InlineImages {
			s.SetAttr("src", imgURL)
			return
		}

		dataURI, err := fetchImageAsDataURI(ctx, client, imgURL, opts.MaxImageSize)
		if err != nil {
			// 404s are common for moved images; keep the absolute URL.
			if !strings.Contains(err.Error(), "HTTP 404") {
				log.Printf("Failed to inline image %s: %v", imgURL, err)
			}
			s.SetAttr("src", imgURL)
			return
		}
		s.SetAttr("src", dataURI)
	})

	// srcset carries multiple URLs with descriptors; drop it so the
	// (now absolute or inlined) src wins.
	doc.Find("img[srcset], source[srcset]").Each(func(i int, s *goquery.Selection) {
		s.RemoveAttr("srcset")
	})

	result, err := doc.Html()
	if err != nil {
		return "", fmt.Errorf("failed to serialize article HTML: %w", err)
	}
	return result, nil
}

// resolveURL resolves a potentially relative URL against a base URL.
func resolveURL(base *url.URL, ref string) string {
	if ref == "" {
		return ""
	}

	// Skip data URIs and javascript:
	if strings.HasPrefix(ref, "data:") || strings.HasPrefix(ref, "javascript:") {
		return ""
	}

	refURL, err := url.Parse(ref)
	if err != nil {
		return ""
	}

	return base.ResolveReference(refURL).String()
}

// fetchImageAsDataURI downloads an image and encodes it as a data URI.
func fetchImageAsDataURI(ctx context.Context, client *http.Client, urlStr string, maxSize int64) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; marksync/1.0)")

	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	var reader io.Reader = resp.Body
	if maxSize > 0 {
		reader = io.LimitReader(resp.Body, maxSize+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	if maxSize > 0 && int64(len(data)) > maxSize {
		return "", fmt.Errorf("resource exceeds %d bytes", maxSize)
	}

	mimeType := resp.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}
	if idx := strings.Index(mimeType, ";"); idx >= 0 {
		mimeType = mimeType[:idx]
	}

	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}
