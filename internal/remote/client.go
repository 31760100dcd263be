package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// UserAgent identifies this client to the bookmark service.
const UserAgent = "marksync/1.0"

// DefaultTimeout bounds any single request to the service.
const DefaultTimeout = 30 * time.Second

// ErrMissingPagination is returned when a list response lacks one of the
// Total-Count / Total-Pages / Current-Page headers. Without all three the
// page boundary is unknown and reconciliation would be unsafe.
var ErrMissingPagination = errors.New("missing pagination header")

// ErrMissingBookmarkID is returned when a create response carries no
// Bookmark-Id header.
var ErrMissingBookmarkID = errors.New("missing Bookmark-Id header")

// StatusError is a non-2xx response from the service.
type StatusError struct {
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("remote returned %s", e.Status)
}

// IsNotFound reports whether err is an HTTP 404 from the service, which is
// treated as evidence the remote record no longer exists.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == http.StatusNotFound
}

// IsTransient reports whether err is worth retrying later without data loss:
// any network-level failure, or HTTP 408/429/500.
func IsTransient(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		switch se.StatusCode {
		case http.StatusRequestTimeout, http.StatusTooManyRequests, http.StatusInternalServerError:
			return true
		}
		return false
	}
	var ue *url.Error
	return errors.As(err, &ue)
}

// Client is a typed HTTP client for the remote bookmark service.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient creates a client for the service at baseURL, authenticating every
// request with the given bearer token. A nil httpClient gets a default with
// DefaultTimeout.
func NewClient(baseURL, token string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    httpClient,
	}
}

// do issues one request and returns the response. Non-2xx responses are
// drained, closed, and converted to *StatusError.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any) (*http.Response, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, &StatusError{StatusCode: resp.StatusCode, Status: resp.Status}
	}
	return resp, nil
}

// pageHeader parses one required pagination header.
func pageHeader(resp *http.Response, name string) (int, error) {
	v := resp.Header.Get(name)
	if v == "" {
		return 0, fmt.Errorf("%w: %s", ErrMissingPagination, name)
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q", ErrMissingPagination, name, v)
	}
	return n, nil
}

// ListBookmarks fetches one page of the bookmark list ordered by creation
// time. updatedSince narrows the listing to records changed after the given
// instant; pass nil for the full listing.
func (c *Client) ListBookmarks(ctx context.Context, limit, offset int, updatedSince *time.Time) (Page, error) {
	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))
	query.Set("offset", strconv.Itoa(offset))
	query.Set("sort", "created")
	if updatedSince != nil {
		query.Set("updated_since", updatedSince.UTC().Format(time.RFC3339))
	}

	resp, err := c.do(ctx, http.MethodGet, "/api/bookmarks", query, nil)
	if err != nil {
		return Page{}, err
	}
	defer resp.Body.Close()

	var page Page
	if page.TotalCount, err = pageHeader(resp, "Total-Count"); err != nil {
		return Page{}, err
	}
	if page.TotalPages, err = pageHeader(resp, "Total-Pages"); err != nil {
		return Page{}, err
	}
	if page.CurrentPage, err = pageHeader(resp, "Current-Page"); err != nil {
		return Page{}, err
	}

	if err := json.NewDecoder(resp.Body).Decode(&page.Bookmarks); err != nil {
		return Page{}, fmt.Errorf("failed to decode bookmark list: %w", err)
	}
	return page, nil
}

// GetBookmark fetches a single bookmark by id.
func (c *Client) GetBookmark(ctx context.Context, id string) (Bookmark, error) {
	resp, err := c.do(ctx, http.MethodGet, "/api/bookmarks/"+url.PathEscape(id), nil, nil)
	if err != nil {
		return Bookmark{}, err
	}
	defer resp.Body.Close()

	var b Bookmark
	if err := json.NewDecoder(resp.Body).Decode(&b); err != nil {
		return Bookmark{}, fmt.Errorf("failed to decode bookmark: %w", err)
	}
	return b, nil
}

// CreateBookmark asks the service to save a URL. The service answers before
// content extraction finishes; the new bookmark's id comes back in the
// Bookmark-Id response header while the record itself starts in the loading
// state.
func (c *Client) CreateBookmark(ctx context.Context, title, bookmarkURL string, labels []string) (string, error) {
	body := map[string]any{"url": bookmarkURL}
	if title != "" {
		body["title"] = title
	}
	if len(labels) > 0 {
		body["labels"] = labels
	}

	resp, err := c.do(ctx, http.MethodPost, "/api/bookmarks", nil, body)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	id := resp.Header.Get("Bookmark-Id")
	if id == "" {
		return "", ErrMissingBookmarkID
	}
	return id, nil
}

// EditBookmark applies a partial edit to a remote bookmark.
func (c *Client) EditBookmark(ctx context.Context, id string, patch Patch) error {
	resp, err := c.do(ctx, http.MethodPatch, "/api/bookmarks/"+url.PathEscape(id), nil, patch)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	return nil
}

// DeleteBookmark removes a remote bookmark.
func (c *Client) DeleteBookmark(ctx context.Context, id string) error {
	resp, err := c.do(ctx, http.MethodDelete, "/api/bookmarks/"+url.PathEscape(id), nil, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	return nil
}

// GetArticle fetches the extracted article HTML for a bookmark.
func (c *Client) GetArticle(ctx context.Context, id string) (string, error) {
	resp, err := c.do(ctx, http.MethodGet, "/api/bookmarks/"+url.PathEscape(id)+"/article", nil, nil)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read article body: %w", err)
	}
	return string(data), nil
}
