package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/Houeta/garderie-watch/internal/models"
)

// ErrFetch wraps every network or HTTP failure while fetching a page.
var ErrFetch = errors.New("fetch error")

const defaultUserAgent = "Mozilla/5.0 (compatible; GoHttpClient/1.0)"

// Query parameter names understood by the listing site.
const (
	paramNumberOfSpaces = "SNumber"
	paramPostalCode     = "SPostal"
	paramMaxPrice       = "SMaxPrice"
	paramAgeInMonths    = "SAge"
	paramType           = "SType"
	paramOutputFormat   = "SOut"
	paramPage           = "SPag"

	allTypes   = "12345"
	listOutput = "list"
)

// PageFetcher returns the raw content of index and detail pages.
type PageFetcher interface {
	FetchIndexPage(ctx context.Context, page int) ([]byte, error)
	FetchDetailPage(ctx context.Context, href string) ([]byte, error)
}

// Fetcher downloads listing pages over HTTP.
type Fetcher struct {
	log       *slog.Logger
	client    *http.Client
	baseURL   string
	indexURL  string
	userAgent string
	params    url.Values
}

// Options configures a Fetcher.
type Options struct {
	BaseURL   string // BaseURL prefixes detail page links.
	IndexURL  string
	UserAgent string
	Timeout   time.Duration
	Query     models.Query
}

// NewFetcher creates a Fetcher sending the given query with every index request.
func NewFetcher(log *slog.Logger, opts Options) *Fetcher {
	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	return &Fetcher{
		log:       log,
		client:    &http.Client{Timeout: opts.Timeout},
		baseURL:   opts.BaseURL,
		indexURL:  opts.IndexURL,
		userAgent: userAgent,
		params:    queryParams(opts.Query),
	}
}

// queryParams turns the configured filters into the fixed part of every index query.
func queryParams(q models.Query) url.Values {
	params := url.Values{}
	if q.NumberOfSpaces != nil {
		params.Set(paramNumberOfSpaces, strconv.Itoa(*q.NumberOfSpaces))
	}
	if q.PostalCode != "" {
		params.Set(paramPostalCode, q.PostalCode)
	}
	if q.MaxPrice != nil {
		params.Set(paramMaxPrice, strconv.FormatFloat(*q.MaxPrice, 'f', -1, 64))
	}
	if q.AgeInMonths != nil {
		params.Set(paramAgeInMonths, strconv.Itoa(*q.AgeInMonths))
	}
	params.Set(paramType, allTypes)
	params.Set(paramOutputFormat, listOutput)
	return params
}

// IndexURL builds the URL of index page n. The first page carries no page parameter.
func (f *Fetcher) IndexURL(page int) (string, error) {
	reqURL, err := url.Parse(f.indexURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse index URL %s: %w", f.indexURL, err)
	}

	params := url.Values{}
	for k, v := range f.params {
		params[k] = append([]string(nil), v...)
	}
	if page > 1 {
		params.Set(paramPage, strconv.Itoa(page))
	}
	reqURL.RawQuery = params.Encode()

	return reqURL.String(), nil
}

// FetchIndexPage downloads index page n.
func (f *Fetcher) FetchIndexPage(ctx context.Context, page int) ([]byte, error) {
	const opn = "fetcher.FetchIndexPage"

	reqURL, err := f.IndexURL(page)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", opn, ErrFetch, err)
	}

	body, err := f.get(ctx, reqURL)
	if err != nil {
		return nil, fmt.Errorf("%s: page %d: %w", opn, page, err)
	}
	return body, nil
}

// FetchDetailPage downloads the detail page behind a relative link.
func (f *Fetcher) FetchDetailPage(ctx context.Context, href string) ([]byte, error) {
	const opn = "fetcher.FetchDetailPage"

	body, err := f.get(ctx, f.baseURL+href)
	if err != nil {
		return nil, fmt.Errorf("%s: %s: %w", opn, href, err)
	}
	return body, nil
}

func (f *Fetcher) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create new request %s: %w", ErrFetch, rawURL, err)
	}

	req.Header.Add("User-Agent", f.userAgent)

	f.log.DebugContext(ctx, "Send request", "method", req.Method, "URL", req.URL)

	res, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to request %s: %w", ErrFetch, rawURL, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status code error: [%d] %s", ErrFetch, res.StatusCode, res.Status)
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response body: %w", ErrFetch, err)
	}

	f.log.DebugContext(ctx, "Successfully received http response", "URL", rawURL, "bytes", len(body))

	return body, nil
}
