package crawler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Houeta/garderie-watch/internal/fetcher"
	"github.com/Houeta/garderie-watch/internal/metrics"
	"github.com/Houeta/garderie-watch/internal/models"
	"github.com/Houeta/garderie-watch/internal/parser"
	"github.com/Houeta/garderie-watch/internal/repository"
)

// ErrRunInProgress is returned when Run is called while another run of the same crawler is active.
var ErrRunInProgress = errors.New("crawl already in progress")

// Reconcile outcomes of a detail task.
const (
	OutcomeCreated   = "created"
	OutcomeUpdated   = "updated"
	OutcomeUnchanged = "unchanged"
	OutcomeFailed    = "failed"
)

// Interface is what the scheduler needs from a crawler.
type Interface interface {
	// Run walks the index pages and returns every record created or updated on the way.
	Run(ctx context.Context) (*models.CrawlResult, error)
}

// Options tunes a crawl.
type Options struct {
	// MaxDistanceKM is the cutoff: summaries farther than this are skipped and end pagination.
	MaxDistanceKM float64
	// MaxInFlight caps concurrent detail tasks. Zero means no cap.
	MaxInFlight int
}

// Crawler is the orchestrator of one crawl cycle.
type Crawler struct {
	log     *slog.Logger
	fetcher fetcher.PageFetcher
	parser  parser.ListingParser
	store   repository.RecordStore
	opts    Options

	running atomic.Bool
}

// NewCrawler creates a new Crawler instance.
func NewCrawler(
	log *slog.Logger,
	pageFetcher fetcher.PageFetcher,
	listingParser parser.ListingParser,
	store repository.RecordStore,
	opts Options,
) *Crawler {
	return &Crawler{log: log, fetcher: pageFetcher, parser: listingParser, store: store, opts: opts}
}

// accumulator collects task outcomes in completion order.
type accumulator struct {
	mu       sync.Mutex
	records  []models.Record
	failures []models.TaskFailure
}

func (a *accumulator) add(rec models.Record) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.records = append(a.records, rec)
}

func (a *accumulator) fail(f models.TaskFailure) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.failures = append(a.failures, f)
}

// Run fetches index pages one after another until the last page or the
// distance cutoff, reconciling every in-range summary concurrently, and
// returns once pagination and every dispatched task are done.
//
// A failure on an index page fails the run. A failure in a detail task is
// logged and reported in CrawlResult.Failures only.
func (c *Crawler) Run(ctx context.Context) (*models.CrawlResult, error) {
	const opn = "crawler.Run"

	if !c.running.CompareAndSwap(false, true) {
		return nil, fmt.Errorf("%s: %w", opn, ErrRunInProgress)
	}
	defer c.running.Store(false)

	runID, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("%s: generate run id: %w", opn, err)
	}
	log := c.log.With("op", opn, "run_id", runID.String())
	start := time.Now()

	log.InfoContext(ctx, "Crawl started", "max_distance_km", c.opts.MaxDistanceKM)

	var (
		tasks errgroup.Group
		acc   accumulator
	)
	if c.opts.MaxInFlight > 0 {
		tasks.SetLimit(c.opts.MaxInFlight)
	}

	pages, err := c.paginate(ctx, log, &tasks, &acc)

	// Pagination is over, so the task set is closed: Wait covers every task ever dispatched.
	_ = tasks.Wait()

	if err != nil {
		metrics.ObserveRun("failed", time.Since(start))
		log.ErrorContext(ctx, "Crawl failed", "pages", pages, "error", err)
		return nil, fmt.Errorf("%s: %w", opn, err)
	}

	result := &models.CrawlResult{
		Records:    acc.records,
		Failures:   acc.failures,
		IndexPages: pages,
	}
	metrics.ObserveRun("succeeded", time.Since(start))
	log.InfoContext(
		ctx,
		"Crawl complete",
		"pages", pages,
		"changed", len(result.Records),
		"failed", len(result.Failures),
		"duration", time.Since(start),
	)

	return result, nil
}

// paginate runs the index-page loop and returns the number of pages processed.
func (c *Crawler) paginate(
	ctx context.Context,
	log *slog.Logger,
	tasks *errgroup.Group,
	acc *accumulator,
) (int, error) {
	for page := 1; ; page++ {
		if err := ctx.Err(); err != nil {
			return page - 1, fmt.Errorf("crawl interrupted before page %d: %w", page, err)
		}

		index, err := c.indexPage(ctx, page)
		if err != nil {
			return page - 1, err
		}
		metrics.ObserveIndexPage()

		inRange, outOfRange := splitByDistance(index.Summaries, c.opts.MaxDistanceKM)
		for _, summary := range inRange {
			tasks.Go(func() error {
				c.runTask(ctx, log, summary, acc)
				return nil
			})
		}

		log.DebugContext(
			ctx,
			"Index page dispatched",
			"page", page,
			"summaries", len(index.Summaries),
			"in_range", len(inRange),
			"has_more", index.HasMore,
		)

		// The listing is sorted by distance: once one summary is out of range, later pages are too.
		if !index.HasMore || outOfRange > 0 {
			return page, nil
		}
	}
}

func (c *Crawler) indexPage(ctx context.Context, page int) (models.IndexPage, error) {
	raw, err := c.fetcher.FetchIndexPage(ctx, page)
	if err != nil {
		return models.IndexPage{}, fmt.Errorf("failed to fetch index page %d: %w", page, err)
	}

	index, err := c.parser.ParseIndex(ctx, bytes.NewReader(raw))
	if err != nil {
		return models.IndexPage{}, fmt.Errorf("failed to parse index page %d: %w", page, err)
	}

	return index, nil
}

// splitByDistance keeps the summaries within maxDistance, in order, and counts the others.
func splitByDistance(summaries []models.Summary, maxDistance float64) ([]models.Summary, int) {
	inRange := make([]models.Summary, 0, len(summaries))
	for _, s := range summaries {
		if s.Distance <= maxDistance {
			inRange = append(inRange, s)
		}
	}
	return inRange, len(summaries) - len(inRange)
}

func (c *Crawler) runTask(ctx context.Context, log *slog.Logger, summary models.Summary, acc *accumulator) {
	log = log.With("id", summary.ID)

	rec, outcome, err := c.reconcile(ctx, summary)
	metrics.ObserveTask(outcome)

	switch {
	case err != nil:
		kind := failureKind(err)
		metrics.ObserveTaskFailure(kind)
		log.WarnContext(ctx, "Detail task failed", "kind", kind, "href", summary.Href, "error", err)
		acc.fail(models.TaskFailure{ID: summary.ID, Href: summary.Href, Err: err})
	case rec != nil:
		log.InfoContext(ctx, "Listing reconciled", "outcome", outcome, "revision", rec.Revision)
		acc.add(*rec)
	default:
		log.DebugContext(ctx, "Listing unchanged")
	}
}

// reconcile fetches the detail page of summary and creates or updates its
// record. A nil record with a nil error means the stored record is current.
func (c *Crawler) reconcile(ctx context.Context, summary models.Summary) (*models.Record, string, error) {
	raw, err := c.fetcher.FetchDetailPage(ctx, summary.Href)
	if err != nil {
		return nil, OutcomeFailed, err
	}

	detail, err := c.parser.ParseDetail(ctx, bytes.NewReader(raw))
	if err != nil {
		return nil, OutcomeFailed, fmt.Errorf("failed to parse detail page %s: %w", summary.Href, err)
	}
	listing := models.NewListing(summary, detail)

	existing, err := c.store.FindByID(ctx, summary.ID)
	if errors.Is(err, repository.ErrRecordNotFound) {
		rec, err := c.store.Create(ctx, summary.ID, listing)
		if err != nil {
			return nil, OutcomeFailed, err
		}
		return rec, OutcomeCreated, nil
	}
	if err != nil {
		return nil, OutcomeFailed, err
	}

	if !needsUpdate(existing, detail) {
		return nil, OutcomeUnchanged, nil
	}

	rec, err := c.store.Update(ctx, existing, listing)
	if err != nil {
		return nil, OutcomeFailed, err
	}
	return rec, OutcomeUpdated, nil
}

// needsUpdate compares last-update instants; a stored record without one is always refreshed.
func needsUpdate(stored *models.Record, detail models.Detail) bool {
	return stored.LastUpdate.IsZero() || !stored.LastUpdate.Equal(detail.LastUpdate)
}

func failureKind(err error) string {
	switch {
	case errors.Is(err, fetcher.ErrFetch):
		return "fetch"
	case errors.Is(err, parser.ErrParse):
		return "parse"
	case errors.Is(err, repository.ErrStore), errors.Is(err, repository.ErrRecordNotFound):
		return "store"
	default:
		return "other"
	}
}
