package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveTask(t *testing.T) {
	before := testutil.ToFloat64(crawlTasksTotal.WithLabelValues("created"))

	ObserveTask("created")
	ObserveTask("created")

	if got := testutil.ToFloat64(crawlTasksTotal.WithLabelValues("created")) - before; got != 2 {
		t.Errorf("created tasks delta = %v; want 2", got)
	}
}

func TestObserveRunAndPages(t *testing.T) {
	runsBefore := testutil.ToFloat64(crawlRunsTotal.WithLabelValues("succeeded"))
	pagesBefore := testutil.ToFloat64(crawlIndexPagesTotal)

	ObserveRun("succeeded", 2*time.Second)
	ObserveIndexPage()
	ObserveTaskFailure("fetch")
	ObserveNotification("sent")

	if got := testutil.ToFloat64(crawlRunsTotal.WithLabelValues("succeeded")) - runsBefore; got != 1 {
		t.Errorf("runs delta = %v; want 1", got)
	}
	if got := testutil.ToFloat64(crawlIndexPagesTotal) - pagesBefore; got != 1 {
		t.Errorf("index pages delta = %v; want 1", got)
	}
}

func TestHandlerExposesCollectors(t *testing.T) {
	ObserveIndexPage()

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d; want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "garderie_crawl_index_pages_total") {
		t.Error("expected index page counter in metrics output")
	}
}
