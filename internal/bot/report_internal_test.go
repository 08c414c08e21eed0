package bot

import (
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Houeta/garderie-watch/internal/models"
)

func containsAll(s string, parts ...string) bool {
	for _, p := range parts {
		if !strings.Contains(s, p) {
			return false
		}
	}
	return true
}

func TestRenderReport(t *testing.T) {
	t.Parallel()

	result := &models.CrawlResult{
		Records: []models.Record{
			{ID: 3, Revision: 2, Listing: models.Listing{Href: "/g/3.html", Title: "Updated far", Distance: 4.0}},
			{ID: 1, Listing: models.Listing{Href: "/g/1.html", Title: "New far", Distance: 3.5}},
			{ID: 2, Revision: 1, Listing: models.Listing{Href: "/g/2.html", Title: "Updated near", Distance: 0.5}},
			{ID: 4, Listing: models.Listing{
				Href:        "/g/4.html",
				Title:       "New near",
				Distance:    1.2,
				Type:        "Garderie",
				ContactName: "Marie Tremblay",
				Phone:       "514-555-0101",
				LastUpdate:  time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
				Places:      []models.Place{{Count: 2, AgeGroup: "18 mois - 5 ans", AvailableFrom: "2024-09-01", PricePerUnit: 8.7}},
			}},
		},
		Failures: []models.TaskFailure{{ID: 9, Href: "/g/9.html", Err: errors.New("timeout")}},
	}

	messages, err := RenderReport(result, testBaseURL)
	require.NoError(t, err)
	require.Len(t, messages, 1)

	msg := messages[0]
	order := []string{"New listings", "New near", "New far", "Updated listings", "Updated near", "Updated far", "1 listing(s)"}
	last := -1
	for _, part := range order {
		idx := strings.Index(msg, part)
		require.NotEqual(t, -1, idx, "missing %q", part)
		assert.Greater(t, idx, last, "%q out of order", part)
		last = idx
	}

	assert.Contains(t, msg, "1.2 km · Garderie")
	assert.Contains(t, msg, "Marie Tremblay")
	assert.Contains(t, msg, "• 2 × 18 mois - 5 ans, 2024-09-01, 8.70 $")
	assert.Contains(t, msg, "Last update: 2024-03-01")
	assert.Contains(t, msg, `<a href="https://garderies.example/g/4.html">Details</a>`)

	// Input order is left untouched.
	assert.Equal(t, int64(3), result.Records[0].ID)
}

func TestRenderReportEscapesHTML(t *testing.T) {
	t.Parallel()

	result := &models.CrawlResult{Records: []models.Record{
		{ID: 1, Listing: models.Listing{Href: "/g/1.html", Title: "<b>Tom & Jerry</b>"}},
	}}

	messages, err := RenderReport(result, testBaseURL)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Contains(t, messages[0], "&lt;b&gt;Tom &amp; Jerry&lt;/b&gt;")
}

func TestRenderReportOnlyUpdated(t *testing.T) {
	t.Parallel()

	result := &models.CrawlResult{Records: []models.Record{
		{ID: 1, Revision: 1, Listing: models.Listing{Href: "/g/1.html", Title: "A"}},
	}}

	messages, err := RenderReport(result, testBaseURL)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.NotContains(t, messages[0], "New listings")
	assert.Contains(t, messages[0], "Updated listings")
}

func TestChunk(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		blocks []string
		limit  int
		want   []string
	}{
		{name: "empty", blocks: nil, limit: 10, want: nil},
		{name: "fits in one", blocks: []string{"ab", "cd"}, limit: 10, want: []string{"ab\n\ncd"}},
		{name: "split on limit", blocks: []string{"abcd", "efgh", "ij"}, limit: 10, want: []string{"abcd\n\nefgh", "ij"}},
		{name: "oversized line is cut", blocks: []string{"a", "0123456789xyz", "b"}, limit: 10, want: []string{"a", "0123456789", "xyz\n\nb"}},
		{name: "oversized block split on lines", blocks: []string{"line1\nline2\nline3"}, limit: 12, want: []string{"line1\nline2", "line3"}},
		{name: "counts runes", blocks: []string{"éééé", "éééé"}, limit: 10, want: []string{"éééé\n\néééé"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, chunk(tt.blocks, tt.limit))
		})
	}
}

func TestRenderReportChunksLongReports(t *testing.T) {
	t.Parallel()

	var records []models.Record
	for i := range 200 {
		records = append(records, models.Record{
			ID:      int64(i),
			Listing: models.Listing{Href: "/g/x.html", Title: strings.Repeat("x", 60), Distance: float64(i) / 10},
		})
	}

	messages, err := RenderReport(&models.CrawlResult{Records: records}, testBaseURL)
	require.NoError(t, err)
	require.Greater(t, len(messages), 1)
	for _, msg := range messages {
		assert.LessOrEqual(t, utf8.RuneCountInString(msg), maxMessageLen)
	}
}

func TestRenderReportSplitsOversizedListing(t *testing.T) {
	t.Parallel()

	places := make([]models.Place, 300)
	for i := range places {
		places[i] = models.Place{Count: i + 1, AgeGroup: "18 mois - 5 ans", AvailableFrom: "2024-09-01", PricePerUnit: 8.7}
	}
	rec := models.Record{ID: 1, Listing: models.Listing{
		Href:    "/g/1.html",
		Title:   strings.Repeat("Garderie ", 1000),
		Address: strings.Repeat("rue ", 2000),
		Places:  places,
	}}

	messages, err := RenderReport(&models.CrawlResult{Records: []models.Record{rec}}, testBaseURL)
	require.NoError(t, err)
	require.Greater(t, len(messages), 1)

	joined := strings.Join(messages, "\n")
	for _, msg := range messages {
		assert.LessOrEqual(t, utf8.RuneCountInString(msg), maxMessageLen)
		assert.Equal(t, strings.Count(msg, "<b>"), strings.Count(msg, "</b>"), "unbalanced bold tag")
		assert.Equal(t, strings.Count(msg, "<a "), strings.Count(msg, "</a>"), "unbalanced link tag")
	}
	assert.Contains(t, joined, "• 300 × 18 mois - 5 ans")
	assert.Contains(t, joined, "…</b>")
	assert.Contains(t, joined, `<a href="https://garderies.example/g/1.html">Details</a>`)
	// The input record is left untouched.
	assert.Equal(t, 9000, utf8.RuneCountInString(rec.Title))
}
