package bot

import (
	"bytes"
	"fmt"
	"html/template"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/Houeta/garderie-watch/internal/models"
)

const (
	// maxMessageLen is the Telegram limit for one text message.
	maxMessageLen = 4096
	// maxFieldLen caps free-text fields so that every rendered line fits in one message.
	maxFieldLen = 512
)

var recordTmpl = template.Must(template.New("record").Parse(
	`<b>{{.Title}}</b> · {{printf "%.1f" .Distance}} km{{if .Type}} · {{.Type}}{{end}}
{{- if .ContactName}}
{{.ContactName}}{{end}}{{if .Phone}}
☎ {{.Phone}}{{end}}{{if .Email}}
✉ {{.Email}}{{end}}{{if .Address}}
{{.Address}}{{end}}
{{- range .Places}}
• {{.Count}} × {{.AgeGroup}}, {{.AvailableFrom}}, {{printf "%.2f" .PricePerUnit}} $
{{- end}}
{{- if not .LastUpdate.IsZero}}
Last update: {{.LastUpdate.Format "2006-01-02"}}{{end}}
<a href="{{.URL}}">Details</a>`))

type recordView struct {
	models.Record
	URL string
}

// RenderReport turns a crawl result into Telegram HTML messages, new listings
// first, then updated ones, each group sorted by distance.
func RenderReport(result *models.CrawlResult, baseURL string) ([]string, error) {
	records := slices.Clone(result.Records)
	slices.SortStableFunc(records, compareRecords)

	var blocks []string
	newHeader, updatedHeader := false, false
	for _, rec := range records {
		switch {
		case rec.IsNew() && !newHeader:
			blocks = append(blocks, "🆕 <b>New listings</b>")
			newHeader = true
		case !rec.IsNew() && !updatedHeader:
			blocks = append(blocks, "🔄 <b>Updated listings</b>")
			updatedHeader = true
		}

		var buf bytes.Buffer
		if err := recordTmpl.Execute(&buf, recordView{Record: clip(rec), URL: baseURL + rec.Href}); err != nil {
			return nil, fmt.Errorf("failed to render listing %d: %w", rec.ID, err)
		}
		blocks = append(blocks, buf.String())
	}

	if n := len(result.Failures); n > 0 {
		blocks = append(blocks, fmt.Sprintf("⚠ %d listing(s) could not be checked during this crawl.", n))
	}

	return chunk(blocks, maxMessageLen), nil
}

func compareRecords(a, b models.Record) int {
	if a.IsNew() != b.IsNew() {
		if a.IsNew() {
			return -1
		}
		return 1
	}
	switch {
	case a.Distance < b.Distance:
		return -1
	case a.Distance > b.Distance:
		return 1
	default:
		return 0
	}
}

// clip shortens the free-text fields of rec to maxFieldLen characters.
func clip(rec models.Record) models.Record {
	rec.Title = truncate(rec.Title, maxFieldLen)
	rec.Type = truncate(rec.Type, maxFieldLen)
	rec.ContactName = truncate(rec.ContactName, maxFieldLen)
	rec.Email = truncate(rec.Email, maxFieldLen)
	rec.Phone = truncate(rec.Phone, maxFieldLen)
	rec.Address = truncate(rec.Address, maxFieldLen)

	places := make([]models.Place, len(rec.Places))
	for i, p := range rec.Places {
		p.AgeGroup = truncate(p.AgeGroup, maxFieldLen)
		p.AvailableFrom = truncate(p.AvailableFrom, maxFieldLen)
		places[i] = p
	}
	rec.Places = places

	return rec
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// chunk joins blocks into messages no longer than limit characters.
// A block longer than limit is first split on line boundaries.
func chunk(blocks []string, limit int) []string {
	const sep = "\n\n"

	var (
		messages []string
		current  strings.Builder
	)
	for _, block := range blocks {
		for _, piece := range splitLines(block, limit) {
			if current.Len() > 0 &&
				utf8.RuneCountInString(current.String())+len(sep)+utf8.RuneCountInString(piece) > limit {
				messages = append(messages, current.String())
				current.Reset()
			}
			if current.Len() > 0 {
				current.WriteString(sep)
			}
			current.WriteString(piece)
		}
	}
	if current.Len() > 0 {
		messages = append(messages, current.String())
	}
	return messages
}

// splitLines breaks block into pieces of at most limit characters, cutting
// between lines. Rendered lines carry balanced tags, so every piece stays
// valid Telegram HTML. A line longer than limit is cut mid-line.
func splitLines(block string, limit int) []string {
	if utf8.RuneCountInString(block) <= limit {
		return []string{block}
	}

	var (
		pieces  []string
		current strings.Builder
		size    int
	)
	for _, line := range strings.Split(block, "\n") {
		for _, part := range cutRunes(line, limit) {
			n := utf8.RuneCountInString(part)
			if size > 0 && size+1+n > limit {
				pieces = append(pieces, current.String())
				current.Reset()
				size = 0
			}
			if size > 0 {
				current.WriteByte('\n')
				size++
			}
			current.WriteString(part)
			size += n
		}
	}
	if size > 0 {
		pieces = append(pieces, current.String())
	}
	return pieces
}

func cutRunes(s string, limit int) []string {
	r := []rune(s)
	var parts []string
	for len(r) > limit {
		parts = append(parts, string(r[:limit]))
		r = r[limit:]
	}
	return append(parts, string(r))
}
