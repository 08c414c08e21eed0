package parser

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/Houeta/garderie-watch/internal/models"
	"github.com/PuerkitoBio/goquery"
)

// ErrParse wraps every failure caused by unexpected page markup.
var ErrParse = errors.New("parse error")

// hasMoreText is the label of the "next page" link on index pages.
const hasMoreText = "Suiv.>>"

const cellsPerPlace = 4

var (
	numberRe = regexp.MustCompile(`\d+`)
	priceRe  = regexp.MustCompile(`\d+\.?\d*`)
	// sm_wrap(n, 'key', 'scrambled'); n is a bare value or a quoted string and is not used.
	smWrapRe = regexp.MustCompile(`sm_wrap\(\s*(?:'(?:[^'\\]|\\.)*'|[^,']*?)\s*,\s*'((?:[^'\\]|\\.)*)'\s*,\s*'((?:[^'\\]|\\.)*)'\s*\)`)

	lastUpdateLayouts = []string{
		"2006-01-02",
		"2006-01-02 15:04:05",
		"2006-01-02 15:04",
		"02/01/2006",
		"2006/01/02",
	}
)

// ListingParser turns raw listing pages into structured data.
type ListingParser interface {
	ParseIndex(ctx context.Context, inp io.Reader) (models.IndexPage, error)
	ParseDetail(ctx context.Context, inp io.Reader) (models.Detail, error)
}

type Parser struct {
	log *slog.Logger
}

func NewParser(log *slog.Logger) *Parser {
	return &Parser{log: log}
}

// ParseIndex extracts the summaries of an index page and whether another page follows.
func (p *Parser) ParseIndex(ctx context.Context, inp io.Reader) (models.IndexPage, error) {
	doc, err := goquery.NewDocumentFromReader(inp)
	if err != nil {
		return models.IndexPage{}, fmt.Errorf("%w: data cannot be parsed as HTML: %w", ErrParse, err)
	}

	var (
		page     models.IndexPage
		rowError error
	)
	page.HasMore = strings.TrimSpace(doc.Find("td.Text span").Last().Text()) == hasMoreText

	doc.Find(".TextResult").Parent().EachWithBreak(func(idx int, row *goquery.Selection) bool {
		summary, err := parseSummary(row)
		if err != nil {
			rowError = fmt.Errorf("%w: result row %d: %w", ErrParse, idx, err)
			return false
		}
		p.log.DebugContext(ctx, "Parsed summary", "id", summary.ID, "title", summary.Title, "distance", summary.Distance)
		page.Summaries = append(page.Summaries, summary)
		return true
	})
	if rowError != nil {
		return models.IndexPage{}, rowError
	}

	return page, nil
}

func parseSummary(row *goquery.Selection) (models.Summary, error) {
	link := row.Find(".TextResult a.LinkResult").First()
	href, ok := link.Attr("href")
	if !ok || href == "" {
		return models.Summary{}, errors.New("result link has no href")
	}

	// Links look like /garderie/1234-name.html; the numeric prefix is the identifier.
	idPart, _, _ := strings.Cut(path.Base(href), "-")
	id, err := strconv.ParseInt(idPart, 10, 64)
	if err != nil {
		return models.Summary{}, fmt.Errorf("invalid identifier in link %q: %w", href, err)
	}

	distance, err := parseDistance(row.Children().Last().Text())
	if err != nil {
		return models.Summary{}, err
	}

	return models.Summary{
		ID:       id,
		Href:     href,
		Title:    strings.TrimSpace(link.Text()),
		Distance: distance,
	}, nil
}

func parseDistance(text string) (float64, error) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return 0, errors.New("missing distance")
	}
	distance, err := strconv.ParseFloat(strings.ReplaceAll(fields[0], ",", "."), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid distance %q: %w", text, err)
	}
	return distance, nil
}

// ParseDetail extracts contact, places and last update from a detail page.
func (p *Parser) ParseDetail(ctx context.Context, inp io.Reader) (models.Detail, error) {
	doc, err := goquery.NewDocumentFromReader(inp)
	if err != nil {
		return models.Detail{}, fmt.Errorf("%w: data cannot be parsed as HTML: %w", ErrParse, err)
	}

	titleTables := doc.Find("h1").First().Closest("table").Closest("tr").Find("table")
	if titleTables.Length() < 2 {
		return models.Detail{}, fmt.Errorf("%w: expected title and contact tables, found %d", ErrParse, titleTables.Length())
	}

	contactNode := titleTables.Eq(1).Find("td").First()
	addressNameNode := contactNode.Children().Eq(0)

	var addressLines []string
	addressNameNode.Find(".Text").Each(func(_ int, s *goquery.Selection) {
		addressLines = append(addressLines, s.Text())
	})

	onclick, _ := contactNode.Children().Eq(1).Find("a").Attr("onclick")
	email, err := decodeEmail(onclick)
	if err != nil {
		return models.Detail{}, fmt.Errorf("%w: %w", ErrParse, err)
	}

	var phone string
	if _, after, found := strings.Cut(contactNode.Children().Eq(2).Find(".Text").Text(), ":"); found {
		phone = strings.TrimSpace(after)
	}

	headers := doc.Find("h3.HeaderBlue")
	places, err := parsePlaces(headers.Eq(0).Closest("table").Parent().Find(".Text").Slice(cellsPerPlace, goquery.ToEnd))
	if err != nil {
		return models.Detail{}, fmt.Errorf("%w: %w", ErrParse, err)
	}

	rawUpdate := strings.TrimSpace(headers.Eq(1).Closest("table").Parent().Find("b").Text())
	lastUpdate, err := parseLastUpdate(rawUpdate)
	if err != nil {
		return models.Detail{}, fmt.Errorf("%w: %w", ErrParse, err)
	}

	detail := models.Detail{
		Type:        strings.TrimSpace(titleTables.Eq(0).Find(".TextBoldGreenSmall").Text()),
		ContactName: strings.TrimSpace(addressNameNode.Find(".Contact").Text()),
		Email:       email,
		Phone:       phone,
		Address:     strings.Join(addressLines, "\n"),
		LastUpdate:  lastUpdate,
		Places:      places,
	}
	p.log.DebugContext(ctx, "Parsed detail", "type", detail.Type, "places", len(detail.Places), "last_update", rawUpdate)

	return detail, nil
}

func parsePlaces(cells *goquery.Selection) ([]models.Place, error) {
	if cells.Length()%cellsPerPlace != 0 {
		return nil, fmt.Errorf("places table has %d cells, not a multiple of %d", cells.Length(), cellsPerPlace)
	}

	var places []models.Place
	for i := 0; i < cells.Length(); i += cellsPerPlace {
		countText := strings.TrimSpace(cells.Eq(i).Text())
		count, err := strconv.Atoi(numberRe.FindString(countText))
		if err != nil {
			return nil, fmt.Errorf("invalid place count %q: %w", countText, err)
		}

		priceText := strings.ReplaceAll(strings.TrimSpace(cells.Eq(i+3).Text()), ",", ".")
		price, err := strconv.ParseFloat(priceRe.FindString(priceText), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid place price %q: %w", priceText, err)
		}

		places = append(places, models.Place{
			Count:         count,
			AgeGroup:      strings.TrimSpace(cells.Eq(i + 1).Text()),
			AvailableFrom: strings.TrimSpace(cells.Eq(i + 2).Text()),
			PricePerUnit:  price,
		})
	}
	return places, nil
}

// parseLastUpdate returns the zero time for an empty value.
func parseLastUpdate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	for _, layout := range lastUpdateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised last update date %q", raw)
}

// decodeEmail reverses the sm_wrap(n, key, scrambled) obfuscation: every
// character of scrambled is XOR-ed with the character of key at the same
// position. Positions past the end of key are kept as they are.
// An empty onclick means the listing shows no e-mail.
func decodeEmail(onclick string) (string, error) {
	if onclick == "" {
		return "", nil
	}
	m := smWrapRe.FindStringSubmatch(onclick)
	if m == nil {
		return "", fmt.Errorf("e-mail link has no sm_wrap call: %q", onclick)
	}

	key, err := unquoteJS(m[1])
	if err != nil {
		return "", fmt.Errorf("invalid e-mail key: %w", err)
	}
	scrambled, err := unquoteJS(m[2])
	if err != nil {
		return "", fmt.Errorf("invalid scrambled e-mail: %w", err)
	}

	keyRunes := []rune(key)
	out := []rune(scrambled)
	for i := range out {
		if i < len(keyRunes) {
			out[i] ^= keyRunes[i]
		}
	}
	return strings.TrimPrefix(string(out), "mailto:"), nil
}

// unquoteJS decodes the body of a single-quoted JavaScript string literal.
func unquoteJS(body string) (string, error) {
	body = strings.ReplaceAll(body, `\'`, `'`)
	body = strings.ReplaceAll(body, `"`, `\"`)
	return strconv.Unquote(`"` + body + `"`)
}
