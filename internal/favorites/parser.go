package favorites

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/samvad-hq/randfav/internal/domain"
	"github.com/samvad-hq/randfav/pkg/sources"
)

// PageSummary is what discovery needs to know about one listing page.
type PageSummary struct {
	ItemCount int
	HasNext   bool
	// NextURL is the absolute target of the next-page link, if it has one.
	NextURL string
}

// Summarizer reports the item count and next-page marker of a raw page.
type Summarizer interface {
	Summarize(raw []byte) (PageSummary, error)
}

// Extractor returns the ordered items of a raw page.
type Extractor interface {
	Extract(raw []byte) ([]domain.Item, error)
}

// Parser is both a Summarizer and an Extractor.
type Parser interface {
	Summarizer
	Extractor
}

// HTMLParser reads listing pages using the selectors of a source.
type HTMLParser struct {
	src sources.Source
}

// NewHTMLParser builds a goquery-backed parser for src.
func NewHTMLParser(src sources.Source) *HTMLParser {
	return &HTMLParser{src: src}
}

// Summarize counts item rows and checks for a "more" link.
func (p *HTMLParser) Summarize(raw []byte) (PageSummary, error) {
	doc, err := parseDocument(raw)
	if err != nil {
		return PageSummary{}, err
	}
	more := doc.Find(p.src.MoreSelector).First()
	return PageSummary{
		ItemCount: doc.Find(p.src.RowSelector).Length(),
		HasNext:   more.Length() > 0,
		NextURL:   p.src.ResolveURL(more.AttrOr("href", "")),
	}, nil
}

// Extract returns one item per row that carries a link. Rows without a link
// are skipped, so the result can be shorter than the summarized count.
func (p *HTMLParser) Extract(raw []byte) ([]domain.Item, error) {
	doc, err := parseDocument(raw)
	if err != nil {
		return nil, err
	}

	rows := doc.Find(p.src.RowSelector)
	items := make([]domain.Item, 0, rows.Length())
	rows.Each(func(_ int, row *goquery.Selection) {
		id := strings.TrimSpace(row.AttrOr("id", ""))
		href, ok := row.Find(p.src.LinkSelector).First().Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			return
		}

		item := domain.Item{
			ID:         id,
			ArticleURL: p.src.ResolveURL(href),
		}
		if id != "" {
			item.CommentsURL = p.src.ItemURL(id)
		} else {
			item.CommentsURL = item.ArticleURL
		}
		items = append(items, item)
	})
	return items, nil
}

func parseDocument(raw []byte) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return doc, nil
}
