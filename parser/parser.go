// Package parser turns tariff schedule pages into flat records.
package parser

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/aluiziolira/go-scrape-tariffs/models"
	"golang.org/x/net/html"
)

// DescriptionSeparator joins list items found in a description cell.
const DescriptionSeparator = "; "

// ValidateRecord ensures the extractor captured the required fields.
func ValidateRecord(r *models.Record) error {
	if r == nil {
		return fmt.Errorf("record is nil")
	}
	if strings.TrimSpace(r.TariffItem) == "" {
		return fmt.Errorf("record missing tariff item")
	}
	if strings.TrimSpace(r.HSHeading) == "" {
		return fmt.Errorf("record missing HS heading for %s", r.TariffItem)
	}
	return nil
}

// NormalizeText trims the text and collapses internal whitespace runs.
func NormalizeText(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// CellText returns the text nodes of a selection, each trimmed, joined by a
// single space and normalized. Text split by <br> or sibling elements stays
// word-separated.
func CellText(s *goquery.Selection) string {
	var parts []string
	for _, n := range s.Nodes {
		parts = appendText(parts, n)
	}
	return NormalizeText(strings.Join(parts, " "))
}

func appendText(parts []string, n *html.Node) []string {
	if n.Type == html.TextNode {
		if text := strings.TrimSpace(n.Data); text != "" {
			parts = append(parts, text)
		}
		return parts
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		parts = appendText(parts, c)
	}
	return parts
}

// Description renders a cell that may hold either a sentence or a bulleted
// list of sub-items.
func Description(cell *goquery.Selection) string {
	items := cell.Find("li")
	if items.Length() == 0 {
		return CellText(cell)
	}
	parts := make([]string, 0, items.Length())
	items.Each(func(_ int, li *goquery.Selection) {
		parts = append(parts, CellText(li))
	})
	return strings.Join(parts, DescriptionSeparator)
}
