package source

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"slices"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"bookclub_bot/internal/model"
)

// CSV reads a sheet exported as CSV.
type CSV struct {
	get getter
	url string
}

// Rows fetches and decodes the CSV export.
func (s *CSV) Rows(ctx context.Context) ([]model.RawRow, error) {
	body, err := s.get.get(ctx, s.url)
	if err != nil {
		return nil, err
	}
	return ParseCSV(body)
}

// ParseCSV decodes CSV data into rows.
func ParseCSV(data []byte) ([]model.RawRow, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	return tableRows(records), nil
}

// HTMLTable reads the first table of a published sheet page.
type HTMLTable struct {
	get getter
	url string
}

// Rows fetches the page and extracts its first table.
func (s *HTMLTable) Rows(ctx context.Context) ([]model.RawRow, error) {
	body, err := s.get.get(ctx, s.url)
	if err != nil {
		return nil, err
	}
	return ParseHTMLTable(body)
}

// ParseHTMLTable extracts rows from the first <table> of an HTML page.
func ParseHTMLTable(data []byte) ([]model.RawRow, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	table := doc.Find("table").First()
	if table.Length() == 0 {
		return nil, fmt.Errorf("parse document: no table found")
	}

	var records [][]string
	table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		var cells []string
		tr.Find("td").Each(func(_ int, td *goquery.Selection) {
			cells = append(cells, strings.TrimSpace(td.Text()))
		})
		records = append(records, cells)
	})
	return tableRows(records), nil
}

// tableRows maps cell records to rows. Blank records are dropped. When the
// first remaining record has a "title" cell it is a header and columns are
// matched by name, otherwise columns are title, author, status and link in
// that order.
func tableRows(records [][]string) []model.RawRow {
	records = slices.DeleteFunc(records, blank)
	cols := map[string]int{"title": 0, "author": 1, "status": 2, "link": 3}
	if len(records) > 0 {
		if header, ok := headerColumns(records[0]); ok {
			cols = header
			records = records[1:]
		}
	}

	rows := make([]model.RawRow, 0, len(records))
	for _, rec := range records {
		cell := func(name string) string {
			i, ok := cols[name]
			if !ok || i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}
		rows = append(rows, model.RawRow{
			Title:  cell("title"),
			Author: cell("author"),
			Status: cell("status"),
			Link:   cell("link"),
		})
	}
	return rows
}

func headerColumns(rec []string) (map[string]int, bool) {
	cols := make(map[string]int, 4)
	for i, cell := range rec {
		name := strings.ToLower(strings.TrimSpace(cell))
		switch name {
		case "url":
			name = "link"
		case "book", "book title":
			name = "title"
		}
		if _, seen := cols[name]; !seen {
			cols[name] = i
		}
	}
	_, ok := cols["title"]
	return cols, ok
}

func blank(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
