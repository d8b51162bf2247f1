package source

import (
	"context"
	"fmt"
	"strings"

	"github.com/mmcdole/gofeed"

	"bookclub_bot/internal/model"
)

// Goodreads reads a Goodreads shelf RSS feed.
type Goodreads struct {
	get getter
	url string
}

// Rows fetches and parses the shelf feed.
func (s *Goodreads) Rows(ctx context.Context) ([]model.RawRow, error) {
	body, err := s.get.get(ctx, s.url)
	if err != nil {
		return nil, err
	}
	feed, err := gofeed.NewParser().ParseString(string(body))
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}
	return GoodreadsRows(feed.Items), nil
}

// GoodreadsRows converts shelf feed items to rows.
func GoodreadsRows(items []*gofeed.Item) []model.RawRow {
	rows := make([]model.RawRow, 0, len(items))
	for _, item := range items {
		row := model.RawRow{
			Title: strings.TrimSpace(item.Title),
			Link:  strings.TrimSpace(item.Link),
		}
		if item.Custom != nil {
			row.Author = strings.TrimSpace(item.Custom["author_name"])
			row.Status = shelfStatus(item.Custom["user_shelves"], item.Custom["user_read_at"])
		} else {
			row.Status = model.AvailableMarker
		}
		rows = append(rows, row)
	}
	return rows
}

// shelfStatus maps Goodreads shelves to sheet status text. A book with a
// read date and no shelf is on the "read" shelf, which Goodreads omits.
func shelfStatus(shelves, readAt string) string {
	for _, shelf := range strings.Split(shelves, ",") {
		switch strings.TrimSpace(shelf) {
		case "currently-reading":
			return "currently reading"
		case "read":
			return "finished"
		case "to-read":
			return model.AvailableMarker
		}
	}
	if strings.TrimSpace(readAt) != "" {
		return "finished"
	}
	return model.AvailableMarker
}
