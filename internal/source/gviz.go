package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"bookclub_bot/internal/model"
)

const gvizURLFormat = "https://docs.google.com/spreadsheets/d/%s/gviz/tq?tqx=out:json"

// GViz reads a Google Sheet through the visualization query endpoint.
// Columns 0 to 3 hold title, author, status and link.
type GViz struct {
	get getter
	url string
}

// newGViz returns a GViz source. A non-empty url overrides the sheet id.
func newGViz(g getter, sheetID, url string) *GViz {
	if url == "" {
		url = fmt.Sprintf(gvizURLFormat, sheetID)
	}
	return &GViz{get: g, url: url}
}

type gvizResponse struct {
	Status string `json:"status"`
	Errors []struct {
		Message         string `json:"message"`
		DetailedMessage string `json:"detailed_message"`
	} `json:"errors"`
	Table struct {
		Rows []struct {
			C []*struct {
				V any `json:"v"`
			} `json:"c"`
		} `json:"rows"`
	} `json:"table"`
}

// Rows fetches and decodes the sheet.
func (s *GViz) Rows(ctx context.Context) ([]model.RawRow, error) {
	body, err := s.get.get(ctx, s.url)
	if err != nil {
		return nil, err
	}
	return ParseGViz(body)
}

// ParseGViz decodes a gviz response. The JSON payload is wrapped in a
// JavaScript callback which is stripped first.
func ParseGViz(body []byte) ([]model.RawRow, error) {
	start := bytes.IndexByte(body, '{')
	end := bytes.LastIndexByte(body, '}')
	if start < 0 || end < start {
		return nil, fmt.Errorf("parse gviz: no json payload")
	}

	var resp gvizResponse
	if err := json.Unmarshal(body[start:end+1], &resp); err != nil {
		return nil, fmt.Errorf("parse gviz: %w", err)
	}
	if resp.Status == "error" {
		msg := "query failed"
		if len(resp.Errors) > 0 {
			msg = resp.Errors[0].Message
			if d := resp.Errors[0].DetailedMessage; d != "" {
				msg += ": " + d
			}
		}
		return nil, fmt.Errorf("gviz error: %s", msg)
	}

	rows := make([]model.RawRow, 0, len(resp.Table.Rows))
	for _, r := range resp.Table.Rows {
		cell := func(i int) string {
			if i >= len(r.C) || r.C[i] == nil {
				return ""
			}
			return cellText(r.C[i].V)
		}
		row := model.RawRow{
			Title:  cell(0),
			Author: cell(1),
			Status: cell(2),
			Link:   cell(3),
		}
		if strings.TrimSpace(row.Status) == "" {
			row.Status = model.AvailableMarker
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func cellText(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprint(v)
	}
}
