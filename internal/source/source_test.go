package source

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"bookclub_bot/internal/model"
)

type mockTransport struct {
	body       string
	statusCode int
	err        error
	lastURL    string
	userAgent  string
}

func (m *mockTransport) Do(req *http.Request) (*http.Response, error) {
	m.lastURL = req.URL.String()
	m.userAgent = req.Header.Get("User-Agent")
	if m.err != nil {
		return nil, m.err
	}
	return &http.Response{
		StatusCode: m.statusCode,
		Body:       io.NopCloser(bytes.NewBufferString(m.body)),
	}, nil
}

func loadFixture(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("..", "..", "testdata", name)) //nolint:gosec // test-only fixture loading
	if err != nil {
		t.Fatalf("read fixture %s: %v", name, err)
	}
	return string(data)
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		want    string
		wantErr bool
	}{
		{name: "default kind is gviz", opts: Options{SheetID: "abc"}, want: "*source.GViz"},
		{name: "gviz", opts: Options{Kind: "GViz", SheetID: "abc"}, want: "*source.GViz"},
		{name: "csv", opts: Options{Kind: "csv", URL: "https://example.com/x.csv"}, want: "*source.CSV"},
		{name: "html", opts: Options{Kind: "html", URL: "https://example.com/pub"}, want: "*source.HTMLTable"},
		{name: "goodreads", opts: Options{Kind: "goodreads", URL: "https://example.com/rss"}, want: "*source.Goodreads"},
		{name: "yaml", opts: Options{Kind: "yaml", Path: "books.yaml"}, want: "*source.YAMLFile"},
		{name: "gviz without sheet", opts: Options{Kind: "gviz"}, wantErr: true},
		{name: "csv without url", opts: Options{Kind: "csv"}, wantErr: true},
		{name: "yaml without path", opts: Options{Kind: "yaml"}, wantErr: true},
		{name: "unknown kind", opts: Options{Kind: "notion", URL: "x"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, err := New(tt.opts, &mockTransport{})
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := typeName(src); got != tt.want {
				t.Errorf("type = %s, want %s", got, tt.want)
			}
		})
	}
}

func typeName(src Source) string {
	switch src.(type) {
	case *GViz:
		return "*source.GViz"
	case *CSV:
		return "*source.CSV"
	case *HTMLTable:
		return "*source.HTMLTable"
	case *Goodreads:
		return "*source.Goodreads"
	case *YAMLFile:
		return "*source.YAMLFile"
	}
	return "unknown"
}

func TestGVizRows(t *testing.T) {
	tr := &mockTransport{body: loadFixture(t, "gviz.txt"), statusCode: 200}
	src, err := New(Options{Kind: KindGViz, SheetID: "sheet123"}, tr)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	rows, err := src.Rows(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []model.RawRow{
		{Title: "Dune", Author: "Frank Herbert", Status: "Future Option", Link: "https://example.com/dune"},
		{Title: "Hyperion", Author: "Dan Simmons", Status: "currently reading"},
		{Title: "Emma", Author: "Jane Austen", Status: model.AvailableMarker},
		{Title: "1984", Author: "George Orwell", Status: "finished"},
		{Status: model.AvailableMarker},
	}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff("https://docs.google.com/spreadsheets/d/sheet123/gviz/tq?tqx=out:json", tr.lastURL); diff != "" {
		t.Errorf("url mismatch (-want +got):\n%s", diff)
	}
	if tr.userAgent == "" {
		t.Error("User-Agent header not set")
	}
}

func TestGVizErrors(t *testing.T) {
	tests := []struct {
		name      string
		transport *mockTransport
		wantSub   string
	}{
		{
			name:      "query error",
			transport: &mockTransport{body: loadFixture(t, "gviz_error.txt"), statusCode: 200},
			wantSub:   "Access denied: Sheet is not shared",
		},
		{
			name:      "http error status",
			transport: &mockTransport{body: "not found", statusCode: 404},
			wantSub:   "unexpected status 404",
		},
		{
			name:      "network error",
			transport: &mockTransport{err: io.ErrUnexpectedEOF},
			wantSub:   "http get",
		},
		{
			name:      "no payload",
			transport: &mockTransport{body: "<html>sign in</html>", statusCode: 200},
			wantSub:   "no json payload",
		},
		{
			name:      "broken json",
			transport: &mockTransport{body: "setResponse({\"table\": [}});", statusCode: 200},
			wantSub:   "parse gviz",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, err := New(Options{SheetID: "x"}, tt.transport)
			if err != nil {
				t.Fatalf("new: %v", err)
			}
			_, err = src.Rows(context.Background())
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantSub) {
				t.Errorf("error %q does not contain %q", err, tt.wantSub)
			}
		})
	}
}

func TestCSVRows(t *testing.T) {
	src, err := New(Options{Kind: KindCSV, URL: "https://example.com/export.csv"},
		&mockTransport{body: loadFixture(t, "books.csv"), statusCode: 200})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	rows, err := src.Rows(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []model.RawRow{
		{Title: "Dune", Author: "Frank Herbert", Status: "future option", Link: "https://example.com/dune"},
		{Title: "Hyperion", Author: "Dan Simmons", Status: "currently reading"},
		{Title: "Gödel, Escher, Bach", Author: "Douglas Hofstadter", Status: "finished"},
	}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestParseCSVPositional(t *testing.T) {
	rows, err := ParseCSV([]byte("Dune,Frank Herbert\nEmma,Jane Austen,finished,https://example.com/emma\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []model.RawRow{
		{Title: "Dune", Author: "Frank Herbert"},
		{Title: "Emma", Author: "Jane Austen", Status: "finished", Link: "https://example.com/emma"},
	}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestHTMLTableRows(t *testing.T) {
	src, err := New(Options{Kind: KindHTML, URL: "https://example.com/pubhtml"},
		&mockTransport{body: loadFixture(t, "sheet.html"), statusCode: 200})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	rows, err := src.Rows(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []model.RawRow{
		{Title: "Dune", Author: "Frank Herbert", Status: "future option", Link: "https://example.com/dune"},
		{Title: "Hyperion", Author: "Dan Simmons", Status: "currently reading"},
		{Title: "Emma", Author: "Jane Austen"},
	}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestParseHTMLTableNoTable(t *testing.T) {
	if _, err := ParseHTMLTable([]byte("<html><body><p>nothing</p></body></html>")); err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestGoodreadsRows(t *testing.T) {
	src, err := New(Options{Kind: KindGoodreads, URL: "https://www.goodreads.com/review/list_rss/1"},
		&mockTransport{body: loadFixture(t, "goodreads.xml"), statusCode: 200})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	rows, err := src.Rows(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []model.RawRow{
		{Title: "Dune", Author: "Frank Herbert", Status: model.AvailableMarker, Link: "https://www.goodreads.com/review/show/1"},
		{Title: "Hyperion", Author: "Dan Simmons", Status: "currently reading", Link: "https://www.goodreads.com/review/show/2"},
		{Title: "Emma", Author: "Jane Austen", Status: "finished", Link: "https://www.goodreads.com/review/show/3"},
	}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestGoodreadsInvalidFeed(t *testing.T) {
	src, err := New(Options{Kind: KindGoodreads, URL: "https://example.com/rss"},
		&mockTransport{body: "not xml at all", statusCode: 200})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, err := src.Rows(context.Background()); err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestShelfStatus(t *testing.T) {
	tests := []struct {
		shelves string
		readAt  string
		want    string
	}{
		{shelves: "to-read", want: model.AvailableMarker},
		{shelves: "favourites,currently-reading", want: "currently reading"},
		{shelves: "read", want: "finished"},
		{readAt: "Sat, 02 Nov 2024 00:00:00 -0700", want: "finished"},
		{want: model.AvailableMarker},
	}

	for _, tt := range tests {
		if got := shelfStatus(tt.shelves, tt.readAt); got != tt.want {
			t.Errorf("shelfStatus(%q, %q) = %q, want %q", tt.shelves, tt.readAt, got, tt.want)
		}
	}
}

func TestYAMLFileRows(t *testing.T) {
	src, err := New(Options{Kind: KindYAML, Path: filepath.Join("..", "..", "testdata", "books.yaml")}, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	rows, err := src.Rows(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []model.RawRow{
		{Title: "Dune", Author: "Frank Herbert", Status: "future option", Link: "https://example.com/dune"},
		{Title: "Hyperion", Author: "Dan Simmons", Status: "currently reading"},
		{Title: "Emma", Author: "Jane Austen"},
	}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestYAMLFileMissing(t *testing.T) {
	src, err := New(Options{Kind: KindYAML, Path: filepath.Join(t.TempDir(), "none.yaml")}, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, err := src.Rows(context.Background()); err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestParseYAMLEmpty(t *testing.T) {
	rows, err := ParseYAML(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff([]model.RawRow{}, rows); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
}
