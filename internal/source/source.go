// Package source loads raw book rows from the club's reading list.
package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"bookclub_bot/internal/model"
)

// Kinds accepted by New.
const (
	KindGViz      = "gviz"
	KindCSV       = "csv"
	KindHTML      = "html"
	KindGoodreads = "goodreads"
	KindYAML      = "yaml"
)

const maxBodySize = 5 * 1024 * 1024

// HTTPClient is the interface for performing HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Source produces the raw rows of the reading list.
type Source interface {
	Rows(ctx context.Context) ([]model.RawRow, error)
}

// Options selects and locates a source.
type Options struct {
	Kind    string
	SheetID string
	URL     string
	Path    string
}

// New builds the source named by opts.Kind.
func New(opts Options, client HTTPClient) (Source, error) {
	if client == nil {
		client = http.DefaultClient
	}
	g := getter{client: client, timeout: 30 * time.Second}

	switch strings.ToLower(strings.TrimSpace(opts.Kind)) {
	case KindGViz, "":
		if opts.SheetID == "" && opts.URL == "" {
			return nil, fmt.Errorf("gviz source needs a sheet id or url")
		}
		return newGViz(g, opts.SheetID, opts.URL), nil
	case KindCSV:
		if opts.URL == "" {
			return nil, fmt.Errorf("csv source needs a url")
		}
		return &CSV{get: g, url: opts.URL}, nil
	case KindHTML:
		if opts.URL == "" {
			return nil, fmt.Errorf("html source needs a url")
		}
		return &HTMLTable{get: g, url: opts.URL}, nil
	case KindGoodreads:
		if opts.URL == "" {
			return nil, fmt.Errorf("goodreads source needs a url")
		}
		return &Goodreads{get: g, url: opts.URL}, nil
	case KindYAML:
		if opts.Path == "" {
			return nil, fmt.Errorf("yaml source needs a path")
		}
		return &YAMLFile{path: opts.Path}, nil
	default:
		return nil, fmt.Errorf("unknown source kind %q", opts.Kind)
	}
}

type getter struct {
	client  HTTPClient
	timeout time.Duration
}

// get downloads url and returns at most maxBodySize bytes of the body.
func (g getter) get(ctx context.Context, url string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "BookClubBot/1.0")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http get: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}
