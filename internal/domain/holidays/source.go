package holidays

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Source produces the published holidays for a year.
type Source interface {
	Fetch(ctx context.Context, year int) ([]Holiday, error)
}

// HTTPSource reads the Nager.Date public holiday API.
type HTTPSource struct {
	BaseURL string
	Country string
	Client  *http.Client
}

func NewHTTPSource(baseURL, country string, timeout time.Duration) *HTTPSource {
	return &HTTPSource{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Country: strings.ToUpper(country),
		Client:  &http.Client{Timeout: timeout},
	}
}

func (s *HTTPSource) Fetch(ctx context.Context, year int) ([]Holiday, error) {
	if !ValidYear(year) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidYear, year)
	}
	endpoint := fmt.Sprintf("%s/api/v3/PublicHolidays/%d/%s", s.BaseURL, year, url.PathEscape(s.Country))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNoContent:
		return []Holiday{}, nil
	case resp.StatusCode != http.StatusOK:
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%w: %s returned %d", ErrUpstream, endpoint, resp.StatusCode)
	}

	var items []Holiday
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrUpstream, err)
	}
	return items, nil
}

// StaticSource serves fixed holidays. Years without an entry have none.
type StaticSource map[int][]Holiday

func (s StaticSource) Fetch(_ context.Context, year int) ([]Holiday, error) {
	if !ValidYear(year) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidYear, year)
	}
	return append([]Holiday{}, s[year]...), nil
}

// NewStaticSource groups a flat list of holidays by year.
func NewStaticSource(items []Holiday) StaticSource {
	out := StaticSource{}
	for _, h := range items {
		out[h.Date.Year] = append(out[h.Date.Year], h)
	}
	return out
}

// StoreSource reads holidays from Postgres and falls back to Remote for
// years it has never saved, writing the result back.
type StoreSource struct {
	Store  StoreAPI
	Remote Source
	Logger *slog.Logger
}

func (s *StoreSource) Fetch(ctx context.Context, year int) ([]Holiday, error) {
	if !ValidYear(year) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidYear, year)
	}
	items, found, err := s.Store.ListByYear(ctx, year)
	if err != nil {
		s.logger().WarnContext(ctx, "holiday store read failed", "year", year, "error", err)
	} else if found {
		return items, nil
	}

	items, err = s.Remote.Fetch(ctx, year)
	if err != nil {
		return nil, err
	}
	if saveErr := s.Store.SaveYear(ctx, year, items); saveErr != nil {
		s.logger().WarnContext(ctx, "holiday store write failed", "year", year, "error", saveErr)
	}
	return items, nil
}

func (s *StoreSource) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}
