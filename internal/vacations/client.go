package vacations

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/munitorum/internal/textnorm"
)

// APIClient reads the French school calendar from data.education.gouv.fr.
type APIClient struct {
	httpClient *http.Client
	BaseURL    string
	Population string
	Timezone   string
	PageSize   int
}

// NewClient creates a calendar client. An empty baseURL selects DefaultBaseURL.
func NewClient(baseURL, timezone string) *APIClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &APIClient{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		BaseURL:    baseURL,
		Population: DefaultPopulation,
		Timezone:   timezone,
		PageSize:   defaultPageSize,
	}
}

var _ CalendarClient = (*APIClient)(nil)

// FetchRecords pages through the dataset until a short page is returned, then
// keeps only the records whose location and population match exactly, ignoring
// case and accents. The server side refine is not trusted on its own.
func (c *APIClient) FetchRecords(ctx context.Context, region string) ([]Record, error) {
	var (
		all      []Record
		offset   = 0
		pageSize = c.PageSize
	)
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	for {
		page, err := c.fetchPage(ctx, region, offset, pageSize)
		if err != nil {
			return nil, err
		}
		log.Debug("Fetched calendar page", "region", region, "offset", offset, "count", len(page))
		all = append(all, page...)

		if len(page) < pageSize {
			break
		}
		offset += pageSize
	}

	wantRegion := textnorm.Fold(region)
	wantPopulation := textnorm.Fold(c.Population)
	filtered := make([]Record, 0, len(all))
	for _, r := range all {
		if textnorm.Fold(r.Location) == wantRegion && textnorm.Fold(r.Population) == wantPopulation {
			filtered = append(filtered, r)
		}
	}
	log.Info("Fetched vacation calendar", "region", region, "fetched", len(all), "kept", len(filtered))
	return filtered, nil
}

func (c *APIClient) fetchPage(ctx context.Context, region string, offset, limit int) ([]Record, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))
	q.Add("refine", "location:"+region)
	q.Add("refine", "population:"+c.Population)
	if c.Timezone != "" {
		q.Set("timezone", c.Timezone)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		log.Error("Received non-OK HTTP status from calendar API", "status", resp.StatusCode, "body", string(body))
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	var page recordsPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return page.Results, nil
}
