package mojelektro

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/matija2209/home-energy-dashboard/internal/config"
	"github.com/sony/gobreaker"
)

// Base URLs per environment
const (
	productionURL = "https://api.informatika.si/mojelektro/v1"
	testURL       = "https://api-test.informatika.si/mojelektro/v1"
)

// GetMeterReadingsParams are the query parameters of GET /meter-readings.
// StartTime and EndTime are calendar-date strings (YYYY-MM-DD) forming a
// half-open day window. Options carries ReadingType=<code> filters.
type GetMeterReadingsParams struct {
	UsagePoint string
	StartTime  string
	EndTime    string
	Options    []string
}

// Client is a Moj Elektro API client. Outbound calls run through a circuit
// breaker so a misbehaving remote trips fast instead of tying up a backfill.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
}

// NewClient creates a Moj Elektro client for the configured environment
func NewClient(cfg config.MojElektroConfig) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("mojelektro: API key is required")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		switch cfg.Environment {
		case config.EnvTest:
			baseURL = testURL
		default:
			baseURL = productionURL
		}
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "mojelektro",
		Timeout: 60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	return &Client{
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		breaker:    breaker,
	}, nil
}

// GetMeterReadings fetches 15-minute interval readings for a usage point
// and time window. Corresponds to GET /meter-readings.
func (c *Client) GetMeterReadings(ctx context.Context, params GetMeterReadingsParams) (*MeterReadings, error) {
	query := url.Values{}
	query.Set("usagePoint", params.UsagePoint)
	query.Set("startTime", params.StartTime)
	query.Set("endTime", params.EndTime)
	for _, opt := range params.Options {
		query.Add("option", opt)
	}

	var readings MeterReadings
	if err := c.getJSON(ctx, "/meter-readings", query, &readings); err != nil {
		return nil, err
	}
	return &readings, nil
}

// GetReadingTypes fetches the list of reading-type codes the API can serve.
// Corresponds to GET /reading-type.
func (c *Client) GetReadingTypes(ctx context.Context) (*ReadingTypes, error) {
	var types ReadingTypes
	if err := c.getJSON(ctx, "/reading-type", nil, &types); err != nil {
		return nil, err
	}
	return &types, nil
}

// GetMeteringPoint fetches contractual data for a metering point.
// Corresponds to GET /merilna-tocka/{gsrn}.
func (c *Client) GetMeteringPoint(ctx context.Context, gsrn string) (*MeteringPointInfo, error) {
	var info MeteringPointInfo
	if err := c.getJSON(ctx, "/merilna-tocka/"+url.PathEscape(gsrn), nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out interface{}) error {
	body, err := c.breaker.Execute(func() (interface{}, error) {
		return c.doGet(ctx, path, query)
	})
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body.([]byte), out); err != nil {
		return fmt.Errorf("mojelektro: failed to decode %s response: %w", path, err)
	}
	return nil
}

func (c *Client) doGet(ctx context.Context, path string, query url.Values) ([]byte, error) {
	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("mojelektro: failed to build request: %w", err)
	}
	req.Header.Set("X-API-TOKEN", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("mojelektro: request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("mojelektro: failed to read %s response: %w", path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Surface the API's own error description when the payload carries one
		var apiErr apiError
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Koda != "" {
			return nil, fmt.Errorf("mojelektro: API error (%s): %s", apiErr.Koda, apiErr.Opis)
		}
		return nil, fmt.Errorf("mojelektro: %s returned status %d", path, resp.StatusCode)
	}

	return body, nil
}
