package polygon

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"time"

	"github.com/newthinker/vcpscan/internal/core"
	"go.uber.org/zap"
)

const defaultBaseURL = "https://api.polygon.io"

// validSymbol matches equity and index symbols like AAPL, BRK.B, SPY
var validSymbol = regexp.MustCompile(`^[A-Za-z0-9]{1,10}(\.[A-Za-z]{1,4})?$`)

// validateSymbol checks if a symbol has valid format
func validateSymbol(symbol string) error {
	if symbol == "" {
		return fmt.Errorf("symbol cannot be empty")
	}
	if !validSymbol.MatchString(symbol) {
		return fmt.Errorf("invalid symbol format: %s", symbol)
	}
	return nil
}

// Config holds client settings.
type Config struct {
	APIKey        string
	BaseURL       string
	Timeout       time.Duration
	RetryAttempts int
	RetryBackoff  time.Duration
}

// Client is a Polygon.io market data client with bounded retry.
type Client struct {
	cfg    Config
	client *http.Client
	logger *zap.Logger
}

// New creates a new Polygon client.
func New(cfg Config, logger *zap.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.RetryAttempts < 1 {
		cfg.RetryAttempts = 3
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = 2 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

// aggsResponse is the /v2/aggs payload.
type aggsResponse struct {
	Status  string    `json:"status"`
	Results []aggsBar `json:"results"`
}

type aggsBar struct {
	Timestamp int64   `json:"t"` // epoch milliseconds
	Open      float64 `json:"o"`
	High      float64 `json:"h"`
	Low       float64 `json:"l"`
	Close     float64 `json:"c"`
	Volume    float64 `json:"v"` // the API returns fractional volumes
}

// contractsResponse is the /v3/reference/options/contracts payload.
type contractsResponse struct {
	Results []contract `json:"results"`
}

type contract struct {
	OpenInterest float64 `json:"open_interest"`
	Volume       float64 `json:"volume"`
}

// FetchHistory fetches daily bars over [now - lookbackDays, now],
// ascending by date, adjusted for splits.
func (c *Client) FetchHistory(ctx context.Context, symbol string, lookbackDays int) (*core.Series, error) {
	if err := validateSymbol(symbol); err != nil {
		return nil, core.WrapError(core.ErrProviderFailed, err)
	}

	end := time.Now()
	start := end.AddDate(0, 0, -lookbackDays)
	endpoint := fmt.Sprintf("%s/v2/aggs/ticker/%s/range/1/day/%s/%s",
		c.cfg.BaseURL, symbol, start.Format("2006-01-02"), end.Format("2006-01-02"))

	q := url.Values{}
	q.Set("adjusted", "true")
	q.Set("sort", "asc")
	q.Set("apiKey", c.cfg.APIKey)

	var payload aggsResponse
	if err := c.getJSON(ctx, endpoint+"?"+q.Encode(), &payload); err != nil {
		return nil, err
	}

	// Empty results means the service has no bars for the symbol; that
	// is "no data", not a request failure.
	if len(payload.Results) == 0 {
		return nil, core.ErrNoData
	}

	bars := make([]core.Bar, 0, len(payload.Results))
	for _, r := range payload.Results {
		bars = append(bars, core.Bar{
			Time:   time.UnixMilli(r.Timestamp),
			Open:   r.Open,
			High:   r.High,
			Low:    r.Low,
			Close:  r.Close,
			Volume: int64(r.Volume),
		})
	}

	return &core.Series{Symbol: symbol, Bars: bars}, nil
}

// FetchCallPutRatio returns the mean open-interest/volume ratio across
// the symbol's listed option contracts.
func (c *Client) FetchCallPutRatio(ctx context.Context, symbol string) (float64, error) {
	if err := validateSymbol(symbol); err != nil {
		return 0, core.WrapError(core.ErrProviderFailed, err)
	}

	q := url.Values{}
	q.Set("underlying_ticker", symbol)
	q.Set("apiKey", c.cfg.APIKey)
	endpoint := fmt.Sprintf("%s/v3/reference/options/contracts?%s", c.cfg.BaseURL, q.Encode())

	var payload contractsResponse
	if err := c.getJSON(ctx, endpoint, &payload); err != nil {
		return 0, err
	}

	var sum float64
	var n int
	for _, ct := range payload.Results {
		if ct.Volume > 0 {
			sum += ct.OpenInterest / ct.Volume
			n++
		}
	}
	if n == 0 {
		return 0, core.ErrNoData
	}
	return sum / float64(n), nil
}

// getJSON issues a GET with bounded retry and fixed backoff, decoding
// the body into out on success.
func (c *Client) getJSON(ctx context.Context, rawURL string, out any) error {
	var lastErr error

	for attempt := 1; attempt <= c.cfg.RetryAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return core.WrapError(core.ErrDataUnavailable, ctx.Err())
			case <-time.After(c.cfg.RetryBackoff):
			}
		}

		lastErr = c.doOnce(ctx, rawURL, out)
		if lastErr == nil {
			return nil
		}
		c.logger.Debug("polygon request failed",
			zap.Int("attempt", attempt),
			zap.Error(lastErr),
		)
	}

	return core.WrapError(core.ErrDataUnavailable, lastErr)
}

func (c *Client) doOnce(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("issuing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
