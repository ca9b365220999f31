package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/ThomasGit2000/trading-bot/internal/collector"
	"github.com/ThomasGit2000/trading-bot/internal/core"
)

const (
	defaultBaseURL = "https://query1.finance.yahoo.com/v8/finance/chart"
	// the chart API rejects requests without a browser-like agent
	userAgent = "Mozilla/5.0 (compatible; tradebot/1.0)"
)

// validSymbol matches stock symbols like AAPL, BRK-B, 600519.SH, 0700.HK, ^GSPC
var validSymbol = regexp.MustCompile(`^\^?[A-Za-z0-9-]{1,10}(\.[A-Za-z]{1,4})?$`)

// validateSymbol checks if a symbol has valid format
func validateSymbol(symbol string) error {
	if symbol == "" {
		return core.WrapError(core.ErrSymbolNotFound, fmt.Errorf("symbol cannot be empty"))
	}
	if len(symbol) > 20 {
		return core.WrapError(core.ErrSymbolNotFound, fmt.Errorf("symbol too long: %s", symbol))
	}
	if !validSymbol.MatchString(symbol) {
		return core.WrapError(core.ErrSymbolNotFound, fmt.Errorf("invalid symbol format: %s", symbol))
	}
	return nil
}

// Yahoo fetches daily bars from the Yahoo Finance chart API
type Yahoo struct {
	client  *http.Client
	baseURL string
}

// Option configures the client.
type Option func(*Yahoo)

// WithBaseURL points the client at another chart endpoint.
func WithBaseURL(u string) Option {
	return func(y *Yahoo) { y.baseURL = strings.TrimRight(u, "/") }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(y *Yahoo) { y.client.Timeout = d }
}

// New creates a new Yahoo provider
func New(opts ...Option) *Yahoo {
	y := &Yahoo{
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL: defaultBaseURL,
	}
	for _, opt := range opts {
		opt(y)
	}
	return y
}

func (y *Yahoo) Name() string {
	return "yahoo"
}

// toYahooSymbol converts internal symbol format to Yahoo format
func (y *Yahoo) toYahooSymbol(symbol string) string {
	// Shanghai stocks: 600519.SH -> 600519.SS
	if strings.HasSuffix(symbol, ".SH") {
		return strings.TrimSuffix(symbol, ".SH") + ".SS"
	}
	return symbol
}

// FetchHistory fetches daily OHLCV bars over period
func (y *Yahoo) FetchHistory(ctx context.Context, symbol, period string) ([]core.OHLCV, error) {
	if err := validateSymbol(symbol); err != nil {
		return nil, err
	}
	if period == "" {
		period = collector.DefaultPeriod
	}
	if err := collector.ValidatePeriod(period); err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/%s?interval=1d&range=%s",
		y.baseURL, url.PathEscape(y.toYahooSymbol(symbol)), url.QueryEscape(period))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := y.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, core.WrapError(core.ErrCollectorTimeout, err)
		}
		return nil, core.WrapError(core.ErrCollectorFailed, fmt.Errorf("fetching history: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, core.WrapError(core.ErrSymbolNotFound, fmt.Errorf("yahoo: %s", symbol))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, core.WrapError(core.ErrCollectorFailed, fmt.Errorf("unexpected status: %d", resp.StatusCode))
	}

	var result chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, core.WrapError(core.ErrCollectorFailed, fmt.Errorf("decoding response: %w", err))
	}

	if result.Chart.Error != nil {
		return nil, core.WrapError(core.ErrCollectorFailed, fmt.Errorf("yahoo error: %s", result.Chart.Error.Description))
	}

	if len(result.Chart.Result) == 0 || len(result.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, core.WrapError(core.ErrNoData, fmt.Errorf("no data for symbol: %s", symbol))
	}

	return toBars(symbol, result.Chart.Result[0]), nil
}

// toBars converts a chart result, skipping days with any missing field.
func toBars(symbol string, r chartResult) []core.OHLCV {
	q := r.Indicators.Quote[0]
	data := make([]core.OHLCV, 0, len(r.Timestamp))
	for i, ts := range r.Timestamp {
		if !present(i, q.Open, q.High, q.Low, q.Close) || i >= len(q.Volume) {
			continue
		}
		var volume int64
		if q.Volume[i] != nil {
			volume = *q.Volume[i]
		}
		data = append(data, core.OHLCV{
			Symbol:   symbol,
			Interval: "1d",
			Open:     *q.Open[i],
			High:     *q.High[i],
			Low:      *q.Low[i],
			Close:    *q.Close[i],
			Volume:   volume,
			Time:     time.Unix(ts, 0).UTC(),
		})
	}
	return data
}

func present(i int, series ...[]*float64) bool {
	for _, s := range series {
		if i >= len(s) || s[i] == nil {
			return false
		}
	}
	return true
}

// Yahoo API response types
type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Meta       chartMeta  `json:"meta"`
	Timestamp  []int64    `json:"timestamp"`
	Indicators indicators `json:"indicators"`
}

type chartMeta struct {
	Symbol   string `json:"symbol"`
	Currency string `json:"currency"`
}

type indicators struct {
	Quote []quoteIndicator `json:"quote"`
}

type quoteIndicator struct {
	Open   []*float64 `json:"open"`
	High   []*float64 `json:"high"`
	Low    []*float64 `json:"low"`
	Close  []*float64 `json:"close"`
	Volume []*int64   `json:"volume"`
}
