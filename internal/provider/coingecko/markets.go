package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// marketRow is one element of the /coins/markets response.
type marketRow struct {
	ID            string   `json:"id"`
	Symbol        string   `json:"symbol"`
	CurrentPrice  float64  `json:"current_price"`
	High24h       *float64 `json:"high_24h"`
	Low24h        *float64 `json:"low_24h"`
	TotalVolume   *float64 `json:"total_volume"`
	MarketCapRank int      `json:"market_cap_rank"`
	LastUpdated   string   `json:"last_updated"`
}

// markets calls /coins/markets. With ids it fetches exactly those coins,
// otherwise the top `count` coins by market cap rank.
func (c *Client) markets(ctx context.Context, ids []string, count int) ([]marketRow, error) {
	query := maps.Clone(c.query)
	query.Set("vs_currency", "usd")
	query.Set("order", "market_cap_desc")
	query.Set("page", "1")
	if len(ids) > 0 {
		query.Set("ids", strings.Join(ids, ","))
		query.Set("per_page", strconv.Itoa(len(ids)))
	} else {
		query.Set("per_page", strconv.Itoa(count))
	}

	url := fmt.Sprintf("%s/coins/markets?%s", c.baseURL, query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header = c.header.Clone()

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("performing request: %w", err)
	}
	defer res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
		break
	case http.StatusTooManyRequests:
		return nil, fmt.Errorf("rate limited")
	default:
		b, _ := io.ReadAll(io.LimitReader(res.Body, 2<<10))
		return nil, fmt.Errorf("unexpected status code: %d: %s", res.StatusCode, string(b))
	}

	var rows []marketRow
	if err := json.NewDecoder(res.Body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("decoding markets response: %w", err)
	}
	return rows, nil
}

func (r marketRow) observedAt(fallback time.Time) time.Time {
	if t, err := time.Parse(time.RFC3339, r.LastUpdated); err == nil {
		return t.UTC()
	}
	return fallback
}
