package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/rickgao/eod-movers/internal/model"
)

// GetChart fetches the raw chart payload for one symbol.
func (c *Client) GetChart(ctx context.Context, opts ChartOptions) (*ChartResult, error) {
	query := url.Values{}
	query.Set("interval", "1d")
	query.Set("includePrePost", "false")
	if opts.Start > 0 {
		query.Set("period1", strconv.FormatInt(opts.Start, 10))
	}
	if opts.End > 0 {
		query.Set("period2", strconv.FormatInt(opts.End, 10))
	}

	var resp ChartResponse
	if err := c.get(ctx, "/v8/finance/chart/"+url.PathEscape(opts.Symbol), query, &resp); err != nil {
		return nil, fmt.Errorf("get chart %s: %w", opts.Symbol, err)
	}
	if resp.Chart.Error != nil {
		return nil, fmt.Errorf("get chart %s: %s: %s", opts.Symbol, resp.Chart.Error.Code, resp.Chart.Error.Description)
	}
	if len(resp.Chart.Result) == 0 {
		return &ChartResult{}, nil
	}

	return &resp.Chart.Result[0], nil
}

// GetDailyBars fetches daily bars for symbol in the half-open day range
// [from, to) and returns them as raw rows.
func (c *Client) GetDailyBars(ctx context.Context, symbol string, from, to time.Time) ([]model.RawBar, error) {
	res, err := c.GetChart(ctx, ChartOptions{
		Symbol: symbol,
		Start:  model.Day(from).Unix(),
		End:    model.Day(to).Unix(),
	})
	if err != nil {
		return nil, err
	}
	return res.ToRawBars(symbol), nil
}
