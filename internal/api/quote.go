package api

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/rickgao/eod-movers/internal/model"
)

// GetQuotes fetches reference data for symbols in one request, keyed by
// uppercase symbol. Symbols Yahoo does not know are absent from the map.
func (c *Client) GetQuotes(ctx context.Context, symbols ...string) (map[string]Quote, error) {
	if len(symbols) == 0 {
		return map[string]Quote{}, nil
	}

	query := url.Values{}
	query.Set("symbols", strings.Join(symbols, ","))
	query.Set("fields", "symbol,longName,shortName,marketCap")

	var resp QuoteResponse
	if err := c.get(ctx, "/v7/finance/quote", query, &resp); err != nil {
		return nil, fmt.Errorf("get quotes: %w", err)
	}
	if e := resp.QuoteResponse.Error; e != nil {
		return nil, fmt.Errorf("get quotes: %s: %s", e.Code, e.Description)
	}

	out := make(map[string]Quote, len(resp.QuoteResponse.Result))
	for _, q := range resp.QuoteResponse.Result {
		out[model.NormalizeSymbol(q.Symbol)] = q
	}
	return out, nil
}
