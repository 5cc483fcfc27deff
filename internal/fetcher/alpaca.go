package fetcher

import (
	"context"
	"fmt"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"github.com/rickgao/eod-movers/internal/model"
)

// MultiBarsClient is the subset of marketdata.Client used by Alpaca.
type MultiBarsClient interface {
	GetMultiBars(symbols []string, req marketdata.GetBarsRequest) (map[string][]marketdata.Bar, error)
}

// Alpaca is a Source backed by Alpaca market data. One batch is one
// GetMultiBars call.
type Alpaca struct {
	client MultiBarsClient
	feed   marketdata.Feed
}

var _ Source = (*Alpaca)(nil)

// NewAlpacaClient builds a market data client. An empty baseURL uses the
// library default.
func NewAlpacaClient(key, secret, baseURL string) *marketdata.Client {
	opts := marketdata.ClientOpts{
		APIKey:    key,
		APISecret: secret,
	}
	if baseURL != "" {
		opts.BaseURL = baseURL
	}
	return marketdata.NewClient(opts)
}

// NewAlpaca creates an Alpaca source. feed is "iex" or "sip"; empty uses
// the account default.
func NewAlpaca(client MultiBarsClient, feed string) *Alpaca {
	return &Alpaca{client: client, feed: marketdata.Feed(feed)}
}

// Name implements Source.
func (a *Alpaca) Name() string { return "alpaca" }

// Bars implements Source.
func (a *Alpaca) Bars(ctx context.Context, symbols []string, from, to time.Time) ([]model.RawBar, error) {
	if len(symbols) == 0 {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// End is exclusive for daily bars.
	multi, err := a.client.GetMultiBars(symbols, marketdata.GetBarsRequest{
		TimeFrame: marketdata.OneDay,
		Start:     from,
		End:       to,
		Feed:      a.feed,
	})
	if err != nil {
		return nil, fmt.Errorf("alpaca: get multi bars: %w", err)
	}

	var bars []model.RawBar
	for symbol, series := range multi {
		for _, b := range series {
			bars = append(bars, model.RawBar{
				Ticker: model.NormalizeSymbol(symbol),
				Date:   model.Day(b.Timestamp),
				Open:   b.Open,
				High:   b.High,
				Low:    b.Low,
				Close:  b.Close,
				Volume: b.Volume,
			})
		}
	}
	return bars, nil
}
