package api

// ChartResponse from GET /v8/finance/chart/{symbol}
type ChartResponse struct {
	Chart struct {
		Result []ChartResult `json:"result"`
		Error  *ChartError   `json:"error"`
	} `json:"chart"`
}

// ChartError is the in-band error object of the chart and quote endpoints.
// Yahoo sends it with 200 responses and with 4xx ones (e.g. a 404 for a
// delisted symbol).
type ChartError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// ChartResult holds the series for one symbol.
type ChartResult struct {
	Meta       ChartMeta `json:"meta"`
	Timestamp  []int64   `json:"timestamp"`
	Indicators struct {
		Quote []ChartQuote `json:"quote"`
	} `json:"indicators"`
}

// ChartMeta carries exchange information needed to map timestamps to trading days.
type ChartMeta struct {
	Symbol               string  `json:"symbol"`
	Currency             string  `json:"currency"`
	ExchangeName         string  `json:"exchangeName"`
	ExchangeTimezoneName string  `json:"exchangeTimezoneName"`
	GMTOffset            int64   `json:"gmtoffset"`
	RegularMarketPrice   float64 `json:"regularMarketPrice"`
}

// ChartQuote holds parallel OHLCV arrays. Entries are float64 or nil.
type ChartQuote struct {
	Open   []any `json:"open"`
	High   []any `json:"high"`
	Low    []any `json:"low"`
	Close  []any `json:"close"`
	Volume []any `json:"volume"`
}

// ChartOptions configures a GetChart request.
type ChartOptions struct {
	Symbol string
	Start  int64 // Unix seconds, inclusive
	End    int64 // Unix seconds, exclusive
}

// QuoteResponse from GET /v7/finance/quote
type QuoteResponse struct {
	QuoteResponse struct {
		Result []Quote     `json:"result"`
		Error  *ChartError `json:"error"`
	} `json:"quoteResponse"`
}

// Quote is the reference data of one symbol.
type Quote struct {
	Symbol    string   `json:"symbol"`
	LongName  string   `json:"longName"`
	ShortName string   `json:"shortName"`
	MarketCap *float64 `json:"marketCap"` // Absent for funds and indexes
}

// DisplayName returns the long name, else the short name, else the symbol.
func (q Quote) DisplayName() string {
	switch {
	case q.LongName != "":
		return q.LongName
	case q.ShortName != "":
		return q.ShortName
	default:
		return q.Symbol
	}
}

// errorEnvelope matches the error object of any Yahoo endpoint.
type errorEnvelope struct {
	Chart struct {
		Error *ChartError `json:"error"`
	} `json:"chart"`
	QuoteResponse struct {
		Error *ChartError `json:"error"`
	} `json:"quoteResponse"`
	Finance struct {
		Error *ChartError `json:"error"`
	} `json:"finance"`
}
