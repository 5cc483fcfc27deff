package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestGetQuotes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v7/finance/quote" {
			t.Errorf("path = %s, want /v7/finance/quote", r.URL.Path)
		}
		if got := r.URL.Query().Get("symbols"); got != "AAPL,SPY" {
			t.Errorf("symbols = %q, want AAPL,SPY", got)
		}
		w.Write([]byte(`{"quoteResponse":{"result":[
			{"symbol":"AAPL","longName":"Apple Inc.","shortName":"Apple","marketCap":3200000000000},
			{"symbol":"SPY","shortName":"SPDR S&P 500"}
		],"error":null}}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, WithRetries(0, 0))
	quotes, err := c.GetQuotes(context.Background(), "AAPL", "SPY")
	if err != nil {
		t.Fatalf("GetQuotes() error = %v", err)
	}

	aapl, ok := quotes["AAPL"]
	if !ok {
		t.Fatal("AAPL missing")
	}
	if aapl.DisplayName() != "Apple Inc." {
		t.Errorf("AAPL name = %q, want Apple Inc.", aapl.DisplayName())
	}
	if aapl.MarketCap == nil || *aapl.MarketCap != 3.2e12 {
		t.Errorf("AAPL market cap = %v, want 3.2e12", aapl.MarketCap)
	}

	spy := quotes["SPY"]
	if spy.DisplayName() != "SPDR S&P 500" {
		t.Errorf("SPY name = %q, want short name", spy.DisplayName())
	}
	if spy.MarketCap != nil {
		t.Errorf("SPY market cap = %v, want nil", *spy.MarketCap)
	}
}

func TestGetQuotes_Empty(t *testing.T) {
	c := NewClient("http://127.0.0.1:0")
	quotes, err := c.GetQuotes(context.Background())
	if err != nil || len(quotes) != 0 {
		t.Errorf("GetQuotes() = %v, %v; want empty without a request", quotes, err)
	}
}

func TestGetQuotes_InBandError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"quoteResponse":{"result":null,"error":{"code":"Bad Request","description":"Missing symbols"}}}`))
	}))
	defer server.Close()

	_, err := NewClient(server.URL).GetQuotes(context.Background(), "X")
	if err == nil || !strings.Contains(err.Error(), "Missing symbols") {
		t.Errorf("error = %v, want description", err)
	}
}

func TestDoRequest_ErrorBody(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantCode string
		wantMsg  string
	}{
		{
			name:     "chart error",
			body:     `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`,
			wantCode: "Not Found",
			wantMsg:  "No data found, symbol may be delisted",
		},
		{
			name:     "finance error",
			body:     `{"finance":{"result":null,"error":{"code":"Not Found","description":"HTTP 404 Not Found"}}}`,
			wantCode: "Not Found",
			wantMsg:  "HTTP 404 Not Found",
		},
		{
			name:    "plain body",
			body:    `gone`,
			wantMsg: "Not Found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			c := NewClient(server.URL, WithRetries(0, 0))
			_, err := c.GetChart(context.Background(), ChartOptions{Symbol: "GONE"})

			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("error = %v, want *APIError", err)
			}
			if apiErr.Code != tt.wantCode {
				t.Errorf("Code = %q, want %q", apiErr.Code, tt.wantCode)
			}
			if apiErr.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", apiErr.Message, tt.wantMsg)
			}
			if !IsNotFound(err) {
				t.Error("IsNotFound() = false, want true")
			}
		})
	}
}
