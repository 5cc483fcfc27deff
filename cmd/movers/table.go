package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/rickgao/eod-movers/internal/model"
	"github.com/rickgao/eod-movers/internal/query"
	"github.com/rickgao/eod-movers/internal/store"
)

// printTable renders report rows as aligned columns.
func printTable(w io.Writer, result any) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	switch rows := result.(type) {
	case []model.DailyMover:
		fmt.Fprintln(tw, "DATE\tTICKER\tPREV\tCLOSE\tCHANGE\tVOLUME")
		for _, m := range rows {
			fmt.Fprintf(tw, "%s\t%s\t%.2f\t%.2f\t%+.2f%%\t%d\n",
				m.Date.Format(model.DateLayout), m.Ticker, m.PreviousClose, m.CurrentClose, m.PercentChange, m.Volume)
		}
	case []model.WeeklyMover:
		fmt.Fprintln(tw, "WEEK START\tWEEK END\tTICKER\tSTART\tEND\tCHANGE")
		for _, m := range rows {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%.2f\t%.2f\t%+.2f%%\n",
				m.WeekStartDate.Format(model.DateLayout), m.WeekEndDate.Format(model.DateLayout),
				m.Ticker, m.WeekStartClose, m.WeekEndClose, m.PercentChange)
		}
	case []model.DailyBar:
		fmt.Fprintln(tw, "DATE\tTICKER\tOPEN\tHIGH\tLOW\tCLOSE\tVOLUME")
		for _, b := range rows {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%.2f\t%d\n",
				b.Date.Format(model.DateLayout), b.Ticker, price(b.Open), price(b.High), price(b.Low), b.Close, b.Volume)
		}
	case []query.VolatileTicker:
		fmt.Fprintln(tw, "TICKER\tMOVES")
		for _, v := range rows {
			fmt.Fprintf(tw, "%s\t%d\n", v.Ticker, v.Count)
		}
	case []model.Ticker:
		fmt.Fprintln(tw, "TICKER\tNAME\tSECTOR\tACTIVE")
		for _, t := range rows {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%t\n", t.Symbol, t.Name, t.Sector, t.Active)
		}
	case []store.Movement:
		fmt.Fprintln(tw, "TICKER\tNAME\tSTART\tEND\tCHANGE")
		for _, m := range rows {
			fmt.Fprintf(tw, "%s\t%s\t%.2f\t%.2f\t%+.2f%%\n", m.Ticker, m.Name, m.StartClose, m.EndClose, m.PercentChange)
		}
	default:
		return fmt.Errorf("no table layout for %T", result)
	}
	return tw.Flush()
}

func price(p *float64) string {
	if p == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *p)
}
