package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rickgao/eod-movers/internal/config"
	"github.com/rickgao/eod-movers/internal/database"
	"github.com/rickgao/eod-movers/internal/model"
	"github.com/rickgao/eod-movers/internal/query"
)

const usage = `usage: movers [-config path] [-json] <report> [flags]

reports:
  daily     daily movers          [-min 15] [-from D] [-to D]
  weekly    weekly movers         [-min 15] [-since D]
  history   price history         -ticker SYM [-from D] [-to D]
  gainers   top gainers on a day  [-date D] [-limit 20]
  losers    top losers on a day   [-date D] [-limit 20]
  volatile  most frequent movers  [-days 30] [-limit 20]
  search    find tickers          [-ticker S] [-company S]
  movement  change between dates  -start D -end D [-min 15]
`

func main() {
	configPath := flag.String("config", "configs/loader.yaml", "path to config file")
	asJSON := flag.Bool("json", false, "print JSON instead of a table")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
	slog.SetDefault(logger)

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(*configPath, *asJSON, flag.Args(), os.Stdout, logger); err != nil {
		logger.Error("query failed", "error", err)
		os.Exit(1)
	}
}

func run(configPath string, asJSON bool, args []string, w io.Writer, logger *slog.Logger) error {
	cfg, err := config.LoadAndValidate(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := database.OpenStore(ctx, cfg.Database, 0, false, logger)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	result, err := report(ctx, query.NewService(st, logger), args)
	if err != nil {
		return err
	}
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	return printTable(w, result)
}

// dayFlag parses a YYYY-MM-DD flag value; unset leaves the zero time.
type dayFlag struct{ t time.Time }

func (d *dayFlag) String() string {
	if d.t.IsZero() {
		return ""
	}
	return d.t.Format(model.DateLayout)
}

func (d *dayFlag) Set(s string) error {
	t, err := model.ParseDay(s)
	if err != nil {
		return err
	}
	d.t = t
	return nil
}

// report runs the named report and returns its rows.
func report(ctx context.Context, svc *query.Service, args []string) (any, error) {
	name := args[0]
	fs := flag.NewFlagSet(name, flag.ContinueOnError)

	var (
		from, to, date, since, start, end dayFlag

		minPct  = fs.Float64("min", query.DefaultMinPct, "minimum absolute percent change")
		limit   = fs.Int("limit", query.DefaultLimit, "maximum rows")
		days    = fs.Int("days", query.DefaultVolatileDays, "lookback days")
		ticker  = fs.String("ticker", "", "ticker symbol or substring")
		company = fs.String("company", "", "company name substring")
	)
	fs.Var(&from, "from", "first date YYYY-MM-DD")
	fs.Var(&to, "to", "last date YYYY-MM-DD")
	fs.Var(&date, "date", "session date YYYY-MM-DD (default: yesterday)")
	fs.Var(&since, "since", "earliest week end YYYY-MM-DD")
	fs.Var(&start, "start", "start date YYYY-MM-DD")
	fs.Var(&end, "end", "end date YYYY-MM-DD")

	if err := fs.Parse(args[1:]); err != nil {
		return nil, err
	}

	switch name {
	case "daily":
		return svc.DailyMovers(ctx, *minPct, query.Range{From: from.t, To: to.t})
	case "weekly":
		return svc.WeeklyMovers(ctx, *minPct, since.t)
	case "history":
		if *ticker == "" {
			return nil, fmt.Errorf("history: -ticker is required")
		}
		return svc.History(ctx, *ticker, query.Range{From: from.t, To: to.t})
	case "gainers":
		return svc.TopGainers(ctx, date.t, *limit)
	case "losers":
		return svc.TopLosers(ctx, date.t, *limit)
	case "volatile":
		return svc.MostVolatile(ctx, *days, *limit)
	case "search":
		return svc.Search(ctx, *ticker, *company)
	case "movement":
		if start.t.IsZero() || end.t.IsZero() {
			return nil, fmt.Errorf("movement: -start and -end are required")
		}
		return svc.Movement(ctx, start.t, end.t, *minPct)
	default:
		return nil, fmt.Errorf("unknown report %q", name)
	}
}
