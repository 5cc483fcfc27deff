package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rickgao/eod-movers/internal/model"
)

// DefaultTTL is how long the per-day ranking keys are kept.
const DefaultTTL = 7 * 24 * time.Hour

// Event kinds.
const (
	KindDaily  = "daily"
	KindWeekly = "weekly"
)

// Event is the JSON payload published for each mover.
type Event struct {
	Kind          string  `json:"kind"`
	Ticker        string  `json:"ticker"`
	Date          string  `json:"date"`                 // Session date or week end
	StartDate     string  `json:"start_date,omitempty"` // Weekly only
	StartClose    float64 `json:"start_close"`
	EndClose      float64 `json:"end_close"`
	PercentChange float64 `json:"percent_change"`
	Volume        int64   `json:"volume,omitempty"`
}

// Publisher writes mover events to Redis.
type Publisher struct {
	rdb     redis.UniversalClient
	channel string
	ttl     time.Duration
	logger  *slog.Logger
}

// NewPublisher creates a Publisher on channel.
func NewPublisher(rdb redis.UniversalClient, channel string, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		rdb:     rdb,
		channel: channel,
		ttl:     DefaultTTL,
		logger:  logger,
	}
}

// Dial connects to Redis and verifies the connection.
func Dial(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return rdb, nil
}

// DailyKey returns the ranking key for daily movers on date.
func DailyKey(date time.Time) string {
	return "movers:daily:" + date.Format(model.DateLayout)
}

// WeeklyKey returns the ranking key for weekly movers ending on date.
func WeeklyKey(date time.Time) string {
	return "movers:weekly:" + date.Format(model.DateLayout)
}

// PublishDaily publishes daily movers in one pipeline.
func (p *Publisher) PublishDaily(ctx context.Context, movers []model.DailyMover) error {
	events := make([]Event, 0, len(movers))
	keys := make([]string, 0, len(movers))
	for _, m := range movers {
		events = append(events, Event{
			Kind:          KindDaily,
			Ticker:        m.Ticker,
			Date:          m.Date.Format(model.DateLayout),
			StartClose:    m.PreviousClose,
			EndClose:      m.CurrentClose,
			PercentChange: m.PercentChange,
			Volume:        m.Volume,
		})
		keys = append(keys, DailyKey(m.Date))
	}
	return p.publish(ctx, events, keys)
}

// PublishWeekly publishes weekly movers in one pipeline.
func (p *Publisher) PublishWeekly(ctx context.Context, movers []model.WeeklyMover) error {
	events := make([]Event, 0, len(movers))
	keys := make([]string, 0, len(movers))
	for _, m := range movers {
		events = append(events, Event{
			Kind:          KindWeekly,
			Ticker:        m.Ticker,
			Date:          m.WeekEndDate.Format(model.DateLayout),
			StartDate:     m.WeekStartDate.Format(model.DateLayout),
			StartClose:    m.WeekStartClose,
			EndClose:      m.WeekEndClose,
			PercentChange: m.PercentChange,
		})
		keys = append(keys, WeeklyKey(m.WeekEndDate))
	}
	return p.publish(ctx, events, keys)
}

func (p *Publisher) publish(ctx context.Context, events []Event, keys []string) error {
	if len(events) == 0 {
		return nil
	}

	pipe := p.rdb.Pipeline()
	touched := make(map[string]bool)
	for i, ev := range events {
		payload, err := json.Marshal(ev)
		if err != nil {
			return fmt.Errorf("marshal %s event %s: %w", ev.Kind, ev.Ticker, err)
		}
		pipe.ZAdd(ctx, keys[i], redis.Z{Score: ev.PercentChange, Member: ev.Ticker})
		pipe.Publish(ctx, p.channel, payload)
		touched[keys[i]] = true
	}
	for key := range touched {
		pipe.Expire(ctx, key, p.ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("publish movers: %w", err)
	}

	p.logger.Debug("published movers",
		"kind", events[0].Kind,
		"count", len(events),
		"channel", p.channel,
	)
	return nil
}

// Close closes the underlying client.
func (p *Publisher) Close() error {
	return p.rdb.Close()
}
