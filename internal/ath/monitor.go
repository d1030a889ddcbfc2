package ath

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"relaybot/internal/dispatch"
	"relaybot/internal/domain"
	"relaybot/internal/parser"
	"relaybot/internal/pricefeed"
)

// epsilon guards against float jitter in the upstream feed; moves at or
// below it are not treated as a new high.
var epsilon = decimal.RequireFromString("0.01")

// Source provides market quotes for tracked assets.
type Source interface {
	Quote(ctx context.Context, assetID string) (*pricefeed.Quote, error)
}

// Sender delivers a notification to a webhook endpoint.
type Sender interface {
	Send(ctx context.Context, n domain.Notification, endpoint string) (*dispatch.Response, error)
}

// update is the payload embedded in a CoinAthUpdate notification.
type update struct {
	AssetID                      string          `json:"coinId"`
	PreviousATH                  decimal.Decimal `json:"previousAth"`
	PreviousATHDate              time.Time       `json:"previousAthDate"`
	NewATH                       decimal.Decimal `json:"newAth"`
	NewATHDate                   time.Time       `json:"newAthDate"`
	CurrentPrice                 decimal.Decimal `json:"currentPrice"`
	PercentageFromATH            decimal.Decimal `json:"percentageFromAth"`
	MinutesSinceLastNotification *int64          `json:"minutesSinceLastNotification,omitempty"`
}

// Monitor polls a price source for tracked assets and notifies when the
// feed's all-time high moves, in either direction, beyond epsilon.
// Notifications are rate limited per asset by a cooldown window; the
// stored watermark tracks the feed so a suppressed change is never
// re-announced later.
type Monitor struct {
	source   Source
	sender   Sender
	endpoint string
	store    *Store
	records  map[string]*Record
	assets   []string
	cooldown time.Duration
	logger   *slog.Logger

	mu  sync.Mutex
	now func() time.Time
}

// MonitorConfig configures a Monitor.
type MonitorConfig struct {
	Source   Source
	Sender   Sender
	Endpoint string
	Store    *Store
	Assets   []string
	Cooldown time.Duration
	Logger   *slog.Logger
}

// NewMonitor creates a Monitor, loading persisted watermarks from the store.
func NewMonitor(cfg MonitorConfig) (*Monitor, error) {
	records, err := cfg.Store.Load()
	if err != nil {
		return nil, fmt.Errorf("load watermarks: %w", err)
	}
	return &Monitor{
		source:   cfg.Source,
		sender:   cfg.Sender,
		endpoint: cfg.Endpoint,
		store:    cfg.Store,
		records:  records,
		assets:   cfg.Assets,
		cooldown: cfg.Cooldown,
		logger:   cfg.Logger,
		now:      time.Now,
	}, nil
}

// RunCycle checks every tracked asset once and persists the updated
// watermarks. If a previous cycle is still running the call returns
// immediately; cycles never overlap.
func (m *Monitor) RunCycle(ctx context.Context) error {
	if !m.mu.TryLock() {
		m.logger.Warn("previous check still running, skipping cycle")
		return nil
	}
	defer m.mu.Unlock()

	for _, asset := range m.assets {
		if ctx.Err() != nil {
			break
		}
		if err := m.checkAsset(ctx, asset); err != nil {
			m.logger.Error("asset check failed",
				"asset", asset,
				"error", err,
			)
		}
	}

	if err := m.store.Save(m.records); err != nil {
		return fmt.Errorf("save watermarks: %w", err)
	}
	return nil
}

func (m *Monitor) checkAsset(ctx context.Context, asset string) error {
	q, err := m.source.Quote(ctx, asset)
	if err != nil {
		return err
	}
	now := m.now()

	rec, ok := m.records[asset]
	if !ok {
		// First observation seeds the watermark silently.
		m.records[asset] = &Record{
			AssetID:         asset,
			AllTimeHigh:     q.AllTimeHigh,
			AllTimeHighDate: q.AllTimeHighDate,
			LastChecked:     now,
		}
		m.logger.Info("tracking new asset",
			"asset", asset,
			"ath", q.AllTimeHigh,
		)
		return nil
	}

	prev := *rec
	rec.LastChecked = now
	rec.AllTimeHigh = q.AllTimeHigh
	rec.AllTimeHighDate = q.AllTimeHighDate

	if !q.AllTimeHigh.Sub(prev.AllTimeHigh).Abs().GreaterThan(epsilon) {
		return nil
	}

	if rec.LastNotificationTime != nil && now.Sub(*rec.LastNotificationTime) < m.cooldown {
		m.logger.Info("ath change within cooldown, suppressed",
			"asset", asset,
			"ath", q.AllTimeHigh,
		)
		return nil
	}

	if err := m.notify(ctx, prev, q, now); err != nil {
		// Roll back so the next cycle re-detects the change and retries.
		*rec = prev
		rec.LastChecked = now
		m.logger.Error("notification failed, will retry next cycle",
			"asset", asset,
			"error", err,
		)
		return nil
	}
	t := now
	rec.LastNotificationTime = &t
	return nil
}

func (m *Monitor) notify(ctx context.Context, prev Record, q *pricefeed.Quote, now time.Time) error {
	u := update{
		AssetID:           q.AssetID,
		PreviousATH:       prev.AllTimeHigh,
		PreviousATHDate:   prev.AllTimeHighDate,
		NewATH:            q.AllTimeHigh,
		NewATHDate:        q.AllTimeHighDate,
		CurrentPrice:      q.CurrentPrice,
		PercentageFromATH: q.PercentFromATH,
	}
	if prev.LastNotificationTime != nil {
		mins := int64(now.Sub(*prev.LastNotificationTime).Minutes())
		u.MinutesSinceLastNotification = &mins
	}

	content, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("marshal update: %w", err)
	}

	n := domain.Notification{
		ID:        uuid.NewString(),
		Type:      parser.TypeCoinAthUpdate,
		Author:    "ath-monitor",
		Content:   string(content),
		Timestamp: now.UTC(),
	}
	_, err = m.sender.Send(ctx, n, m.endpoint)
	return err
}
