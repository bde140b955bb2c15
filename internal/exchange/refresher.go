package exchange

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"gitlab.com/yerzhan/wallet/internal/database"
	"gitlab.com/yerzhan/wallet/internal/logger"
	"gitlab.com/yerzhan/wallet/internal/repository"
)

// RefreshTimeout is the maximum time a single refresh may take.
const RefreshTimeout = 2 * time.Minute

// Refresher periodically fetches the latest rate table and stores it.
// Conversions always read stored rates, so a failed refresh degrades to
// slightly stale data instead of failing user requests.
type Refresher struct {
	client       *Client
	db           database.DB
	baseCurrency string
	interval     time.Duration
}

// NewRefresher creates a rate refresher.
func NewRefresher(client *Client, db database.DB, baseCurrency string, interval time.Duration) *Refresher {
	return &Refresher{
		client:       client,
		db:           db,
		baseCurrency: baseCurrency,
		interval:     interval,
	}
}

// Run refreshes rates immediately and then on every tick until the context
// is cancelled. Failures are logged and retried on the next tick.
func (r *Refresher) Run(ctx context.Context) {
	logger.Log.Info().
		Str("base", r.baseCurrency).
		Dur("interval", r.interval).
		Msg("Rate refresh loop started")

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.refresh(ctx)

	for {
		select {
		case <-ctx.Done():
			logger.Log.Info().Msg("Rate refresh loop stopped")
			return
		case <-ticker.C:
			r.refresh(ctx)
		}
	}
}

func (r *Refresher) refresh(ctx context.Context) {
	refreshCtx, cancel := context.WithTimeout(ctx, RefreshTimeout)
	defer cancel()

	table, err := r.client.Latest(refreshCtx, r.baseCurrency)
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to fetch exchange rates")
		return
	}

	currencies := repository.NewCurrencyRepository(r.db)
	known, err := currencies.List(refreshCtx)
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to list currencies for rate refresh")
		return
	}

	g, gctx := errgroup.WithContext(refreshCtx)
	g.SetLimit(4)

	stored := 0
	for _, cur := range known {
		code := cur.Code
		if code == r.baseCurrency {
			continue
		}
		rate, ok := table.Rates[code]
		if !ok {
			logger.Log.Warn().Str("currency", code).Msg("Exchange API returned no rate")
			continue
		}
		stored++
		g.Go(func() error {
			return currencies.UpsertRate(gctx, code, rate)
		})
	}
	g.Go(func() error {
		return currencies.UpsertRate(gctx, r.baseCurrency, decimal.NewFromInt(1))
	})

	if err := g.Wait(); err != nil {
		logger.Log.Error().Err(err).Msg("Failed to store exchange rates")
		return
	}

	logger.Log.Info().
		Int("rates", stored).
		Str("rate_date", table.Date.Format("2006-01-02")).
		Msg("Exchange rates refreshed")
}
