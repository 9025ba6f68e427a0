// Package scheduler runs the auction expiry sweep: a fixed-interval poller
// that settles auctions past their end time. This is the sole trigger for
// auction completion.
package scheduler

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/cardverse/cardverse/internal/auction"
	log "github.com/sirupsen/logrus"
)

// Poller periodically settles expired auctions.
type Poller struct {
	auctions *auction.Service
	interval time.Duration
	sweeping atomic.Bool
}

// NewPoller constructs an expiry poller.
func NewPoller(auctions *auction.Service, interval time.Duration) *Poller {
	if auctions == nil {
		return nil
	}
	if interval <= 0 {
		interval = time.Minute
	}
	return &Poller{auctions: auctions, interval: interval}
}

// Start launches the polling loop in a background goroutine.
func (p *Poller) Start(ctx context.Context) {
	if p == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	go p.run(ctx)
	log.Infof("auction expiry poller started (interval=%s)", p.interval)
}

func (p *Poller) run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Sweep(ctx)
		}
	}
}

// Sweep settles every expired auction once. A failing settlement is logged
// and does not stop the rest of the sweep. Overlapping sweeps are skipped:
// a tick that fires while the previous sweep still runs is dropped.
func (p *Poller) Sweep(ctx context.Context) {
	if p == nil {
		return
	}
	if !p.sweeping.CompareAndSwap(false, true) {
		log.Debug("expiry sweep still running, skipping tick")
		return
	}
	defer p.sweeping.Store(false)

	ids, errExpired := p.auctions.Expired(ctx, time.Now().UTC())
	if errExpired != nil {
		log.WithError(errExpired).Warn("expiry sweep: query expired auctions failed")
		return
	}

	for _, id := range ids {
		if ctx != nil && ctx.Err() != nil {
			return
		}
		if errFinish := p.auctions.FinishAuction(ctx, id); errFinish != nil {
			log.WithError(errFinish).Warnf("expiry sweep: settle auction %d failed", id)
			continue
		}
	}
}
