// Package app wires the application together: database, event bus, services,
// settlement reactors, realtime hub, expiry poller and HTTP server.
package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/cardverse/cardverse/internal/auction"
	"github.com/cardverse/cardverse/internal/balance"
	"github.com/cardverse/cardverse/internal/bid"
	"github.com/cardverse/cardverse/internal/config"
	"github.com/cardverse/cardverse/internal/db"
	"github.com/cardverse/cardverse/internal/events"
	"github.com/cardverse/cardverse/internal/httpapi"
	"github.com/cardverse/cardverse/internal/logging"
	"github.com/cardverse/cardverse/internal/realtime"
	"github.com/cardverse/cardverse/internal/scheduler"
	"github.com/cardverse/cardverse/internal/settlement"
	log "github.com/sirupsen/logrus"
)

// shutdownTimeout bounds the graceful drain of in-flight requests.
const shutdownTimeout = 10 * time.Second

// Run starts the application and blocks until ctx is canceled.
func Run(ctx context.Context, cfg config.Config) error {
	logging.Setup(cfg.Log)

	conn, errOpen := db.Open(cfg.Database.DSN)
	if errOpen != nil {
		return errOpen
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		return errMigrate
	}

	bus := events.NewBus()
	repo := auction.NewRepository(conn)
	balances := balance.NewService(conn)
	auctions := auction.NewService(conn, repo, bus)
	bids := bid.NewService(conn, repo, balances, bus)

	// Settlement reactors first, then the anti-sniping extension: dispatch is
	// synchronous in registration order.
	settlement.Register(bus, settlement.NewReactors(conn, balances, bus, cfg.Auction.FeePercent))
	bus.OnNewBid(auctions.ExtendAuctionIfNecessary)

	hub := realtime.NewHub()
	relay := realtime.NewRelay(cfg.Redis, hub)
	relay.Start(ctx)
	realtime.RegisterForwarders(bus, hub, relay)

	scheduler.NewPoller(auctions, cfg.Auction.PollInterval()).Start(ctx)

	router := httpapi.NewRouter(httpapi.Deps{
		DB:       conn,
		Cfg:      cfg,
		Bus:      bus,
		Hub:      hub,
		Auctions: auctions,
		Repo:     repo,
		Bids:     bids,
		Balances: balances,
	})

	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("listening on %s", cfg.Server.Addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if errShutdown := server.Shutdown(shutdownCtx); errShutdown != nil {
			return errShutdown
		}
		return nil
	case errServe := <-errCh:
		if errors.Is(errServe, http.ErrServerClosed) {
			return nil
		}
		return errServe
	}
}
