// README: Entry point; loads config, wires services, starts the HTTP server.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"relay/internal/config"
	httptransport "relay/internal/http"
	"relay/internal/infra"
	"relay/internal/maps"
	"relay/internal/modules/auction"
	"relay/internal/modules/pickup"
	"relay/internal/modules/request"
	"relay/internal/modules/volunteer"
	"relay/internal/notify"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		log.Fatal(err)
	}
	defer dbPool.Close()

	redisClient := infra.NewRedis(cfg.Redis.Addr)
	defer redisClient.Close()

	distanceSvc, err := maps.NewDistanceService(cfg.Maps.APIKey, cfg.Auction.FallbackSpeedKmh)
	if err != nil {
		log.Fatalf("maps init: %v", err)
	}
	broadcaster := notify.NewBroadcaster(redisClient)

	volunteerSvc := volunteer.NewService(volunteer.NewStore(dbPool), volunteer.NewPresence(redisClient))
	pickupSvc := pickup.NewService(pickup.NewStore(dbPool))

	requestStore := request.NewStore(dbPool)
	auctionMgr := auction.NewManager(distanceSvc, broadcaster, requestStore, cfg.Auction)
	requestSvc := request.NewService(requestStore, auctionMgr, pickupSvc, volunteerSvc, cfg.Search.RadiusKm, cfg.Auction)

	handler := httptransport.NewRouter(requestSvc, volunteerSvc, pickupSvc)
	server := &http.Server{Addr: cfg.HTTP.Addr, Handler: handler}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	log.Printf("listening on %s", cfg.HTTP.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}
}
