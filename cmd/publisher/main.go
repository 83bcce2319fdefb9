package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rental-booking/internal/config"
	"rental-booking/internal/logger"
	"rental-booking/internal/publisher"

	"github.com/robfig/cron/v3"
)

const runTimeout = 2 * time.Minute

func main() {
	once := flag.Bool("once", false, "publish a single post and exit, ignoring PUBLISH_SCHEDULE")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}
	logg := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Service: "publisher"})

	pub := publisher.New(
		publisher.NewCatalogClient(cfg.APIBaseURL),
		publisher.NewGraphPublisher(cfg.GraphAPIBaseURL, cfg.InstagramAccountID, cfg.MetaAccessToken),
		logg,
	)

	if *once || cfg.PublishSchedule == "" {
		if err := runOnce(pub); err != nil {
			logg.Error("publish run failed", "error", err)
			os.Exit(1)
		}
		return
	}

	c := cron.New()
	_, err = c.AddFunc(cfg.PublishSchedule, func() {
		if err := runOnce(pub); err != nil {
			logg.Error("publish run failed", "error", err)
		}
	})
	if err != nil {
		logg.Error("invalid PUBLISH_SCHEDULE", "schedule", cfg.PublishSchedule, "error", err)
		os.Exit(1)
	}
	c.Start()
	logg.Info("publisher scheduled", "schedule", cfg.PublishSchedule)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	sig := <-stop

	logg.Info("stopping publisher", "signal", sig.String())
	<-c.Stop().Done()
}

func runOnce(pub *publisher.Publisher) error {
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()
	_, err := pub.Run(ctx)
	return err
}
