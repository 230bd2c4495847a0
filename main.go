package main

import (
	"context"
	"database/sql"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"

	nr "github.com/newrelic/go-agent/v3/newrelic"

	"textstream/campaign-dispatch/campaign"
	"textstream/campaign-dispatch/campaign/data"
	"textstream/campaign-dispatch/config"
	"textstream/campaign-dispatch/directory"
	"textstream/campaign-dispatch/dispatch"
	h "textstream/campaign-dispatch/http"
	"textstream/campaign-dispatch/job"
	"textstream/campaign-dispatch/log"
	"textstream/campaign-dispatch/newrelic"
	"textstream/campaign-dispatch/notify"
	"textstream/campaign-dispatch/orchestrator"
	"textstream/campaign-dispatch/prometheus"
	"textstream/campaign-dispatch/settings"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Logger.Debug("no .env file found, relying on the environment")
	}

	nrApp, stopAgent := newrelic.StartAgent()
	defer stopAgent()

	ctx, cancel := context.WithCancel(context.Background())
	cfg, err := config.NewConfig()
	if err != nil {
		log.Logger.Fatalf("unable to create configuration: %s", err)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-stop
		cancel()
	}()

	db, dbClose := data.NewDB(cfg)
	defer dbClose()

	repo := campaign.NewRepository(db, cfg)

	var exitCode int
	switch {
	case cfg.RunCleanup:
		exitCode = job.RunCleanup(repo, cfg)
	case cfg.RunOptimize:
		exitCode = job.RunOptimize(db, cfg)
	default:
		runMainApp(ctx, nrApp, db, repo, cfg)
	}

	if exitCode > 0 {
		dbClose() // we call this manually because os.Exit() does not respect defer
		os.Exit(exitCode)
	}
}

func runMainApp(ctx context.Context, nrApp *nr.Application, db *sql.DB, repo campaign.Repository, cfg *config.Config) {
	notifier := notify.NewNotifier(nethttp.DefaultClient, cfg.NotifyURL)

	dispatch.Start(ctx, cfg, repo, notifier, nrApp)

	orch := orchestrator.NewOrchestrator(repo, directory.NewDirectory(db, cfg), settings.NewStore(db, cfg), notifier, cfg)
	api := h.NewRouter(orch, repo)

	go prometheus.ObserveQueueSize(repo, ctx)
	go prometheus.ObserveTotalSize(repo, ctx)
	prometheus.StartHttpServer(cfg, db, api)
}
