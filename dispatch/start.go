package dispatch

import (
	"context"

	nr "github.com/newrelic/go-agent/v3/newrelic"

	"textstream/campaign-dispatch/campaign"
	"textstream/campaign-dispatch/config"
	"textstream/campaign-dispatch/log"
	"textstream/campaign-dispatch/notify"
	"textstream/campaign-dispatch/webhook"
)

// Start wires the poller to a pool of batch processors and runs them until
// the context is cancelled.
func Start(ctx context.Context, cfg *config.Config, repo campaign.Repository, notifier *notify.Notifier, nrApp *nr.Application) {
	log.Logger.WithField("config", cfg).Info("starting campaign dispatch polling")

	claimCh := make(chan *campaign.Claim, 10)
	go NewPoller(repo, claimCh).Poll(ctx, cfg.GetPollIntervalDuration())

	proc := NewBatchProcessor(repo, webhook.NewClient(cfg.GetWebhookTimeout()), notifier, cfg, nrApp)
	for i := 0; i < cfg.DispatchConcurrency; i++ {
		go proc.ListenAndProcess(ctx, claimCh)
	}
}
