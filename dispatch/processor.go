package dispatch

import (
	"context"
	"time"

	nr "github.com/newrelic/go-agent/v3/newrelic"

	"textstream/campaign-dispatch/campaign"
	"textstream/campaign-dispatch/config"
	"textstream/campaign-dispatch/log"
	"textstream/campaign-dispatch/newrelic"
	"textstream/campaign-dispatch/prometheus"
	"textstream/campaign-dispatch/webhook"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const incrementRetries = 3

type repository interface {
	MarkBatchSent(ctx context.Context, b *campaign.BatchEntry, providerMessageId string) error
	MarkBatchFailed(ctx context.Context, b *campaign.BatchEntry, lastError string) error
	IncrementCampaignBatch(ctx context.Context, campaignId uuid.UUID, outcome campaign.Outcome) (string, error)
}

type deliverer interface {
	Deliver(ctx context.Context, b *campaign.BatchEntry) (*webhook.Ack, error)
}

type completionNotifier interface {
	CampaignCompleted(campaignId uuid.UUID, tenantId string)
}

func NewBatchProcessor(r repository, d deliverer, n completionNotifier, cfg *config.Config, nrApp *nr.Application) BatchProcessor {
	return BatchProcessor{
		repo:        r,
		deliverer:   d,
		notifier:    n,
		maxAttempts: cfg.DeliveryAttempts,
		backoffUnit: time.Second,
		nrApp:       nrApp,
	}
}

// BatchProcessor delivers claimed batches to their destination webhooks and
// records the outcomes. One failing batch never stops the others in the
// claim; each batch reaches its own terminal status independently.
type BatchProcessor struct {
	repo        repository
	deliverer   deliverer
	notifier    completionNotifier
	maxAttempts int
	backoffUnit time.Duration
	nrApp       *nr.Application
}

func (p BatchProcessor) ListenAndProcess(parent context.Context, claims <-chan *campaign.Claim) {
	for {
		select {
		case c := <-claims:
			if c == nil || len(c.Batches) == 0 {
				break
			}

			ctx, txn := newrelic.ContextWithTxn(parent, "dispatch: BatchProcessor.ListenAndProcess()", p.nrApp)
			for _, b := range c.Batches {
				if err := p.processBatch(ctx, b); err != nil {
					txn.NoticeError(err)
				}
			}
			txn.End()
			break
		case <-parent.Done():
			return
		}
	}
}

// processBatch attempts delivery up to the configured number of attempts,
// backing off exponentially between tries, then records the terminal outcome.
func (p BatchProcessor) processBatch(ctx context.Context, b *campaign.BatchEntry) error {
	var lastErr error

	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		log.Logger.WithFields(logrus.Fields{
			"batch_id": b.Id,
			"attempt":  attempt,
		}).Debug("delivering batch to webhook")

		ack, err := p.deliverer.Deliver(ctx, b)
		b.Attempts++
		if err == nil {
			p.resolveSent(ctx, b, ack.MessageId)
			return nil
		}

		lastErr = err
		log.Logger.WithError(err).WithFields(logrus.Fields{
			"batch_id": b.Id,
			"attempt":  attempt,
		}).Warn("batch delivery attempt failed")

		if attempt < p.maxAttempts {
			// 2^attempt units between tries
			if !sleep(ctx, time.Duration(1<<uint(attempt))*p.backoffUnit) {
				return ctx.Err()
			}
		}
	}

	p.resolveFailed(ctx, b, lastErr)
	return lastErr
}

func (p BatchProcessor) resolveSent(ctx context.Context, b *campaign.BatchEntry, providerMessageId string) {
	if err := p.repo.MarkBatchSent(ctx, b, providerMessageId); err != nil {
		p.logUnresolved(b, err)
		return
	}

	prometheus.RecordBatchDelivered()
	p.increment(ctx, b, campaign.OutcomeSent)
}

func (p BatchProcessor) resolveFailed(ctx context.Context, b *campaign.BatchEntry, cause error) {
	if err := p.repo.MarkBatchFailed(ctx, b, cause.Error()); err != nil {
		p.logUnresolved(b, err)
		return
	}

	prometheus.RecordBatchFailed()
	p.increment(ctx, b, campaign.OutcomeFailed)
}

// increment applies the batch outcome to the campaign aggregate, retrying on
// transient errors such as lock contention. The terminal batch update has
// already committed by now, so giving up leaves the counters behind by one;
// that is logged loudly rather than silently dropped.
func (p BatchProcessor) increment(ctx context.Context, b *campaign.BatchEntry, outcome campaign.Outcome) {
	var lastErr error
	for attempt := 1; attempt <= incrementRetries; attempt++ {
		status, err := p.repo.IncrementCampaignBatch(ctx, b.CampaignId, outcome)
		if err == nil {
			if status == campaign.StatusCompleted {
				p.notifier.CampaignCompleted(b.CampaignId, b.TenantId)
			}
			return
		}
		if err == campaign.ErrCampaignNotFound {
			log.Logger.WithField("campaign_id", b.CampaignId).Error("the campaign of a processed batch no longer exists")
			return
		}

		lastErr = err
		if !sleep(ctx, time.Duration(attempt)*p.backoffUnit/10) {
			return
		}
	}

	log.Logger.WithError(lastErr).WithFields(logrus.Fields{
		"campaign_id": b.CampaignId,
		"batch_id":    b.Id,
		"outcome":     outcome,
	}).Error("giving up applying a batch outcome to the campaign aggregate")
}

// logUnresolved covers the case where another worker already resolved the
// batch after a stale reclaim; reporting our outcome too would double-count
// it on the campaign.
func (p BatchProcessor) logUnresolved(b *campaign.BatchEntry, err error) {
	if err == campaign.ErrBatchAlreadyResolved {
		log.Logger.WithField("batch_id", b.Id).Warn("batch was already resolved by another worker, skipping the aggregate update")
		return
	}

	log.Logger.WithError(err).WithField("batch_id", b.Id).Error("error recording the batch outcome")
}
