package dispatch

import (
	"context"
	"time"

	"textstream/campaign-dispatch/campaign"
	"textstream/campaign-dispatch/log"
)

type Poller interface {
	Poll(ctx context.Context, interval time.Duration)
}

type claimer interface {
	ClaimDueBatches(ctx context.Context) (*campaign.Claim, error)
}

func NewPoller(r claimer, ch chan<- *campaign.Claim) Poller {
	return &queuePoller{
		ch:   ch,
		repo: r,
	}
}

type queuePoller struct {
	ch   chan<- *campaign.Claim
	repo claimer
}

func (p queuePoller) Poll(ctx context.Context, interval time.Duration) {
	for {
		claim, err := p.repo.ClaimDueBatches(ctx)
		if err == campaign.ErrNoDueBatches {
			log.Logger.Debug("no batches are due, sleeping")
			if !sleep(ctx, interval) {
				return
			}
			continue
		}
		if err != nil {
			log.Logger.WithError(err).Errorf("an unexpected error occurred when polling the campaign queue: %s", err)
			if !sleep(ctx, interval) {
				return
			}
			continue
		}

		select {
		case p.ch <- claim:
			break
		case <-ctx.Done():
			return
		}

		if !sleep(ctx, interval) {
			return
		}
	}
}

// sleep waits for the poll interval or until the context is cancelled; it
// reports whether polling should carry on.
func sleep(ctx context.Context, interval time.Duration) bool {
	select {
	case <-time.After(interval):
		return true
	case <-ctx.Done():
		return false
	}
}
