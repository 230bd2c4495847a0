package prometheus

import (
	"context"
	"time"

	"textstream/campaign-dispatch/log"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var campaignQueueSize prom.Gauge

type queueSizer interface {
	GetQueueSize() (uint, error)
}

func init() {
	campaignQueueSize = promauto.NewGauge(prom.GaugeOpts{
		Name: "campaign_dispatch_queue_size",
		Help: "The current size of the dispatch queue (all unprocessed batches)",
	})
}

func ObserveQueueSize(sizer queueSizer, ctx context.Context) {
	for {
		size, err := sizer.GetQueueSize()
		if err != nil {
			log.Logger.WithError(err).Error("an error occurred determining the size of the queue")
			time.Sleep(time.Second * 1)
			continue
		}

		select {
		case <-ctx.Done():
			return
		default:
			campaignQueueSize.Set(float64(size))

			time.Sleep(time.Second * 1)
		}
	}
}
