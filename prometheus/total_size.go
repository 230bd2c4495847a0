package prometheus

import (
	"context"
	"time"

	"textstream/campaign-dispatch/log"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var campaignQueueTotalSize prom.Gauge

type totalSizer interface {
	GetTotalSize() (uint, error)
}

func init() {
	campaignQueueTotalSize = promauto.NewGauge(prom.GaugeOpts{
		Name: "campaign_dispatch_queue_total_size",
		Help: "The total size of the dispatch queue (all batches, processed included)",
	})
}

func ObserveTotalSize(repo totalSizer, ctx context.Context) {
	for {
		size, err := repo.GetTotalSize()
		if err != nil {
			log.Logger.WithError(err).Error("an error occurred determining the total size of the queue")
			time.Sleep(time.Second * 1)
			continue
		}

		select {
		case <-ctx.Done():
			return
		default:
			campaignQueueTotalSize.Set(float64(size))

			time.Sleep(time.Second * 1)
		}
	}
}
