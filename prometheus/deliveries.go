package prometheus

import (
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	batchesDelivered prom.Counter
	batchesFailed    prom.Counter
)

func init() {
	batchesDelivered = promauto.NewCounter(prom.CounterOpts{
		Name: "campaign_dispatch_batches_delivered_total",
		Help: "The number of batches successfully delivered to their webhook",
	})
	batchesFailed = promauto.NewCounter(prom.CounterOpts{
		Name: "campaign_dispatch_batches_failed_total",
		Help: "The number of batches that exhausted all delivery attempts",
	})
}

func RecordBatchDelivered() {
	batchesDelivered.Inc()
}

func RecordBatchFailed() {
	batchesFailed.Inc()
}
