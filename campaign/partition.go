package campaign

import (
	"time"

	"github.com/pkg/errors"
)

// Partition splits recipients into batches of at most batchSize, preserving
// input order, and assigns each batch a delivery time staggered by the given
// interval: batch i (0-based) is scheduled at now + i*stagger.
//
// An empty recipient list yields zero batches. A non-positive batch size is
// an input error.
func Partition(recipients []Recipient, batchSize int, stagger time.Duration, now time.Time) ([]*BatchEntry, error) {
	if batchSize <= 0 {
		return nil, errors.Errorf("campaign: batch size must be positive, got %d", batchSize)
	}

	total := numBatches(len(recipients), batchSize)
	batches := make([]*BatchEntry, 0, total)

	for i := 0; i < total; i++ {
		start := i * batchSize
		end := start + batchSize
		if end > len(recipients) {
			end = len(recipients)
		}

		batches = append(batches, &BatchEntry{
			BatchNumber:  i + 1,
			TotalBatches: total,
			Recipients:   recipients[start:end],
			Status:       BatchStatusPending,
			ScheduledFor: now.Add(time.Duration(i) * stagger),
		})
	}

	return batches, nil
}

func numBatches(recipientCount, batchSize int) int {
	return (recipientCount + batchSize - 1) / batchSize
}
