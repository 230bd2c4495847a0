package test

import (
	"context"
	"sync"
	"time"

	"textstream/campaign-dispatch/campaign"
	"textstream/campaign-dispatch/webhook"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const alwaysFail = -1

type MockDeliverer struct {
	sync.RWMutex
	attempts     map[uint]int
	attemptTimes map[uint][]time.Time
	failures     map[uint]int
	ack          string
}

func NewMockDeliverer() *MockDeliverer {
	return &MockDeliverer{
		attempts:     map[uint]int{},
		attemptTimes: map[uint][]time.Time{},
		failures:     map[uint]int{},
		ack:          "prov-123",
	}
}

func (d *MockDeliverer) Deliver(ctx context.Context, b *campaign.BatchEntry) (*webhook.Ack, error) {
	d.Lock()
	defer d.Unlock()
	d.attempts[b.Id]++
	d.attemptTimes[b.Id] = append(d.attemptTimes[b.Id], time.Now())

	failures := d.failures[b.Id]
	if failures == alwaysFail || d.attempts[b.Id] <= failures {
		return nil, errors.New("webhook returned status 500")
	}

	return &webhook.Ack{MessageId: d.ack}, nil
}

func (d *MockDeliverer) AlwaysFail(batchId uint) {
	d.Lock()
	defer d.Unlock()
	d.failures[batchId] = alwaysFail
}

func (d *MockDeliverer) FailTimes(batchId uint, times int) {
	d.Lock()
	defer d.Unlock()
	d.failures[batchId] = times
}

func (d *MockDeliverer) DeliveryCount(batchId uint) int {
	d.RLock()
	defer d.RUnlock()
	return d.attempts[batchId]
}

// DeliveryTimes returns when each delivery attempt for the batch was made.
func (d *MockDeliverer) DeliveryTimes(batchId uint) []time.Time {
	d.RLock()
	defer d.RUnlock()
	return append([]time.Time{}, d.attemptTimes[batchId]...)
}

type MockCompletionNotifier struct {
	sync.RWMutex
	completed []uuid.UUID
}

func NewMockCompletionNotifier() *MockCompletionNotifier {
	return &MockCompletionNotifier{}
}

func (n *MockCompletionNotifier) CampaignCompleted(campaignId uuid.UUID, tenantId string) {
	n.Lock()
	defer n.Unlock()
	n.completed = append(n.completed, campaignId)
}

func (n *MockCompletionNotifier) WasNotified(campaignId uuid.UUID) bool {
	n.RLock()
	defer n.RUnlock()
	for _, id := range n.completed {
		if id == campaignId {
			return true
		}
	}
	return false
}
