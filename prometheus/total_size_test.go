package prometheus

import (
	"context"
	"testing"
	"time"

	"textstream/campaign-dispatch/campaign/test"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveTotalSize(t *testing.T) {
	repo := test.NewMockRepository()
	repo.SetTotalSize(150)

	ctx, cancel := context.WithCancel(context.Background())
	go ObserveTotalSize(repo, ctx)
	time.Sleep(time.Millisecond * 100)
	cancel()

	actual := testutil.ToFloat64(campaignQueueTotalSize)
	if actual != 150.00 {
		t.Errorf("expected campaignQueueTotalSize to be 150.000000, but got %f", actual)
	}
}

func TestObserveTotalSize_WithRepositoryError(t *testing.T) {
	campaignQueueTotalSize.Set(0.0)
	repo := test.NewMockRepository()
	repo.ReturnErrors()

	ctx, cancel := context.WithCancel(context.Background())
	go ObserveTotalSize(repo, ctx)
	time.Sleep(time.Millisecond * 100)
	cancel()

	actual := testutil.ToFloat64(campaignQueueTotalSize)
	if actual != 0.00 {
		t.Errorf("expected campaignQueueTotalSize to be 0.000000, but got %f", actual)
	}
}
