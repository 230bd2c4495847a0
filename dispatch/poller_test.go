package dispatch

import (
	"context"
	"reflect"
	"runtime"
	"testing"
	"time"

	"textstream/campaign-dispatch/campaign"
	"textstream/campaign-dispatch/campaign/test"

	"github.com/google/uuid"
)

func TestNewPoller(t *testing.T) {
	repo := test.NewMockRepository()
	ch := make(chan *campaign.Claim)

	if nil == NewPoller(repo, ch) {
		t.Errorf("received nil from NewPoller()")
	}
}

func TestPoller_Poll(t *testing.T) {
	ch := make(chan *campaign.Claim, 2)

	c1 := &campaign.Claim{Id: uuid.New(), Batches: []*campaign.BatchEntry{{Id: 1}}}
	c2 := &campaign.Claim{Id: uuid.New(), Batches: []*campaign.BatchEntry{{Id: 2}}}

	repoWithClaims := test.NewMockRepository()
	repoWithClaims.AddClaim(c1)
	repoWithClaims.AddClaim(c2)

	t.Run("it polls for due batches and sends them for processing", func(t *testing.T) {
		p := NewPoller(repoWithClaims, ch)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go p.Poll(ctx, time.Millisecond*10)

		readFromChannelUntilClaimReceived(c1, ch, t)
		readFromChannelUntilClaimReceived(c2, ch, t)
	})

	t.Run("it sleeps after a repository error", func(t *testing.T) {
		repo := test.NewMockRepository()
		repo.ReturnErrors()

		ctx, cancel := context.WithCancel(context.Background())
		p := NewPoller(repo, ch)
		go p.Poll(ctx, time.Second*200)

		time.Sleep(time.Millisecond * 100)
		cancel()

		if repo.ClaimCallCount() > 1 {
			t.Errorf("expected the Poll func to sleep after ClaimDueBatches() returns an error")
		}
	})

	t.Run("it sleeps when no batches are due", func(t *testing.T) {
		repo := test.NewMockRepository()
		repo.ReturnNoDueBatches()

		ctx, cancel := context.WithCancel(context.Background())
		p := NewPoller(repo, ch)
		go p.Poll(ctx, time.Second*200)

		time.Sleep(time.Millisecond * 100)
		cancel()

		if repo.ClaimCallCount() > 1 {
			t.Errorf("expected the Poll func to sleep when no batches are due")
		}
	})

	t.Run("it stops polling when the context is cancelled", func(t *testing.T) {
		repo := test.NewMockRepository()
		repo.ReturnNoDueBatches()

		ctx, cancel := context.WithCancel(context.Background())
		p := NewPoller(repo, ch)
		go p.Poll(ctx, time.Millisecond)
		cancel()

		time.Sleep(time.Millisecond * 50)
		count := repo.ClaimCallCount()
		time.Sleep(time.Millisecond * 50)

		if repo.ClaimCallCount() > count+1 {
			t.Error("expected polling to stop after the context was cancelled")
		}
	})
}

func readFromChannelUntilClaimReceived(expected *campaign.Claim, ch chan *campaign.Claim, t *testing.T) {
	t.Helper()
	timeout := time.After(time.Second * 2)
	for {
		select {
		case got := <-ch:
			if got == nil {
				runtime.Gosched()
				continue
			}
			if reflect.DeepEqual(expected, got) {
				return
			}
		case <-timeout:
			t.Errorf("timed out waiting for claim %s", expected.Id)
			return
		}
	}
}
