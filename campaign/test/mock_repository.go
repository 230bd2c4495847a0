package test

import (
	"context"
	"sync"
	"time"

	"textstream/campaign-dispatch/campaign"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

type MockRepository struct {
	sync.RWMutex
	claimCallCount     int
	mockQueueSize      uint
	mockTotalSize      uint
	claimsToReturn     []*campaign.Claim
	sentBatches        map[uint]string
	failedBatches      map[uint]string
	increments         map[uuid.UUID]map[campaign.Outcome]int
	campaignTotals     map[uuid.UUID]int
	returnError        bool
	returnAlreadyDone  bool
	returnNoDueBatches bool
	incrementFailures  int
	deletedRowsCount   int64
}

func NewMockRepository() *MockRepository {
	return &MockRepository{
		claimsToReturn: []*campaign.Claim{},
		sentBatches:    map[uint]string{},
		failedBatches:  map[uint]string{},
		increments:     map[uuid.UUID]map[campaign.Outcome]int{},
		campaignTotals: map[uuid.UUID]int{},
	}
}

func (mr *MockRepository) ClaimDueBatches(ctx context.Context) (*campaign.Claim, error) {
	mr.Lock()
	defer mr.Unlock()
	mr.claimCallCount++

	if mr.returnNoDueBatches {
		return nil, campaign.ErrNoDueBatches
	}

	if mr.returnError {
		return nil, errors.New("oops")
	}

	return mr.popClaim(), nil
}

func (mr *MockRepository) MarkBatchSent(ctx context.Context, b *campaign.BatchEntry, providerMessageId string) error {
	mr.Lock()
	defer mr.Unlock()

	if mr.returnError {
		return errors.New("oops")
	}
	if mr.returnAlreadyDone {
		return campaign.ErrBatchAlreadyResolved
	}

	mr.sentBatches[b.Id] = providerMessageId
	return nil
}

func (mr *MockRepository) MarkBatchFailed(ctx context.Context, b *campaign.BatchEntry, lastError string) error {
	mr.Lock()
	defer mr.Unlock()

	if mr.returnError {
		return errors.New("oops")
	}
	if mr.returnAlreadyDone {
		return campaign.ErrBatchAlreadyResolved
	}

	mr.failedBatches[b.Id] = lastError
	return nil
}

func (mr *MockRepository) IncrementCampaignBatch(ctx context.Context, campaignId uuid.UUID, outcome campaign.Outcome) (string, error) {
	mr.Lock()
	defer mr.Unlock()

	if mr.incrementFailures > 0 {
		mr.incrementFailures--
		return "", errors.New("could not obtain lock")
	}

	if mr.increments[campaignId] == nil {
		mr.increments[campaignId] = map[campaign.Outcome]int{}
	}
	mr.increments[campaignId][outcome]++

	total, ok := mr.campaignTotals[campaignId]
	if ok && mr.increments[campaignId][campaign.OutcomeSent] >= total {
		return campaign.StatusCompleted, nil
	}

	return campaign.StatusInProgress, nil
}

func (mr *MockRepository) DeleteProcessed(ctx context.Context, olderThan time.Time) (int64, error) {
	if mr.returnError {
		return 0, errors.New("oops")
	}
	return mr.deletedRowsCount, nil
}

func (mr *MockRepository) GetQueueSize() (uint, error) {
	if mr.returnError {
		return 0, errors.New("oops")
	}

	return mr.mockQueueSize, nil
}

func (mr *MockRepository) GetTotalSize() (uint, error) {
	if mr.returnError {
		return 0, errors.New("oops")
	}

	return mr.mockTotalSize, nil
}

func (mr *MockRepository) AddClaim(c *campaign.Claim) {
	mr.Lock()
	defer mr.Unlock()
	mr.claimsToReturn = append(mr.claimsToReturn, c)
}

func (mr *MockRepository) ClaimCallCount() int {
	mr.RLock()
	defer mr.RUnlock()
	return mr.claimCallCount
}

func (mr *MockRepository) SentProviderMessageId(batchId uint) (string, bool) {
	mr.RLock()
	defer mr.RUnlock()
	id, ok := mr.sentBatches[batchId]
	return id, ok
}

func (mr *MockRepository) FailedReason(batchId uint) (string, bool) {
	mr.RLock()
	defer mr.RUnlock()
	reason, ok := mr.failedBatches[batchId]
	return reason, ok
}

func (mr *MockRepository) IncrementCount(campaignId uuid.UUID, outcome campaign.Outcome) int {
	mr.RLock()
	defer mr.RUnlock()
	return mr.increments[campaignId][outcome]
}

func (mr *MockRepository) SetCampaignTotal(campaignId uuid.UUID, total int) {
	mr.Lock()
	defer mr.Unlock()
	mr.campaignTotals[campaignId] = total
}

func (mr *MockRepository) ReturnErrors() {
	mr.returnError = true
}

func (mr *MockRepository) ReturnAlreadyResolved() {
	mr.returnAlreadyDone = true
}

func (mr *MockRepository) ReturnNoDueBatches() {
	mr.returnNoDueBatches = true
}

func (mr *MockRepository) FailIncrements(times int) {
	mr.incrementFailures = times
}

func (mr *MockRepository) SetQueueSize(size uint) {
	mr.mockQueueSize = size
}

func (mr *MockRepository) SetTotalSize(size uint) {
	mr.mockTotalSize = size
}

func (mr *MockRepository) SetDeletedRowsCount(c int64) {
	mr.deletedRowsCount = c
}

func (mr *MockRepository) popClaim() *campaign.Claim {
	if len(mr.claimsToReturn) == 0 {
		return nil
	}

	var c *campaign.Claim
	c, mr.claimsToReturn = mr.claimsToReturn[0], mr.claimsToReturn[1:]

	return c
}
