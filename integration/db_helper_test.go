//go:build integration
// +build integration

package integration

import (
	"context"
	"fmt"
	"strings"
	"time"

	"textstream/campaign-dispatch/campaign"

	"github.com/google/uuid"
)

func purgeTables() {
	for _, table := range []string{"campaign_queue", "campaigns"} {
		if _, err := db.Exec(fmt.Sprintf("DELETE FROM %s;", table)); err != nil {
			panic(fmt.Sprintf("an error occurred cleaning the %s table for tests: %s", table, err))
		}
	}
}

func createCampaignWithBatches(totalBatches int, deliveryConfig campaign.DeliveryConfig) (*campaign.Campaign, []*campaign.BatchEntry) {
	c := &campaign.Campaign{
		Id:            uuid.New(),
		TenantId:      "it-tenant",
		Channel:       campaign.ChannelSMS,
		Status:        campaign.StatusPending,
		TotalContacts: totalBatches,
		TotalBatches:  totalBatches,
	}
	if err := repo.CreateCampaign(context.Background(), c); err != nil {
		panic(fmt.Sprintf("failed to create a campaign for tests: %s", err))
	}

	recipients := make([]campaign.Recipient, totalBatches)
	for i := range recipients {
		recipients[i] = campaign.Recipient{Id: fmt.Sprintf("it-c%d", i), Name: "Contact", Phone: "+44770000"}
	}

	batches, err := campaign.Partition(recipients, 1, 0, time.Now().UTC().Add(-time.Second))
	if err != nil {
		panic(fmt.Sprintf("failed to partition recipients for tests: %s", err))
	}

	for _, b := range batches {
		b.CampaignId = c.Id
		b.TenantId = c.TenantId
		b.Channel = c.Channel
		b.DeliveryConfig = deliveryConfig
		b.WebhookUrl = receiver.URL
	}

	if err := repo.InsertBatches(context.Background(), batches); err != nil {
		panic(fmt.Sprintf("failed to insert batches for tests: %s", err))
	}

	return c, batches
}

func getQueueRow(campaignId uuid.UUID, batchNumber int) *campaign.BatchEntry {
	q := "SELECT id, status, attempts, last_error, provider_message_id FROM campaign_queue WHERE campaign_id = ? AND batch_number = ?"
	if cfg.DBDriver.Postgres() {
		q = strings.Replace(q, "?", "$1", 1)
		q = strings.Replace(q, "?", "$2", 1)
	}

	b := &campaign.BatchEntry{}
	err := db.QueryRow(q, campaignId, batchNumber).Scan(&b.Id, &b.Status, &b.Attempts, &b.LastError, &b.ProviderMessageId)
	if err != nil {
		panic(fmt.Sprintf("failed to fetch a queue row for tests: %s", err))
	}

	return b
}

func markQueueRowProcessed(batchId uint, processedAt time.Time) {
	q := "UPDATE campaign_queue SET status = 'sent', processed_at = ? WHERE id = ?"
	if cfg.DBDriver.Postgres() {
		q = strings.Replace(q, "?", "$1", 1)
		q = strings.Replace(q, "?", "$2", 1)
	}

	if _, err := db.Exec(q, processedAt, batchId); err != nil {
		panic(fmt.Sprintf("failed to mark a queue row processed for tests: %s", err))
	}
}

func countQueueRows() int {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM campaign_queue").Scan(&count); err != nil {
		panic(fmt.Sprintf("failed to count queue rows for tests: %s", err))
	}
	return count
}
