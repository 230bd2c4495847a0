package sql

import (
	"strings"
	"testing"
)

func TestMysqlQueryProvider_ClaimBatchesSql(t *testing.T) {
	actual := createProvider().ClaimBatchesSql(20)

	if !strings.Contains(actual, "LIMIT 20") {
		t.Errorf("claim SQL does not contain the correct claim limit")
	}
	if !strings.Contains(actual, "`status` = 'processing' AND `claimed_at` < ?") {
		t.Errorf("claim SQL does not reclaim stale processing batches")
	}
}

func TestMysqlQueryProvider_BatchSentUpdateSql(t *testing.T) {
	actual := createProvider().BatchSentUpdateSql()

	exp := "UPDATE `campaign_queue` SET `status` = 'sent', `provider_message_id` = ?, `attempts` = ?, `last_error` = '', `processed_at` = NOW() WHERE `id` = ? AND `status` = 'processing'"

	if actual != exp {
		t.Errorf(`received "%s" but expected "%s"`, actual, exp)
	}
}

func TestMysqlQueryProvider_BatchInsertSql(t *testing.T) {
	actual := createProvider().BatchInsertSql(3)

	if !strings.Contains(actual, "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?), (?, ?, ?, ?, ?, ?, ?, ?, ?, ?), (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)") {
		t.Errorf("bulk insert SQL does not contain a placeholder group per batch: %s", actual)
	}
}

func TestMysqlQueryProvider_CampaignLockSql(t *testing.T) {
	actual := createProvider().CampaignLockSql()

	if !strings.Contains(actual, "FOR UPDATE") {
		t.Errorf("campaign lock SQL does not take a row lock")
	}
}

func TestMysqlQueryProvider_DeleteProcessedBatchesSql(t *testing.T) {
	actual := createProvider().DeleteProcessedBatchesSql()

	if !strings.Contains(actual, "WHERE `processed_at` <= ?") {
		t.Errorf("delete SQL does not contain a valid constraint")
	}
}

func createProvider() *MysqlQueryProvider {
	return &MysqlQueryProvider{
		QueueTable:    "campaign_queue",
		CampaignTable: "campaigns",
		Columns:       []string{"id", "campaign_id"},
	}
}
