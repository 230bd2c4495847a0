package sql

import (
	"fmt"
	"strings"
)

type PostgresQueryProvider struct {
	QueueTable    string
	CampaignTable string
	Columns       []string
}

// The subselect locks its candidate rows with SKIP LOCKED so that a second
// claimer blocked on the same rows re-evaluates against fresh claims instead
// of overwriting them after the first claimer commits.
func (p PostgresQueryProvider) ClaimBatchesSql(limit int) string {
	q := `UPDATE %s SET claim_id = $1, status = 'processing', claimed_at = NOW()
		WHERE id IN(
			SELECT id FROM %s WHERE (status = 'pending' AND scheduled_for <= NOW()) OR
		(status = 'processing' AND claimed_at < $2) ORDER BY scheduled_for ASC LIMIT %d FOR UPDATE SKIP LOCKED)`

	return fmt.Sprintf(q, p.QueueTable, p.QueueTable, limit)
}

func (p PostgresQueryProvider) ClaimedBatchFetchSql() string {
	return fmt.Sprintf(`SELECT %s FROM %s WHERE claim_id = $1 ORDER BY scheduled_for ASC`, strings.Join(p.Columns, ", "), p.QueueTable)
}

func (p PostgresQueryProvider) BatchSentUpdateSql() string {
	q := `UPDATE %s SET status = 'sent', provider_message_id = $1, attempts = $2, last_error = '', processed_at = NOW() WHERE id = $3 AND status = 'processing'`

	return fmt.Sprintf(q, p.QueueTable)
}

func (p PostgresQueryProvider) BatchFailedUpdateSql() string {
	q := `UPDATE %s SET status = 'failed', last_error = $1, attempts = $2, processed_at = NOW() WHERE id = $3 AND status = 'processing'`

	return fmt.Sprintf(q, p.QueueTable)
}

func (p PostgresQueryProvider) CampaignInsertSql() string {
	q := `INSERT INTO %s (id, tenant_id, channel, status, total_contacts, total_batches, batches_sent, batches_failed, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	return fmt.Sprintf(q, p.CampaignTable)
}

func (p PostgresQueryProvider) BatchInsertSql(batchCount int) string {
	q := `INSERT INTO %s (campaign_id, tenant_id, channel, batch_number, total_batches, recipients, delivery_config, webhook_url, status, scheduled_for) VALUES %s`

	var rows []string
	for i := 0; i < batchCount; i++ {
		var placeholders []string
		for j := 1; j <= batchInsertColumnCount; j++ {
			placeholders = append(placeholders, fmt.Sprintf("$%d", i*batchInsertColumnCount+j))
		}
		rows = append(rows, "("+strings.Join(placeholders, ", ")+")")
	}

	return fmt.Sprintf(q, p.QueueTable, strings.Join(rows, ", "))
}

func (p PostgresQueryProvider) CampaignDeleteSql() string {
	return fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, p.CampaignTable)
}

func (p PostgresQueryProvider) CampaignLockSql() string {
	return fmt.Sprintf(`SELECT batches_sent, batches_failed, total_batches, status FROM %s WHERE id = $1 FOR UPDATE`, p.CampaignTable)
}

func (p PostgresQueryProvider) CampaignCountersUpdateSql() string {
	q := `UPDATE %s SET batches_sent = $1, batches_failed = $2, status = $3, completed_at = COALESCE(completed_at, $4) WHERE id = $5`

	return fmt.Sprintf(q, p.CampaignTable)
}

func (p PostgresQueryProvider) CampaignFetchSql() string {
	q := `SELECT id, tenant_id, channel, status, total_contacts, total_batches, batches_sent, batches_failed, created_at, completed_at FROM %s WHERE id = $1`

	return fmt.Sprintf(q, p.CampaignTable)
}

func (p PostgresQueryProvider) DeleteProcessedBatchesSql() string {
	return fmt.Sprintf(`DELETE FROM %s WHERE processed_at <= $1`, p.QueueTable)
}

func (p PostgresQueryProvider) GetQueueSizeSql() string {
	return fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE processed_at IS NULL`, p.QueueTable)
}

func (p PostgresQueryProvider) GetTotalSizeSql() string {
	return fmt.Sprintf(`SELECT COUNT(*) FROM %s`, p.QueueTable)
}
