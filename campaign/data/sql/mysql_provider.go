package sql

import (
	"fmt"
	"strings"
)

const batchInsertColumnCount = 10

type MysqlQueryProvider struct {
	QueueTable    string
	CampaignTable string
	Columns       []string
}

func (m MysqlQueryProvider) ClaimBatchesSql(limit int) string {
	q := "UPDATE `%s` SET `claim_id` = ?, `status` = 'processing', `claimed_at` = NOW()" +
		" WHERE ((`status` = 'pending' AND `scheduled_for` <= NOW()) OR" +
		" (`status` = 'processing' AND `claimed_at` < ?)) ORDER BY `scheduled_for` ASC LIMIT %d"

	return fmt.Sprintf(q, m.QueueTable, limit)
}

func (m MysqlQueryProvider) ClaimedBatchFetchSql() string {
	return fmt.Sprintf("SELECT %s FROM `%s` WHERE `claim_id` = ? ORDER BY `scheduled_for` ASC", strings.Join(m.escapeColumns(), ", "), m.QueueTable)
}

func (m MysqlQueryProvider) BatchSentUpdateSql() string {
	q := "UPDATE `%s` SET `status` = 'sent', `provider_message_id` = ?, `attempts` = ?, `last_error` = '', `processed_at` = NOW() WHERE `id` = ? AND `status` = 'processing'"

	return fmt.Sprintf(q, m.QueueTable)
}

func (m MysqlQueryProvider) BatchFailedUpdateSql() string {
	q := "UPDATE `%s` SET `status` = 'failed', `last_error` = ?, `attempts` = ?, `processed_at` = NOW() WHERE `id` = ? AND `status` = 'processing'"

	return fmt.Sprintf(q, m.QueueTable)
}

func (m MysqlQueryProvider) CampaignInsertSql() string {
	q := "INSERT INTO `%s` (`id`, `tenant_id`, `channel`, `status`, `total_contacts`, `total_batches`, `batches_sent`, `batches_failed`, `created_at`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)"

	return fmt.Sprintf(q, m.CampaignTable)
}

func (m MysqlQueryProvider) BatchInsertSql(batchCount int) string {
	q := "INSERT INTO `%s` (`campaign_id`, `tenant_id`, `channel`, `batch_number`, `total_batches`, `recipients`, `delivery_config`, `webhook_url`, `status`, `scheduled_for`) VALUES %s"

	row := "(" + strings.Trim(strings.Repeat("?, ", batchInsertColumnCount), ", ") + ")"
	rows := make([]string, batchCount)
	for i := range rows {
		rows[i] = row
	}

	return fmt.Sprintf(q, m.QueueTable, strings.Join(rows, ", "))
}

func (m MysqlQueryProvider) CampaignDeleteSql() string {
	return fmt.Sprintf("DELETE FROM `%s` WHERE `id` = ?", m.CampaignTable)
}

func (m MysqlQueryProvider) CampaignLockSql() string {
	return fmt.Sprintf("SELECT `batches_sent`, `batches_failed`, `total_batches`, `status` FROM `%s` WHERE `id` = ? FOR UPDATE", m.CampaignTable)
}

func (m MysqlQueryProvider) CampaignCountersUpdateSql() string {
	q := "UPDATE `%s` SET `batches_sent` = ?, `batches_failed` = ?, `status` = ?, `completed_at` = COALESCE(`completed_at`, ?) WHERE `id` = ?"

	return fmt.Sprintf(q, m.CampaignTable)
}

func (m MysqlQueryProvider) CampaignFetchSql() string {
	q := "SELECT `id`, `tenant_id`, `channel`, `status`, `total_contacts`, `total_batches`, `batches_sent`, `batches_failed`, `created_at`, `completed_at` FROM `%s` WHERE `id` = ?"

	return fmt.Sprintf(q, m.CampaignTable)
}

func (m MysqlQueryProvider) DeleteProcessedBatchesSql() string {
	return fmt.Sprintf("DELETE FROM `%s` WHERE `processed_at` <= ?", m.QueueTable)
}

func (m MysqlQueryProvider) GetQueueSizeSql() string {
	return fmt.Sprintf("SELECT COUNT(*) FROM `%s` WHERE `processed_at` IS NULL", m.QueueTable)
}

func (m MysqlQueryProvider) GetTotalSizeSql() string {
	return fmt.Sprintf("SELECT COUNT(*) FROM `%s`", m.QueueTable)
}

func (m MysqlQueryProvider) escapeColumns() []string {
	var escaped []string
	for _, c := range m.Columns {
		escaped = append(escaped, "`"+c+"`")
	}

	return escaped
}
