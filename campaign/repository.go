package campaign

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	s "textstream/campaign-dispatch/campaign/data/sql"
	"textstream/campaign-dispatch/config"
	"textstream/campaign-dispatch/log"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	campaignTable = "campaigns"
	queueTable    = "campaign_queue"
)

var columns = []string{"id", "campaign_id", "tenant_id", "channel", "batch_number", "total_batches", "recipients", "delivery_config", "webhook_url", "status", "scheduled_for", "claimed_at", "attempts", "last_error", "provider_message_id", "processed_at"}

type queryProvider interface {
	ClaimBatchesSql(limit int) string
	ClaimedBatchFetchSql() string
	BatchSentUpdateSql() string
	BatchFailedUpdateSql() string
	CampaignInsertSql() string
	BatchInsertSql(batchCount int) string
	CampaignDeleteSql() string
	CampaignLockSql() string
	CampaignCountersUpdateSql() string
	CampaignFetchSql() string
	DeleteProcessedBatchesSql() string
	GetQueueSizeSql() string
	GetTotalSizeSql() string
}

type Repository struct {
	db            *sql.DB
	cfg           *config.Config
	queryProvider queryProvider
}

func NewRepository(db *sql.DB, cfg *config.Config) Repository {
	return NewRepositoryWithQueryProvider(db, cfg, newQueryProvider(cfg.DBDriver))
}

func NewRepositoryWithQueryProvider(db *sql.DB, cfg *config.Config, qp queryProvider) Repository {
	return Repository{
		db:            db,
		cfg:           cfg,
		queryProvider: qp,
	}
}

func (r Repository) CreateCampaign(ctx context.Context, c *Campaign) error {
	c.CreatedAt = time.Now().In(time.UTC)
	if c.Status == "" {
		c.Status = StatusPending
	}

	q := r.queryProvider.CampaignInsertSql()
	_, err := r.db.ExecContext(ctx, q, c.Id, c.TenantId, c.Channel.String(), c.Status, c.TotalContacts, c.TotalBatches, c.BatchesSent, c.BatchesFailed, c.CreatedAt)
	if err != nil {
		return errors.Errorf("campaign: error inserting campaign row in repository: %s", err)
	}

	return nil
}

// InsertBatches writes all batch rows for a campaign in one statement, so an
// enqueue either persists the full contiguous 1..total_batches sequence or
// nothing at all.
func (r Repository) InsertBatches(ctx context.Context, batches []*BatchEntry) error {
	if len(batches) == 0 {
		return nil
	}

	args := make([]interface{}, 0, len(batches)*10)
	for _, b := range batches {
		recipients, err := b.RecipientsJson()
		if err != nil {
			return errors.Errorf("campaign: error serializing batch recipients: %s", err)
		}
		cfg, err := b.DeliveryConfigJson()
		if err != nil {
			return errors.Errorf("campaign: error serializing batch delivery config: %s", err)
		}
		args = append(args, b.CampaignId, b.TenantId, b.Channel.String(), b.BatchNumber, b.TotalBatches, recipients, cfg, b.WebhookUrl, b.Status, b.ScheduledFor)
	}

	q := r.queryProvider.BatchInsertSql(len(batches))
	_, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return errors.Errorf("campaign: error bulk-inserting batch rows in repository: %s", err)
	}

	return nil
}

func (r Repository) DeleteCampaign(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, r.queryProvider.CampaignDeleteSql(), id)
	if err != nil {
		return errors.Errorf("campaign: error deleting campaign row in repository: %s", err)
	}

	return nil
}

func (r Repository) GetCampaign(ctx context.Context, id uuid.UUID) (*Campaign, error) {
	c := &Campaign{}
	var channel string

	err := r.db.QueryRowContext(ctx, r.queryProvider.CampaignFetchSql(), id).
		Scan(&c.Id, &c.TenantId, &channel, &c.Status, &c.TotalContacts, &c.TotalBatches, &c.BatchesSent, &c.BatchesFailed, &c.CreatedAt, &c.CompletedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrCampaignNotFound
		}
		return nil, errors.Errorf("campaign: error fetching campaign row in repository: %s", err)
	}

	c.Channel = Channel(channel)

	return c, nil
}

// ClaimDueBatches transitions up to the configured claim limit of due pending
// batches to processing, tagged with a fresh claim ID, and returns them. The
// conditional update means concurrent dispatchers can never claim the same
// row twice. Batches stuck in processing longer than the staleness timeout
// are reclaimed by the same statement.
// When no rows are due the special ErrNoDueBatches value is returned.
func (r Repository) ClaimDueBatches(ctx context.Context) (*Claim, error) {
	claimId := uuid.New()
	stale := time.Now().In(time.UTC).Add(-r.cfg.GetProcessingStaleDuration())

	res, err := r.db.ExecContext(ctx, r.queryProvider.ClaimBatchesSql(r.cfg.ClaimLimit), claimId, stale)
	if err != nil {
		return nil, errors.Errorf("campaign: error claiming a batch of queue entries in repository: %s", err)
	}

	// if there is an error determining the affected rows, we treat it as a failed
	// claim as the drivers we use never return an error value here
	count, _ := res.RowsAffected()
	if count < 1 {
		return nil, ErrNoDueBatches
	}

	rows, err := r.db.QueryContext(ctx, r.queryProvider.ClaimedBatchFetchSql(), claimId)
	if err != nil {
		return nil, errors.Errorf("campaign: error fetching claimed queue entries in repository: %s", err)
	}
	defer rows.Close()

	claim := &Claim{
		Id:      claimId,
		Batches: []*BatchEntry{},
	}

	for rows.Next() {
		b := &BatchEntry{}
		var recipients, deliveryCfg []byte
		var channel string

		err := rows.Scan(&b.Id, &b.CampaignId, &b.TenantId, &channel, &b.BatchNumber, &b.TotalBatches, &recipients, &deliveryCfg, &b.WebhookUrl, &b.Status, &b.ScheduledFor, &b.ClaimedAt, &b.Attempts, &b.LastError, &b.ProviderMessageId, &b.ProcessedAt)
		if err != nil {
			return nil, errors.Errorf("campaign: error scanning queue entry into memory in repository: %s", err)
		}

		if err = json.Unmarshal(recipients, &b.Recipients); err != nil {
			return nil, errors.Errorf("campaign: error deserializing recipients for batch %d: %s", b.Id, err)
		}
		if err = json.Unmarshal(deliveryCfg, &b.DeliveryConfig); err != nil {
			return nil, errors.Errorf("campaign: error deserializing delivery config for batch %d: %s", b.Id, err)
		}

		b.Channel = Channel(channel)
		cid := claimId
		b.ClaimId = &cid
		claim.Batches = append(claim.Batches, b)
	}

	return claim, nil
}

func (r Repository) MarkBatchSent(ctx context.Context, b *BatchEntry, providerMessageId string) error {
	res, err := r.db.ExecContext(ctx, r.queryProvider.BatchSentUpdateSql(), providerMessageId, b.Attempts, b.Id)
	if err != nil {
		return errors.Errorf("campaign: error marking batch %d as sent in repository: %s", b.Id, err)
	}

	if count, _ := res.RowsAffected(); count < 1 {
		return ErrBatchAlreadyResolved
	}

	return nil
}

func (r Repository) MarkBatchFailed(ctx context.Context, b *BatchEntry, lastError string) error {
	res, err := r.db.ExecContext(ctx, r.queryProvider.BatchFailedUpdateSql(), lastError, b.Attempts, b.Id)
	if err != nil {
		return errors.Errorf("campaign: error marking batch %d as failed in repository: %s", b.Id, err)
	}

	if count, _ := res.RowsAffected(); count < 1 {
		return ErrBatchAlreadyResolved
	}

	return nil
}

// IncrementCampaignBatch applies one terminal batch outcome to the campaign
// aggregate. The whole read-modify-write happens inside a transaction holding
// a row lock on the campaign, so concurrent workers finishing batches of the
// same campaign serialize here and no increment is ever lost. It returns the
// campaign status after the update.
func (r Repository) IncrementCampaignBatch(ctx context.Context, campaignId uuid.UUID, outcome Outcome) (string, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", errors.Errorf("campaign: error starting a DB transaction for the aggregate update: %s", err)
	}

	var sent, failed, total int
	var status string
	err = tx.QueryRowContext(ctx, r.queryProvider.CampaignLockSql(), campaignId).Scan(&sent, &failed, &total, &status)
	if err != nil {
		rollback(tx)
		if err == sql.ErrNoRows {
			return "", ErrCampaignNotFound
		}
		return "", errors.Errorf("campaign: error locking campaign row %s: %s", campaignId, err)
	}

	if sent+failed >= total {
		rollback(tx)
		return "", errors.Errorf("campaign: refusing to increment campaign %s beyond its batch total (%d sent, %d failed, %d total)", campaignId, sent, failed, total)
	}

	var completedAt interface{}
	switch outcome {
	case OutcomeSent:
		sent++
		if sent >= total {
			status = StatusCompleted
			completedAt = time.Now().In(time.UTC)
		} else {
			status = StatusInProgress
		}
	case OutcomeFailed:
		failed++
		// failed batches never advance the campaign status; completion means
		// every batch reached a terminal sent outcome
	default:
		rollback(tx)
		return "", errors.Errorf("campaign: unknown batch outcome %q for campaign %s", outcome, campaignId)
	}

	_, err = tx.ExecContext(ctx, r.queryProvider.CampaignCountersUpdateSql(), sent, failed, status, completedAt, campaignId)
	if err != nil {
		rollback(tx)
		return "", errors.Errorf("campaign: error updating campaign counters for %s: %s", campaignId, err)
	}

	if err = tx.Commit(); err != nil {
		return "", errors.Errorf("campaign: error committing the aggregate update for %s: %s", campaignId, err)
	}

	log.Logger.WithFields(logrus.Fields{
		"campaign_id":    campaignId.String(),
		"outcome":        outcome,
		"batches_sent":   sent,
		"batches_failed": failed,
		"status":         status,
	}).Debug("applied batch outcome to campaign aggregate")

	return status, nil
}

func (r Repository) DeleteProcessed(ctx context.Context, olderThan time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, r.queryProvider.DeleteProcessedBatchesSql(), olderThan)
	if err != nil {
		return 0, err
	}

	return res.RowsAffected()
}

func (r Repository) GetQueueSize() (uint, error) {
	res := r.db.QueryRow(r.queryProvider.GetQueueSizeSql())

	var count uint
	err := res.Scan(&count)
	if err != nil {
		return 0, err
	}

	return count, nil
}

func (r Repository) GetTotalSize() (uint, error) {
	res := r.db.QueryRow(r.queryProvider.GetTotalSizeSql())

	var count uint
	err := res.Scan(&count)
	if err != nil {
		return 0, err
	}

	return count, nil
}

func rollback(tx *sql.Tx) {
	if err := tx.Rollback(); err != nil {
		log.Logger.Errorf("error rolling back the DB transaction: %s", err)
	}
}

func newQueryProvider(d config.DbDriver) queryProvider {
	switch true {
	case d.Postgres():
		return &s.PostgresQueryProvider{
			QueueTable:    queueTable,
			CampaignTable: campaignTable,
			Columns:       columns,
		}
	case d.MySQL():
		return &s.MysqlQueryProvider{
			QueueTable:    queueTable,
			CampaignTable: campaignTable,
			Columns:       columns,
		}
	}

	return nil
}
