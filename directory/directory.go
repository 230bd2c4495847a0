package directory

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"textstream/campaign-dispatch/campaign"
	"textstream/campaign-dispatch/config"
	"textstream/campaign-dispatch/log"

	"github.com/sirupsen/logrus"
)

// Directory looks contacts up by ID for a tenant. Lookups are paged so a
// large campaign request never materialises one unbounded IN clause.
type Directory struct {
	db       *sql.DB
	pageSize int
	mysql    bool
}

func NewDirectory(db *sql.DB, cfg *config.Config) *Directory {
	return &Directory{
		db:       db,
		pageSize: cfg.DirectoryPageSize,
		mysql:    cfg.DBDriver.MySQL(),
	}
}

// FetchRecipients resolves contact IDs into recipients, preserving the
// requested order. IDs with no matching contact are dropped and logged;
// the caller decides whether the shortfall is acceptable.
func (d *Directory) FetchRecipients(ctx context.Context, tenantId string, contactIds []string) ([]campaign.Recipient, error) {
	found := map[string]campaign.Recipient{}

	for start := 0; start < len(contactIds); start += d.pageSize {
		end := start + d.pageSize
		if end > len(contactIds) {
			end = len(contactIds)
		}

		if err := d.fetchPage(ctx, tenantId, contactIds[start:end], found); err != nil {
			return nil, err
		}
	}

	recipients := make([]campaign.Recipient, 0, len(found))
	var missing []string
	for _, id := range contactIds {
		r, ok := found[id]
		if !ok {
			missing = append(missing, id)
			continue
		}
		recipients = append(recipients, r)
	}

	if len(missing) > 0 {
		log.Logger.WithFields(logrus.Fields{
			"tenant_id": tenantId,
			"requested": len(contactIds),
			"missing":   len(missing),
		}).Warn("some requested contacts were not found in the directory")
	}

	return recipients, nil
}

func (d *Directory) fetchPage(ctx context.Context, tenantId string, ids []string, found map[string]campaign.Recipient) error {
	query, args := d.pageQuery(tenantId, ids)

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("error fetching a contacts page for tenant %s: %w", tenantId, err)
	}
	defer rows.Close()

	for rows.Next() {
		var r campaign.Recipient
		var attributes []byte
		if err := rows.Scan(&r.Id, &r.Name, &r.Phone, &attributes); err != nil {
			return fmt.Errorf("error scanning a contact row: %w", err)
		}
		if len(attributes) > 0 {
			if err := json.Unmarshal(attributes, &r.Attributes); err != nil {
				return fmt.Errorf("error unmarshalling the attributes of contact %s: %w", r.Id, err)
			}
		}
		found[r.Id] = r
	}

	return rows.Err()
}

func (d *Directory) pageQuery(tenantId string, ids []string) (string, []interface{}) {
	args := make([]interface{}, 0, len(ids)+1)
	args = append(args, tenantId)

	placeholders := ""
	for i, id := range ids {
		if i > 0 {
			placeholders += ", "
		}
		if d.mysql {
			placeholders += "?"
		} else {
			placeholders += fmt.Sprintf("$%d", i+2)
		}
		args = append(args, id)
	}

	if d.mysql {
		return fmt.Sprintf("SELECT `id`, `name`, `phone`, `attributes` FROM `contacts` WHERE `tenant_id` = ? AND `id` IN (%s)", placeholders), args
	}

	return fmt.Sprintf(`SELECT id, name, phone, attributes FROM contacts WHERE tenant_id = $1 AND id IN (%s)`, placeholders), args
}
