package settings

import (
	"context"
	"database/sql"
	"fmt"

	"textstream/campaign-dispatch/campaign"
	"textstream/campaign-dispatch/config"
)

// ChannelSettings is the per-tenant configuration of one delivery channel,
// as managed outside this service. The engine only reads it.
type ChannelSettings struct {
	TenantId   string
	Channel    campaign.Channel
	Enabled    bool
	WebhookUrl string
}

type Store struct {
	db       *sql.DB
	fetchSql string
}

func NewStore(db *sql.DB, cfg *config.Config) *Store {
	fetchSql := `SELECT tenant_id, channel, enabled, webhook_url FROM tenant_channels WHERE tenant_id = $1 AND channel = $2`
	if cfg.DBDriver.MySQL() {
		fetchSql = "SELECT `tenant_id`, `channel`, `enabled`, `webhook_url` FROM `tenant_channels` WHERE `tenant_id` = ? AND `channel` = ?"
	}

	return &Store{
		db:       db,
		fetchSql: fetchSql,
	}
}

// Resolve returns the settings of an enabled channel, or a ConfigurationError
// when the tenant cannot dispatch on it. Campaign creation stops on that
// error before anything is persisted.
func (s *Store) Resolve(ctx context.Context, tenantId string, channel campaign.Channel) (*ChannelSettings, error) {
	cs := &ChannelSettings{}

	var ch string
	err := s.db.QueryRowContext(ctx, s.fetchSql, tenantId, channel.String()).Scan(&cs.TenantId, &ch, &cs.Enabled, &cs.WebhookUrl)
	if err == sql.ErrNoRows {
		return nil, campaign.NewConfigurationError(tenantId, channel, "the channel is not configured for this tenant")
	}
	if err != nil {
		return nil, fmt.Errorf("error fetching the channel settings for tenant %s: %w", tenantId, err)
	}
	cs.Channel = campaign.Channel(ch)

	if !cs.Enabled {
		return nil, campaign.NewConfigurationError(tenantId, channel, "the channel is disabled for this tenant")
	}
	if cs.WebhookUrl == "" {
		return nil, campaign.NewConfigurationError(tenantId, channel, "the channel has no webhook URL configured")
	}

	return cs, nil
}
