package orchestrator

import (
	"context"
	"fmt"
	"time"

	"textstream/campaign-dispatch/campaign"
	"textstream/campaign-dispatch/config"
	"textstream/campaign-dispatch/log"
	"textstream/campaign-dispatch/settings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type campaignStore interface {
	CreateCampaign(ctx context.Context, c *campaign.Campaign) error
	InsertBatches(ctx context.Context, batches []*campaign.BatchEntry) error
	DeleteCampaign(ctx context.Context, id uuid.UUID) error
}

type contactDirectory interface {
	FetchRecipients(ctx context.Context, tenantId string, contactIds []string) ([]campaign.Recipient, error)
}

type channelSettings interface {
	Resolve(ctx context.Context, tenantId string, channel campaign.Channel) (*settings.ChannelSettings, error)
}

type campaignNotifier interface {
	CampaignCreated(campaignId uuid.UUID, tenantId string)
}

// CreateRequest is the input to campaign creation, as accepted on the API.
type CreateRequest struct {
	TenantId       string                  `json:"tenant_id"`
	Channel        campaign.Channel        `json:"channel"`
	ContactIds     []string                `json:"contact_ids"`
	DeliveryConfig campaign.DeliveryConfig `json:"delivery_config"`
}

// CreateResult summarises an accepted campaign. EstimatedCompletion is the
// delivery time of the last batch under the configured stagger.
type CreateResult struct {
	CampaignId          uuid.UUID `json:"campaign_id"`
	TotalContacts       int       `json:"total_contacts"`
	TotalBatches        int       `json:"total_batches"`
	EstimatedCompletion time.Time `json:"estimated_completion"`
}

// Orchestrator turns a campaign request into a persisted campaign plus its
// queued batches. Creation is all or nothing: if enqueueing fails, the
// campaign row is removed again so no half-created campaign dispatches.
type Orchestrator struct {
	store     campaignStore
	directory contactDirectory
	settings  channelSettings
	notifier  campaignNotifier
	cfg       *config.Config
	now       func() time.Time
}

func NewOrchestrator(store campaignStore, directory contactDirectory, settings channelSettings, notifier campaignNotifier, cfg *config.Config) *Orchestrator {
	return &Orchestrator{
		store:     store,
		directory: directory,
		settings:  settings,
		notifier:  notifier,
		cfg:       cfg,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (o *Orchestrator) CreateCampaign(ctx context.Context, req *CreateRequest) (*CreateResult, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	chSettings, err := o.settings.Resolve(ctx, req.TenantId, req.Channel)
	if err != nil {
		return nil, err
	}

	recipients, err := o.directory.FetchRecipients(ctx, req.TenantId, req.ContactIds)
	if err != nil {
		return nil, fmt.Errorf("error resolving the campaign recipients: %w", err)
	}
	if len(recipients) == 0 {
		return nil, campaign.NewValidationError("contact_ids", "matched no contacts in the directory")
	}

	now := o.now()
	batches, err := campaign.Partition(recipients, o.cfg.BatchSize, o.cfg.GetStaggerInterval(), now)
	if err != nil {
		return nil, err
	}

	c := &campaign.Campaign{
		Id:            uuid.New(),
		TenantId:      req.TenantId,
		Channel:       req.Channel,
		Status:        campaign.StatusPending,
		TotalContacts: len(recipients),
		TotalBatches:  len(batches),
		CreatedAt:     now,
	}

	if err := o.store.CreateCampaign(ctx, c); err != nil {
		return nil, fmt.Errorf("error persisting the campaign: %w", err)
	}

	for _, b := range batches {
		b.CampaignId = c.Id
		b.TenantId = c.TenantId
		b.Channel = c.Channel
		b.DeliveryConfig = req.DeliveryConfig
		b.WebhookUrl = chSettings.WebhookUrl
	}

	if err := o.store.InsertBatches(ctx, batches); err != nil {
		o.compensate(ctx, c.Id)
		return nil, fmt.Errorf("error enqueueing the campaign batches: %w", err)
	}

	log.Logger.WithFields(logrus.Fields{
		"campaign_id":    c.Id,
		"tenant_id":      c.TenantId,
		"channel":        c.Channel,
		"total_contacts": c.TotalContacts,
		"total_batches":  c.TotalBatches,
	}).Info("campaign created")

	o.notifier.CampaignCreated(c.Id, c.TenantId)

	return &CreateResult{
		CampaignId:          c.Id,
		TotalContacts:       len(recipients),
		TotalBatches:        len(batches),
		EstimatedCompletion: batches[len(batches)-1].ScheduledFor,
	}, nil
}

// compensate removes the campaign row after a failed enqueue. Best effort; a
// leftover row with no batches never dispatches anything.
func (o *Orchestrator) compensate(ctx context.Context, id uuid.UUID) {
	if err := o.store.DeleteCampaign(ctx, id); err != nil {
		log.Logger.WithError(err).WithField("campaign_id", id).Error("error removing a campaign after a failed batch enqueue")
	}
}

func validate(req *CreateRequest) error {
	if req.TenantId == "" {
		return campaign.NewValidationError("tenant_id", "is required")
	}
	if !req.Channel.Valid() {
		return campaign.NewValidationError("channel", fmt.Sprintf("%q is not a supported channel", req.Channel))
	}
	if len(req.ContactIds) == 0 {
		return campaign.NewValidationError("contact_ids", "must not be empty")
	}

	switch req.Channel {
	case campaign.ChannelSMS:
		if req.DeliveryConfig.TemplateRef() == "" {
			return campaign.NewValidationError("delivery_config.template_ref", "is required for the sms channel")
		}
		if req.DeliveryConfig.SenderId() == "" {
			return campaign.NewValidationError("delivery_config.sender_id", "is required for the sms channel")
		}
	case campaign.ChannelWhatsApp:
		if req.DeliveryConfig.TemplateRef() == "" {
			return campaign.NewValidationError("delivery_config.template_ref", "is required for the whatsapp channel")
		}
	case campaign.ChannelVoice:
		if req.DeliveryConfig.CallerId() == "" {
			return campaign.NewValidationError("delivery_config.caller_id", "is required for the voice channel")
		}
	}

	return nil
}
