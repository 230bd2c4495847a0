package campaign

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

const (
	BatchStatusPending    = "pending"
	BatchStatusProcessing = "processing"
	BatchStatusSent       = "sent"
	BatchStatusFailed     = "failed"
)

const (
	ChannelSMS      Channel = "sms"
	ChannelWhatsApp Channel = "whatsapp"
	ChannelVoice    Channel = "voice"
)

type Channel string

var supportedChannels = map[Channel]bool{
	ChannelSMS:      true,
	ChannelWhatsApp: true,
	ChannelVoice:    true,
}

func (c Channel) Valid() bool {
	return supportedChannels[c]
}

func (c Channel) String() string {
	return string(c)
}

// Campaign is the aggregate root for a bulk send. Its counters are the single
// point of truth for completion; batch rows are never scanned to derive them.
type Campaign struct {
	Id            uuid.UUID
	TenantId      string
	Channel       Channel
	Status        string
	TotalContacts int
	TotalBatches  int
	BatchesSent   int
	BatchesFailed int
	CreatedAt     time.Time
	CompletedAt   sql.NullTime
}

// Recipient is one entry of a batch payload, as handed over by the
// contact directory.
type Recipient struct {
	Id         string            `json:"id"`
	Name       string            `json:"name"`
	Phone      string            `json:"phone"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// DeliveryConfig is the channel-specific configuration block. Known keys are
// validated per channel; everything else is forwarded opaquely to the receiver.
type DeliveryConfig map[string]string

func (dc DeliveryConfig) TemplateRef() string {
	return dc["template_ref"]
}

func (dc DeliveryConfig) SenderId() string {
	return dc["sender_id"]
}

func (dc DeliveryConfig) CallerId() string {
	return dc["caller_id"]
}

// BatchEntry is one durable row of the dispatch queue. A worker that claims
// the row owns it exclusively until it reaches a terminal status.
type BatchEntry struct {
	Id                uint
	CampaignId        uuid.UUID
	TenantId          string
	Channel           Channel
	BatchNumber       int
	TotalBatches      int
	Recipients        []Recipient
	DeliveryConfig    DeliveryConfig
	WebhookUrl        string
	Status            string
	ScheduledFor      time.Time
	ClaimId           *uuid.UUID
	ClaimedAt         sql.NullTime
	Attempts          int
	LastError         string
	ProviderMessageId string
	ProcessedAt       sql.NullTime
}

func (b *BatchEntry) RecipientsJson() ([]byte, error) {
	return json.Marshal(b.Recipients)
}

func (b *BatchEntry) DeliveryConfigJson() ([]byte, error) {
	if b.DeliveryConfig == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(b.DeliveryConfig)
}

// Claim is the set of batch entries one poll cycle took ownership of.
type Claim struct {
	Id      uuid.UUID
	Batches []*BatchEntry
}

// Outcome is the terminal result of a batch delivery, reported to the
// aggregate updater.
type Outcome string

const (
	OutcomeSent   Outcome = "sent"
	OutcomeFailed Outcome = "failed"
)
