package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"time"

	"textstream/campaign-dispatch/campaign"
	"textstream/campaign-dispatch/log"

	"github.com/sirupsen/logrus"
)

const maxResponseBodySize = 1 << 20

type Client interface {
	Deliver(ctx context.Context, b *campaign.BatchEntry) (*Ack, error)
}

// Ack is the receiver's response to a delivered batch. The provider message
// ID is optional; receivers that do not return one still count as delivered.
type Ack struct {
	MessageId string `json:"message_id"`
}

// Payload is the JSON contract POSTed to the destination webhook for one
// batch. Config is forwarded opaquely; the engine does not interpret it.
type Payload struct {
	TenantId     string                  `json:"tenant_id"`
	Channel      string                  `json:"channel"`
	CampaignId   string                  `json:"campaign_id"`
	BatchNumber  int                     `json:"batch_number"`
	TotalBatches int                     `json:"total_batches"`
	Config       campaign.DeliveryConfig `json:"config"`
	Recipients   []campaign.Recipient    `json:"recipients"`
}

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

func NewClient(timeout time.Duration) Client {
	return NewClientWithDoer(&http.Client{Timeout: timeout})
}

func NewClientWithDoer(doer httpDoer) Client {
	return &client{
		httpClient: doer,
	}
}

type client struct {
	httpClient httpDoer
}

func (c *client) Deliver(ctx context.Context, b *campaign.BatchEntry) (*Ack, error) {
	body, err := json.Marshal(NewPayload(b))
	if err != nil {
		wrapErr := fmt.Errorf("error marshalling the batch payload for delivery: %w", err)
		log.Logger.Error(wrapErr)
		return nil, wrapErr
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.WebhookUrl, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("error creating the webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error delivering batch to the webhook: %w", err)
	}
	defer closeBody(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	log.Logger.WithFields(logrus.Fields{
		"batch_id": b.Id,
		"url":      b.WebhookUrl,
		"status":   resp.StatusCode,
	}).Debug("delivered batch to webhook")

	return readAck(resp.Body), nil
}

func NewPayload(b *campaign.BatchEntry) *Payload {
	return &Payload{
		TenantId:     b.TenantId,
		Channel:      b.Channel.String(),
		CampaignId:   b.CampaignId.String(),
		BatchNumber:  b.BatchNumber,
		TotalBatches: b.TotalBatches,
		Config:       b.DeliveryConfig,
		Recipients:   b.Recipients,
	}
}

// readAck extracts the optional provider message ID from the response body.
// A missing or malformed body is not a delivery failure.
func readAck(body io.Reader) *Ack {
	ack := &Ack{}

	raw, err := ioutil.ReadAll(io.LimitReader(body, maxResponseBodySize))
	if err != nil || len(raw) == 0 {
		return ack
	}

	if err := json.Unmarshal(raw, ack); err != nil {
		log.Logger.WithError(err).Debug("webhook response body is not a JSON ack, ignoring")
	}

	return ack
}

func closeBody(body io.Closer) {
	if err := body.Close(); err != nil {
		log.Logger.WithError(err).Debug("error closing the webhook response body")
	}
}
