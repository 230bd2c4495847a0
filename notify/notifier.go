package notify

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"textstream/campaign-dispatch/log"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	EventCampaignCreated   = "campaign.created"
	EventCampaignCompleted = "campaign.completed"
)

type httpPoster interface {
	Post(url, contentType string, body io.Reader) (resp *http.Response, err error)
}

// Event is the body POSTed to the configured notification endpoint when a
// campaign changes state.
type Event struct {
	Name       string    `json:"event"`
	CampaignId string    `json:"campaign_id"`
	TenantId   string    `json:"tenant_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Notifier sends campaign lifecycle events in the background. Notifications
// are best effort; a failure is logged and never surfaces to the caller.
type Notifier struct {
	client httpPoster
	url    string
}

func NewNotifier(client httpPoster, url string) *Notifier {
	return &Notifier{
		client: client,
		url:    url,
	}
}

func (n *Notifier) CampaignCreated(campaignId uuid.UUID, tenantId string) {
	n.send(EventCampaignCreated, campaignId, tenantId)
}

func (n *Notifier) CampaignCompleted(campaignId uuid.UUID, tenantId string) {
	n.send(EventCampaignCompleted, campaignId, tenantId)
}

func (n *Notifier) send(name string, campaignId uuid.UUID, tenantId string) {
	if n.url == "" {
		return
	}

	ev := Event{
		Name:       name,
		CampaignId: campaignId.String(),
		TenantId:   tenantId,
		OccurredAt: time.Now().UTC(),
	}

	go func() {
		body, err := json.Marshal(ev)
		if err != nil {
			log.Logger.WithError(err).Error("error marshalling a campaign event")
			return
		}

		resp, err := n.client.Post(n.url, "application/json", bytes.NewReader(body))
		if err != nil {
			log.Logger.WithError(err).WithField("event", ev.Name).Error("error sending a campaign event notification")
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			log.Logger.WithFields(logrus.Fields{
				"event":  ev.Name,
				"status": resp.StatusCode,
			}).Error("the notification endpoint rejected a campaign event")
		}
	}()
}
