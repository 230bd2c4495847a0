package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"textstream/campaign-dispatch/campaign"
	"textstream/campaign-dispatch/log"
	"textstream/campaign-dispatch/orchestrator"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

type campaignCreator interface {
	CreateCampaign(ctx context.Context, req *orchestrator.CreateRequest) (*orchestrator.CreateResult, error)
}

type campaignFetcher interface {
	GetCampaign(ctx context.Context, id uuid.UUID) (*campaign.Campaign, error)
}

// campaignResponse is the API shape of a campaign. Counters come straight
// from the aggregate row.
type campaignResponse struct {
	Id            string     `json:"id"`
	TenantId      string     `json:"tenant_id"`
	Channel       string     `json:"channel"`
	Status        string     `json:"status"`
	TotalContacts int        `json:"total_contacts"`
	TotalBatches  int        `json:"total_batches"`
	BatchesSent   int        `json:"batches_sent"`
	BatchesFailed int        `json:"batches_failed"`
	CreatedAt     time.Time  `json:"created_at"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func NewRouter(creator campaignCreator, fetcher campaignFetcher) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Post("/campaigns", createCampaignHandler(creator))
	r.Get("/campaigns/{campaignId}", getCampaignHandler(fetcher))

	return r
}

func createCampaignHandler(creator campaignCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := &orchestrator.CreateRequest{}
		if err := json.NewDecoder(r.Body).Decode(req); err != nil {
			writeError(w, http.StatusBadRequest, "the request body is not valid JSON")
			return
		}

		res, err := creator.CreateCampaign(r.Context(), req)
		if err != nil {
			writeCreateError(w, err)
			return
		}

		writeJson(w, http.StatusAccepted, res)
	}
}

func getCampaignHandler(fetcher campaignFetcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "campaignId"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "the campaign id is not a valid UUID")
			return
		}

		c, err := fetcher.GetCampaign(r.Context(), id)
		if err == campaign.ErrCampaignNotFound {
			writeError(w, http.StatusNotFound, "campaign not found")
			return
		}
		if err != nil {
			log.Logger.WithError(err).Error("error fetching a campaign for the API")
			writeError(w, http.StatusInternalServerError, "an unexpected error occurred")
			return
		}

		writeJson(w, http.StatusOK, newCampaignResponse(c))
	}
}

func writeCreateError(w http.ResponseWriter, err error) {
	var valErr *campaign.ValidationError
	if errors.As(err, &valErr) {
		writeError(w, http.StatusBadRequest, valErr.Error())
		return
	}

	var confErr *campaign.ConfigurationError
	if errors.As(err, &confErr) {
		writeError(w, http.StatusUnprocessableEntity, confErr.Error())
		return
	}

	log.Logger.WithError(err).Error("error creating a campaign via the API")
	writeError(w, http.StatusInternalServerError, "an unexpected error occurred")
}

func newCampaignResponse(c *campaign.Campaign) campaignResponse {
	res := campaignResponse{
		Id:            c.Id.String(),
		TenantId:      c.TenantId,
		Channel:       c.Channel.String(),
		Status:        c.Status,
		TotalContacts: c.TotalContacts,
		TotalBatches:  c.TotalBatches,
		BatchesSent:   c.BatchesSent,
		BatchesFailed: c.BatchesFailed,
		CreatedAt:     c.CreatedAt,
	}
	if c.CompletedAt.Valid {
		completedAt := c.CompletedAt.Time
		res.CompletedAt = &completedAt
	}

	return res
}

func writeJson(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Logger.WithError(err).Error("error encoding an API response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJson(w, status, errorResponse{Error: msg})
}
