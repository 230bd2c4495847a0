//go:build integration
// +build integration

package integration

import (
	"context"
	"database/sql"
	"encoding/json"
	nethttp "net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"time"

	"textstream/campaign-dispatch/campaign"
	"textstream/campaign-dispatch/campaign/data"
	"textstream/campaign-dispatch/config"
	"textstream/campaign-dispatch/dispatch"
	"textstream/campaign-dispatch/notify"
	"textstream/campaign-dispatch/webhook"
)

var (
	cfg      *config.Config
	db       *sql.DB
	repo     campaign.Repository
	receiver *httptest.Server
)

func init() {
	receiver = httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		payload := &webhook.Payload{}
		if err := json.NewDecoder(r.Body).Decode(payload); err != nil {
			w.WriteHeader(nethttp.StatusBadRequest)
			return
		}

		if payload.Config["force_fail"] == "true" {
			w.WriteHeader(nethttp.StatusInternalServerError)
			return
		}

		w.WriteHeader(nethttp.StatusOK)
		_, _ = w.Write([]byte(`{"message_id": "it-123"}`))
	}))

	setupConfig()

	db, _ = data.NewDB(cfg)
	purgeTables()

	repo = campaign.NewRepository(db, cfg)

	notifier := notify.NewNotifier(nethttp.DefaultClient, "")
	dispatch.Start(context.Background(), cfg, repo, notifier, nil)
}

func setupConfig() {
	cfg = &config.Config{
		DBHost:                getEnv("DB_HOST", "localhost"),
		DBPort:                uint32(getEnvInt("DB_PORT", 5432)),
		DBUser:                getEnv("DB_USER", "campaigns"),
		DBPass:                getEnv("DB_PASS", "campaigns"),
		DBSchema:              getEnv("DB_SCHEMA", "campaigns"),
		DBDriver:              config.DbDriver(getEnv("DB_DRIVER", "postgres")),
		BatchSize:             20,
		StaggerIntervalSec:    0,
		PollFrequencyMs:       100,
		ClaimLimit:            10,
		DispatchConcurrency:   2,
		DeliveryAttempts:      2,
		WebhookTimeoutSec:     5,
		ProcessingStaleMin:    10,
		DirectoryPageSize:     500,
		CleanupRetentionHours: 24,
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}

	i, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return i
}

func waitUntil(timeout time.Duration, cond func() bool) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(time.Millisecond * 50)
	}
	return false
}
