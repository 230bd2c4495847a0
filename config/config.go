package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"textstream/campaign-dispatch/log"

	"github.com/alexflint/go-arg"
)

const (
	MySQL    DbDriver = "mysql"
	Postgres DbDriver = "postgres"
)

type DbDriver string

var supportedDbTypes = map[DbDriver]bool{
	Postgres: true,
	MySQL:    true,
}

type Config struct {
	SkipMigrations        bool     `arg:"--skip-migrations,env:SKIP_MIGRATIONS"`
	DBHost                string   `arg:"--db-host,env:DB_HOST,required"`
	DBPort                uint32   `arg:"--db-port,env:DB_PORT,required"`
	DBUser                string   `arg:"--db-user,env:DB_USER,required"`
	DBPass                string   `arg:"--db-pass,env:DB_PASS,required"`
	DBSchema              string   `arg:"--db-schema,env:DB_SCHEMA,required"`
	DBDriver              DbDriver `arg:"--db-driver,env:DB_DRIVER,required"`
	ServerAddr            string   `arg:"--server-addr,env:SERVER_ADDR"`
	BatchSize             int      `arg:"--batch-size,env:BATCH_SIZE"`
	StaggerIntervalSec    int      `arg:"--stagger-interval-sec,env:STAGGER_INTERVAL_SEC"`
	PollFrequencyMs       int      `arg:"--poll-frequency-ms,env:POLL_FREQUENCY_MS"`
	ClaimLimit            int      `arg:"--claim-limit,env:CLAIM_LIMIT"`
	DispatchConcurrency   int      `arg:"--dispatch-concurrency,env:DISPATCH_CONCURRENCY"`
	DeliveryAttempts      int      `arg:"--delivery-attempts,env:DELIVERY_ATTEMPTS"`
	WebhookTimeoutSec     int      `arg:"--webhook-timeout-sec,env:WEBHOOK_TIMEOUT_SEC"`
	ProcessingStaleMin    int      `arg:"--processing-stale-min,env:PROCESSING_STALE_MIN"`
	DirectoryPageSize     int      `arg:"--directory-page-size,env:DIRECTORY_PAGE_SIZE"`
	NotifyURL             string   `arg:"--notify-url,env:NOTIFY_URL"`
	RunCleanup            bool     `arg:"--cleanup,env:RUN_CLEANUP"`
	RunOptimize           bool     `arg:"--optimize,env:RUN_OPTIMIZE"`
	CleanupRetentionHours int      `arg:"--cleanup-retention-hours,env:CLEANUP_RETENTION_HOURS"`
	SidecarProxyUrl       string   `arg:"--sidecar-proxy-url,env:SIDECAR_PROXY_URL"`
}

func NewConfig() (*Config, error) {
	c := &Config{
		ServerAddr:            ":80",
		BatchSize:             20,
		StaggerIntervalSec:    120,
		PollFrequencyMs:       5000,
		ClaimLimit:            10,
		DispatchConcurrency:   5,
		DeliveryAttempts:      3,
		WebhookTimeoutSec:     10,
		ProcessingStaleMin:    10,
		DirectoryPageSize:     500,
		CleanupRetentionHours: 24,
	}
	arg.MustParse(c)

	if !supportedDbTypes[c.DBDriver] {
		return nil, fmt.Errorf("the DB_DRIVER provided (%s) is not supported", c.DBDriver)
	}

	return c, nil
}

func (c *Config) GetPollIntervalDuration() time.Duration {
	return time.Duration(c.PollFrequencyMs) * time.Millisecond
}

func (c *Config) GetStaggerInterval() time.Duration {
	return time.Duration(c.StaggerIntervalSec) * time.Second
}

func (c *Config) GetWebhookTimeout() time.Duration {
	return time.Duration(c.WebhookTimeoutSec) * time.Second
}

func (c *Config) GetProcessingStaleDuration() time.Duration {
	return time.Duration(c.ProcessingStaleMin) * time.Minute
}

func (c *Config) GetCleanupRetention() time.Duration {
	return time.Duration(c.CleanupRetentionHours) * time.Hour
}

func (c *Config) GetDSN() string {
	switch c.DBDriver {
	case MySQL:
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&multiStatements=true", c.DBUser, c.DBPass, c.DBHost, c.DBPort, c.DBSchema)
	case Postgres:
		return fmt.Sprintf("%s://%s@%s:%d/%s?sslmode=disable", c.DBDriver, url.UserPassword(c.DBUser, c.DBPass), c.DBHost, c.DBPort, c.DBSchema)
	default:
		log.Logger.Fatalf("the DB driver configured (%s) is not supported", c.DBDriver)
		return ""
	}
}

func (c Config) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]interface{}{
		"SkipMigrations":      c.SkipMigrations,
		"DBHost":              c.DBHost,
		"DBPort":              c.DBPort,
		"DBUser":              c.DBUser,
		"DBPass":              "xxxxx",
		"DBSchema":            c.DBSchema,
		"DBDriver":            c.DBDriver,
		"ServerAddr":          c.ServerAddr,
		"BatchSize":           c.BatchSize,
		"StaggerIntervalSec":  c.StaggerIntervalSec,
		"PollFrequencyMs":     c.PollFrequencyMs,
		"ClaimLimit":          c.ClaimLimit,
		"DispatchConcurrency": c.DispatchConcurrency,
		"DeliveryAttempts":    c.DeliveryAttempts,
		"WebhookTimeoutSec":   c.WebhookTimeoutSec,
		"ProcessingStaleMin":  c.ProcessingStaleMin,
		"DirectoryPageSize":   c.DirectoryPageSize,
		"NotifyURL":           c.NotifyURL,
		"RunCleanup":          c.RunCleanup,
		"RunOptimize":         c.RunOptimize,
		"SidecarProxyUrl":     c.SidecarProxyUrl,
	})
}

func (d DbDriver) MySQL() bool {
	return d == MySQL
}

func (d DbDriver) Postgres() bool {
	return d == Postgres
}

func (d DbDriver) String() string {
	return string(d)
}
