package job

import (
	"context"
	"net/http"
	"time"

	"textstream/campaign-dispatch/config"
	"textstream/campaign-dispatch/log"
)

type ProcessedDeleter interface {
	DeleteProcessed(ctx context.Context, olderThan time.Time) (int64, error)
}

type cleanup struct {
	pd        ProcessedDeleter
	retention time.Duration
	SidecarQuitter
}

// RunCleanup deletes processed queue rows older than the configured
// retention. It is intended to run as a scheduled one-shot job.
func RunCleanup(repo ProcessedDeleter, cfg *config.Config) int {
	j := newCleanupWithDefaultClient(repo, cfg.GetCleanupRetention())
	if cfg.SidecarProxyUrl != "" {
		j.EnableSideCarProxyQuit(cfg.SidecarProxyUrl)
	}

	_, err := j.Execute()
	if err != nil {
		return 1
	}

	return 0
}

func newCleanupWithDefaultClient(pd ProcessedDeleter, retention time.Duration) *cleanup {
	return newCleanup(pd, retention, http.DefaultClient)
}

func newCleanup(pd ProcessedDeleter, retention time.Duration, cl httpPoster) *cleanup {
	return &cleanup{
		pd:        pd,
		retention: retention,
		SidecarQuitter: SidecarQuitter{
			Client: cl,
		},
	}
}

func (c *cleanup) Execute() (int64, error) {
	rows, err := c.pd.DeleteProcessed(context.Background(), time.Now().Add(-c.retention))
	if err != nil {
		log.Logger.WithError(err).Error("an error occurred whilst deleting processed queue records")
		return 0, err
	}

	log.Logger.Infof("deleted %d processed queue records", rows)

	if c.QuitSidecar {
		err = c.Quit()
		if err != nil {
			return 0, err
		}
	}

	return rows, nil
}
