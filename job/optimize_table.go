package job

import (
	"context"
	"database/sql"
	"net/http"

	"textstream/campaign-dispatch/config"
)

const queueTable = "campaign_queue"

type Optimizer interface {
	Execute(ctx context.Context) error
	EnableSideCarProxyQuit(proxyUrl string)
}

// RunOptimize reclaims storage on the queue table after a cleanup pass. It is
// intended to run as a scheduled one-shot job.
func RunOptimize(db *sql.DB, cfg *config.Config) int {
	j := newOptimizeTableWithDefaultClient(db, queueTable, cfg.DBDriver)
	if cfg.SidecarProxyUrl != "" {
		j.EnableSideCarProxyQuit(cfg.SidecarProxyUrl)
	}

	if err := j.Execute(context.Background()); err != nil {
		return 1
	}

	return 0
}

func newOptimizeTableWithDefaultClient(db *sql.DB, tableName string, dr config.DbDriver) Optimizer {
	return newOptimizeTable(db, tableName, dr, http.DefaultClient)
}

func newOptimizeTable(db *sql.DB, tableName string, dr config.DbDriver, cl httpPoster) Optimizer {
	sc := SidecarQuitter{Client: cl}
	switch true {
	case dr.MySQL():
		return &mysqlOptimizeTable{
			Db:             db,
			TableName:      tableName,
			SidecarQuitter: sc,
		}
	default:
		return &postgresOptimizeTable{
			Db:             db,
			TableName:      tableName,
			SidecarQuitter: sc,
		}
	}
}
