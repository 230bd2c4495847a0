package prometheus

import (
	"net/http"

	"textstream/campaign-dispatch/config"
	h "textstream/campaign-dispatch/http"
	"textstream/campaign-dispatch/log"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// StartHttpServer serves the campaign API alongside the metrics and health
// endpoints on the configured address. It blocks.
func StartHttpServer(cfg *config.Config, db h.Pinger, api http.Handler) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", h.NewHealthzHandler(nil, db))
	mux.Handle("/", api)

	err := http.ListenAndServe(cfg.ServerAddr, mux)
	if err != nil {
		log.Logger.Fatalf("failed to start HTTP server: %s", err)
	}
}
