package http

import (
	"net"
	"net/http"
	"time"

	"textstream/campaign-dispatch/log"
)

const dialCheckTimeout = time.Second

// Pinger reports whether the backing database is reachable.
type Pinger interface {
	Ping() error
}

type healthzHandler struct {
	checkAddr []string
	db        Pinger
}

// NewHealthzHandler serves liveness checks against the database and, when the
// readiness query parameter is set, TCP reachability of the given addresses.
func NewHealthzHandler(checkAddr []string, db Pinger) http.Handler {
	return &healthzHandler{
		checkAddr: checkAddr,
		db:        db,
	}
}

func (h healthzHandler) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	healthy := h.pingDatabase()
	if req.URL.Query().Get("readiness") == "1" {
		healthy = healthy && h.dialPeers()
	}

	if !healthy {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (h healthzHandler) pingDatabase() bool {
	if err := h.db.Ping(); err != nil {
		log.Logger.WithError(err).Debug("database is not reachable")
		return false
	}
	return true
}

func (h healthzHandler) dialPeers() bool {
	healthy := true
	for _, host := range h.checkAddr {
		conn, err := net.DialTimeout("tcp", host, dialCheckTimeout)
		if err != nil {
			healthy = false
			log.Logger.Debugf("unable to connect to %s", host)
			continue
		}
		_ = conn.Close()
	}
	return healthy
}
