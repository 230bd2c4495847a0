package job

import "textstream/campaign-dispatch/log"

const sidecarQuitEndpoint = "/quitquitquit"

// SidecarQuitter asks a service-mesh sidecar proxy to shut down after a
// one-shot job finishes, so the surrounding pod can terminate.
type SidecarQuitter struct {
	QuitSidecar     bool
	Client          httpPoster
	sidecarProxyUrl string
}

func (s *SidecarQuitter) EnableSideCarProxyQuit(proxyUrl string) {
	s.QuitSidecar = true
	s.sidecarProxyUrl = proxyUrl
}

func (s *SidecarQuitter) Quit() error {
	_, err := s.Client.Post(s.sidecarProxyUrl+sidecarQuitEndpoint, "text/plain", nil)
	if err != nil {
		log.Logger.WithError(err).Errorf("error asking the sidecar proxy to quit via %s", sidecarQuitEndpoint)
		return err
	}

	return nil
}
