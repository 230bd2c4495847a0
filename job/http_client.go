package job

import (
	"io"
	"net/http"
)

// httpPoster is the subset of *http.Client the maintenance jobs need to
// reach sidecar endpoints.
type httpPoster interface {
	Post(url, contentType string, body io.Reader) (resp *http.Response, err error)
}
