package fetch

import (
	"io"
	"log/slog"
	"net/http"
	"time"

	"slippymap/params"
	"slippymap/tiles"
)

// Result is one completed tile fetch, tagged with the request id it was
// issued under. Either Err is set (transport failure) or Status/Body hold
// the HTTP outcome.
type Result struct {
	ID     tiles.RequestID
	Status int
	Body   []byte
	Err    error
}

// HTTPFetcher implements tiles.Fetcher over net/http. Requests run on their
// own goroutines; completed results queue on a channel for the host loop to
// drain, so the cache itself is only ever touched from one thread.
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
	results   chan Result
	logger    *slog.Logger
}

func NewHTTPFetcher() *HTTPFetcher {
	return &HTTPFetcher{
		client:    &http.Client{Timeout: 30 * time.Second},
		userAgent: params.UserAgent,
		results:   make(chan Result, 64),
		logger:    slog.With("fetcher", "http"),
	}
}

// Fetch issues a GET for url, fire-and-forget. There is no cancellation;
// a fetch for a tile no longer visible is allowed to complete and populate
// the cache for future reuse.
func (f *HTTPFetcher) Fetch(id tiles.RequestID, url string) {
	go func() {
		req, err := http.NewRequest(http.MethodGet, url, nil)
		if err != nil {
			f.results <- Result{ID: id, Err: err}
			return
		}
		req.Header.Set("User-Agent", f.userAgent)

		resp, err := f.client.Do(req)
		if err != nil {
			f.results <- Result{ID: id, Err: err}
			return
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			f.results <- Result{ID: id, Err: err}
			return
		}
		f.results <- Result{ID: id, Status: resp.StatusCode, Body: body}
	}()
}

// Results is the completion queue. The host drains it on its own loop and
// calls Deliver for each result.
func (f *HTTPFetcher) Results() <-chan Result {
	return f.results
}

// Deliver routes a drained result into the cache. Returns whether a
// redraw-worthy state change occurred.
func Deliver(c *tiles.Cache, r Result) bool {
	if r.Err != nil {
		c.HandleError(r.ID, r.Err)
		return false
	}
	return c.HandleResponse(r.ID, r.Status, r.Body)
}
