package offline

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

var (
	// ErrNotFound is returned by Bucket.Match when no entry is stored for a key.
	ErrNotFound = errors.New("no cached entry")
	// ErrInstallFailed wraps any failure while populating a worker's bucket.
	ErrInstallFailed = errors.New("install failed")
	// ErrNoResponse is returned when neither the network nor the cache could
	// answer a request.
	ErrNoResponse = errors.New("no response from network or cache")
)

// Entry is a stored response, keyed by the absolute request URL.
type Entry struct {
	URL      string      `json:"url"`
	Status   int         `json:"status"`
	Header   http.Header `json:"header"`
	Body     []byte      `json:"body"`
	StoredAt time.Time   `json:"stored_at"`
}

// Key returns the cache key for u: the absolute URL without its fragment.
func Key(u *url.URL) string {
	k := *u
	k.Fragment = ""
	k.RawFragment = ""
	return k.String()
}

// NewEntry drains and closes resp.Body into an Entry.
func NewEntry(key string, resp *http.Response) (*Entry, error) {
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body for %s: %w", key, err)
	}
	return &Entry{
		URL:      key,
		Status:   resp.StatusCode,
		Header:   resp.Header.Clone(),
		Body:     body,
		StoredAt: time.Now().UTC(),
	}, nil
}

// OK reports whether the stored status is 2xx.
func (e *Entry) OK() bool {
	return e.Status >= 200 && e.Status < 300
}

// Size returns the stored body length in bytes.
func (e *Entry) Size() int { return len(e.Body) }

// Response builds a fresh *http.Response for req from the entry.
func (e *Entry) Response(req *http.Request) *http.Response {
	header := e.Header.Clone()
	if header == nil {
		header = make(http.Header)
	}
	header.Set("Content-Length", strconv.Itoa(len(e.Body)))
	return &http.Response{
		Status:        fmt.Sprintf("%d %s", e.Status, http.StatusText(e.Status)),
		StatusCode:    e.Status,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader(e.Body)),
		ContentLength: int64(len(e.Body)),
		Request:       req,
	}
}

func (e *Entry) clone() *Entry {
	c := *e
	c.Header = e.Header.Clone()
	c.Body = bytes.Clone(e.Body)
	return &c
}
