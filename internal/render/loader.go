package render

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/ziadkadry99/itinerary/internal/itinerary"
)

// Loader fetches the itinerary document the way the page does: one GET of
// the data file relative to the site's base URL, no retry.
type Loader struct {
	Client   *http.Client
	BaseURL  *url.URL
	DataPath string
}

// URL returns the absolute address of the data file.
func (l *Loader) URL() *url.URL {
	base := *l.BaseURL
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}
	ref := &url.URL{Path: l.DataPath}
	return base.ResolveReference(ref)
}

// Load fetches and decodes the itinerary. A non-2xx status is an error.
func (l *Loader) Load(ctx context.Context) (*itinerary.Itinerary, error) {
	client := l.Client
	if client == nil {
		client = http.DefaultClient
	}
	u := l.URL()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", u, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("failed to load data: %s", resp.Status)
	}

	switch strings.ToLower(path.Ext(u.Path)) {
	case ".yaml", ".yml":
		return itinerary.DecodeYAML(resp.Body)
	default:
		return itinerary.Decode(resp.Body)
	}
}
