package offline

import (
	"net/url"
	"strings"
)

// Strategy is how a request is answered.
type Strategy int

const (
	// CacheFirst serves a stored entry when present and only then asks the network.
	CacheFirst Strategy = iota
	// NetworkFirst asks the network and falls back to the stored entry on failure.
	NetworkFirst
)

func (s Strategy) String() string {
	if s == NetworkFirst {
		return "network-first"
	}
	return "cache-first"
}

// Policy classifies request URLs by path suffix.
type Policy struct {
	NetworkFirst []string
}

// Classify returns NetworkFirst when u's path ends with one of the
// configured suffixes, CacheFirst otherwise.
func (p Policy) Classify(u *url.URL) Strategy {
	for _, suffix := range p.NetworkFirst {
		if suffix != "" && strings.HasSuffix(u.Path, suffix) {
			return NetworkFirst
		}
	}
	return CacheFirst
}
