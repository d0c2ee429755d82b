package itinerary

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrMissingDays is returned for documents without a days list.
var ErrMissingDays = errors.New("itinerary has no days")

// Decode parses a JSON itinerary.
func Decode(r io.Reader) (*Itinerary, error) {
	var it Itinerary
	if err := json.NewDecoder(r).Decode(&it); err != nil {
		return nil, fmt.Errorf("decoding itinerary: %w", err)
	}
	if it.Days == nil {
		return nil, ErrMissingDays
	}
	return &it, nil
}

// DecodeYAML parses a YAML itinerary using the same field names as JSON.
func DecodeYAML(r io.Reader) (*Itinerary, error) {
	var it Itinerary
	if err := yaml.NewDecoder(r).Decode(&it); err != nil {
		return nil, fmt.Errorf("decoding itinerary: %w", err)
	}
	if it.Days == nil {
		return nil, ErrMissingDays
	}
	return &it, nil
}

// Load reads an itinerary file, picking the decoder from its extension.
func Load(path string) (*Itinerary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening itinerary %s: %w", path, err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return DecodeYAML(f)
	default:
		return Decode(f)
	}
}

// Encode returns the indented JSON form of the itinerary.
func Encode(it *Itinerary) ([]byte, error) {
	data, err := json.MarshalIndent(it, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding itinerary: %w", err)
	}
	return append(data, '\n'), nil
}
