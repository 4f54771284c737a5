package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/practicelog/internal/shared"
	"gopkg.in/yaml.v3"
)

// DefaultCatalogURL is the OpenOpus dump of composers and their works.
const DefaultCatalogURL = "https://api.openopus.org/work/dump.json"

// Catalog is a composer/work dump.
type Catalog struct {
	Composers []Composer `json:"composers" yaml:"composers"`
}

// Composer is one catalog entry and its works.
type Composer struct {
	CompleteName string `json:"complete_name" yaml:"complete_name"`
	Popular      Flag   `json:"popular" yaml:"popular"`
	Works        []Work `json:"works" yaml:"works"`
}

type Work struct {
	Title string `json:"title" yaml:"title"`
}

// Flag decodes the dump's "0"/"1" strings as well as plain booleans and numbers.
type Flag bool

func (f *Flag) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(string(data), `"`)
	if raw == "null" {
		*f = false
		return nil
	}
	return f.parse(raw)
}

func (f *Flag) UnmarshalYAML(node *yaml.Node) error {
	return f.parse(node.Value)
}

func (f *Flag) parse(raw string) error {
	if raw == "" {
		*f = false
		return nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return fmt.Errorf("%w: invalid popular flag %q", shared.ErrInvalidInput, raw)
	}
	*f = Flag(v)
	return nil
}

// CatalogFormat selects the decoder for a catalog source.
type CatalogFormat int

const (
	CatalogJSON CatalogFormat = iota
	CatalogYAML
)

// DecodeCatalog reads a catalog in the given format from r.
func DecodeCatalog(r io.Reader, format CatalogFormat) (*Catalog, error) {
	var catalog Catalog

	switch format {
	case CatalogYAML:
		if err := yaml.NewDecoder(r).Decode(&catalog); err != nil {
			return nil, fmt.Errorf("%w: failed to decode YAML catalog: %v", shared.ErrInvalidInput, err)
		}
	default:
		if err := json.NewDecoder(r).Decode(&catalog); err != nil {
			return nil, fmt.Errorf("%w: failed to decode JSON catalog: %v", shared.ErrInvalidInput, err)
		}
	}

	return &catalog, nil
}

// ReadCatalog loads a catalog file. Files ending in .yaml or .yml are decoded as YAML,
// anything else as JSON.
func ReadCatalog(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	defer f.Close()

	format := CatalogJSON
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		format = CatalogYAML
	}

	return DecodeCatalog(f, format)
}

// FetchCatalog downloads a JSON catalog from url.
//
// A nil client uses one with a thirty second timeout.
func FetchCatalog(ctx context.Context, client *http.Client, url string) (*Catalog, error) {
	if url == "" {
		return nil, fmt.Errorf("%w: empty catalog URL", shared.ErrMissingArgument)
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download catalog: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download catalog: status %d", resp.StatusCode)
	}

	return DecodeCatalog(resp.Body, CatalogJSON)
}
