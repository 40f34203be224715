// Package catalog implements file-backed resource discovery. A catalog file
// lists the resources a manager may open; it is re-read on Reload so the
// available set can change while the process runs.
package catalog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Entry describes one resource in the catalog file.
type Entry struct {
	ID          string            `toml:"id" yaml:"id"`
	Class       string            `toml:"class" yaml:"class"`
	Tags        []string          `toml:"tags" yaml:"tags"`
	MaxUseCases int               `toml:"max_use_cases" yaml:"max_use_cases"`
	OpenLatency string            `toml:"open_latency" yaml:"open_latency"`
	FailOpen    bool              `toml:"fail_open" yaml:"fail_open"`
	Attributes  map[string]string `toml:"attributes" yaml:"attributes"`

	latency time.Duration
}

// Latency returns the parsed open latency.
func (e Entry) Latency() time.Duration { return e.latency }

// fileFormat is the on-disk layout. TOML files use [[resource]] tables.
type fileFormat struct {
	Resources []Entry `toml:"resource" yaml:"resources"`
}

// Catalog holds the entries of one catalog file.
type Catalog struct {
	mu      sync.RWMutex
	path    string
	entries []Entry
}

// Load reads the catalog at path. The format is chosen by extension:
// .toml, or .yaml/.yml.
func Load(path string) (*Catalog, error) {
	c := &Catalog{path: path}
	if err := c.Reload(); err != nil {
		return nil, err
	}
	return c, nil
}

// Path returns the catalog file path.
func (c *Catalog) Path() string { return c.path }

// Reload re-reads the file. On error the previous entries are kept.
func (c *Catalog) Reload() error {
	entries, err := parseFile(c.path)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.entries = entries
	c.mu.Unlock()
	return nil
}

// Entries returns the entries in file order.
func (c *Catalog) Entries() []Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Entry(nil), c.entries...)
}

// Lookup returns the entry with the given ID.
func (c *Catalog) Lookup(id string) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, e := range c.entries {
		if e.ID == id {
			return e, true
		}
	}
	return Entry{}, false
}

func parseFile(path string) ([]Entry, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var ff fileFormat
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		err = toml.Unmarshal(b, &ff)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &ff)
	default:
		return nil, fmt.Errorf("catalog %s: unsupported format %q", path, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}

	if err := validate(ff.Resources); err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return ff.Resources, nil
}

func validate(entries []Entry) error {
	seen := make(map[string]bool, len(entries))
	var errs []error
	for i := range entries {
		e := &entries[i]
		if e.ID == "" {
			errs = append(errs, fmt.Errorf("entry %d: id is required", i))
			continue
		}
		if seen[e.ID] {
			errs = append(errs, fmt.Errorf("entry %s: duplicate id", e.ID))
		}
		seen[e.ID] = true
		if e.MaxUseCases < 0 {
			errs = append(errs, fmt.Errorf("entry %s: max_use_cases must not be negative", e.ID))
		}
		if e.OpenLatency != "" {
			d, err := time.ParseDuration(e.OpenLatency)
			if err != nil {
				errs = append(errs, fmt.Errorf("entry %s: invalid open_latency: %w", e.ID, err))
			}
			e.latency = d
		}
	}
	return errors.Join(errs...)
}
