package categories

import (
	"bytes"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"
)

// embeddedData contains the reference taxonomy definitions baked into the
// binary, one YAML file per categorization, named <name>.yaml.
//
//go:embed data/*.yaml
var embeddedData embed.FS

// The process-wide registry of loaded categorizations. Populated lazily on
// first access and write-once per name: a categorization is never replaced or
// removed once loaded.
var (
	registryMu sync.RWMutex
	registry   = make(map[string]*Categorization)
	loadGroup  singleflight.Group

	dataDirMu sync.RWMutex
	dataDir   string
)

// SetDataDir points the registry at a directory of definition files instead
// of the embedded reference data. It only affects categorizations that have
// not been loaded yet.
func SetDataDir(dir string) {
	dataDirMu.Lock()
	defer dataDirMu.Unlock()
	dataDir = dir
}

// Register adds an externally constructed categorization to the process-wide
// registry. Registering a name twice is an error; loaded categorizations are
// never replaced.
func Register(c *Categorization) error {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, exists := registry[c.name]; exists {
		return fmt.Errorf("categorization %q is already registered", c.name)
	}
	registry[c.name] = c
	return nil
}

// Get returns the categorization with the given name, loading it from the
// data directory or the embedded reference data on first access. Concurrent
// first accesses are deduplicated so each categorization is constructed at
// most once.
func Get(name string) (*Categorization, error) {
	registryMu.RLock()
	c, ok := registry[name]
	registryMu.RUnlock()
	if ok {
		return c, nil
	}

	v, err, _ := loadGroup.Do(name, func() (any, error) {
		// Re-check: another caller may have finished between the read
		// lock and joining the flight.
		registryMu.RLock()
		c, ok := registry[name]
		registryMu.RUnlock()
		if ok {
			return c, nil
		}
		loaded, err := loadDefinition(name)
		if err != nil {
			return nil, err
		}
		registryMu.Lock()
		if existing, ok := registry[name]; ok {
			loaded = existing
		} else {
			registry[name] = loaded
		}
		registryMu.Unlock()
		return loaded, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Categorization), nil
}

func loadDefinition(name string) (*Categorization, error) {
	raw, err := readDefinition(name)
	if err != nil {
		return nil, err
	}
	c, err := FromYAML(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	if c.name != name {
		return nil, fmt.Errorf("definition file for %q declares name %q", name, c.name)
	}
	return c, nil
}

func readDefinition(name string) ([]byte, error) {
	dataDirMu.RLock()
	dir := dataDir
	dataDirMu.RUnlock()
	if dir != "" {
		raw, err := os.ReadFile(filepath.Join(dir, name+".yaml"))
		if err != nil {
			return nil, fmt.Errorf("no definition for categorization %q in %s: %w", name, dir, err)
		}
		return raw, nil
	}
	raw, err := embeddedData.ReadFile("data/" + name + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("no embedded definition for categorization %q: %w", name, err)
	}
	return raw, nil
}

// RawDefinition returns the raw YAML definition of a categorization from the
// active data source, for callers that cache or checksum definitions.
func RawDefinition(name string) ([]byte, error) {
	return readDefinition(name)
}

// Names returns the names of all categorizations available through Get: the
// already-registered ones plus the definitions in the active data source.
func Names() []string {
	seen := make(map[string]bool)
	registryMu.RLock()
	for name := range registry {
		seen[name] = true
	}
	registryMu.RUnlock()

	dataDirMu.RLock()
	dir := dataDir
	dataDirMu.RUnlock()
	if dir != "" {
		if entries, err := os.ReadDir(dir); err == nil {
			for _, e := range entries {
				if !e.IsDir() && strings.HasSuffix(e.Name(), ".yaml") {
					seen[strings.TrimSuffix(e.Name(), ".yaml")] = true
				}
			}
		}
	} else if entries, err := embeddedData.ReadDir("data"); err == nil {
		for _, e := range entries {
			seen[strings.TrimSuffix(e.Name(), ".yaml")] = true
		}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FindCode searches for the given code or alias in all available
// categorizations. Categorizations that do not contain the code are simply
// skipped; categorizations that fail to load are skipped as well, since a
// broken definition must not make the cross-taxonomy search unusable.
func FindCode(code string) map[string]*Category {
	found := make(map[string]*Category)
	for _, name := range Names() {
		c, err := Get(name)
		if err != nil {
			continue
		}
		cat, err := c.Lookup(code)
		if err != nil {
			continue // an unknown code in one taxonomy is simply no match
		}
		found[name] = cat
	}
	return found
}
