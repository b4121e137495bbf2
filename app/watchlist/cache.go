package watchlist

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Definition is one watched document declared in a YAML file
type Definition struct {
	Name        string `yaml:"-"` // derived from the filename
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	URL         string `yaml:"url"`
	Status      string `yaml:"status"`
	Category    string `yaml:"category"`
}

// Cache loads document definitions from a directory of YAML files and keeps
// them in memory. Definitions seed the documents table at startup.
type Cache struct {
	dir   string
	cache map[string]*Definition
	mu    sync.RWMutex
}

func NewCache(dir string) *Cache {
	return &Cache{
		dir:   dir,
		cache: make(map[string]*Definition),
	}
}

// Run loads every *.yml and *.yaml file in the watchlist directory. A
// missing directory is not an error; a malformed file is skipped with a
// warning so one bad definition cannot block the rest.
func (c *Cache) Run() error {
	if _, err := os.Stat(c.dir); os.IsNotExist(err) {
		return nil
	}

	var files []string
	for _, pattern := range []string{"*.yml", "*.yaml"} {
		matches, err := filepath.Glob(filepath.Join(c.dir, pattern))
		if err != nil {
			return fmt.Errorf("failed to find watchlist files: %w", err)
		}
		files = append(files, matches...)
	}
	sort.Strings(files)

	for _, file := range files {
		def, err := c.loadFile(file)
		if err != nil {
			slog.Warn("Skipping invalid watchlist file", "file", file, "error", err)
			continue
		}

		c.mu.Lock()
		c.cache[def.Name] = def
		c.mu.Unlock()

		slog.Debug("Watchlist definition loaded", "name", def.Name, "url", def.URL)
	}

	return nil
}

func (c *Cache) loadFile(file string) (*Definition, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	base := filepath.Base(file)
	def.Name = strings.TrimSuffix(base, filepath.Ext(base))

	if def.Title == "" {
		return nil, fmt.Errorf("title is required")
	}
	if def.URL == "" {
		return nil, fmt.Errorf("url is required")
	}
	if def.Status == "" {
		def.Status = "Healthy"
	}
	if def.Category == "" {
		def.Category = "General"
	}

	return &def, nil
}

// GetDefinitions returns all loaded definitions sorted by name
func (c *Cache) GetDefinitions() []*Definition {
	c.mu.RLock()
	defer c.mu.RUnlock()

	defs := make([]*Definition, 0, len(c.cache))
	for _, def := range c.cache {
		defs = append(defs, def)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })

	return defs
}

// Count returns the number of loaded definitions
func (c *Cache) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.cache)
}
