package catalog

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/seu-repo/utility-advisor/internal/domain"
	"github.com/seu-repo/utility-advisor/internal/ports"
)

//go:embed data/*.yaml
var embedded embed.FS

// Registry loads per-territory catalogs on first use and shares them read-only afterwards.
// Catalogs returned by CatalogFor must not be modified.
type Registry struct {
	log      *zap.Logger
	dir      string
	catalogs map[string]*domain.Catalog
	mu       sync.RWMutex
}

// NewRegistry creates a registry over the embedded catalogs. When dir is set, a
// <territory>.yaml file found there takes precedence over the embedded copy.
func NewRegistry(log *zap.Logger, dir string) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	return &Registry{
		log:      log,
		dir:      dir,
		catalogs: make(map[string]*domain.Catalog),
	}
}

var _ ports.CatalogRepository = (*Registry)(nil)

// CatalogFor returns the catalog of a territory
func (r *Registry) CatalogFor(ctx context.Context, territory string) (*domain.Catalog, error) {
	key := strings.ToUpper(strings.TrimSpace(territory))
	if key == "" {
		return nil, domain.ErrTerritoryRequired
	}

	r.mu.RLock()
	if c, ok := r.catalogs[key]; ok {
		r.mu.RUnlock()
		return c, nil
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.catalogs[key]; ok {
		return c, nil
	}

	data, source, err := r.read(key)
	if err != nil {
		return nil, err
	}
	c, err := Parse(data, key)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s catalog from %s: %w", key, source, err)
	}
	r.catalogs[key] = c

	r.log.Info("Program catalog loaded",
		zap.String("territory", key),
		zap.String("version", c.Version),
		zap.Int("entries", len(c.Entries)),
		zap.String("source", source),
	)
	return c, nil
}

// Territories lists every territory with a catalog, sorted
func (r *Registry) Territories() []string {
	seen := make(map[string]bool)
	if entries, err := fs.ReadDir(embedded, "data"); err == nil {
		for _, e := range entries {
			if name, ok := territoryFromFile(e.Name()); ok {
				seen[name] = true
			}
		}
	}
	if r.dir != "" {
		if entries, err := os.ReadDir(r.dir); err == nil {
			for _, e := range entries {
				if name, ok := territoryFromFile(e.Name()); ok && !e.IsDir() {
					seen[name] = true
				}
			}
		}
	}
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (r *Registry) read(territory string) ([]byte, string, error) {
	file := strings.ToLower(territory) + ".yaml"
	if r.dir != "" {
		path := filepath.Join(r.dir, file)
		data, err := os.ReadFile(path)
		if err == nil {
			return data, path, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, "", fmt.Errorf("failed to read catalog %s: %w", path, err)
		}
	}
	data, err := embedded.ReadFile("data/" + file)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, "", fmt.Errorf("%w: %s", domain.ErrCatalogNotFound, territory)
		}
		return nil, "", err
	}
	return data, "embedded:" + file, nil
}

// Parse decodes and validates a catalog document. Entries inherit the catalog's
// territory and version when they do not carry their own.
func Parse(data []byte, territory string) (*domain.Catalog, error) {
	var c domain.Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	if c.Territory == "" {
		c.Territory = territory
	}
	c.Territory = strings.ToUpper(c.Territory)
	if c.Version == "" {
		return nil, errors.New("catalog version is required")
	}

	seen := make(map[string]bool, len(c.Entries))
	for i := range c.Entries {
		e := &c.Entries[i]
		if e.ID == "" {
			return nil, fmt.Errorf("entry %d has no id", i)
		}
		if seen[e.ID] {
			return nil, fmt.Errorf("duplicate entry id %q", e.ID)
		}
		seen[e.ID] = true
		if e.Category == "" {
			return nil, fmt.Errorf("entry %q has no category", e.ID)
		}
		if len(e.Territories) == 0 {
			e.Territories = []string{c.Territory}
		}
		if e.Version == "" {
			e.Version = c.Version
		}
		if e.LastUpdated == "" {
			e.LastUpdated = c.LastUpdated
		}
	}
	return &c, nil
}

func territoryFromFile(name string) (string, bool) {
	if !strings.HasSuffix(name, ".yaml") {
		return "", false
	}
	return strings.ToUpper(strings.TrimSuffix(name, ".yaml")), true
}
