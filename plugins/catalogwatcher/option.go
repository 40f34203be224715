package catalogwatcher

import (
	"github.com/bft-labs/lifecoord/internal/catalog"
	"github.com/bft-labs/lifecoord/pkg/manager"
)

// WithCatalogWatcher returns a manager Option that enables catalog watching.
//
// Usage:
//
//	cfg = cfg.With(catalogwatcher.WithCatalogWatcher(cat, catalogwatcher.Config{
//	    DebounceDelay: 100 * time.Millisecond,
//	}))
func WithCatalogWatcher(c *catalog.Catalog, cfg Config) manager.Option {
	return manager.WithPlugin(New(c, cfg))
}

// WithDefaultCatalogWatcher enables catalog watching with default settings.
func WithDefaultCatalogWatcher(c *catalog.Catalog) manager.Option {
	return WithCatalogWatcher(c, DefaultConfig())
}
