package source

import (
	"fmt"
	"sync"

	"github.com/openshelf/bookdiscovery/internal/pkg/logger"
	"github.com/openshelf/bookdiscovery/internal/search/types"
)

// Constructor builds a source from its configuration
type Constructor func(*types.SourceConfig, *logger.Logger) (Source, error)

// Factory creates source instances
type Factory struct {
	mu           sync.RWMutex
	constructors map[types.SourceID]Constructor
}

// NewFactory creates a new source factory
func NewFactory() *Factory {
	f := &Factory{
		constructors: make(map[types.SourceID]Constructor),
	}

	// Register built-in sources
	f.Register(types.SourceOpenLibrary, NewOpenLibrarySource)
	f.Register(types.SourceInternetArchive, NewArchiveSource)
	f.Register(types.SourceGutenberg, NewGutenbergSource)

	return f
}

// Register registers a source constructor
func (f *Factory) Register(id types.SourceID, constructor Constructor) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.constructors[id] = constructor
}

// Create creates a source instance from configuration
func (f *Factory) Create(config *types.SourceConfig, log *logger.Logger) (Source, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	f.mu.RLock()
	constructor, exists := f.constructors[config.ID]
	f.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("%w: %s", types.ErrSourceNotFound, config.ID)
	}

	return constructor(config, log)
}

// ListSources returns a list of all registered source IDs
func (f *Factory) ListSources() []types.SourceID {
	f.mu.RLock()
	defer f.mu.RUnlock()

	ids := make([]types.SourceID, 0, len(f.constructors))
	for id := range f.constructors {
		ids = append(ids, id)
	}
	return ids
}

// DefaultConfig returns the stock configuration for a built-in source.
func DefaultConfig(id types.SourceID) *types.SourceConfig {
	switch id {
	case types.SourceOpenLibrary:
		return &types.SourceConfig{
			ID:      id,
			Name:    id.DisplayName(),
			APIHost: "https://openlibrary.org",
		}
	case types.SourceInternetArchive:
		return &types.SourceConfig{
			ID:      id,
			Name:    id.DisplayName(),
			APIHost: "https://archive.org",
		}
	case types.SourceGutenberg:
		return &types.SourceConfig{
			ID:      id,
			Name:    id.DisplayName(),
			APIHost: "https://gutendex.com",
		}
	default:
		return nil
	}
}
