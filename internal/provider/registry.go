package provider

import (
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/cockroachdb/errors"
)

// Sentinel errors for registry operations.
var (
	// ErrProviderAlreadyRegistered is returned when attempting to register
	// a provider with an ID that is already in use.
	ErrProviderAlreadyRegistered = errors.New("provider already registered")

	// ErrInvalidProvider is returned when a descriptor is malformed.
	ErrInvalidProvider = errors.New("invalid provider descriptor")
)

// Registry manages provider registration and lookup.
// It is safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Descriptor
}

// NewRegistry creates a new empty provider registry.
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]Descriptor),
	}
}

// DefaultRegistry returns a registry preloaded with the built-in providers.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for _, d := range builtins() {
		// Built-in descriptors are constructed in this package; a
		// registration failure is a programming error.
		if err := r.Register(d); err != nil {
			panic(err)
		}
	}
	return r
}

// Register adds a provider descriptor to the registry.
// Returns an error if:
//   - The ID is empty or invalid (per ValidID)
//   - The descriptor has no generator or no files
//   - A provider with the same ID is already registered
func (r *Registry) Register(d Descriptor) error {
	if !ValidID(d.ID) {
		return errors.Wrapf(ErrInvalidProvider, "id %q", d.ID)
	}
	if d.Generate == nil || len(d.Files) == 0 {
		return errors.Wrapf(ErrInvalidProvider, "provider %q has no generator", d.ID)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.providers[d.ID]; exists {
		return errors.Wrapf(ErrProviderAlreadyRegistered, "id %q", d.ID)
	}

	r.providers[d.ID] = d
	return nil
}

// Get returns the descriptor registered under id.
func (r *Registry) Get(id string) (Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.providers[id]
	return d, ok
}

// IDs returns all registered provider IDs in sorted order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.providers))
	for id := range r.providers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Detect reports which registered providers already have generated files
// under the project's auth directory, in sorted order. A provider counts as
// present when its first generated file exists.
func (r *Registry) Detect(root string) []string {
	var present []string
	for _, id := range r.IDs() {
		d, _ := r.Get(id)
		if len(d.Files) == 0 {
			continue
		}
		if _, err := os.Stat(filepath.Join(root, filepath.FromSlash(d.Files[0]))); err == nil {
			present = append(present, id)
		}
	}
	return present
}
