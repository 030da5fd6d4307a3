package dispatch

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/procuregate/gateway/internal/domain/document"
)

var (
	// ErrAlreadyRegistered is returned when a backend name is taken
	ErrAlreadyRegistered = errors.New("dispatch: backend already registered")
	// ErrInvalidCapabilities is returned when a capability set is
	// rejected at registration time
	ErrInvalidCapabilities = errors.New("dispatch: invalid capability set")
)

// Registry holds the named backends documents can be routed to.
// Capability sets are validated at registration so a dispatch never
// discovers a missing operation halfway through.
type Registry struct {
	mu       sync.RWMutex
	backends map[string]document.Capabilities
}

// NewRegistry creates an empty backend registry
func NewRegistry() *Registry {
	return &Registry{
		backends: make(map[string]document.Capabilities),
	}
}

// Register adds a backend under a unique name. The generic Send
// operation is required; typed overrides are optional.
func (r *Registry) Register(name string, caps document.Capabilities) error {
	if name == "" {
		return fmt.Errorf("%w: backend name is required", ErrInvalidCapabilities)
	}
	if caps.Send == nil {
		return fmt.Errorf("%w: backend '%s' has no send operation", ErrInvalidCapabilities, name)
	}
	for dt, fn := range caps.SendByType {
		if !dt.IsValid() || fn == nil {
			return fmt.Errorf("%w: backend '%s' has an invalid typed send entry", ErrInvalidCapabilities, name)
		}
	}
	for dt, fn := range caps.FetchByType {
		if !dt.IsValid() || fn == nil {
			return fmt.Errorf("%w: backend '%s' has an invalid typed fetch entry", ErrInvalidCapabilities, name)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.backends[name]; exists {
		return fmt.Errorf("%w: '%s'", ErrAlreadyRegistered, name)
	}
	r.backends[name] = caps
	return nil
}

// Resolve returns the capability set registered under name
func (r *Registry) Resolve(name string) (document.Capabilities, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	caps, ok := r.backends[name]
	return caps, ok
}

// ResolveSend returns the send operation for a backend and document
// type, preferring a typed override over the generic operation.
func (r *Registry) ResolveSend(name string, docType document.DocumentType) (document.SendFunc, error) {
	caps, ok := r.Resolve(name)
	if !ok {
		return nil, fmt.Errorf("%w: '%s'", document.ErrBackendNotFound, name)
	}
	if fn, ok := caps.SendByType[docType]; ok {
		return fn, nil
	}
	return caps.Send, nil
}

// ResolveFetch returns the fetch operation for a backend and document
// type, preferring a typed override over the generic operation.
func (r *Registry) ResolveFetch(name string, docType document.DocumentType) (document.FetchFunc, error) {
	caps, ok := r.Resolve(name)
	if !ok {
		return nil, fmt.Errorf("%w: '%s'", document.ErrBackendNotFound, name)
	}
	if fn, ok := caps.FetchByType[docType]; ok {
		return fn, nil
	}
	if caps.Fetch == nil {
		return nil, fmt.Errorf("%w: backend '%s' cannot fetch %s", document.ErrMissingCapability, name, docType)
	}
	return caps.Fetch, nil
}

// Names returns all registered backend names, sorted
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.backends))
	for name := range r.backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
