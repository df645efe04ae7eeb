package job

import (
	"errors"
	"path/filepath"
	"runtime"
	"sync"
)

// Registry is the side table mapping handler source files to descriptors.
// Handler files populate it at module load via Register; generated code and
// tests populate it explicitly via RegisterAt. Discovery later resolves
// scanned paths back through Lookup.
//
// Paths are normalized with filepath.Clean before use as keys, and one
// descriptor is allowed per file — the same convention as a single default
// export per handler module.
//
// Registry is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

// entry holds either a descriptor or the reason the registration from that
// file is unusable. Broken registrations are surfaced at import time, not
// swallowed at registration time, so discovery can fail loud per file.
type entry struct {
	desc *Descriptor
	err  error
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*entry)}
}

// defaultRegistry backs the package-level Register used from handler files'
// init functions.
var defaultRegistry = NewRegistry()

// DefaultRegistry returns the process-wide registry that package-level
// Register writes to.
func DefaultRegistry() *Registry { return defaultRegistry }

// Register records the descriptor in the default registry under the calling
// file's path. Call it from the handler's own source file, typically in an
// init function or a package-level variable initializer.
func Register(d Descriptor) {
	_, file, _, ok := runtime.Caller(1)
	if !ok {
		file = "unknown"
	}
	defaultRegistry.RegisterAt(file, d)
}

// RegisterAt records the descriptor under an explicit source path. This is
// the entry point for generated registration tables and for tests.
func (r *Registry) RegisterAt(path string, d Descriptor) {
	key := filepath.Clean(path)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[key]; exists {
		r.entries[key] = &entry{err: errors.New("multiple descriptors registered from one file")}
		return
	}
	if err := checkDescriptor(&d); err != nil {
		r.entries[key] = &entry{err: err}
		return
	}
	r.entries[key] = &entry{desc: &d}
}

// Lookup returns the descriptor registered from the given path. The second
// return is non-nil when the file's registration was recorded as broken.
// Both returns are nil when nothing was registered from the path.
func (r *Registry) Lookup(path string) (*Descriptor, error) {
	key := filepath.Clean(path)

	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[key]
	if !ok {
		return nil, nil
	}
	return e.desc, e.err
}

// Paths returns all registered source paths, broken registrations included.
func (r *Registry) Paths() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	paths := make([]string, 0, len(r.entries))
	for p := range r.entries {
		paths = append(paths, p)
	}
	return paths
}

// checkDescriptor rejects descriptors that cannot be registered at all.
// Configuration-level problems (queue membership, missing schedule) are the
// extractor's concern, not the registry's.
func checkDescriptor(d *Descriptor) error {
	if d.New == nil {
		return errors.New("descriptor has no constructor")
	}
	if d.TypeName == "" && d.JobName == "" {
		return errors.New("descriptor has neither a type name nor a job name")
	}
	switch d.Kind {
	case KindDispatchable, KindSchedulable:
	default:
		return errors.New("descriptor has no kind")
	}
	return nil
}
