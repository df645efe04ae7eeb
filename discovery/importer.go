package discovery

import (
	"os"
	"path/filepath"

	"github.com/henriquealbert/foreman"
	"github.com/henriquealbert/foreman/job"
)

// Import resolves a candidate file to its registered descriptor.
//
// A nil descriptor with a nil error is a deliberate skip: the file exists
// but registered nothing, which is how helper files living next to
// handlers behave. A path that does not exist, or a file whose
// registration was recorded as broken, yields an ImportError — those are
// deployment failures the caller must surface.
func Import(registry *job.Registry, path string) (*job.Descriptor, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, &foreman.ImportError{Path: path, Err: err}
	}

	d, regErr := registry.Lookup(path)
	if regErr != nil {
		return nil, &foreman.ImportError{Path: path, Err: regErr}
	}
	if d != nil {
		return d, nil
	}

	// Registrations made via runtime.Caller carry the path as the
	// compiler recorded it, which is usually absolute. Retry with the
	// absolute form before treating the file as a non-handler.
	if abs, err := filepath.Abs(path); err == nil && abs != path {
		d, regErr = registry.Lookup(abs)
		if regErr != nil {
			return nil, &foreman.ImportError{Path: path, Err: regErr}
		}
	}
	return d, nil
}
