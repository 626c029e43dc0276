package plugin

import (
	"fmt"
	"sync"

	streamyerrors "github.com/alexisbeaulieu97/streamy/pkg/errors"
)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Runner)
)

// Register adds a runner implementation for the step type it reports via
// Type(). Re-registering the same type is an error, matching the package's
// original registration semantics.
func Register(r Runner) error {
	if r == nil {
		return streamyerrors.NewPluginError("", fmt.Errorf("runner is nil"))
	}

	stepType := r.Type()

	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[stepType]; exists {
		return streamyerrors.NewPluginError(stepType, fmt.Errorf("runner already registered"))
	}

	registry[stepType] = r
	return nil
}

// Get retrieves a runner by step type.
func Get(stepType string) (Runner, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	r, ok := registry[stepType]
	if !ok {
		return nil, streamyerrors.NewPluginError(stepType, fmt.Errorf("no runner registered"))
	}

	return r, nil
}

// ResetRegistry clears runner registrations (for tests).
func ResetRegistry() {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = make(map[string]Runner)
}
