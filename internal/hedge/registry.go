package hedge

import (
	"fmt"
	"sort"
	"sync"
)

const (
	MethodOLS    = "ols"
	MethodKalman = "kalman"
)

// Factory builds an estimator from tuning
type Factory func(cfg Config) Estimator

var (
	registry     = make(map[string]Factory)
	registryLock sync.RWMutex
)

// Register adds an estimator under name
func Register(name string, factory Factory) {
	registryLock.Lock()
	defer registryLock.Unlock()
	registry[name] = factory
}

// Get builds the estimator registered under name
func Get(name string, cfg Config) (Estimator, error) {
	registryLock.RLock()
	factory, ok := registry[name]
	registryLock.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown hedge method: %s (available: %v)", name, List())
	}
	return factory(cfg), nil
}

// List returns the registered names in order
func List() []string {
	registryLock.RLock()
	defer registryLock.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func init() {
	Register(MethodOLS, func(Config) Estimator { return NewStaticOLS() })
	Register(MethodKalman, func(cfg Config) Estimator { return NewTimeVarying(cfg) })
}
