package journal

import (
	"fmt"
	"sort"
	"sync"

	"github.com/rzpsarthak13/msgsql/internal/config"
	"github.com/rzpsarthak13/msgsql/internal/core"
)

// SinkFactory creates one kind of journal sink. Each implementation
// registers its factory from init().
type SinkFactory interface {
	// Create creates a new sink from the journal configuration.
	Create(config config.JournalConfig) (core.Sink, error)

	// Type returns the type identifier for this factory (e.g. "redis", "kafka").
	Type() string

	// Validate validates the configuration specific to this sink type.
	Validate(config config.JournalConfig) error
}

var (
	// factoryRegistry stores all registered sink factories.
	factoryRegistry = make(map[string]SinkFactory)

	// registryMutex protects the registry from concurrent access.
	registryMutex sync.RWMutex
)

// RegisterFactory registers a sink factory.
// Panics if factory is nil, type is empty, or type is already registered.
func RegisterFactory(factory SinkFactory) {
	if factory == nil {
		panic("factory cannot be nil")
	}
	if factory.Type() == "" {
		panic("factory type cannot be empty")
	}

	registryMutex.Lock()
	defer registryMutex.Unlock()

	if _, exists := factoryRegistry[factory.Type()]; exists {
		panic(fmt.Sprintf("factory for type %q is already registered", factory.Type()))
	}
	factoryRegistry[factory.Type()] = factory
}

// Create builds the sink selected by cfg.Type. None yields Discard and a
// list of types yields a MultiSink over every listed sink.
func Create(cfg config.JournalConfig) (core.Sink, error) {
	types := cfg.Types()
	if len(types) == 0 {
		return Discard, nil
	}

	sinks := make([]core.Sink, 0, len(types))
	for _, t := range types {
		sink, err := createOne(t, cfg)
		if err != nil {
			for _, created := range sinks {
				created.Close()
			}
			return nil, err
		}
		sinks = append(sinks, sink)
	}

	if len(sinks) == 1 {
		return sinks[0], nil
	}
	return NewMultiSink(sinks...), nil
}

func createOne(sinkType string, cfg config.JournalConfig) (core.Sink, error) {
	registryMutex.RLock()
	factory, exists := factoryRegistry[sinkType]
	registryMutex.RUnlock()

	if !exists {
		return nil, fmt.Errorf("unsupported journal type: %s", sinkType)
	}
	if err := factory.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", sinkType, err)
	}
	return factory.Create(cfg)
}

// GetRegisteredTypes returns the registered sink types in sorted order.
func GetRegisteredTypes() []string {
	registryMutex.RLock()
	defer registryMutex.RUnlock()

	types := make([]string, 0, len(factoryRegistry))
	for t := range factoryRegistry {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// IsTypeRegistered checks if a sink type is registered.
func IsTypeRegistered(sinkType string) bool {
	registryMutex.RLock()
	defer registryMutex.RUnlock()

	_, exists := factoryRegistry[sinkType]
	return exists
}

// configValidator adapts a factory's Validate to config.JournalValidator.
type configValidator struct {
	factory SinkFactory
}

func (v configValidator) Type() string {
	return v.factory.Type()
}

func (v configValidator) Validate(cfg *config.Config) error {
	return v.factory.Validate(cfg.Journal)
}

// register installs a factory and its config validator.
func register(factory SinkFactory) {
	RegisterFactory(factory)
	config.RegisterValidator(configValidator{factory: factory})
}
