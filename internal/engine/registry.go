package engine

import (
	"fmt"
	"sort"
)

// Constructor builds an engine, one is called once per configured engine per run.
type Constructor func(opts Options) (Engine, error)

type RegistryEntry struct {
	Description string
	New         Constructor
}

// Registry maps a configured engine identifier to its constructor.
// It is built once at startup and passed to whoever needs it.
type Registry map[string]RegistryEntry

// DefaultRegistry contains every engine this program ships with.
func DefaultRegistry() Registry {
	return Registry{
		SCNName: {
			Description: "SCN corpus, session login with automatic re-login",
			New: func(opts Options) (Engine, error) {
				e, err := NewSCN(opts)
				if err != nil {
					return nil, err
				}
				return e, nil
			},
		},
		BNCName: {
			Description: "BNCweb, HTTP basic authentication",
			New: func(opts Options) (Engine, error) {
				e, err := NewBNC(opts)
				if err != nil {
					return nil, err
				}
				return e, nil
			},
		},
	}
}

func (r Registry) Has(name string) bool {
	_, ok := r[name]
	return ok
}

// Names returns the registered identifiers in sorted order.
func (r Registry) Names() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r Registry) New(name string, opts Options) (Engine, error) {
	entry, ok := r[name]
	if !ok {
		return nil, fmt.Errorf("unknown query engine: %s", name)
	}
	return entry.New(opts)
}
