package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type stubEngine struct {
	name string
}

func (s stubEngine) Name() string {
	return s.name
}

func (s stubEngine) Query(ctx context.Context, word string) (Record, error) {
	return Record{Word: word, HitCount: "1", PerMillion: "1"}, nil
}

func TestDefaultRegistry(t *testing.T) {
	registry := DefaultRegistry()
	require.Equal(t, []string{BNCName, SCNName}, registry.Names())
	require.True(t, registry.Has(SCNName))
	require.True(t, registry.Has(BNCName))
	require.False(t, registry.Has("scn"))

	opts := Options{Username: "user", Password: "pass", BaseUrl: "http://127.0.0.1:1"}
	for _, name := range registry.Names() {
		e, err := registry.New(name, opts)
		require.NoError(t, err)
		require.Equal(t, name, e.Name())
	}
}

func TestRegistryUnknownEngine(t *testing.T) {
	_, err := DefaultRegistry().New("COCA", Options{Username: "user", Password: "pass"})
	require.EqualError(t, err, "unknown query engine: COCA")
}

func TestRegistryConstructorError(t *testing.T) {
	_, err := DefaultRegistry().New(SCNName, Options{
		Username: "user",
		Password: "pass",
		BaseUrl:  "not a url",
	})
	require.Error(t, err)
}

func TestRegistryCustomEntry(t *testing.T) {
	registry := Registry{
		"STUB": {
			Description: "stub",
			New: func(opts Options) (Engine, error) {
				return stubEngine{name: "STUB"}, nil
			},
		},
	}

	e, err := registry.New("STUB", Options{})
	require.NoError(t, err)
	record, err := e.Query(context.Background(), "cat")
	require.NoError(t, err)
	require.Equal(t, []string{"cat", "1", "1"}, record.Fields())
}
