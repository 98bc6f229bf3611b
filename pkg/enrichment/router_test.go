package enrichment

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDriver struct {
	name    string
	result  *Result
	lookErr error
	pingErr error
}

func (f *fakeDriver) Name() string { return f.name }
func (f *fakeDriver) Lookup(_ context.Context, indicator string) (*Result, error) {
	if f.lookErr != nil {
		return nil, f.lookErr
	}
	return f.result, nil
}
func (f *fakeDriver) Ping(_ context.Context) error { return f.pingErr }

func TestRouterLookupDispatchesByName(t *testing.T) {
	want := &Result{Indicator: "1.2.3.4", Source: "vt"}
	r := NewRouter([]Driver{&fakeDriver{name: "vt", result: want}})

	got, err := r.Lookup(context.Background(), "vt", "1.2.3.4")
	require.NoError(t, err)
	assert.Same(t, want, got)
}

func TestRouterLookupUnknownDriverErrors(t *testing.T) {
	r := NewRouter(nil)
	_, err := r.Lookup(context.Background(), "missing", "1.2.3.4")
	assert.Error(t, err)
}

func TestRouterNamesListsRegisteredDrivers(t *testing.T) {
	r := NewRouter([]Driver{&fakeDriver{name: "vt"}, &fakeDriver{name: "shodan"}})
	assert.ElementsMatch(t, []string{"vt", "shodan"}, r.Names())
}
