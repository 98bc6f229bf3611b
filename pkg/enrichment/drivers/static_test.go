package drivers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sablecore/huntbay/pkg/enrichment"
)

func TestStaticLookupReturnsConfiguredResult(t *testing.T) {
	want := &enrichment.Result{Indicator: "1.2.3.4", Source: "fixtures", Score: 1}
	d := NewStatic("fixtures", map[string]*enrichment.Result{"1.2.3.4": want})

	got, err := d.Lookup(context.Background(), "1.2.3.4")
	require.NoError(t, err)
	assert.Same(t, want, got)
}

func TestStaticLookupMissingIndicatorErrors(t *testing.T) {
	d := NewStatic("fixtures", map[string]*enrichment.Result{})
	_, err := d.Lookup(context.Background(), "9.9.9.9")
	assert.Error(t, err)
}

func TestStaticPingAlwaysSucceeds(t *testing.T) {
	d := NewStatic("fixtures", nil)
	assert.NoError(t, d.Ping(context.Background()))
}
