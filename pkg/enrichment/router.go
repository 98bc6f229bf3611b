package enrichment

import (
	"context"
	"fmt"
)

// Router dispatches a Lookup to the named Driver. Grounded on
// pkg/mcp/router.go's name-to-implementation dispatch shape, minus MCP's
// per-server tool-filtering concern (an enrichment driver exposes exactly
// one operation: Lookup).
type Router struct {
	drivers map[string]Driver
}

// NewRouter builds a Router from an already-constructed driver set.
// Duplicate names overwrite earlier entries; the caller controls ordering.
func NewRouter(drivers []Driver) *Router {
	r := &Router{drivers: make(map[string]Driver, len(drivers))}
	for _, d := range drivers {
		r.drivers[d.Name()] = d
	}
	return r
}

// Lookup dispatches to the named driver.
func (r *Router) Lookup(ctx context.Context, driverName, indicator string) (*Result, error) {
	d, ok := r.drivers[driverName]
	if !ok {
		return nil, fmt.Errorf("enrichment: unknown driver %q", driverName)
	}
	return d.Lookup(ctx, indicator)
}

// Names returns the configured driver names, for diagnostics/UI listing.
func (r *Router) Names() []string {
	names := make([]string, 0, len(r.drivers))
	for name := range r.drivers {
		names = append(names, name)
	}
	return names
}

// Driver returns the named driver and whether it was found, for
// HealthMonitor's probe loop.
func (r *Router) Driver(name string) (Driver, bool) {
	d, ok := r.drivers[name]
	return d, ok
}
