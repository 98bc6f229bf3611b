package huntmodule

import (
	"context"
	"fmt"
	"time"

	"github.com/sablecore/huntbay/ent"
	"github.com/sablecore/huntbay/ent/huntmodule"
)

// Store persists HuntModules via the generated ent client and serves reads
// through an in-memory Cache, so the Hunt Scheduler's per-hunt module
// lookup (spec §4.4 step 1) doesn't round-trip to Postgres on every hunt.
type Store struct {
	client *ent.Client
	cache  *Cache
}

// NewStore constructs a Store. A zero ttl disables expiration (every Get
// after the first hit serves from cache until an explicit Put/Delete).
func NewStore(client *ent.Client, ttl time.Duration) *Store {
	return &Store{client: client, cache: NewCache(ttl)}
}

// Put validates and upserts a Module, parsed from raw markdown source, and
// invalidates any cached entry for its id.
func (s *Store) Put(ctx context.Context, m *Module) error {
	if err := m.Validate(); err != nil {
		return err
	}

	osTypes := make([]string, 0, len(m.OSTypes))
	for _, t := range m.OSTypes {
		osTypes = append(osTypes, string(t))
	}

	_, err := s.client.HuntModule.Create().
		SetID(m.ID).
		SetName(m.Name).
		SetDescription(m.Description).
		SetOsTypes(osTypes).
		SetTags(m.Tags).
		SetSeverityHint(huntmodule.SeverityHint(m.SeverityHint)).
		SetRawSource(m.RawSource).
		OnConflictColumns(huntmodule.FieldID).
		UpdateNewValues().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("huntmodule store: upsert %s: %w", m.ID, err)
	}
	s.cache.Invalidate(m.ID)
	return nil
}

// Get returns the parsed Module for id, checking the cache before Postgres.
func (s *Store) Get(ctx context.Context, id string) (*Module, error) {
	if m, ok := s.cache.Get(id); ok {
		return m, nil
	}

	row, err := s.client.HuntModule.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("huntmodule store: get %s: %w", id, err)
	}
	m, err := fromRow(row)
	if err != nil {
		return nil, err
	}
	s.cache.Set(id, m)
	return m, nil
}

// List returns every stored Module, bypassing the cache (list results
// aren't individually keyed, so caching them would require a separate
// invalidation path for no real benefit at this scale).
func (s *Store) List(ctx context.Context) ([]*Module, error) {
	rows, err := s.client.HuntModule.Query().All(ctx)
	if err != nil {
		return nil, fmt.Errorf("huntmodule store: list: %w", err)
	}
	modules := make([]*Module, 0, len(rows))
	for _, row := range rows {
		m, err := fromRow(row)
		if err != nil {
			return nil, err
		}
		modules = append(modules, m)
	}
	return modules, nil
}

// Delete removes id and invalidates its cache entry.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.client.HuntModule.DeleteOneID(id).Exec(ctx); err != nil {
		return fmt.Errorf("huntmodule store: delete %s: %w", id, err)
	}
	s.cache.Invalidate(id)
	return nil
}

// fromRow re-parses the stored raw_source, so the parser stays the single
// source of truth for a Module's structure even after a database round-trip.
func fromRow(row *ent.HuntModule) (*Module, error) {
	return ParseMarkdown(row.RawSource)
}
