package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// TimelineEvent holds the schema definition for the TimelineEvent entity:
// an append-only per-asset log (spec §3). Rows are never mutated after
// insert.
type TimelineEvent struct {
	ent.Schema
}

// Fields of the TimelineEvent.
func (TimelineEvent) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			StorageKey("event_id").
			Unique().
			Immutable(),
		field.String("asset_id").
			Immutable(),
		field.String("event_type").
			Immutable().
			Comment("mirrors an Event Bus event-type, e.g. ai.finding_generated"),
		field.JSON("payload", map[string]interface{}{}).
			Immutable(),
		field.Time("occurred_at").
			Default(time.Now).
			Immutable(),
		field.String("analyst_id").
			Optional().
			Nillable(),
	}
}

// Edges of the TimelineEvent.
func (TimelineEvent) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("asset", Asset.Type).
			Ref("timeline_events").
			Field("asset_id").
			Unique().
			Required().
			Immutable(),
	}
}

// Indexes of the TimelineEvent.
func (TimelineEvent) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("asset_id", "occurred_at"),
	}
}
