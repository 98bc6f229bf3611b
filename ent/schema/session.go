package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// Session holds the schema definition for the Session entity: a live handle
// on an Asset for one analyst (spec §3, §4.3). The row is a snapshot of the
// owner actor's state machine for audit/listing purposes — the owner
// goroutine, not this table, is authoritative while the session is alive.
type Session struct {
	ent.Schema
}

// Fields of the Session.
func (Session) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			StorageKey("session_id").
			Unique().
			Immutable(),
		field.String("asset_id").
			Immutable(),
		field.String("analyst_id").
			Immutable(),
		field.Enum("mode").
			Values("ai", "interactive"),
		field.Enum("state").
			Values(
				"initializing",
				"connecting",
				"connected",
				"running",
				"paused",
				"locked",
				"disconnected",
				"failed",
				"terminated",
			).
			Default("initializing"),
		field.String("locked_by").
			Optional().
			Nillable().
			Comment("analyst-id holding the write lock; non-nil iff state=locked"),
		field.Time("created_at").
			Default(time.Now).
			Immutable(),
		field.Time("terminated_at").
			Optional().
			Nillable(),
	}
}

// Edges of the Session.
func (Session) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("asset", Asset.Type).
			Ref("sessions").
			Field("asset_id").
			Unique().
			Required().
			Immutable(),
		edge.To("hunts", Hunt.Type).
			Annotations(entsql.OnDelete(entsql.Cascade)),
	}
}

// Indexes of the Session.
func (Session) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("asset_id", "analyst_id", "state").
			Comment("supports the per-(analyst,asset) non-terminal dedup check"),
		index.Fields("state"),
	}
}
