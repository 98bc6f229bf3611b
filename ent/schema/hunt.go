package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// Hunt holds the schema definition for the Hunt entity: one scheduled
// execution of a HuntModule against a Session (spec §3, §4.4).
type Hunt struct {
	ent.Schema
}

// Fields of the Hunt.
func (Hunt) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			StorageKey("hunt_id").
			Unique().
			Immutable(),
		field.String("session_id").
			Immutable(),
		field.String("module_id").
			Immutable(),
		field.Bool("run_ai").
			Immutable(),
		field.Enum("status").
			Values("pending", "running", "completed", "failed", "cancelled").
			Default("pending"),
		field.Time("started_at").
			Optional().
			Nillable(),
		field.Time("ended_at").
			Optional().
			Nillable(),
		field.Int("findings_count").
			Default(0),
		field.Text("ai_report_text").
			Optional().
			Nillable().
			Comment("Concatenation of ai.reasoning_chunk payloads; may be partial on error"),
	}
}

// Edges of the Hunt.
func (Hunt) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("session", Session.Type).
			Ref("hunts").
			Field("session_id").
			Unique().
			Required().
			Immutable(),
		edge.To("findings", Finding.Type),
		edge.To("ai_reports", AIReport.Type),
	}
}

// Indexes of the Hunt.
func (Hunt) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("session_id", "started_at"),
		index.Fields("status"),
	}
}
