package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// Remediation is the three-bucket remediation plan attached to a Finding
// (spec §3): immediate/short-term/long-term ordered action lists.
type Remediation struct {
	Immediate []string `json:"immediate,omitempty"`
	ShortTerm []string `json:"short_term,omitempty"`
	LongTerm  []string `json:"long_term,omitempty"`
}

// Finding holds the schema definition for the Finding entity: a persisted
// intelligence record deduplicated by (asset_id, fingerprint) (spec §3,
// §4.6).
type Finding struct {
	ent.Schema
}

// Fields of the Finding.
func (Finding) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			StorageKey("finding_id").
			Unique().
			Immutable(),
		field.String("asset_id").
			Immutable(),
		field.String("session_id").
			Immutable().
			Comment("origin session"),
		field.String("hunt_id").
			Optional().
			Nillable(),
		field.Enum("kind").
			Values("ai_report", "detection"),
		field.String("title"),
		field.Enum("severity").
			Values("critical", "high", "medium", "low", "info"),
		field.Float("confidence").
			Comment("in [0,1]"),
		field.Enum("status").
			Values("open", "acknowledged", "resolved").
			Default("open"),
		field.String("fingerprint").
			Immutable().
			Comment("sha256(kind, normalized title, stable evidence subset)"),
		field.Int("sighting_count").
			Default(1),
		field.Time("first_seen").
			Default(time.Now).
			Immutable(),
		field.Time("last_seen").
			Default(time.Now).
			UpdateDefault(time.Now),
		field.JSON("tags", []string{}).
			Optional().
			Comment("set union on every upsert"),
		field.JSON("stix_bundle", map[string]interface{}{}).
			Optional(),
		field.JSON("remediation", &Remediation{}).
			Optional(),
	}
}

// Edges of the Finding.
func (Finding) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("asset", Asset.Type).
			Ref("findings").
			Field("asset_id").
			Unique().
			Required().
			Immutable(),
		edge.From("hunt", Hunt.Type).
			Ref("findings").
			Field("hunt_id").
			Unique(),
	}
}

// Indexes of the Finding.
func (Finding) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("asset_id", "fingerprint").
			Unique(),
		index.Fields("session_id"),
		index.Fields("status"),
	}
}
