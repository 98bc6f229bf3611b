package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// Asset holds the schema definition for the Asset entity: a remote host
// reachable by SSH. Immutable except by asset CRUD (spec §3).
type Asset struct {
	ent.Schema
}

// Fields of the Asset.
func (Asset) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			StorageKey("asset_id").
			Unique().
			Immutable(),
		field.String("hostname").
			Comment("DNS name or label used in the UI"),
		field.String("ip_address"),
		field.Enum("os_type").
			Values("linux", "windows", "macos", "unknown").
			Default("unknown"),
		field.Int("ssh_port").
			Default(22),
		field.String("ssh_username"),
		field.Enum("sudo_policy").
			Values("nopasswd", "reuse_ssh_password", "custom_password").
			Optional().
			Nillable().
			Comment("nil means sudo is unavailable on this asset"),
		field.Time("created_at").
			Default(time.Now).
			Immutable(),
		field.Time("updated_at").
			Default(time.Now).
			UpdateDefault(time.Now),
	}
}

// Edges of the Asset.
func (Asset) Edges() []ent.Edge {
	return []ent.Edge{
		edge.To("credential", Credential.Type).
			Unique(),
		edge.To("sessions", Session.Type),
		edge.To("findings", Finding.Type),
		edge.To("timeline_events", TimelineEvent.Type),
	}
}

// Indexes of the Asset.
func (Asset) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("os_type"),
		index.Fields("hostname"),
	}
}
