package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// Credential holds the schema definition for the Credential entity: the SSH
// auth material for one Asset. The actual secret bytes live in the external
// secrets store (spec §1 Non-goals); this record only carries a reference
// into that store plus enough metadata for the SSH Connector to pick the
// right auth method.
type Credential struct {
	ent.Schema
}

// Fields of the Credential.
func (Credential) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			StorageKey("credential_id").
			Unique().
			Immutable(),
		field.String("asset_id").
			Unique().
			Immutable(),
		field.Enum("auth_type").
			Values("password", "private_key"),
		field.String("secret_ref").
			Comment("Opaque handle into the external secrets store"),
		field.String("passphrase_ref").
			Optional().
			Nillable().
			Comment("Secrets-store handle for an encrypted private key's passphrase"),
		field.Time("created_at").
			Default(time.Now).
			Immutable(),
		field.Time("rotated_at").
			Optional().
			Nillable(),
	}
}

// Edges of the Credential.
func (Credential) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("asset", Asset.Type).
			Ref("credential").
			Field("asset_id").
			Unique().
			Required().
			Immutable(),
	}
}

// Indexes of the Credential.
func (Credential) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("asset_id").
			Unique(),
	}
}
