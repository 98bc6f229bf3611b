package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// RefreshToken holds the schema definition for the RefreshToken entity: the
// server-side record of an issued refresh token, used to enforce rotation
// on each use (spec §6 "refresh token rotation on each use") and to detect
// reuse of an already-rotated-out token. Analyst identities themselves live
// with the external identity provider (spec §1); this table only tracks
// huntbay's own bearer-token lifecycle.
type RefreshToken struct {
	ent.Schema
}

// Fields of the RefreshToken.
func (RefreshToken) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			StorageKey("token_id").
			Unique().
			Immutable().
			Comment("the token's jti claim"),
		field.String("analyst_id").
			Immutable(),
		field.Time("issued_at").
			Default(time.Now).
			Immutable(),
		field.Time("expires_at").
			Immutable(),
		field.Time("used_at").
			Optional().
			Nillable().
			Comment("set when this token is redeemed at /auth/refresh; a second redemption is reuse"),
		field.Time("revoked_at").
			Optional().
			Nillable().
			Comment("set when this or a sibling token in the same rotation chain is reused, or on explicit logout"),
		field.String("replaced_by").
			Optional().
			Nillable().
			Comment("the jti of the token minted when this one was redeemed"),
	}
}

// Indexes of the RefreshToken.
func (RefreshToken) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("analyst_id"),
		index.Fields("expires_at"),
	}
}
