package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// HuntModule holds the schema definition for the HuntModule entity: the
// static spec for an ordered sequence of shell Steps (spec §3, §6). The
// parsed id/name/os_types/tags/severity live alongside the raw markdown
// source so the Gateway's CRUD surface can round-trip the original document.
type HuntModule struct {
	ent.Schema
}

// Fields of the HuntModule.
func (HuntModule) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			StorageKey("module_id").
			Unique().
			Immutable().
			Comment("slug"),
		field.String("name"),
		field.Text("description").
			Optional(),
		field.JSON("os_types", []string{}).
			Comment("subset of {linux, windows, macos, unknown}"),
		field.JSON("tags", []string{}).
			Optional(),
		field.Enum("severity_hint").
			Values("critical", "high", "medium", "low", "info").
			Default("info"),
		field.Text("raw_source").
			Comment("original front-matter + step sections document"),
		field.Time("created_at").
			Default(time.Now).
			Immutable(),
		field.Time("updated_at").
			Default(time.Now).
			UpdateDefault(time.Now),
	}
}

// Indexes of the HuntModule.
func (HuntModule) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("severity_hint"),
	}
}
