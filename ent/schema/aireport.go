package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// AIReport holds the schema definition for the AIReport entity: the
// completed output of one AI Pipeline run over a Hunt's Observations (spec
// §4.5, §4.6 SaveAIReport/ListAIReports).
type AIReport struct {
	ent.Schema
}

// Fields of the AIReport.
func (AIReport) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			StorageKey("report_id").
			Unique().
			Immutable(),
		field.String("hunt_id").
			Immutable(),
		field.String("asset_id").
			Immutable(),
		field.String("session_id").
			Immutable(),
		field.String("provider").
			Immutable().
			Comment("anthropic | openai_compatible | ollama"),
		field.String("model_name").
			Immutable(),
		field.Text("report_text").
			Comment("concatenation of streamed chunks; may be partial"),
		field.Text("summary").
			Optional().
			Nillable(),
		field.Int("input_tokens").
			Optional().
			Nillable(),
		field.Int("output_tokens").
			Optional().
			Nillable(),
		field.Int("duration_ms").
			Optional().
			Nillable(),
		field.String("error_message").
			Optional().
			Nillable().
			Comment("nil = success, not-nil = retryable exhausted or fatal stream error"),
		field.Time("created_at").
			Default(time.Now).
			Immutable(),
	}
}

// Edges of the AIReport.
func (AIReport) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("hunt", Hunt.Type).
			Ref("ai_reports").
			Field("hunt_id").
			Unique().
			Required().
			Immutable(),
	}
}

// Indexes of the AIReport.
func (AIReport) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("asset_id", "created_at"),
		index.Fields("session_id"),
	}
}
