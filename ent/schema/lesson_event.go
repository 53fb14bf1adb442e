package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// LessonEvent records lesson lifecycle transitions: a lesson was started,
// a step submission was accepted, the lesson completed, was cancelled, or
// produced an export artifact.
type LessonEvent struct {
	ent.Schema
}

func (LessonEvent) Mixin() []ent.Mixin {
	return []ent.Mixin{EventMixin{}}
}

func (LessonEvent) Fields() []ent.Field {
	return []ent.Field{
		field.String("session_id").
			NotEmpty().
			Comment("UUID grouping events in a chat session"),
		field.String("lesson_id").
			NotEmpty().
			Comment("Catalog ID of the lesson"),
		field.String("action").
			NotEmpty().
			Comment("started, step_submitted, completed, cancelled, exported, or export_failed"),
		field.Int("step_index").
			Default(-1).
			Comment("Zero-based step for step_submitted, -1 otherwise"),
		field.String("artifact_path").
			Default("").
			Comment("Export artifact location for exported events"),
	}
}

func (LessonEvent) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("session_id"),
		index.Fields("lesson_id"),
		index.Fields("action"),
	}
}
