// Package audit records changes made to the document index so operators can
// see who added, removed or rebuilt what, and when.
package audit

import (
	"context"
	"time"
)

// Action describes what was done.
type Action string

const (
	ActionDocumentIndexed     Action = "document_indexed"
	ActionDocumentDeleted     Action = "document_deleted"
	ActionFolderCreated       Action = "folder_created"
	ActionFolderDeleted       Action = "folder_deleted"
	ActionReindexed           Action = "reindexed"
	ActionSearchConfigUpdated Action = "search_config_updated"
	ActionLLMConfigUpdated    Action = "llm_config_updated"
)

// Actor names used when the caller does not supply one.
const (
	ActorSystem = "system"
	ActorAPI    = "api"
	ActorCLI    = "cli"
)

// Entry is a single audit trail record.
type Entry struct {
	ID         string    `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	Actor      string    `json:"actor"`
	Action     Action    `json:"action"`
	DocID      string    `json:"doc_id,omitempty"`
	FolderPath string    `json:"folder_path,omitempty"`
	Summary    string    `json:"summary"`
	Detail     string    `json:"detail,omitempty"`
}

type actorKey struct{}

// WithActor returns a context that attributes audit entries to actor.
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFrom returns the actor stored by WithActor, or ActorSystem.
func ActorFrom(ctx context.Context) string {
	if actor, ok := ctx.Value(actorKey{}).(string); ok && actor != "" {
		return actor
	}
	return ActorSystem
}
