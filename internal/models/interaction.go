package models

import (
	"time"

	"github.com/google/uuid"
)

type InteractionKind string

const (
	InteractionSlashCommand InteractionKind = "slash_command"
	InteractionButton       InteractionKind = "button"
)

// Interaction correlates a deferred command or button response with its
// original invocation. Never persisted; lives only in the in-memory store.
type Interaction struct {
	ID        string          `json:"id"`
	Kind      InteractionKind `json:"kind"`
	Command   string          `json:"command,omitempty"`
	Params    map[string]any  `json:"params,omitempty"`
	UserID    uuid.UUID       `json:"user_id"`
	FeedID    *uuid.UUID      `json:"feed_id,omitempty"`
	DMID      *uuid.UUID      `json:"dm_id,omitempty"`
	BotID     uuid.UUID       `json:"bot_id"`
	CreatedAt time.Time       `json:"created_at"`
}
