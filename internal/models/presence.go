package models

import (
	"time"

	"github.com/google/uuid"
)

type Presence struct {
	UserID      uuid.UUID `json:"user_id"`
	Status      string    `json:"status"`
	Connections int       `json:"connections"`
	LastSeen    time.Time `json:"last_seen"`
}

type PresenceStatus string

const (
	StatusOnline  PresenceStatus = "online"
	StatusOffline PresenceStatus = "offline"
)
