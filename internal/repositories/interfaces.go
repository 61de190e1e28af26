package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/voxchat/voxgate/internal/models"
)

// EventLogQuery narrows a catch-up read. After (a previously returned
// entry id) takes precedence over Since when both are set.
type EventLogQuery struct {
	Since      int64
	After      int64
	Categories []string
	Limit      int
}

type EventLogRepository interface {
	Append(ctx context.Context, entry *models.EventLogEntry) error
	GetByID(ctx context.Context, id int64) (*models.EventLogEntry, error)
	Query(ctx context.Context, q EventLogQuery) ([]*models.EventLogEntry, error)
}

type PeerRepository interface {
	GetByDomain(ctx context.Context, domain string) (*models.FederationPeer, error)
	IsBlocked(ctx context.Context, domain string) (bool, error)
}

type PresenceRepository interface {
	SetPresence(ctx context.Context, presence *models.Presence) error
	GetPresence(ctx context.Context, userID uuid.UUID) (*models.Presence, error)
	DeletePresence(ctx context.Context, userID uuid.UUID) error
	GetBulkPresence(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]models.Presence, error)
}
