package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/voxchat/voxgate/internal/models"
	"github.com/voxchat/voxgate/internal/repositories"
)

var ErrNotSyncable = errors.New("event type is not syncable")

const (
	DefaultSyncLimit = 500
	MaxSyncLimit     = 1000
)

// syncableEvents is the closed set of event types that are durably
// logged for catch-up. Everything else is live-only and never appears
// in a sync response.
var syncableEvents = map[string]struct{}{
	"member_join":     {},
	"member_leave":    {},
	"member_update":   {},
	"role_create":     {},
	"role_update":     {},
	"role_delete":     {},
	"feed_create":     {},
	"feed_update":     {},
	"feed_delete":     {},
	"room_create":     {},
	"room_update":     {},
	"room_delete":     {},
	"category_create": {},
	"category_update": {},
	"category_delete": {},
	"emoji_create":    {},
	"emoji_update":    {},
	"emoji_delete":    {},
	"sticker_create":  {},
	"sticker_update":  {},
	"sticker_delete":  {},
	"invite_create":   {},
	"invite_delete":   {},
}

type SyncQuery struct {
	Since      int64
	Categories []string
	Limit      int
	After      int64
}

type SyncResult struct {
	Events []*models.EventLogEntry
	Cursor int64 // 0 when no entries were returned
}

// SyncService owns the durable event log: allow-list enforcement, id
// assignment and cursor queries. Id generation is the one serialized
// section; the snowflake node guarantees ids strictly increase in
// process order.
type SyncService struct {
	node     *snowflake.Node
	repo     repositories.EventLogRepository
	maxLimit int
}

func NewSyncService(repo repositories.EventLogRepository, nodeID int64, maxLimit int) (*SyncService, error) {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, fmt.Errorf("failed to create snowflake node: %w", err)
	}
	if maxLimit <= 0 {
		maxLimit = MaxSyncLimit
	}
	return &SyncService{
		node:     node,
		repo:     repo,
		maxLimit: maxLimit,
	}, nil
}

func (s *SyncService) IsSyncable(eventType string) bool {
	_, ok := syncableEvents[eventType]
	return ok
}

// Append assigns the next id and stores the entry. Callers must not
// bypass the allow-list: a non-syncable type is an error, not a silent
// drop, so a miswired dispatch path fails loudly.
func (s *SyncService) Append(ctx context.Context, eventType string, payload json.RawMessage) (int64, error) {
	if !s.IsSyncable(eventType) {
		return 0, fmt.Errorf("%w: %s", ErrNotSyncable, eventType)
	}

	id := s.node.Generate().Int64()
	entry := &models.EventLogEntry{
		ID:        id,
		EventType: eventType,
		Payload:   payload,
		CreatedAt: time.Now(),
	}

	if err := s.repo.Append(ctx, entry); err != nil {
		return 0, err
	}
	return id, nil
}

// Query pages through the log oldest-first. A limit above the ceiling is
// clamped, not rejected. The returned cursor is the id of the last entry
// and resumes the next page without duplication or gaps; it is zero when
// the page is empty.
func (s *SyncService) Query(ctx context.Context, q SyncQuery) (*SyncResult, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultSyncLimit
	}
	if limit > s.maxLimit {
		limit = s.maxLimit
	}

	entries, err := s.repo.Query(ctx, repositories.EventLogQuery{
		Since:      q.Since,
		After:      q.After,
		Categories: q.Categories,
		Limit:      limit,
	})
	if err != nil {
		return nil, err
	}

	result := &SyncResult{Events: entries}
	if len(entries) > 0 {
		result.Cursor = entries[len(entries)-1].ID
	}
	return result, nil
}
