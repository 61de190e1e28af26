package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/voxchat/voxgate/internal/models"
)

const (
	presenceKeyPrefix = "presence:"
	presenceTTL       = 60 * time.Second // Presence expires unless the hub refreshes it
)

type RedisPresenceRepository struct {
	client *redis.Client
}

func NewRedisPresenceRepository(client *redis.Client) *RedisPresenceRepository {
	return &RedisPresenceRepository{client: client}
}

// SetPresence sets or refreshes the presence for a user with automatic TTL.
// The hub calls this on register and on each heartbeat tick.
func (r *RedisPresenceRepository) SetPresence(ctx context.Context, presence *models.Presence) error {
	presence.LastSeen = time.Now()

	data, err := json.Marshal(presence)
	if err != nil {
		return fmt.Errorf("failed to marshal presence: %w", err)
	}

	key := presenceKey(presence.UserID)
	err = r.client.Set(ctx, key, data, presenceTTL).Err()
	if err != nil {
		return fmt.Errorf("failed to set presence: %w", err)
	}

	return nil
}

func (r *RedisPresenceRepository) GetPresence(ctx context.Context, userID uuid.UUID) (*models.Presence, error) {
	key := presenceKey(userID)

	data, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		// No presence = user has no live connections anywhere
		return &models.Presence{
			UserID:   userID,
			Status:   string(models.StatusOffline),
			LastSeen: time.Time{},
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get presence: %w", err)
	}

	var presence models.Presence
	if err := json.Unmarshal([]byte(data), &presence); err != nil {
		return nil, fmt.Errorf("failed to unmarshal presence: %w", err)
	}

	return &presence, nil
}

func (r *RedisPresenceRepository) DeletePresence(ctx context.Context, userID uuid.UUID) error {
	key := presenceKey(userID)

	err := r.client.Del(ctx, key).Err()
	if err != nil {
		return fmt.Errorf("failed to delete presence: %w", err)
	}

	return nil
}

// GetBulkPresence retrieves presence for multiple users in one round trip.
// Used by the member-list surface to decorate a feed's roster.
func (r *RedisPresenceRepository) GetBulkPresence(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]models.Presence, error) {
	if len(userIDs) == 0 {
		return make(map[uuid.UUID]models.Presence), nil
	}

	keys := make([]string, len(userIDs))
	for i, id := range userIDs {
		keys[i] = presenceKey(id)
	}

	results, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get bulk presence: %w", err)
	}

	presenceMap := make(map[uuid.UUID]models.Presence)

	for i, result := range results {
		userID := userIDs[i]

		if result == nil {
			presenceMap[userID] = models.Presence{
				UserID:   userID,
				Status:   string(models.StatusOffline),
				LastSeen: time.Time{},
			}
			continue
		}

		data, ok := result.(string)
		if !ok {
			continue
		}

		var presence models.Presence
		if err := json.Unmarshal([]byte(data), &presence); err != nil {
			// If we can't unmarshal, treat as offline
			presenceMap[userID] = models.Presence{
				UserID:   userID,
				Status:   string(models.StatusOffline),
				LastSeen: time.Time{},
			}
			continue
		}

		presenceMap[userID] = presence
	}

	return presenceMap, nil
}

// Helper: build Redis key for presence
func presenceKey(userID uuid.UUID) string {
	return presenceKeyPrefix + userID.String()
}
