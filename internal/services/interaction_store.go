package services

import (
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/voxchat/voxgate/internal/models"
)

// InteractionTTL is how long a deferred command or button token stays
// resolvable. Past this the client's prompt is stale anyway.
const InteractionTTL = 15 * time.Second

// InteractionStore is the in-memory correlation table for deferred
// interactions. Deliberately non-durable: losing it only degrades a
// pending deferred reply, never durable state.
type InteractionStore struct {
	mu    sync.Mutex
	items map[string]*models.Interaction
	now   func() time.Time
}

func NewInteractionStore() *InteractionStore {
	return &InteractionStore{
		items: make(map[string]*models.Interaction),
		now:   time.Now,
	}
}

// Create stores a fresh interaction under an unguessable 128-bit token.
func (s *InteractionStore) Create(kind models.InteractionKind, command string, params map[string]any, userID uuid.UUID, feedID, dmID *uuid.UUID, botID uuid.UUID) (*models.Interaction, error) {
	token := make([]byte, 16)
	if _, err := rand.Read(token); err != nil {
		return nil, err
	}

	interaction := &models.Interaction{
		ID:        hex.EncodeToString(token),
		Kind:      kind,
		Command:   command,
		Params:    params,
		UserID:    userID,
		FeedID:    feedID,
		DMID:      dmID,
		BotID:     botID,
		CreatedAt: s.now(),
	}

	s.mu.Lock()
	s.items[interaction.ID] = interaction
	s.mu.Unlock()

	return interaction, nil
}

// Get returns the interaction if it exists and is younger than the TTL.
// An expired entry is purged on the way out; expiry is read-time, there
// is no background sweep.
func (s *InteractionStore) Get(id string) *models.Interaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lookupLocked(id)
}

// Consume returns the interaction and deletes it in the same lock hold,
// so a second Consume for the same id always misses, even under
// concurrent callers.
func (s *InteractionStore) Consume(id string) *models.Interaction {
	s.mu.Lock()
	defer s.mu.Unlock()

	interaction := s.lookupLocked(id)
	if interaction != nil {
		delete(s.items, id)
	}
	return interaction
}

// Reset clears all entries. Process lifecycle boundaries only (test
// harness reinitialization), never steady-state handling.
func (s *InteractionStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = make(map[string]*models.Interaction)
}

func (s *InteractionStore) lookupLocked(id string) *models.Interaction {
	interaction, ok := s.items[id]
	if !ok {
		return nil
	}
	if s.now().Sub(interaction.CreatedAt) >= InteractionTTL {
		delete(s.items, id)
		return nil
	}
	return interaction
}
