package services

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/voxchat/voxgate/internal/models"
	"github.com/voxchat/voxgate/internal/repositories"
)

// memoryEventLog is an in-memory EventLogRepository for service tests.
type memoryEventLog struct {
	mu      sync.Mutex
	entries []*models.EventLogEntry
}

func (m *memoryEventLog) Append(ctx context.Context, entry *models.EventLogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
	return nil
}

func (m *memoryEventLog) GetByID(ctx context.Context, id int64) (*models.EventLogEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, entry := range m.entries {
		if entry.ID == id {
			return entry, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (m *memoryEventLog) Query(ctx context.Context, q repositories.EventLogQuery) ([]*models.EventLogEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	types := make(map[string]bool)
	for _, c := range q.Categories {
		types[c] = true
	}

	var out []*models.EventLogEntry
	for _, entry := range m.entries {
		if q.After > 0 {
			if entry.ID <= q.After {
				continue
			}
		} else if entry.CreatedAt.Unix() < q.Since {
			continue
		}
		if len(types) > 0 && !types[entry.EventType] {
			continue
		}
		out = append(out, entry)
		if len(out) == q.Limit {
			break
		}
	}
	return out, nil
}

func newTestSyncService(t *testing.T, repo repositories.EventLogRepository) *SyncService {
	t.Helper()
	svc, err := NewSyncService(repo, 1, 0)
	require.NoError(t, err)
	return svc
}

func TestSyncService_AppendRejectsNonSyncableType(t *testing.T) {
	svc := newTestSyncService(t, &memoryEventLog{})

	_, err := svc.Append(context.Background(), "typing_start", nil)
	assert.ErrorIs(t, err, ErrNotSyncable)

	_, err = svc.Append(context.Background(), "role_update", json.RawMessage(`{}`))
	assert.NoError(t, err)
}

func TestSyncService_IdsStrictlyIncrease(t *testing.T) {
	svc := newTestSyncService(t, &memoryEventLog{})
	ctx := context.Background()

	var prev int64
	for i := 0; i < 500; i++ {
		id, err := svc.Append(ctx, "member_join", json.RawMessage(`{}`))
		require.NoError(t, err)
		require.Greater(t, id, prev, "each id must compare strictly greater than the one before")
		prev = id
	}
}

func TestSyncService_ConcurrentAppendsNeverShareAnId(t *testing.T) {
	svc := newTestSyncService(t, &memoryEventLog{})
	ctx := context.Background()

	const workers = 8
	const perWorker = 50

	ids := make(chan int64, workers*perWorker)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				id, err := svc.Append(ctx, "invite_create", json.RawMessage(`{}`))
				if err == nil {
					ids <- id
				}
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[int64]bool)
	for id := range ids {
		require.False(t, seen[id], "duplicate id %d", id)
		seen[id] = true
	}
	assert.Len(t, seen, workers*perWorker)
}

func TestSyncService_QueryResumesFromCursor(t *testing.T) {
	repo := &memoryEventLog{}
	svc := newTestSyncService(t, repo)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		_, err := svc.Append(ctx, "room_create", json.RawMessage(`{}`))
		require.NoError(t, err)
	}

	first, err := svc.Query(ctx, SyncQuery{Limit: 4})
	require.NoError(t, err)
	require.Len(t, first.Events, 4)
	require.NotZero(t, first.Cursor)
	assert.Equal(t, first.Events[3].ID, first.Cursor)

	second, err := svc.Query(ctx, SyncQuery{Limit: 4, After: first.Cursor})
	require.NoError(t, err)
	require.Len(t, second.Events, 4)

	// No duplication or gaps across the page boundary
	assert.Greater(t, second.Events[0].ID, first.Events[3].ID)
}

func TestSyncService_QueryFiltersByCategory(t *testing.T) {
	svc := newTestSyncService(t, &memoryEventLog{})
	ctx := context.Background()

	_, err := svc.Append(ctx, "role_update", json.RawMessage(`{}`))
	require.NoError(t, err)
	_, err = svc.Append(ctx, "emoji_create", json.RawMessage(`{}`))
	require.NoError(t, err)

	result, err := svc.Query(ctx, SyncQuery{Categories: []string{"role_update"}})
	require.NoError(t, err)
	require.Len(t, result.Events, 1)
	assert.Equal(t, "role_update", result.Events[0].EventType)
}

func TestSyncService_QueryEmptyResultHasNoCursor(t *testing.T) {
	svc := newTestSyncService(t, &memoryEventLog{})

	result, err := svc.Query(context.Background(), SyncQuery{Since: 1})
	require.NoError(t, err)
	assert.Empty(t, result.Events)
	assert.Zero(t, result.Cursor)
}

func TestSyncService_LimitClampedNotRejected(t *testing.T) {
	repo := &memoryEventLog{}
	svc, err := NewSyncService(repo, 1, 5)
	require.NoError(t, err)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		_, err := svc.Append(ctx, "sticker_create", json.RawMessage(`{}`))
		require.NoError(t, err)
	}

	result, err := svc.Query(ctx, SyncQuery{Limit: 50000})
	require.NoError(t, err)
	assert.Len(t, result.Events, 5)
}

func TestSyncService_DefaultLimitApplied(t *testing.T) {
	svc := newTestSyncService(t, &memoryEventLog{})

	// Zero limit means the default, not zero rows
	result, err := svc.Query(context.Background(), SyncQuery{})
	require.NoError(t, err)
	assert.Empty(t, result.Events)
}
