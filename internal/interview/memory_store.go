package interview

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const snapshotTTL = 30 * 24 * time.Hour

// Snapshot is the full per-conversation state committed once per turn:
// memory, phase position, message history and validated field values.
type Snapshot struct {
	Memory      *ConversationMemory `json:"memory"`
	State       PhaseState          `json:"state"`
	History     []ChatMessage       `json:"history"`
	FieldValues map[string]string   `json:"field_values,omitempty"`
	Language    string              `json:"language,omitempty"`
	Turn        int                 `json:"turn"`
}

// SnapshotStore loads and commits conversation snapshots. Commit must be
// all-or-nothing: a failed turn leaves the previous snapshot intact.
type SnapshotStore interface {
	Load(ctx context.Context, conversationID string) (*Snapshot, error)
	Commit(ctx context.Context, conversationID string, snap *Snapshot) error
}

// RedisSnapshotStore keeps each conversation's snapshot as a single redis
// value, so one SET is the turn's atomic commit point.
type RedisSnapshotStore struct {
	redis  *redis.Client
	tracer trace.Tracer
}

// NewRedisSnapshotStore creates a redis-backed snapshot store.
func NewRedisSnapshotStore(client *redis.Client) *RedisSnapshotStore {
	if client == nil {
		panic("interview: redis client cannot be nil")
	}
	return &RedisSnapshotStore{
		redis:  client,
		tracer: otel.Tracer("attento/snapshot-store"),
	}
}

// Load fetches the committed snapshot for a conversation.
// ErrSnapshotNotFound means the conversation was never started;
// ErrSnapshotCorrupt means the turn must abort without committing.
func (s *RedisSnapshotStore) Load(ctx context.Context, conversationID string) (*Snapshot, error) {
	ctx, span := s.tracer.Start(ctx, "snapshot.load")
	defer span.End()

	data, err := s.redis.Get(ctx, snapshotKey(conversationID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrSnapshotNotFound
		}
		span.RecordError(err)
		return nil, fmt.Errorf("interview: failed to load snapshot: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("%w: %v", ErrSnapshotCorrupt, err)
	}
	if snap.Memory == nil {
		return nil, fmt.Errorf("%w: missing memory", ErrSnapshotCorrupt)
	}
	return &snap, nil
}

// Commit writes the updated snapshot in one operation.
func (s *RedisSnapshotStore) Commit(ctx context.Context, conversationID string, snap *Snapshot) error {
	ctx, span := s.tracer.Start(ctx, "snapshot.commit")
	defer span.End()

	data, err := json.Marshal(snap)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("interview: failed to marshal snapshot: %w", err)
	}
	if err := s.redis.Set(ctx, snapshotKey(conversationID), data, snapshotTTL).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("interview: failed to persist snapshot: %w", err)
	}
	return nil
}

func snapshotKey(id string) string {
	return fmt.Sprintf("interview:snapshot:%s", id)
}
