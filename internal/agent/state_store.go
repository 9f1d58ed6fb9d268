package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// DefaultStateTTL bounds how long an idle conversation keeps its working
// state before the next message starts from scratch.
const DefaultStateTTL = 7 * 24 * time.Hour

// RedisStateStore keeps per-conversation working state in Redis. Durable
// transcript rows live in Postgres; this cache only carries what the next
// pass needs.
type RedisStateStore struct {
	redis  *redis.Client
	ttl    time.Duration
	tracer trace.Tracer
}

func NewRedisStateStore(client *redis.Client, ttl time.Duration) *RedisStateStore {
	if client == nil {
		panic("agent: redis client cannot be nil")
	}
	if ttl <= 0 {
		ttl = DefaultStateTTL
	}
	return &RedisStateStore{
		redis:  client,
		ttl:    ttl,
		tracer: otel.Tracer("booking.internal.agent.state"),
	}
}

var _ StateStore = (*RedisStateStore)(nil)

func (s *RedisStateStore) Load(ctx context.Context, conversationID string) (State, bool, error) {
	ctx, span := s.tracer.Start(ctx, "agent.load_state")
	defer span.End()

	data, err := s.redis.Get(ctx, stateKey(conversationID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return State{}, false, nil
		}
		span.RecordError(err)
		return State{}, false, fmt.Errorf("agent: failed to load state: %w", err)
	}

	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		span.RecordError(err)
		return State{}, false, fmt.Errorf("agent: failed to decode state: %w", err)
	}
	return st, true, nil
}

func (s *RedisStateStore) Save(ctx context.Context, conversationID string, st State) error {
	ctx, span := s.tracer.Start(ctx, "agent.save_state")
	defer span.End()

	data, err := json.Marshal(st)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("agent: failed to marshal state: %w", err)
	}
	if err := s.redis.Set(ctx, stateKey(conversationID), data, s.ttl).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("agent: failed to persist state: %w", err)
	}
	return nil
}

func stateKey(id string) string {
	return fmt.Sprintf("conversation:%s", id)
}
