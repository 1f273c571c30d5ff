package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/BaSui01/aicrew/types"
)

const (
	defaultKeyPrefix  = "aicrew:memory:"
	defaultMaxEntries = 200
	// maxScan bounds how many stored entries one search reads back.
	maxScan = 500
)

// entry is the stored form of one memory.
type entry struct {
	ID        string            `json:"id"`
	Text      string            `json:"text"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// RedisStore keeps each agent's memories in a redis list, newest first.
// Lists are capped so a long-lived agent cannot grow without bound.
type RedisStore struct {
	client     *redis.Client
	keyPrefix  string
	maxEntries int64
	logger     *zap.Logger
}

// StoreOption configures a RedisStore.
type StoreOption func(*RedisStore)

// WithKeyPrefix overrides the redis key prefix. An empty prefix keeps the
// default.
func WithKeyPrefix(prefix string) StoreOption {
	return func(s *RedisStore) {
		if prefix != "" {
			s.keyPrefix = prefix
		}
	}
}

// WithMaxEntries caps the per-agent list length.
func WithMaxEntries(n int64) StoreOption {
	return func(s *RedisStore) {
		if n > 0 {
			s.maxEntries = n
		}
	}
}

// NewRedisStore creates a memory store on an existing redis client.
func NewRedisStore(client *redis.Client, logger *zap.Logger, opts ...StoreOption) *RedisStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &RedisStore{
		client:     client,
		keyPrefix:  defaultKeyPrefix,
		maxEntries: defaultMaxEntries,
		logger:     logger.With(zap.String("component", "memory_store")),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStore) key(agentName string) string {
	return s.keyPrefix + strings.ToLower(strings.TrimSpace(agentName))
}

// Save prepends a memory to the agent's list and trims it to the cap.
func (s *RedisStore) Save(ctx context.Context, agentName, text string, metadata map[string]string) error {
	if strings.TrimSpace(agentName) == "" {
		return types.NewError(types.ErrMemory, "memory: agent name must not be empty")
	}
	if strings.TrimSpace(text) == "" {
		return types.NewError(types.ErrMemory, "memory: text must not be empty")
	}

	data, err := json.Marshal(entry{
		ID:        uuid.NewString(),
		Text:      text,
		Metadata:  metadata,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return types.NewError(types.ErrMemory, "memory: encode entry").WithCause(err)
	}

	key := s.key(agentName)
	pipe := s.client.Pipeline()
	pipe.LPush(ctx, key, data)
	pipe.LTrim(ctx, key, 0, s.maxEntries-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return types.NewError(types.ErrMemory,
			fmt.Sprintf("memory: save for %s failed", agentName)).
			WithCause(err).WithRetryable(true)
	}
	return nil
}

// Search returns up to limit stored texts ranked by word overlap with the
// query, ties broken by recency. An agent with no memories yields an empty
// slice, not an error.
func (s *RedisStore) Search(ctx context.Context, agentName, query string, limit int) ([]string, error) {
	if limit <= 0 {
		return nil, nil
	}

	raw, err := s.client.LRange(ctx, s.key(agentName), 0, maxScan-1).Result()
	if err != nil {
		return nil, types.NewError(types.ErrMemory,
			fmt.Sprintf("memory: search for %s failed", agentName)).
			WithCause(err).WithRetryable(true)
	}
	if len(raw) == 0 {
		return nil, nil
	}

	queryWords := tokenize(query)

	type scored struct {
		text  string
		score int
		pos   int
	}
	candidates := make([]scored, 0, len(raw))
	for i, item := range raw {
		var e entry
		if err := json.Unmarshal([]byte(item), &e); err != nil {
			s.logger.Warn("skipping undecodable memory entry",
				zap.String("agent", agentName), zap.Error(err))
			continue
		}
		candidates = append(candidates, scored{
			text:  e.Text,
			score: overlap(queryWords, tokenize(e.Text)),
			pos:   i,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].pos < candidates[j].pos
	})

	if limit > len(candidates) {
		limit = len(candidates)
	}
	out := make([]string, 0, limit)
	for _, c := range candidates[:limit] {
		out = append(out, c.text)
	}
	return out, nil
}

// Ping checks connectivity.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func tokenize(text string) map[string]struct{} {
	words := strings.Fields(strings.ToLower(text))
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		w = strings.Trim(w, ".,;:!?\"'()[]{}")
		if len(w) > 2 {
			set[w] = struct{}{}
		}
	}
	return set
}

func overlap(a, b map[string]struct{}) int {
	n := 0
	for w := range a {
		if _, ok := b[w]; ok {
			n++
		}
	}
	return n
}
