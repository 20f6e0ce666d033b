package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	defaultChannelPrefix = "station:changes:"
	defaultCloseTimeout  = 5 * time.Second
)

// EventKind classifies a remote mutation notification
type EventKind string

const (
	EventInsert EventKind = "INSERT"
	EventUpdate EventKind = "UPDATE"
	EventDelete EventKind = "DELETE"
)

// ChangeEvent is one remote mutation notification. The payload is the
// affected row; subscribers reload the whole collection regardless, so
// it is informational only.
type ChangeEvent struct {
	Kind    EventKind       `json:"event_kind"`
	Table   string          `json:"table"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// RedisConfig holds change-feed connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// Subscriber listens on one pub/sub channel per synced table
type Subscriber struct {
	client    *redis.Client
	prefix    string
	logger    *zap.Logger
	cancelFn  context.CancelFunc
	doneCh    chan struct{}
	closeOnce sync.Once
	closeErr  error
	mu        sync.Mutex
	running   bool
}

// SubscriberOption is a functional option for configuring the subscriber
type SubscriberOption func(*Subscriber)

// WithChannelPrefix sets the pub/sub channel prefix
func WithChannelPrefix(prefix string) SubscriberOption {
	return func(s *Subscriber) {
		s.prefix = prefix
	}
}

// WithSubscriberLogger sets the logger for the subscriber
func WithSubscriberLogger(logger *zap.Logger) SubscriberOption {
	return func(s *Subscriber) {
		s.logger = logger
	}
}

// NewSubscriber creates a change-feed subscriber and verifies the
// connection
func NewSubscriber(cfg RedisConfig, opts ...SubscriberOption) (*Subscriber, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to change feed: %w", err)
	}

	sub := &Subscriber{
		client: client,
		prefix: defaultChannelPrefix,
		logger: zap.NewNop(),
		doneCh: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(sub)
	}
	return sub, nil
}

// Channel returns the pub/sub channel carrying changes for one table
func (s *Subscriber) Channel(table string) string {
	return s.prefix + table
}

// Publish sends a change notification for one table. Used by tooling
// and tests; the service itself only consumes the feed.
func (s *Subscriber) Publish(ctx context.Context, event ChangeEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal change event: %w", err)
	}
	if err := s.client.Publish(ctx, s.Channel(event.Table), data).Err(); err != nil {
		return fmt.Errorf("failed to publish change event: %w", err)
	}
	return nil
}

// Subscribe opens one subscription per table and dispatches decoded
// events to the handler until Close is called or the context ends.
// Only one Subscribe per subscriber.
func (s *Subscriber) Subscribe(ctx context.Context, tables []string, handler func(ChangeEvent)) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("subscriber already running")
	}
	s.running = true
	s.mu.Unlock()

	channels := make([]string, 0, len(tables))
	for _, table := range tables {
		channels = append(channels, s.Channel(table))
	}

	subCtx, cancel := context.WithCancel(ctx)
	s.cancelFn = cancel

	pubsub := s.client.Subscribe(subCtx, channels...)
	if _, err := pubsub.Receive(subCtx); err != nil {
		cancel()
		return fmt.Errorf("failed to open change subscriptions: %w", err)
	}

	go func() {
		defer close(s.doneCh)
		defer func() {
			if err := pubsub.Close(); err != nil {
				s.logger.Warn("Error closing change subscription", zap.Error(err))
			}
		}()

		ch := pubsub.Channel()
		for {
			select {
			case <-subCtx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var event ChangeEvent
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					s.logger.Warn("Dropping malformed change event",
						zap.String("channel", msg.Channel),
						zap.Error(err))
					continue
				}
				handler(event)
			}
		}
	}()

	return nil
}

// Close tears the subscriptions down. Safe to call more than once;
// later calls return the first result.
func (s *Subscriber) Close() error {
	s.closeOnce.Do(func() {
		if s.cancelFn != nil {
			s.cancelFn()
			select {
			case <-s.doneCh:
			case <-time.After(defaultCloseTimeout):
				s.logger.Warn("Timed out waiting for change subscription to stop")
			}
		}
		s.closeErr = s.client.Close()
	})
	return s.closeErr
}
