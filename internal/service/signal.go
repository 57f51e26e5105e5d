package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/folioworks/portfolio/internal/domain"
)

// Signal fans content events out to realtime subscribers.
type Signal interface {
	Publish(ctx context.Context, event domain.Event) error
	// Subscribe delivers events until ctx is done, then closes the channel.
	Subscribe(ctx context.Context) (<-chan domain.Event, error)
}

// SignalService distributes events over redis pub/sub so that every
// instance sharing the redis sees them.
type SignalService struct {
	rdb     *redis.Client
	channel string
}

func NewSignalService(redisClient *redis.Client) *SignalService {
	return &SignalService{
		rdb:     redisClient,
		channel: domain.ContentEventChannel,
	}
}

func (s *SignalService) Publish(ctx context.Context, event domain.Event) error {

	jsonstr, err := json.Marshal(event)
	if err != nil {
		return err
	}

	err = s.rdb.Publish(ctx, s.channel, jsonstr).Err()
	if err != nil {
		return errors.Wrap(err, "publish event")
	}

	return nil
}

func (s *SignalService) Subscribe(ctx context.Context) (<-chan domain.Event, error) {
	pubsub := s.rdb.Subscribe(ctx, s.channel)
	// wait for the subscription to be confirmed
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, errors.Wrap(err, "subscribe")
	}

	out := make(chan domain.Event, 16)
	go func() {
		defer close(out)
		defer pubsub.Close()

		messages := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				var event domain.Event
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					slog.WarnContext(
						ctx,
						"dropping malformed event",
						slog.String("error", err.Error()),
						slog.String("module", "signal"),
					)
					continue
				}
				select {
				case out <- event:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

// LocalSignal delivers events to subscribers of the same process.
type LocalSignal struct {
	mu   sync.Mutex
	subs map[chan domain.Event]struct{}
}

func NewLocalSignal() *LocalSignal {
	return &LocalSignal{
		subs: make(map[chan domain.Event]struct{}),
	}
}

// Publish never blocks; slow subscribers miss events.
func (s *LocalSignal) Publish(ctx context.Context, event domain.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for ch := range s.subs {
		select {
		case ch <- event:
		default:
		}
	}
	return nil
}

func (s *LocalSignal) Subscribe(ctx context.Context) (<-chan domain.Event, error) {
	ch := make(chan domain.Event, 16)

	s.mu.Lock()
	s.subs[ch] = struct{}{}
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		delete(s.subs, ch)
		close(ch)
		s.mu.Unlock()
	}()

	return ch, nil
}
