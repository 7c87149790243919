// Package feed fans out entity change notifications over redis pub/sub so
// every running instance refreshes its snapshot and re-derives alerts.
package feed

import (
	"context"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// Channel is the pub/sub channel carrying entity change events. The payload
// is the changed entity name, e.g. "products".
const Channel = "chemtrade:changes"

// Publisher publishes entity change events.
type Publisher struct {
	rdb *redis.Client
}

// NewPublisher constructs Publisher.
func NewPublisher(rdb *redis.Client) *Publisher {
	return &Publisher{rdb: rdb}
}

// Publish announces that entity changed.
func (p *Publisher) Publish(ctx context.Context, entity string) error {
	return p.rdb.Publish(ctx, Channel, entity).Err()
}

// Handler reacts to one entity change event.
type Handler func(ctx context.Context, entity string)

// Subscriber consumes change events until its context is cancelled.
type Subscriber struct {
	logger  *slog.Logger
	rdb     *redis.Client
	handler Handler
}

// NewSubscriber constructs Subscriber.
func NewSubscriber(logger *slog.Logger, rdb *redis.Client, handler Handler) *Subscriber {
	return &Subscriber{logger: logger, rdb: rdb, handler: handler}
}

// Run blocks consuming change events. It returns when ctx is cancelled.
func (s *Subscriber) Run(ctx context.Context) error {
	sub := s.rdb.Subscribe(ctx, Channel)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			s.logger.Debug("change event", "entity", msg.Payload)
			s.handler(ctx, msg.Payload)
		}
	}
}
