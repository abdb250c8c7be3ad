package repository

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/orderflow/orderflow/internal/orderflow/model"
)

// EventPublisher signals stage and promotion completion to independent
// consumers. Publishing is fire and forget: there is no delivery guarantee
// and no subscriber is required to be listening.
type EventPublisher interface {
	Publish(ctx context.Context, event model.PipelineEvent) error
}

type RedisEventPublisher struct {
	db      redis.UniversalClient
	channel string
}

func NewRedisEventPublisher(db redis.UniversalClient, channel string) *RedisEventPublisher {
	return &RedisEventPublisher{db: db, channel: channel}
}

func (p *RedisEventPublisher) Publish(ctx context.Context, event model.PipelineEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return errors.WithMessage(err, "error serializing pipeline event")
	}
	return p.db.Publish(ctx, p.channel, data).Err()
}

// Subscribe returns a channel of decoded pipeline events. The channel closes
// when ctx is cancelled. Messages that fail to decode are logged and skipped.
func (p *RedisEventPublisher) Subscribe(ctx context.Context) <-chan model.PipelineEvent {
	pubsub := p.db.Subscribe(ctx, p.channel)
	out := make(chan model.PipelineEvent)

	go func() {
		defer close(out)
		defer func() {
			if err := pubsub.Close(); err != nil {
				log.WithError(err).Warn("failed to close pub/sub subscription")
			}
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-pubsub.Channel():
				if !ok {
					return
				}
				event := model.PipelineEvent{}
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					log.WithError(err).Warnf("discarding malformed event on channel %s", p.channel)
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
	return out
}
