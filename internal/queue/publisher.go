package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

// Publisher buffers catalog events and ships them to a durable RabbitMQ
// queue from a single background goroutine. Publish never blocks: when the
// buffer is full the event is dropped with a warning.
type Publisher struct {
	url    string
	queue  string
	events chan CatalogEvent
	log    zerolog.Logger
	dial   func(url string) (*amqp.Connection, error)
}

// NewPublisher creates a publisher with room for buffer pending events.
// Run must be started for events to leave the process.
func NewPublisher(url, queue string, buffer int, log zerolog.Logger) *Publisher {
	if buffer < 1 {
		buffer = 1
	}
	return &Publisher{
		url:    url,
		queue:  queue,
		events: make(chan CatalogEvent, buffer),
		log:    log.With().Str("component", "catalog-publisher").Logger(),
		dial:   amqp.Dial,
	}
}

// Publish enqueues ev.
func (p *Publisher) Publish(ev CatalogEvent) {
	select {
	case p.events <- ev:
	default:
		p.log.Warn().Str("resource", ev.Resource).Str("action", ev.Action).Uint64("id", ev.ID).Msg("event buffer full, dropping event")
	}
}

// Pending returns the number of buffered events.
func (p *Publisher) Pending() int {
	return len(p.events)
}

// Run connects to the broker and publishes buffered events until ctx is
// cancelled, reconnecting with exponential backoff.
func (p *Publisher) Run(ctx context.Context) {
	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return
		}
		conn, err := p.dial(p.url)
		if err != nil {
			p.log.Warn().Err(err).Dur("retry_in", backoff).Msg("failed to dial broker")
			if !sleep(ctx, backoff) {
				return
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		if err := p.publishLoop(ctx, conn); err != nil {
			p.log.Warn().Err(err).Msg("publish loop ended, reconnecting")
		}
		_ = conn.Close()
	}
}

func (p *Publisher) publishLoop(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	// Ensure the queue exists (idempotent). Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	closed := conn.NotifyClose(make(chan *amqp.Error, 1))
	for {
		select {
		case <-ctx.Done():
			return nil
		case amqpErr := <-closed:
			return fmt.Errorf("connection closed: %v", amqpErr)
		case ev := <-p.events:
			pub, err := encodeEvent(ev)
			if err != nil {
				p.log.Error().Err(err).Msg("marshal event failed")
				continue
			}
			if err := ch.PublishWithContext(ctx, "", p.queue, false, false, pub); err != nil {
				p.log.Warn().Err(err).Str("resource", ev.Resource).Uint64("id", ev.ID).Msg("publish failed, event dropped")
				return fmt.Errorf("publish: %w", err)
			}
		}
	}
}

func encodeEvent(ev CatalogEvent) (amqp.Publishing, error) {
	body, err := json.Marshal(ev)
	if err != nil {
		return amqp.Publishing{}, err
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent, // store on disk
		Timestamp:    ev.OccurredAt,
		Type:         ev.Resource + "." + ev.Action,
		Body:         body,
	}, nil
}

// sleep waits for d or until ctx is done. It reports whether the full
// duration elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
