package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// SessionResolved is published when a payment session reaches a terminal
// outcome, for downstream fulfillment services.
type SessionResolved struct {
	SessionID  string    `json:"session_id"`
	UserID     int64     `json:"user_id"`
	ProductID  string    `json:"product_id"`
	Currency   string    `json:"currency"`
	Amount     string    `json:"amount"`
	Outcome    string    `json:"outcome"`
	TxID       string    `json:"tx_id,omitempty"`
	ResolvedAt time.Time `json:"resolved_at"`
}

// Producer publishes session events to Kafka fire-and-forget via a buffered
// inbox goroutine, so a slow broker never blocks the payment path.
//
// The inbox channel is never closed: sessions outlive the requests that
// start them and may resolve during shutdown, so publishers must stay safe
// to call at any time. Late events are dropped once the delivery loop exits.
type Producer struct {
	w      *kafka.Writer
	inbox  chan kafka.Message
	done   chan struct{}
	logger *zap.Logger
}

// NewProducer creates an async producer. Returns nil when no brokers are
// configured, which disables publishing.
func NewProducer(brokers []string, topic string, buf int, logger *zap.Logger) *Producer {
	if len(brokers) == 0 {
		return nil
	}

	return &Producer{
		w: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			Async:        true,
		},
		inbox:  make(chan kafka.Message, buf),
		done:   make(chan struct{}),
		logger: logger,
	}
}

// Start launches the delivery loop. On ctx cancellation the queued messages
// are flushed before the writer closes.
func (p *Producer) Start(ctx context.Context) {
	go func() {
		defer close(p.done)

		for {
			select {
			case <-ctx.Done():
				p.drain()
				if err := p.w.Close(); err != nil {
					p.logger.Error("Failed to close kafka writer", zap.Error(err))
				}
				return
			case m := <-p.inbox:
				p.write(m)
			}
		}
	}()
}

// PublishResolved enqueues a resolved-session event. Never blocks the
// caller: when the inbox is full or the delivery loop has stopped, the
// event is dropped with a warning.
func (p *Producer) PublishResolved(event SessionResolved) {
	value, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("Failed to marshal session event", zap.Error(err))
		return
	}

	msg := kafka.Message{
		Key:   []byte(event.SessionID),
		Value: value,
		Time:  time.Now(),
	}

	select {
	case <-p.done:
		p.logger.Warn("Producer stopped, dropping session event",
			zap.String("session_id", event.SessionID),
		)
		return
	default:
	}

	select {
	case p.inbox <- msg:
	default:
		p.logger.Warn("Event inbox full, dropping session event",
			zap.String("session_id", event.SessionID),
		)
	}
}

// Done reports when the delivery loop has flushed and exited.
func (p *Producer) Done() <-chan struct{} {
	return p.done
}

// drain flushes whatever is already queued without closing the inbox, so
// concurrent publishers can never hit a closed channel.
func (p *Producer) drain() {
	for {
		select {
		case m := <-p.inbox:
			p.write(m)
		default:
			return
		}
	}
}

func (p *Producer) write(m kafka.Message) {
	if err := p.w.WriteMessages(context.Background(), m); err != nil {
		p.logger.Error("Failed to publish session event", zap.Error(err))
	}
}
