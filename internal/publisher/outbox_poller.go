package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Ahmed0rashed/laya-store-backend/internal/domain"
	"github.com/Ahmed0rashed/laya-store-backend/internal/repository"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

const EventOrderCreated = "order.created"

// MessageWriter is the part of *kafka.Writer the poller needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type Config struct {
	PollEvery time.Duration
	BatchSize int64
	// BreakerTimeout is how long the breaker stays open before probing again.
	BreakerTimeout time.Duration
	// BreakerFailures is the consecutive failure count that opens the breaker.
	BreakerFailures uint32
}

// OrderCreatedEvent is the payload written for every new order.
type OrderCreatedEvent struct {
	EventID     string             `json:"eventId"`
	EventType   string             `json:"eventType"`
	OrderID     string             `json:"orderId"`
	OrderNumber string             `json:"orderNumber"`
	Email       string             `json:"email,omitempty"`
	Items       []domain.OrderItem `json:"items"`
	Pricing     domain.Pricing     `json:"pricing"`
	Status      domain.OrderStatus `json:"status"`
	CreatedAt   time.Time          `json:"createdAt"`
}

// OrderPoller publishes orders that have not been published yet, then marks
// them. Delivery is at-least-once: a crash between write and mark republishes.
type OrderPoller struct {
	repo    repository.OrderRepository
	writer  MessageWriter
	breaker *gobreaker.CircuitBreaker[struct{}]
	cfg     Config
	log     *zap.Logger
	now     func() time.Time
}

func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
		WriteTimeout:           10 * time.Second,
	}
}

func NewOrderPoller(repo repository.OrderRepository, writer MessageWriter, cfg Config, log *zap.Logger) *OrderPoller {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.PollEvery <= 0 {
		cfg.PollEvery = 5 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.BreakerTimeout <= 0 {
		cfg.BreakerTimeout = 30 * time.Second
	}
	if cfg.BreakerFailures == 0 {
		cfg.BreakerFailures = 5
	}

	p := &OrderPoller{
		repo:   repo,
		writer: writer,
		cfg:    cfg,
		log:    log,
		now:    time.Now,
	}
	p.breaker = gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        "order-events",
		MaxRequests: 1,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
	return p
}

func (p *OrderPoller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.cfg.PollEvery)
	defer ticker.Stop()

	p.log.Info("order outbox poller started", zap.Duration("every", p.cfg.PollEvery))
	for {
		select {
		case <-ticker.C:
			p.processUnpublished(ctx)
		case <-ctx.Done():
			p.log.Info("order outbox poller stopped")
			return
		}
	}
}

// processUnpublished returns the number of orders published in this pass.
func (p *OrderPoller) processUnpublished(ctx context.Context) int {
	orders, err := p.repo.GetUnpublishedOrders(ctx, p.cfg.BatchSize)
	if err != nil {
		p.log.Error("failed to fetch unpublished orders", zap.Error(err))
		return 0
	}

	published := 0
	for _, order := range orders {
		if err := p.publish(ctx, order); err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				p.log.Warn("broker unavailable, deferring remaining orders", zap.Int("pending", len(orders)-published))
				return published
			}
			p.log.Error("failed to publish order",
				zap.String("order_number", order.OrderNumber), zap.Error(err))
			continue
		}

		if err := p.repo.MarkOrderPublished(ctx, order.ID, p.now()); err != nil {
			p.log.Error("failed to mark order published",
				zap.String("order_number", order.OrderNumber), zap.Error(err))
			continue
		}
		published++
	}
	return published
}

func (p *OrderPoller) publish(ctx context.Context, order *domain.Order) error {
	eventID := uuid.NewString()
	payload, err := json.Marshal(OrderCreatedEvent{
		EventID:     eventID,
		EventType:   EventOrderCreated,
		OrderID:     order.ID.Hex(),
		OrderNumber: order.OrderNumber,
		Email:       order.Email,
		Items:       order.Items,
		Pricing:     order.Pricing,
		Status:      order.Status,
		CreatedAt:   order.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal order event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(order.OrderNumber),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(EventOrderCreated)},
			{Key: "event_id", Value: []byte(eventID)},
		},
	}

	_, err = p.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, p.writer.WriteMessages(ctx, msg)
	})
	return err
}
