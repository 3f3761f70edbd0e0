package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Ahmed0rashed/laya-store-backend/internal/domain"
	kafkaGo "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/kafka"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type mockOrderRepository struct {
	m         sync.Mutex
	orders    []*domain.Order
	published map[primitive.ObjectID]time.Time
	getErr    error
	markErr   error
}

func newMockOrderRepository(orders ...*domain.Order) *mockOrderRepository {
	return &mockOrderRepository{orders: orders, published: map[primitive.ObjectID]time.Time{}}
}

func (m *mockOrderRepository) CreateOrder(_ context.Context, o *domain.Order) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.orders = append(m.orders, o)
	return nil
}

func (m *mockOrderRepository) GetOrderByNumber(context.Context, string) (*domain.Order, error) {
	return nil, errors.New("not implemented")
}

func (m *mockOrderRepository) GetUnpublishedOrders(_ context.Context, limit int64) ([]*domain.Order, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	var out []*domain.Order
	for _, o := range m.orders {
		if _, ok := m.published[o.ID]; ok {
			continue
		}
		out = append(out, o)
		if int64(len(out)) == limit {
			break
		}
	}
	return out, nil
}

func (m *mockOrderRepository) MarkOrderPublished(_ context.Context, id primitive.ObjectID, at time.Time) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.markErr != nil {
		return m.markErr
	}
	m.published[id] = at
	return nil
}

func (m *mockOrderRepository) publishedCount() int {
	m.m.Lock()
	defer m.m.Unlock()
	return len(m.published)
}

type mockWriter struct {
	m        sync.Mutex
	messages []kafkaGo.Message
	err      error
	calls    int
}

func (w *mockWriter) WriteMessages(_ context.Context, msgs ...kafkaGo.Message) error {
	w.m.Lock()
	defer w.m.Unlock()
	w.calls++
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func newOrder(n int) *domain.Order {
	return &domain.Order{
		ID:          primitive.NewObjectID(),
		OrderNumber: fmt.Sprintf("ORD-1700000000000-%03d", n),
		Items:       []domain.OrderItem{{ProductID: primitive.NewObjectID(), Quantity: 2, Price: 10}},
		Pricing:     domain.Pricing{Subtotal: 20, Shipping: 5, Total: 25},
		Status:      domain.OrderStatusPending,
		CreatedAt:   time.Now(),
	}
}

func TestProcessUnpublished_PublishesAndMarks(t *testing.T) {
	repo := newMockOrderRepository(newOrder(1), newOrder(2))
	w := &mockWriter{}
	p := NewOrderPoller(repo, w, Config{}, nil)

	n := p.processUnpublished(context.Background())
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, repo.publishedCount())
	require.Len(t, w.messages, 2)

	msg := w.messages[0]
	assert.Equal(t, "ORD-1700000000000-001", string(msg.Key))
	require.Len(t, msg.Headers, 2)
	assert.Equal(t, EventOrderCreated, string(msg.Headers[0].Value))

	var event OrderCreatedEvent
	require.NoError(t, json.Unmarshal(msg.Value, &event))
	assert.Equal(t, EventOrderCreated, event.EventType)
	assert.Equal(t, "ORD-1700000000000-001", event.OrderNumber)
	assert.Equal(t, 25.0, event.Pricing.Total)
	assert.NotEmpty(t, event.EventID)

	// second pass has nothing left
	assert.Zero(t, p.processUnpublished(context.Background()))
	assert.Len(t, w.messages, 2)
}

func TestProcessUnpublished_WriteErrorLeavesOrderPending(t *testing.T) {
	repo := newMockOrderRepository(newOrder(1))
	w := &mockWriter{err: errors.New("broker down")}
	p := NewOrderPoller(repo, w, Config{BreakerFailures: 10}, nil)

	assert.Zero(t, p.processUnpublished(context.Background()))
	assert.Zero(t, repo.publishedCount())

	w.err = nil
	assert.Equal(t, 1, p.processUnpublished(context.Background()))
	assert.Equal(t, 1, repo.publishedCount())
}

func TestProcessUnpublished_MarkErrorRepublishes(t *testing.T) {
	repo := newMockOrderRepository(newOrder(1))
	repo.markErr = errors.New("write conflict")
	w := &mockWriter{}
	p := NewOrderPoller(repo, w, Config{}, nil)

	assert.Zero(t, p.processUnpublished(context.Background()))
	repo.markErr = nil
	assert.Equal(t, 1, p.processUnpublished(context.Background()))
	assert.Len(t, w.messages, 2, "at-least-once delivery")
}

func TestProcessUnpublished_OpenBreakerStopsBatch(t *testing.T) {
	repo := newMockOrderRepository(newOrder(1), newOrder(2), newOrder(3), newOrder(4))
	w := &mockWriter{err: errors.New("broker down")}
	p := NewOrderPoller(repo, w, Config{BreakerFailures: 2, BreakerTimeout: time.Minute}, nil)

	assert.Zero(t, p.processUnpublished(context.Background()))
	assert.Equal(t, 2, w.calls, "breaker opens after two failures and skips the rest")

	assert.Zero(t, p.processUnpublished(context.Background()))
	assert.Equal(t, 2, w.calls)
}

func TestProcessUnpublished_FetchError(t *testing.T) {
	repo := newMockOrderRepository()
	repo.getErr = errors.New("database error")
	w := &mockWriter{}
	p := NewOrderPoller(repo, w, Config{}, nil)

	assert.Zero(t, p.processUnpublished(context.Background()))
	assert.Zero(t, w.calls)
}

func TestRun_StopsOnCancel(t *testing.T) {
	repo := newMockOrderRepository(newOrder(1))
	w := &mockWriter{}
	p := NewOrderPoller(repo, w, Config{PollEvery: 10 * time.Millisecond}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		return repo.publishedCount() == 1
	}, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("poller did not stop")
	}
}

func setupKafka(t *testing.T) (string, func()) {
	ctx := context.Background()

	kafkaContainer, err := kafka.Run(ctx, "confluentinc/confluent-local:7.5.0")
	require.NoError(t, err)

	brokers, err := kafkaContainer.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers, "broker address should not be empty")

	cleanup := func() {
		if err := kafkaContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate kafka container: %v", err)
		}
	}
	return brokers[0], cleanup
}

func TestOrderPoller_PublishesToKafka(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping kafka integration test in short mode")
	}
	brokerAddr, cleanup := setupKafka(t)
	defer cleanup()

	const topic = "order-events-test"
	writer := NewKafkaWriter([]string{brokerAddr}, topic)
	defer writer.Close()

	repo := newMockOrderRepository(newOrder(42))
	p := NewOrderPoller(repo, writer, Config{PollEvery: time.Second}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	go p.Run(ctx)

	reader := kafkaGo.NewReader(kafkaGo.ReaderConfig{
		Brokers:  []string{brokerAddr},
		Topic:    topic,
		GroupID:  "test-consumer",
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	defer reader.Close()

	msg, err := reader.ReadMessage(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ORD-1700000000000-042", string(msg.Key))

	require.Eventually(t, func() bool {
		return repo.publishedCount() == 1
	}, 10*time.Second, 100*time.Millisecond)
}
