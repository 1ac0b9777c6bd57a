package event

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/shirin/backend/internal/domain/shared"
)

type testEvent struct {
	shared.BaseDomainEvent
}

func newTestEvent(eventType string) *testEvent {
	return &testEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, "test_aggregate", uuid.New()),
	}
}

type recordingHandler struct {
	types    []string
	received []shared.DomainEvent
	err      error
	panics   bool
}

func (h *recordingHandler) Handle(_ context.Context, evt shared.DomainEvent) error {
	if h.panics {
		panic("boom")
	}
	h.received = append(h.received, evt)
	return h.err
}

func (h *recordingHandler) EventTypes() []string {
	return h.types
}

func TestInMemoryEventBus_PublishToTypedHandler(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	handler := &recordingHandler{types: []string{"sales.sale.shipped"}}
	bus.Subscribe(handler)

	err := bus.Publish(context.Background(), newTestEvent("sales.sale.shipped"), newTestEvent("sales.sale.cancelled"))
	require.NoError(t, err)

	require.Len(t, handler.received, 1)
	assert.Equal(t, "sales.sale.shipped", handler.received[0].EventType())
}

func TestInMemoryEventBus_WildcardHandlerReceivesAll(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	wildcard := &recordingHandler{}
	bus.Subscribe(wildcard)

	err := bus.Publish(context.Background(),
		newTestEvent("production.batch.completed"),
		newTestEvent("transfer.sent"),
		newTestEvent("stocktaking.completed"),
	)
	require.NoError(t, err)

	assert.Len(t, wildcard.received, 3)
}

func TestInMemoryEventBus_FailingHandlerDoesNotBlockOthers(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	failing := &recordingHandler{types: []string{"production.batch.started"}, err: errors.New("handler failure")}
	healthy := &recordingHandler{types: []string{"production.batch.started"}}
	bus.Subscribe(failing)
	bus.Subscribe(healthy)

	err := bus.Publish(context.Background(), newTestEvent("production.batch.started"))
	require.NoError(t, err)

	assert.Len(t, healthy.received, 1)
}

func TestInMemoryEventBus_PanickingHandlerIsRecovered(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	panicking := &recordingHandler{types: []string{"transfer.received"}, panics: true}
	healthy := &recordingHandler{types: []string{"transfer.received"}}
	bus.Subscribe(panicking)
	bus.Subscribe(healthy)

	require.NotPanics(t, func() {
		_ = bus.Publish(context.Background(), newTestEvent("transfer.received"))
	})
	assert.Len(t, healthy.received, 1)
}

func TestInMemoryEventBus_Unsubscribe(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	handler := &recordingHandler{types: []string{"sales.sale.created"}}
	bus.Subscribe(handler)
	bus.Unsubscribe(handler)

	err := bus.Publish(context.Background(), newTestEvent("sales.sale.created"))
	require.NoError(t, err)

	assert.Empty(t, handler.received)
}

func TestInMemoryEventBus_StartStop(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	require.NoError(t, bus.Start(context.Background()))
	require.NoError(t, bus.Stop(context.Background()))
}

func TestHandlerRegistry_HandlersFor(t *testing.T) {
	registry := NewHandlerRegistry()
	typed := &recordingHandler{}
	wildcard := &recordingHandler{}
	registry.Register(typed, "sales.sale.shipped")
	registry.Register(wildcard)

	handlers := registry.HandlersFor("sales.sale.shipped")
	assert.Len(t, handlers, 2)

	handlers = registry.HandlersFor("sales.sale.cancelled")
	assert.Len(t, handlers, 1)
}

func TestHandlerRegistry_UnregisterRemovesEmptyTypes(t *testing.T) {
	registry := NewHandlerRegistry()
	handler := &recordingHandler{}
	registry.Register(handler, "production.batch.planned", "production.batch.cancelled")
	registry.Unregister(handler)

	assert.Empty(t, registry.HandlersFor("production.batch.planned"))
	assert.Empty(t, registry.HandlersFor("production.batch.cancelled"))
}

func TestAuditLogHandler_SubscribesToAllEvents(t *testing.T) {
	handler := NewAuditLogHandler(zap.NewNop())
	assert.Empty(t, handler.EventTypes())

	err := handler.Handle(context.Background(), newTestEvent("sales.sale.shipped"))
	assert.NoError(t, err)
}
