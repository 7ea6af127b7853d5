package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/akulagin/docflow/internal/core/ports"
	"github.com/akulagin/docflow/internal/infrastructure/resilience"
)

// Bus is the NATS-backed event bus. Delivery is at-least-once from the
// perspective of the handlers: a handler error after the publish, or an
// executor retry, re-invokes the handler with the same payload.
type Bus struct {
	conn       *nats.Conn
	queueGroup string
	executor   *resilience.Executor

	mu       sync.Mutex
	handlers []registration
	subs     []*nats.Subscription
}

type registration struct {
	topic   string
	handler ports.EventHandler
}

type Options struct {
	QueueGroup           string
	ConnectTimeout       time.Duration
	ReconnectWait        time.Duration
	MaxReconnects        int
	RetryOnFailedConnect *bool
	ResilienceExecutor   *resilience.Executor
}

func New(url string, options Options) (*Bus, error) {
	queueGroup := options.QueueGroup
	if queueGroup == "" {
		queueGroup = "docflow-workers"
	}
	connectTimeout := options.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = 2 * time.Second
	}
	reconnectWait := options.ReconnectWait
	if reconnectWait <= 0 {
		reconnectWait = 2 * time.Second
	}
	maxReconnects := options.MaxReconnects
	if maxReconnects <= 0 {
		maxReconnects = 60
	}
	retryOnFailedConnect := true
	if options.RetryOnFailedConnect != nil {
		retryOnFailedConnect = *options.RetryOnFailedConnect
	}

	conn, err := nats.Connect(
		url,
		nats.Name("docflow"),
		nats.Timeout(connectTimeout),
		nats.ReconnectWait(reconnectWait),
		nats.MaxReconnects(maxReconnects),
		nats.RetryOnFailedConnect(retryOnFailedConnect),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			slog.Warn("nats_disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			slog.Info("nats_reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &Bus{
		conn:       conn,
		queueGroup: queueGroup,
		executor:   options.ResilienceExecutor,
	}, nil
}

func (b *Bus) Close() {
	if b.conn != nil {
		b.conn.Close()
	}
}

func (b *Bus) Publish(ctx context.Context, topic string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", topic, err)
	}

	call := func(_ context.Context) error {
		if err := b.conn.Publish(topic, payload); err != nil {
			return fmt.Errorf("nats publish %s: %w", topic, err)
		}
		return nil
	}

	if b.executor != nil {
		err = b.executor.Execute(ctx, "nats.publish."+topic, call, classifyNATSError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return wrapTemporaryIfNeeded(topic, err)
	}
	return nil
}

// Subscribe registers a handler for a topic. Registrations made before
// Listen are activated when Listen starts.
func (b *Bus) Subscribe(topic string, handler ports.EventHandler) error {
	if handler == nil {
		return fmt.Errorf("nats subscribe %s: handler is nil", topic)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, registration{topic: topic, handler: handler})
	return nil
}

// Listen activates all registered subscriptions and blocks until ctx is
// done, then drains. Handler failures are retried by the resilience
// executor when classified as temporary; exhausted failures are logged and
// the message is dropped.
func (b *Bus) Listen(ctx context.Context) error {
	b.mu.Lock()
	registrations := make([]registration, len(b.handlers))
	copy(registrations, b.handlers)
	b.mu.Unlock()

	for _, reg := range registrations {
		reg := reg
		sub, err := b.conn.QueueSubscribe(reg.topic, b.queueGroup, func(msg *nats.Msg) {
			if errors.Is(ctx.Err(), context.Canceled) {
				return
			}

			handlerCtx, cancel := context.WithCancel(ctx)
			defer cancel()
			if err := b.dispatch(handlerCtx, reg.topic, reg.handler, msg.Data); err != nil {
				slog.Error("event_handler_failed", "topic", reg.topic, "error", err)
			}
		})
		if err != nil {
			return fmt.Errorf("nats subscribe %s: %w", reg.topic, err)
		}

		b.mu.Lock()
		b.subs = append(b.subs, sub)
		b.mu.Unlock()
	}

	if err := b.conn.Flush(); err != nil {
		return fmt.Errorf("nats flush: %w", err)
	}

	<-ctx.Done()

	b.mu.Lock()
	subs := b.subs
	b.subs = nil
	b.mu.Unlock()

	for _, sub := range subs {
		if err := sub.Drain(); err != nil {
			return fmt.Errorf("nats drain subscription: %w", err)
		}
	}
	if err := b.conn.FlushTimeout(5 * time.Second); err != nil {
		return fmt.Errorf("nats flush after drain: %w", err)
	}
	return nil
}

func (b *Bus) dispatch(ctx context.Context, topic string, handler ports.EventHandler, data []byte) error {
	if b.executor == nil {
		return handler(ctx, data)
	}
	return b.executor.Execute(ctx, "handle."+topic, func(callCtx context.Context) error {
		return handler(callCtx, data)
	}, classifyHandlerError)
}
