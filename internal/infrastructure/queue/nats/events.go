package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/kirillkom/docstudio/internal/core/ports"
	"github.com/kirillkom/docstudio/internal/infrastructure/resilience"
	"github.com/nats-io/nats.go"
)

const DefaultSubject = "docstudio.output.ready"

// OutputEvents carries output-ready notifications between the web app and
// the preview worker.
type OutputEvents struct {
	conn     *nats.Conn
	subject  string
	group    string
	executor *resilience.Executor
}

func New(url, subject string) (*OutputEvents, error) {
	return NewWithOptions(url, subject, Options{})
}

type Options struct {
	ConnectTimeout       time.Duration
	ReconnectWait        time.Duration
	MaxReconnects        int
	RetryOnFailedConnect *bool
	ResilienceExecutor   *resilience.Executor
	ClientName           string
	QueueGroup           string
}

func NewWithOptions(url, subject string, options Options) (*OutputEvents, error) {
	if subject == "" {
		subject = DefaultSubject
	}
	name := options.ClientName
	if name == "" {
		name = "docstudio"
	}
	group := options.QueueGroup
	if group == "" {
		group = "preview-workers"
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
		nats.Name(name),
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
	return &OutputEvents{
		conn:     conn,
		subject:  subject,
		group:    group,
		executor: options.ResilienceExecutor,
	}, nil
}

func (q *OutputEvents) Close() {
	if q.conn != nil {
		q.conn.Close()
	}
}

func (q *OutputEvents) PublishOutputReady(ctx context.Context, event ports.OutputReadyEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal output event: %w", err)
	}
	call := func(_ context.Context) error {
		if err := q.conn.Publish(q.subject, payload); err != nil {
			return fmt.Errorf("nats publish: %w", err)
		}
		return nil
	}

	if q.executor != nil {
		err = q.executor.Execute(ctx, resilience.CallPublish, publishOperation, call, classifyPublish)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return publishError(err)
	}
	return nil
}

// SubscribeOutputReady blocks until ctx is cancelled, then drains the
// subscription. Malformed messages are logged and dropped.
func (q *OutputEvents) SubscribeOutputReady(ctx context.Context, handler func(context.Context, ports.OutputReadyEvent) error) error {
	sub, err := q.conn.QueueSubscribe(q.subject, q.group, func(msg *nats.Msg) {
		if errors.Is(ctx.Err(), context.Canceled) {
			return
		}

		event, err := decodeEvent(msg.Data)
		if err != nil {
			slog.Warn("output_event_invalid", "subject", msg.Subject, "error", err)
			return
		}

		handlerCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		if err := handler(handlerCtx, event); err != nil {
			slog.Error("output_event_handler_failed", "session_id", event.SessionID, "download_id", event.DownloadID, "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("nats subscribe: %w", err)
	}

	if err := q.conn.Flush(); err != nil {
		return fmt.Errorf("nats flush: %w", err)
	}

	<-ctx.Done()
	if err := sub.Drain(); err != nil {
		return fmt.Errorf("nats drain subscription: %w", err)
	}
	if err := q.conn.FlushTimeout(5 * time.Second); err != nil {
		return fmt.Errorf("nats flush after drain: %w", err)
	}
	return nil
}

func decodeEvent(data []byte) (ports.OutputReadyEvent, error) {
	var event ports.OutputReadyEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return ports.OutputReadyEvent{}, fmt.Errorf("decode output event: %w", err)
	}
	if event.PreviewURL == "" {
		return ports.OutputReadyEvent{}, fmt.Errorf("output event without preview_url")
	}
	return event, nil
}
