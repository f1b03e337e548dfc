package dispatcher

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/khetisetu/notification-event-service/internal/domain"
)

// TracingDispatcher 为分发器添加链路追踪的装饰器
type TracingDispatcher struct {
	dispatcher Dispatcher
	tracer     trace.Tracer
}

// NewTracingDispatcher 创建一个新的带有链路追踪的分发器
func NewTracingDispatcher(d Dispatcher) *TracingDispatcher {
	return &TracingDispatcher{
		dispatcher: d,
		tracer:     otel.Tracer("notification-event-service/dispatcher"),
	}
}

func (t *TracingDispatcher) Dispatch(ctx context.Context, req domain.DeliveryRequest) (Result, error) {
	ctx, span := t.tracer.Start(ctx, "Dispatcher.Dispatch",
		trace.WithAttributes(
			attribute.String("notification.eventId", req.EventID),
			attribute.String("notification.traceId", req.TraceID()),
			attribute.String("notification.channel", string(req.Channel)),
			attribute.String("notification.template", req.TemplateName),
		))
	defer span.End()

	result, err := t.dispatcher.Dispatch(ctx, req)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetAttributes(attribute.String("notification.outcome", string(result.Outcome)))
	}

	return result, err
}
