package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/lifetravel/endpoint/internal/domain"
	"github.com/lifetravel/endpoint/internal/infrastructure/configs"
	"github.com/lifetravel/endpoint/internal/infrastructure/contracts"
	"github.com/lifetravel/endpoint/internal/infrastructure/logging"
	"github.com/lifetravel/endpoint/internal/infrastructure/messaging"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/lifetravel/endpoint/internal/infrastructure/events"

// ItineraryPublisher forwards itinerary requests to the configured exchange.
// Every call dials its own connection and closes it before returning.
type ItineraryPublisher struct {
	cfg    configs.RabbitMQConfig
	appID  string
	dial   messaging.Dialer
	logger logging.Logger
	tracer trace.Tracer
	now    func() time.Time
}

var _ domain.ItineraryPublisher = (*ItineraryPublisher)(nil)

func NewItineraryPublisher(cfg configs.RabbitMQConfig, appID string, dial messaging.Dialer, logger logging.Logger) *ItineraryPublisher {
	return &ItineraryPublisher{
		cfg:    cfg,
		appID:  appID,
		dial:   dial,
		logger: logger,
		tracer: otel.Tracer(tracerName),
		now:    time.Now,
	}
}

// PublishItinerary performs one durable publish of req. Any failure is
// returned as *domain.PublishError.
func (p *ItineraryPublisher) PublishItinerary(ctx context.Context, req domain.ItineraryRequest) (err error) {
	ctx, span := p.tracer.Start(ctx, "itinerary publish",
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			attribute.String("messaging.system", "rabbitmq"),
			attribute.String("messaging.destination.name", p.cfg.Exchange),
			attribute.String("messaging.rabbitmq.destination.routing_key", p.cfg.RoutingKey),
		),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	body, err := json.Marshal(contracts.NewItineraryEnvelope(req))
	if err != nil {
		return domain.NewPublishError("marshal", err)
	}

	rmq, err := messaging.NewRabbitMQ(ctx, p.dial, p.cfg.URL())
	if err != nil {
		return domain.NewPublishError("connect", err)
	}
	defer func() {
		if cerr := rmq.Close(); cerr != nil {
			p.logger.Warn(logging.RabbitMQ, logging.Publish, "failed to close broker connection", map[logging.ExtraKey]any{
				logging.ErrorMessage: cerr.Error(),
			})
		}
	}()

	if err := rmq.DeclareDirectExchange(p.cfg.Exchange); err != nil {
		return domain.NewPublishError("declare exchange", err)
	}

	messageID := uuid.NewString()
	headers := amqp.Table{}
	otel.GetTextMapPropagator().Inject(ctx, messaging.HeaderCarrier(headers))

	msg := amqp.Publishing{
		ContentType: messaging.ContentTypeJSON,
		MessageId:   messageID,
		Timestamp:   p.now().UTC(),
		AppId:       p.appID,
		Headers:     headers,
	}

	if err := rmq.PublishPersistent(ctx, p.cfg.Exchange, p.cfg.RoutingKey, body, msg); err != nil {
		return domain.NewPublishError("publish", err)
	}

	span.SetAttributes(attribute.String("messaging.message.id", messageID))

	extra := map[logging.ExtraKey]any{
		logging.Exchange:   p.cfg.Exchange,
		logging.RoutingKey: p.cfg.RoutingKey,
		logging.MessageID:  messageID,
	}
	if req.HasID() {
		extra[logging.ItineraryID] = *req.ID
	}
	p.logger.Info(logging.RabbitMQ, logging.Publish, "itinerary request published", extra)

	return nil
}
