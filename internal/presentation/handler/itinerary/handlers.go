package itinerary

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/lifetravel/endpoint/internal/domain"
	"github.com/lifetravel/endpoint/internal/infrastructure/configs"
	"github.com/lifetravel/endpoint/internal/infrastructure/logging"
	"github.com/lifetravel/endpoint/internal/infrastructure/metrics"
	"github.com/lifetravel/endpoint/internal/infrastructure/validate"
	"github.com/lifetravel/endpoint/internal/infrastructure/ws"
)

type Handler struct {
	publisher      domain.ItineraryPublisher
	decoder        *Decoder
	upgrader       *websocket.Upgrader
	core           *ws.Core
	wsConfig       configs.WebSocketConfig
	publishTimeout time.Duration
	logger         logging.Logger
	metrics        *metrics.Metrics
}

func NewHandler(
	publisher domain.ItineraryPublisher,
	core *ws.Core,
	cfg configs.Config,
	logger logging.Logger,
	m *metrics.Metrics,
) *Handler {
	return &Handler{
		publisher:      publisher,
		decoder:        NewDecoder(validate.New()),
		upgrader:       ws.NewUpgrader(cfg.HTTP.AllowedOrigins),
		core:           core,
		wsConfig:       cfg.WebSocket,
		publishTimeout: cfg.RabbitMQ.PublishTimeout,
		logger:         logger,
		metrics:        m,
	}
}

// ItineraryWebSocketHandler godoc
// @Summary      Submit itinerary requests
// @Description  Upgrades to a WebSocket session. Each text frame {"id"?: string, "content": string} is validated and published to the broker; every frame gets exactly one reply.
// @Tags         itinerary
// @Produce      json
// @Success      101 {object} ws.ReceivedFrame "Switching Protocols - reply frame for a published request"
// @Failure      429 {object} map[string]interface{} "Rate limit exceeded"
// @Router       /api/v1/itinerary [get]
func (h *Handler) ItineraryWebSocketHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn(logging.WebSocket, logging.Upgrade, "websocket upgrade failed", map[logging.ExtraKey]any{
			logging.ClientIp:     r.RemoteAddr,
			logging.ErrorMessage: err.Error(),
		})
		return
	}

	c := ws.NewConn(conn, h.wsConfig.MaxMessageBytes, h.wsConfig.WriteTimeout)
	defer c.Close()

	if !h.core.Register(c) {
		_ = c.CloseGoingAway("server shutting down")
		return
	}
	defer h.core.Unregister(c)

	h.metrics.SessionOpened()
	defer h.metrics.SessionClosed()

	h.logger.Info(logging.WebSocket, logging.Session, "session opened", map[logging.ExtraKey]any{
		logging.SessionID: c.ID,
		logging.ClientIp:  r.RemoteAddr,
	})

	// Publishes outlive the connection: a disconnect must not cancel them.
	h.serve(context.WithoutCancel(r.Context()), c)

	h.logger.Info(logging.WebSocket, logging.Session, "session closed", map[logging.ExtraKey]any{
		logging.SessionID: c.ID,
	})
}

// serve processes frames strictly in arrival order until the peer goes away.
func (h *Handler) serve(ctx context.Context, c *ws.Conn) {
	for {
		msgType, raw, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
				websocket.CloseAbnormalClosure,
			) {
				h.logger.Warn(logging.WebSocket, logging.Session, "session read failed", map[logging.ExtraKey]any{
					logging.SessionID:    c.ID,
					logging.ErrorMessage: err.Error(),
				})
			}
			return
		}

		if msgType != websocket.TextMessage {
			h.metrics.ObserveFrame(metrics.OutcomeUnsupported)
			h.logger.Warn(logging.WebSocket, logging.Frame, "unsupported frame type ignored", map[logging.ExtraKey]any{
				logging.SessionID: c.ID,
			})
			continue
		}

		reply := h.HandleFrame(ctx, c.ID, raw)

		if err := c.WriteJSON(reply); err != nil {
			h.logger.Warn(logging.WebSocket, logging.Frame, "failed to write reply", map[logging.ExtraKey]any{
				logging.SessionID:    c.ID,
				logging.ErrorMessage: err.Error(),
			})
			return
		}
	}
}

// HandleFrame runs decode, validation and publish for one frame and returns
// the reply to send back.
func (h *Handler) HandleFrame(ctx context.Context, sessionID string, raw []byte) any {
	req, err := h.decoder.Decode(raw)
	if err != nil {
		var invalid *InvalidRequestError
		switch {
		case errors.As(err, &invalid):
			h.metrics.ObserveFrame(metrics.OutcomeInvalid)
			h.logger.Info(logging.Validation, logging.Frame, "invalid request structure", map[logging.ExtraKey]any{
				logging.SessionID: sessionID,
				"violations":      invalid.Violations,
			})
			return ws.NewInvalidStructure(invalid.Violations)
		default:
			h.metrics.ObserveFrame(metrics.OutcomeMalformed)
			h.logger.Info(logging.Validation, logging.Frame, "malformed payload", map[logging.ExtraKey]any{
				logging.SessionID: sessionID,
			})
			return ws.NewInvalidJSON()
		}
	}

	if h.publishTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.publishTimeout)
		defer cancel()
	}

	start := time.Now()
	err = h.publisher.PublishItinerary(ctx, req)
	h.metrics.ObservePublish(time.Since(start), err)

	if err != nil {
		h.metrics.ObserveFrame(metrics.OutcomePublishFailed)
		h.logger.Error(logging.RabbitMQ, logging.Publish, "failed to publish itinerary request", map[logging.ExtraKey]any{
			logging.SessionID:    sessionID,
			logging.ErrorMessage: err.Error(),
		})
		return ws.NewPublishFailed(err)
	}

	h.metrics.ObserveFrame(metrics.OutcomePublished)
	return ws.NewReceived(req)
}
