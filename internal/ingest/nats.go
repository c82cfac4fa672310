package ingest

import (
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"golang.org/x/time/rate"

	"github.com/alexzhuzhou/Aviation-Flight-Data-Processing-System-sub001/pkg/logger"
)

// Consumer subscribes to a NATS subject carrying packet JSON and feeds the
// ingestion service. It is an alternative transport for the same boundary the
// HTTP handler exposes.
type Consumer struct {
	conn    *nats.Conn
	sub     *nats.Subscription
	subject string
	service *Service
	limiter *rate.Limiter
	logger  *logger.Logger
}

// NewConsumer connects to NATS. maxPacketsSec caps packet processing; zero
// means unlimited.
func NewConsumer(url, subject string, maxPacketsSec int, service *Service, log *logger.Logger) (*Consumer, error) {
	conn, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	var limiter *rate.Limiter
	if maxPacketsSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(maxPacketsSec), maxPacketsSec)
	}

	return &Consumer{
		conn:    conn,
		subject: subject,
		service: service,
		limiter: limiter,
		logger:  log.Named("nats-consumer"),
	}, nil
}

// Start subscribes to the configured subject
func (c *Consumer) Start() error {
	sub, err := c.conn.Subscribe(c.subject, c.handleMessage)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", c.subject, err)
	}
	c.sub = sub

	c.logger.Info("Subscribed to packet subject", logger.String("subject", c.subject))
	return nil
}

func (c *Consumer) handleMessage(msg *nats.Msg) {
	if c.limiter != nil && !c.limiter.Allow() {
		c.logger.Warn("Packet rate limit exceeded, dropping message",
			logger.String("subject", msg.Subject))
		return
	}

	var raw RawPacket
	if err := json.Unmarshal(msg.Data, &raw); err != nil {
		c.logger.Error("Failed to decode packet message", logger.Error(err))
		return
	}

	packet, err := raw.Convert()
	if err != nil {
		c.logger.Error("Failed to convert packet message", logger.Error(err))
		return
	}

	if _, err := c.service.ProcessPacket(packet); err != nil {
		c.logger.Error("Failed to process packet from NATS", logger.Error(err))
	}
}

// Stop unsubscribes and closes the connection
func (c *Consumer) Stop() {
	if c.sub != nil {
		c.sub.Unsubscribe()
	}
	if c.conn != nil {
		c.conn.Close()
	}
}
