package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"docveil/models"
)

const activityExchange = "activity-events"

// RabbitAuditPublisher publishes activity events to a RabbitMQ topic
// exchange. Publish failures are logged and dropped; the audit trail is a
// best-effort collaborator, never part of the operation's outcome.
type RabbitAuditPublisher struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	log     *logrus.Logger
}

func NewRabbitAuditPublisher(uri string, log *logrus.Logger) (*RabbitAuditPublisher, error) {
	conn, err := amqp.Dial(uri)
	if err != nil {
		return nil, fmt.Errorf("connecting to rabbitmq: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("opening channel: %w", err)
	}

	err = channel.ExchangeDeclare(activityExchange, "topic", true, false, false, false, nil)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("declaring exchange: %w", err)
	}

	return &RabbitAuditPublisher{conn: conn, channel: channel, log: log}, nil
}

func (p *RabbitAuditPublisher) Publish(ctx context.Context, event models.ActivityEvent) {
	body, err := json.Marshal(event)
	if err != nil {
		p.log.WithError(err).WithField("action", event.Action).Warn("dropping unmarshalable activity event")
		return
	}

	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = p.channel.PublishWithContext(pubCtx, activityExchange, event.Action, false, false, amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		MessageId:    event.ID,
		Timestamp:    event.OccurredAt,
		DeliveryMode: amqp.Persistent,
	})
	if err != nil {
		p.log.WithError(err).WithFields(logrus.Fields{
			"action":      event.Action,
			"resource_id": event.ResourceID,
		}).Warn("failed to publish activity event")
	}
}

func (p *RabbitAuditPublisher) Close() error {
	if err := p.channel.Close(); err != nil {
		p.conn.Close()
		return err
	}
	return p.conn.Close()
}
