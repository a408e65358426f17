package rabbitmq

import (
	"fmt"

	"github.com/streadway/amqp"
)

// GrantedQueue очередь сообщений об одобренных заявках на подписку.
const GrantedQueue = "notifications.granted"

// GrantedRoutingKey ключ маршрутизации для одобренных заявок.
const GrantedRoutingKey = "granted"

// QueueConfig описывает очередь и её ключ маршрутизации в обменнике notifications.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// GetNotificationQueues возвращает очереди уведомлений, которые объявляет
// каждый участник: публикующий и потребляющий.
func GetNotificationQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: GrantedQueue, RoutingKey: GrantedRoutingKey},
		// при необходимости дополнительные очереди для других воркеров
	}
}

// SetupChannel открывает канал, объявляет обменник notifications и
// привязывает к нему переданные очереди.
func SetupChannel(conn *amqp.Connection, queues []QueueConfig) (*amqp.Channel, error) {
	const op = "rabbitmq.SetupChannel"

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := ch.Qos(10, 0, false); err != nil {
		return nil, fmt.Errorf("failed to set QoS: %w", err)
	}

	err = ch.ExchangeDeclare(
		"notifications",
		"direct",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	for _, q := range queues {
		_, err := ch.QueueDeclare(
			q.QueueName,
			true,
			false,
			false,
			false,
			nil,
		)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to declare queue %s: %w", op, q.QueueName, err)
		}

		err = ch.QueueBind(
			q.QueueName,
			q.RoutingKey,
			"notifications",
			false,
			nil,
		)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to bind queue %s with routing key %s: %w", op, q.QueueName, q.RoutingKey, err)
		}
	}

	return ch, nil
}
