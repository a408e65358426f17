package rabbitmq

import (
	"encoding/json"
	"fmt"

	"github.com/streadway/amqp"
)

// PublishMessage сериализует сообщение в JSON и публикует его в обменник.
func PublishMessage(ch *amqp.Channel, exchange string, routingkey string, message any) error {
	const op = "rabbitmq.PublishMessage"
	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	err = ch.Publish(
		exchange,
		routingkey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// GrantedPublisher публикует события об одобренных заявках в очередь
// уведомлений.
type GrantedPublisher struct {
	Ch *amqp.Channel
}

// Publish отправляет событие в обменник notifications с ключом granted.
func (p *GrantedPublisher) Publish(event any) error {
	return PublishMessage(p.Ch, "notifications", GrantedRoutingKey, event)
}
