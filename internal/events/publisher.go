// Package events публикует события жизненного цикла подписок в RabbitMQ.
//
// События потребляются внешними сервисами уведомлений; сам сервис
// писем не отправляет. Публикация не должна ломать переход состояния:
// ошибка публикации логируется вызывающей стороной и не откатывает запись.
package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/streadway/amqp"
)

// Ключи маршрутизации событий подписки.
const (
	TrialCreated      = "subscription.trial_created"
	Activated         = "subscription.activated"
	Expired           = "subscription.expired"
	StatusChanged     = "subscription.status_changed"
	UserDeleted       = "subscription.user_deleted"
	exchangeName      = "subscription-events"
	connectRetryDelay = 2 * time.Second
)

// SubscriptionEvent — полезная нагрузка события жизненного цикла.
type SubscriptionEvent struct {
	UserUID   string    `json:"user_uid"`
	Status    string    `json:"status"`
	PlanID    *int      `json:"plan_id,omitempty"`
	EndDate   time.Time `json:"end_date"`
	OccuredAt time.Time `json:"occured_at"`
}

// Publisher описывает публикацию событий подписки.
type Publisher interface {
	Publish(routingKey string, event SubscriptionEvent) error
}

// RabbitPublisher публикует события в topic-exchange RabbitMQ.
type RabbitPublisher struct {
	ch *amqp.Channel
}

// Connect подключается к RabbitMQ с повторами и объявляет exchange.
func Connect(url string, retries int) (*RabbitPublisher, error) {
	const op = "events.Connect"
	var conn *amqp.Connection
	var err error

	for i := 0; i < retries; i++ {
		conn, err = amqp.Dial(url)
		if err == nil {
			break
		}
		time.Sleep(connectRetryDelay)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	err = ch.ExchangeDeclare(
		exchangeName,
		"topic",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &RabbitPublisher{ch: ch}, nil
}

// Publish сериализует событие в JSON и публикует его с заданным ключом маршрутизации.
func (p *RabbitPublisher) Publish(routingKey string, event SubscriptionEvent) error {
	const op = "events.Publish"
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	err = p.ch.Publish(
		exchangeName,
		routingKey,
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

// Noop — заглушка публикации для окружений без RabbitMQ и для тестов.
type Noop struct{}

// Publish ничего не делает.
func (Noop) Publish(string, SubscriptionEvent) error { return nil }
