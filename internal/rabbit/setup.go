// setup.go
package rabbit

import (
	"context"
	"errors"
	"fmt"

	"github.com/rabbitmq/amqp091-go"
	log "github.com/sirupsen/logrus"
)

const (
	// OrderPlacedExchange es el fanout que publica checkout con cada orden pagada.
	OrderPlacedExchange = "order_placed"
	OrdersQueue         = "storefront_orders"

	NotificationsExchange = "notifications"
	NotificationsQueue    = "notification_emails"

	// DeadLetterExchange recibe lo que falla después de un reintento; cada cola tiene su
	// <cola>.dlq bindeada con routing key = nombre de la cola.
	DeadLetterExchange = "storefront_dlx"
)

// ErrDiscard marca un mensaje que nunca va a poder procesarse: se hace ack y se descarta.
var ErrDiscard = errors.New("discard message")

// Handler procesa el body de un mensaje.
type Handler interface {
	Handle(ctx context.Context, body []byte) error
}

// topology es la parte de *amqp091.Channel que usa el setup.
type topology interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp091.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp091.Table) (amqp091.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp091.Table) error
}

func DeadLetterQueue(queue string) string {
	return queue + ".dlq"
}

// declareQueue declara la cola durable con su dead-letter queue.
func declareQueue(ch topology, name string) (amqp091.Queue, error) {
	if err := ch.ExchangeDeclare(DeadLetterExchange, amqp091.ExchangeDirect, true, false, false, false, nil); err != nil {
		return amqp091.Queue{}, fmt.Errorf("declare exchange %s: %w", DeadLetterExchange, err)
	}
	dlq := DeadLetterQueue(name)
	if _, err := ch.QueueDeclare(dlq, true, false, false, false, nil); err != nil {
		return amqp091.Queue{}, fmt.Errorf("declare queue %s: %w", dlq, err)
	}
	if err := ch.QueueBind(dlq, name, DeadLetterExchange, false, nil); err != nil {
		return amqp091.Queue{}, fmt.Errorf("bind queue %s: %w", dlq, err)
	}

	q, err := ch.QueueDeclare(name, true, false, false, false, amqp091.Table{
		"x-dead-letter-exchange":    DeadLetterExchange,
		"x-dead-letter-routing-key": name,
	})
	if err != nil {
		return amqp091.Queue{}, fmt.Errorf("declare queue %s: %w", name, err)
	}
	return q, nil
}

func SetupOrderQueue(ch topology) error {
	if err := ch.ExchangeDeclare(OrderPlacedExchange, amqp091.ExchangeFanout, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange %s: %w", OrderPlacedExchange, err)
	}
	q, err := declareQueue(ch, OrdersQueue)
	if err != nil {
		return err
	}
	// fanout ignora routing key
	if err := ch.QueueBind(q.Name, "", OrderPlacedExchange, false, nil); err != nil {
		return fmt.Errorf("bind queue %s: %w", OrdersQueue, err)
	}
	return nil
}

// SetupNotifications declara el topic exchange de notificaciones. Con bindQueue también
// declara y bindea la cola del worker.
func SetupNotifications(ch topology, bindQueue bool) error {
	if err := ch.ExchangeDeclare(NotificationsExchange, amqp091.ExchangeTopic, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange %s: %w", NotificationsExchange, err)
	}
	if !bindQueue {
		return nil
	}
	q, err := declareQueue(ch, NotificationsQueue)
	if err != nil {
		return err
	}
	if err := ch.QueueBind(q.Name, "#", NotificationsExchange, false, nil); err != nil {
		return fmt.Errorf("bind queue %s: %w", NotificationsQueue, err)
	}
	return nil
}

// Consume entrega los mensajes de queue a h hasta que ctx se cancele o el canal se
// cierre. El ack es manual: ok o ErrDiscard → Ack. Cualquier otro error se reencola una
// vez; si el mensaje ya venía reentregado va a la dead-letter queue.
func Consume(ctx context.Context, ch *amqp091.Channel, queue string, h Handler) (<-chan struct{}, error) {
	if err := ch.Qos(10, 0, false); err != nil {
		return nil, fmt.Errorf("set qos: %w", err)
	}
	msgs, err := ch.Consume(queue, "", false, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("consume %s: %w", queue, err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case <-ctx.Done():
				return
			case d, ok := <-msgs:
				if !ok {
					log.WithField("queue", queue).Warn("[Rabbit] delivery channel closed")
					return
				}
				handleDelivery(ctx, h, d)
			}
		}
	}()

	log.WithField("queue", queue).Info("[Rabbit] consuming")
	return done, nil
}

func handleDelivery(ctx context.Context, h Handler, d amqp091.Delivery) {
	entry := log.WithFields(log.Fields{"message_id": d.MessageId, "routing_key": d.RoutingKey})

	err := h.Handle(ctx, d.Body)
	switch {
	case err == nil:
		if ackErr := d.Ack(false); ackErr != nil {
			entry.WithError(ackErr).Error("[Rabbit] ack failed")
		}
	case errors.Is(err, ErrDiscard):
		entry.WithError(err).Warn("[Rabbit] discarding message")
		if ackErr := d.Ack(false); ackErr != nil {
			entry.WithError(ackErr).Error("[Rabbit] ack failed")
		}
	default:
		requeue := !d.Redelivered
		entry.WithError(err).WithField("requeue", requeue).Error("[Rabbit] message handling failed")
		if nackErr := d.Nack(false, requeue); nackErr != nil {
			entry.WithError(nackErr).Error("[Rabbit] nack failed")
		}
	}
}
