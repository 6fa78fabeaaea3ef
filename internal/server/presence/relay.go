package presence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hamarchia/ClinicSystem/internal/logging"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	instanceHeader = "x-instance-id"
	confirmBuffer  = 16
)

// amqpChannel is the subset of *amqp.Channel used by the relay.
type amqpChannel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Confirm(noWait bool) error
	NotifyPublish(confirm chan amqp.Confirmation) chan amqp.Confirmation
	Close() error
}

// RemoteApplier receives events published by other instances.
type RemoteApplier interface {
	ApplyRemote(ev Event)
}

// AMQPRelay fans presence events out to every instance through a RabbitMQ
// fanout exchange. Each instance consumes from its own exclusive queue and
// drops the messages it published itself.
type AMQPRelay struct {
	conn     *amqp.Connection
	pub      amqpChannel
	cons     amqpChannel
	acks     <-chan amqp.Confirmation
	exchange string
	instance string
	log      logging.Logger

	mu sync.Mutex

	// published counts accepted publishes; the broker numbers delivery
	// tags the same way, starting at 1.
	published uint64
}

var amqpDial = amqp.Dial

// DialAMQPRelay connects to url and prepares publish and consume channels.
func DialAMQPRelay(url, exchange string, log logging.Logger) (*AMQPRelay, error) {
	conn, err := amqpDial(url)
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}

	pub, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("amqp channel: %w", err)
	}
	cons, err := conn.Channel()
	if err != nil {
		_ = pub.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("amqp channel: %w", err)
	}

	r, err := newAMQPRelay(pub, cons, exchange, log)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	r.conn = conn
	return r, nil
}

func newAMQPRelay(pub, cons amqpChannel, exchange string, log logging.Logger) (*AMQPRelay, error) {
	if err := pub.ExchangeDeclare(exchange, "fanout", true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("exchange declare %s: %w", exchange, err)
	}
	if err := pub.Confirm(false); err != nil {
		return nil, fmt.Errorf("confirm mode: %w", err)
	}

	id := uuid.NewString()
	return &AMQPRelay{
		pub:      pub,
		cons:     cons,
		acks:     pub.NotifyPublish(make(chan amqp.Confirmation, confirmBuffer)),
		exchange: exchange,
		instance: id,
		log:      log.With("module", "presence-relay", "instance", id),
	}, nil
}

// InstanceID identifies this process on the exchange.
func (r *AMQPRelay) InstanceID() string {
	return r.instance
}

// Publish sends ev and waits for the broker confirm.
func (r *AMQPRelay) Publish(ctx context.Context, ev Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.pub.PublishWithContext(ctx, r.exchange, "", false, false, amqp.Publishing{
		DeliveryMode: amqp.Transient,
		ContentType:  "application/json",
		Timestamp:    time.Now().UTC(),
		Headers:      amqp.Table{instanceHeader: r.instance},
		Body:         body,
	}); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	r.published++
	tag := r.published

	for {
		select {
		case conf, ok := <-r.acks:
			if !ok {
				return errors.New("publish confirm channel closed")
			}
			// late confirm of a publish that gave up waiting
			if conf.DeliveryTag < tag {
				if !conf.Ack {
					r.log.Warn(ctx, "late NACK for earlier presence event", "delivery_tag", conf.DeliveryTag)
				}
				continue
			}
			if !conf.Ack {
				return fmt.Errorf("publish NACK from broker (delivery tag %d)", conf.DeliveryTag)
			}
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Run consumes remote events into hub until ctx is cancelled or the
// delivery channel closes.
func (r *AMQPRelay) Run(ctx context.Context, hub RemoteApplier) error {
	q, err := r.cons.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	if err := r.cons.QueueBind(q.Name, "", r.exchange, false, nil); err != nil {
		return fmt.Errorf("queue bind %s: %w", q.Name, err)
	}
	msgs, err := r.cons.Consume(q.Name, "presence-"+r.instance, true, true, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", q.Name, err)
	}

	r.log.Info(ctx, "presence relay started", "queue", q.Name, "exchange", r.exchange)

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return errors.New("presence relay: delivery channel closed")
			}
			r.handle(ctx, d, hub)
		}
	}
}

func (r *AMQPRelay) handle(ctx context.Context, d amqp.Delivery, hub RemoteApplier) {
	if from, _ := d.Headers[instanceHeader].(string); from == r.instance {
		return
	}

	var ev Event
	if err := json.Unmarshal(d.Body, &ev); err != nil {
		r.log.Warn(ctx, "malformed presence event", "error", err)
		return
	}
	hub.ApplyRemote(ev)
}

func (r *AMQPRelay) Close() error {
	var errs []error
	if r.cons != nil {
		errs = append(errs, r.cons.Close())
	}
	if r.pub != nil {
		errs = append(errs, r.pub.Close())
	}
	if r.conn != nil {
		errs = append(errs, r.conn.Close())
	}
	return errors.Join(errs...)
}
