package queue

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// StartPurchaseConsumer connects to RabbitMQ, declares the ticket.purchased
// queue (durable), and starts consuming messages. Each event is appended to
// logs/purchases.log in a single-line, human-friendly format. The function
// runs a reconnect loop with exponential backoff and never returns under
// normal operation; processing errors are logged and the offending message
// is rejected so the server keeps running.
func StartPurchaseConsumer() {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(brokerURL())
		if err != nil {
			logrus.WithError(err).Warnf("purchase-consumer: dial failed; retrying in %s", backoff)
			time.Sleep(backoff)
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		if err := consumeLoop(conn); err != nil {
			logrus.WithError(err).Warn("purchase-consumer: consume loop ended; reconnecting")
			time.Sleep(2 * time.Second)
		}
	}
}

func consumeLoop(conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		logrus.WithError(err).Warn("purchase-consumer: set QoS failed")
	}

	if _, err := ch.QueueDeclare(purchaseQueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	deliveries, err := ch.Consume(purchaseQueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume: %w", err)
	}

	for d := range deliveries {
		var ev TicketPurchasedEvent
		if err := json.Unmarshal(d.Body, &ev); err != nil {
			logrus.WithError(err).Warn("purchase-consumer: bad payload")
			_ = d.Nack(false, false) // drop malformed messages
			continue
		}
		if err := appendPurchaseLog(ev); err != nil {
			logrus.WithError(err).Warn("purchase-consumer: write log failed")
			_ = d.Nack(false, true) // requeue, the log dir may come back
			continue
		}
		_ = d.Ack(false)
	}
	return fmt.Errorf("delivery channel closed")
}

// appendPurchaseLog writes one line per purchase to logs/purchases.log,
// creating the directory on first use.
func appendPurchaseLog(ev TicketPurchasedEvent) error {
	dir := "logs"
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(filepath.Join(dir, "purchases.log"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	ids := make([]string, 0, len(ev.TicketIDs))
	for _, id := range ev.TicketIDs {
		ids = append(ids, fmt.Sprint(id))
	}
	line := fmt.Sprintf("%s user=%d function=%d movie=%q cinema=%d qty=%d total=%s tickets=[%s]\n",
		ev.PurchasedAt, ev.UserID, ev.FunctionID, ev.MovieTitle, ev.CinemaID, ev.Quantity, ev.Total,
		strings.Join(ids, ","))
	_, err = f.WriteString(line)
	return err
}
