package services

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/nats-io/nats.go"

	"enstore_storefront/internal/models"
)

const statusSubjectPrefix = "transactions.status."

// StatusChangeEvent is published whenever a watched transaction changes status.
type StatusChangeEvent struct {
	TransactionCode string                   `json:"transaction_code"`
	From            models.TransactionStatus `json:"from"`
	To              models.TransactionStatus `json:"to"`
	PaymentStatus   string                   `json:"payment_status"`
	Source          models.StatusSource      `json:"source"`
	ObservedAt      time.Time                `json:"observed_at"`
}

// StatusSubject is the NATS subject for a status, e.g. transactions.status.success.
func StatusSubject(s models.TransactionStatus) string {
	return statusSubjectPrefix + string(s)
}

// EventPublisher publishes status changes to NATS. A nil publisher drops
// events, which is what happens when NATS_URL is unset.
type EventPublisher struct {
	conn *nats.Conn
}

// NewEventPublisher connects to url. An empty url returns a nil publisher.
func NewEventPublisher(url string) (*EventPublisher, error) {
	if url == "" {
		return nil, nil
	}
	conn, err := nats.Connect(url,
		nats.Name("enstore-storefront"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Printf("nats disconnected: %v", err)
			}
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	log.Println("NATS connection established")
	return &EventPublisher{conn: conn}, nil
}

// PublishStatusChange sends ev on the subject of its new status.
func (p *EventPublisher) PublishStatusChange(ev StatusChangeEvent) error {
	if p == nil {
		return nil
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return p.conn.Publish(StatusSubject(ev.To), data)
}

// SubscribeStatusChanges delivers every status change event to fn.
func (p *EventPublisher) SubscribeStatusChanges(fn func(StatusChangeEvent)) (*nats.Subscription, error) {
	if p == nil {
		return nil, nats.ErrConnectionClosed
	}
	return p.conn.Subscribe(statusSubjectPrefix+"*", func(msg *nats.Msg) {
		var ev StatusChangeEvent
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			log.Printf("decode %s: %v", msg.Subject, err)
			return
		}
		fn(ev)
	})
}

// Close drains pending messages and closes the connection.
func (p *EventPublisher) Close() {
	if p == nil {
		return
	}
	if err := p.conn.Drain(); err != nil {
		p.conn.Close()
	}
}
