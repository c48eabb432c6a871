package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"example.com/dosepoint/services/device/config"

	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azservicebus"
)

// NotificationClass distinguishes operator alerts from routine notices
type NotificationClass string

const (
	// ClassWarning is a routine operator notice
	ClassWarning NotificationClass = "Client Warning"
	// ClassError is an operator alert that needs attention
	ClassError NotificationClass = "Client Error"
	// ClassDataError flags a data-integrity problem an operator must fix;
	// the downstream mailer keys on the exact string, casing included
	ClassDataError NotificationClass = "Client error"
	// ClassTestClick is a pre-shipment test-click notice to the shipping desk
	ClassTestClick NotificationClass = "Client Test Click"
)

// Notification is the message published for the downstream mailer. The
// mailer composes and sends the actual email; this service only states who
// should hear about what.
type Notification struct {
	Recipient string            `json:"recipient"`
	Class     NotificationClass `json:"class"`
	Subject   string            `json:"subject"`
	Body      string            `json:"body"`
	Context   map[string]string `json:"context,omitempty"`
	SentAt    time.Time         `json:"sent_at"`
}

// Notifier publishes operator notifications
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
	Close() error
}

// serviceBusNotifier publishes notifications to an Azure Service Bus queue
type serviceBusNotifier struct {
	client    *azservicebus.Client
	sender    *azservicebus.Sender
	queueName string
	source    string
}

// mockNotifier is a mock implementation for local development
type mockNotifier struct {
	source string
}

// NewNotifier creates a notifier backed by Azure Service Bus. Without a
// connection string it returns a mock that prints to stdout, so local
// development does not need a broker.
func NewNotifier(cfg config.ServiceBusConfig, source string) (Notifier, error) {
	if cfg.ConnectionString == "" {
		return &mockNotifier{source: source}, nil
	}

	client, err := azservicebus.NewClientFromConnectionString(cfg.ConnectionString, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Service Bus client: %w", err)
	}

	sender, err := client.NewSender(cfg.QueueName, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Service Bus sender: %w", err)
	}

	return &serviceBusNotifier{
		client:    client,
		sender:    sender,
		queueName: cfg.QueueName,
		source:    source,
	}, nil
}

// Notify publishes one notification to the queue. The recipient group is
// used as the session ID so the mailer drains each group's notices in order.
func (s *serviceBusNotifier) Notify(ctx context.Context, n Notification) error {
	if n.SentAt.IsZero() {
		n.SentAt = time.Now().UTC()
	}

	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	sessionID := n.Recipient
	msg := &azservicebus.Message{
		Body: data,
		ApplicationProperties: map[string]interface{}{
			"source": s.source,
			"class":  string(n.Class),
			"time":   n.SentAt.Format(time.RFC3339),
		},
		SessionID: &sessionID,
	}

	return s.sender.SendMessage(ctx, msg, nil)
}

// Close closes the Service Bus client
func (s *serviceBusNotifier) Close() error {
	if s.sender != nil {
		if err := s.sender.Close(context.Background()); err != nil {
			return err
		}
	}

	if s.client != nil {
		return s.client.Close(context.Background())
	}

	return nil
}

// Notify implementation for the mock notifier
func (m *mockNotifier) Notify(ctx context.Context, n Notification) error {
	fmt.Printf("[MOCK Notifier] %s to %s from %s: %s\n", n.Class, n.Recipient, m.source, n.Subject)
	return nil
}

// Close implementation for the mock notifier
func (m *mockNotifier) Close() error {
	return nil
}
