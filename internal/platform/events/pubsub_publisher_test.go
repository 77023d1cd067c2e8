package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/pubsub/pstest"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

func TestPubSubOrderPublisherPublishesMessage(t *testing.T) {
	ctx := context.Background()
	srv := pstest.NewServer()
	defer srv.Close()

	client, err := pubsub.NewClient(ctx, "test-project",
		option.WithEndpoint(srv.Addr),
		option.WithoutAuthentication(),
		option.WithGRPCDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
	)
	if err != nil {
		t.Fatalf("pubsub.NewClient: %v", err)
	}
	defer func() {
		_ = client.Close()
	}()

	topic, err := client.CreateTopic(ctx, "order-events")
	if err != nil {
		t.Fatalf("CreateTopic: %v", err)
	}

	publisher, err := NewPubSubOrderPublisher(topic)
	if err != nil {
		t.Fatalf("NewPubSubOrderPublisher: %v", err)
	}

	occurredAt := time.Date(2026, 3, 6, 9, 0, 0, 0, time.UTC)
	event := OrderEvent{
		Type:           OrderEventPaid,
		OrderID:        "ord_test",
		OrderNumber:    "AR-2026-000042",
		UserID:         "user-1",
		PaymentStatus:  "succeeded",
		ShippingStatus: "PENDING",
		TotalAmount:    129000,
		Currency:       "thb",
		OccurredAt:     occurredAt,
	}

	if _, err := publisher.PublishOrderEvent(ctx, event); err != nil {
		t.Fatalf("PublishOrderEvent: %v", err)
	}

	messages := srv.Messages()
	if len(messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(messages))
	}

	var payload OrderEvent
	if err := json.Unmarshal(messages[0].Data, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if payload.OrderID != event.OrderID || payload.Type != OrderEventPaid {
		t.Fatalf("unexpected payload %#v", payload)
	}
	if attr := messages[0].Attributes["orderId"]; attr != "ord_test" {
		t.Fatalf("expected orderId attribute, got %q", attr)
	}
	if attr := messages[0].Attributes["type"]; attr != OrderEventPaid {
		t.Fatalf("expected type attribute, got %q", attr)
	}
}

func TestPublishOrderEventRequiresType(t *testing.T) {
	publisher := &PubSubOrderPublisher{topic: &pubsub.Topic{}, marshal: json.Marshal}
	if _, err := publisher.PublishOrderEvent(context.Background(), OrderEvent{OrderID: "ord_x"}); err == nil {
		t.Fatalf("expected error for missing event type")
	}
}
