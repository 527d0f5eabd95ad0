package publishers

import (
	"context"
	"encoding/json"
	"testing"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/pubsub/pstest"
)

func TestPubSubPublisherPublishes(t *testing.T) {
	// Use the in-memory Pub/Sub emulator.
	server := pstest.NewServer()
	defer server.Close()
	t.Setenv("PUBSUB_EMULATOR_HOST", server.Addr)

	ctx := context.Background()
	client, err := pubsub.NewClient(ctx, "test-project")
	if err != nil {
		t.Fatalf("create client: %v", err)
	}
	defer client.Close()
	if _, err := client.CreateTopic(ctx, "picks"); err != nil {
		t.Fatalf("create topic: %v", err)
	}

	pub, err := newPubSubPublisher(ctx, PublisherConfig{
		ID:     "gcp",
		Type:   TypePubSub,
		PubSub: &PubSubPublisherConfig{ProjectID: "test-project", Topic: "picks"},
	}, nil)
	if err != nil {
		t.Fatalf("newPubSubPublisher: %v", err)
	}
	defer pub.(*pubsubPublisher).Close()

	evt := sampleEvent()
	if err := pub.Publish(ctx, evt); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	msgs := server.Messages()
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
	if got := msgs[0].Attributes["username"]; got != "pg" {
		t.Fatalf("username attribute = %q", got)
	}
	var decoded Event
	if err := json.Unmarshal(msgs[0].Data, &decoded); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if decoded.ID != evt.ID || decoded.Item.ID != "8863" {
		t.Fatalf("unexpected payload %+v", decoded)
	}
}

func TestNewPubSubPublisherRequiresConfig(t *testing.T) {
	if _, err := newPubSubPublisher(context.Background(), PublisherConfig{ID: "g", Type: TypePubSub}, nil); err == nil {
		t.Fatalf("expected error for missing pubsub block")
	}
}
