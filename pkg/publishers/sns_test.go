package publishers

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

type fakeSNSClient struct {
	input *sns.PublishInput
	err   error
}

func (f *fakeSNSClient) Publish(_ context.Context, params *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &sns.PublishOutput{MessageId: aws.String("msg-123")}, nil
}

func TestSNSPublisherSendSuccess(t *testing.T) {
	client := &fakeSNSClient{}
	pub := &snsPublisher{
		id:       "topic",
		typ:      TypeSNS,
		topicARN: "arn:aws:sns:us-east-1:123456789012:picks",
		client:   client,
		log:      noopLogger{},
	}

	evt := sampleEvent()
	if err := pub.Publish(context.Background(), evt); err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}
	if client.input == nil {
		t.Fatalf("client was not called")
	}
	if got := aws.ToString(client.input.TopicArn); got != "arn:aws:sns:us-east-1:123456789012:picks" {
		t.Fatalf("TopicArn = %s", got)
	}
	attr, ok := client.input.MessageAttributes["event_id"]
	if !ok || aws.ToString(attr.StringValue) != evt.ID {
		t.Fatalf("event_id attribute missing or wrong: %#v", attr)
	}
	if !strings.Contains(aws.ToString(client.input.Message), `"username":"pg"`) {
		t.Fatalf("Message missing username: %s", aws.ToString(client.input.Message))
	}
}

func TestSNSPublisherSendError(t *testing.T) {
	client := &fakeSNSClient{err: errors.New("boom")}
	pub := &snsPublisher{id: "topic", typ: TypeSNS, topicARN: "arn", client: client, log: noopLogger{}}

	if err := pub.Publish(context.Background(), sampleEvent()); err == nil {
		t.Fatalf("expected error from Publish")
	}
}

func TestNewSNSPublisherRequiresConfig(t *testing.T) {
	if _, err := newSNSPublisher(context.Background(), PublisherConfig{ID: "t", Type: TypeSNS}, nil); err == nil {
		t.Fatalf("expected error for missing sns block")
	}
}
