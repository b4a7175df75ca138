package api

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snsTypes "github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/swiftbyte/backend/attr"
	"github.com/swiftbyte/backend/store"
)

// Change is published whenever an item is created or updated.
type Change struct {
	DataClass string `json:"dataClass"`
	ID        string `json:"id"`
	// Item is the full item in DynamoDB JSON form.
	Item json.RawMessage `json:"item"`
}

type SNSAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// Publisher sends Change events to an SNS topic. A nil *Publisher publishes
// nothing.
type Publisher struct {
	client   SNSAPI
	topicARN string
	codec    *attr.Codec
}

// NewPublisher returns nil when topicARN is empty.
func NewPublisher(client SNSAPI, topicARN string, codec *attr.Codec) *Publisher {
	if topicARN == "" {
		return nil
	}
	return &Publisher{client: client, topicARN: topicARN, codec: codec}
}

func (p *Publisher) Publish(ctx context.Context, key store.Key, rec attr.Record) error {
	if p == nil {
		return nil
	}

	item := p.codec.Encode(rec)
	if err := item.Err(); err != nil {
		return fmt.Errorf("failed to encode change for %s: %w", key, err)
	}
	wire, err := attr.MarshalJSON(item.Value)
	if err != nil {
		return fmt.Errorf("failed to marshal change for %s: %w", key, err)
	}
	message, err := json.Marshal(Change{DataClass: key.DataClass, ID: key.ID, Item: wire})
	if err != nil {
		return fmt.Errorf("failed to marshal change for %s: %w", key, err)
	}

	_, err = p.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(p.topicARN),
		Message:  aws.String(string(message)),
		MessageAttributes: map[string]snsTypes.MessageAttributeValue{
			"dataClass": {
				DataType:    aws.String("String"),
				StringValue: aws.String(key.DataClass),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to publish change for %s: %w", key, err)
	}
	return nil
}
