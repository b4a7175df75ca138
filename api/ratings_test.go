package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swiftbyte/backend/attr"
	"github.com/swiftbyte/backend/handler"
	"github.com/swiftbyte/backend/store"
)

// reviewChange builds the change published for a review.
func reviewChange(t *testing.T, rec attr.Record) Change {
	t.Helper()
	encoded := attr.Encode(rec)
	require.True(t, encoded.Complete())
	item, err := attr.MarshalJSON(encoded.Value)
	require.NoError(t, err)
	return Change{DataClass: "review", ID: rec["id"].(string), Item: item}
}

// snsEnvelope wraps a change the way SNS delivers it to a subscribed queue.
func snsEnvelope(t *testing.T, change Change) string {
	t.Helper()
	message, err := json.Marshal(change)
	require.NoError(t, err)
	envelope, err := json.Marshal(events.SNSEntity{Type: "Notification", MessageID: "m-" + change.ID, Message: string(message)})
	require.NoError(t, err)
	return string(envelope)
}

func TestRatingAggregator_ProcessSQSEvent(t *testing.T) {
	restaurant := attr.Record{"id": "r1", "dataClass": "restaurant", "averageRating": -1.0}
	oldReview := attr.Record{"id": "rv1", "dataClass": "review", "restaurantId": "r1", "rating": 5.0}
	otherReview := attr.Record{"id": "rv9", "dataClass": "review", "restaurantId": "r2", "rating": 1.0}
	changedReview := attr.Record{"id": "rv2", "dataClass": "review", "restaurantId": "r1", "rating": 4.0, "comment": "Good", "createdAt": 1709294400000.0}

	testcases := []struct {
		name            string
		records         []attr.Record
		expectedAverage float64
	}{
		{
			name:            "changed review not yet visible to scan",
			records:         []attr.Record{restaurant, oldReview, otherReview},
			expectedAverage: 4.5,
		},
		{
			name:            "changed review returned by scan",
			records:         []attr.Record{restaurant, oldReview, otherReview, changedReview},
			expectedAverage: 4.5,
		},
		{
			name:            "first review",
			records:         []attr.Record{restaurant},
			expectedAverage: 4,
		},
	}

	for _, tc := range testcases {
		t.Run(tc.name, func(t *testing.T) {
			table := newMemStore(tc.records...)
			aggregator := NewRatingAggregator(table)

			err := aggregator.ProcessSQSEvent(newTestContext(), reviewChange(t, changedReview), nil)
			require.NoError(t, err)
			assert.Equal(t, tc.expectedAverage, table.items[store.Key{ID: "r1", DataClass: "restaurant"}]["averageRating"])
		})
	}
}

func TestRatingAggregator_IgnoresOtherChanges(t *testing.T) {
	table := newMemStore()
	aggregator := NewRatingAggregator(table)

	change := Change{DataClass: "order", ID: "o1", Item: json.RawMessage(`{"id":{"S":"o1"}}`)}

	err := aggregator.ProcessSQSEvent(newTestContext(), change, nil)
	require.NoError(t, err)
	assert.Empty(t, table.updates)
}

func TestRatingAggregator_MissingRestaurant(t *testing.T) {
	table := newMemStore()
	aggregator := NewRatingAggregator(table)

	err := aggregator.ProcessSQSEvent(newTestContext(), reviewChange(t, attr.Record{"id": "rv1", "restaurantId": "gone", "rating": 3.0}), nil)
	assert.NoError(t, err)
}

func TestRatingAggregator_InvalidMessages(t *testing.T) {

	testcases := []struct {
		name string
		item string
	}{
		{name: "item not in wire form", item: `["S","x"]`},
		{name: "unsupported member", item: `{"restaurantId":{"S":"r1"},"photo":{"B":"AQI="}}`},
		{name: "no restaurant", item: `{"rating":{"N":"3"}}`},
	}

	for _, tc := range testcases {
		t.Run(tc.name, func(t *testing.T) {
			aggregator := NewRatingAggregator(newMemStore())
			change := Change{DataClass: "review", ID: "rv1", Item: json.RawMessage(tc.item)}
			err := aggregator.ProcessSQSEvent(newTestContext(), change, nil)
			assert.Error(t, err)
		})
	}
}

func TestRatingAggregator_Handler(t *testing.T) {
	table := newMemStore(attr.Record{"id": "r1", "dataClass": "restaurant"})
	aggregator := NewRatingAggregator(table)

	envelope := snsEnvelope(t, reviewChange(t, attr.Record{"id": "rv1", "restaurantId": "r1", "rating": 3.0}))

	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(5*time.Second))
	defer cancel()
	hctx := handler.GetWithSlogLogger(ctx, slog.New(slog.NewJSONHandler(io.Discard, nil)))

	response, err := aggregator.Handler()(hctx, events.SQSEvent{Records: []events.SQSMessage{
		{ReceiptHandle: "h1", Body: envelope},
		{ReceiptHandle: "h2", Body: "not json"},
		{ReceiptHandle: "h3", Body: `{"Type":"Notification","Message":"hello"}`},
	}})
	require.NoError(t, err)
	failed := []string{}
	for _, failure := range response.BatchItemFailures {
		failed = append(failed, failure.ItemIdentifier)
	}
	assert.ElementsMatch(t, []string{"h2", "h3"}, failed)
	assert.Equal(t, 3.0, table.items[store.Key{ID: "r1", DataClass: "restaurant"}]["averageRating"])
}
