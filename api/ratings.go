package api

import (
	"errors"
	"fmt"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/swiftbyte/backend/attr"
	"github.com/swiftbyte/backend/food"
	"github.com/swiftbyte/backend/handler"
	"github.com/swiftbyte/backend/store"
)

// RatingAggregator consumes change events from an SQS queue subscribed to the
// change topic. When a review changes it recalculates the average rating of
// the reviewed restaurant.
type RatingAggregator struct {
	store Store
}

func NewRatingAggregator(table Store) *RatingAggregator {
	return &RatingAggregator{store: table}
}

// Handler returns the SQS lambda handler for the aggregator. The queue
// receives the SNS envelopes of the change topic.
func (r *RatingAggregator) Handler() handler.SQSHandler {
	return handler.GetSNSSubscriptionHandler[Change](r, func(lp *handler.LoggerParams, change Change) {
		lp.Add("dataClass", change.DataClass)
		lp.Add("id", change.ID)
	})
}

func (r *RatingAggregator) ProcessSQSEvent(ctx *handler.Context, change Change, _ map[string]events.SQSMessageAttribute) error {
	logger := ctx.GetLogger()

	if change.DataClass != food.ClassReview {
		logger.AddStage("Change ignored")
		return nil
	}

	review, err := reviewFromChange(change)
	if err != nil {
		return err
	}
	logger.AddParam("restaurantId", review.RestaurantID)

	reviews, err := scan(ctx, r.store, food.ClassReview, map[string]string{"restaurantId": review.RestaurantID})
	if err != nil {
		return err
	}
	logSkips(ctx, reviews.Skipped)

	average := food.AverageRating(ratingsOf(review, reviews.Value))
	err = r.store.Update(ctx, store.Key{ID: review.RestaurantID, DataClass: food.ClassRestaurant}, attr.Record{
		"averageRating": average,
	})
	if errors.Is(err, store.ErrNotFound) {
		logger.Warn("Reviewed restaurant does not exist")
		return nil
	}
	if err != nil {
		return err
	}

	logger.AddStage("Rating updated").AddParam("averageRating", average)
	ctx.Metric("RatingRecalculated").Unit(handler.UnitCount).Value(1)
	return nil
}

func reviewFromChange(change Change) (food.Review, error) {
	var review food.Review

	wire, err := attr.UnmarshalJSON(change.Item)
	if err != nil {
		return review, fmt.Errorf("failed to read review %s: %w", change.ID, err)
	}
	if err = wire.Err(); err != nil {
		return review, fmt.Errorf("failed to read review %s: %w", change.ID, err)
	}

	err = attributevalue.UnmarshalMapWithOptions(wire.Value, &review, func(o *attributevalue.DecoderOptions) {
		o.TagKey = "json"
	})
	if err != nil {
		return review, fmt.Errorf("failed to unmarshal review %s: %w", change.ID, err)
	}
	if review.RestaurantID == "" {
		return review, fmt.Errorf("review %s has no restaurantId", change.ID)
	}
	return review, nil
}

// ratingsOf collects the numeric ratings of the scanned reviews. The changed
// review is included even if the scan did not return it yet.
func ratingsOf(changed food.Review, reviews []attr.Record) []float64 {
	ratings := make([]float64, 0, len(reviews)+1)
	seen := false
	for _, rec := range reviews {
		if rec["id"] == changed.ID {
			seen = true
			ratings = append(ratings, changed.Rating)
			continue
		}
		if rating, ok := rec["rating"].(float64); ok {
			ratings = append(ratings, rating)
		}
	}
	if !seen {
		ratings = append(ratings, changed.Rating)
	}
	return ratings
}
