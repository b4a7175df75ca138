// Package api implements the SwiftByte API Gateway handlers and the change
// event consumers on top of the single-table store.
package api

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/swiftbyte/backend/attr"
	"github.com/swiftbyte/backend/food"
	"github.com/swiftbyte/backend/handler"
	"github.com/swiftbyte/backend/store"
)

type Config struct {
	TableName string
	// TopicARN receives change events. Empty disables publishing.
	TopicARN  string
	NonFinite attr.NonFinitePolicy
}

// LoadConfig reads the configuration from the lambda environment.
func LoadConfig() Config {
	cfg := Config{
		TableName: handler.MustGetEnv("TABLE_NAME"),
		TopicARN:  handler.GetEnv("TOPIC_ARN"),
		NonFinite: attr.RejectNonFinite,
	}
	if handler.GetEnvOrDefault("NON_FINITE_NUMBERS", "reject") == "stringify" {
		cfg.NonFinite = attr.StringifyNonFinite
	}
	return cfg
}

// Codec returns the attribute codec for the configured non-finite policy.
func (c Config) Codec() *attr.Codec {
	return attr.NewCodec(attr.WithNonFinitePolicy(c.NonFinite))
}

// Store is implemented by *store.Table
type Store interface {
	Put(ctx context.Context, key store.Key, rec attr.Record) error
	Get(ctx context.Context, key store.Key) (attr.Result[attr.Record], error)
	Update(ctx context.Context, key store.Key, fields attr.Record) error
	Scan(ctx context.Context, dataClass string, filters map[string]string) (attr.Result[[]attr.Record], error)
}

type API struct {
	cfg       Config
	store     Store
	publisher *Publisher
	now       func() time.Time
}

func New(cfg Config, table Store, publisher *Publisher) *API {
	return &API{
		cfg:       cfg,
		store:     table,
		publisher: publisher,
		now:       time.Now,
	}
}

// NewTable returns the DynamoDB table named by cfg.
func NewTable(awsConfig aws.Config, cfg Config) *store.Table {
	return store.New(dynamodb.NewFromConfig(awsConfig), cfg.TableName, store.WithCodec(cfg.Codec()))
}

// NewFromConfig creates the AWS clients and wires the API to them.
func NewFromConfig(awsConfig aws.Config, cfg Config) *API {
	publisher := NewPublisher(sns.NewFromConfig(awsConfig), cfg.TopicARN, cfg.Codec())
	return New(cfg, NewTable(awsConfig, cfg), publisher)
}

func requestBody(request events.APIGatewayProxyRequest) ([]byte, error) {
	if !request.IsBase64Encoded {
		return []byte(request.Body), nil
	}
	body, err := base64.StdEncoding.DecodeString(request.Body)
	if err != nil {
		return nil, handler.BadRequest("Invalid body encoding").Wrap(err)
	}
	return body, nil
}

// keyFromQuery reads the id and dataClass query parameters.
func keyFromQuery(request events.APIGatewayProxyRequest) (store.Key, error) {
	key := store.Key{
		ID:        request.QueryStringParameters["id"],
		DataClass: request.QueryStringParameters["dataClass"],
	}
	if key.ID == "" || key.DataClass == "" {
		return key, handler.BadRequest("Query parameters id and dataClass are required")
	}
	if _, ok := food.KindOf(key.DataClass); !ok {
		return key, handler.BadRequest("Invalid data class")
	}
	return key, nil
}

func badInput(err error) error {
	httpErr := handler.BadRequest("Invalid request body").Wrap(err)
	var validationErr *food.ValidationError
	if errors.As(err, &validationErr) {
		httpErr.WithDetails(validationErr.Problems...)
	}
	return httpErr
}

// storeError turns the store failures a caller can act on into HTTP errors.
func storeError(err error) error {
	var skipErr *attr.SkipError
	switch {
	case errors.As(err, &skipErr):
		details := make([]string, 0, len(skipErr.Skipped))
		for _, skip := range skipErr.Skipped {
			details = append(details, skip.String())
		}
		return handler.BadRequest("Item contains values which cannot be stored").WithDetails(details...).Wrap(err)
	case errors.Is(err, store.ErrNotFound):
		return handler.NotFound("Item not found").Wrap(err)
	case errors.Is(err, store.ErrConflict):
		return handler.NewHTTPError(http.StatusConflict, "Item already exists").Wrap(err)
	case errors.Is(err, store.ErrNothingToUpdate):
		return handler.BadRequest("No attributes to update").Wrap(err)
	}
	return err
}

// logSkips reports stored values which could not be decoded. The rest of the
// record is still returned.
func logSkips(ctx *handler.Context, skipped []attr.Skip) {
	if len(skipped) == 0 {
		return
	}
	paths := make([]string, 0, len(skipped))
	for _, skip := range skipped {
		paths = append(paths, skip.String())
	}
	ctx.GetLogger().Warn("Stored values skipped while decoding", "skipped", paths)
	ctx.Metric("ValuesSkipped").Unit(handler.UnitCount).Value(len(skipped))
}

// scan runs a table scan and records its duration.
func scan(ctx *handler.Context, table Store, dataClass string, filters map[string]string) (attr.Result[[]attr.Record], error) {
	start := time.Now()
	res, err := table.Scan(ctx, dataClass, filters)
	ctx.Metric("ScanDuration").
		Dimension("dataClass", dataClass).
		Unit(handler.UnitMilliseconds).
		HighResolution().
		Value(time.Since(start).Milliseconds())
	return res, err
}

func redactAll(records []attr.Record) []attr.Record {
	out := make([]attr.Record, 0, len(records))
	for _, rec := range records {
		out = append(out, food.Redact(rec))
	}
	return out
}
