package handler

import (
	"context"
	"log"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/ratelimit"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-xray-sdk-go/instrumentation/awsv2"
)

// defaultRegion is used when neither AWS_REGION nor the shared config names one
const defaultRegion = "ap-southeast-2"

type Handler[T any, U any] func(ctx *Context, event T) (U, error)

// Builder holds the AWS config shared by all clients a handler creates.
type Builder[T any, U any] struct {
	ctx        context.Context
	awsConfig  aws.Config
	getHandler func(awsConfig aws.Config) Handler[T, U]
}

func Build[T any, U any](getHandler func(awsConfig aws.Config) Handler[T, U]) *Builder[T, U] {
	ctx := context.Background()

	cfg, err := loadAWSConfig(ctx)
	if err != nil {
		log.Fatalf("unable to load SDK config, %v", err)
	}

	return &Builder[T, U]{
		ctx:        ctx,
		awsConfig:  cfg,
		getHandler: getHandler,
	}
}

func loadAWSConfig(ctx context.Context) (aws.Config, error) {
	return config.LoadDefaultConfig(ctx,
		config.WithDefaultRegion(defaultRegion),
		config.WithRetryer(func() aws.Retryer {
			return retry.NewStandard(func(so *retry.StandardOptions) {
				// The token bucket is shared by every call made during the lifetime of the
				// client, so it is sized to never run dry.
				so.RateLimiter = ratelimit.NewTokenRateLimit(1_000_000)
			})
		}),
	)
}

func (b *Builder[T, U]) Start() {
	if !IsLambda() {
		startLambdaLocally(b.ctx, b.awsConfig, b.getHandler)
		return
	}

	// Must run before the handler creates its service clients
	awsv2.AWSV2Instrumentor(&b.awsConfig.APIOptions)
	lambda.Start(withLogger(b.getHandler(b.awsConfig), nil))
}

// BuildAndStart loads the AWS config, instruments the AWS SDK with X-Ray, wraps the handler with a story logger and then starts the lambda
func BuildAndStart[T any, U any](getHandler func(awsConfig aws.Config) Handler[T, U]) {
	Build(getHandler).Start()
}
