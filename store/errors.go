package store

import (
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// retryableError marks throttling and transaction conflicts, which succeed
// when tried again later.
type retryableError struct {
	err error
}

func (e *retryableError) Error() string {
	return e.err.Error()
}

func (e *retryableError) Unwrap() error {
	return e.err
}

func (e *retryableError) IsRetryable() bool {
	return true
}

var retryableReasons = map[string]bool{
	"TransactionConflict":           true,
	"ProvisionedThroughputExceeded": true,
	"ThrottlingError":               true,
	"RequestLimitExceeded":          true,
}

// classify maps DynamoDB errors onto errConditionChecked and retryableError.
// Other errors are returned unchanged.
func classify(err error) error {
	if err == nil {
		return nil
	}

	var canceled *types.TransactionCanceledException
	if errors.As(err, &canceled) {
		for _, reason := range canceled.CancellationReasons {
			code := aws.ToString(reason.Code)
			if code == "ConditionalCheckFailed" {
				return errConditionChecked
			}
			if retryableReasons[code] {
				return &retryableError{err: err}
			}
		}
		return err
	}

	var conditionFailed *types.ConditionalCheckFailedException
	if errors.As(err, &conditionFailed) {
		return errConditionChecked
	}

	var (
		throughputExceeded *types.ProvisionedThroughputExceededException
		limitExceeded      *types.RequestLimitExceeded
		conflict           *types.TransactionConflictException
		inProgress         *types.TransactionInProgressException
	)
	if errors.As(err, &throughputExceeded) || errors.As(err, &limitExceeded) ||
		errors.As(err, &conflict) || errors.As(err, &inProgress) {
		return &retryableError{err: err}
	}
	return err
}
