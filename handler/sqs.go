package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/aws/aws-lambda-go/events"
)

// reportMargin is kept back from the invocation deadline to report the batch
// item failures.
const reportMargin = 500 * time.Millisecond

type SQSHandlerStruct[T any] interface {
	ProcessSQSEvent(ctx *Context, message T, attributes map[string]events.SQSMessageAttribute) error
}

type SQSHandler = Handler[events.SQSEvent, events.SQSEventResponse]

type LoggerParams struct {
	params map[string]any
}

func (lp *LoggerParams) Add(key string, value any) {
	lp.params[key] = value
}

func NewLoggerParams() *LoggerParams {
	return &LoggerParams{params: make(map[string]any)}
}

// GetSQSHandler returns a lambda handler which decodes each SQS message body as
// JSON into T and processes the messages of a batch in parallel. Messages which
// fail, panic or run past the invocation deadline are reported as batch item
// failures so that only those messages are retried.
func GetSQSHandler[T any](sqsHandlerIface SQSHandlerStruct[T], addLoggerParams func(lp *LoggerParams, t T)) SQSHandler {
	return newBatchHandler(sqsHandlerIface, decodeJSON[T], addLoggerParams)
}

// GetSNSSubscriptionHandler is GetSQSHandler for a queue subscribed to an SNS
// topic without raw message delivery. The SNS envelope is removed and its
// Message is decoded as JSON into T.
func GetSNSSubscriptionHandler[T any](sqsHandlerIface SQSHandlerStruct[T], addLoggerParams func(lp *LoggerParams, t T)) SQSHandler {
	return newBatchHandler(sqsHandlerIface, decodeSNSMessage[T], addLoggerParams)
}

func decodeJSON[T any](body string) (T, error) {
	var message T
	err := json.Unmarshal([]byte(body), &message)
	return message, err
}

func decodeSNSMessage[T any](body string) (T, error) {
	var envelope events.SNSEntity
	if err := json.Unmarshal([]byte(body), &envelope); err != nil {
		var zero T
		return zero, fmt.Errorf("invalid SNS envelope: %w", err)
	}
	if envelope.Type != "" && envelope.Type != "Notification" {
		var zero T
		return zero, fmt.Errorf("unexpected SNS message type %q", envelope.Type)
	}
	return decodeJSON[T](envelope.Message)
}

func newBatchHandler[T any](sqsHandlerIface SQSHandlerStruct[T], decode func(body string) (T, error), addLoggerParams func(lp *LoggerParams, t T)) SQSHandler {

	logInputEvent := GetEnvBool("LOG_INPUT_EVENT", false)

	process := func(ctx *Context, record events.SQSMessage) (succeeded bool) {
		logger := ctx.GetLogger()

		defer func() {
			if r := recover(); r != nil {
				logger.With("panicStack", getStackTraceAsSlice(debug.Stack())).Errorf("Goroutine panicked: %v", r)
				succeeded = false
			}
		}()

		message, err := decode(record.Body)
		if err != nil {
			logger.Error("Message body could not be decoded", "error", err.Error(), "body", record.Body)
			return false
		}

		if logInputEvent {
			logger.AddParam("inputEvent", message)
		}
		if addLoggerParams != nil {
			lp := NewLoggerParams()
			addLoggerParams(lp, message)
			for k, v := range lp.params {
				logger.AddParam(k, v)
			}
		}

		err = sqsHandlerIface.ProcessSQSEvent(ctx, message, record.MessageAttributes)
		if err != nil {
			logger.AddParam("body", record.Body)
			if IsErrorRetryable(err) {
				logger.Infof("Processing returned error: %s", err.Error())
			} else {
				logger.Errorf("Processing returned error: %s", err.Error())
			}
			return false
		}
		return true
	}

	return func(ctx *Context, event events.SQSEvent) (events.SQSEventResponse, error) {
		ctx.GetLogger().disableOutput() //Each SQS message will log its own story

		deadline, hasDeadline := ctx.Deadline()
		if !hasDeadline {
			return events.SQSEventResponse{}, errors.New("context must have a deadline set")
		}
		batchCtx, cancel := context.WithDeadline(ctx, deadline.Add(-reportMargin))
		defer cancel()

		inFlight := make([]*inFlightMessage, 0, len(event.Records))
		for _, record := range event.Records {
			msgCtx, closeLog := ctx.Split(batchCtx)
			m := &inFlightMessage{
				record:   record,
				ctx:      msgCtx,
				closeLog: closeLog,
				done:     make(chan struct{}),
			}
			inFlight = append(inFlight, m)
			go func() {
				m.finish(process(msgCtx, record))
			}()
		}

		failures := []events.SQSBatchItemFailure{}
		for _, m := range inFlight {
			succeeded, timedOut := m.wait(batchCtx)
			if succeeded {
				m.closeLog()
				continue
			}
			failures = append(failures, events.SQSBatchItemFailure{ItemIdentifier: m.record.ReceiptHandle})
			if timedOut {
				// The message's story now belongs to its goroutine
				newStoryLogger(ctx.GetLogger().slogger).Warn("Message processing timed out, returned to queue for retry", "messageId", m.record.MessageId)
				continue
			}
			m.ctx.GetLogger().Info("Message returned to queue for retry")
			m.closeLog()
		}

		return events.SQSEventResponse{BatchItemFailures: failures}, nil
	}
}

// inFlightMessage is shared by the batch and the goroutine processing the
// message. Whoever sees the message last writes its story: the batch when the
// message finished in time, otherwise the goroutine once it returns.
type inFlightMessage struct {
	record   events.SQSMessage
	ctx      *Context
	closeLog func()
	done     chan struct{}

	mu        sync.Mutex
	finished  bool
	abandoned bool
	succeeded bool
}

func (m *inFlightMessage) finish(succeeded bool) {
	m.mu.Lock()
	m.finished = true
	m.succeeded = succeeded
	abandoned := m.abandoned
	m.mu.Unlock()
	close(m.done)

	if abandoned {
		m.ctx.GetLogger().Warn("Message finished after the batch timed out")
		m.closeLog()
	}
}

// wait returns the result of the message, preferring a finished result over
// an expired deadline. A message which has not finished by the deadline is
// abandoned and must not be touched by the caller afterwards.
func (m *inFlightMessage) wait(batchCtx context.Context) (succeeded bool, timedOut bool) {
	select {
	case <-m.done:
	case <-batchCtx.Done():
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.finished {
		m.abandoned = true
		return false, true
	}
	return m.succeeded, false
}

func getStackTraceAsSlice(stack []byte) []string {
	lines := bytes.Split(stack, []byte("\n"))
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if trimmed := bytes.TrimSpace(line); len(trimmed) > 0 {
			out = append(out, string(trimmed))
		}
	}
	return out
}
