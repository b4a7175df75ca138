package handler

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/aws/aws-lambda-go/lambdacontext"
)

// Context is passed to every handler invocation. It carries the story logger
// and the metrics recorded during the invocation.
type Context struct {
	context.Context
	storyLogger *Logger
	metrics     []*MetricBuilder
}

func (h *Context) GetLogger() *Logger {
	if h.storyLogger != nil {
		return h.storyLogger
	}
	h.storyLogger = newStoryLogger(slog.Default())
	return h.storyLogger
}

func (h *Context) Split(ctx context.Context) (*Context, func()) {
	logger := h.GetLogger()
	splitCtx := &Context{
		Context:     ctx,
		storyLogger: newStoryLogger(logger.slogger),
	}
	splitCtx.storyLogger.startStory()
	deferFn := func() {
		splitCtx.finalize()
	}
	return splitCtx, deferFn
}

func (h *Context) finalize() {
	h.addMetricsToLogging()
	h.storyLogger.Log()
}

// GetWithSlogLogger returns a Context which logs each line straight to logger.
// It is used when a handler is invoked outside the lambda runtime.
func GetWithSlogLogger(ctx context.Context, logger *slog.Logger) *Context {
	return &Context{
		Context:     ctx,
		storyLogger: newStoryLogger(logger),
	}
}

func newSlogger(logWriter *io.Writer) *slog.Logger {
	var w io.Writer = os.Stdout
	if logWriter != nil && *logWriter != nil {
		w = *logWriter
	}
	logger := slog.New(slog.NewJSONHandler(w, nil))

	traceID := os.Getenv("_X_AMZN_TRACE_ID")
	if traceID != "" {
		parts := strings.Split(traceID, ";")
		logger = logger.With("trace_id", strings.TrimPrefix(parts[0], "Root="))
	}
	return logger
}

// withLogger adapts a Handler to the signature expected by lambda.Start. Each
// invocation gets its own story logger which is written out as a single line
// when the handler returns.
func withLogger[T any, U any](handlerFn Handler[T, U], logWriter *io.Writer) func(context.Context, T) (U, error) {
	return func(ctx context.Context, event T) (U, error) {
		hctx := &Context{
			Context:     ctx,
			storyLogger: newStoryLogger(newSlogger(logWriter)),
		}
		hctx.storyLogger.startStory()
		defer hctx.finalize()

		if lc, ok := lambdacontext.FromContext(ctx); ok {
			hctx.storyLogger.AddParam("requestId", lc.AwsRequestID)
		}

		response, err := handlerFn(hctx, event)
		if err != nil {
			hctx.GetLogger().Error("Invocation returned error", "error", err.Error())
		}
		return response, err
	}
}
