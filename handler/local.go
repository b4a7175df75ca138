package handler

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	lambdaSdk "github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/joho/godotenv"
)

func IsLambda() bool {
	return os.Getenv("LAMBDA_TASK_ROOT") != ""
}

const (
	envKeyDebugPort    = "LAMBDA_DEBUG_PORT"
	envKeyFunctionName = "LAMBDA_FUNCTION_NAME"
	envKeyEnvFile      = "LAMBDA_ENV_FILE"
)

// localInvokeTimeout is the deadline given to a locally replayed event.
const localInvokeTimeout = time.Hour

// LambdaConfigAPI is the part of the Lambda client used to read the
// environment of the deployed function.
type LambdaConfigAPI interface {
	GetFunctionConfiguration(ctx context.Context, params *lambdaSdk.GetFunctionConfigurationInput, optFns ...func(*lambdaSdk.Options)) (*lambdaSdk.GetFunctionConfigurationOutput, error)
}

func getLocalAddr() string {
	if port := os.Getenv(envKeyDebugPort); port != "" {
		return ":" + port
	}
	return ":8000"
}

// startLambdaLocally serves the handler over HTTP so that events can be
// replayed against it with curl. The environment is taken from the deployed
// function, then from the env file, then from the process.
func startLambdaLocally[T any, U any](ctx context.Context, cfg aws.Config, getHandler func(awsConfig aws.Config) Handler[T, U]) {
	console := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if funcName := getLambdaFunctionName(os.Stdin); funcName != "" {
		loaded, err := loadFunctionEnv(ctx, lambdaSdk.NewFromConfig(cfg), funcName)
		if err != nil {
			console.Error("Unable to read the environment of the lambda function. Check AWS_PROFILE is set", "function", funcName, "error", err.Error())
			os.Exit(1)
		}
		console.Info("Loaded environment from lambda function", "function", funcName, "count", loaded)
	}

	envFile := GetEnvOrDefault(envKeyEnvFile, ".env")
	loaded, err := loadEnvFile(envFile)
	if err != nil {
		console.Error("Unable to read env file", "file", envFile, "error", err.Error())
		os.Exit(1)
	}
	if loaded > 0 {
		console.Info("Loaded environment from env file", "file", envFile, "count", loaded)
	}

	addr := getLocalAddr()
	server := &http.Server{
		Addr:              addr,
		Handler:           newLocalMux(addr, getHandler(cfg)),
		ReadHeaderTimeout: 3 * time.Second,
	}

	console.Info(fmt.Sprintf("POST events with: curl -X POST -H 'Content-Type: application/json' -d @payload.json http://localhost%s/endpoint", addr))
	err = server.ListenAndServe()
	if errors.Is(err, syscall.EADDRINUSE) {
		err = fmt.Errorf("port %s is already in use, set %s to use a different port", strings.TrimPrefix(addr, ":"), envKeyDebugPort)
	}
	panic(err)
}

func newLocalMux[T any, U any](addr string, handlerFn Handler[T, U]) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /", func(w http.ResponseWriter, _ *http.Request) {
		writeLocal(w, http.StatusOK, []byte("Save the event to a file, e.g. payload.json, and run\n\n"+
			fmt.Sprintf("curl -X POST -H \"Content-Type: application/json\" -d @payload.json http://localhost%s/endpoint\n", addr)))
	})
	mux.Handle("POST /endpoint", localEndpoint(handlerFn))
	return mux
}

// localEndpoint decodes the request body as the lambda event and responds
// with the handler's result as JSON. Handler errors are returned as a 500
// with the error message.
func localEndpoint[T any, U any](handlerFn Handler[T, U]) http.HandlerFunc {
	invoke := withLogger(handlerFn, nil)

	return func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()

		var event T
		if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
			writeLocal(w, http.StatusBadRequest, []byte(err.Error()))
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), localInvokeTimeout)
		defer cancel()

		result, err := invoke(ctx, event)
		if err != nil {
			writeLocal(w, http.StatusInternalServerError, []byte(err.Error()))
			return
		}

		body, err := json.Marshal(result)
		if err != nil {
			writeLocal(w, http.StatusInternalServerError, []byte(err.Error()))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		writeLocal(w, http.StatusOK, body)
	}
}

func writeLocal(w http.ResponseWriter, status int, body []byte) {
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		slog.Error("Unable to write local response", "error", err.Error())
	}
}

// loadFunctionEnv copies the environment of the deployed function into the
// local overrides.
func loadFunctionEnv(ctx context.Context, client LambdaConfigAPI, funcName string) (int, error) {
	res, err := client.GetFunctionConfiguration(ctx, &lambdaSdk.GetFunctionConfigurationInput{
		FunctionName: aws.String(funcName),
	})
	if err != nil {
		return 0, err
	}
	if res.Environment == nil {
		return 0, nil
	}
	for k, v := range res.Environment.Variables {
		envVarMap[k] = v
	}
	return len(res.Environment.Variables), nil
}

// loadEnvFile merges the variables in path into the local overrides. A
// missing file is not an error.
func loadEnvFile(path string) (int, error) {
	vars, err := godotenv.Read(path)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	for k, v := range vars {
		envVarMap[k] = v
	}
	return len(vars), nil
}

// getLambdaFunctionName takes the function name from the environment or
// prompts for it. A log group name is accepted too.
func getLambdaFunctionName(prompt io.Reader) string {
	name := os.Getenv(envKeyFunctionName)
	if name == "" {
		fmt.Printf("Lambda function or log group name to load the environment from (enter to skip, or set %s): ", envKeyFunctionName)
		name, _ = bufio.NewReader(prompt).ReadString('\n')
	}
	return strings.TrimPrefix(strings.TrimSpace(name), "/aws/lambda/")
}
