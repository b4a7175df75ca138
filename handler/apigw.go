package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
)

type APIGatewayHandler = Handler[events.APIGatewayProxyRequest, events.APIGatewayProxyResponse]

// APIGatewayFunc returns the value to be sent as the JSON response body
type APIGatewayFunc func(ctx *Context, request events.APIGatewayProxyRequest) (any, error)

var corsHeaders = map[string]string{
	"Access-Control-Allow-Origin":  "*",
	"Access-Control-Allow-Headers": "Content-Type,X-Amz-Date,Authorization,X-Api-Key,X-Amz-Security-Token,X-Amz-User-Agent",
	"Access-Control-Allow-Methods": "GET,POST,PUT",
}

type errorBody struct {
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
}

// GetAPIGatewayHandler returns a lambda handler for API Gateway proxy events.
// The value returned by fn is sent as a JSON body with status 200. An
// *HTTPError is sent with its own status code; any other error becomes a 500
// without exposing the error text.
func GetAPIGatewayHandler(fn APIGatewayFunc) APIGatewayHandler {

	logInputEvent := GetEnvBool("LOG_INPUT_EVENT", false)

	return func(ctx *Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		logger := ctx.GetLogger()
		logger.AddParam("httpMethod", request.HTTPMethod).AddParam("resource", request.Resource)
		if logInputEvent {
			logger.AddParam("inputEvent", request)
		}

		body, err := fn(ctx, request)
		if err != nil {
			var httpErr *HTTPError
			if errors.As(err, &httpErr) {
				logger.Warn("Request rejected", "statusCode", httpErr.StatusCode, "error", err.Error())
				return jsonResponse(httpErr.StatusCode, errorBody{Message: httpErr.Message, Details: httpErr.Details}), nil
			}
			logger.Error("Request failed", "error", err.Error())
			return jsonResponse(http.StatusInternalServerError, errorBody{Message: "Internal Server Error"}), nil
		}

		logger.AddStage("Request succeeded")
		return jsonResponse(http.StatusOK, body), nil
	}
}

func jsonResponse(statusCode int, body any) events.APIGatewayProxyResponse {
	headers := make(map[string]string, len(corsHeaders)+1)
	for k, v := range corsHeaders {
		headers[k] = v
	}
	headers["Content-Type"] = "application/json"

	bytes, err := json.Marshal(body)
	if err != nil {
		return events.APIGatewayProxyResponse{
			StatusCode: http.StatusInternalServerError,
			Headers:    headers,
			Body:       `{"message":"Internal Server Error"}`,
		}
	}

	return events.APIGatewayProxyResponse{
		StatusCode: statusCode,
		Headers:    headers,
		Body:       string(bytes),
	}
}
