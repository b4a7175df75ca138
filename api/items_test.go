package api

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swiftbyte/backend/attr"
	"github.com/swiftbyte/backend/food"
	"github.com/swiftbyte/backend/handler"
	"github.com/swiftbyte/backend/store"
)

const customerBody = `{"firstName":"Ada","lastName":"Lovelace","email":"ada@example.com","phone":"0211234567","password":"hunter2hunter2"}`

func decodeBody(t *testing.T, response events.APIGatewayProxyResponse) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal([]byte(response.Body), &body))
	return body
}

func TestAPI_Create(t *testing.T) {

	testcases := []struct {
		name           string
		request        events.APIGatewayProxyRequest
		storeErr       error
		expectedStatus int
		checkBody      func(t *testing.T, body map[string]any)
	}{
		{
			name:           "customer created",
			request:        events.APIGatewayProxyRequest{HTTPMethod: http.MethodPost, Resource: "/customer", Body: customerBody},
			expectedStatus: http.StatusOK,
			checkBody: func(t *testing.T, body map[string]any) {
				assert.Equal(t, "Ada", body["firstName"])
				assert.Equal(t, food.MembershipStandard, body["membership"])
				assert.NotContains(t, body, "password")
				assert.NotEmpty(t, body["id"])
			},
		},
		{
			name: "base64 body",
			request: events.APIGatewayProxyRequest{
				HTTPMethod:      http.MethodPost,
				Resource:        "/Customer",
				Body:            base64.StdEncoding.EncodeToString([]byte(customerBody)),
				IsBase64Encoded: true,
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "wrong method",
			request:        events.APIGatewayProxyRequest{HTTPMethod: http.MethodGet, Resource: "/customer", Body: customerBody},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "no body",
			request:        events.APIGatewayProxyRequest{HTTPMethod: http.MethodPost, Resource: "/customer"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "unknown data class",
			request:        events.APIGatewayProxyRequest{HTTPMethod: http.MethodPost, Resource: "/driver", Body: customerBody},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "invalid JSON",
			request:        events.APIGatewayProxyRequest{HTTPMethod: http.MethodPost, Resource: "/customer", Body: `{"firstName":`},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "validation failure",
			request:        events.APIGatewayProxyRequest{HTTPMethod: http.MethodPost, Resource: "/review", Body: `{"customerId":"c1","rating":3}`},
			expectedStatus: http.StatusBadRequest,
			checkBody: func(t *testing.T, body map[string]any) {
				assert.Equal(t, "Invalid request body", body["message"])
				assert.Equal(t, []any{"restaurantId is required"}, body["details"])
			},
		},
		{
			name:           "id already taken",
			request:        events.APIGatewayProxyRequest{HTTPMethod: http.MethodPost, Resource: "/customer", Body: customerBody},
			storeErr:       fmt.Errorf("failed to put: %w", store.ErrConflict),
			expectedStatus: http.StatusConflict,
		},
		{
			name:           "store unavailable",
			request:        events.APIGatewayProxyRequest{HTTPMethod: http.MethodPost, Resource: "/customer", Body: customerBody},
			storeErr:       errors.New("dial tcp: i/o timeout"),
			expectedStatus: http.StatusInternalServerError,
			checkBody: func(t *testing.T, body map[string]any) {
				assert.Equal(t, "Internal Server Error", body["message"])
			},
		},
	}

	for _, tc := range testcases {
		t.Run(tc.name, func(t *testing.T) {
			table := newMemStore()
			table.err = tc.storeErr
			a := newTestAPI(table, nil)

			response, err := handler.GetAPIGatewayHandler(a.Create)(newTestContext(), tc.request)
			require.NoError(t, err)
			assert.Equal(t, tc.expectedStatus, response.StatusCode)
			if tc.checkBody != nil {
				tc.checkBody(t, decodeBody(t, response))
			}
		})
	}
}

func TestAPI_Create_StoresFullRecord(t *testing.T) {
	table := newMemStore()
	a := newTestAPI(table, nil)

	body, err := a.Create(newTestContext(), events.APIGatewayProxyRequest{
		HTTPMethod: http.MethodPost,
		Resource:   "/order",
		Body:       `{"customerId":"c1","restaurant":{"id":"r1","name":"Seoul Kitchen"},"foodItems":[{"category":"main","name":"Bibimbap","price":18.5}],"totalPrice":18.5,"deliveryAddress":"2 King St"}`,
	})
	require.NoError(t, err)

	id := body.(attr.Record)["id"].(string)
	stored := table.items[store.Key{ID: id, DataClass: food.ClassOrder}]
	require.NotNil(t, stored)
	assert.Equal(t, "pending", stored["orderStatus"])
	assert.Equal(t, float64(fixedNow.UnixMilli()), stored["orderDate"])
	assert.Equal(t, map[string]any{"id": "r1", "name": "Seoul Kitchen", "address": "", "phone": ""}, stored["restaurant"])
}

func TestAPI_Create_PublishesChange(t *testing.T) {
	client := &fakeSNS{}
	a := newTestAPI(newMemStore(), NewPublisher(client, "arn:aws:sns:ap-southeast-2:123456789012:changes", attr.NewCodec()))

	_, err := a.Create(newTestContext(), events.APIGatewayProxyRequest{
		HTTPMethod: http.MethodPost,
		Resource:   "/review",
		Body:       `{"customerId":"c1","restaurantId":"r1","rating":4,"comment":"Great"}`,
	})
	require.NoError(t, err)

	require.Len(t, client.inputs, 1)
	input := client.inputs[0]
	assert.Equal(t, "arn:aws:sns:ap-southeast-2:123456789012:changes", aws.ToString(input.TopicArn))
	assert.Equal(t, "review", aws.ToString(input.MessageAttributes["dataClass"].StringValue))

	change := client.changes()[0]
	assert.Equal(t, food.ClassReview, change.DataClass)
	item, err := attr.UnmarshalJSON(change.Item)
	require.NoError(t, err)
	assert.True(t, item.Complete())
	assert.Equal(t, &types.AttributeValueMemberN{Value: "4"}, item.Value["rating"])
	assert.Equal(t, &types.AttributeValueMemberS{Value: "r1"}, item.Value["restaurantId"])
}

func TestAPI_PublishedChangesOmitPassword(t *testing.T) {
	client := &fakeSNS{}
	table := newMemStore()
	a := newTestAPI(table, NewPublisher(client, "arn:aws:sns:ap-southeast-2:123456789012:changes", attr.NewCodec()))

	body, err := a.Create(newTestContext(), events.APIGatewayProxyRequest{
		HTTPMethod: http.MethodPost,
		Resource:   "/customer",
		Body:       customerBody,
	})
	require.NoError(t, err)
	id := body.(attr.Record)["id"].(string)

	_, err = a.Update(newTestContext(), events.APIGatewayProxyRequest{
		HTTPMethod:            http.MethodPut,
		QueryStringParameters: map[string]string{"id": id, "dataClass": "customer"},
		Body:                  `{"phone":"0217654321","password":"correcthorse"}`,
	})
	require.NoError(t, err)

	require.Len(t, client.inputs, 2)
	for _, input := range client.inputs {
		assert.NotContains(t, aws.ToString(input.Message), "password")
		assert.NotContains(t, aws.ToString(input.Message), "hunter2hunter2")
		assert.NotContains(t, aws.ToString(input.Message), "correcthorse")
	}
	assert.Equal(t, "correcthorse", table.items[store.Key{ID: id, DataClass: food.ClassCustomer}]["password"])
}

func TestAPI_Create_PublishFailureIsNotFatal(t *testing.T) {
	client := &fakeSNS{err: errors.New("topic does not exist")}
	table := newMemStore()
	a := newTestAPI(table, NewPublisher(client, "arn:aws:sns:ap-southeast-2:123456789012:changes", attr.NewCodec()))

	_, err := a.Create(newTestContext(), events.APIGatewayProxyRequest{
		HTTPMethod: http.MethodPost,
		Resource:   "/customer",
		Body:       customerBody,
	})
	require.NoError(t, err)
	assert.Len(t, table.items, 1)
}

func TestAPI_Read(t *testing.T) {
	customer := attr.Record{"id": "c1", "dataClass": "customer", "firstName": "Ada", "password": "hunter2hunter2"}

	testcases := []struct {
		name           string
		query          map[string]string
		skipped        []attr.Skip
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "found",
			query:          map[string]string{"id": "c1", "dataClass": "customer"},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"id":"c1","dataClass":"customer","firstName":"Ada"}`,
		},
		{
			name:           "found with skipped values",
			query:          map[string]string{"id": "c1", "dataClass": "customer"},
			skipped:        []attr.Skip{{Path: "cart.photo", Err: &attr.DecodeError{Tag: "B"}}},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"id":"c1","dataClass":"customer","firstName":"Ada"}`,
		},
		{
			name:           "missing item",
			query:          map[string]string{"id": "c2", "dataClass": "customer"},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `{"message":"Item not found"}`,
		},
		{
			name:           "missing parameter",
			query:          map[string]string{"id": "c1"},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"message":"Query parameters id and dataClass are required"}`,
		},
		{
			name:           "unknown data class",
			query:          map[string]string{"id": "c1", "dataClass": "driver"},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"message":"Invalid data class"}`,
		},
	}

	for _, tc := range testcases {
		t.Run(tc.name, func(t *testing.T) {
			table := newMemStore(customer)
			table.skipped = tc.skipped
			a := newTestAPI(table, nil)

			response, err := handler.GetAPIGatewayHandler(a.Read)(newTestContext(), events.APIGatewayProxyRequest{
				HTTPMethod:            http.MethodGet,
				QueryStringParameters: tc.query,
			})
			require.NoError(t, err)
			assert.Equal(t, tc.expectedStatus, response.StatusCode)
			assert.JSONEq(t, tc.expectedBody, response.Body)
		})
	}
}

func TestAPI_Update(t *testing.T) {
	order := attr.Record{"id": "o1", "dataClass": "order", "customerId": "c1", "orderStatus": "pending"}

	testcases := []struct {
		name           string
		query          map[string]string
		body           string
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "status updated",
			query:          map[string]string{"id": "o1", "dataClass": "order"},
			body:           `{"orderStatus":"accepted","deliveryInstruction":"Leave at door"}`,
			expectedStatus: http.StatusOK,
			expectedBody:   `{"id":"o1","dataClass":"order","attributes":["deliveryInstruction","orderStatus"]}`,
		},
		{
			name:           "missing item",
			query:          map[string]string{"id": "o2", "dataClass": "order"},
			body:           `{"orderStatus":"accepted"}`,
			expectedStatus: http.StatusNotFound,
			expectedBody:   `{"message":"Item not found"}`,
		},
		{
			name:           "invalid status",
			query:          map[string]string{"id": "o1", "dataClass": "order"},
			body:           `{"orderStatus":"lost"}`,
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"message":"Invalid request body","details":["orderStatus must be one of: pending accepted declined completed cancelled new delivering pendingDriver"]}`,
		},
		{
			name:           "unknown attribute",
			query:          map[string]string{"id": "o1", "dataClass": "order"},
			body:           `{"dataClass":"review"}`,
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"message":"Invalid request body"}`,
		},
		{
			name:           "no body",
			query:          map[string]string{"id": "o1", "dataClass": "order"},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"message":"No body provided"}`,
		},
	}

	for _, tc := range testcases {
		t.Run(tc.name, func(t *testing.T) {
			table := newMemStore(order)
			a := newTestAPI(table, nil)

			response, err := handler.GetAPIGatewayHandler(a.Update)(newTestContext(), events.APIGatewayProxyRequest{
				HTTPMethod:            http.MethodPut,
				QueryStringParameters: tc.query,
				Body:                  tc.body,
			})
			require.NoError(t, err)
			assert.Equal(t, tc.expectedStatus, response.StatusCode)
			assert.JSONEq(t, tc.expectedBody, response.Body)
		})
	}
}

func TestAPI_Update_PublishesUpdatedItem(t *testing.T) {
	client := &fakeSNS{}
	table := newMemStore(attr.Record{"id": "rv1", "dataClass": "review", "restaurantId": "r1", "rating": 2.0})
	a := newTestAPI(table, NewPublisher(client, "arn:aws:sns:ap-southeast-2:123456789012:changes", attr.NewCodec()))

	_, err := a.Update(newTestContext(), events.APIGatewayProxyRequest{
		HTTPMethod:            http.MethodPut,
		QueryStringParameters: map[string]string{"id": "rv1", "dataClass": "review"},
		Body:                  `{"rating":5}`,
	})
	require.NoError(t, err)

	changes := client.changes()
	require.Len(t, changes, 1)
	item, err := attr.UnmarshalJSON(changes[0].Item)
	require.NoError(t, err)
	assert.Equal(t, &types.AttributeValueMemberN{Value: "5"}, item.Value["rating"])
	assert.Equal(t, &types.AttributeValueMemberS{Value: "r1"}, item.Value["restaurantId"])
}
