package api

import (
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/swiftbyte/backend/food"
	"github.com/swiftbyte/backend/handler"
)

func (a *API) ListRestaurants(ctx *handler.Context, _ events.APIGatewayProxyRequest) (any, error) {
	res, err := scan(ctx, a.store, food.ClassRestaurant, nil)
	if err != nil {
		return nil, err
	}
	logSkips(ctx, res.Skipped)
	if len(res.Value) == 0 {
		return nil, handler.NotFound("No restaurants found")
	}
	ctx.GetLogger().AddParam("count", len(res.Value))
	return redactAll(res.Value), nil
}

// OrdersByCustomer handles GET ?id= where id is the customer id.
func (a *API) OrdersByCustomer(ctx *handler.Context, request events.APIGatewayProxyRequest) (any, error) {
	customerID := request.QueryStringParameters["id"]
	if customerID == "" {
		return nil, handler.BadRequest("Query parameter id is required")
	}
	ctx.GetLogger().AddParam("customerId", customerID)

	res, err := scan(ctx, a.store, food.ClassOrder, map[string]string{"customerId": customerID})
	if err != nil {
		return nil, err
	}
	logSkips(ctx, res.Skipped)
	if len(res.Value) == 0 {
		return nil, handler.NotFound("No orders found for customer")
	}
	ctx.GetLogger().AddParam("count", len(res.Value))
	return res.Value, nil
}

// RestaurantSignIn handles GET ?email=&password= and returns the one
// restaurant with those credentials.
func (a *API) RestaurantSignIn(ctx *handler.Context, request events.APIGatewayProxyRequest) (any, error) {
	email := request.QueryStringParameters["email"]
	password := request.QueryStringParameters["password"]
	if email == "" || password == "" {
		return nil, handler.BadRequest("Query parameters email and password are required")
	}
	ctx.GetLogger().AddParam("email", email)

	res, err := scan(ctx, a.store, food.ClassRestaurant, map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return nil, err
	}
	logSkips(ctx, res.Skipped)

	switch len(res.Value) {
	case 0:
		ctx.Metric("SignInFailed").Unit(handler.UnitCount).Value(1)
		return nil, handler.NewHTTPError(http.StatusUnauthorized, "No restaurant found with provided login details")
	case 1:
		ctx.GetLogger().AddParam("id", res.Value[0]["id"])
		return food.Redact(res.Value[0]), nil
	default:
		return nil, handler.NewHTTPError(http.StatusConflict, "Multiple restaurants found with provided login details")
	}
}
