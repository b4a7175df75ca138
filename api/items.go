package api

import (
	"maps"
	"net/http"
	"slices"

	"github.com/aws/aws-lambda-go/events"
	"github.com/swiftbyte/backend/attr"
	"github.com/swiftbyte/backend/food"
	"github.com/swiftbyte/backend/handler"
	"github.com/swiftbyte/backend/store"
)

// Create handles POST /customer, /restaurant, /order and /review. The data
// class is taken from the resource path.
func (a *API) Create(ctx *handler.Context, request events.APIGatewayProxyRequest) (any, error) {
	logger := ctx.GetLogger()

	if request.HTTPMethod != http.MethodPost {
		return nil, handler.BadRequest("Invalid HTTP method")
	}
	if request.Body == "" {
		return nil, handler.BadRequest("No body provided")
	}

	dataClass := food.DataClassFromResource(request.Resource)
	kind, ok := food.KindOf(dataClass)
	if !ok {
		return nil, handler.BadRequest("Invalid data class")
	}
	logger.AddParam("dataClass", dataClass)

	body, err := requestBody(request)
	if err != nil {
		return nil, err
	}
	entity, err := kind.Create(body, a.now())
	if err != nil {
		return nil, badInput(err)
	}
	rec, err := food.RecordOf(entity)
	if err != nil {
		return nil, err
	}

	key := store.Key{ID: entity.EntityID(), DataClass: dataClass}
	logger.AddParam("id", key.ID)
	if err = a.store.Put(ctx, key, rec); err != nil {
		return nil, storeError(err)
	}
	logger.AddStage("Item created")
	ctx.Metric("ItemCreated").Dimension("dataClass", dataClass).Unit(handler.UnitCount).Value(1)

	a.publish(ctx, key, rec)
	return food.Redact(rec), nil
}

// Read handles GET ?id=&dataClass=
func (a *API) Read(ctx *handler.Context, request events.APIGatewayProxyRequest) (any, error) {
	key, err := keyFromQuery(request)
	if err != nil {
		return nil, err
	}
	ctx.GetLogger().AddParam("dataClass", key.DataClass).AddParam("id", key.ID)

	res, err := a.store.Get(ctx, key)
	if err != nil {
		return nil, storeError(err)
	}
	logSkips(ctx, res.Skipped)
	return food.Redact(res.Value), nil
}

// Update handles PUT ?id=&dataClass= with a partial item as the body.
func (a *API) Update(ctx *handler.Context, request events.APIGatewayProxyRequest) (any, error) {
	logger := ctx.GetLogger()

	key, err := keyFromQuery(request)
	if err != nil {
		return nil, err
	}
	logger.AddParam("dataClass", key.DataClass).AddParam("id", key.ID)
	if request.Body == "" {
		return nil, handler.BadRequest("No body provided")
	}

	body, err := requestBody(request)
	if err != nil {
		return nil, err
	}
	kind, _ := food.KindOf(key.DataClass)
	fields, err := kind.ParseUpdate(body)
	if err != nil {
		return nil, badInput(err)
	}

	if err = a.store.Update(ctx, key, fields); err != nil {
		return nil, storeError(err)
	}
	updated := slices.Sorted(maps.Keys(fields))
	logger.AddStage("Item updated").AddParam("attributes", updated)
	ctx.Metric("ItemUpdated").Dimension("dataClass", key.DataClass).Unit(handler.UnitCount).Value(1)

	if a.publisher != nil {
		res, err := a.store.Get(ctx, key)
		if err != nil {
			logger.Warn("Updated item could not be read for change event", "error", err.Error())
		} else {
			a.publish(ctx, key, res.Value)
		}
	}

	return map[string]any{
		"id":         key.ID,
		"dataClass":  key.DataClass,
		"attributes": updated,
	}, nil
}

// publish sends a change event without the password. The item has already
// been written, so a failure is logged rather than returned.
func (a *API) publish(ctx *handler.Context, key store.Key, rec attr.Record) {
	if a.publisher == nil {
		return
	}
	if err := a.publisher.Publish(ctx, key, food.Redact(rec)); err != nil {
		ctx.GetLogger().Error("Change event not published", "error", err.Error())
		return
	}
	ctx.GetLogger().AddStage("Change published")
}
